package fulfillment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-fulfillment-ws/internal/model"
)

func TestProposeAmendment(t *testing.T) {
	t.Run("draft within remainders needs no confirmation", func(t *testing.T) {
		order := testOrder(100)
		shipments := []model.Shipment{
			testShipment(1, order.ID, shipLine(0, id(100), 30)),
		}
		status := Reconcile(order, shipments)

		draft := ShipmentDraft{OrderID: order.ID, Number: "SH-9001",
			Lines: []DraftLine{{LineIndex: 0, ProductID: id(100), Quantity: dec(70)}}}
		proposal, err := ProposeAmendment(order, draft, status)
		require.NoError(t, err)
		assert.False(t, proposal.RequiresConfirmation)
		assert.Empty(t, proposal.Amendments)
	})

	t.Run("over-shipment corrects ordered to prior shipped plus requested", func(t *testing.T) {
		// Ordered 100, prior shipments 30 and 20 leave 50 remaining; a
		// request of 70 over-ships and the order is corrected to 50+70=120.
		order := testOrder(100)
		shipments := []model.Shipment{
			testShipment(1, order.ID, shipLine(0, id(100), 30)),
			testShipment(2, order.ID, shipLine(0, id(100), 20)),
		}
		status := Reconcile(order, shipments)
		require.True(t, status[0].RemainingQuantity.Equal(dec(50)))

		draft := ShipmentDraft{OrderID: order.ID, Number: "SH-9001",
			Lines: []DraftLine{{LineIndex: 0, ProductID: id(100), Quantity: dec(70)}}}
		proposal, err := ProposeAmendment(order, draft, status)
		require.NoError(t, err)
		assert.True(t, proposal.RequiresConfirmation)
		require.Len(t, proposal.Amendments, 1)
		a := proposal.Amendments[0]
		assert.Equal(t, 0, a.LineIndex)
		assert.True(t, a.PriorShipped.Equal(dec(50)))
		assert.True(t, a.RequestedQuantity.Equal(dec(70)))
		assert.True(t, a.PreviousOrdered.Equal(dec(100)))
		assert.True(t, a.NewOrderedQuantity.Equal(dec(120)))
	})

	t.Run("rejects negative quantities", func(t *testing.T) {
		order := testOrder(100)
		status := Reconcile(order, nil)
		draft := ShipmentDraft{Lines: []DraftLine{{LineIndex: 0, Quantity: dec(-1)}}}
		_, err := ProposeAmendment(order, draft, status)
		assert.ErrorIs(t, err, ErrNegativeQuantity)
	})

	t.Run("rejects unknown line index", func(t *testing.T) {
		order := testOrder(100)
		status := Reconcile(order, nil)
		draft := ShipmentDraft{Lines: []DraftLine{{LineIndex: 7, Quantity: dec(5)}}}
		_, err := ProposeAmendment(order, draft, status)
		assert.ErrorIs(t, err, ErrUnknownLine)
	})

	t.Run("skips zero-quantity lines", func(t *testing.T) {
		order := testOrder(100)
		status := Reconcile(order, nil)
		draft := ShipmentDraft{Lines: []DraftLine{{LineIndex: 0, Quantity: dec(0)}}}
		proposal, err := ProposeAmendment(order, draft, status)
		require.NoError(t, err)
		assert.False(t, proposal.RequiresConfirmation)
	})
}

func TestApplyAmendment(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

	t.Run("no amendments returns the order untouched", func(t *testing.T) {
		order := testOrder(100)
		out := ApplyAmendment(order, AmendmentProposal{}, "SH-9001", now)
		assert.Same(t, order, out)
	})

	t.Run("raises quantities and recomputes totals from the full line set", func(t *testing.T) {
		order := testOrder(100, 40) // line prices are 10, VAT 5%
		order.Notes = "created by import"
		shipments := []model.Shipment{
			testShipment(1, order.ID, shipLine(0, id(100), 30)),
			testShipment(2, order.ID, shipLine(0, id(100), 20)),
		}
		status := Reconcile(order, shipments)
		draft := ShipmentDraft{OrderID: order.ID, Number: "SH-9001",
			Lines: []DraftLine{{LineIndex: 0, ProductID: id(100), Quantity: dec(70)}}}
		proposal, err := ProposeAmendment(order, draft, status)
		require.NoError(t, err)
		require.True(t, proposal.RequiresConfirmation)

		amended := ApplyAmendment(order, proposal, draft.Number, now)

		assert.True(t, amended.LineAt(0).OrderedQuantity.Equal(dec(120)))
		assert.True(t, amended.LineAt(1).OrderedQuantity.Equal(dec(40)))
		// (120 + 40) * 10 = 1600; VAT 5% = 80
		assert.True(t, amended.Subtotal.Equal(dec(1600)), "subtotal %s", amended.Subtotal)
		assert.True(t, amended.VATAmount.Equal(dec(80)))
		assert.True(t, amended.TotalAmount.Equal(dec(1680)))

		assert.Contains(t, amended.Notes, "created by import")
		assert.Contains(t, amended.Notes, "2024-06-15 10:30:00")
		assert.Contains(t, amended.Notes, "corrected 100 -> 120")
		assert.Contains(t, amended.Notes, "SH-9001")
	})

	t.Run("leaves the input order unchanged", func(t *testing.T) {
		order := testOrder(100)
		shipments := []model.Shipment{
			testShipment(1, order.ID, shipLine(0, id(100), 80)),
		}
		status := Reconcile(order, shipments)
		draft := ShipmentDraft{OrderID: order.ID, Number: "SH-9002",
			Lines: []DraftLine{{LineIndex: 0, ProductID: id(100), Quantity: dec(50)}}}
		proposal, err := ProposeAmendment(order, draft, status)
		require.NoError(t, err)

		_ = ApplyAmendment(order, proposal, draft.Number, now)
		assert.True(t, order.LineAt(0).OrderedQuantity.Equal(dec(100)))
		assert.Empty(t, order.Notes)
	})

	t.Run("notes stay append-only across repeated amendments", func(t *testing.T) {
		order := testOrder(100)
		status := Reconcile(order, nil)
		draft := ShipmentDraft{OrderID: order.ID, Number: "SH-9001",
			Lines: []DraftLine{{LineIndex: 0, ProductID: id(100), Quantity: dec(150)}}}
		proposal, err := ProposeAmendment(order, draft, status)
		require.NoError(t, err)

		first := ApplyAmendment(order, proposal, "SH-9001", now)
		status = Reconcile(first, []model.Shipment{
			testShipment(1, order.ID, shipLine(0, id(100), 150)),
		})
		draft2 := ShipmentDraft{OrderID: order.ID, Number: "SH-9002",
			Lines: []DraftLine{{LineIndex: 0, ProductID: id(100), Quantity: dec(10)}}}
		proposal2, err := ProposeAmendment(first, draft2, status)
		require.NoError(t, err)
		second := ApplyAmendment(first, proposal2, "SH-9002", now.Add(time.Hour))

		assert.Contains(t, second.Notes, "SH-9001")
		assert.Contains(t, second.Notes, "SH-9002")
	})
}

func TestRecomputeTotals(t *testing.T) {
	t.Run("totals are a pure function of lines and rate", func(t *testing.T) {
		order := testOrder(10, 20)
		order.Lines[0].UnitPrice = dec(2.5)
		order.Lines[1].UnitPrice = dec(4)
		order.VATRate = dec(7.5)
		RecomputeTotals(order)

		// 10*2.5 + 20*4 = 105; VAT 7.5% = 7.875
		assert.True(t, order.Subtotal.Equal(dec(105)))
		assert.True(t, order.VATAmount.Equal(dec(7.875)))
		assert.True(t, order.TotalAmount.Equal(dec(112.875)))
	})

	t.Run("zero rate yields zero VAT", func(t *testing.T) {
		order := testOrder(10)
		order.VATRate = dec(0)
		RecomputeTotals(order)
		assert.True(t, order.VATAmount.IsZero())
		assert.True(t, order.TotalAmount.Equal(order.Subtotal))
	})
}
