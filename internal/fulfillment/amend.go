package fulfillment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-fulfillment-ws/internal/model"
)

var (
	ErrNegativeQuantity = errors.New("shipment quantity cannot be negative")
	ErrUnknownLine      = errors.New("draft references a line the order does not have")
)

// ShipmentDraft is a not-yet-committed shipment as entered by the
// operator (or a batch import).
type ShipmentDraft struct {
	OrderID uuid.UUID   `json:"order_id"`
	Number  string      `json:"number"`
	Lines   []DraftLine `json:"lines"`
}

// DraftLine is one proposed shipment quantity against an order line.
type DraftLine struct {
	LineIndex int             `json:"line_index"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// LineAmendment records the quantity correction one over-shipped line
// needs: ordered quantity is raised to prior shipped + requested, so the
// order matches reality instead of being left inconsistent.
type LineAmendment struct {
	LineIndex          int             `json:"line_index"`
	PriorShipped       decimal.Decimal `json:"prior_shipped"`
	RequestedQuantity  decimal.Decimal `json:"requested_quantity"`
	PreviousOrdered    decimal.Decimal `json:"previous_ordered"`
	NewOrderedQuantity decimal.Decimal `json:"new_ordered_quantity"`
}

// AmendmentProposal is phase one of the two-phase amendment flow. When
// RequiresConfirmation is true the caller must obtain an explicit
// confirmation before committing anything; declining aborts the entire
// shipment, not just the offending lines.
type AmendmentProposal struct {
	RequiresConfirmation bool            `json:"requires_confirmation"`
	Amendments           []LineAmendment `json:"amendments,omitempty"`
}

// ProposeAmendment inspects a shipment draft against the order's current
// fulfillment status and lists the quantity corrections it would force.
// Draft lines that fit the remaining quantity produce no amendment; a
// draft with no over-shipped lines yields a proposal with
// RequiresConfirmation false, meaning the shipment is a pure addition.
func ProposeAmendment(order *model.Order, draft ShipmentDraft, status []LineFulfillment) (AmendmentProposal, error) {
	byIndex := make(map[int]LineFulfillment, len(status))
	for _, st := range status {
		byIndex[st.LineIndex] = st
	}

	proposal := AmendmentProposal{}
	for _, dl := range draft.Lines {
		if dl.Quantity.IsNegative() {
			return AmendmentProposal{}, ErrNegativeQuantity
		}
		if dl.Quantity.IsZero() {
			continue
		}
		st, ok := byIndex[dl.LineIndex]
		if !ok {
			return AmendmentProposal{}, fmt.Errorf("%w: line index %d", ErrUnknownLine, dl.LineIndex)
		}
		if dl.Quantity.GreaterThan(st.RemainingQuantity) {
			proposal.Amendments = append(proposal.Amendments, LineAmendment{
				LineIndex:          dl.LineIndex,
				PriorShipped:       st.ShippedQuantity,
				RequestedQuantity:  dl.Quantity,
				PreviousOrdered:    st.OrderedQuantity,
				NewOrderedQuantity: st.ShippedQuantity.Add(dl.Quantity),
			})
		}
	}
	proposal.RequiresConfirmation = len(proposal.Amendments) > 0
	return proposal, nil
}

// ApplyAmendment returns an amended copy of the order: affected lines get
// their ordered quantity raised, financial totals are recomputed from the
// full line set, and a timestamped correction note is appended per line.
// Prior notes are preserved. A proposal without amendments returns the
// order untouched.
//
// The caller persists the result; nothing is written here.
func ApplyAmendment(order *model.Order, p AmendmentProposal, draftNumber string, now time.Time) *model.Order {
	if len(p.Amendments) == 0 {
		return order
	}

	amended := *order
	amended.Lines = make([]model.OrderLineItem, len(order.Lines))
	copy(amended.Lines, order.Lines)

	var notes strings.Builder
	notes.WriteString(amended.Notes)
	stamp := now.Format("2006-01-02 15:04:05")

	for _, a := range p.Amendments {
		line := amended.LineAt(a.LineIndex)
		if line == nil {
			continue
		}
		line.OrderedQuantity = a.NewOrderedQuantity
		if notes.Len() > 0 {
			notes.WriteString("\n")
		}
		fmt.Fprintf(&notes,
			"[%s] Ordered quantity for line %d corrected %s -> %s during shipment %s (over-shipment confirmed)",
			stamp, a.LineIndex, a.PreviousOrdered, a.NewOrderedQuantity, draftNumber)
	}
	amended.Notes = notes.String()

	RecomputeTotals(&amended)
	return &amended
}

// RecomputeTotals derives subtotal, VAT amount and total from the current
// lines and VAT rate. Totals are never edited independently of a
// line-item change; every mutation path funnels through here.
func RecomputeTotals(order *model.Order) {
	subtotal := decimal.Zero
	for _, line := range order.Lines {
		subtotal = subtotal.Add(line.OrderedQuantity.Mul(line.UnitPrice))
	}
	order.Subtotal = subtotal
	order.VATAmount = subtotal.Mul(order.VATRate).Div(decimal.NewFromInt(100))
	order.TotalAmount = subtotal.Add(order.VATAmount)
}
