// Package fulfillment reconciles an order's lines against the shipments
// issued for it and builds the order amendments an over-shipment forces.
// Like costing, everything here is pure: snapshots in, results out.
package fulfillment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-fulfillment-ws/internal/model"
)

// MatchConfidence signals how a line's shipped quantity was matched.
type MatchConfidence string

const (
	// MatchExact - every contributing shipment line carried the order item
	// index, matching is precise.
	MatchExact MatchConfidence = "EXACT"

	// MatchByProduct - at least one legacy shipment line lacked the index
	// and was matched by product id. Best effort: when the same product
	// appears on several lines of the order this may over- or under-count,
	// and the operator should be shown the reduced confidence.
	MatchByProduct MatchConfidence = "BY_PRODUCT"
)

// LineFulfillment is the reconciliation status of one order line.
type LineFulfillment struct {
	LineIndex         int             `json:"line_index"`
	ProductID         uuid.UUID       `json:"product_id"`
	OrderedQuantity   decimal.Decimal `json:"ordered_quantity"`
	ShippedQuantity   decimal.Decimal `json:"shipped_quantity"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	OverShipped       bool            `json:"over_shipped"`
	Confidence        MatchConfidence `json:"confidence"`
}

// Reconcile computes shipped and remaining quantities for every line of
// the order from the given shipments. Voided shipments never participate.
//
// Matching is two-tier per line: shipment lines carrying OrderItemIndex
// match positionally; legacy lines without it fall back to product-id
// matching, flagged via Confidence. RemainingQuantity is clamped at zero,
// the excess is surfaced as OverShipped instead of a negative number.
//
// Deterministic and idempotent over unchanged input.
func Reconcile(order *model.Order, shipments []model.Shipment) []LineFulfillment {
	statuses := make([]LineFulfillment, 0, len(order.Lines))

	for i := range order.Lines {
		line := &order.Lines[i]
		shipped := decimal.Zero
		confidence := MatchExact

		for j := range shipments {
			shipment := &shipments[j]
			if shipment.IsDeleted {
				continue
			}
			for k := range shipment.Lines {
				sl := &shipment.Lines[k]
				switch {
				case sl.OrderItemIndex != nil:
					if *sl.OrderItemIndex == line.LineIndex {
						shipped = shipped.Add(sl.Quantity)
					}
				case sl.ProductID == line.ProductID:
					shipped = shipped.Add(sl.Quantity)
					confidence = MatchByProduct
				}
			}
		}

		remaining := line.OrderedQuantity.Sub(shipped)
		over := remaining.IsNegative()
		if over {
			remaining = decimal.Zero
		}

		statuses = append(statuses, LineFulfillment{
			LineIndex:         line.LineIndex,
			ProductID:         line.ProductID,
			OrderedQuantity:   line.OrderedQuantity,
			ShippedQuantity:   shipped,
			RemainingQuantity: remaining,
			OverShipped:       over,
			Confidence:        confidence,
		})
	}

	return statuses
}

// ProposeShipment builds the default draft for a new shipment: one line
// per order line with unshipped quantity remaining. The operator may
// override any quantity, including beyond the remainder (which then goes
// through the amendment flow).
func ProposeShipment(order *model.Order, shipments []model.Shipment) []DraftLine {
	lines := []DraftLine{}
	for _, st := range Reconcile(order, shipments) {
		if st.RemainingQuantity.IsPositive() {
			lines = append(lines, DraftLine{
				LineIndex: st.LineIndex,
				ProductID: st.ProductID,
				Quantity:  st.RemainingQuantity,
			})
		}
	}
	return lines
}
