// Package costing holds the pure lot-consumption engine and the variance
// analyzer. Nothing in this package touches the database or mutates its
// inputs: a plan is computed from a snapshot of lots and committed
// separately by the service layer inside a transaction.
package costing

import (
	"errors"
	"fmt"
	"sort"

	"go-fulfillment-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNonPositiveQuantity = errors.New("quantity must be positive")
	ErrManualSelection     = errors.New("manual costing requires an explicit lot selection")
)

// quantityPrecision is the decimal precision quantities are tracked at.
// Proportional average-method draws are truncated to it before the
// rounding residue is reassigned.
const quantityPrecision = 4

// Plan is an ordered consumption plan: one entry per lot touched, in
// selection-priority order.
type Plan []model.LotConsumption

// Total sums the quantity drawn across all entries.
func (p Plan) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range p {
		total = total.Add(e.QuantityUsed)
	}
	return total
}

// TotalCost sums the cost across all entries.
func (p Plan) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, e := range p {
		total = total.Add(e.TotalCost)
	}
	return total
}

// Shortfall is how much of the requested quantity the plan could not
// cover. Zero when the request was fully satisfied.
func (p Plan) Shortfall(requested decimal.Decimal) decimal.Decimal {
	short := requested.Sub(p.Total())
	if short.IsNegative() {
		return decimal.Zero
	}
	return short
}

// LotIDs returns the ordered sequence of lot ids in the plan.
func (p Plan) LotIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(p))
	for i, e := range p {
		ids[i] = e.LotID
	}
	return ids
}

// Consume selects lots to satisfy quantityNeeded under the given policy
// and returns the ordered plan. If total availability falls short the
// plan covers only what exists; callers must compare Plan.Total() against
// the request and treat a shortfall as a stock-shortage condition, never
// as a silent partial fulfillment.
//
// The input slice is not mutated and no lot's RemainingQuantity changes
// here; applying the plan to the ledger is the caller's commit step.
func Consume(lots []model.StockLot, quantityNeeded decimal.Decimal, method model.CostingMethod) (Plan, error) {
	if !quantityNeeded.IsPositive() {
		return nil, ErrNonPositiveQuantity
	}

	candidates := openLots(lots)

	switch method {
	case model.CostingFIFO:
		sortByAcquisition(candidates, false)
		return drawSequential(candidates, quantityNeeded, method), nil
	case model.CostingLIFO:
		sortByAcquisition(candidates, true)
		return drawSequential(candidates, quantityNeeded, method), nil
	case model.CostingAverage:
		// Entries are emitted in acquisition order so plans stay
		// deterministic regardless of input order.
		sortByAcquisition(candidates, false)
		return drawProportional(candidates, quantityNeeded), nil
	case model.CostingManual:
		return nil, ErrManualSelection
	default:
		return nil, fmt.Errorf("unknown costing method %q", method)
	}
}

// ManualSelection is one operator-chosen draw for MANUAL costing.
type ManualSelection struct {
	LotID    uuid.UUID       `json:"lot_id" validate:"uuid_required"`
	Quantity decimal.Decimal `json:"quantity" validate:"decimal_gt0"`
}

// BuildManualPlan validates an operator's explicit lot selection against
// the lot snapshot and turns it into a plan, each entry costed at its own
// lot's unit cost.
func BuildManualPlan(lots []model.StockLot, selections []ManualSelection) (Plan, error) {
	if len(selections) == 0 {
		return nil, ErrManualSelection
	}

	byID := make(map[uuid.UUID]*model.StockLot, len(lots))
	for i := range lots {
		byID[lots[i].ID] = &lots[i]
	}

	plan := make(Plan, 0, len(selections))
	for _, sel := range selections {
		lot, ok := byID[sel.LotID]
		if !ok {
			return nil, fmt.Errorf("lot %s not found in snapshot", sel.LotID)
		}
		if !sel.Quantity.IsPositive() {
			return nil, ErrNonPositiveQuantity
		}
		if sel.Quantity.GreaterThan(lot.RemainingQuantity) {
			return nil, fmt.Errorf("lot %s has %s remaining, cannot draw %s",
				lot.LotNumber, lot.RemainingQuantity, sel.Quantity)
		}
		plan = append(plan, entry(lot, sel.Quantity, lot.UnitCost, model.CostingManual))
	}
	return plan, nil
}

// openLots filters out exhausted lots without touching the input slice.
func openLots(lots []model.StockLot) []model.StockLot {
	open := make([]model.StockLot, 0, len(lots))
	for _, lot := range lots {
		if lot.RemainingQuantity.IsPositive() {
			open = append(open, lot)
		}
	}
	return open
}

// sortByAcquisition orders lots by acquisition time (descending for LIFO).
// Ties break by lot id ascending so plans are deterministic.
func sortByAcquisition(lots []model.StockLot, newestFirst bool) {
	sort.Slice(lots, func(i, j int) bool {
		a, b := lots[i], lots[j]
		if !a.AcquiredAt.Equal(b.AcquiredAt) {
			if newestFirst {
				return a.AcquiredAt.After(b.AcquiredAt)
			}
			return a.AcquiredAt.Before(b.AcquiredAt)
		}
		return a.ID.String() < b.ID.String()
	})
}

// drawSequential walks the pre-sorted lots greedily, taking
// min(remaining, still needed) from each until satisfied or exhausted.
func drawSequential(lots []model.StockLot, needed decimal.Decimal, method model.CostingMethod) Plan {
	plan := Plan{}
	left := needed
	for i := range lots {
		if !left.IsPositive() {
			break
		}
		take := decimal.Min(lots[i].RemainingQuantity, left)
		plan = append(plan, entry(&lots[i], take, lots[i].UnitCost, method))
		left = left.Sub(take)
	}
	return plan
}

// drawProportional implements the weighted-average policy: a single
// blended unit cost over every open lot, each lot contributing in
// proportion to its share of the total remaining quantity.
//
// Proportional division leaves a rounding residue at quantityPrecision;
// the residue is assigned to lots in descending remaining-quantity order
// (largest lot first), respecting each lot's cap. This is a deliberate,
// documented choice; any consistent rule would do.
func drawProportional(lots []model.StockLot, needed decimal.Decimal) Plan {
	if len(lots) == 0 {
		return Plan{}
	}

	totalRemaining := decimal.Zero
	totalCost := decimal.Zero
	for _, lot := range lots {
		totalRemaining = totalRemaining.Add(lot.RemainingQuantity)
		totalCost = totalCost.Add(lot.RemainingQuantity.Mul(lot.UnitCost))
	}
	avgCost := totalCost.DivRound(totalRemaining, quantityPrecision)

	// Shortage: everything is drawn, proportions are moot.
	if needed.GreaterThanOrEqual(totalRemaining) {
		plan := Plan{}
		for i := range lots {
			plan = append(plan, entry(&lots[i], lots[i].RemainingQuantity, avgCost, model.CostingAverage))
		}
		return plan
	}

	shares := make([]decimal.Decimal, len(lots))
	drawn := decimal.Zero
	for i, lot := range lots {
		share := needed.Mul(lot.RemainingQuantity).Div(totalRemaining).Truncate(quantityPrecision)
		shares[i] = decimal.Min(share, lot.RemainingQuantity)
		drawn = drawn.Add(shares[i])
	}

	// Reassign the truncation residue, largest remainder first.
	residue := needed.Sub(drawn)
	if residue.IsPositive() {
		order := make([]int, len(lots))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool {
			la, lb := lots[order[a]], lots[order[b]]
			if !la.RemainingQuantity.Equal(lb.RemainingQuantity) {
				return la.RemainingQuantity.GreaterThan(lb.RemainingQuantity)
			}
			return la.ID.String() < lb.ID.String()
		})
		for _, i := range order {
			if !residue.IsPositive() {
				break
			}
			headroom := lots[i].RemainingQuantity.Sub(shares[i])
			top := decimal.Min(headroom, residue)
			shares[i] = shares[i].Add(top)
			residue = residue.Sub(top)
		}
	}

	plan := Plan{}
	for i := range lots {
		if shares[i].IsPositive() {
			plan = append(plan, entry(&lots[i], shares[i], avgCost, model.CostingAverage))
		}
	}
	return plan
}

func entry(lot *model.StockLot, qty, unitCost decimal.Decimal, method model.CostingMethod) model.LotConsumption {
	return model.LotConsumption{
		LotID:        lot.ID,
		LotNumber:    lot.LotNumber,
		ProductID:    lot.ProductID,
		QuantityUsed: qty,
		UnitCost:     unitCost,
		TotalCost:    qty.Mul(unitCost),
		Method:       method,
	}
}
