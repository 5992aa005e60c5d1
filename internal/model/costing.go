package model

// CostingMethod is the lot-selection policy attached to a product.
type CostingMethod string

const (
	// CostingFIFO - First-In-First-Out: oldest lots are consumed first
	CostingFIFO CostingMethod = "FIFO"

	// CostingLIFO - Last-In-First-Out: newest lots are consumed first
	CostingLIFO CostingMethod = "LIFO"

	// CostingAverage - weighted-average cost across all open lots,
	// drawn proportionally from each
	CostingAverage CostingMethod = "AVERAGE"

	// CostingManual - the operator picks lots explicitly; policy cost is
	// still derived (FIFO) for variance reporting
	CostingManual CostingMethod = "MANUAL"
)

// DefaultCostingMethod is applied to products created without a policy.
const DefaultCostingMethod = CostingFIFO

// IsValid checks if the costing method is a known policy
func (m CostingMethod) IsValid() bool {
	switch m {
	case CostingFIFO, CostingLIFO, CostingAverage, CostingManual:
		return true
	default:
		return false
	}
}

// String returns the string representation of the costing method
func (m CostingMethod) String() string {
	return string(m)
}

// UsesLots returns true if the policy walks discrete lots in time order
// (FIFO/LIFO), false for the blended-average policy.
func (m CostingMethod) UsesLots() bool {
	return m == CostingFIFO || m == CostingLIFO
}

// AllCostingMethods lists every valid policy, for validation messages.
func AllCostingMethods() []CostingMethod {
	return []CostingMethod{CostingFIFO, CostingLIFO, CostingAverage, CostingManual}
}
