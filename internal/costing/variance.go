package costing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// VarianceReport is the outcome of the structural plan comparison.
type VarianceReport struct {
	HasViolation bool   `json:"has_violation"`
	Message      string `json:"message,omitempty"`
}

// DetectVariance compares a manually chosen plan against the
// policy-derived one. Two plans are equivalent iff their ordered lot-id
// sequences are identical: same lots, same order, same number of entries.
// A different sequence (different lots, reordering, extra or missing
// entries) is a violation; a different quantity split across the same
// sequence is not, that deviation surfaces through CostVariance.
//
// This is a structural check only. The monetary signal is computed
// separately by CostVariance and the two must stay distinct: a manual
// selection can deviate structurally while totalling the same cost, and
// vice versa.
func DetectVariance(selected, policyDerived Plan) VarianceReport {
	if len(selected) != len(policyDerived) {
		return VarianceReport{
			HasViolation: true,
			Message: fmt.Sprintf("selected plan touches %d lot(s), policy plan %d",
				len(selected), len(policyDerived)),
		}
	}
	for i := range selected {
		if selected[i].LotID != policyDerived[i].LotID {
			return VarianceReport{
				HasViolation: true,
				Message: fmt.Sprintf("position %d: selected lot %s, policy expects %s",
					i, selected[i].LotNumber, policyDerived[i].LotNumber),
			}
		}
	}
	return VarianceReport{}
}

// CostVariance computes the monetary deviation between the policy cost
// (accounting) and the cost of the lots actually used (physical).
//
//	variance = physical - accounting
//	pct      = variance / accounting * 100   (zero when accounting is zero)
//
// has is true whenever variance is non-zero.
func CostVariance(accountingCost, physicalCost decimal.Decimal) (variance, pct decimal.Decimal, has bool) {
	variance = physicalCost.Sub(accountingCost)
	if accountingCost.IsZero() {
		pct = decimal.Zero
	} else {
		pct = variance.Div(accountingCost).Mul(decimal.NewFromInt(100)).Round(quantityPrecision)
	}
	return variance, pct, !variance.IsZero()
}
