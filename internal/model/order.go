package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "OPEN"
	OrderStatusFulfilled OrderStatus = "FULFILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type Order struct {
	BaseModel
	Number       string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"number" validate:"required"`
	CustomerName string      `gorm:"type:varchar(255)" json:"customer_name"`
	Status       OrderStatus `gorm:"type:varchar(20);not null;default:'OPEN'" json:"status"`

	// Lines are identity-keyed by LineIndex, not product: the same product
	// may legitimately appear on more than one line of an order.
	Lines []OrderLineItem `gorm:"foreignKey:OrderID" json:"lines"`

	// Financial totals are always a pure function of the current lines and
	// VATRate; they are never edited on their own. See fulfillment.RecomputeTotals.
	Subtotal    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	VATRate     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"vat_rate" validate:"decimal_gte0"`
	VATAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"vat_amount"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`

	// Notes is an append-only audit trail; automatic quantity corrections
	// made during shipment are recorded here with a timestamp.
	Notes string `gorm:"type:text" json:"notes"`

	// Revision is the optimistic-concurrency token. Every committed
	// shipment/amendment bumps it; a commit conditioned on a stale revision
	// writes zero rows and the whole reconcile cycle is retried.
	Revision int `gorm:"not null;default:0" json:"revision"`
}

// LineAt returns the line at the given positional index, or nil.
func (o *Order) LineAt(index int) *OrderLineItem {
	for i := range o.Lines {
		if o.Lines[i].LineIndex == index {
			return &o.Lines[i]
		}
	}
	return nil
}

type OrderLineItem struct {
	BaseModel
	OrderID uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`

	// LineIndex is the durable identity of the line within its order.
	LineIndex int       `gorm:"not null" json:"line_index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null" json:"product_id" validate:"uuid_required"`
	Product   *Product  `json:"product,omitempty" validate:"-"`

	OrderedQuantity decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"ordered_quantity" validate:"decimal_gt0"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price" validate:"decimal_gte0"`

	// Costing results, filled in once the line's sale has consumed stock.
	// AccountingCost is the policy-derived plan's total, PhysicalCost the
	// total of the lots actually used.
	AccountingCost  *decimal.Decimal `gorm:"type:decimal(20,4)" json:"accounting_cost,omitempty"`
	PhysicalCost    *decimal.Decimal `gorm:"type:decimal(20,4)" json:"physical_cost,omitempty"`
	CostVariance    *decimal.Decimal `gorm:"type:decimal(20,4)" json:"cost_variance,omitempty"`
	CostVariancePct *decimal.Decimal `gorm:"type:decimal(20,4)" json:"cost_variance_pct,omitempty"`
	HasCostVariance bool             `gorm:"default:false" json:"has_cost_variance"`
}
