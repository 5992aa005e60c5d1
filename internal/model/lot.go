package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLot is a discrete batch of inventory received at a point in time,
// carrying its own unit cost. RemainingQuantity is decremented as sales
// consume the lot; an exhausted lot (remaining == 0) is kept forever for
// audit history, never deleted.
type StockLot struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id" validate:"uuid_required"`
	Product   *Product  `json:"product,omitempty" validate:"-"`

	LotNumber         string          `gorm:"type:varchar(50);not null;index" json:"lot_number" validate:"required"`
	Quantity          decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity" validate:"decimal_gt0"`
	RemainingQuantity decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"remaining_quantity"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost" validate:"decimal_gte0"`
	AcquiredAt        time.Time       `gorm:"not null;index" json:"acquired_at"`
}

// Exhausted reports whether the lot has nothing left to draw.
func (l *StockLot) Exhausted() bool {
	return !l.RemainingQuantity.IsPositive()
}

// LotConsumption is one immutable draw against a single lot, part of a
// consumption plan. TotalCost is always QuantityUsed x UnitCost at the
// moment of selection. Rows are grouped by GroupID: one group per
// consumption operation.
type LotConsumption struct {
	BaseModel
	GroupID   uuid.UUID `gorm:"type:uuid;index" json:"group_id"`
	LotID     uuid.UUID `gorm:"type:uuid;not null;index" json:"lot_id"`
	LotNumber string    `gorm:"type:varchar(50)" json:"lot_number"`
	ProductID uuid.UUID `gorm:"type:uuid;index" json:"product_id"`

	QuantityUsed decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity_used"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_cost"`
	Method       CostingMethod   `gorm:"type:varchar(10)" json:"method"`

	// Optional linkage back to the order line whose sale consumed the stock.
	// The line is addressed positionally, matching OrderLineItem.LineIndex.
	OrderID        *uuid.UUID `gorm:"type:uuid;index" json:"order_id,omitempty"`
	OrderItemIndex *int       `json:"order_item_index,omitempty"`
}
