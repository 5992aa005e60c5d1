package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shipment is a (possibly partial) delivery issued against one order.
//
// Voiding is a business-level flag rather than a gorm soft delete: a voided
// shipment must stay visible in listings for audit, it is only excluded
// from quantity reconciliation.
type Shipment struct {
	BaseModel
	OrderID uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id" validate:"uuid_required"`
	Order   *Order    `json:"order,omitempty" validate:"-"`

	Number    string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"number"`
	ShippedAt time.Time `gorm:"not null" json:"shipped_at"`
	IsDeleted bool      `gorm:"not null;default:false;index" json:"is_deleted"`

	Lines []ShipmentLineItem `gorm:"foreignKey:ShipmentID" json:"lines"`
}

type ShipmentLineItem struct {
	BaseModel
	ShipmentID uuid.UUID `gorm:"type:uuid;not null;index" json:"shipment_id"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null" json:"product_id" validate:"uuid_required"`

	// OrderItemIndex ties the line back to OrderLineItem.LineIndex. Legacy
	// records imported without it are nil and fall back to product-id
	// matching during reconciliation, with degraded confidence.
	OrderItemIndex *int `json:"order_item_index,omitempty"`

	Quantity decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity" validate:"decimal_gt0"`
}
