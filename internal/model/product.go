package model

import "github.com/shopspring/decimal"

type Product struct {
	BaseModel
	SKU           string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku" validate:"required"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Unit          string          `gorm:"type:varchar(20)" json:"unit"`
	Price         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price" validate:"decimal_gte0"`
	CostingMethod CostingMethod   `gorm:"type:varchar(10);not null;default:'FIFO'" json:"costing_method"`

	// Dashboard threshold: a product whose on-hand quantity (sum of lot
	// remainders) drops below this counts as low stock.
	LowStockThreshold decimal.Decimal `gorm:"type:decimal(20,4);default:10" json:"low_stock_threshold"`

	// Relations
	Lots []StockLot `json:"lots,omitempty"`
}
