package repository

import (
	"sort"
	"time"

	"go-fulfillment-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LotRepository interface {
	Create(lot *model.StockLot) error
	FindByProduct(productID uuid.UUID) ([]model.StockLot, error)
	FindOpenByProduct(tx *gorm.DB, productID uuid.UUID) ([]model.StockLot, error)
	ApplyDraw(tx *gorm.DB, lotID uuid.UUID, newRemaining decimal.Decimal, updatedBy string) error
	SaveConsumptions(tx *gorm.DB, entries []model.LotConsumption) error
	FindConsumptionsByProduct(productID uuid.UUID) ([]model.LotConsumption, error)
	FindConsumptionsByGroup(groupID uuid.UUID) ([]model.LotConsumption, error)
	GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error)
	GetDashboardStats() (*DashboardStats, error)
}

// StockMovementData feeds the dashboard movement chart: per-day received
// (lot intake) vs consumed quantities.
type StockMovementData struct {
	Date     string          `json:"date"`
	Received decimal.Decimal `json:"received"`
	Consumed decimal.Decimal `json:"consumed"`
}

// DashboardStats is the overview card set.
type DashboardStats struct {
	TotalProducts  int64           `json:"total_products"`
	LowStockCount  int64           `json:"low_stock_count"`
	StockValuation decimal.Decimal `json:"stock_valuation"`
}

type lotRepo struct {
	db *gorm.DB
}

func NewLotRepo(db *gorm.DB) LotRepository {
	return &lotRepo{db}
}

func (r *lotRepo) Create(lot *model.StockLot) error {
	return r.db.Create(lot).Error
}

func (r *lotRepo) FindByProduct(productID uuid.UUID) ([]model.StockLot, error) {
	var lots []model.StockLot
	err := r.db.Where("product_id = ?", productID).Order("acquired_at ASC").Find(&lots).Error
	return lots, err
}

// FindOpenByProduct loads the consumable snapshot inside tx with a row
// lock, so two concurrent sales cannot both draw the same remainder.
func (r *lotRepo) FindOpenByProduct(tx *gorm.DB, productID uuid.UUID) ([]model.StockLot, error) {
	var lots []model.StockLot
	err := tx.Set("gorm:query_option", "FOR UPDATE").
		Where("product_id = ? AND remaining_quantity > 0", productID).
		Find(&lots).Error
	return lots, err
}

// ApplyDraw persists one plan entry's effect on the ledger; runs inside
// the caller's transaction.
func (r *lotRepo) ApplyDraw(tx *gorm.DB, lotID uuid.UUID, newRemaining decimal.Decimal, updatedBy string) error {
	return tx.Model(&model.StockLot{}).
		Where("id = ?", lotID).
		Updates(map[string]interface{}{
			"remaining_quantity": newRemaining,
			"updated_by":         updatedBy,
		}).Error
}

func (r *lotRepo) SaveConsumptions(tx *gorm.DB, entries []model.LotConsumption) error {
	if len(entries) == 0 {
		return nil
	}
	return tx.Create(&entries).Error
}

func (r *lotRepo) FindConsumptionsByProduct(productID uuid.UUID) ([]model.LotConsumption, error) {
	var entries []model.LotConsumption
	err := r.db.Where("product_id = ?", productID).Order("created_at DESC").Find(&entries).Error
	return entries, err
}

func (r *lotRepo) FindConsumptionsByGroup(groupID uuid.UUID) ([]model.LotConsumption, error) {
	var entries []model.LotConsumption
	err := r.db.Where("group_id = ?", groupID).Order("created_at ASC").Find(&entries).Error
	return entries, err
}

func (r *lotRepo) GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	// Intake per day from lot acquisitions
	rows, err := r.db.Model(&model.StockLot{}).
		Select("DATE(acquired_at) as date, COALESCE(SUM(quantity), 0) as received").
		Where("acquired_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(acquired_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byDate := map[string]*StockMovementData{}
	order := []string{}
	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Received); err != nil {
			return nil, err
		}
		data.Consumed = decimal.Zero
		byDate[data.Date] = &data
		order = append(order, data.Date)
	}

	// Consumption per day from committed draws
	crows, err := r.db.Model(&model.LotConsumption{}).
		Select("DATE(created_at) as date, COALESCE(SUM(quantity_used), 0) as consumed").
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer crows.Close()

	for crows.Next() {
		var date string
		var consumed decimal.Decimal
		if err := crows.Scan(&date, &consumed); err != nil {
			return nil, err
		}
		if data, ok := byDate[date]; ok {
			data.Consumed = consumed
		} else {
			byDate[date] = &StockMovementData{Date: date, Received: decimal.Zero, Consumed: consumed}
			order = append(order, date)
		}
	}

	sort.Strings(order)
	for _, date := range order {
		results = append(results, *byDate[date])
	}
	return results, nil
}

func (r *lotRepo) GetDashboardStats() (*DashboardStats, error) {
	var stats DashboardStats

	// Total products
	r.db.Model(&model.Product{}).Count(&stats.TotalProducts)

	// Low stock: on-hand (sum of lot remainders) below the product threshold
	r.db.Model(&model.Product{}).
		Where(`(SELECT COALESCE(SUM(remaining_quantity), 0) FROM stock_lots
			WHERE stock_lots.product_id = products.id AND stock_lots.deleted_at IS NULL)
			< products.low_stock_threshold`).
		Count(&stats.LowStockCount)

	// Stock valuation: SUM(remaining * unit cost) over open lots
	r.db.Model(&model.StockLot{}).
		Select("COALESCE(SUM(remaining_quantity * unit_cost), 0)").
		Scan(&stats.StockValuation)

	return &stats, nil
}
