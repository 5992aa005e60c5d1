package repository

import (
	"go-fulfillment-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(order *model.Order) error
	FindAll() ([]model.Order, error)
	FindByID(id uuid.UUID) (*model.Order, error)
	FindByNumber(number string) (*model.Order, error)
	// CommitRevision performs the optimistic-concurrency check: the bump
	// only succeeds when the order still carries the revision the snapshot
	// was read at. A false return with nil error means a conflict.
	CommitRevision(tx *gorm.DB, orderID uuid.UUID, fromRevision int) (bool, error)
	SaveAmended(tx *gorm.DB, order *model.Order) error
	UpdateLineCosting(tx *gorm.DB, line *model.OrderLineItem) error
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

func (r *orderRepo) Create(order *model.Order) error {
	return r.db.Create(order).Error
}

func (r *orderRepo) FindAll() ([]model.Order, error) {
	var orders []model.Order
	err := r.db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_line_items.line_index ASC")
	}).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepo) FindByID(id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := r.db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_line_items.line_index ASC")
	}).Preload("Lines.Product").First(&order, "id = ?", id).Error
	return &order, err
}

func (r *orderRepo) FindByNumber(number string) (*model.Order, error) {
	var order model.Order
	err := r.db.First(&order, "number = ?", number).Error
	return &order, err
}

func (r *orderRepo) CommitRevision(tx *gorm.DB, orderID uuid.UUID, fromRevision int) (bool, error) {
	res := tx.Model(&model.Order{}).
		Where("id = ? AND revision = ?", orderID, fromRevision).
		Update("revision", fromRevision+1)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SaveAmended writes the amended totals, notes and line quantities inside
// the caller's transaction. The revision bump happens separately via
// CommitRevision, before this runs.
func (r *orderRepo) SaveAmended(tx *gorm.DB, order *model.Order) error {
	if err := tx.Model(&model.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"subtotal":     order.Subtotal,
			"vat_amount":   order.VATAmount,
			"total_amount": order.TotalAmount,
			"notes":        order.Notes,
			"updated_by":   order.UpdatedBy,
		}).Error; err != nil {
		return err
	}
	for i := range order.Lines {
		line := &order.Lines[i]
		if err := tx.Model(&model.OrderLineItem{}).
			Where("id = ?", line.ID).
			Update("ordered_quantity", line.OrderedQuantity).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepo) UpdateLineCosting(tx *gorm.DB, line *model.OrderLineItem) error {
	return tx.Model(&model.OrderLineItem{}).
		Where("id = ?", line.ID).
		Updates(map[string]interface{}{
			"accounting_cost":   line.AccountingCost,
			"physical_cost":     line.PhysicalCost,
			"cost_variance":     line.CostVariance,
			"cost_variance_pct": line.CostVariancePct,
			"has_cost_variance": line.HasCostVariance,
		}).Error
}
