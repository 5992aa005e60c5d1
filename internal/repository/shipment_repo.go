package repository

import (
	"go-fulfillment-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShipmentRepository interface {
	Create(tx *gorm.DB, shipment *model.Shipment) error
	FindByID(id uuid.UUID) (*model.Shipment, error)
	// FindByOrder returns every shipment of the order, voided ones
	// included; the reconciler is the one place that filters them.
	FindByOrder(orderID uuid.UUID) ([]model.Shipment, error)
	Void(id uuid.UUID, deletedBy string) (*model.Shipment, error)
}

type shipmentRepo struct {
	db *gorm.DB
}

func NewShipmentRepo(db *gorm.DB) ShipmentRepository {
	return &shipmentRepo{db}
}

func (r *shipmentRepo) Create(tx *gorm.DB, shipment *model.Shipment) error {
	return tx.Create(shipment).Error
}

func (r *shipmentRepo) FindByID(id uuid.UUID) (*model.Shipment, error) {
	var shipment model.Shipment
	err := r.db.Preload("Lines").First(&shipment, "id = ?", id).Error
	return &shipment, err
}

func (r *shipmentRepo) FindByOrder(orderID uuid.UUID) ([]model.Shipment, error) {
	var shipments []model.Shipment
	err := r.db.Preload("Lines").
		Where("order_id = ?", orderID).
		Order("shipped_at ASC").
		Find(&shipments).Error
	return shipments, err
}

func (r *shipmentRepo) Void(id uuid.UUID, deletedBy string) (*model.Shipment, error) {
	var shipment model.Shipment
	if err := r.db.Preload("Lines").First(&shipment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if shipment.IsDeleted {
		return &shipment, nil
	}
	if err := r.db.Model(&shipment).Updates(map[string]interface{}{
		"is_deleted": true,
		"deleted_by": deletedBy,
	}).Error; err != nil {
		return nil, err
	}
	shipment.IsDeleted = true
	shipment.DeletedBy = deletedBy
	return &shipment, nil
}
