package service

import (
	"errors"
	"fmt"
	"time"

	"go-fulfillment-ws/internal/costing"
	"go-fulfillment-ws/internal/model"
	"go-fulfillment-ws/internal/repository"
	"go-fulfillment-ws/internal/ws"
	"go-fulfillment-ws/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrInsufficientStock = errors.New("insufficient stock remaining")

// ReceiveStockRequest records intake of a new purchase lot.
type ReceiveStockRequest struct {
	ProductID  uuid.UUID       `json:"product_id" validate:"uuid_required"`
	LotNumber  string          `json:"lot_number" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity" validate:"decimal_gt0"`
	UnitCost   decimal.Decimal `json:"unit_cost" validate:"decimal_gte0"`
	AcquiredAt *time.Time      `json:"acquired_at,omitempty"`
}

// ConsumeStockRequest posts a sale (or other outbound) against a product.
// Supplying ManualSelections switches to operator-chosen lots; the
// product's policy (or the explicit Method override) otherwise decides.
type ConsumeStockRequest struct {
	ProductID        uuid.UUID                 `json:"product_id" validate:"uuid_required"`
	Quantity         decimal.Decimal           `json:"quantity" validate:"decimal_gt0"`
	Method           *model.CostingMethod      `json:"method,omitempty"`
	ManualSelections []costing.ManualSelection `json:"manual_selections,omitempty"`

	// Optional linkage to the order line this sale fulfills; costing and
	// variance results land on that line.
	OrderID        *uuid.UUID `json:"order_id,omitempty"`
	OrderItemIndex *int       `json:"order_item_index,omitempty"`
}

// ConsumeStockResult reports the committed plan alongside the
// policy-derived baseline and both variance signals.
type ConsumeStockResult struct {
	GroupID         uuid.UUID              `json:"group_id"`
	Method          model.CostingMethod    `json:"method"`
	Plan            costing.Plan           `json:"plan"`
	AccountingCost  decimal.Decimal        `json:"accounting_cost"`
	PhysicalCost    decimal.Decimal        `json:"physical_cost"`
	CostVariance    decimal.Decimal        `json:"cost_variance"`
	CostVariancePct decimal.Decimal        `json:"cost_variance_pct"`
	HasCostVariance bool                   `json:"has_cost_variance"`
	Variance        costing.VarianceReport `json:"variance"`
}

type StockService interface {
	CreateProduct(req *model.Product, operatorID, operatorName string) error
	UpdateProduct(id uuid.UUID, req *model.Product, operatorID, operatorName string) (*model.Product, error)
	GetAllProducts() ([]model.Product, error)
	GetProductLots(productID uuid.UUID) ([]model.StockLot, error)
	GetProductConsumptions(productID uuid.UUID) ([]model.LotConsumption, error)
	ReceiveStock(req *ReceiveStockRequest, operatorID, operatorName string) (*model.StockLot, error)
	ConsumeStock(req *ConsumeStockRequest, operatorID, operatorName string) (*ConsumeStockResult, error)
}

type stockService struct {
	productRepo repository.ProductRepository
	lotRepo     repository.LotRepository
	orderRepo   repository.OrderRepository
	db          *gorm.DB
	wsHub       *ws.Hub
}

func NewStockService(pRepo repository.ProductRepository, lRepo repository.LotRepository, oRepo repository.OrderRepository, db *gorm.DB, hub *ws.Hub) StockService {
	return &stockService{
		productRepo: pRepo,
		lotRepo:     lRepo,
		orderRepo:   oRepo,
		db:          db,
		wsHub:       hub,
	}
}

func (s *stockService) CreateProduct(req *model.Product, operatorID, operatorName string) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	if req.CostingMethod == "" {
		req.CostingMethod = model.DefaultCostingMethod
	}
	if !req.CostingMethod.IsValid() {
		return fmt.Errorf("invalid costing method %q, expected one of %v", req.CostingMethod, model.AllCostingMethods())
	}

	existing, _ := s.productRepo.FindBySKU(req.SKU)
	if existing != nil && existing.ID != uuid.Nil {
		return errors.New("SKU already exists")
	}

	req.CreatedBy = operatorID
	req.UpdatedBy = operatorID

	if err := s.productRepo.Create(req); err != nil {
		return err
	}

	s.wsHub.BroadcastEvent(ws.Event{
		Type:    "stock_update",
		Action:  "product_created",
		Payload: req,
		Message: fmt.Sprintf("%s created product '%s'", operatorName, req.Name),
	})
	return nil
}

func (s *stockService) UpdateProduct(id uuid.UUID, req *model.Product, operatorID, operatorName string) (*model.Product, error) {
	var updated *model.Product

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing model.Product
		if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&existing, "id = ?", id).Error; err != nil {
			return errors.New("product not found")
		}

		if req.CostingMethod != "" && !req.CostingMethod.IsValid() {
			return fmt.Errorf("invalid costing method %q", req.CostingMethod)
		}

		existing.Name = req.Name
		existing.SKU = req.SKU
		existing.Unit = req.Unit
		existing.Price = req.Price
		if req.CostingMethod != "" {
			existing.CostingMethod = req.CostingMethod
		}
		if !req.LowStockThreshold.IsZero() {
			existing.LowStockThreshold = req.LowStockThreshold
		}
		existing.UpdatedBy = operatorID

		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		updated = &existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.wsHub.BroadcastEvent(ws.Event{
		Type:    "stock_update",
		Action:  "product_updated",
		Payload: updated,
		Message: fmt.Sprintf("%s updated product '%s'", operatorName, updated.Name),
	})
	return updated, nil
}

func (s *stockService) GetAllProducts() ([]model.Product, error) {
	return s.productRepo.FindAll()
}

func (s *stockService) GetProductLots(productID uuid.UUID) ([]model.StockLot, error) {
	return s.lotRepo.FindByProduct(productID)
}

func (s *stockService) GetProductConsumptions(productID uuid.UUID) ([]model.LotConsumption, error) {
	return s.lotRepo.FindConsumptionsByProduct(productID)
}

func (s *stockService) ReceiveStock(req *ReceiveStockRequest, operatorID, operatorName string) (*model.StockLot, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	product, err := s.productRepo.FindByID(req.ProductID)
	if err != nil {
		return nil, errors.New("product not found")
	}

	acquiredAt := time.Now()
	if req.AcquiredAt != nil {
		acquiredAt = *req.AcquiredAt
	}

	lot := &model.StockLot{
		ProductID:         req.ProductID,
		LotNumber:         req.LotNumber,
		Quantity:          req.Quantity,
		RemainingQuantity: req.Quantity,
		UnitCost:          req.UnitCost,
		AcquiredAt:        acquiredAt,
	}
	lot.CreatedBy = operatorID
	lot.UpdatedBy = operatorID

	if err := s.lotRepo.Create(lot); err != nil {
		return nil, err
	}

	s.wsHub.BroadcastEvent(ws.Event{
		Type:    "stock_update",
		Action:  "lot_received",
		Payload: lot,
		Message: fmt.Sprintf("%s received lot %s: %s %s of '%s'",
			operatorName, lot.LotNumber, lot.Quantity, product.Unit, product.Name),
	})
	return lot, nil
}

// ConsumeStock runs the read-snapshot/compute-plan/commit sequence for a
// sale. The snapshot is taken under row locks inside one transaction, so
// the plan can never draw a remainder another sale already claimed.
func (s *stockService) ConsumeStock(req *ConsumeStockRequest, operatorID, operatorName string) (*ConsumeStockResult, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	if !req.Quantity.IsPositive() {
		return nil, costing.ErrNonPositiveQuantity
	}

	var result *ConsumeStockResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var product model.Product
		if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&product, "id = ?", req.ProductID).Error; err != nil {
			return errors.New("product not found")
		}

		lots, err := s.lotRepo.FindOpenByProduct(tx, req.ProductID)
		if err != nil {
			return err
		}

		method := product.CostingMethod
		if req.Method != nil {
			if !req.Method.IsValid() {
				return fmt.Errorf("invalid costing method %q", *req.Method)
			}
			method = *req.Method
		}

		// The policy baseline for variance is the glossary's "accounting
		// cost": FIFO when the governing policy is MANUAL.
		policyMethod := method
		if policyMethod == model.CostingManual {
			policyMethod = model.CostingFIFO
		}

		var plan costing.Plan
		policyPlan, err := costing.Consume(lots, req.Quantity, policyMethod)
		if err != nil {
			return err
		}

		if method == model.CostingManual || len(req.ManualSelections) > 0 {
			method = model.CostingManual
			plan, err = costing.BuildManualPlan(lots, req.ManualSelections)
			if err != nil {
				return err
			}
			if !plan.Total().Equal(req.Quantity) {
				return fmt.Errorf("manual selection covers %s of %s requested", plan.Total(), req.Quantity)
			}
		} else {
			plan = policyPlan
		}

		if plan.Shortfall(req.Quantity).IsPositive() {
			return ErrInsufficientStock
		}

		// Commit the plan to the ledger.
		groupID := uuid.New()
		remaining := make(map[uuid.UUID]decimal.Decimal, len(lots))
		for _, lot := range lots {
			remaining[lot.ID] = lot.RemainingQuantity
		}
		for i := range plan {
			plan[i].GroupID = groupID
			plan[i].Method = method
			plan[i].OrderID = req.OrderID
			plan[i].OrderItemIndex = req.OrderItemIndex
			plan[i].CreatedBy = operatorID
			plan[i].UpdatedBy = operatorID

			newRemaining := remaining[plan[i].LotID].Sub(plan[i].QuantityUsed)
			remaining[plan[i].LotID] = newRemaining
			if err := s.lotRepo.ApplyDraw(tx, plan[i].LotID, newRemaining, operatorID); err != nil {
				return err
			}
		}
		if err := s.lotRepo.SaveConsumptions(tx, plan); err != nil {
			return err
		}

		accounting := policyPlan.TotalCost()
		physical := plan.TotalCost()
		variance, pct, has := costing.CostVariance(accounting, physical)
		structural := costing.DetectVariance(plan, policyPlan)

		result = &ConsumeStockResult{
			GroupID:         groupID,
			Method:          method,
			Plan:            plan,
			AccountingCost:  accounting,
			PhysicalCost:    physical,
			CostVariance:    variance,
			CostVariancePct: pct,
			HasCostVariance: has,
			Variance:        structural,
		}

		// Land costing results on the linked order line, if any.
		if req.OrderID != nil && req.OrderItemIndex != nil {
			var line model.OrderLineItem
			err := tx.First(&line, "order_id = ? AND line_index = ?", *req.OrderID, *req.OrderItemIndex).Error
			if err != nil {
				return fmt.Errorf("order line %d not found on order %s", *req.OrderItemIndex, *req.OrderID)
			}
			line.AccountingCost = &accounting
			line.PhysicalCost = &physical
			line.CostVariance = &variance
			line.CostVariancePct = &pct
			line.HasCostVariance = has
			if err := s.orderRepo.UpdateLineCosting(tx, &line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.wsHub.BroadcastEvent(ws.Event{
		Type:    "stock_update",
		Action:  "stock_consumed",
		Payload: result,
		Message: fmt.Sprintf("%s consumed %s units via %s", operatorName, req.Quantity, result.Method),
	})
	return result, nil
}
