package service

import (
	"errors"
	"fmt"
	"strings"

	"go-fulfillment-ws/internal/fulfillment"
	"go-fulfillment-ws/internal/model"
	"go-fulfillment-ws/internal/repository"
	"go-fulfillment-ws/internal/ws"
	"go-fulfillment-ws/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest creates an order from positional lines; line i of the
// request becomes LineIndex i, the durable identity shipments reference.
type CreateOrderRequest struct {
	Number       string                   `json:"number"`
	CustomerName string                   `json:"customer_name"`
	VATRate      decimal.Decimal          `json:"vat_rate" validate:"decimal_gte0"`
	Lines        []CreateOrderLineRequest `json:"lines"`
}

type CreateOrderLineRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"uuid_required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"decimal_gt0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"decimal_gte0"`
}

type OrderService interface {
	CreateOrder(req *CreateOrderRequest, operatorID, operatorName string) (*model.Order, error)
	GetAllOrders() ([]model.Order, error)
	GetOrderByID(id uuid.UUID) (*model.Order, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	wsHub       *ws.Hub
}

func NewOrderService(oRepo repository.OrderRepository, pRepo repository.ProductRepository, hub *ws.Hub) OrderService {
	return &orderService{
		orderRepo:   oRepo,
		productRepo: pRepo,
		wsHub:       hub,
	}
}

func (s *orderService) CreateOrder(req *CreateOrderRequest, operatorID, operatorName string) (*model.Order, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	if len(req.Lines) == 0 {
		return nil, errors.New("order needs at least one line")
	}

	number := strings.TrimSpace(req.Number)
	if number == "" {
		number = fmt.Sprintf("SO-%s", strings.ToUpper(uuid.NewString()[:8]))
	}
	if existing, _ := s.orderRepo.FindByNumber(number); existing != nil && existing.ID != uuid.Nil {
		return nil, errors.New("order number already exists")
	}

	order := &model.Order{
		Number:       number,
		CustomerName: req.CustomerName,
		Status:       model.OrderStatusOpen,
		VATRate:      req.VATRate,
	}
	order.CreatedBy = operatorID
	order.UpdatedBy = operatorID

	for i, lr := range req.Lines {
		if errs := validator.ValidateStruct(&lr); len(errs) > 0 {
			return nil, fmt.Errorf("line %d: field '%s' failed on tag '%s'", i, errs[0].FailedField, errs[0].Tag)
		}
		if _, err := s.productRepo.FindByID(lr.ProductID); err != nil {
			return nil, fmt.Errorf("line %d: product %s not found", i, lr.ProductID)
		}
		line := model.OrderLineItem{
			LineIndex:       i,
			ProductID:       lr.ProductID,
			OrderedQuantity: lr.Quantity,
			UnitPrice:       lr.UnitPrice,
		}
		line.CreatedBy = operatorID
		line.UpdatedBy = operatorID
		order.Lines = append(order.Lines, line)
	}

	fulfillment.RecomputeTotals(order)

	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}

	s.wsHub.BroadcastEvent(ws.Event{
		Type:    "fulfillment_update",
		Action:  "order_created",
		Payload: model.OrderRef(order),
		Message: fmt.Sprintf("%s created order %s (%d lines)", operatorName, order.Number, len(order.Lines)),
	})
	return order, nil
}

func (s *orderService) GetAllOrders() ([]model.Order, error) {
	return s.orderRepo.FindAll()
}

func (s *orderService) GetOrderByID(id uuid.UUID) (*model.Order, error) {
	return s.orderRepo.FindByID(id)
}
