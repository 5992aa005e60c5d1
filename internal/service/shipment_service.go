package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-fulfillment-ws/internal/fulfillment"
	"go-fulfillment-ws/internal/model"
	"go-fulfillment-ws/internal/repository"
	"go-fulfillment-ws/internal/ws"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// commitRetries bounds the optimistic-concurrency retry loop: two
// concurrent shipments against one order serialize on the order revision,
// the loser re-reads and reconciles again.
const commitRetries = 3

var errRevisionConflict = errors.New("order revision changed since snapshot")

// ConfirmationRequiredError aborts a shipment whose draft over-ships at
// least one line and the request did not carry an explicit confirmation.
// Nothing is committed; the proposal tells the operator what confirming
// would change.
type ConfirmationRequiredError struct {
	Proposal fulfillment.AmendmentProposal
}

func (e *ConfirmationRequiredError) Error() string {
	return "over-shipment requires explicit confirmation"
}

// CreateShipmentRequest is the operator's (or batch importer's) draft.
// ConfirmOverShipment is the pre-decided policy for phase two: without it
// an over-shipping draft is rejected with the proposal attached.
type CreateShipmentRequest struct {
	Number              string                  `json:"number"`
	ShippedAt           *time.Time              `json:"shipped_at,omitempty"`
	Lines               []fulfillment.DraftLine `json:"lines"`
	ConfirmOverShipment bool                    `json:"confirm_over_shipment"`
}

// CreateShipmentResult carries the committed shipment plus the amendment
// that was applied, when one was.
type CreateShipmentResult struct {
	Shipment *model.Shipment                `json:"shipment"`
	Amended  bool                           `json:"amended"`
	Proposal *fulfillment.AmendmentProposal `json:"proposal,omitempty"`
	Order    *model.Order                   `json:"order,omitempty"`
}

type ShipmentService interface {
	CreateShipment(orderID uuid.UUID, req *CreateShipmentRequest, operatorID, operatorName string) (*CreateShipmentResult, error)
	VoidShipment(id uuid.UUID, operatorID, operatorName string) (*model.Shipment, error)
	GetOrderShipments(orderID uuid.UUID) ([]model.Shipment, error)
	GetFulfillment(orderID uuid.UUID) ([]fulfillment.LineFulfillment, error)
	ProposeDraft(orderID uuid.UUID) ([]fulfillment.DraftLine, error)
}

type shipmentService struct {
	orderRepo    repository.OrderRepository
	shipmentRepo repository.ShipmentRepository
	db           *gorm.DB
	wsHub        *ws.Hub
}

func NewShipmentService(oRepo repository.OrderRepository, sRepo repository.ShipmentRepository, db *gorm.DB, hub *ws.Hub) ShipmentService {
	return &shipmentService{
		orderRepo:    oRepo,
		shipmentRepo: sRepo,
		db:           db,
		wsHub:        hub,
	}
}

// CreateShipment runs the reconcile -> propose -> commit cycle. The
// commit is conditioned on the order revision still matching the snapshot
// (at most one committed amendment per order revision); on conflict the
// whole cycle is retried against a fresh snapshot.
func (s *shipmentService) CreateShipment(orderID uuid.UUID, req *CreateShipmentRequest, operatorID, operatorName string) (*CreateShipmentResult, error) {
	if len(req.Lines) == 0 {
		return nil, errors.New("shipment needs at least one line")
	}
	hasQuantity := false
	for _, dl := range req.Lines {
		if dl.Quantity.IsNegative() {
			return nil, fulfillment.ErrNegativeQuantity
		}
		if dl.Quantity.IsPositive() {
			hasQuantity = true
		}
	}
	if !hasQuantity {
		return nil, errors.New("shipment quantities are all zero")
	}

	number := strings.TrimSpace(req.Number)
	if number == "" {
		number = fmt.Sprintf("SH-%s", strings.ToUpper(uuid.NewString()[:8]))
	}
	shippedAt := time.Now()
	if req.ShippedAt != nil {
		shippedAt = *req.ShippedAt
	}

	var lastErr error
	for attempt := 0; attempt < commitRetries; attempt++ {
		result, err := s.tryCreateShipment(orderID, req, number, shippedAt, operatorID)
		if errors.Is(err, errRevisionConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}

		s.wsHub.BroadcastEvent(ws.Event{
			Type:    "fulfillment_update",
			Action:  "shipment_created",
			Payload: model.ShipmentRef(result.Shipment),
			Message: fmt.Sprintf("%s created shipment %s", operatorName, result.Shipment.Number),
		})
		if result.Amended {
			s.wsHub.BroadcastEvent(ws.Event{
				Type:    "fulfillment_update",
				Action:  "order_amended",
				Payload: model.OrderRef(result.Order),
				Message: fmt.Sprintf("Order %s quantities corrected to match shipment %s", result.Order.Number, result.Shipment.Number),
			})
		}
		return result, nil
	}
	return nil, fmt.Errorf("shipment not committed after %d attempts: %w", commitRetries, lastErr)
}

func (s *shipmentService) tryCreateShipment(orderID uuid.UUID, req *CreateShipmentRequest, number string, shippedAt time.Time, operatorID string) (*CreateShipmentResult, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, errors.New("order not found")
	}
	shipments, err := s.shipmentRepo.FindByOrder(orderID)
	if err != nil {
		return nil, err
	}

	status := fulfillment.Reconcile(order, shipments)
	draft := fulfillment.ShipmentDraft{OrderID: orderID, Number: number, Lines: req.Lines}

	proposal, err := fulfillment.ProposeAmendment(order, draft, status)
	if err != nil {
		return nil, err
	}
	if proposal.RequiresConfirmation && !req.ConfirmOverShipment {
		// Hard stop: the whole shipment is withheld, not just the
		// over-shipped lines.
		return nil, &ConfirmationRequiredError{Proposal: proposal}
	}

	shipment := &model.Shipment{
		OrderID:   orderID,
		Number:    number,
		ShippedAt: shippedAt,
	}
	shipment.CreatedBy = operatorID
	shipment.UpdatedBy = operatorID
	for _, dl := range req.Lines {
		if !dl.Quantity.IsPositive() {
			continue
		}
		lineIndex := dl.LineIndex
		line := model.ShipmentLineItem{
			ProductID:      dl.ProductID,
			OrderItemIndex: &lineIndex,
			Quantity:       dl.Quantity,
		}
		line.CreatedBy = operatorID
		line.UpdatedBy = operatorID
		shipment.Lines = append(shipment.Lines, line)
	}

	result := &CreateShipmentResult{Shipment: shipment}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := s.orderRepo.CommitRevision(tx, order.ID, order.Revision)
		if err != nil {
			return err
		}
		if !ok {
			return errRevisionConflict
		}

		if err := s.shipmentRepo.Create(tx, shipment); err != nil {
			return err
		}

		if proposal.RequiresConfirmation {
			amended := fulfillment.ApplyAmendment(order, proposal, number, time.Now())
			amended.UpdatedBy = operatorID
			if err := s.orderRepo.SaveAmended(tx, amended); err != nil {
				return err
			}
			result.Amended = true
			result.Proposal = &proposal
			result.Order = amended
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *shipmentService) VoidShipment(id uuid.UUID, operatorID, operatorName string) (*model.Shipment, error) {
	shipment, err := s.shipmentRepo.Void(id, operatorID)
	if err != nil {
		return nil, errors.New("shipment not found")
	}

	s.wsHub.BroadcastEvent(ws.Event{
		Type:    "fulfillment_update",
		Action:  "shipment_voided",
		Payload: model.ShipmentRef(shipment),
		Message: fmt.Sprintf("%s voided shipment %s", operatorName, shipment.Number),
	})
	return shipment, nil
}

func (s *shipmentService) GetOrderShipments(orderID uuid.UUID) ([]model.Shipment, error) {
	return s.shipmentRepo.FindByOrder(orderID)
}

func (s *shipmentService) GetFulfillment(orderID uuid.UUID) ([]fulfillment.LineFulfillment, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, errors.New("order not found")
	}
	shipments, err := s.shipmentRepo.FindByOrder(orderID)
	if err != nil {
		return nil, err
	}
	return fulfillment.Reconcile(order, shipments), nil
}

func (s *shipmentService) ProposeDraft(orderID uuid.UUID) ([]fulfillment.DraftLine, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, errors.New("order not found")
	}
	shipments, err := s.shipmentRepo.FindByOrder(orderID)
	if err != nil {
		return nil, err
	}
	return fulfillment.ProposeShipment(order, shipments), nil
}
