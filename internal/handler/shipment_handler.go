package handler

import (
	"errors"

	"go-fulfillment-ws/internal/middleware"
	"go-fulfillment-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ShipmentHandler struct {
	service service.ShipmentService
}

func NewShipmentHandler(s service.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{service: s}
}

func (h *ShipmentHandler) CreateShipment(c *fiber.Ctx) error {
	orderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	var req service.CreateShipmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := h.service.CreateShipment(orderID, &req, middleware.OperatorID(c), middleware.OperatorName(c))
	if err != nil {
		// An over-shipping draft is held back until the operator confirms;
		// the proposal spells out what confirming would amend.
		var confirm *service.ConfirmationRequiredError
		if errors.As(err, &confirm) {
			return c.Status(409).JSON(fiber.Map{
				"error":    confirm.Error(),
				"proposal": confirm.Proposal,
			})
		}
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{"message": "Shipment created", "data": result})
}

func (h *ShipmentHandler) GetOrderShipments(c *fiber.Ctx) error {
	orderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	shipments, err := h.service.GetOrderShipments(orderID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(shipments)
}

func (h *ShipmentHandler) GetFulfillment(c *fiber.Ctx) error {
	orderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	status, err := h.service.GetFulfillment(orderID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(status)
}

func (h *ShipmentHandler) ProposeDraft(c *fiber.Ctx) error {
	orderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	draft, err := h.service.ProposeDraft(orderID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"lines": draft})
}

func (h *ShipmentHandler) VoidShipment(c *fiber.Ctx) error {
	shipmentID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid shipment ID"})
	}

	shipment, err := h.service.VoidShipment(shipmentID, middleware.OperatorID(c), middleware.OperatorName(c))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Shipment voided", "data": shipment})
}
