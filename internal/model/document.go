package model

import "github.com/google/uuid"

// DocumentKind is the closed set of business documents the application
// emits events and audit notes about. Kept as an explicit tagged union so
// downstream consumers switch on the kind instead of duck-typing payloads.
type DocumentKind string

const (
	DocumentOrder    DocumentKind = "ORDER"
	DocumentQuote    DocumentKind = "QUOTE"
	DocumentShipment DocumentKind = "SHIPMENT"
)

// IsValid checks if the document kind is part of the closed set
func (k DocumentKind) IsValid() bool {
	switch k {
	case DocumentOrder, DocumentQuote, DocumentShipment:
		return true
	default:
		return false
	}
}

// String returns the string representation of the document kind
func (k DocumentKind) String() string {
	return string(k)
}

// DocumentRef identifies one document of one kind. Each variant carries
// only the fields relevant to it: Number is the human-facing identifier,
// OrderID is set for kinds issued against an order (shipments).
type DocumentRef struct {
	Kind    DocumentKind `json:"kind"`
	ID      uuid.UUID    `json:"id"`
	Number  string       `json:"number"`
	OrderID *uuid.UUID   `json:"order_id,omitempty"`
}

// OrderRef builds a DocumentRef for an order.
func OrderRef(o *Order) DocumentRef {
	return DocumentRef{Kind: DocumentOrder, ID: o.ID, Number: o.Number}
}

// ShipmentRef builds a DocumentRef for a shipment, carrying its order link.
func ShipmentRef(s *Shipment) DocumentRef {
	orderID := s.OrderID
	return DocumentRef{Kind: DocumentShipment, ID: s.ID, Number: s.Number, OrderID: &orderID}
}
