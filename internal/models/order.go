package models

import (
	"encoding/json"
	"time"
)

// Order represents a placed order as stored in the orders collection
type Order struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Phone       string            `json:"phone"`
	TableNumber string            `json:"tableNumber"`
	Items       []json.RawMessage `json:"items"`
	TotalPrice  float64           `json:"totalPrice"`
	CreatedAt   time.Time         `json:"createdAt"`
	Pending     bool              `json:"pending"`
}

// OrderDraft is an incoming order request. Items are kept opaque and
// passed through to storage unchanged; only presence is validated.
//
// The validation tags follow the go-playground/validator v10 syntax.
type OrderDraft struct {
	Name        string            `json:"name" validate:"required,min=3"`
	Phone       string            `json:"phone" validate:"required,len=10"`
	TableNumber string            `json:"tableNumber" validate:"required"`
	Items       []json.RawMessage `json:"items" validate:"required,min=1"`
	TotalPrice  float64           `json:"totalPrice" validate:"gte=0"`
}

// UpdatePendingRequest is the body of PUT /api/orders/{id}
type UpdatePendingRequest struct {
	Pending bool `json:"pending"`
}
