package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusPreparing      OrderStatus = "preparing"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusReady          OrderStatus = "ready"
	StatusCompleted      OrderStatus = "completed"
	StatusCancelled      OrderStatus = "cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusOutForDelivery,
		StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether an order in this status can never move again.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type OrderType string

const (
	OrderTypeDineIn  OrderType = "dine_in"
	OrderTypeTakeOut OrderType = "take_out"
)

func (t OrderType) IsValid() bool {
	return t == OrderTypeDineIn || t == OrderTypeTakeOut
}

type PaymentStatus string

const (
	PaymentUnpaid      PaymentStatus = "unpaid"
	PaymentPendingCash PaymentStatus = "pending_cash"
	PaymentPaid        PaymentStatus = "paid"
)

// Driver is attached to a take_out order when it goes out for delivery.
type Driver struct {
	Name  string `db:"driver_name" json:"name"`
	Phone string `db:"driver_phone" json:"phone,omitempty"`
}

type OrderItem struct {
	ID        uuid.UUID `db:"id" json:"id,omitempty"`
	OrderID   uuid.UUID `db:"order_id" json:"order_id,omitempty"`
	Name      string    `db:"name" json:"name"`
	Size      string    `db:"size" json:"size,omitempty"`
	Price     float64   `db:"price" json:"price"`
	Quantity  int       `db:"quantity" json:"quantity"`
	Modifiers []string  `db:"-" json:"modifiers,omitempty"`
}

type Order struct {
	ID               uuid.UUID     `db:"id" json:"id"`
	OrderNumber      int64         `db:"order_number" json:"order_number,omitempty"`
	RestaurantName   string        `db:"restaurant_name" json:"restaurant_name"`
	Status           OrderStatus   `db:"status" json:"status"`
	OrderType        OrderType     `db:"order_type" json:"order_type"`
	TableNumber      string        `db:"table_number" json:"table_number,omitempty"`
	DeliveryAddress  string        `db:"delivery_address" json:"delivery_address,omitempty"`
	PaymentStatus    PaymentStatus `db:"payment_status" json:"payment_status"`
	TotalPrice       float64       `db:"total_price" json:"total_price"`
	CommissionAmount float64       `db:"commission_amount" json:"commission_amount"`
	Items            []OrderItem   `db:"-" json:"items"`
	Driver           *Driver       `db:"-" json:"driver,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}
