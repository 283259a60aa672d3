package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusDelivered exists in the schema but no exposed transition leads to it.
	OrderStatusDelivered OrderStatus = "delivered"
)

type DeliveryType string

const (
	DeliveryClassroom DeliveryType = "classroom"
	DeliveryPickup    DeliveryType = "pickup"
)

// OrderItem is a snapshot of a product at submission time, not a live reference.
type OrderItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Order is a teacher order tracked through the pending → preparing|cancelled lifecycle.
type Order struct {
	bun.BaseModel `bun:"table:teacher_orders"`

	ID           string          `bun:"id,pk" json:"id"`
	TeacherName  string          `bun:"teacher_name,notnull" json:"teacherName"`
	Items        []OrderItem     `bun:"items" json:"items"`
	Total        decimal.Decimal `bun:"total,type:numeric(10,2)" json:"total"`
	Status       OrderStatus     `bun:"status,notnull" json:"status"`
	DeliveryType DeliveryType    `bun:"delivery_type,notnull" json:"deliveryType"`
	Classroom    string          `bun:"classroom,nullzero" json:"classroom,omitempty"`
	Notes        string          `bun:"notes,nullzero" json:"notes,omitempty"`
	CreatedAt    time.Time       `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt    time.Time       `bun:"updated_at,notnull" json:"updatedAt"`
}

// OrderRequest is what the teacher-facing form submits.
type OrderRequest struct {
	TeacherName  string       `json:"teacherName"`
	Items        []OrderItem  `json:"items"`
	DeliveryType DeliveryType `json:"deliveryType"`
	Classroom    string       `json:"classroom,omitempty"`
	Notes        string       `json:"notes,omitempty"`
}

type OrderChangeType string

const (
	OrderCreated OrderChangeType = "created"
	OrderUpdated OrderChangeType = "updated"
)

// OrderChange is the message carried by the order change feed.
type OrderChange struct {
	Type    OrderChangeType `json:"type"`
	OrderID string          `json:"orderId"`
	Status  OrderStatus     `json:"status"`
	At      time.Time       `json:"at"`
}
