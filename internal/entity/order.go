package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrStatusNotFound  = errors.New("status not found")
	ErrProductNotFound = errors.New("product not found")
)

// Order is the persisted record. Items never store cost or price: every
// projection recomputes totals from the current catalog prices, so totals
// drift if catalog prices change after creation.
type Order struct {
	ID          uuid.UUID   `json:"id"`
	ResellerID  uuid.UUID   `json:"reseller_id"`
	CustomerID  uuid.UUID   `json:"customer_id"`
	StatusID    uuid.UUID   `json:"status_id"`
	CreatedDate time.Time   `json:"created_date"`
	Items       []OrderItem `json:"items"`
}

type OrderItem struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID uuid.UUID `json:"product_id"`
	ServiceID uuid.UUID `json:"service_id"`
	Quantity  int       `json:"quantity"`
}

// Product is a catalog entry with its service dimension resolved.
type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	UnitCost    float64   `json:"unit_cost"`
	UnitPrice   float64   `json:"unit_price"`
	ServiceID   uuid.UUID `json:"service_id"`
	ServiceName string    `json:"service_name"`
}

type OrderStatus struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type CreateOrderRequest struct {
	CustomerID uuid.UUID                `json:"customer_id"`
	ResellerID uuid.UUID                `json:"reseller_id"`
	Items      []CreateOrderItemRequest `json:"items"`
}

type CreateOrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type OrderSummary struct {
	ID          uuid.UUID `json:"id"`
	ResellerID  uuid.UUID `json:"reseller_id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	StatusID    uuid.UUID `json:"status_id"`
	StatusName  string    `json:"status_name"`
	ItemCount   int       `json:"item_count"`
	TotalCost   float64   `json:"total_cost"`
	TotalPrice  float64   `json:"total_price"`
	CreatedDate time.Time `json:"created_date"`
}

// OrderLine is one order item enriched with catalog names and totals.
type OrderLine struct {
	ID          uuid.UUID `json:"id"`
	OrderID     uuid.UUID `json:"order_id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	ServiceID   uuid.UUID `json:"service_id"`
	ServiceName string    `json:"service_name"`
	Quantity    int       `json:"quantity"`
	UnitCost    float64   `json:"unit_cost"`
	UnitPrice   float64   `json:"unit_price"`
	TotalCost   float64   `json:"total_cost"`
	TotalPrice  float64   `json:"total_price"`
}

type OrderDetail struct {
	ID          uuid.UUID   `json:"id"`
	ResellerID  uuid.UUID   `json:"reseller_id"`
	CustomerID  uuid.UUID   `json:"customer_id"`
	StatusID    uuid.UUID   `json:"status_id"`
	StatusName  string      `json:"status_name"`
	CreatedDate time.Time   `json:"created_date"`
	TotalCost   float64     `json:"total_cost"`
	TotalPrice  float64     `json:"total_price"`
	Items       []OrderLine `json:"items"`
}

type MonthlyProfit struct {
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	Profit    float64 `json:"profit"`
	MonthName string  `json:"month_name"`
}
