package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the order lifecycle state. Normal flow is
// pending → confirmed → processing → shipped → delivered; cancelled and
// refunded are terminal side-exits. Only admin-privileged actors may force
// arbitrary transitions.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// OrderStatuses is the full enumerated set, in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

// Valid reports whether the status belongs to the enumerated set.
func (s OrderStatus) Valid() bool {
	for _, st := range OrderStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Order belongs to a user and snapshots its addresses at creation time.
type Order struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	UserID          uint            `json:"user_id" gorm:"not null;index"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	Total           decimal.Decimal `json:"total" gorm:"type:decimal(10,2);not null"`
	ShippingCost    decimal.Decimal `json:"shipping_cost" gorm:"type:decimal(10,2);not null;default:0"`
	ShippingAddress Address         `json:"shipping_address" gorm:"type:json"`
	BillingAddress  Address         `json:"billing_address" gorm:"type:json"`
	PaymentRef      string          `json:"payment_ref,omitempty" gorm:"size:255;index"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Relations
	User  *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderItem captures quantity and unit price at order time. The price is
// copied, never live-joined, so historical totals survive later price edits.
type OrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"not null;index"`
	ProductID uint            `json:"product_id" gorm:"not null;index"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time       `json:"created_at"`

	// Relations
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// LineTotal is the TTC subtotal for the item.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
