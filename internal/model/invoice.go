package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the invoice lifecycle state: draft → sent → paid, with
// overdue and cancelled as alternates.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice belongs to exactly one order. The unique index on OrderID makes
// the one-to-one relationship explicit; webhook retries update the existing
// row instead of inserting a second one.
type Invoice struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	OrderID       uint            `json:"order_id" gorm:"uniqueIndex;not null"`
	UserID        uint            `json:"user_id" gorm:"not null;index"`
	InvoiceNumber string          `json:"invoice_number" gorm:"uniqueIndex;size:64;not null"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	TotalHT       decimal.Decimal `json:"total_ht" gorm:"type:decimal(10,2);not null;default:0"`
	TVA           decimal.Decimal `json:"tva" gorm:"type:decimal(10,2);not null;default:0"`
	TotalTTC      decimal.Decimal `json:"total_ttc" gorm:"type:decimal(10,2);not null;default:0"`
	PDFPath       string          `json:"pdf_path,omitempty" gorm:"size:512"`
	Status        InvoiceStatus   `json:"status" gorm:"type:varchar(20);not null;default:'draft';index"`
	IssuedAt      *time.Time      `json:"issued_at,omitempty"`
	DueAt         *time.Time      `json:"due_at,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Relations
	Order *Order `json:"order,omitempty" gorm:"foreignKey:OrderID"`
}
