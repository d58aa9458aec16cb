package pdf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopcore/internal/model"
)

func TestRenderInvoice(t *testing.T) {
	dir := t.TempDir()
	renderer := NewInvoiceRenderer(dir)

	issued := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	invoice := &model.Invoice{
		ID:            12,
		OrderID:       34,
		InvoiceNumber: "INV-1710496800-34",
		TotalHT:       decimal.NewFromFloat(62.48),
		TVA:           decimal.NewFromFloat(12.49),
		TotalTTC:      decimal.NewFromFloat(74.97),
		IssuedAt:      &issued,
	}
	order := &model.Order{
		ID: 34,
		BillingAddress: model.Address{
			FirstName:    "Jean",
			LastName:     "Dupont",
			Email:        "jean@example.com",
			AddressLine1: "12 rue de la Paix",
			PostalCode:   "75002",
			City:         "Paris",
		},
		Items: []model.OrderItem{
			{
				ProductID: 42,
				Quantity:  3,
				Price:     decimal.NewFromFloat(24.99),
				Product:   &model.Product{ID: 42, Name: "Trail Running Shoe"},
			},
		},
	}

	path, err := renderer.RenderInvoice(invoice, order)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "facture-12.pdf"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRenderInvoiceOverwrites(t *testing.T) {
	dir := t.TempDir()
	renderer := NewInvoiceRenderer(dir)

	invoice := &model.Invoice{ID: 5, InvoiceNumber: "INV-1"}
	order := &model.Order{ID: 9}

	first, err := renderer.RenderInvoice(invoice, order)
	require.NoError(t, err)

	invoice.TotalTTC = decimal.NewFromInt(100)
	second, err := renderer.RenderInvoice(invoice, order)
	require.NoError(t, err)

	// regeneration replaces the artifact at the same path
	assert.Equal(t, first, second)
}
