package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"shopcore/internal/model"
)

// Renderer produces the persisted invoice artifact.
type Renderer interface {
	// RenderInvoice writes the PDF for an invoice and its order snapshot
	// and returns the stored path. Rendering the same invoice again
	// overwrites the prior artifact at the same path.
	RenderInvoice(invoice *model.Invoice, order *model.Order) (string, error)
}

// InvoiceRenderer writes invoice PDFs under a dedicated output directory.
type InvoiceRenderer struct {
	outputDir string
}

var _ Renderer = (*InvoiceRenderer)(nil)

// NewInvoiceRenderer creates a renderer rooted at outputDir.
func NewInvoiceRenderer(outputDir string) *InvoiceRenderer {
	return &InvoiceRenderer{outputDir: outputDir}
}

// RenderInvoice lays out header, invoice metadata, the customer block from
// the order's billing snapshot, the line-item table with the HT/TVA/TTC
// decomposition, totals and footer. File name is addressed by invoice ID.
func (r *InvoiceRenderer) RenderInvoice(invoice *model.Invoice, order *model.Order) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create invoice dir: %w", err)
	}
	path := filepath.Join(r.outputDir, fmt.Sprintf("facture-%d.pdf", invoice.ID))

	doc := gofpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.AddPage()

	// Header
	doc.SetFont("Helvetica", "B", 20)
	doc.CellFormat(0, 12, "FACTURE", "", 1, "C", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(0, 6, tr(fmt.Sprintf("Facture n° : %s", invoice.InvoiceNumber)), "", 1, "L", false, 0, "")
	issued := time.Now()
	if invoice.IssuedAt != nil {
		issued = *invoice.IssuedAt
	}
	doc.CellFormat(0, 6, tr(fmt.Sprintf("Date d'émission : %s", issued.Format("02/01/2006"))), "", 1, "L", false, 0, "")
	doc.CellFormat(0, 6, tr(fmt.Sprintf("Commande n° : %d", order.ID)), "", 1, "L", false, 0, "")
	doc.Ln(6)

	// Customer block from the billing snapshot, never a live user lookup
	billing := order.BillingAddress
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 7, "Client", "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(0, 6, tr(billing.FirstName+" "+billing.LastName), "", 1, "L", false, 0, "")
	if billing.Email != "" {
		doc.CellFormat(0, 6, tr(billing.Email), "", 1, "L", false, 0, "")
	}
	doc.CellFormat(0, 6, tr(billing.AddressLine1), "", 1, "L", false, 0, "")
	doc.CellFormat(0, 6, tr(billing.PostalCode+" "+billing.City), "", 1, "L", false, 0, "")
	doc.Ln(6)

	// Line-item table
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(70, 8, "Produit", "1", 0, "L", false, 0, "")
	doc.CellFormat(20, 8, tr("Qté"), "1", 0, "C", false, 0, "")
	doc.CellFormat(33, 8, "Prix HT", "1", 0, "R", false, 0, "")
	doc.CellFormat(33, 8, "TVA", "1", 0, "R", false, 0, "")
	doc.CellFormat(34, 8, "Prix TTC", "1", 1, "R", false, 0, "")

	doc.SetFont("Helvetica", "", 11)
	for _, item := range order.Items {
		name := fmt.Sprintf("Produit %d", item.ProductID)
		if item.Product != nil {
			name = item.Product.Name
		}
		unitTTC := item.Price
		unitHT := model.HTFromTTC(unitTTC)
		unitTVA := unitTTC.Sub(unitHT)

		doc.CellFormat(70, 8, tr(name), "1", 0, "L", false, 0, "")
		doc.CellFormat(20, 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		doc.CellFormat(33, 8, tr(unitHT.StringFixed(2)+" €"), "1", 0, "R", false, 0, "")
		doc.CellFormat(33, 8, tr(unitTVA.StringFixed(2)+" €"), "1", 0, "R", false, 0, "")
		doc.CellFormat(34, 8, tr(unitTTC.StringFixed(2)+" €"), "1", 1, "R", false, 0, "")
	}
	doc.Ln(6)

	// Totals
	doc.CellFormat(0, 6, tr("Total HT : "+invoice.TotalHT.StringFixed(2)+" €"), "", 1, "R", false, 0, "")
	doc.CellFormat(0, 6, tr("TVA : "+invoice.TVA.StringFixed(2)+" €"), "", 1, "R", false, 0, "")
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(0, 6, tr("Total TTC : "+invoice.TotalTTC.StringFixed(2)+" €"), "", 1, "R", false, 0, "")
	doc.Ln(10)

	// Footer
	doc.SetFont("Helvetica", "I", 10)
	doc.CellFormat(0, 6, "Merci pour votre commande !", "", 1, "C", false, 0, "")

	if err := doc.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write invoice pdf: %w", err)
	}
	return path, nil
}
