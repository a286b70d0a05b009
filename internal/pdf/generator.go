package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"tradebill/api/internal/models"
)

// Generator renders an invoice into a printable PDF document.
type Generator interface {
	GenerateInvoicePDF(inv *models.Invoice, profile *models.BusinessProfile, totals models.InvoiceTotals, complianceNotes string) ([]byte, error)
}

// tradeTemplate is the layout variant selected by the invoice's trade type.
type tradeTemplate struct {
	heading string
	accentR int
	accentG int
	accentB int
}

var tradeTemplates = map[models.TradeType]tradeTemplate{
	models.TradePlumbing:   {heading: "Plumbing Invoice", accentR: 21, accentG: 101, accentB: 192},
	models.TradeElectrical: {heading: "Electrical Invoice", accentR: 245, accentG: 127, accentB: 23},
	models.TradeHVAC:       {heading: "HVAC Invoice", accentR: 46, accentG: 125, accentB: 50},
}

type invoicePDFGenerator struct{}

// NewGenerator creates a new invoice PDF generator.
func NewGenerator() Generator {
	return &invoicePDFGenerator{}
}

func formatCurrency(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

// GenerateInvoicePDF renders the invoice for its trade type. Selecting a
// template for an unknown trade value is a fatal error for this call; no
// partial output is returned.
func (g *invoicePDFGenerator) GenerateInvoicePDF(inv *models.Invoice, profile *models.BusinessProfile, totals models.InvoiceTotals, complianceNotes string) ([]byte, error) {
	tpl, ok := tradeTemplates[inv.TradeType]
	if !ok {
		return nil, fmt.Errorf("no invoice template for trade type %q", inv.TradeType)
	}

	// Line items render in two fixed buckets by category.
	var parts, labor []models.LineItem
	for _, item := range inv.Items {
		switch item.Category {
		case models.CategoryParts:
			parts = append(parts, item)
		case models.CategoryLabor:
			labor = append(labor, item)
		}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Invoice #%s", inv.ID.String()), false)
	pdf.AddPage()

	// Header band in the trade's accent color.
	pdf.SetFillColor(tpl.accentR, tpl.accentG, tpl.accentB)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 14, tpl.heading, "", 1, "L", true, 0, "")
	pdf.Ln(4)

	// Business identity block.
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 6, profile.BusinessName, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if profile.Phone != "" {
		pdf.CellFormat(0, 5, "Phone: "+profile.Phone, "", 1, "L", false, 0, "")
	}
	if profile.Email != "" {
		pdf.CellFormat(0, 5, "Email: "+profile.Email, "", 1, "L", false, 0, "")
	}
	if profile.LicenseNumber != "" {
		pdf.CellFormat(0, 5, "License #: "+profile.LicenseNumber, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Client and job block.
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 5, "Bill To:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, inv.ClientName, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, inv.ClientEmail, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Job Address: "+inv.JobAddress, "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.CellFormat(0, 5, "Invoice #: "+inv.ID.String(), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Date: "+inv.CreatedAt.Format("January 2, 2006"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	g.renderBucket(pdf, "Parts & Materials", parts)
	g.renderBucket(pdf, "Labor", labor)

	// Grand totals block.
	pdf.Ln(2)
	g.renderTotalRow(pdf, "Subtotal", formatCurrency(totals.Subtotal), false)
	g.renderTotalRow(pdf, fmt.Sprintf("Tax (%.2f%%)", inv.TaxRate), formatCurrency(totals.TaxAmount), false)
	g.renderTotalRow(pdf, "Total", formatCurrency(totals.Total), true)

	// Compliance paragraph.
	if complianceNotes != "" {
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(80, 80, 80)
		pdf.MultiCell(0, 4, complianceNotes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// renderBucket draws one category table with its subtotal row.
func (g *invoicePDFGenerator) renderBucket(pdf *gofpdf.Fpdf, title string, items []models.LineItem) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(90, 6, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 6, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 6, "Unit Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 6, "Line Total", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	var bucketTotal float64
	for _, item := range items {
		lineTotal := item.LineTotal()
		bucketTotal += lineTotal
		pdf.CellFormat(90, 6, item.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%g", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, formatCurrency(item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, formatCurrency(lineTotal), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(150, 6, title+" Subtotal", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, formatCurrency(bucketTotal), "1", 1, "R", false, 0, "")
	pdf.Ln(4)
}

func (g *invoicePDFGenerator) renderTotalRow(pdf *gofpdf.Fpdf, label, value string, emphasize bool) {
	if emphasize {
		pdf.SetFont("Helvetica", "B", 11)
	} else {
		pdf.SetFont("Helvetica", "", 10)
	}
	pdf.CellFormat(150, 6, label, "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, value, "", 1, "R", false, 0, "")
}
