package handlers

import (
	"time"

	"tradebill/api/internal/models"
	"tradebill/api/internal/services"
)

// LineItemResponse is a line item with its derived line total.
type LineItemResponse struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Category    string  `json:"category"`
	LineTotal   float64 `json:"line_total"`
}

// InvoiceResponse is a full invoice with its computed totals.
type InvoiceResponse struct {
	ID          string               `json:"id"`
	ClientName  string               `json:"client_name"`
	ClientEmail string               `json:"client_email"`
	JobAddress  string               `json:"job_address"`
	TradeType   string               `json:"trade_type"`
	TaxRate     float64              `json:"tax_rate"`
	Status      string               `json:"status"`
	PDFURL      string               `json:"pdf_url,omitempty"`
	LineItems   []LineItemResponse   `json:"line_items"`
	Totals      models.InvoiceTotals `json:"totals"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// InvoiceListEntry is the compact list form: no line items, but a computed
// grand total for display.
type InvoiceListEntry struct {
	ID          string    `json:"id"`
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email"`
	JobAddress  string    `json:"job_address"`
	TradeType   string    `json:"trade_type"`
	TaxRate     float64   `json:"tax_rate"`
	Status      string    `json:"status"`
	PDFURL      string    `json:"pdf_url,omitempty"`
	Total       float64   `json:"total"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toInvoiceResponse(inv *models.Invoice) InvoiceResponse {
	lineItems := make([]LineItemResponse, len(inv.Items))
	for i, item := range inv.Items {
		lineItems[i] = LineItemResponse{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Category:    string(item.Category),
			LineTotal:   item.LineTotal(),
		}
	}
	return InvoiceResponse{
		ID:          inv.ID.String(),
		ClientName:  inv.ClientName,
		ClientEmail: inv.ClientEmail,
		JobAddress:  inv.JobAddress,
		TradeType:   string(inv.TradeType),
		TaxRate:     inv.TaxRate,
		Status:      string(inv.Status),
		PDFURL:      inv.PDFURL,
		LineItems:   lineItems,
		Totals:      services.CalculateInvoiceTotals(inv.Items, inv.TaxRate),
		CreatedAt:   inv.CreatedAt,
		UpdatedAt:   inv.UpdatedAt,
	}
}

func toInvoiceListEntry(inv *models.Invoice) InvoiceListEntry {
	totals := services.CalculateInvoiceTotals(inv.Items, inv.TaxRate)
	return InvoiceListEntry{
		ID:          inv.ID.String(),
		ClientName:  inv.ClientName,
		ClientEmail: inv.ClientEmail,
		JobAddress:  inv.JobAddress,
		TradeType:   string(inv.TradeType),
		TaxRate:     inv.TaxRate,
		Status:      string(inv.Status),
		PDFURL:      inv.PDFURL,
		Total:       totals.Total,
		CreatedAt:   inv.CreatedAt,
		UpdatedAt:   inv.UpdatedAt,
	}
}
