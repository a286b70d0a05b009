package models

import (
	"time"

	"tradebill/api/internal/utils"
)

// TradeType is the domain category of work on an invoice. It selects the
// document template and the compliance text.
type TradeType string

const (
	TradePlumbing   TradeType = "plumbing"
	TradeElectrical TradeType = "electrical"
	TradeHVAC       TradeType = "hvac"
)

// InvoiceStatus is the lifecycle status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "draft"
	InvoiceStatusSent  InvoiceStatus = "sent"
	InvoiceStatusPaid  InvoiceStatus = "paid"
)

// LineItemCategory classifies a line item as parts or labor.
type LineItemCategory string

const (
	CategoryParts LineItemCategory = "parts"
	CategoryLabor LineItemCategory = "labor"
)

// LineItem is a single billable unit on an invoice. Line items are embedded
// in the invoice document, so replacing the set on update is atomic and
// deleting the invoice deletes its items with it.
type LineItem struct {
	Description string           `bson:"description" json:"description"`
	Quantity    float64          `bson:"quantity" json:"quantity"`
	UnitPrice   float64          `bson:"unit_price" json:"unit_price"`
	Category    LineItemCategory `bson:"category" json:"category"`
}

// LineTotal returns quantity times unit price, unrounded.
func (li LineItem) LineTotal() float64 {
	return li.Quantity * li.UnitPrice
}

// Invoice is a bill issued by a user's business to a client.
type Invoice struct {
	Base        `bson:",inline"`
	UserID      utils.SixID   `bson:"user_id" json:"user_id"`
	ClientName  string        `bson:"client_name" json:"client_name"`
	ClientEmail string        `bson:"client_email" json:"client_email"`
	JobAddress  string        `bson:"job_address" json:"job_address"`
	TradeType   TradeType     `bson:"trade_type" json:"trade_type"`
	TaxRate     float64       `bson:"tax_rate" json:"tax_rate"` // percentage, e.g. 8.25
	Status      InvoiceStatus `bson:"status" json:"status"`
	PDFURL      string        `bson:"pdf_url,omitempty" json:"pdf_url,omitempty"` // set only after a successful send
	Items       []LineItem    `bson:"items" json:"line_items"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at" json:"updated_at"`
}

// CategoryTotal is one entry of a category breakdown.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// InvoiceTotals holds the derived monetary totals of an invoice. Not
// persisted; computed from the line items on demand.
type InvoiceTotals struct {
	Subtotal          float64         `json:"subtotal"`
	TaxAmount         float64         `json:"tax_amount"`
	Total             float64         `json:"total"`
	CategoryBreakdown []CategoryTotal `json:"category_breakdown"`
}
