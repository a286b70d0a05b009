package services

import (
	"math"

	"tradebill/api/internal/models"
)

// round2 rounds to 2 decimal places. Applied at the point of external
// exposure only; accumulation stays unrounded.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CalculateInvoiceTotals computes subtotal, tax and total for a set of line
// items in a single pass, along with a per-category breakdown. Tax is applied
// once to the subtotal, not per line. The breakdown covers only the
// categories actually present, in order of first appearance, and sums to the
// subtotal (within rounding).
func CalculateInvoiceTotals(items []models.LineItem, taxRate float64) models.InvoiceTotals {
	var subtotal float64
	categoryTotals := make(map[models.LineItemCategory]float64)
	var categoryOrder []models.LineItemCategory

	for _, item := range items {
		lineTotal := item.LineTotal()
		subtotal += lineTotal
		if _, seen := categoryTotals[item.Category]; !seen {
			categoryOrder = append(categoryOrder, item.Category)
		}
		categoryTotals[item.Category] += lineTotal
	}

	taxAmount := subtotal * (taxRate / 100)
	total := subtotal + taxAmount

	breakdown := make([]models.CategoryTotal, 0, len(categoryOrder))
	for _, category := range categoryOrder {
		breakdown = append(breakdown, models.CategoryTotal{
			Category: string(category),
			Total:    round2(categoryTotals[category]),
		})
	}

	return models.InvoiceTotals{
		Subtotal:          round2(subtotal),
		TaxAmount:         round2(taxAmount),
		Total:             round2(total),
		CategoryBreakdown: breakdown,
	}
}
