package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tradebill/api/internal/models"
)

func TestCalculateInvoiceTotals_Example(t *testing.T) {
	items := []models.LineItem{
		{Description: "Service call", Quantity: 1, UnitPrice: 1500.00, Category: models.CategoryLabor},
		{Description: "Water heater", Quantity: 1, UnitPrice: 800.00, Category: models.CategoryParts},
		{Description: "Copper fittings", Quantity: 10, UnitPrice: 12.50, Category: models.CategoryParts},
	}

	totals := CalculateInvoiceTotals(items, 8.25)

	assert.Equal(t, 2425.00, totals.Subtotal)
	assert.Equal(t, 200.06, totals.TaxAmount) // 2425 * 0.0825 = 200.0625, rounded at output
	assert.Equal(t, 2625.06, totals.Total)

	byCategory := map[string]float64{}
	for _, ct := range totals.CategoryBreakdown {
		byCategory[ct.Category] = ct.Total
	}
	assert.Equal(t, map[string]float64{"labor": 1500.00, "parts": 925.00}, byCategory)
}

func TestCalculateInvoiceTotals_Empty(t *testing.T) {
	totals := CalculateInvoiceTotals(nil, 8.25)

	assert.Equal(t, 0.0, totals.Subtotal)
	assert.Equal(t, 0.0, totals.TaxAmount)
	assert.Equal(t, 0.0, totals.Total)
	assert.Empty(t, totals.CategoryBreakdown)
}

func TestCalculateInvoiceTotals_ZeroTaxRate(t *testing.T) {
	items := []models.LineItem{
		{Description: "Outlet install", Quantity: 3, UnitPrice: 75.00, Category: models.CategoryLabor},
	}

	totals := CalculateInvoiceTotals(items, 0)

	assert.Equal(t, 225.00, totals.Subtotal)
	assert.Equal(t, 0.0, totals.TaxAmount)
	assert.Equal(t, 225.00, totals.Total)
}

func TestCalculateInvoiceTotals_BreakdownCoversOnlyPresentCategories(t *testing.T) {
	items := []models.LineItem{
		{Description: "Diagnostic", Quantity: 2, UnitPrice: 120.00, Category: models.CategoryLabor},
	}

	totals := CalculateInvoiceTotals(items, 10)

	assert.Len(t, totals.CategoryBreakdown, 1)
	assert.Equal(t, "labor", totals.CategoryBreakdown[0].Category)
	assert.Equal(t, 240.00, totals.CategoryBreakdown[0].Total)
}

func TestCalculateInvoiceTotals_RoundsAtOutputOnly(t *testing.T) {
	// Three items of 0.10 + 0.20: naive pre-rounded accumulation of the tax
	// per line would drift; tax must be computed once on the full subtotal.
	items := []models.LineItem{
		{Description: "a", Quantity: 3, UnitPrice: 0.10, Category: models.CategoryParts},
		{Description: "b", Quantity: 1, UnitPrice: 0.20, Category: models.CategoryParts},
	}

	totals := CalculateInvoiceTotals(items, 7.5)

	assert.Equal(t, 0.50, totals.Subtotal)
	assert.Equal(t, 0.04, totals.TaxAmount) // 0.5 * 0.075 = 0.0375 -> 0.04
	assert.Equal(t, 0.54, totals.Total)
}

func TestCalculateInvoiceTotals_BreakdownSumsToSubtotal(t *testing.T) {
	items := []models.LineItem{
		{Description: "a", Quantity: 2.5, UnitPrice: 33.33, Category: models.CategoryParts},
		{Description: "b", Quantity: 4, UnitPrice: 19.99, Category: models.CategoryLabor},
		{Description: "c", Quantity: 1, UnitPrice: 0.01, Category: models.CategoryParts},
	}

	totals := CalculateInvoiceTotals(items, 5)

	var sum float64
	for _, ct := range totals.CategoryBreakdown {
		sum += ct.Total
	}
	assert.InDelta(t, totals.Subtotal, sum, 0.011) // within rounding
}
