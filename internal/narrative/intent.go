package narrative

import (
	"strings"
)

// Intent is the coarse classification of a user's question.
type Intent string

const (
	IntentCostReduction Intent = "cost_reduction"
	IntentForecast      Intent = "forecast"
	IntentInventory     Intent = "inventory"
	IntentGeneral       Intent = "general"
)

// Keyword sets checked in a fixed priority order: cost first, then
// forecast, then inventory. A question mentioning both costs and
// forecasts is a cost question.
var (
	costKeywords = []string{
		"cost", "costs", "spend", "spending", "expense", "expenses",
		"save", "saving", "savings", "cheaper", "reduce cost", "reduce costs",
		"cut cost", "budget",
	}
	forecastKeywords = []string{
		"forecast", "predict", "prediction", "projection", "next month",
		"next week", "next quarter", "future", "expect", "trend", "outlook",
	}
	inventoryKeywords = []string{
		"inventory", "stock", "stockout", "out of stock", "reorder",
		"overstock", "sku", "supply", "shelf", "warehouse",
	}
)

// ClassifyIntent lower-cases the question and matches it against the
// fixed keyword sets in priority order.
func ClassifyIntent(question string) Intent {
	q := strings.ToLower(question)
	for _, kw := range costKeywords {
		if strings.Contains(q, kw) {
			return IntentCostReduction
		}
	}
	for _, kw := range forecastKeywords {
		if strings.Contains(q, kw) {
			return IntentForecast
		}
	}
	for _, kw := range inventoryKeywords {
		if strings.Contains(q, kw) {
			return IntentInventory
		}
	}
	return IntentGeneral
}
