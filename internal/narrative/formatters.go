package narrative

import (
	"encoding/json"
	"fmt"
	"strings"

	"insight-service/internal/model"
)

// Narrative categories, in composition order.
const (
	CategoryCost      = "cost"
	CategoryInventory = "inventory"
	CategoryForecast  = "forecast"
)

var categoryOrder = []string{CategoryCost, CategoryInventory, CategoryForecast}

// At most this many item names appear in a sentence; the stated count
// always reflects the full list.
const maxNamedItems = 3

// SKUItem is one item referenced by an inventory metric's extra data.
type SKUItem struct {
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

// inventoryDetail is the shape of an inventory_health metric's extra data.
type inventoryDetail struct {
	StockoutRisk []SKUItem `json:"stockout_risk"`
	Overstocked  []SKUItem `json:"overstocked"`
	SafetyDays   int       `json:"safety_days"`
}

// costDetail is the shape of a cost_summary metric's extra data.
type costDetail struct {
	Currency      string `json:"currency"`
	PeriodDays    int    `json:"period_days"`
	TopCategories []struct {
		Name   string  `json:"name"`
		Amount float64 `json:"amount"`
	} `json:"top_categories"`
}

// forecastSummary is the shape of a forecast row's summary column.
type forecastSummary struct {
	Metric    string  `json:"metric"`
	Trend     string  `json:"trend"` // "up", "down", "flat"
	ChangePct float64 `json:"change_pct"`
}

// formatInventory renders the inventory section from the latest
// inventory_health metric. Items below their safety threshold are "at
// risk"; items above the overstock threshold are called out for excess.
func formatInventory(metric *model.BusinessMetric) (string, map[string]any) {
	var detail inventoryDetail
	if metric.ExtraData != "" {
		// A malformed extra-data blob degrades to the bare health score.
		_ = json.Unmarshal([]byte(metric.ExtraData), &detail)
	}

	var sentences []string
	if n := len(detail.StockoutRisk); n > 0 {
		sentences = append(sentences, fmt.Sprintf(
			"%d %s at risk of running out: %s.",
			n, pluralItems(n), nameList(detail.StockoutRisk)))
	}
	if n := len(detail.Overstocked); n > 0 {
		sentences = append(sentences, fmt.Sprintf(
			"%d %s overstocked and tying up cash: %s.",
			n, pluralItems(n), nameList(detail.Overstocked)))
	}
	if len(sentences) == 0 {
		sentences = append(sentences, fmt.Sprintf(
			"Inventory health is at %.0f%% with no items flagged.", metric.Value))
	}

	supporting := map[string]any{
		"health_score":    metric.Value,
		"stockout_count":  len(detail.StockoutRisk),
		"overstock_count": len(detail.Overstocked),
	}
	return strings.Join(sentences, " "), supporting
}

// formatCost renders the cost section from the latest cost_summary
// metric plus the latest optimization run's identified savings.
func formatCost(metric *model.BusinessMetric, run *model.OptimizationRun) (string, map[string]any) {
	var detail costDetail
	if metric.ExtraData != "" {
		_ = json.Unmarshal([]byte(metric.ExtraData), &detail)
	}
	currency := detail.Currency
	if currency == "" {
		currency = "USD"
	}
	period := detail.PeriodDays
	if period <= 0 {
		period = 30
	}

	var sentences []string
	sentences = append(sentences, fmt.Sprintf(
		"You spent %s over the last %d days.", formatMoney(metric.Value, currency), period))
	if len(detail.TopCategories) > 0 {
		top := detail.TopCategories[0]
		sentences = append(sentences, fmt.Sprintf(
			"Your biggest cost category is %s at %s.", top.Name, formatMoney(top.Amount, currency)))
	}
	if run != nil && run.TotalSavings > 0 {
		sentences = append(sentences, fmt.Sprintf(
			"The latest optimization run identified %s in potential savings.",
			formatMoney(run.TotalSavings, currency)))
	}

	supporting := map[string]any{
		"total_spend": metric.Value,
		"currency":    currency,
		"period_days": period,
	}
	if run != nil {
		supporting["potential_savings"] = run.TotalSavings
	}
	return strings.Join(sentences, " "), supporting
}

// formatForecast renders the forecast section from the latest forecast row.
func formatForecast(forecast *model.Forecast) (string, map[string]any) {
	var summary forecastSummary
	if forecast.Summary != "" {
		_ = json.Unmarshal([]byte(forecast.Summary), &summary)
	}
	metric := summary.Metric
	if metric == "" {
		metric = forecast.ForecastType
	}

	var sentence string
	switch summary.Trend {
	case "up":
		sentence = fmt.Sprintf("Your %s is projected to grow %.1f%% over the next %d days.",
			metric, summary.ChangePct, forecast.HorizonDays)
	case "down":
		sentence = fmt.Sprintf("Your %s is projected to decline %.1f%% over the next %d days.",
			metric, -summary.ChangePct, forecast.HorizonDays)
	default:
		sentence = fmt.Sprintf("Your %s is projected to stay roughly flat over the next %d days.",
			metric, forecast.HorizonDays)
	}

	supporting := map[string]any{
		"forecast_type": forecast.ForecastType,
		"horizon_days":  forecast.HorizonDays,
		"trend":         summary.Trend,
		"change_pct":    summary.ChangePct,
	}
	return sentence, supporting
}

// nameList names at most the first maxNamedItems items; the caller's
// sentence carries the true total count.
func nameList(items []SKUItem) string {
	names := make([]string, 0, maxNamedItems)
	for i, item := range items {
		if i == maxNamedItems {
			break
		}
		name := item.Name
		if name == "" {
			name = item.SKU
		}
		names = append(names, name)
	}
	if len(items) > maxNamedItems {
		return strings.Join(names, ", ") + fmt.Sprintf(" and %d more", len(items)-maxNamedItems)
	}
	if len(names) > 1 {
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
	return names[0]
}

func pluralItems(n int) string {
	if n == 1 {
		return "item is"
	}
	return "items are"
}

func formatMoney(amount float64, currency string) string {
	if currency == "USD" {
		return fmt.Sprintf("$%.2f", amount)
	}
	return fmt.Sprintf("%.2f %s", amount, currency)
}
