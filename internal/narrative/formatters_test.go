package narrative

import (
	"encoding/json"
	"fmt"
	"testing"

	"insight-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inventoryMetric(t *testing.T, stockout, overstocked []SKUItem) *model.BusinessMetric {
	t.Helper()
	extra, err := json.Marshal(inventoryDetail{
		StockoutRisk: stockout,
		Overstocked:  overstocked,
		SafetyDays:   7,
	})
	require.NoError(t, err)
	return &model.BusinessMetric{
		TenantID:   1,
		MetricType: model.MetricInventoryHealth,
		Value:      82,
		ExtraData:  string(extra),
	}
}

func TestFormatInventoryTruncatesToThreeNames(t *testing.T) {
	items := []SKUItem{
		{SKU: "SKU-1", Name: "Espresso Beans"},
		{SKU: "SKU-2", Name: "Oat Milk"},
		{SKU: "SKU-3", Name: "Paper Cups"},
		{SKU: "SKU-4", Name: "Lids"},
		{SKU: "SKU-5", Name: "Napkins"},
	}

	text, supporting := formatInventory(inventoryMetric(t, items, nil))

	// The sentence states the full count and names only the first three.
	assert.Contains(t, text, "5 items are at risk")
	assert.Contains(t, text, "Espresso Beans")
	assert.Contains(t, text, "Oat Milk")
	assert.Contains(t, text, "Paper Cups")
	assert.NotContains(t, text, "Lids")
	assert.NotContains(t, text, "Napkins")
	assert.Contains(t, text, "and 2 more")
	assert.Equal(t, 5, supporting["stockout_count"])
}

func TestFormatInventoryCountMatchesListLength(t *testing.T) {
	for n := 1; n <= 6; n++ {
		items := make([]SKUItem, n)
		for i := range items {
			items[i] = SKUItem{SKU: fmt.Sprintf("SKU-%d", i), Name: fmt.Sprintf("Item %d", i)}
		}
		text, supporting := formatInventory(inventoryMetric(t, items, nil))
		if n == 1 {
			assert.Contains(t, text, "1 item is at risk")
		} else {
			assert.Contains(t, text, fmt.Sprintf("%d items are at risk", n))
		}
		assert.Equal(t, n, supporting["stockout_count"])
	}
}

func TestFormatInventoryOverstock(t *testing.T) {
	over := []SKUItem{{SKU: "SKU-9", Name: "Holiday Mugs"}}

	text, supporting := formatInventory(inventoryMetric(t, nil, over))

	assert.Contains(t, text, "1 item is overstocked")
	assert.Contains(t, text, "Holiday Mugs")
	assert.Equal(t, 1, supporting["overstock_count"])
}

func TestFormatInventoryNoFlags(t *testing.T) {
	text, _ := formatInventory(inventoryMetric(t, nil, nil))
	assert.Contains(t, text, "82%")
	assert.Contains(t, text, "no items flagged")
}

func TestFormatInventoryMalformedExtraData(t *testing.T) {
	metric := &model.BusinessMetric{Value: 61, ExtraData: "{not json"}
	text, _ := formatInventory(metric)
	assert.Contains(t, text, "61%")
}

func TestFormatCost(t *testing.T) {
	metric := &model.BusinessMetric{
		MetricType: model.MetricCostSummary,
		Value:      4820.50,
		ExtraData:  `{"currency":"USD","period_days":30,"top_categories":[{"name":"ingredients","amount":2100.25}]}`,
	}
	run := &model.OptimizationRun{ProblemType: "cost_reduction", TotalSavings: 640.10}

	text, supporting := formatCost(metric, run)

	assert.Contains(t, text, "$4820.50")
	assert.Contains(t, text, "30 days")
	assert.Contains(t, text, "ingredients")
	assert.Contains(t, text, "$2100.25")
	assert.Contains(t, text, "$640.10")
	assert.Equal(t, 4820.50, supporting["total_spend"])
	assert.Equal(t, 640.10, supporting["potential_savings"])
}

func TestFormatCostWithoutOptimization(t *testing.T) {
	metric := &model.BusinessMetric{MetricType: model.MetricCostSummary, Value: 120}

	text, supporting := formatCost(metric, nil)

	assert.Contains(t, text, "$120.00")
	assert.NotContains(t, text, "savings")
	_, ok := supporting["potential_savings"]
	assert.False(t, ok)
}

func TestFormatForecast(t *testing.T) {
	forecast := &model.Forecast{
		ForecastType: "revenue",
		HorizonDays:  30,
		Summary:      `{"metric":"revenue","trend":"up","change_pct":12.5}`,
	}

	text, supporting := formatForecast(forecast)

	assert.Contains(t, text, "revenue")
	assert.Contains(t, text, "grow 12.5%")
	assert.Contains(t, text, "30 days")
	assert.Equal(t, "up", supporting["trend"])
}

func TestFormatForecastDownTrend(t *testing.T) {
	forecast := &model.Forecast{
		ForecastType: "revenue",
		HorizonDays:  14,
		Summary:      `{"metric":"revenue","trend":"down","change_pct":-8.0}`,
	}

	text, _ := formatForecast(forecast)
	assert.Contains(t, text, "decline 8.0%")
}

func TestFormatForecastFlatWithoutSummary(t *testing.T) {
	forecast := &model.Forecast{ForecastType: "revenue", HorizonDays: 7}

	text, _ := formatForecast(forecast)
	assert.Contains(t, text, "roughly flat")
	assert.Contains(t, text, "revenue")
}
