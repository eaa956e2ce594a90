package profiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyExplicitMetadataWins(t *testing.T) {
	metadata := map[string]string{"industry": "Family Restaurant & Catering"}
	// Field names point at retail; explicit metadata must win.
	samples := []map[string]any{
		{"sku": "A-1", "stock": 4, "price": 9.99},
	}

	profile := Classify(metadata, samples)

	assert.Equal(t, "restaurant", profile.Industry)
	assert.Equal(t, "metadata", profile.MatchedBy)
	assert.Equal(t, "ingredients", profile.Terminology["inventory"])
}

func TestClassifyMetadataCaseInsensitive(t *testing.T) {
	profile := Classify(map[string]string{"business_type": "BOUTIQUE Clothing"}, nil)

	assert.Equal(t, "retail", profile.Industry)
	assert.Equal(t, "metadata", profile.MatchedBy)
}

func TestClassifyFromFieldNames(t *testing.T) {
	samples := []map[string]any{
		{"sku": "X", "stock_level": 12, "price": 4.5, "shelf_location": "A3"},
		{"sku": "Y", "stock_level": 3, "price": 7.0},
	}

	profile := Classify(nil, samples)

	assert.Equal(t, "retail", profile.Industry)
	assert.Equal(t, "fields", profile.MatchedBy)
	assert.Contains(t, profile.FocusMetrics, "stockout_rate")
}

func TestClassifyFieldScoreTieIsDeterministic(t *testing.T) {
	// "appointment" and "treatment" hit both healthcare and salon; the
	// earlier rule in table order (healthcare) must win every time.
	samples := []map[string]any{
		{"appointment_date": "2026-08-01", "treatment": "standard"},
	}

	first := Classify(nil, samples)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first.Industry, Classify(nil, samples).Industry)
	}
	assert.Equal(t, "healthcare", first.Industry)
}

func TestClassifyFallback(t *testing.T) {
	samples := []map[string]any{
		{"zzz": 1, "qqq": 2},
	}

	profile := Classify(map[string]string{"industry": "zorblax"}, samples)

	assert.Equal(t, GenericIndustry, profile.Industry)
	assert.Equal(t, "fallback", profile.MatchedBy)
	assert.Empty(t, profile.Terminology)
	assert.NotEmpty(t, profile.FocusMetrics)
}

func TestClassifyEmptyInput(t *testing.T) {
	profile := Classify(nil, nil)

	assert.Equal(t, GenericIndustry, profile.Industry)
	assert.Equal(t, "fallback", profile.MatchedBy)
}

func TestRulesAreAlphabetical(t *testing.T) {
	rules := Rules()
	require.NotEmpty(t, rules)
	for i := 1; i < len(rules); i++ {
		assert.Less(t, rules[i-1].Industry, rules[i].Industry,
			"rule table must stay alphabetical so tie-breaks are documented")
	}
}

func TestProfileIsACopy(t *testing.T) {
	profile := Classify(map[string]string{"industry": "retail"}, nil)
	profile.Terminology["customers"] = "mutated"
	profile.FocusMetrics[0] = "mutated"

	again := Classify(map[string]string{"industry": "retail"}, nil)
	assert.Equal(t, "shoppers", again.Terminology["customers"])
	assert.NotEqual(t, "mutated", again.FocusMetrics[0])
}
