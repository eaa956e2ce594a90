package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"insight-service/internal/apperr"
	"insight-service/internal/model"
	"insight-service/prometheus"

	"go.uber.org/zap"
)

// NoDataMessage is returned verbatim when a tenant has no analytic
// rows at all for the requested categories.
const NoDataMessage = "No analytics data is available for your business yet. Connect a data source to get started."

// Problem type the cost-reduction recommendations are sourced from.
const costProblemType = "cost_reduction"

// Forecast type the forecast section reads.
const revenueForecastType = "revenue"

// Enricher rewrites a deterministic draft into friendlier prose. The
// generator treats it as best-effort: any error or timeout falls back
// to the draft.
type Enricher interface {
	Enrich(ctx context.Context, draft, question string) (string, error)
}

// Recommendation is one user-facing action derived from an
// optimization run.
type Recommendation struct {
	Action      string `json:"action"`
	SKU         string `json:"sku,omitempty"`
	Description string `json:"description"`
	Savings     string `json:"savings,omitempty"`
}

// Result is the narrative call response.
type Result struct {
	NarrativeText   string           `json:"narrative_text"`
	Intent          Intent           `json:"intent"`
	Recommendations []Recommendation `json:"recommendations"`
	SupportingData  map[string]any   `json:"supporting_data"`
	Unavailable     []string         `json:"unavailable,omitempty"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// SectionError marks a retrieval failure for one narrative category.
// The generator records it and degrades instead of failing the call.
type SectionError struct {
	Category string
	Err      error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("narrative section %s unavailable: %v", e.Category, e.Err)
}

func (e *SectionError) Unwrap() error {
	return e.Err
}

// Generator composes narrative responses from the latest analytic rows.
type Generator struct {
	store    DataStore
	enricher Enricher
	log      *zap.Logger
}

// NewGenerator creates a Generator. enricher may be nil, in which case
// output is always the deterministic template text.
func NewGenerator(store DataStore, enricher Enricher, log *zap.Logger) *Generator {
	return &Generator{store: store, enricher: enricher, log: log}
}

// categoriesFor maps an intent to the data categories its narrative
// draws from, in composition order.
func categoriesFor(intent Intent) []string {
	switch intent {
	case IntentCostReduction:
		return []string{CategoryCost, CategoryInventory}
	case IntentForecast:
		return []string{CategoryForecast}
	case IntentInventory:
		return []string{CategoryInventory}
	default:
		return categoryOrder
	}
}

// Generate classifies the question, retrieves the latest rows for the
// relevant categories and composes the response. A failed section is
// reported in Result.Unavailable; the rest of the narrative still
// renders. Only a tenant with no data at all gets the fixed message.
func (g *Generator) Generate(ctx context.Context, tenantID uint, question string) (*Result, error) {
	if tenantID == 0 {
		return nil, apperr.New(apperr.Configuration, "missing tenant context")
	}

	intent := ClassifyIntent(question)
	prometheus.RecordNarrative(string(intent))

	var fragments []string
	supporting := make(map[string]any)
	var unavailable []string
	var recommendations []Recommendation

	categories := categoriesFor(intent)

	// The cost section and the recommendations both read the latest
	// optimization run; fetch it once.
	var costRun *model.OptimizationRun
	var costRunErr error
	for _, category := range categories {
		if category == CategoryCost {
			costRun, costRunErr = g.store.LatestOptimization(ctx, tenantID, costProblemType)
			break
		}
	}

	for _, category := range categories {
		fragment, data, err := g.composeSection(ctx, tenantID, category, costRun, costRunErr)
		if err != nil {
			secErr := &SectionError{Category: category, Err: err}
			g.log.Error("Narrative section retrieval failed",
				zap.Uint("tenant_id", tenantID),
				zap.Error(secErr))
			prometheus.RecordError("narrative_section")
			unavailable = append(unavailable, category)
			continue
		}
		if fragment == "" {
			continue
		}
		fragments = append(fragments, fragment)
		supporting[category] = data
	}

	if intent == IntentCostReduction {
		recs, err := costRecommendations(costRun)
		if costRunErr != nil {
			err = costRunErr
		}
		if err != nil {
			g.log.Error("Recommendation retrieval failed",
				zap.Uint("tenant_id", tenantID), zap.Error(err))
			unavailable = append(unavailable, "recommendations")
		} else {
			recommendations = recs
		}
	}

	text := NoDataMessage
	if len(fragments) > 0 {
		text = strings.Join(fragments, " ")
		text = g.enrich(ctx, text, question)
	}

	return &Result{
		NarrativeText:   text,
		Intent:          intent,
		Recommendations: recommendations,
		SupportingData:  supporting,
		Unavailable:     unavailable,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

func (g *Generator) composeSection(ctx context.Context, tenantID uint, category string, costRun *model.OptimizationRun, costRunErr error) (string, map[string]any, error) {
	switch category {
	case CategoryCost:
		metric, err := g.store.LatestMetric(ctx, tenantID, model.MetricCostSummary)
		if err != nil {
			return "", nil, err
		}
		if metric == nil {
			return "", nil, nil
		}
		if costRunErr != nil {
			return "", nil, costRunErr
		}
		// The savings figure enriches the cost sentence when a run
		// exists; a missing run is not an error.
		text, data := formatCost(metric, costRun)
		return text, data, nil

	case CategoryInventory:
		metric, err := g.store.LatestMetric(ctx, tenantID, model.MetricInventoryHealth)
		if err != nil {
			return "", nil, err
		}
		if metric == nil {
			return "", nil, nil
		}
		text, data := formatInventory(metric)
		return text, data, nil

	case CategoryForecast:
		forecast, err := g.store.LatestForecast(ctx, tenantID, revenueForecastType)
		if err != nil {
			return "", nil, err
		}
		if forecast == nil {
			return "", nil, nil
		}
		text, data := formatForecast(forecast)
		return text, data, nil
	}
	return "", nil, nil
}

// optimizationAction is one entry of an optimization run's action list.
type optimizationAction struct {
	Action   string  `json:"action"`
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Savings  float64 `json:"savings"`
}

// costRecommendations maps the top five optimization actions into
// user-facing recommendation records.
func costRecommendations(run *model.OptimizationRun) ([]Recommendation, error) {
	if run == nil || run.Actions == "" {
		return nil, nil
	}

	var actions []optimizationAction
	if err := json.Unmarshal([]byte(run.Actions), &actions); err != nil {
		return nil, fmt.Errorf("optimization actions are malformed: %w", err)
	}

	recs := make([]Recommendation, 0, 5)
	for _, action := range actions {
		if len(recs) == 5 {
			break
		}
		name := action.Name
		if name == "" {
			name = action.SKU
		}
		var description string
		switch action.Action {
		case model.ActionReorder:
			description = fmt.Sprintf("Reorder %d units of %s before it runs out.", action.Quantity, name)
		case model.ActionReduceStock:
			description = fmt.Sprintf("Reduce stock of %s by %d units to free up cash.", name, action.Quantity)
		default:
			continue
		}
		rec := Recommendation{
			Action:      action.Action,
			SKU:         action.SKU,
			Description: description,
		}
		if action.Savings > 0 {
			rec.Savings = fmt.Sprintf("$%.2f", action.Savings)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// enrich hands the draft to the LLM when one is configured. Upstream
// failures never propagate; the deterministic draft is the fallback.
func (g *Generator) enrich(ctx context.Context, draft, question string) string {
	if g.enricher == nil {
		return draft
	}
	polished, err := g.enricher.Enrich(ctx, draft, question)
	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		prometheus.RecordLLMFallback(reason)
		g.log.Warn("LLM enrichment failed, using template output", zap.Error(err))
		return draft
	}
	if strings.TrimSpace(polished) == "" {
		prometheus.RecordLLMFallback("empty")
		return draft
	}
	return polished
}
