package profiler

import (
	"strings"
)

// Profile is the classification output consumed by dashboards and the
// narrative layer. It is never mutated after creation.
type Profile struct {
	Industry            string            `json:"industry"`
	MatchedBy           string            `json:"matched_by"` // "metadata", "fields" or "fallback"
	Terminology         map[string]string `json:"terminology"`
	FocusMetrics        []string          `json:"focus_metrics"`
	RecommendedAnalyses []string          `json:"recommended_analyses"`
}

// Metadata keys inspected for an explicit industry declaration.
var metadataKeys = []string{"industry", "business_type", "category", "description"}

// Classify determines a tenant's industry. Explicit metadata wins over
// field-name heuristics; both passes walk the ordered rule table so
// precedence and tie-breaks are deterministic.
func Classify(metadata map[string]string, samples []map[string]any) Profile {
	if rule, ok := matchMetadata(metadata); ok {
		return profileFrom(rule, "metadata")
	}
	if rule, ok := matchFields(samples); ok {
		return profileFrom(rule, "fields")
	}
	return Profile{
		Industry:            GenericIndustry,
		MatchedBy:           "fallback",
		Terminology:         map[string]string{},
		FocusMetrics:        []string{"revenue", "expenses", "cash_flow"},
		RecommendedAnalyses: []string{"revenue_trends", "expense_breakdown"},
	}
}

// matchMetadata scans explicit industry/business-type metadata values
// case-insensitively. The first rule in table order with a matching
// alias wins.
func matchMetadata(metadata map[string]string) (IndustryRule, bool) {
	if len(metadata) == 0 {
		return IndustryRule{}, false
	}
	var values []string
	for _, key := range metadataKeys {
		if v, ok := metadata[key]; ok && v != "" {
			values = append(values, strings.ToLower(v))
		}
	}
	if len(values) == 0 {
		return IndustryRule{}, false
	}
	for _, rule := range rules {
		for _, alias := range rule.Aliases {
			for _, value := range values {
				if strings.Contains(value, alias) {
					return rule, true
				}
			}
		}
	}
	return IndustryRule{}, false
}

// matchFields scores every industry by counting sample field names that
// contain one of its keywords. The highest score wins; on a tie the
// earlier rule in table order is kept.
func matchFields(samples []map[string]any) (IndustryRule, bool) {
	if len(samples) == 0 {
		return IndustryRule{}, false
	}
	fields := make(map[string]struct{})
	for _, sample := range samples {
		for name := range sample {
			fields[strings.ToLower(name)] = struct{}{}
		}
	}

	best := -1
	bestScore := 0
	for i, rule := range rules {
		score := 0
		for field := range fields {
			for _, keyword := range rule.FieldKeywords {
				if strings.Contains(field, keyword) {
					score++
					break
				}
			}
		}
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best < 0 {
		return IndustryRule{}, false
	}
	return rules[best], true
}

func profileFrom(rule IndustryRule, matchedBy string) Profile {
	terminology := make(map[string]string, len(rule.Terminology))
	for k, v := range rule.Terminology {
		terminology[k] = v
	}
	return Profile{
		Industry:            rule.Industry,
		MatchedBy:           matchedBy,
		Terminology:         terminology,
		FocusMetrics:        append([]string(nil), rule.FocusMetrics...),
		RecommendedAnalyses: append([]string(nil), rule.RecommendedAnalyses...),
	}
}
