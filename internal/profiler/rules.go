package profiler

// IndustryRule describes one industry the profiler can classify a
// tenant into. Rules live in an ordered slice so precedence is
// explicit: earlier rules win both explicit-metadata matches and
// field-score ties. The slice is kept alphabetical by industry.
type IndustryRule struct {
	Industry            string
	Aliases             []string
	FieldKeywords       []string
	Terminology         map[string]string
	FocusMetrics        []string
	RecommendedAnalyses []string
}

// GenericIndustry is the fallback tag when nothing matches.
const GenericIndustry = "general_business"

var rules = []IndustryRule{
	{
		Industry:      "construction",
		Aliases:       []string{"construction", "contractor", "builder", "roofing", "plumbing", "electrical"},
		FieldKeywords: []string{"job", "site", "material", "labor", "permit", "crew", "bid"},
		Terminology: map[string]string{
			"orders":    "jobs",
			"inventory": "materials",
			"customers": "clients",
		},
		FocusMetrics:        []string{"job_margin", "material_cost", "labor_utilization"},
		RecommendedAnalyses: []string{"job_profitability", "material_waste", "bid_win_rate"},
	},
	{
		Industry:      "fitness",
		Aliases:       []string{"fitness", "gym", "yoga", "pilates", "crossfit", "personal training"},
		FieldKeywords: []string{"member", "class", "session", "trainer", "membership", "attendance"},
		Terminology: map[string]string{
			"customers": "members",
			"orders":    "memberships",
		},
		FocusMetrics:        []string{"member_retention", "class_utilization", "revenue_per_member"},
		RecommendedAnalyses: []string{"churn_risk", "class_scheduling", "membership_pricing"},
	},
	{
		Industry:      "healthcare",
		Aliases:       []string{"healthcare", "clinic", "dental", "medical", "veterinary", "physiotherapy"},
		FieldKeywords: []string{"patient", "appointment", "treatment", "insurance", "provider", "claim"},
		Terminology: map[string]string{
			"customers": "patients",
			"orders":    "appointments",
		},
		FocusMetrics:        []string{"appointment_utilization", "no_show_rate", "claim_turnaround"},
		RecommendedAnalyses: []string{"scheduling_gaps", "payer_mix", "patient_retention"},
	},
	{
		Industry:      "hospitality",
		Aliases:       []string{"hospitality", "hotel", "motel", "bed and breakfast", "lodging"},
		FieldKeywords: []string{"booking", "room", "guest", "occupancy", "checkin", "checkout", "rate"},
		Terminology: map[string]string{
			"customers": "guests",
			"orders":    "bookings",
			"inventory": "rooms",
		},
		FocusMetrics:        []string{"occupancy_rate", "revenue_per_room", "booking_lead_time"},
		RecommendedAnalyses: []string{"seasonal_demand", "rate_optimization", "channel_mix"},
	},
	{
		Industry:      "restaurant",
		Aliases:       []string{"restaurant", "cafe", "coffee", "bakery", "bar", "food truck", "catering"},
		FieldKeywords: []string{"menu", "dish", "table", "cover", "recipe", "ingredient", "pos"},
		Terminology: map[string]string{
			"customers": "guests",
			"inventory": "ingredients",
			"orders":    "covers",
		},
		FocusMetrics:        []string{"food_cost_pct", "table_turnover", "waste_pct"},
		RecommendedAnalyses: []string{"menu_engineering", "ingredient_waste", "peak_hour_staffing"},
	},
	{
		Industry:      "retail",
		Aliases:       []string{"retail", "shop", "store", "boutique", "ecommerce", "e-commerce"},
		FieldKeywords: []string{"sku", "stock", "product", "price", "sale", "basket", "shelf"},
		Terminology: map[string]string{
			"customers": "shoppers",
		},
		FocusMetrics:        []string{"inventory_turnover", "stockout_rate", "gross_margin"},
		RecommendedAnalyses: []string{"reorder_points", "slow_movers", "seasonal_trends"},
	},
	{
		Industry:      "salon",
		Aliases:       []string{"salon", "spa", "barber", "beauty", "nails", "hairdresser"},
		FieldKeywords: []string{"appointment", "stylist", "service", "client", "rebooking", "treatment"},
		Terminology: map[string]string{
			"customers": "clients",
			"orders":    "appointments",
		},
		FocusMetrics:        []string{"chair_utilization", "rebooking_rate", "retail_attach_rate"},
		RecommendedAnalyses: []string{"stylist_performance", "appointment_gaps", "client_retention"},
	},
	{
		Industry:      "services",
		Aliases:       []string{"services", "consulting", "agency", "freelance", "professional services"},
		FieldKeywords: []string{"invoice", "hour", "project", "rate", "billable", "retainer", "engagement"},
		Terminology: map[string]string{
			"orders":    "engagements",
			"inventory": "capacity",
		},
		FocusMetrics:        []string{"billable_utilization", "project_margin", "invoice_aging"},
		RecommendedAnalyses: []string{"capacity_planning", "client_profitability", "collection_time"},
	},
}

// Rules returns the ordered industry rule table.
func Rules() []IndustryRule {
	return rules
}
