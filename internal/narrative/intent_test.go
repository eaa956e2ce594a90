package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		question string
		want     Intent
	}{
		{"How can I reduce costs?", IntentCostReduction},
		{"What will my revenue look like next month?", IntentForecast},
		{"Which items are out of stock?", IntentInventory},
		{"How is my business doing?", IntentGeneral},
		{"", IntentGeneral},
		{"Where is my SPENDING going?", IntentCostReduction},
		{"Do I need to reorder anything?", IntentInventory},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyIntent(tt.question), "question: %q", tt.question)
	}
}

func TestClassifyIntentPriorityOrder(t *testing.T) {
	// Cost keywords outrank forecast keywords even when both appear.
	got := ClassifyIntent("Can you forecast how I could reduce costs next quarter?")
	assert.Equal(t, IntentCostReduction, got)

	// Forecast outranks inventory.
	got = ClassifyIntent("Predict my stock levels for next week")
	assert.Equal(t, IntentForecast, got)
}
