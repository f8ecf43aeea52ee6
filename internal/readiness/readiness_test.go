package readiness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectors(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) bool
		in   string
		want bool
	}{
		{"dates", HasDates, "travel dates: from 2025-03-01 to 2025-03-05", true},
		{"dates without range", HasDates, "sometime in march", false},
		{"group", HasGroup, "we are a couple", true},
		{"group missing", HasGroup, "just me", false},
		{"budget word", HasBudget, "budget: moderate", true},
		{"budget level", HasBudget, "high", true},
		{"budget missing", HasBudget, "cheap flights", false},
		{"destination label", HasDestination, "destination: lisbon", true},
		{"destination trip to", HasDestination, "a trip to japan", true},
		{"source", HasSource, "flying from berlin", true},
		{"source label", HasSource, "source: nyc", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(tt.in))
		})
	}
}

func TestHasInterests(t *testing.T) {
	assert.True(t, HasInterests("travel interests: beach", 2, 10))
	assert.True(t, HasInterests("interests: food, nightlife", 2, 10))
	assert.False(t, HasInterests("i love the beach", 4, 10), "free keyword needs a long conversation")
	assert.True(t, HasInterests("i love the beach", 11, 10))
}

func TestAnalyze(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())

	full := []string{
		"Plan a trip to Lisbon from Berlin",
		"Solo",
		"Budget: Moderate",
		"Travel dates: from 2025-03-01 to 2025-03-05",
		"Interests: Food, Cultural",
	}
	res := a.Analyze(full)
	assert.True(t, res.ShouldGenerateFinal)
	assert.Equal(t, 6, res.InfoScore)

	res = a.Analyze([]string{"hello", "hi there"})
	assert.False(t, res.ShouldGenerateFinal)
	assert.Equal(t, 0, res.InfoScore)

	long := make([]string, 17)
	for i := range long {
		long[i] = "ok"
	}
	res = a.Analyze(long)
	assert.True(t, res.ShouldGenerateFinal, "turn ceiling forces final")
}

func TestAnalyzeScoreAfterTurns(t *testing.T) {
	msgs := []string{"trip to Rome", "from Paris", "couple", "budget: low"}
	for len(msgs) < 13 {
		msgs = append(msgs, "sure")
	}
	res := NewAnalyzer(DefaultThresholds()).Analyze(msgs)
	assert.Equal(t, 4, res.InfoScore)
	assert.True(t, res.ShouldGenerateFinal)

	res = NewAnalyzer(DefaultThresholds()).Analyze(msgs[:12])
	assert.False(t, res.ShouldGenerateFinal)
}

func TestCustomThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.MaxTurns = 2
	res := NewAnalyzer(th).Analyze([]string{"a", "b", "c"})
	assert.True(t, res.ShouldGenerateFinal)
}
