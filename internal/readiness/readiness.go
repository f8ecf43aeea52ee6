// README: Heuristic readiness gate deciding when the conversation holds enough facts for a final itinerary.
package readiness

import (
	"regexp"
	"strings"
)

// Facts holds the outcome of each named detector.
type Facts struct {
	Dates       bool
	Group       bool
	Budget      bool
	Destination bool
	Source      bool
	Interests   bool
}

// Score counts the detected facts (0..6).
func (f Facts) Score() int {
	n := 0
	for _, ok := range []bool{f.Dates, f.Group, f.Budget, f.Destination, f.Source, f.Interests} {
		if ok {
			n++
		}
	}
	return n
}

// Thresholds tune the decision rule. The rule is a best-effort gate, not a guarantee.
type Thresholds struct {
	// ScoreWithInterests finalizes when interests are known and the score reaches it.
	ScoreWithInterests int
	// ScoreAfterTurns finalizes once the score reaches it and the turn count exceeds TurnsForScore.
	ScoreAfterTurns int
	TurnsForScore   int
	// MaxTurns finalizes unconditionally once exceeded.
	MaxTurns int
	// InterestKeywordTurns is the turn count a free interest keyword needs to count.
	InterestKeywordTurns int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		ScoreWithInterests:   5,
		ScoreAfterTurns:      4,
		TurnsForScore:        12,
		MaxTurns:             16,
		InterestKeywordTurns: 10,
	}
}

type Result struct {
	ShouldGenerateFinal bool
	InfoScore           int
	Facts               Facts
}

var (
	datesRe           = regexp.MustCompile(`(?i)travel dates:\s*from\s*\d{4}-\d{2}-\d{2}\s*to\s*\d{4}-\d{2}-\d{2}`)
	groupRe           = regexp.MustCompile(`(?i)(group size|solo|couple|family|friends)`)
	budgetRe          = regexp.MustCompile(`(?i)(budget|low budget|medium budget|high budget|low\b|medium\b|high\b)`)
	destinationRe     = regexp.MustCompile(`(?i)(destination\s*:|trip to\s+\w|to\s+[A-Z][a-zA-Z]+)`)
	sourceRe          = regexp.MustCompile(`(?i)(from\s+[A-Z][a-zA-Z]+|source\s*:)`)
	interestLabelRe   = regexp.MustCompile(`(?i)(travel interests:|interests:|adventure.*sightseeing|cultural.*food|nightlife.*relaxation)`)
	interestKeywordRe = regexp.MustCompile(`(?i)(adventure|sightseeing|cultural|food|nightlife|relaxation|beach|nature|history)`)
)

func HasDates(text string) bool       { return datesRe.MatchString(text) }
func HasGroup(text string) bool       { return groupRe.MatchString(text) }
func HasBudget(text string) bool      { return budgetRe.MatchString(text) }
func HasDestination(text string) bool { return destinationRe.MatchString(text) }
func HasSource(text string) bool      { return sourceRe.MatchString(text) }

// HasInterests needs an explicit label, or a free keyword once the conversation is long enough.
func HasInterests(text string, turns, keywordTurns int) bool {
	if interestLabelRe.MatchString(text) {
		return true
	}
	return turns > keywordTurns && interestKeywordRe.MatchString(text)
}

type Analyzer struct {
	th Thresholds
}

func NewAnalyzer(th Thresholds) *Analyzer {
	return &Analyzer{th: th}
}

// Analyze runs every detector over the lower-cased concatenation of all turns.
func (a *Analyzer) Analyze(msgs []string) Result {
	text := strings.ToLower(strings.Join(msgs, " "))
	turns := len(msgs)
	f := Facts{
		Dates:       HasDates(text),
		Group:       HasGroup(text),
		Budget:      HasBudget(text),
		Destination: HasDestination(text),
		Source:      HasSource(text),
		Interests:   HasInterests(text, turns, a.th.InterestKeywordTurns),
	}
	score := f.Score()
	final := (f.Interests && score >= a.th.ScoreWithInterests) ||
		(score >= a.th.ScoreAfterTurns && turns > a.th.TurnsForScore) ||
		turns > a.th.MaxTurns
	return Result{ShouldGenerateFinal: final, InfoScore: score, Facts: f}
}
