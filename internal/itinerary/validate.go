package itinerary

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// MaxRepairableDays is the most incomplete days that are filled locally.
	MaxRepairableDays = 3
	// MinDaysForRepair is the shortest itinerary that may be repaired.
	MinDaysForRepair = 3
)

// Field templates used to fill a missing narrative field.
const (
	RepairTitle     = "Explore & Discover"
	RepairMorning   = "Start your day with a leisurely breakfast. Explore local neighborhoods and discover hidden gems at your own pace."
	RepairAfternoon = "Visit a popular attraction or museum. Enjoy lunch at a recommended local spot and continue sightseeing."
	RepairEvening   = "Relax with dinner at a nice restaurant. Take an evening stroll and soak in the local atmosphere."
)

type Code string

const (
	CodeMissingFinalFields  Code = "missing_final_fields"
	CodeIncompleteStructure Code = "incomplete_itinerary_structure"
	CodeMissingResp         Code = "missing_resp_field"
)

// ValidationError describes why a payload was rejected.
type ValidationError struct {
	Code           Code
	HasResp        bool
	HasItinerary   bool
	IncompleteDays []int
	TotalDays      int
}

func (e *ValidationError) Error() string {
	if e.Code == CodeIncompleteStructure {
		return fmt.Sprintf("%s: %s", e.Code, e.Message())
	}
	return string(e.Code)
}

// Message is the operator-facing detail for incomplete itineraries.
func (e *ValidationError) Message() string {
	if len(e.IncompleteDays) == 0 {
		return ""
	}
	parts := make([]string, len(e.IncompleteDays))
	for i, d := range e.IncompleteDays {
		parts[i] = strconv.Itoa(d)
	}
	return fmt.Sprintf("Days %s are missing required fields", strings.Join(parts, ", "))
}

// Report lists what Validate changed on an accepted itinerary.
type Report struct {
	RepairedDays      []int
	BudgetSynthesized bool
}

// Validate accepts, repairs or rejects a final itinerary in place.
// Complete days are never modified; repair fills only blank fields.
func Validate(t *TripItinerary) (Report, error) {
	var rep Report
	hasResp := !t.Resp.Blank()
	hasItinerary := len(t.Itinerary) > 0
	if !hasResp || !hasItinerary {
		return rep, &ValidationError{Code: CodeMissingFinalFields, HasResp: hasResp, HasItinerary: hasItinerary}
	}

	incomplete := IncompleteDays(t.Itinerary)
	if len(incomplete) > 0 {
		if len(incomplete) > MaxRepairableDays || len(t.Itinerary) < MinDaysForRepair {
			return rep, &ValidationError{
				Code:           CodeIncompleteStructure,
				HasResp:        true,
				HasItinerary:   true,
				IncompleteDays: incomplete,
				TotalDays:      len(t.Itinerary),
			}
		}
		for _, n := range incomplete {
			fillDay(&t.Itinerary[n-1])
		}
		rep.RepairedDays = incomplete
	}

	if t.Budget == nil {
		t.Budget = SynthesizeBudget(t.Itinerary)
		rep.BudgetSynthesized = true
	}
	return rep, nil
}

// ValidateQuestion checks a non-final payload carries a response.
func ValidateQuestion(p Payload) error {
	if strings.TrimSpace(p.Response()) == "" {
		return &ValidationError{Code: CodeMissingResp}
	}
	return nil
}

// IncompleteDays returns the 1-based positions of incomplete days.
func IncompleteDays(days Days) []int {
	var out []int
	for i, d := range days {
		if !d.Complete() {
			out = append(out, i+1)
		}
	}
	return out
}

func fillDay(d *ItineraryDay) {
	if d.Title.Blank() {
		d.Title = RepairTitle
	}
	if d.Morning.Blank() {
		d.Morning = RepairMorning
	}
	if d.Afternoon.Blank() {
		d.Afternoon = RepairAfternoon
	}
	if d.Evening.Blank() {
		d.Evening = RepairEvening
	}
}

// SynthesizeBudget builds a zero-cost USD budget with one entry per day.
func SynthesizeBudget(days Days) *Budget {
	b := &Budget{Currency: "USD", Breakdown: make([]DayCostBreakdown, len(days))}
	for i, d := range days {
		n := d.Day
		if n <= 0 {
			n = DayNumber(i + 1)
		}
		b.Breakdown[i] = DayCostBreakdown{Day: n}
	}
	return b
}
