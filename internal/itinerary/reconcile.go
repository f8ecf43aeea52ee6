package itinerary

import "github.com/samber/lo"

// DayTemplate is a generic, complete day used to pad short itineraries.
type DayTemplate struct {
	Title     string
	Morning   string
	Afternoon string
	Evening   string
}

// PadTemplates rotate by day number: day d uses PadTemplates[(d-1)%len].
var PadTemplates = []DayTemplate{
	{
		Title:     "Leisure & Local Discovery",
		Morning:   "Start with a relaxed breakfast, stroll a nearby market or old town lanes.",
		Afternoon: "Visit a well-rated museum or green park; enjoy a local cafe.",
		Evening:   "Dinner at a recommended bistro and a riverside or promenade walk.",
	},
	{
		Title:     "Hidden Gems & Culture",
		Morning:   "Free walking tour or explore a street-art district with coffee stops.",
		Afternoon: "Cultural center or lesser-known attraction; sample a regional snack.",
		Evening:   "Catch sunset from a viewpoint; consider live music or a local event.",
	},
	{
		Title:     "Foodie Trail",
		Morning:   "Cafe hop; try a signature local pastry or brunch special.",
		Afternoon: "Visit a popular lunch spot; browse a specialty food market.",
		Evening:   "Book dinner at a recommended restaurant; explore a night market.",
	},
	{
		Title:     "Nature & Relaxation",
		Morning:   "Take a scenic walk, short hike, or botanical garden visit.",
		Afternoon: "Relax at a garden/beach/riverfront; optional spa or tea stop.",
		Evening:   "Casual dinner and quiet neighborhood stroll for dessert.",
	},
}

// Reconcile forces the itinerary to desired days by truncating or padding,
// then renumbers days 1..N and resizes the budget breakdown to match.
// desired <= 0 leaves the length alone but still renumbers.
func Reconcile(t *TripItinerary, desired int) {
	if t == nil {
		return
	}
	days := t.Itinerary
	switch {
	case desired > 0 && len(days) > desired:
		days = days[:desired]
	case desired > 0 && len(days) < desired:
		for d := len(days) + 1; d <= desired; d++ {
			tpl := PadTemplates[(d-1)%len(PadTemplates)]
			days = append(days, ItineraryDay{
				Day:       DayNumber(d),
				Title:     Text(tpl.Title),
				Morning:   Text(tpl.Morning),
				Afternoon: Text(tpl.Afternoon),
				Evening:   Text(tpl.Evening),
			})
		}
	}
	for i := range days {
		days[i].Day = DayNumber(i + 1)
	}
	t.Itinerary = days

	if t.Budget == nil {
		t.Budget = SynthesizeBudget(days)
		return
	}
	bd := t.Budget.Breakdown
	if len(bd) > len(days) {
		bd = bd[:len(days)]
	}
	for len(bd) < len(days) {
		bd = append(bd, DayCostBreakdown{})
	}
	for i := range bd {
		bd[i].Day = DayNumber(i + 1)
	}
	t.Budget.Breakdown = bd
}

// Compact returns a copy without the heavy per-day detail that can be refetched from the places API.
func Compact(t *TripItinerary) *TripItinerary {
	if t == nil {
		return nil
	}
	out := *t
	out.Itinerary = lo.Map(t.Itinerary, func(d ItineraryDay, _ int) ItineraryDay {
		d.Photos = nil
		d.CafeDetails = nil
		d.HotelDetails = nil
		d.AdventureDetails = nil
		d.HiddenGems = nil
		return d
	})
	if t.Budget != nil {
		b := *t.Budget
		b.Breakdown = append([]DayCostBreakdown(nil), t.Budget.Breakdown...)
		out.Budget = &b
	}
	return &out
}
