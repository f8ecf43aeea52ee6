// README: Trip itinerary data model with lenient decoding of model-generated JSON.
package itinerary

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// UITag names the widget the client should render next, or "Final" for a finished itinerary.
type UITag string

const (
	UINone           UITag = ""
	UIBudget         UITag = "budget"
	UIGroupSize      UITag = "groupSize"
	UIDateRange      UITag = "dateRange"
	UITravelInterest UITag = "travelInterest"
	UIFinal          UITag = "Final"
)

func (u *UITag) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*u = UINone
		return nil
	}
	*u = UITag(strings.TrimSpace(s))
	return nil
}

// Text is a string field that decodes any non-string JSON value as empty.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*t = ""
		return nil
	}
	*t = Text(s)
	return nil
}

// Blank reports whether the text is empty after trimming.
func (t Text) Blank() bool {
	return strings.TrimSpace(string(t)) == ""
}

// DayNumber accepts a JSON number or a numeric string. Anything else decodes as 0.
type DayNumber int

func (d *DayNumber) UnmarshalJSON(b []byte) error {
	*d = 0
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*d = DayNumber(int(f))
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			*d = DayNumber(n)
		}
	}
	return nil
}

// Amount accepts a JSON number or a numeric string. Anything else decodes as 0.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	*a = 0
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*a = Amount(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		s = strings.TrimLeft(strings.TrimSpace(s), "$€£¥")
		if n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
			*a = Amount(n)
		}
	}
	return nil
}

type CostItem struct {
	Name  Text   `json:"name"`
	Price Amount `json:"price"`
}

type DayCostBreakdown struct {
	Day        DayNumber  `json:"day"`
	Total      Amount     `json:"total"`
	Hotels     []CostItem `json:"hotels,omitempty"`
	Activities []CostItem `json:"activities,omitempty"`
}

type Budget struct {
	Currency           Text               `json:"currency"`
	Total              Amount             `json:"total"`
	EstimatedBreakdown json.RawMessage    `json:"estimatedBreakdown,omitempty"`
	Breakdown          []DayCostBreakdown `json:"breakdown"`
}

type DateRange struct {
	From Text `json:"from"`
	To   Text `json:"to"`
}

// Photo is a place photo reference attached by enrichment.
type Photo struct {
	Reference string `json:"photo_reference"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	PlaceID   string `json:"place_id,omitempty"`
}

// ItineraryDay is one day of a plan. Nested collections stay opaque.
type ItineraryDay struct {
	Day              DayNumber       `json:"day"`
	Date             Text            `json:"date,omitempty"`
	Title            Text            `json:"title"`
	Morning          Text            `json:"morning"`
	Afternoon        Text            `json:"afternoon"`
	Evening          Text            `json:"evening"`
	Description      Text            `json:"description,omitempty"`
	Notes            Text            `json:"notes,omitempty"`
	Weather          json.RawMessage `json:"weather,omitempty"`
	MapsLinks        json.RawMessage `json:"mapsLinks,omitempty"`
	HiddenGems       json.RawMessage `json:"hiddenGems,omitempty"`
	Cafes            json.RawMessage `json:"cafes,omitempty"`
	CafeDetails      json.RawMessage `json:"cafeDetails,omitempty"`
	Hotels           json.RawMessage `json:"hotels,omitempty"`
	HotelDetails     json.RawMessage `json:"hotelDetails,omitempty"`
	Adventures       json.RawMessage `json:"adventures,omitempty"`
	AdventureDetails json.RawMessage `json:"adventureDetails,omitempty"`
	Photos           []Photo         `json:"photos,omitempty"`
}

// Complete reports whether the four narrative fields are all present.
func (d ItineraryDay) Complete() bool {
	return !d.Title.Blank() && !d.Morning.Blank() && !d.Afternoon.Blank() && !d.Evening.Blank()
}

func (d *ItineraryDay) UnmarshalJSON(b []byte) error {
	type plain ItineraryDay
	var aux struct {
		plain
		Photos json.RawMessage `json:"photos,omitempty"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		// Non-object entries become an empty, incomplete day.
		*d = ItineraryDay{}
		return nil
	}
	*d = ItineraryDay(aux.plain)
	var photos []Photo
	if len(aux.Photos) > 0 && json.Unmarshal(aux.Photos, &photos) == nil {
		d.Photos = photos
	}
	return nil
}

// Days decodes a non-array value as nil.
type Days []ItineraryDay

func (ds *Days) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		*ds = nil
		return nil
	}
	out := make(Days, len(raw))
	for i, r := range raw {
		if err := json.Unmarshal(r, &out[i]); err != nil {
			return err
		}
	}
	*ds = out
	return nil
}

// TripItinerary is the finished plan returned with ui "Final".
type TripItinerary struct {
	Resp             Text            `json:"resp"`
	UI               UITag           `json:"ui"`
	TripTitle        Text            `json:"tripTitle,omitempty"`
	Duration         Text            `json:"duration,omitempty"`
	TravelStyle      Text            `json:"travelStyle,omitempty"`
	TravelerType     Text            `json:"travelerType,omitempty"`
	Season           Text            `json:"season,omitempty"`
	Overview         Text            `json:"overview,omitempty"`
	QuickFacts       json.RawMessage `json:"quickFacts,omitempty"`
	Flights          json.RawMessage `json:"flights,omitempty"`
	Accommodation    json.RawMessage `json:"accommodation,omitempty"`
	RecommendedCafes json.RawMessage `json:"recommendedCafes,omitempty"`
	Dates            *DateRange      `json:"dates,omitempty"`
	Budget           *Budget         `json:"budget,omitempty"`
	Itinerary        Days            `json:"itinerary"`
	PackingChecklist json.RawMessage `json:"packingChecklist,omitempty"`
	LocalTips        json.RawMessage `json:"localTips,omitempty"`
}

func (t *TripItinerary) UnmarshalJSON(b []byte) error {
	type plain TripItinerary
	var aux struct {
		plain
		Dates  json.RawMessage `json:"dates,omitempty"`
		Budget json.RawMessage `json:"budget,omitempty"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*t = TripItinerary(aux.plain)
	if isObject(aux.Dates) {
		var dr DateRange
		if json.Unmarshal(aux.Dates, &dr) == nil {
			t.Dates = &dr
		}
	}
	// A non-object budget counts as absent and is synthesized later.
	if isObject(aux.Budget) {
		var bd Budget
		if json.Unmarshal(aux.Budget, &bd) == nil {
			t.Budget = &bd
		}
	}
	return nil
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
