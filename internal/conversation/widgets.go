package conversation

import (
	"strings"

	"tripbuddy/internal/itinerary"
)

// Option is one selectable widget answer. Value is what gets sent as the user turn.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Desc  string `json:"desc,omitempty"`
}

// Widget describes the input the client renders for a question tag.
type Widget struct {
	Tag         itinerary.UITag `json:"tag"`
	Options     []Option        `json:"options,omitempty"`
	MultiSelect bool            `json:"multiSelect,omitempty"`
	// Format hints free-form answers such as the date range.
	Format string `json:"format,omitempty"`
}

var budgetOptions = []Option{
	{Label: "Cheap", Value: "Cheap:Stay conscious of costs", Desc: "Stay conscious of costs"},
	{Label: "Moderate", Value: "Moderate:Keep cost on the average side", Desc: "Keep cost on the average side"},
	{Label: "Luxury", Value: "Luxury:Don't worry about cost", Desc: "Don't worry about cost"},
}

var groupOptions = []Option{
	{Label: "Solo", Value: "Solo:1", Desc: "A sole traveler in exploration"},
	{Label: "Couple", Value: "Couple:2 People", Desc: "Two travelers in tandem"},
	{Label: "Family", Value: "Family:3 to 5 People", Desc: "A group of fun loving adventurers"},
	{Label: "Friends", Value: "Friends:5 to 10 People", Desc: "A bunch of thrill-seekers"},
}

var interestOptions = []Option{
	{Label: "Adventure", Value: "Adventure"},
	{Label: "Sightseeing", Value: "Sightseeing"},
	{Label: "Cultural", Value: "Cultural"},
	{Label: "Food", Value: "Food"},
	{Label: "Nightlife", Value: "Nightlife"},
	{Label: "Relaxation", Value: "Relaxation"},
	{Label: "Beach", Value: "Beach"},
	{Label: "Nature", Value: "Nature"},
	{Label: "Music & Festivals", Value: "Music & Festivals"},
	{Label: "Shopping", Value: "Shopping"},
	{Label: "Global Experiences", Value: "Global Experiences"},
}

// WidgetFor returns the widget for a question tag, or nil for free text and Final.
func WidgetFor(tag itinerary.UITag) *Widget {
	switch tag {
	case itinerary.UIBudget:
		return &Widget{Tag: tag, Options: budgetOptions}
	case itinerary.UIGroupSize:
		return &Widget{Tag: tag, Options: groupOptions}
	case itinerary.UITravelInterest:
		return &Widget{Tag: tag, Options: interestOptions, MultiSelect: true}
	case itinerary.UIDateRange:
		return &Widget{Tag: tag, Format: "Travel dates: from YYYY-MM-DD to YYYY-MM-DD"}
	}
	return nil
}

// InterestsMessage formats a multi-select interests answer.
func InterestsMessage(selected []string) string {
	return "Interests: " + strings.Join(selected, ", ")
}

// CustomBudgetMessage and CustomGroupMessage format free-form widget answers.
func CustomBudgetMessage(v string) string { return "Budget: " + strings.TrimSpace(v) }

func CustomGroupMessage(v string) string { return "Group size: " + strings.TrimSpace(v) }
