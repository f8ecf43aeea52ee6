package itinerary

import (
	"encoding/json"
	"fmt"
)

type Kind int

const (
	KindQuestion Kind = iota
	KindFinal
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindFinal:
		return "final"
	case KindError:
		return "error"
	default:
		return "question"
	}
}

// Payload is one of QuestionPayload, *TripItinerary or ErrorPayload.
type Payload interface {
	Kind() Kind
	Response() string
}

// QuestionPayload asks the user for one missing trip parameter.
type QuestionPayload struct {
	Resp Text  `json:"resp"`
	UI   UITag `json:"ui,omitempty"`
}

func (QuestionPayload) Kind() Kind         { return KindQuestion }
func (q QuestionPayload) Response() string { return string(q.Resp) }

// ErrorPayload is returned when the model answers with an error object instead of content.
type ErrorPayload struct {
	Message string `json:"error"`
}

func (ErrorPayload) Kind() Kind         { return KindError }
func (e ErrorPayload) Response() string { return "" }

func (*TripItinerary) Kind() Kind         { return KindFinal }
func (t *TripItinerary) Response() string { return string(t.Resp) }

// Decode turns an untyped model object into a payload variant.
// ui "Final" selects the itinerary shape; an object carrying only an "error" string is an ErrorPayload.
func Decode(obj map[string]any) (Payload, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("re-encode payload: %w", err)
	}

	if ui, _ := obj["ui"].(string); UITag(ui) == UIFinal {
		var t TripItinerary
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("decode itinerary: %w", err)
		}
		return &t, nil
	}

	if msg, ok := obj["error"].(string); ok {
		if _, hasResp := obj["resp"]; !hasResp {
			return ErrorPayload{Message: msg}, nil
		}
	}

	var q QuestionPayload
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, fmt.Errorf("decode question: %w", err)
	}
	return q, nil
}
