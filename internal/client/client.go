// README: HTTP client for the TripBuddy API used by the terminal chat and the bench.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"tripbuddy/internal/ai"
	"tripbuddy/internal/conversation"
	"tripbuddy/internal/itinerary"
	"tripbuddy/internal/modules/trip"
	"tripbuddy/internal/types"
)

const DefaultTimeout = 90 * time.Second

// APIError is a non-2xx answer from the API. Message is the body's "error" field when present.
// NotRetryable is set when the body carries "retryable": false.
type APIError struct {
	Status       int
	Message      string
	NotRetryable bool
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

func (e *APIError) StatusCode() int { return e.Status }

func (e *APIError) Terminal() bool { return e.NotRetryable }

// APIClient talks to one TripBuddy server on behalf of one signed-in user.
type APIClient struct {
	http *resty.Client
}

var (
	_ conversation.Backend   = (*APIClient)(nil)
	_ conversation.Persister = (*APIClient)(nil)
)

// NewAPIClient builds a client. token is the Firebase ID token sent as a bearer credential.
func NewAPIClient(baseURL, token string, timeout time.Duration) *APIClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "TripBuddy-CLI/1.0")
	if token != "" {
		c.SetAuthToken(token)
	}
	return &APIClient{http: c}
}

type errorBody struct {
	Error     string `json:"error"`
	Retryable *bool  `json:"retryable,omitempty"`
}

func (c *APIClient) do(ctx context.Context, method, path string, body, result any) error {
	req := c.http.R().SetContext(ctx).SetError(&errorBody{})
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode()}
		if eb, ok := resp.Error().(*errorBody); ok {
			apiErr.Message = eb.Error
			apiErr.NotRetryable = eb.Retryable != nil && !*eb.Retryable
		}
		return apiErr
	}
	return nil
}

// Generate posts the conversation to the model endpoint and decodes the payload variant.
func (c *APIClient) Generate(ctx context.Context, messages []ai.Message) (itinerary.Payload, error) {
	var raw map[string]any
	if err := c.do(ctx, http.MethodPost, "/api/aimodel", map[string]any{"messages": messages}, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("invalid response format from API")
	}
	return itinerary.Decode(raw)
}

type idResponse struct {
	ID types.ID `json:"id"`
}

func (c *APIClient) CreateTrip(ctx context.Context, tripID string, detail *itinerary.TripItinerary) (types.ID, error) {
	var out idResponse
	body := map[string]any{"tripId": tripID, "tripDetail": detail}
	if err := c.do(ctx, http.MethodPost, "/api/trips", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *APIClient) UpdateTrip(ctx context.Context, id types.ID, detail *itinerary.TripItinerary) (types.ID, error) {
	var out idResponse
	if err := c.do(ctx, http.MethodPut, "/api/trips/"+id.String(), map[string]any{"tripDetail": detail}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *APIClient) ListTrips(ctx context.Context) ([]trip.Record, error) {
	var out []trip.Record
	if err := c.do(ctx, http.MethodGet, "/api/trips", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTrip fetches one record; enrich asks the server to attach place photos.
func (c *APIClient) GetTrip(ctx context.Context, id types.ID, enrich bool) (*trip.Record, error) {
	path := "/api/trips/" + id.String()
	if enrich {
		path += "?enrich=1"
	}
	var out trip.Record
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) DeleteTrip(ctx context.Context, id types.ID) error {
	return c.do(ctx, http.MethodDelete, "/api/trips/"+id.String(), nil, nil)
}

// Health checks the unauthenticated liveness endpoint.
func (c *APIClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// DecodeDetail parses a stored trip detail back into an itinerary.
func DecodeDetail(raw json.RawMessage) (*itinerary.TripItinerary, error) {
	var t itinerary.TripItinerary
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode trip detail: %w", err)
	}
	return &t, nil
}
