package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripbuddy/internal/ai"
	"tripbuddy/internal/conversation"
	"tripbuddy/internal/itinerary"
)

func TestGenerateDecodesVariants(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var body struct {
			Messages []ai.Message `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		if body.Messages[len(body.Messages)-1].Content == "final" {
			_, _ = io.WriteString(w, `{"resp":"done","ui":"Final","itinerary":[{"day":1,"title":"t","morning":"m","afternoon":"a","evening":"e"}]}`)
			return
		}
		_, _ = io.WriteString(w, `{"resp":"Budget?","ui":"budget"}`)
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "tok", time.Second)
	p, err := c.Generate(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}})
	require.NoError(t, err)
	q, ok := p.(itinerary.QuestionPayload)
	require.True(t, ok)
	assert.Equal(t, itinerary.UIBudget, q.UI)

	p, err = c.Generate(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "final"}})
	require.NoError(t, err)
	trip, ok := p.(*itinerary.TripItinerary)
	require.True(t, ok)
	assert.Len(t, trip.Itinerary, 1)
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"error":"All model fallbacks failed","details":[]}`)
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "", time.Second)
	_, err := c.Generate(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode())
	assert.Equal(t, conversation.MsgUnavailable, conversation.FriendlyMessage(err))
	assert.False(t, apiErr.Terminal())
	assert.True(t, conversation.Retryable(err))
}

func TestTerminalFallbackIsNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"error":"All model fallbacks failed","details":[{"model":"openrouter:a","error":"bad key","type":"status_401"}],"retryable":false}`)
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "", time.Second)
	_, err := c.Generate(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Terminal())
	assert.False(t, conversation.Retryable(err))
	assert.Equal(t, conversation.MsgUnavailable, conversation.FriendlyMessage(err))
}

func TestUnauthorizedIsNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"missing or invalid authorization header"}`)
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "", time.Second)
	_, err := c.CreateTrip(context.Background(), "1", &itinerary.TripItinerary{})
	require.Error(t, err)
	assert.False(t, conversation.Retryable(err))
}

func TestTripRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/trips":
			var body map[string]json.RawMessage
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.JSONEq(t, `"123"`, string(body["tripId"]))
			_, _ = io.WriteString(w, `{"id":"rec-1"}`)
		case r.Method == http.MethodPut && r.URL.Path == "/api/trips/rec-1":
			_, _ = io.WriteString(w, `{"id":"rec-1"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/trips/rec-1":
			assert.Equal(t, "1", r.URL.Query().Get("enrich"))
			_, _ = io.WriteString(w, `{"id":"rec-1","tripId":"123","uid":"u1","tripDetail":{"resp":"x","ui":"Final","itinerary":[]}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "tok", time.Second)
	ctx := context.Background()

	id, err := c.CreateTrip(ctx, "123", &itinerary.TripItinerary{Resp: "x"})
	require.NoError(t, err)
	assert.EqualValues(t, "rec-1", id)

	id, err = c.UpdateTrip(ctx, id, &itinerary.TripItinerary{Resp: "y"})
	require.NoError(t, err)
	assert.EqualValues(t, "rec-1", id)

	rec, err := c.GetTrip(ctx, id, true)
	require.NoError(t, err)
	assert.Equal(t, "123", rec.TripID)
	detail, err := DecodeDetail(rec.Detail)
	require.NoError(t, err)
	assert.Equal(t, itinerary.UIFinal, detail.UI)
}
