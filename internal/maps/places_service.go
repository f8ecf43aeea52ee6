// README: Google Places proxy: text search, details and photo streaming with response caching.
package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"googlemaps.github.io/maps"

	"tripbuddy/internal/metrics"
)

const (
	DefaultBaseURL     = "https://maps.googleapis.com"
	SearchTTL          = time.Hour
	DetailsTTL         = 2 * time.Hour
	DefaultPhotoWidth  = 800
	StatusOK           = "OK"
	StatusZeroResults  = "ZERO_RESULTS"
	detailsPath        = "/maps/api/place/details/json"
	detailsFieldFilter = "name,formatted_address,geometry,rating,photos,price_level,editorial_summary,vicinity,url"
)

var (
	ErrBadRequest    = errors.New("bad request")
	ErrNotConfigured = errors.New("GOOGLE_MAPS_API_KEY is not configured")
	ErrUpstream      = errors.New("google places request failed")
)

// NotImageError is returned when the photo endpoint answers with a non-image body.
type NotImageError struct {
	ContentType string
}

func (e *NotImageError) Error() string {
	return fmt.Sprintf("response is not an image: %q", e.ContentType)
}

// UpstreamError carries the Places status for a failed call.
type UpstreamError struct {
	Status  string
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("google places: %s", e.Status)
	}
	return fmt.Sprintf("google places: %s - %s", e.Status, e.Message)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

// SearchResponse is the text search payload returned to callers.
type SearchResponse struct {
	Results []maps.PlacesSearchResult `json:"results"`
	Status  string                    `json:"status"`
}

// Photo is a streamed place photo. Callers must close Body.
type Photo struct {
	ContentType string
	Body        io.ReadCloser
}

type Option func(*PlacesService)

// WithBaseURL points both the SDK and the raw details client at another host.
func WithBaseURL(u string) Option {
	return func(s *PlacesService) { s.baseURL = strings.TrimRight(u, "/") }
}

// PlacesService handles interactions with Google Places API.
type PlacesService struct {
	client  *maps.Client
	http    *resty.Client
	cache   Cache
	apiKey  string
	baseURL string
	log     zerolog.Logger
}

// NewPlacesService creates a new PlacesService with the given API Key.
// A nil cache disables caching.
func NewPlacesService(apiKey string, cache Cache, log zerolog.Logger, opts ...Option) (*PlacesService, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	s := &PlacesService{apiKey: apiKey, cache: cache, baseURL: DefaultBaseURL, log: log}
	for _, o := range opts {
		o(s)
	}
	clientOpts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if s.baseURL != DefaultBaseURL {
		clientOpts = append(clientOpts, maps.WithBaseURL(s.baseURL))
	}
	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	s.client = client
	s.http = resty.New().
		SetBaseURL(s.baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")
	return s, nil
}

var (
	trailingDay = regexp.MustCompile(`(?i)\s+Day\s*$`)
	spaces      = regexp.MustCompile(`\s+`)
)

// NormalizeQuery drops a trailing " Day" and collapses whitespace.
func NormalizeQuery(raw string) string {
	q := trailingDay.ReplaceAllString(raw, "")
	return strings.TrimSpace(spaces.ReplaceAllString(q, " "))
}

// Search runs a text search. An empty normalized query is a successful empty result.
func (s *PlacesService) Search(ctx context.Context, rawQuery string) (*SearchResponse, error) {
	if strings.TrimSpace(rawQuery) == "" {
		return nil, fmt.Errorf("%w: missing query", ErrBadRequest)
	}
	query := NormalizeQuery(rawQuery)
	if query == "" {
		return &SearchResponse{Results: []maps.PlacesSearchResult{}, Status: StatusZeroResults}, nil
	}

	key := "search:" + strings.ToLower(query)
	var out SearchResponse
	if s.cached(ctx, key, &out) {
		metrics.RecordPlacesLookup("search", "cache")
		return &out, nil
	}

	resp, err := s.client.TextSearch(ctx, &maps.TextSearchRequest{Query: query})
	if err != nil {
		metrics.RecordPlacesLookup("search", "error")
		s.log.Error().Err(err).Str("query", query).Msg("places search failed")
		return nil, &UpstreamError{Status: "REQUEST_FAILED", Message: err.Error()}
	}
	metrics.RecordPlacesLookup("search", "upstream")

	out = SearchResponse{Results: resp.Results, Status: StatusOK}
	if len(resp.Results) == 0 {
		out = SearchResponse{Results: []maps.PlacesSearchResult{}, Status: StatusZeroResults}
	}
	s.store(ctx, key, out, SearchTTL)
	return &out, nil
}

type detailsEnvelope struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// Details returns the raw Places details document for placeID.
func (s *PlacesService) Details(ctx context.Context, placeID string) (json.RawMessage, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, fmt.Errorf("%w: missing place_id", ErrBadRequest)
	}

	key := "details:" + placeID
	var cached json.RawMessage
	if s.cached(ctx, key, &cached) {
		metrics.RecordPlacesLookup("details", "cache")
		return cached, nil
	}

	var env detailsEnvelope
	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"place_id": placeID,
			"fields":   detailsFieldFilter,
			"key":      s.apiKey,
		}).
		Get(detailsPath)
	if err != nil {
		metrics.RecordPlacesLookup("details", "error")
		return nil, &UpstreamError{Status: "REQUEST_FAILED", Message: err.Error()}
	}
	body := resp.Body()
	_ = json.Unmarshal(body, &env)
	if resp.IsError() || (env.Status != "" && env.Status != StatusOK) {
		metrics.RecordPlacesLookup("details", "error")
		s.log.Error().
			Int("http_status", resp.StatusCode()).
			Str("status", env.Status).
			Str("message", env.ErrorMessage).
			Msg("places details failed")
		status := env.Status
		if status == "" {
			status = resp.Status()
		}
		return nil, &UpstreamError{Status: status, Message: env.ErrorMessage}
	}
	metrics.RecordPlacesLookup("details", "upstream")

	raw := json.RawMessage(append([]byte(nil), body...))
	s.store(ctx, key, raw, DetailsTTL)
	return raw, nil
}

// Photo fetches a photo by reference. maxWidth <= 0 uses DefaultPhotoWidth.
func (s *PlacesService) Photo(ctx context.Context, reference string, maxWidth int) (*Photo, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: missing photo_reference", ErrBadRequest)
	}
	if maxWidth <= 0 {
		maxWidth = DefaultPhotoWidth
	}
	resp, err := s.client.PlacePhoto(ctx, &maps.PlacePhotoRequest{
		PhotoReference: reference,
		MaxWidth:       uint(maxWidth),
	})
	if err != nil {
		metrics.RecordPlacesLookup("photo", "error")
		return nil, &UpstreamError{Status: "REQUEST_FAILED", Message: err.Error()}
	}
	if !strings.HasPrefix(strings.ToLower(resp.ContentType), "image/") {
		if resp.Data != nil {
			resp.Data.Close()
		}
		metrics.RecordPlacesLookup("photo", "error")
		return nil, &NotImageError{ContentType: resp.ContentType}
	}
	metrics.RecordPlacesLookup("photo", "upstream")
	return &Photo{ContentType: resp.ContentType, Body: resp.Data}, nil
}

func (s *PlacesService) cached(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	b, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("places cache read failed")
		return false
	}
	if !ok {
		return false
	}
	return json.Unmarshal(b, dst) == nil
}

func (s *PlacesService) store(ctx context.Context, key string, v any, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, b, ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("places cache write failed")
	}
}
