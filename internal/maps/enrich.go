package maps

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"tripbuddy/internal/itinerary"
)

const (
	EnrichBatchSize = 3
	EnrichMaxDays   = 3
	EnrichBatchGap  = 250 * time.Millisecond
	MaxDayPhotos    = 3
)

// Searcher is the part of PlacesService the enricher needs.
type Searcher interface {
	Search(ctx context.Context, query string) (*SearchResponse, error)
}

// Enricher attaches place photos to the first days of an itinerary.
type Enricher struct {
	places    Searcher
	batchSize int
	maxDays   int
	gap       time.Duration
	log       zerolog.Logger
}

func NewEnricher(places Searcher, log zerolog.Logger) *Enricher {
	return &Enricher{
		places:    places,
		batchSize: EnrichBatchSize,
		maxDays:   EnrichMaxDays,
		gap:       EnrichBatchGap,
		log:       log,
	}
}

// Destination picks the search context for a trip: quickFacts.destination, then the title.
func Destination(t *itinerary.TripItinerary) string {
	if len(t.QuickFacts) > 0 {
		var qf struct {
			Destination itinerary.Text `json:"destination"`
		}
		if json.Unmarshal(t.QuickFacts, &qf) == nil && !qf.Destination.Blank() {
			return strings.TrimSpace(string(qf.Destination))
		}
	}
	return strings.TrimSpace(string(t.TripTitle))
}

// Enrich fills Photos on days that have none. Lookup failures leave the day untouched.
// It returns the number of days that gained photos.
func (e *Enricher) Enrich(ctx context.Context, t *itinerary.TripItinerary) (int, error) {
	if t == nil || len(t.Itinerary) == 0 {
		return 0, nil
	}
	dest := Destination(t)
	limit := min(len(t.Itinerary), e.maxDays)

	updated := make([]bool, limit)
	for start := 0; start < limit; start += e.batchSize {
		end := min(start+e.batchSize, limit)
		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			day := &t.Itinerary[i]
			if len(day.Photos) > 0 || day.Title.Blank() {
				continue
			}
			g.Go(func() error {
				photos := e.lookup(gctx, strings.TrimSpace(string(day.Title)+" "+dest))
				if len(photos) > 0 {
					day.Photos = photos
					updated[i] = true
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return 0, err
		}
		if end < limit {
			select {
			case <-ctx.Done():
				return lo.Count(updated, true), ctx.Err()
			case <-time.After(e.gap):
			}
		}
	}
	return lo.Count(updated, true), nil
}

func (e *Enricher) lookup(ctx context.Context, query string) []itinerary.Photo {
	resp, err := e.places.Search(ctx, query)
	if err != nil {
		e.log.Warn().Err(err).Str("query", query).Msg("enrich lookup failed")
		return nil
	}
	if resp == nil || len(resp.Results) == 0 {
		return nil
	}
	first := resp.Results[0]
	out := make([]itinerary.Photo, 0, MaxDayPhotos)
	for _, p := range first.Photos {
		if len(out) == MaxDayPhotos {
			break
		}
		out = append(out, itinerary.Photo{
			Reference: p.PhotoReference,
			Width:     p.Width,
			Height:    p.Height,
			PlaceID:   first.PlaceID,
		})
	}
	return out
}
