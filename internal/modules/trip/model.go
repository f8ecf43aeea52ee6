// README: Trip record aggregate, persistence contract and detail normalization.
package trip

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"tripbuddy/internal/types"
)

var (
	ErrNotFound        = errors.New("trip not found")
	ErrBadRequest      = errors.New("bad request")
	ErrForbidden       = errors.New("forbidden")
	ErrPayloadTooLarge = errors.New("trip detail too large")
	ErrInvalidDetail   = errors.New("stored trip detail is not valid JSON")
)

// Record is one saved itinerary owned by a single user.
// Detail is the itinerary JSON; stores keep it as an opaque serialized blob.
type Record struct {
	ID        types.ID        `json:"id"`
	TripID    string          `json:"tripId"`
	UID       string          `json:"uid"`
	Detail    json.RawMessage `json:"tripDetail"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Store persists trip records. ListByOwner returns newest first.
type Store interface {
	Create(ctx context.Context, r *Record) error
	ListByOwner(ctx context.Context, uid string) ([]Record, error)
	Get(ctx context.Context, id types.ID) (*Record, error)
	UpdateDetail(ctx context.Context, id types.ID, detail json.RawMessage, at time.Time) error
	Delete(ctx context.Context, id types.ID) error
}

// CompactDetail returns the detail as compact JSON. Its length is what the size guard measures.
func CompactDetail(detail json.RawMessage) ([]byte, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, detail); err != nil {
		return nil, ErrInvalidDetail
	}
	return compact.Bytes(), nil
}

// Serialize encodes detail as a JSON string value, the form written by every store.
func Serialize(detail json.RawMessage) ([]byte, error) {
	compact, err := CompactDetail(detail)
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(compact))
}

// NormalizeDetail accepts either a serialized JSON string or a legacy structured value
// and returns the structured JSON.
func NormalizeDetail(raw []byte) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrInvalidDetail
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, ErrInvalidDetail
		}
		raw = bytes.TrimSpace([]byte(s))
	}
	if !json.Valid(raw) {
		return nil, ErrInvalidDetail
	}
	return json.RawMessage(raw), nil
}
