package trip

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tripbuddy/internal/types"
)

type Service struct {
	store Store
	guard *SizeGuard
	log   zerolog.Logger
	now   func() time.Time
}

func NewService(store Store, guard *SizeGuard, log zerolog.Logger) *Service {
	return &Service{store: store, guard: guard, log: log, now: time.Now}
}

type CreateCommand struct {
	TripID string
	UID    string
	Detail json.RawMessage
}

// Create stores a new trip. TripID defaults to the creation time in milliseconds.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if strings.TrimSpace(cmd.UID) == "" || len(cmd.Detail) == 0 {
		return "", ErrBadRequest
	}
	compact, err := CompactDetail(cmd.Detail)
	if err != nil {
		return "", ErrBadRequest
	}
	if err := s.guard.Check(OpCreate, compact); err != nil {
		return "", err
	}

	now := s.now().UTC()
	tripID := strings.TrimSpace(cmd.TripID)
	if tripID == "" {
		tripID = strconv.FormatInt(now.UnixMilli(), 10)
	}
	r := &Record{
		ID:        types.NewID(),
		TripID:    tripID,
		UID:       cmd.UID,
		Detail:    cmd.Detail,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return "", err
	}
	s.log.Info().Str("id", r.ID.String()).Str("uid", r.UID).Int("bytes", len(compact)).Msg("trip created")
	return r.ID, nil
}

func (s *Service) List(ctx context.Context, uid string) ([]Record, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, ErrBadRequest
	}
	return s.store.ListByOwner(ctx, uid)
}

// Get returns a record owned by uid.
func (s *Service) Get(ctx context.Context, id types.ID, uid string) (*Record, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UID != uid {
		return nil, ErrForbidden
	}
	return r, nil
}

// UpdateDetail replaces the detail. Oversized updates are logged, not rejected.
func (s *Service) UpdateDetail(ctx context.Context, id types.ID, uid string, detail json.RawMessage) (types.ID, error) {
	if len(detail) == 0 {
		return "", ErrBadRequest
	}
	compact, err := CompactDetail(detail)
	if err != nil {
		return "", ErrBadRequest
	}
	if _, err := s.Get(ctx, id, uid); err != nil {
		return "", err
	}
	if err := s.guard.Check(OpUpdate, compact); err != nil {
		return "", err
	}
	if err := s.store.UpdateDetail(ctx, id, detail, s.now().UTC()); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Service) Delete(ctx context.Context, id types.ID, uid string) (types.ID, error) {
	if _, err := s.Get(ctx, id, uid); err != nil {
		return "", err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}
