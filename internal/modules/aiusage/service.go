package aiusage

import (
	"context"
	"errors"
	"time"
)

// Service meters itinerary generations per user.
type Service struct {
	store     *Store
	allowance int
	now       func() time.Time
}

func NewService(store *Store, allowance int) *Service {
	if allowance <= 0 {
		allowance = DefaultMonthlyGenerations
	}
	return &Service{store: store, allowance: allowance, now: time.Now}
}

// Consume deducts one generation, creating the user's row on first use.
func (s *Service) Consume(ctx context.Context, uid string) error {
	now := s.now()
	err := s.store.Consume(ctx, uid, s.allowance, now)
	if !errors.Is(err, ErrQuotaExhausted) {
		return err
	}
	// Row may be missing: create it, then retry the deduction once.
	if initErr := s.store.EnsureUser(ctx, uid, s.allowance, now); initErr != nil {
		return initErr
	}
	return s.store.Consume(ctx, uid, s.allowance, now)
}

func (s *Service) Remaining(ctx context.Context, uid string) (int, error) {
	return s.store.Remaining(ctx, uid, s.allowance, s.now())
}
