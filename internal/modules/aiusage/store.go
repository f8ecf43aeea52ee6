package aiusage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store handles ai_usage persistence.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Consume atomically deducts one generation, resetting to allowance when the stored
// month is behind now. Returns ErrQuotaExhausted when no row was updated.
func (s *Store) Consume(ctx context.Context, uid string, allowance int, now time.Time) error {
	month := now.Format(monthKey)
	tag, err := s.db.Exec(ctx, `
		UPDATE ai_usage SET
			tokens_remaining = CASE WHEN last_reset_month != $1 THEN $2 - 1 ELSE tokens_remaining - 1 END,
			last_reset_month = $1
		WHERE uid = $3 AND (last_reset_month < $1 OR tokens_remaining > 0)
	`, month, allowance, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrQuotaExhausted
	}
	return nil
}

// EnsureUser inserts a row with the full allowance; existing rows are left alone.
func (s *Store) EnsureUser(ctx context.Context, uid string, allowance int, now time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ai_usage (uid, tokens_remaining, last_reset_month)
		VALUES ($1, $2, $3)
		ON CONFLICT (uid) DO NOTHING
	`, uid, allowance, now.Format(monthKey))
	return err
}

// Remaining reports the generations left this month. Unknown users have the full allowance.
func (s *Store) Remaining(ctx context.Context, uid string, allowance int, now time.Time) (int, error) {
	var remaining int
	var month string
	err := s.db.QueryRow(ctx, `SELECT tokens_remaining, last_reset_month FROM ai_usage WHERE uid = $1`, uid).Scan(&remaining, &month)
	if errors.Is(err, pgx.ErrNoRows) {
		return allowance, nil
	}
	if err != nil {
		return 0, err
	}
	if month < now.Format(monthKey) {
		return allowance, nil
	}
	return remaining, nil
}
