// README: Trip store backed by PostgreSQL. trip_detail is written as a JSON string value.
package trip

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tripbuddy/internal/types"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, r *Record) error {
	serialized, err := Serialize(r.Detail)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO trips (id, trip_id, uid, trip_detail, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(r.ID), r.TripID, r.UID, serialized, r.CreatedAt, r.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) ListByOwner(ctx context.Context, uid string) ([]Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, uid, trip_detail, created_at, updated_at
		FROM trips
		WHERE uid = $1
		ORDER BY created_at DESC`, uid,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*Record, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, trip_id, uid, trip_detail, created_at, updated_at
		FROM trips
		WHERE id = $1`, string(id),
	)
	r, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func (s *PostgresStore) UpdateDetail(ctx context.Context, id types.ID, detail json.RawMessage, at time.Time) error {
	serialized, err := Serialize(detail)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE trips SET trip_detail = $1, updated_at = $2
		WHERE id = $3`, serialized, at, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM trips WHERE id = $1`, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	var id string
	var detail []byte
	if err := row.Scan(&id, &r.TripID, &r.UID, &detail, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.ID = types.ID(id)
	normalized, err := NormalizeDetail(detail)
	if err != nil {
		return nil, err
	}
	r.Detail = normalized
	return &r, nil
}
