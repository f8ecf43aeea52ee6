package trip

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripbuddy/internal/infra"
	"tripbuddy/internal/itinerary"
	"tripbuddy/migrations"
)

// setupPostgresStore skips when TRIPBUDDY_TEST_DSN is not set.
func setupPostgresStore(t *testing.T) (*PostgresStore, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("TRIPBUDDY_TEST_DSN")
	if dsn == "" {
		t.Skip("TRIPBUDDY_TEST_DSN not set; skipping DB-backed tests")
	}
	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := infra.Migrate(ctx, db, migrations.FS, zerolog.Nop()); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := db.Exec(ctx, "TRUNCATE TABLE trips"); err != nil {
		t.Fatalf("truncate trips: %v", err)
	}
	return NewPostgresStore(db), db
}

func TestPostgresRoundTrip(t *testing.T) {
	store, _ := setupPostgresStore(t)
	svc := NewService(store, NewSizeGuard(zerolog.Nop()), zerolog.Nop())
	ctx := context.Background()

	src := itinerary.TripItinerary{
		Resp:      "Lisbon awaits",
		UI:        itinerary.UIFinal,
		Itinerary: itinerary.Days{{Day: 1, Title: "t", Morning: "m", Afternoon: "a", Evening: "e"}},
	}
	src.Budget = itinerary.SynthesizeBudget(src.Itinerary)
	detail, err := json.Marshal(&src)
	require.NoError(t, err)

	id, err := svc.Create(ctx, CreateCommand{UID: "u1", Detail: detail})
	require.NoError(t, err)

	rec, err := svc.Get(ctx, id, "u1")
	require.NoError(t, err)
	var back itinerary.TripItinerary
	require.NoError(t, json.Unmarshal(rec.Detail, &back))
	assert.Equal(t, src, back)
}

func TestPostgresReadsLegacyObjectDetail(t *testing.T) {
	store, db := setupPostgresStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	_, err := db.Exec(ctx, `INSERT INTO trips (id, trip_id, uid, trip_detail, created_at, updated_at)
		VALUES ('legacy', '1', 'u1', '{"resp":"old"}'::jsonb, $1, $1)`, now)
	require.NoError(t, err)

	rec, err := store.Get(ctx, "legacy")
	require.NoError(t, err)
	assert.JSONEq(t, `{"resp":"old"}`, string(rec.Detail))

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
