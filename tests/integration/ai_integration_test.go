// README: Live checks against a running API. Skipped unless TRIPBUDDY_API_URL and TRIPBUDDY_ID_TOKEN are set.
package integration

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"tripbuddy/internal/ai"
	"tripbuddy/internal/client"
	"tripbuddy/internal/conversation"
	"tripbuddy/internal/infra"
	"tripbuddy/internal/itinerary"
	"tripbuddy/migrations"
)

func TestPlanFirstTurnAsksQuestion(t *testing.T) {
	t.Logf("[TEST LOG] starting TestPlanFirstTurnAsksQuestion")
	api := mustAPI(t)
	if os.Getenv("OPENROUTER_API_KEY") == "" && os.Getenv("GEMINI_API_KEY") == "" {
		t.Skip("no model credentials in environment; skipping live model test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	p, err := api.Generate(ctx, []ai.Message{{Role: ai.RoleUser, Content: "Plan a trip to Kyoto for me"}})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if p.Kind() == itinerary.KindError {
		t.Fatalf("expected a question or itinerary, got error payload")
	}
	if strings.TrimSpace(p.Response()) == "" {
		t.Fatalf("expected non-empty resp")
	}
	t.Logf("[TEST LOG] first reply (%s): %s", p.Kind(), p.Response())
}

func TestPlanRejectsEmptyConversation(t *testing.T) {
	api := mustAPI(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := api.Generate(ctx, []ai.Message{{Role: ai.RoleUser, Content: "   "}})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	if conversation.Retryable(err) {
		t.Fatalf("invalid request must not be retried")
	}
}

func TestTripLifecycle(t *testing.T) {
	api := mustAPI(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	detail := &itinerary.TripItinerary{
		Resp:      "Done",
		UI:        itinerary.UIFinal,
		TripTitle: "Integration Trip",
		Itinerary: itinerary.Days{
			{Day: 1, Title: "Arrive", Morning: "Fly", Afternoon: "Check in", Evening: "Dinner"},
		},
	}
	tripID := fmt.Sprintf("%d", time.Now().UnixMilli())
	id, err := api.CreateTrip(ctx, tripID, detail)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cleanupCancel()
		_ = api.DeleteTrip(cleanupCtx, id)
	})

	list, err := api.ListTrips(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	found := false
	for _, rec := range list {
		if rec.ID == id {
			found = true
		}
	}
	if !found {
		t.Fatalf("created trip %s missing from list", id)
	}

	got, err := api.GetTrip(ctx, id, false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	back, err := client.DecodeDetail(got.Detail)
	if err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if back.TripTitle != "Integration Trip" || len(back.Itinerary) != 1 {
		t.Fatalf("unexpected detail: %+v", back)
	}

	if err := api.DeleteTrip(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := api.GetTrip(ctx, id, false); err == nil {
		t.Fatalf("expected not found after delete")
	}
}

// TestQuotaGuard seeds an exhausted allowance for TRIPBUDDY_TEST_UID and expects 429.
func TestQuotaGuard(t *testing.T) {
	api := mustAPI(t)
	uid := strings.TrimSpace(os.Getenv("TRIPBUDDY_TEST_UID"))
	dsn := firstNonEmpty(os.Getenv("TRIPBUDDY_TEST_DSN"), os.Getenv("TRIPBUDDY_DB_DSN"))
	if uid == "" || dsn == "" {
		t.Skip("TRIPBUDDY_TEST_UID or TRIPBUDDY_TEST_DSN not set; skipping quota test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := mustConnectDB(t, ctx, dsn)
	if err := infra.Migrate(ctx, db, migrations.FS, zerolog.Nop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	month := time.Now().UTC().Format("2006-01")
	if _, err := db.Exec(ctx, `
		INSERT INTO ai_usage (uid, tokens_remaining, last_reset_month)
		VALUES ($1, 0, $2)
		ON CONFLICT (uid) DO UPDATE SET
			tokens_remaining = EXCLUDED.tokens_remaining,
			last_reset_month = EXCLUDED.last_reset_month
	`, uid, month); err != nil {
		t.Fatalf("seed ai_usage: %v", err)
	}
	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cleanupCancel()
		_, _ = db.Exec(cleanupCtx, "DELETE FROM ai_usage WHERE uid = $1", uid)
	})

	_, err := api.Generate(ctx, []ai.Message{{Role: ai.RoleUser, Content: "Plan a weekend in Rome"}})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected API error, got %v", err)
	}
	if apiErr.Status == http.StatusInternalServerError {
		t.Skipf("server has no model credentials or quota disabled: %s", apiErr.Message)
	}
	if apiErr.Status != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d (%s)", apiErr.Status, apiErr.Message)
	}
}

func mustAPI(t *testing.T) *client.APIClient {
	t.Helper()
	loadDotEnv(t)

	baseURL := strings.TrimSpace(os.Getenv("TRIPBUDDY_API_URL"))
	token := strings.TrimSpace(os.Getenv("TRIPBUDDY_ID_TOKEN"))
	if baseURL == "" || token == "" {
		t.Skip("TRIPBUDDY_API_URL or TRIPBUDDY_ID_TOKEN not set; skipping live API tests")
	}
	api := client.NewAPIClient(baseURL, token, client.DefaultTimeout)
	waitForAPIReady(t, api)
	return api
}

func mustConnectDB(t *testing.T, parent context.Context, dsn string) *pgxpool.Pool {
	t.Helper()

	ctx, cancel := context.WithTimeout(parent, 5*time.Second)
	defer cancel()
	db, err := infra.NewDB(ctx, dsn)
	if err != nil {
		t.Fatalf("cannot connect to postgres at %s: %v", redactedDSN(dsn), err)
	}
	t.Cleanup(db.Close)
	return db
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func redactedDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at == -1 || scheme == -1 || at <= scheme+3 {
		return dsn
	}
	return dsn[:scheme+3] + "***:***" + dsn[at:]
}

func waitForAPIReady(t *testing.T, api *client.APIClient) {
	t.Helper()

	deadline := time.Now().Add(20 * time.Second)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := api.Health(ctx)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("api not ready: /health did not return 200 in time")
}

// loadDotEnv loads the nearest .env walking up from the test directory. Existing variables win.
func loadDotEnv(t *testing.T) {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < 8; i++ {
		candidate := filepath.Join(dir, ".env")
		if _, err := os.Stat(candidate); err == nil {
			_ = godotenv.Load(candidate)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
