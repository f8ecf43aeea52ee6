// README: Entry point; loads config, wires stores, model providers and places proxy, starts the HTTP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"tripbuddy/internal/ai"
	"tripbuddy/internal/config"
	httptransport "tripbuddy/internal/http"
	"tripbuddy/internal/http/handlers"
	"tripbuddy/internal/infra"
	"tripbuddy/internal/itinerary"
	"tripbuddy/internal/maps"
	"tripbuddy/internal/modules/aiusage"
	"tripbuddy/internal/modules/trip"
	"tripbuddy/internal/readiness"
	"tripbuddy/internal/service"
	"tripbuddy/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := infra.NewLogger("info", "tripbuddy-api", true)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := infra.NewLogger(cfg.LogLevel, "tripbuddy-api", cfg.LogFormat == "console")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile, false)
	if err != nil {
		log.Fatal().Err(err).Msg("firebase init")
	}

	var dbPool *pgxpool.Pool
	if cfg.TripStore == config.TripStorePostgres || cfg.Quota.MonthlyGenerations > 0 {
		dbPool, err = infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("connect postgres")
		}
		defer dbPool.Close()
		if err := infra.Migrate(ctx, dbPool, migrations.FS, log); err != nil {
			log.Fatal().Err(err).Msg("migrate")
		}
	}

	tripStore := newTripStore(ctx, cfg, dbPool, log)
	tripSvc := trip.NewService(tripStore, trip.NewSizeGuard(log), log)

	var quota handlers.Quota
	if cfg.Quota.MonthlyGenerations > 0 {
		quota = aiusage.NewService(aiusage.NewStore(dbPool), cfg.Quota.MonthlyGenerations)
	}

	providers, closeProviders := newProviders(ctx, cfg, log)
	defer closeProviders()
	invoker := ai.NewInvoker(ai.NewPrompts(cfg.AI.AgentName), cfg.AI.AttemptTimeout, providers...)
	planner := service.NewTripPlanner(
		invoker,
		cfg.AI.Candidates,
		readiness.NewAnalyzer(cfg.Readiness),
		itinerary.NewSanitizer(cfg.AI.AgentName, log),
		log,
	)

	var (
		places   handlers.Places
		enricher handlers.Enricher
	)
	if cfg.Maps.APIKey != "" {
		svc, err := maps.NewPlacesService(cfg.Maps.APIKey, newPlacesCache(ctx, cfg, log), log)
		if err != nil {
			log.Fatal().Err(err).Msg("places init")
		}
		places = svc
		enricher = maps.NewEnricher(svc, log)
	} else {
		log.Warn().Msg("GOOGLE_MAPS_API_KEY not set; places proxy disabled")
	}

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Planner:      planner,
		Configured:   invoker.Configured(),
		Quota:        quota,
		Trips:        tripSvc,
		Places:       places,
		Enricher:     enricher,
		Verifier:     verifier,
		AllowOrigins: cfg.HTTP.AllowOrigins,
		Log:          log,
	})

	if err := httptransport.NewServer(cfg.HTTP.Addr, router, log).Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("http server")
	}
}

func newTripStore(ctx context.Context, cfg config.Config, db *pgxpool.Pool, log zerolog.Logger) trip.Store {
	if cfg.TripStore != config.TripStoreMongo {
		return trip.NewPostgresStore(db)
	}
	client, err := infra.NewMongo(ctx, cfg.Mongo.URI)
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongo")
	}
	store := trip.NewMongoStore(client.Database(cfg.Mongo.Database))
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("mongo indexes")
	}
	return store
}

// newProviders registers every provider with credentials. Candidates for a missing
// provider are skipped at call time. The returned func releases provider clients.
func newProviders(ctx context.Context, cfg config.Config, log zerolog.Logger) ([]ai.Provider, func()) {
	var out []ai.Provider
	closers := make([]func(), 0, 1)
	if p, err := ai.NewOpenRouterProvider(cfg.AI.OpenRouterKey, cfg.AI.OpenRouterURL); err == nil {
		out = append(out, p)
	} else {
		log.Warn().Err(err).Msg("openrouter provider disabled")
	}
	if cfg.AI.GeminiKey != "" {
		p, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey)
		if err != nil {
			log.Warn().Err(err).Msg("gemini provider disabled")
		} else {
			out = append(out, p)
			closers = append(closers, p.Close)
		}
	}
	return out, func() {
		for _, c := range closers {
			c()
		}
	}
}

func newPlacesCache(ctx context.Context, cfg config.Config, log zerolog.Logger) maps.Cache {
	if cfg.Redis.Addr != "" {
		rdb, err := infra.NewRedis(ctx, cfg.Redis.Addr)
		if err == nil {
			return maps.NewRedisCache(rdb, "tripbuddy:places:")
		}
		log.Warn().Err(err).Msg("redis unavailable; using in-process places cache")
	}
	return maps.NewMemoryCache(10 * time.Minute)
}
