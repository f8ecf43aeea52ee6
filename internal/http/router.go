// README: HTTP router registration.
package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tripbuddy/internal/http/handlers"
	"tripbuddy/internal/http/middleware"
	"tripbuddy/internal/infra"
	"tripbuddy/internal/metrics"
	"tripbuddy/internal/modules/trip"
)

type RouterDeps struct {
	Planner      handlers.Planner
	Configured   bool
	Quota        handlers.Quota
	Trips        *trip.Service
	Places       handlers.Places
	Enricher     handlers.Enricher
	Verifier     infra.TokenVerifier
	AllowOrigins []string
	Log          zerolog.Logger
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(d.Log), middleware.Logging(d.Log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Cache-Control"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api", middleware.Auth(d.Verifier))

	aiHandler := handlers.NewAIHandler(d.Planner, d.Configured, d.Quota, d.Log)
	api.POST("/aimodel", aiHandler.Plan)
	api.GET("/usage", aiHandler.Usage)

	placesHandler := handlers.NewPlacesHandler(d.Places)
	api.GET("/google/places/search", placesHandler.Search)
	api.GET("/google/places/details", placesHandler.Details)
	api.GET("/google/places/photo", placesHandler.Photo)

	tripHandler := handlers.NewTripHandler(d.Trips, d.Enricher, d.Log)
	api.GET("/trips", tripHandler.List)
	api.POST("/trips", tripHandler.Create)
	api.GET("/trips/:id", tripHandler.Get)
	api.PUT("/trips/:id", tripHandler.Update)
	api.DELETE("/trips/:id", tripHandler.Delete)

	return r
}
