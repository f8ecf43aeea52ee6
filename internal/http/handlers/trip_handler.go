// README: Trip record handlers (list/create/get/update/delete), owner-scoped.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tripbuddy/internal/http/middleware"
	"tripbuddy/internal/itinerary"
	"tripbuddy/internal/modules/trip"
)

// Enricher attaches place photos to a stored itinerary.
type Enricher interface {
	Enrich(ctx context.Context, t *itinerary.TripItinerary) (int, error)
}

type TripHandler struct {
	trips    *trip.Service
	enricher Enricher
	log      zerolog.Logger
}

// NewTripHandler builds the handler. enricher may be nil, which makes ?enrich=1 a no-op.
func NewTripHandler(svc *trip.Service, enricher Enricher, log zerolog.Logger) *TripHandler {
	return &TripHandler{trips: svc, enricher: enricher, log: log}
}

type createTripReq struct {
	TripID     string          `json:"tripId"`
	TripDetail json.RawMessage `json:"tripDetail"`
}

type updateTripReq struct {
	TripDetail json.RawMessage `json:"tripDetail"`
}

func (h *TripHandler) List(c *gin.Context) {
	recs, err := h.trips.List(c.Request.Context(), middleware.CallerUID(c))
	if err != nil {
		writeTripError(c, err)
		return
	}
	if recs == nil {
		recs = []trip.Record{}
	}
	writeJSON(c, http.StatusOK, recs)
}

func (h *TripHandler) Create(c *gin.Context) {
	var req createTripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	detail, err := trip.NormalizeDetail(req.TripDetail)
	if err != nil || !isObject(detail) {
		writeError(c, http.StatusBadRequest, "missing or invalid tripDetail")
		return
	}
	id, err := h.trips.Create(c.Request.Context(), trip.CreateCommand{
		TripID: req.TripID,
		UID:    middleware.CallerUID(c),
		Detail: detail,
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"id": id})
}

// Get returns one record. ?enrich=1 attaches place photos to the first days.
func (h *TripHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rec, err := h.trips.Get(c.Request.Context(), id, middleware.CallerUID(c))
	if err != nil {
		writeTripError(c, err)
		return
	}
	if c.Query("enrich") == "1" && h.enricher != nil {
		h.enrich(c.Request.Context(), rec)
	}
	writeJSON(c, http.StatusOK, rec)
}

func (h *TripHandler) enrich(ctx context.Context, rec *trip.Record) {
	var t itinerary.TripItinerary
	if err := json.Unmarshal(rec.Detail, &t); err != nil {
		h.log.Warn().Err(err).Str("id", rec.ID.String()).Msg("enrich: detail is not an itinerary")
		return
	}
	n, err := h.enricher.Enrich(ctx, &t)
	if err != nil || n == 0 {
		return
	}
	b, err := json.Marshal(&t)
	if err != nil {
		return
	}
	rec.Detail = b
}

func (h *TripHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateTripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	detail, err := trip.NormalizeDetail(req.TripDetail)
	if err != nil || !isObject(detail) {
		writeError(c, http.StatusBadRequest, "missing or invalid tripDetail")
		return
	}
	updated, err := h.trips.UpdateDetail(c.Request.Context(), id, middleware.CallerUID(c), detail)
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"id": updated})
}

func (h *TripHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	deleted, err := h.trips.Delete(c.Request.Context(), id, middleware.CallerUID(c))
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"id": deleted})
}
