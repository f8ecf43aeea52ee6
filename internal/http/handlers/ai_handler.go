// README: Trip-planning model handler (POST /api/aimodel) with optional monthly quota.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tripbuddy/internal/ai"
	"tripbuddy/internal/http/middleware"
	"tripbuddy/internal/itinerary"
	"tripbuddy/internal/modules/aiusage"
	"tripbuddy/internal/service"
)

const missingCredentialsMsg = "Missing OPENROUTER_API_KEY or model credentials"

// Planner is the orchestration entry point.
type Planner interface {
	Plan(ctx context.Context, messages []ai.Message) (*service.Result, error)
}

// Quota meters finished itineraries per caller.
type Quota interface {
	Remaining(ctx context.Context, uid string) (int, error)
	Consume(ctx context.Context, uid string) error
}

type AIHandler struct {
	planner    Planner
	configured bool
	quota      Quota
	log        zerolog.Logger
}

// NewAIHandler builds the handler. configured=false answers every call with a credentials error.
// quota may be nil.
func NewAIHandler(planner Planner, configured bool, quota Quota, log zerolog.Logger) *AIHandler {
	return &AIHandler{planner: planner, configured: configured, quota: quota, log: log}
}

type aiModelReq struct {
	Messages []ai.Message `json:"messages"`
}

// Plan handles POST /api/aimodel.
func (h *AIHandler) Plan(c *gin.Context) {
	var req aiModelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request: messages required")
		return
	}
	msgs := make([]ai.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Valid() {
			msgs = append(msgs, m)
		}
	}
	if len(msgs) == 0 {
		writeError(c, http.StatusBadRequest, "Invalid request: messages required")
		return
	}
	if !h.configured {
		writeError(c, http.StatusInternalServerError, missingCredentialsMsg)
		return
	}

	uid := middleware.CallerUID(c)
	if h.quota != nil {
		left, err := h.quota.Remaining(c.Request.Context(), uid)
		if err != nil {
			h.log.Error().Err(err).Str("uid", uid).Msg("quota lookup failed")
			writeError(c, http.StatusInternalServerError, "internal error")
			return
		}
		if left <= 0 {
			writeError(c, http.StatusTooManyRequests, aiusage.ErrQuotaExhausted.Error())
			return
		}
	}

	res, err := h.planner.Plan(c.Request.Context(), msgs)
	if err != nil {
		var fe *service.FallbackError
		switch {
		case errors.As(err, &fe):
			writeJSON(c, http.StatusBadGateway, fe)
		case errors.Is(err, service.ErrInvalidRequest):
			writeError(c, http.StatusBadRequest, "Invalid request: messages required")
		case errors.Is(err, service.ErrNotConfigured), errors.Is(err, ai.ErrMissingCredentials):
			writeError(c, http.StatusInternalServerError, missingCredentialsMsg)
		default:
			h.log.Error().Err(err).Msg("plan failed")
			writeError(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if res.Payload.Kind() == itinerary.KindFinal && h.quota != nil {
		if err := h.quota.Consume(c.Request.Context(), uid); err != nil {
			h.log.Warn().Err(err).Str("uid", uid).Msg("quota consume failed")
		}
	}
	h.log.Info().
		Str("model", res.Model).
		Str("kind", res.Payload.Kind().String()).
		Int("failed_attempts", len(res.Attempts)).
		Ints("repaired_days", res.Report.RepairedDays).
		Msg("plan accepted")
	writeJSON(c, http.StatusOK, res.Payload)
}

// Usage handles GET /api/usage.
func (h *AIHandler) Usage(c *gin.Context) {
	if h.quota == nil {
		writeJSON(c, http.StatusOK, gin.H{"limited": false})
		return
	}
	left, err := h.quota.Remaining(c.Request.Context(), middleware.CallerUID(c))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"limited": true, "remaining": left})
}
