// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tripbuddy/internal/maps"
	"tripbuddy/internal/modules/trip"
	"tripbuddy/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts record ids: letters, digits, '-' and '_' up to 64 chars.
func isValidID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func isObject(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func pathID(c *gin.Context) (types.ID, bool) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid trip id")
		return "", false
	}
	return types.ID(id), true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeTripError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, trip.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, trip.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, trip.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, trip.ErrPayloadTooLarge):
		writeError(c, http.StatusRequestEntityTooLarge, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writePlacesError(c *gin.Context, err error) {
	var notImage *maps.NotImageError
	var upstream *maps.UpstreamError
	switch {
	case errors.Is(err, maps.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, maps.ErrNotConfigured):
		writeError(c, http.StatusInternalServerError, "Missing GOOGLE_MAPS_API_KEY")
	case errors.As(err, &notImage):
		writeJSON(c, http.StatusBadGateway, gin.H{"error": "Response is not an image", "contentType": notImage.ContentType})
	case errors.As(err, &upstream):
		writeJSON(c, http.StatusBadGateway, gin.H{"error": "Google Places request failed", "status": upstream.Status, "message": upstream.Message})
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
