// README: Google Places proxy handlers (search, details, photo).
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tripbuddy/internal/maps"
)

// Places is the proxy backend. A nil Places answers every call with a configuration error.
type Places interface {
	Search(ctx context.Context, query string) (*maps.SearchResponse, error)
	Details(ctx context.Context, placeID string) (json.RawMessage, error)
	Photo(ctx context.Context, reference string, maxWidth int) (*maps.Photo, error)
}

type PlacesHandler struct {
	places Places
}

func NewPlacesHandler(places Places) *PlacesHandler {
	return &PlacesHandler{places: places}
}

func (h *PlacesHandler) ready(c *gin.Context) bool {
	if h.places == nil {
		writePlacesError(c, maps.ErrNotConfigured)
		return false
	}
	return true
}

// Search handles GET /api/google/places/search?query=.
func (h *PlacesHandler) Search(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	resp, err := h.places.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		writePlacesError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600, s-maxage=3600")
	writeJSON(c, http.StatusOK, resp)
}

// Details handles GET /api/google/places/details?place_id=.
func (h *PlacesHandler) Details(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	raw, err := h.places.Details(c.Request.Context(), c.Query("place_id"))
	if err != nil {
		writePlacesError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=7200, s-maxage=7200")
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// Photo handles GET /api/google/places/photo?photo_reference=&maxwidth=.
func (h *PlacesHandler) Photo(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	width := maps.DefaultPhotoWidth
	if v := c.Query("maxwidth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(c, http.StatusBadRequest, "invalid maxwidth")
			return
		}
		width = n
	}
	photo, err := h.places.Photo(c.Request.Context(), c.Query("photo_reference"), width)
	if err != nil {
		writePlacesError(c, err)
		return
	}
	defer photo.Body.Close()
	c.DataFromReader(http.StatusOK, -1, photo.ContentType, photo.Body, map[string]string{
		"Cache-Control": "public, max-age=86400",
	})
}
