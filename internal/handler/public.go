package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/service"
)

// HitRecorder reports a public page view to the stats service.
type HitRecorder interface {
	Hit(ctx context.Context, uri, ip string) error
}

// PublicHandler serves the unauthenticated /events routes.
type PublicHandler struct {
	events *service.EventService
	hits   HitRecorder
	log    zerolog.Logger
	errs   errorWriter
}

// recordHit is best effort: a stats outage never fails a public read.
func (h *PublicHandler) recordHit(r *http.Request) {
	if h.hits == nil {
		return
	}
	if err := h.hits.Hit(r.Context(), r.URL.Path, clientIP(r)); err != nil {
		h.log.Warn().Err(err).Str("uri", r.URL.Path).Msg("failed to record hit")
	}
}

// SearchEvents handles GET /events
// Filters: text, categories, paid, rangeStart, rangeEnd, onlyAvailable,
// sort (EVENT_DATE or VIEWS), from, size.
func (h *PublicHandler) SearchEvents(w http.ResponseWriter, r *http.Request) {
	q, err := publicSearch(r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	h.recordHit(r)
	events, err := h.events.SearchPublicEvents(r.Context(), q)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func publicSearch(r *http.Request) (service.PublicSearch, error) {
	var (
		q   service.PublicSearch
		err error
	)
	q.Text = r.URL.Query().Get("text")
	q.Sort = r.URL.Query().Get("sort")
	if q.Categories, err = queryIDs(r, "categories"); err != nil {
		return q, err
	}
	if q.Paid, err = queryBool(r, "paid"); err != nil {
		return q, err
	}
	if q.RangeStart, err = queryTime(r, "rangeStart"); err != nil {
		return q, err
	}
	if q.RangeEnd, err = queryTime(r, "rangeEnd"); err != nil {
		return q, err
	}
	available, err := queryBool(r, "onlyAvailable")
	if err != nil {
		return q, err
	}
	q.OnlyAvailable = available != nil && *available
	q.Page, err = page(r)
	return q, err
}

// GetEvent handles GET /events/{id}
// Returns a published event; any other state is reported as not found.
func (h *PublicHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	h.recordHit(r)
	event, err := h.events.GetPublicEvent(r.Context(), id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}
