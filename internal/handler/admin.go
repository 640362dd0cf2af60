package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/service"
)

// AdminHandler serves the /admin routes. Callers reaching it act with the
// administrator capability.
type AdminHandler struct {
	events    *service.EventService
	directory *service.DirectoryService
	errs      errorWriter
}

// CreateUser handles POST /admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req model.NewUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	user, err := h.directory.CreateUser(r.Context(), req)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// CreateCategory handles POST /admin/categories
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req model.NewCategoryDto
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	category, err := h.directory.CreateCategory(r.Context(), req)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

// SearchEvents handles GET /admin/events
// Filters: users, states, categories, rangeStart, rangeEnd, from, size.
func (h *AdminHandler) SearchEvents(w http.ResponseWriter, r *http.Request) {
	q, err := adminSearch(r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	events, err := h.events.SearchAdminEvents(r.Context(), q)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func adminSearch(r *http.Request) (service.AdminSearch, error) {
	var (
		q   service.AdminSearch
		err error
	)
	if q.Users, err = queryIDs(r, "users"); err != nil {
		return q, err
	}
	if q.Categories, err = queryIDs(r, "categories"); err != nil {
		return q, err
	}
	for _, s := range queryList(r, "states") {
		q.States = append(q.States, model.EventState(s))
	}
	if q.RangeStart, err = queryTime(r, "rangeStart"); err != nil {
		return q, err
	}
	if q.RangeEnd, err = queryTime(r, "rangeEnd"); err != nil {
		return q, err
	}
	q.Page, err = page(r)
	return q, err
}

// UpdateEvent handles PATCH /admin/events/{eventId}
// Applies field edits and an optional PUBLISH_EVENT or REJECT_EVENT decision.
func (h *AdminHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	var req model.UpdateEventAdminRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	event, err := h.events.UpdateByAdmin(r.Context(), eventID, req)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}
