package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/apperror"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/service"
)

// UserHandler serves the /users/{userId} routes. The path user is the caller.
type UserHandler struct {
	events   *service.EventService
	requests *service.RequestService
	errs     errorWriter
}

// CreateEvent handles POST /users/{userId}/events
func (h *UserHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	var req model.NewEventDto
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	event, err := h.events.CreateEvent(r.Context(), userID, req)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /users/{userId}/events
func (h *UserHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	p, err := page(r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	events, err := h.events.ListOwnerEvents(r.Context(), userID, p)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /users/{userId}/events/{eventId}
func (h *UserHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	userID, eventID, err := userAndEvent(r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	event, err := h.events.GetOwnerEvent(r.Context(), userID, eventID)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// UpdateEvent handles PATCH /users/{userId}/events/{eventId}
// Applies field edits and an optional CANCEL_REVIEW.
func (h *UserHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	userID, eventID, err := userAndEvent(r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	var req model.UpdateEventUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	event, err := h.events.UpdateByOwner(r.Context(), userID, eventID, req)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// ListEventRequests handles GET /users/{userId}/events/{eventId}/requests
func (h *UserHandler) ListEventRequests(w http.ResponseWriter, r *http.Request) {
	userID, eventID, err := userAndEvent(r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	reqs, err := h.requests.ListRequestsForEvent(r.Context(), userID, eventID)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// UpdateEventRequests handles PATCH /users/{userId}/events/{eventId}/requests
// Confirms or rejects a batch of pending requests.
func (h *UserHandler) UpdateEventRequests(w http.ResponseWriter, r *http.Request) {
	userID, eventID, err := userAndEvent(r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	var req model.EventRequestStatusUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	result, err := h.requests.BulkUpdateStatus(r.Context(), userID, eventID, req)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListRequests handles GET /users/{userId}/requests
func (h *UserHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	eventID, err := queryOptionalID(r, "eventId")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	reqs, err := h.requests.ListRequestsForRequester(r.Context(), userID, eventID)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// CreateRequest handles POST /users/{userId}/requests?eventId=
func (h *UserHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	eventID, err := queryOptionalID(r, "eventId")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	if eventID == nil {
		h.errs.write(w, r, apperror.Validation("eventId is required"))
		return
	}
	req, err := h.requests.CreateRequest(r.Context(), userID, *eventID)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// CancelRequest handles PATCH /users/{userId}/requests/{requestId}/cancel
func (h *UserHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	requestID, err := pathID(r, "requestId")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	req, err := h.requests.CancelOwnRequest(r.Context(), userID, requestID)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func userAndEvent(r *http.Request) (userID, eventID int64, err error) {
	if userID, err = pathID(r, "userId"); err != nil {
		return 0, 0, err
	}
	if eventID, err = pathID(r, "eventId"); err != nil {
		return 0, 0, err
	}
	return userID, eventID, nil
}
