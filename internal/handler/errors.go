package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/apperror"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
)

// ApiError is the body of every error response.
type ApiError struct {
	Status     string `json:"status"`
	Reason     string `json:"reason"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	IncidentID string `json:"incidentId,omitempty"`
}

type errorClass struct {
	code   int
	reason string
}

var errorClasses = map[error]errorClass{
	apperror.ErrValidation: {http.StatusBadRequest, "Incorrectly made request."},
	apperror.ErrNotFound:   {http.StatusNotFound, "The required object was not found."},
	apperror.ErrForbidden:  {http.StatusForbidden, "Access to the requested object is denied."},
	apperror.ErrConflict:   {http.StatusConflict, "For the requested operation the conditions are not met."},
}

var statusNames = map[int]string{
	http.StatusBadRequest:          "BAD_REQUEST",
	http.StatusNotFound:            "NOT_FOUND",
	http.StatusForbidden:           "FORBIDDEN",
	http.StatusConflict:            "CONFLICT",
	http.StatusInternalServerError: "INTERNAL_SERVER_ERROR",
}

// errorWriter renders errors and logs them with the request id.
type errorWriter struct {
	log zerolog.Logger
	now func() time.Time
}

func (ew errorWriter) write(w http.ResponseWriter, r *http.Request, err error) {
	body := ApiError{Timestamp: model.FormatTime(ew.now())}
	reqID := middleware.GetReqID(r.Context())

	if class, ok := errorClasses[apperror.KindOf(err)]; ok {
		body.Status = statusNames[class.code]
		body.Reason = class.reason
		body.Message = message(err)
		ew.log.Debug().Err(err).Str("request_id", reqID).Int("status", class.code).Msg("request failed")
		writeJSON(w, class.code, body)
		return
	}

	body.Status = statusNames[http.StatusInternalServerError]
	body.Reason = "Unhandled exception."
	body.Message = "internal server error"
	body.IncidentID = uuid.NewString()
	ew.log.Error().
		Err(err).
		Str("request_id", reqID).
		Str("incident_id", body.IncidentID).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("unhandled error")
	writeJSON(w, http.StatusInternalServerError, body)
}

func message(err error) string {
	var ae *apperror.Error
	if errors.As(err, &ae) {
		return ae.Error()
	}
	return err.Error()
}
