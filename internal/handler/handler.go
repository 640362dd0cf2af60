// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/apperror"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON document into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.Wrap(apperror.ErrValidation, err, "invalid request body: %s", err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return apperror.Wrap(apperror.ErrValidation, err, "%s", formatValidationError(fields[0]))
		}
		return apperror.Wrap(apperror.ErrValidation, err, "invalid request body")
	}
	return nil
}

func formatValidationError(e validator.FieldError) string {
	var msg string
	switch e.Tag() {
	case "required":
		msg = "must not be blank"
	case "min":
		msg = "must be at least " + e.Param()
	case "max":
		msg = "must be at most " + e.Param()
	case "gt":
		msg = "must be greater than " + e.Param()
	case "gte":
		msg = "must be greater than or equal to " + e.Param()
	case "lte":
		msg = "must be less than or equal to " + e.Param()
	case "email":
		msg = "must be a valid email address"
	case "oneof":
		msg = "must be one of: " + e.Param()
	default:
		msg = "failed on " + e.Tag()
	}
	return "Field: " + e.Field() + ". Error: " + msg + "."
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
