// Package handler contains HTTP request handlers for the booking API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cusspwk/cuss/internal/form"
	"github.com/cusspwk/cuss/internal/repository"
	"github.com/cusspwk/cuss/internal/service"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// writeJSON is a helper that writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

// decodeJSON reads the request body into dst and validates it. On failure
// it writes the response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Request body must be a JSON object.")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
			return false
		}
		details := make(map[string]string, len(verrs))
		for _, e := range verrs {
			details[e.Field()] = validationMessage(e)
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "validation_failed",
			"message": "Request validation failed.",
			"fields":  details,
		})
		return false
	}
	return true
}

// decodeValues reads a flat JSON object of form values.
func decodeValues(w http.ResponseWriter, r *http.Request) (map[string]interface{}, bool) {
	var raw map[string]interface{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil || raw == nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Request body must be a JSON object.")
		return nil, false
	}
	return raw, true
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "url":
		return "Invalid URL format"
	default:
		return "Invalid value"
	}
}

// writeServiceError maps errors shared by every handler. what names the
// resource in not-found messages.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, what string, err error) {
	var (
		missing *service.MissingKeysError
		invalid *form.ValidationError
		coerce  *form.CoerceError
	)
	switch {
	case errors.As(err, &missing):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "missing_fields",
			"message": "Submission is missing required keys.",
			"fields":  missing.Keys,
		})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "validation_failed",
			"message": fmt.Sprintf("Required fields on step %d are empty.", int(invalid.Step)),
			"step":    int(invalid.Step),
			"fields":  invalid.Fields,
		})
	case errors.As(err, &coerce):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "invalid_values",
			"message": "Some values could not be read.",
			"fields":  coerce.Fields,
		})
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", what+" not found.")
	case errors.Is(err, repository.ErrDuplicate), errors.Is(err, form.ErrDuplicateName):
		writeError(w, http.StatusConflict, "duplicate", what+" already exists.")
	case errors.Is(err, service.ErrInvalidField), errors.Is(err, service.ErrInvalidServiceConfig):
		writeError(w, http.StatusUnprocessableEntity, "invalid_form", err.Error())
	default:
		log.Error("request failed", zap.String("resource", what), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong. Please try again.")
	}
}
