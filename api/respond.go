package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/MrEthical07/goSeal/middleware"
	"github.com/MrEthical07/goSeal/store"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	middleware.WriteJSON(w, status, v)
}

func respondError(w http.ResponseWriter, status int, kind, message string) {
	middleware.WriteJSON(w, status, middleware.ErrorResponse{
		Error:   kind,
		Message: message,
	})
}

// respondEngineError writes engine and store errors. Store errors are mapped
// here because the engine does not know about posts.
func (h *handlers) respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "resource not found")
		return
	case errors.Is(err, store.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden", err.Error())
		return
	}

	if middleware.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	middleware.WriteError(w, r, err)
}

// ValidationError carries per-field messages from the validator.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "request validation failed"
}

func (h *handlers) validateStruct(v any) error {
	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return newValidationError(verrs)
		}
		return err
	}
	return nil
}

func newValidationError(errs validator.ValidationErrors) *ValidationError {
	fields := make(map[string]string, len(errs))
	for _, err := range errs {
		field := err.Field()
		switch err.Tag() {
		case "required":
			fields[field] = fmt.Sprintf("%s is required", field)
		case "email":
			fields[field] = fmt.Sprintf("%s must be a valid email", field)
		case "min":
			fields[field] = fmt.Sprintf("%s must be at least %s characters", field, err.Param())
		case "max":
			fields[field] = fmt.Sprintf("%s must be at most %s characters", field, err.Param())
		case "alphanum":
			fields[field] = fmt.Sprintf("%s must contain only letters and digits", field)
		default:
			fields[field] = fmt.Sprintf("%s validation failed on '%s' tag", field, err.Tag())
		}
	}
	return &ValidationError{Fields: fields}
}

func respondValidation(w http.ResponseWriter, err *ValidationError) {
	details := make(map[string]any, len(err.Fields))
	for k, v := range err.Fields {
		details[k] = v
	}
	middleware.WriteJSON(w, http.StatusBadRequest, middleware.ErrorResponse{
		Error:   "invalid_request",
		Message: err.Error(),
		Details: details,
	})
}

// decodeBody reads a bounded JSON body into dst and validates it. It writes
// the error response itself and reports whether the handler may continue.
func (h *handlers) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			respondError(w, http.StatusRequestEntityTooLarge, "body_too_large", err.Error())
		case errors.Is(err, io.EOF):
			respondError(w, http.StatusBadRequest, "invalid_json", "request body is empty")
		default:
			respondError(w, http.StatusBadRequest, "invalid_json", err.Error())
		}
		return false
	}

	if err := h.validateStruct(dst); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			respondValidation(w, verr)
			return false
		}
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return false
	}
	return true
}
