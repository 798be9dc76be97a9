package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	goSeal "github.com/MrEthical07/goSeal"
)

// ErrorResponse is the JSON body of every error answer.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorWriter writes an error answer for err.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// StatusFor maps an Engine error onto an HTTP status.
func StatusFor(err error) int {
	switch goSeal.Classify(err) {
	case goSeal.ClassUnauthenticated:
		return http.StatusUnauthorized
	case goSeal.ClassIntegrity, goSeal.ClassInvalid:
		return http.StatusBadRequest
	case goSeal.ClassRateLimited:
		return http.StatusTooManyRequests
	case goSeal.ClassConflict:
		return http.StatusConflict
	case goSeal.ClassNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorResponse builds the body for err. Payload mismatches carry both
// canonical payloads under "submitted" and "signed"; internal errors never
// expose their message.
func NewErrorResponse(err error) ErrorResponse {
	resp := ErrorResponse{
		Error:   goSeal.ErrorKind(err),
		Message: err.Error(),
	}
	if goSeal.Classify(err) == goSeal.ClassInternal {
		resp.Message = "internal server error"
	}

	var mismatch *goSeal.PayloadMismatchError
	if errors.As(err, &mismatch) {
		resp.Message = goSeal.ErrPayloadMismatch.Error()
		resp.Details = map[string]any{
			"submitted": json.RawMessage(mismatch.Submitted),
			"signed":    json.RawMessage(mismatch.Signed),
		}
	}
	return resp
}

// WriteError is the default ErrorWriter.
func WriteError(w http.ResponseWriter, _ *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="goseal"`)
	}
	WriteJSON(w, status, NewErrorResponse(err))
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
