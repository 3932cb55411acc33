package httpapi

import (
	"encoding/json"
	"net/http"

	"gend/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeDetail writes a single-detail failure payload.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.DetailResponse{Detail: detail})
}

// writeValidationError writes the 422 payload listing invalid fields.
func writeValidationError(w http.ResponseWriter, errs []types.FieldError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(types.ValidationErrorResponse{Detail: errs})
}

// writeServerError writes the process-wide fallback payload. The body
// is always generic; internal detail stays in the server log.
func writeServerError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(types.ServerErrorResponse{
		Error:     "Internal server error",
		Message:   "An unexpected error occurred",
		Timestamp: nowStamp(),
	})
}
