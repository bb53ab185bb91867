package api

import (
	"net/http"

	"github.com/go-chi/render"
)

// Envelope is the response shape of every JSON endpoint except the
// relayed processing result.
type Envelope struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message,omitempty"`
	Data     any          `json:"data,omitempty"`
	Metadata any          `json:"metadata,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
	Error    string       `json:"error,omitempty"`
	// Status is only set on timeouts, where the upstream outcome is "unknown".
	Status string `json:"status,omitempty"`
}

// FieldError is one validation violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorBody is the normalized shape for relayed upstream failures.
type errorBody struct {
	Error string `json:"error"`
}

func ok(w http.ResponseWriter, r *http.Request, message string, data, metadata any) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, Envelope{Success: true, Message: message, Data: data, Metadata: metadata})
}

func validationFailed(w http.ResponseWriter, r *http.Request, errs ...FieldError) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, Envelope{Success: false, Message: "Validation failed", Errors: errs})
}

func notFound(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, Envelope{Success: false, Message: message})
}

func unavailable(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusServiceUnavailable)
	render.JSON(w, r, Envelope{Success: false, Message: message})
}

func timedOut(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, http.StatusGatewayTimeout)
	render.JSON(w, r, Envelope{Success: false, Error: err.Error(), Status: "unknown"})
}

func upstreamError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if status < 400 {
		status = http.StatusInternalServerError
	}
	render.Status(r, status)
	render.JSON(w, r, errorBody{Error: message})
}
