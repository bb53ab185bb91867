package forwarder

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Result is what the processing service answered. It is one of Success,
// ErrorResponse or Malformed.
type Result interface {
	result()
	// HTTPStatus is the status the caller should see.
	HTTPStatus() int
}

// Success carries the reshaped JSON body of a 2xx response without an error field.
type Success struct {
	Status int
	Data   map[string]any
}

// ErrorResponse is a non-2xx answer or a body carrying an "error" field.
type ErrorResponse struct {
	Status  int
	Message string
}

// Malformed is a 2xx answer whose body is not a JSON object.
type Malformed struct {
	Status int
	Err    error
}

func (Success) result()       {}
func (ErrorResponse) result() {}
func (Malformed) result()     {}

func (s Success) HTTPStatus() int { return s.Status }

func (e ErrorResponse) HTTPStatus() int {
	if e.Status < 400 {
		return http.StatusInternalServerError
	}
	return e.Status
}

func (Malformed) HTTPStatus() int { return http.StatusBadGateway }

func (e ErrorResponse) Error() string {
	return fmt.Sprintf("processing service returned %d: %s", e.Status, e.Message)
}

// ErrTimeout is matched by errors.Is for every TimeoutError.
var ErrTimeout = errors.New("upstream timed out")

// ErrUnavailable wraps transport failures other than timeouts.
var ErrUnavailable = errors.New("processing service unavailable")

// ErrInvalidFilename rejects download names that are not a single path segment.
var ErrInvalidFilename = errors.New("invalid download filename")

// TimeoutError reports that the upstream did not answer within After. The
// outcome of the upstream job is unknown.
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: no response from processing service within %s", e.Op, e.After)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }
