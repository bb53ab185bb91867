package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrNotConfigured is returned by runtimes constructed without credentials.
var ErrNotConfigured = errors.New("generative backend is not configured")

// ErrorKind groups backend failures by what a caller can do about them.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindAuth
	KindRateLimit
	KindModelNotFound
	KindBadRequest
	KindQuota
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	case KindModelNotFound:
		return "model_not_found"
	case KindBadRequest:
		return "bad_request"
	case KindQuota:
		return "quota"
	case KindServer:
		return "server"
	}
	return "other"
}

// ProviderError is a non-success answer from a model backend.
type ProviderError struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int
	Code       string
	Message    string
	RequestID  string
	RetryAfter time.Duration
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s error", e.Provider, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " status=%d", e.StatusCode)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " code=%s", e.Code)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " request_id=%s", e.RequestID)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.RetryAfter > 0 {
		fmt.Fprintf(&b, " (retry after %ds)", int(e.RetryAfter.Seconds()))
	}
	return b.String()
}

// Retryable reports whether another attempt may succeed.
func (e *ProviderError) Retryable() bool {
	return e.Kind == KindRateLimit || e.Kind == KindServer
}

// IsKind reports whether err is a ProviderError of kind k.
func IsKind(err error, k ErrorKind) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == k
}

// kindFor classifies a status code, refined by the provider's code and message.
func kindFor(status int, code, msg string) ErrorKind {
	lmsg := strings.ToLower(msg)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status == http.StatusNotFound:
		if code == "model_not_found" || strings.Contains(lmsg, "model") {
			return KindModelNotFound
		}
		return KindOther
	case status == http.StatusBadRequest:
		return KindBadRequest
	case code == "quota_exceeded" || strings.Contains(lmsg, "quota") || strings.Contains(lmsg, "billing"):
		return KindQuota
	case status >= 500:
		return KindServer
	}
	return KindOther
}

// parseRetryAfter interprets a Retry-After header as seconds or an HTTP date.
func parseRetryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	if s, err := strconv.Atoi(v); err == nil {
		return time.Duration(s) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return d.Truncate(time.Second), true
	}
	return 0, false
}

// UnreachableError indicates the target runtime is not reachable (e.g., local Ollama down).
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e.Host != "" {
		return fmt.Sprintf("endpoint unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }
