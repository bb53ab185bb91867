package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// transport posts JSON to a model backend with bounded retries. Transport
// timeouts and retryable ProviderErrors are retried with doubling backoff.
type transport struct {
	client   *http.Client
	provider string
	attempts int
	base     time.Duration
	max      time.Duration // zero leaves the backoff uncapped
	header   http.Header
}

func (t transport) post(ctx context.Context, url string, payload []byte, decode func(*http.Response) (*GenerateResponse, error)) (*GenerateResponse, error) {
	backoff := t.base
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		for k, vs := range t.header {
			req.Header[k] = vs
		}
		req.Header.Set("Content-Type", "application/json")

		last := attempt >= t.attempts
		resp, err := t.client.Do(req)
		if err != nil {
			if last || !isRetryableNetErr(err) {
				return nil, &UnreachableError{Host: req.URL.Host, Err: err}
			}
			sleepCtx(ctx, t.capped(withJitter(backoff)))
			backoff *= 2
			continue
		}

		out, err := t.read(resp, decode)
		if err == nil {
			return out, nil
		}
		var perr *ProviderError
		if last || !errors.As(err, &perr) || !perr.Retryable() {
			return nil, err
		}
		wait := perr.RetryAfter
		if wait <= 0 {
			wait = t.capped(withJitter(backoff))
		}
		sleepCtx(ctx, wait)
		backoff *= 2
	}
}

func (t transport) read(resp *http.Response, decode func(*http.Response) (*GenerateResponse, error)) (*GenerateResponse, error) {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeProviderError(t.provider, resp)
	}
	return decode(resp)
}

func (t transport) capped(d time.Duration) time.Duration {
	if t.max > 0 && d > t.max {
		return t.max
	}
	return d
}

// decodeProviderError reads a bounded error body in either the nested
// {"error":{"message","code"}} or the flat {"error"|"message","code"} shape.
func decodeProviderError(provider string, resp *http.Response) *ProviderError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)
	perr := &ProviderError{Provider: provider, StatusCode: resp.StatusCode, RequestID: extractRequestID(resp)}
	src := raw
	if nested, ok := raw["error"].(map[string]any); ok {
		src = nested
	} else if msg, ok := raw["error"].(string); ok {
		perr.Message = msg
	}
	if msg, ok := src["message"].(string); ok && perr.Message == "" {
		perr.Message = msg
	}
	if code, ok := src["code"].(string); ok {
		perr.Code = code
	}
	perr.Kind = kindFor(resp.StatusCode, perr.Code, perr.Message)
	// Ollama only answers 404 for unknown models.
	if provider == ProviderOllama && resp.StatusCode == http.StatusNotFound {
		perr.Kind = KindModelNotFound
	}
	if d, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
		perr.RetryAfter = d
	}
	return perr
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF)
}

// extractRequestID pulls a best-effort request ID from common headers.
func extractRequestID(resp *http.Response) string {
	for _, k := range []string{"X-Request-Id", "OpenAI-Request-ID", "Openrouter-Request-ID", "X-Amzn-Requestid"} {
		if v := resp.Header.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// withJitter returns d scaled by a random factor in [0.8, 1.2).
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	if out := time.Duration(float64(d) * (0.8 + rand.Float64()*0.4)); out > 0 {
		return out
	}
	return d
}
