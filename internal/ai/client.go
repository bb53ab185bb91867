package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// Client talks to OpenRouter's OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey  string
	baseURL string
	tr      transport
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GenerateRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Choice struct {
	Message Message `json:"message"`
}

type GenerateResponse struct {
	ID        string   `json:"id"`
	Choices   []Choice `json:"choices"`
	Usage     Usage    `json:"usage"`
	RequestID string   `json:"-"`
}

// Text returns the first choice's content, or "" when the response is empty.
func (r *GenerateResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// NewOpenRouterClient returns a client with a 60s timeout and three attempts.
func NewOpenRouterClient(apiKey string) *Client {
	return NewClient(apiKey, 0, 0, 0, 0)
}

// NewClient builds an OpenRouter client; zero values select the defaults
// (60s timeout, 3 attempts, 500ms base delay, 4s delay cap).
func NewClient(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	return NewClientWithBaseURL(apiKey, httpTimeout, retryMax, baseDelay, maxDelay, "")
}

// NewClientWithBaseURL is NewClient against another OpenAI-compatible host.
func NewClientWithBaseURL(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration, baseURL string) *Client {
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		tr: transport{
			client:   &http.Client{Timeout: orDefault(httpTimeout, 60*time.Second)},
			provider: ProviderOpenRouter,
			attempts: retryMax,
			base:     orDefault(baseDelay, 500*time.Millisecond),
			max:      orDefault(maxDelay, 4*time.Second),
			header: http.Header{
				"Authorization": {"Bearer " + apiKey},
				"X-Title":       {"AI Studio"},
			},
		},
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return c.tr.post(ctx, c.baseURL+"/chat/completions", payload, func(resp *http.Response) (*GenerateResponse, error) {
		var out GenerateResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		out.RequestID = extractRequestID(resp)
		return &out, nil
	})
}
