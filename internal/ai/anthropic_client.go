package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

// AnthropicClient adapts the Anthropic Messages API to the Runtime interface.
type AnthropicClient struct {
	client *anthropic.Client
	apiKey string
}

func NewAnthropicClient(apiKey, baseURL string) *AnthropicClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &AnthropicClient{client: anthropic.NewClient(apiKey, opts...), apiKey: apiKey}
}

// Generate folds system messages into the request's System field; the
// remaining messages are sent in order.
func (c *AnthropicClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	var system []string
	var msgs []anthropic.Message
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "assistant":
			msgs = append(msgs, anthropic.NewAssistantTextMessage(m.Content))
		default:
			msgs = append(msgs, anthropic.NewUserTextMessage(m.Content))
		}
	}
	if len(msgs) == 0 {
		return nil, errors.New("messages cannot be empty")
	}
	areq := anthropic.MessagesRequest{
		Model:     anthropic.Model(req.Model),
		System:    strings.Join(system, "\n\n"),
		Messages:  msgs,
		MaxTokens: maxTokens,
	}
	if req.Temperature > 0 {
		t := float32(req.Temperature)
		areq.Temperature = &t
	}
	resp, err := c.client.CreateMessages(ctx, areq)
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			perr := &ProviderError{Provider: ProviderAnthropic, Code: string(apiErr.Type), Message: apiErr.Message, Kind: KindServer}
			switch {
			case apiErr.IsRateLimitErr():
				perr.Kind = KindRateLimit
			case apiErr.IsAuthenticationErr() || apiErr.IsPermissionErr():
				perr.Kind = KindAuth
			case apiErr.IsNotFoundErr():
				perr.Kind = KindModelNotFound
			}
			return nil, perr
		}
		return nil, fmt.Errorf("anthropic request: %w", err)
	}
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			text.WriteString(*block.Text)
		}
	}
	return &GenerateResponse{
		ID:      resp.ID,
		Choices: []Choice{{Message: Message{Role: "assistant", Content: text.String()}}},
		Usage: Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}
