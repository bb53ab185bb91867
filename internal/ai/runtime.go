package ai

import "context"

// Runtime is a minimal interface implemented by generative-text backends
// such as OpenRouter, OpenAI-compatible servers, Anthropic and Ollama.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers used for selection in config and flags.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOllama     = "ollama"
	ProviderLocal      = "local"
)

// NormalizeProvider maps user-facing aliases to a registered provider name.
func NormalizeProvider(name string) string {
	switch name {
	case "openrouter", "OpenRouter", "OPENROUTER":
		return ProviderOpenRouter
	case "openai", "OpenAI", "OPENAI":
		return ProviderOpenAI
	case "anthropic", "Anthropic", "ANTHROPIC", "claude":
		return ProviderAnthropic
	case "ollama", "Ollama", "local", "LOCAL":
		return ProviderOllama
	}
	return ""
}
