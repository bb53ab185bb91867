package ai

import (
	"math"
	"testing"
)

func TestDefaultModel(t *testing.T) {
	cases := map[string]string{
		"openrouter": "openai/gpt-4o-mini",
		"OpenAI":     "gpt-4o-mini",
		"claude":     "claude-3-5-haiku-latest",
		"local":      "llama3.1:8b-instruct-q4_K_M",
	}
	for provider, want := range cases {
		got, ok := DefaultModel(provider)
		if !ok || got != want {
			t.Fatalf("DefaultModel(%q) = %q, %v; want %q", provider, got, ok, want)
		}
		if _, known := LookupModel(got); !known {
			t.Fatalf("default model %q for %q has no pricing entry", got, provider)
		}
	}
	if _, ok := DefaultModel("mystery"); ok {
		t.Fatalf("expected unknown provider to have no default")
	}
}

func TestEstimateCostUSD(t *testing.T) {
	cost, ok := EstimateCostUSD("openai/gpt-4o", Usage{PromptTokens: 2000, CompletionTokens: 1000})
	if !ok {
		t.Fatalf("expected known model")
	}
	if math.Abs(cost-0.015) > 1e-9 {
		t.Fatalf("cost = %v, want 0.015", cost)
	}
	if _, ok := EstimateCostUSD("nope", Usage{PromptTokens: 1}); ok {
		t.Fatalf("expected unknown model to report ok=false")
	}
}
