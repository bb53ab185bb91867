package ai

// Model pricing used to log an estimated cost per recommendation call.
// Prices are approximate USD per 1K tokens.

type ModelInfo struct {
	Name          string
	ContextTokens int
	InputPerK     float64
	OutputPerK    float64
}

var models = map[string]ModelInfo{
	"openai/gpt-4o-mini":               {Name: "openai/gpt-4o-mini", ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006},
	"gpt-4o-mini":                      {Name: "gpt-4o-mini", ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006},
	"openai/gpt-4o":                    {Name: "openai/gpt-4o", ContextTokens: 128000, InputPerK: 0.0025, OutputPerK: 0.01},
	"anthropic/claude-3-haiku":         {Name: "anthropic/claude-3-haiku", ContextTokens: 200000, InputPerK: 0.00025, OutputPerK: 0.00125},
	"claude-3-5-haiku-latest":          {Name: "claude-3-5-haiku-latest", ContextTokens: 200000, InputPerK: 0.0008, OutputPerK: 0.004},
	"deepseek/deepseek-r1:free":        {Name: "deepseek/deepseek-r1:free", ContextTokens: 128000},
	"llama3.1:8b-instruct-q4_K_M":      {Name: "llama3.1:8b-instruct-q4_K_M", ContextTokens: 128000},
	"meta-llama/llama-3.1-8b-instruct": {Name: "meta-llama/llama-3.1-8b-instruct", ContextTokens: 128000, InputPerK: 0.00005, OutputPerK: 0.00005},
}

// defaultModels is the model used per provider when none is configured.
// Task inference needs a short JSON answer, so the cheap tier is enough.
var defaultModels = map[string]string{
	ProviderOpenRouter: "openai/gpt-4o-mini",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderAnthropic:  "claude-3-5-haiku-latest",
	ProviderOllama:     "llama3.1:8b-instruct-q4_K_M",
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// DefaultModel returns the model for provider when the config names none.
func DefaultModel(provider string) (string, bool) {
	m, ok := defaultModels[NormalizeProvider(provider)]
	return m, ok
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, u Usage) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	inCost := (float64(u.PromptTokens) / 1000.0) * mi.InputPerK
	outCost := (float64(u.CompletionTokens) / 1000.0) * mi.OutputPerK
	return inCost + outCost, true
}
