// Package recommend infers the ML task behind a free-text topic, asking a
// generative backend when one is configured and falling back to keyword rules.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/aistudio/internal/ai"
	"github.com/KaramelBytes/aistudio/internal/utils"
	"go.uber.org/zap"
)

// TaskType is the closed set of tasks a Recommendation may name.
type TaskType string

const (
	Classification      TaskType = "classification"
	Regression          TaskType = "regression"
	ImageClassification TaskType = "image_classification"
	SentimentAnalysis   TaskType = "sentiment_analysis"
	RecommendationTask  TaskType = "recommendation"
	Forecasting         TaskType = "forecasting"
	Clustering          TaskType = "clustering"
)

// TaskTypes lists every valid TaskType.
var TaskTypes = []TaskType{
	Classification, Regression, ImageClassification, SentimentAnalysis,
	RecommendationTask, Forecasting, Clustering,
}

// ParseTaskType validates s against TaskTypes.
func ParseTaskType(s string) (TaskType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range TaskTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Size labels shared with the ranking size proxy.
const (
	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"
)

// ValidSize reports whether s is small, medium or large.
func ValidSize(s string) bool {
	return s == SizeSmall || s == SizeMedium || s == SizeLarge
}

// Where a Recommendation came from.
const (
	OriginModel = "ai"
	OriginRules = "rules"
)

type DatasetSuggestion struct {
	Name     string `json:"name"`
	Reason   string `json:"reason"`
	Priority int    `json:"priority"`
}

type Recommendation struct {
	TaskType            TaskType            `json:"taskType"`
	RequiredFeatures    []string            `json:"requiredFeatures"`
	IdealDatasetSize    string              `json:"idealDatasetSize"`
	Domain              string              `json:"domain"`
	Confidence          float64             `json:"confidence"`
	RecommendedDatasets []DatasetSuggestion `json:"recommendedDatasets"`
	Origin              string              `json:"origin"`
}

// errInvalidTask marks a model answer naming a task outside TaskTypes.
var errInvalidTask = errors.New("model returned an unknown task type")

// Synthesizer produces Recommendations. The runtime is optional.
type Synthesizer struct {
	runtime     ai.Runtime
	model       string
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithRuntime enables the model path.
func WithRuntime(rt ai.Runtime, model string) Option {
	return func(s *Synthesizer) {
		s.runtime = rt
		s.model = model
	}
}

// WithGeneration overrides token budget and temperature.
func WithGeneration(maxTokens int, temperature float64) Option {
	return func(s *Synthesizer) {
		s.maxTokens = maxTokens
		s.temperature = temperature
	}
}

func NewSynthesizer(logger *zap.Logger, opts ...Option) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Synthesizer{maxTokens: 1024, temperature: 0.2, logger: logger.Named("recommend")}
	for _, o := range opts {
		o(s)
	}
	return s
}

// HasRuntime reports whether a generative backend is wired.
func (s *Synthesizer) HasRuntime() bool { return s.runtime != nil }

// Recommend never fails. Backend errors and unparsable answers fall back to Rules.
func (s *Synthesizer) Recommend(ctx context.Context, topic, description, hint string) Recommendation {
	if s.runtime != nil {
		rec, err := s.fromModel(ctx, topic, description, hint)
		if err == nil {
			return rec
		}
		s.logger.Warn("model recommendation failed; using keyword rules",
			zap.String("topic", topic),
			zap.Error(err),
		)
	}
	return Rules(topic, description, hint)
}

// modelAnswer mirrors the JSON object the prompt asks for. Confidence is a
// pointer so a missing value can be told apart from zero.
type modelAnswer struct {
	TaskType            string              `json:"taskType"`
	RequiredFeatures    []string            `json:"requiredFeatures"`
	IdealDatasetSize    string              `json:"idealDatasetSize"`
	Domain              string              `json:"domain"`
	Confidence          *float64            `json:"confidence"`
	RecommendedDatasets []DatasetSuggestion `json:"recommendedDatasets"`
}

func (s *Synthesizer) fromModel(ctx context.Context, topic, description, hint string) (Recommendation, error) {
	msgs := buildPrompt(topic, description, hint)
	resp, err := s.runtime.Generate(ctx, ai.GenerateRequest{
		Model:       s.model,
		Messages:    msgs,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return Recommendation{}, err
	}
	usage := resp.Usage
	if usage.PromptTokens == 0 && usage.CompletionTokens == 0 {
		usage = estimateUsage(msgs, resp.Text())
	}
	fields := []zap.Field{
		zap.String("model", s.model),
		zap.Int("prompt_tokens", usage.PromptTokens),
		zap.Int("completion_tokens", usage.CompletionTokens),
	}
	if cost, ok := ai.EstimateCostUSD(s.model, usage); ok {
		fields = append(fields, zap.Float64("est_cost_usd", cost))
	}
	s.logger.Debug("model answered", fields...)
	ans, err := ai.ParseJSONResponse[modelAnswer](resp.Text())
	if err != nil {
		return Recommendation{}, err
	}
	task, ok := ParseTaskType(ans.TaskType)
	if !ok {
		return Recommendation{}, fmt.Errorf("%w: %q", errInvalidTask, ans.TaskType)
	}
	rec := Recommendation{
		TaskType:            task,
		RequiredFeatures:    nonEmpty(ans.RequiredFeatures),
		IdealDatasetSize:    strings.ToLower(ans.IdealDatasetSize),
		Domain:              strings.TrimSpace(strings.ToLower(ans.Domain)),
		Confidence:          0.8,
		RecommendedDatasets: ans.RecommendedDatasets,
		Origin:              OriginModel,
	}
	if ans.Confidence != nil {
		rec.Confidence = Clamp(*ans.Confidence)
	}
	if !ValidSize(rec.IdealDatasetSize) {
		rec.IdealDatasetSize = SizeMedium
	}
	if rec.Domain == "" {
		rec.Domain = "general"
	}
	if rec.RecommendedDatasets == nil {
		rec.RecommendedDatasets = []DatasetSuggestion{}
	}
	return rec, nil
}

// estimateUsage approximates token counts for backends that report none.
func estimateUsage(msgs []ai.Message, answer string) ai.Usage {
	var u ai.Usage
	for _, m := range msgs {
		u.PromptTokens += utils.CountTokens(m.Content)
	}
	u.CompletionTokens = utils.CountTokens(answer)
	u.TotalTokens = u.PromptTokens + u.CompletionTokens
	return u
}

// Clamp bounds a confidence to [0,1].
func Clamp(v float64) float64 {
	switch {
	case v != v || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
