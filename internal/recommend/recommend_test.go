package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/aistudio/internal/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeRuntime struct {
	text string
	err  error
	req  ai.GenerateRequest
}

func (f *fakeRuntime) Generate(_ context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &ai.GenerateResponse{Choices: []ai.Choice{{Message: ai.Message{Role: "assistant", Content: f.text}}}}, nil
}

func TestRules(t *testing.T) {
	cases := []struct {
		topic  string
		task   TaskType
		domain string
	}{
		{"Predict passenger survival", Classification, "transportation"},
		{"Titanic", Classification, "transportation"},
		{"house value estimator", Regression, "real_estate"},
		{"Real Estate listings", Regression, "real_estate"},
		{"handwritten digit reader", ImageClassification, "computer_vision"},
		{"Computer Vision for cats", ImageClassification, "computer_vision"},
		{"tweet sentiment", SentimentAnalysis, "nlp"},
		{"movie recommender", RecommendationTask, "entertainment"},
		{"forecast demand", Forecasting, "finance"},
		{"customer segmentation", Clustering, "retail"},
		{"cancer detection", Classification, "healthcare"},
	}
	for _, tc := range cases {
		got := Rules(tc.topic, "", "")
		assert.Equal(t, tc.task, got.TaskType, tc.topic)
		assert.Equal(t, tc.domain, got.Domain, tc.topic)
		assert.Equal(t, 0.8, got.Confidence, tc.topic)
		assert.Equal(t, OriginRules, got.Origin)
	}
}

func TestRules_Generic(t *testing.T) {
	got := Rules("something unusual", "", "")
	assert.Equal(t, Classification, got.TaskType)
	assert.Equal(t, "general", got.Domain)
	assert.Equal(t, 0.6, got.Confidence)
	assert.NotNil(t, got.RecommendedDatasets)

	got = Rules("something unusual", "", "Clustering")
	assert.Equal(t, Clustering, got.TaskType)

	got = Rules("something unusual", "", "nonsense")
	assert.Equal(t, Classification, got.TaskType)
}

func TestRules_ReturnsCopies(t *testing.T) {
	a := Rules("titanic", "", "")
	a.RecommendedDatasets[0].Name = "mutated"
	b := Rules("titanic", "", "")
	assert.Equal(t, "titanic", b.RecommendedDatasets[0].Name)
}

func TestRecommend_NoRuntimeUsesRules(t *testing.T) {
	s := NewSynthesizer(nil)
	assert.False(t, s.HasRuntime())
	got := s.Recommend(context.Background(), "titanic survival", "", "")
	assert.Equal(t, Classification, got.TaskType)
	assert.Equal(t, OriginRules, got.Origin)
}

func TestRecommend_ModelAnswer(t *testing.T) {
	rt := &fakeRuntime{text: "<think>hmm</think>Sure! ```json\n" +
		`{"taskType":"Sentiment_Analysis","requiredFeatures":["text"," ",""],"idealDatasetSize":"LARGE","domain":"NLP","confidence":1.7,` +
		`"recommendedDatasets":[{"name":"imdb","reason":"reviews","priority":1}]}` + "\n```"}
	s := NewSynthesizer(zap.NewNop(), WithRuntime(rt, "m1"), WithGeneration(256, 0.1))

	got := s.Recommend(context.Background(), "reviews", "classify movie reviews", "classification")
	assert.Equal(t, OriginModel, got.Origin)
	assert.Equal(t, SentimentAnalysis, got.TaskType)
	assert.Equal(t, []string{"text"}, got.RequiredFeatures)
	assert.Equal(t, SizeLarge, got.IdealDatasetSize)
	assert.Equal(t, "nlp", got.Domain)
	assert.Equal(t, 1.0, got.Confidence)
	require.Len(t, got.RecommendedDatasets, 1)

	assert.Equal(t, "m1", rt.req.Model)
	assert.Equal(t, 256, rt.req.MaxTokens)
	require.Len(t, rt.req.Messages, 2)
	assert.Equal(t, "system", rt.req.Messages[0].Role)
	assert.Contains(t, rt.req.Messages[0].Content, `"image_classification"`)
	assert.True(t, strings.Contains(rt.req.Messages[1].Content, "classify movie reviews"))
	assert.Contains(t, rt.req.Messages[1].Content, "classification")
}

func TestRecommend_ModelDefaults(t *testing.T) {
	rt := &fakeRuntime{text: `{"taskType":"regression"}`}
	got := NewSynthesizer(nil, WithRuntime(rt, "")).Recommend(context.Background(), "x", "", "")
	assert.Equal(t, Regression, got.TaskType)
	assert.Equal(t, 0.8, got.Confidence)
	assert.Equal(t, SizeMedium, got.IdealDatasetSize)
	assert.Equal(t, "general", got.Domain)
	assert.NotNil(t, got.RecommendedDatasets)
}

func TestRecommend_BackendFailuresFallBack(t *testing.T) {
	for name, rt := range map[string]*fakeRuntime{
		"error":       {err: errors.New("unreachable")},
		"no json":     {text: "I think it's a classification problem."},
		"bad task":    {text: `{"taskType":"telepathy"}`},
		"wrong types": {text: `{"taskType":7}`},
	} {
		core, logs := observer.New(zap.WarnLevel)
		s := NewSynthesizer(zap.New(core), WithRuntime(rt, "m"))
		got := s.Recommend(context.Background(), "house prices", "", "")
		assert.Equal(t, OriginRules, got.Origin, name)
		assert.Equal(t, Regression, got.TaskType, name)
		assert.Equal(t, 1, logs.Len(), name)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-3))
	assert.Equal(t, 1.0, Clamp(2))
	assert.Equal(t, 0.5, Clamp(0.5))
	nan := 0.0
	assert.Equal(t, 0.0, Clamp(nan/nan))
}

func TestBuildPrompt_TruncatesLongDescriptions(t *testing.T) {
	msgs := buildPrompt("topic", strings.Repeat("word ", 2000), "")
	require.Len(t, msgs, 2)
	assert.Less(t, len(msgs[1].Content), 2500)
	assert.NotContains(t, msgs[1].Content, "believes")
}

func TestRecommend_EstimatesUsageWhenBackendReportsNone(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	rt := &fakeRuntime{text: `{"taskType":"regression","domain":"real_estate"}`}
	s := NewSynthesizer(zap.New(core), WithRuntime(rt, "gpt-4o-mini"))
	got := s.Recommend(context.Background(), "house prices", "", "")
	require.Equal(t, OriginModel, got.Origin)

	entries := logs.FilterMessage("model answered").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Greater(t, fields["prompt_tokens"], int64(0))
	assert.Greater(t, fields["completion_tokens"], int64(0))
	assert.Contains(t, fields, "est_cost_usd")
}

func TestEstimateUsage(t *testing.T) {
	msgs := []ai.Message{{Role: "system", Content: strings.Repeat("a", 40)}, {Role: "user", Content: strings.Repeat("b", 20)}}
	u := estimateUsage(msgs, strings.Repeat("c", 8))
	assert.Equal(t, ai.Usage{PromptTokens: 15, CompletionTokens: 2, TotalTokens: 17}, u)
}
