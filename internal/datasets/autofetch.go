package datasets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/aistudio/internal/catalog"
	"github.com/KaramelBytes/aistudio/internal/ranking"
	"github.com/KaramelBytes/aistudio/internal/recommend"
	"go.uber.org/zap"
)

// ErrTopicRequired is returned when AutoFetch gets a blank topic.
var ErrTopicRequired = errors.New("topic is required")

const maxCandidates = 5

// AutoFetchAnalysis is a deterministic estimate of the selected dataset.
type AutoFetchAnalysis struct {
	TaskType         recommend.TaskType `json:"taskType"`
	TotalSamples     int                `json:"totalSamples"`
	FeatureCount     int                `json:"featureCount"`
	RequiredFeatures []string           `json:"requiredFeatures"`
	DataQuality      string             `json:"dataQuality"`
	Complexity       string             `json:"complexity"`
	EstimatedSize    string             `json:"estimatedSize"`
	Confidence       float64            `json:"confidence"`
}

type AutoFetchResult struct {
	SelectedDataset ranking.ScoredCandidate   `json:"selectedDataset"`
	Analysis        AutoFetchAnalysis         `json:"analysis"`
	MatchScore      int                       `json:"matchScore"`
	Reasoning       string                    `json:"reasoning"`
	Source          string                    `json:"source"`
	Recommendation  recommend.Recommendation  `json:"recommendation"`
	Candidates      []ranking.ScoredCandidate `json:"candidates"`
}

// Searcher is the catalog capability AutoFetcher needs.
type Searcher interface {
	Search(ctx context.Context, q catalog.Query) catalog.SearchResult
}

// Recommender is the recommendation capability AutoFetcher needs.
type Recommender interface {
	Recommend(ctx context.Context, topic, description, hint string) recommend.Recommendation
}

type AutoFetcher struct {
	catalog Searcher
	recs    Recommender
	logger  *zap.Logger
}

func NewAutoFetcher(search Searcher, recs Recommender, logger *zap.Logger) *AutoFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoFetcher{catalog: search, recs: recs, logger: logger.Named("autofetch")}
}

// AutoFetch runs recommend, search and rank in sequence and picks the top
// candidate. Source is kaggle-auto only when the winner came from live
// catalog results.
func (af *AutoFetcher) AutoFetch(ctx context.Context, topic, preferredSize string) (AutoFetchResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return AutoFetchResult{}, ErrTopicRequired
	}
	if !recommend.ValidSize(preferredSize) {
		preferredSize = recommend.SizeMedium
	}

	rec := af.recs.Recommend(ctx, topic, "", "")
	found := af.catalog.Search(ctx, catalog.Query{Text: topic})
	ranked := ranking.Rank(found.Entries, rec, preferredSize)
	top, _ := ranked.Top()

	source := catalog.SourceAIMock
	if found.Live() && !ranked.FromShortlist {
		source = catalog.SourceAuto
	}
	af.logger.Info("auto-fetch selected dataset",
		zap.String("topic", topic),
		zap.String("ref", top.Ref),
		zap.Int("score", top.Score),
		zap.String("source", source),
	)

	cands := ranked.Candidates
	if len(cands) > maxCandidates {
		cands = cands[:maxCandidates]
	}
	return AutoFetchResult{
		SelectedDataset: top,
		Analysis:        estimate(top, rec, preferredSize),
		MatchScore:      top.Score,
		Reasoning:       reasoning(topic, top, rec, ranked.FromShortlist),
		Source:          source,
		Recommendation:  rec,
		Candidates:      cands,
	}, nil
}

var samplesBySize = map[string]int{
	recommend.SizeSmall:  1000,
	recommend.SizeMedium: 10000,
	recommend.SizeLarge:  100000,
}

var complexityBySize = map[string]string{
	recommend.SizeSmall:  "low",
	recommend.SizeMedium: "medium",
	recommend.SizeLarge:  "high",
}

// estimate sizes the analysis from the caller's preferred size, not from the
// winner's popularity bucket.
func estimate(top ranking.ScoredCandidate, rec recommend.Recommendation, preferredSize string) AutoFetchAnalysis {
	features := append([]string(nil), rec.RequiredFeatures...)
	n := len(features)
	if n == 0 {
		n = 1
	}
	return AutoFetchAnalysis{
		TaskType:         top.TaskType,
		TotalSamples:     samplesBySize[preferredSize],
		FeatureCount:     n,
		RequiredFeatures: features,
		DataQuality:      "Good",
		Complexity:       complexityBySize[preferredSize],
		EstimatedSize:    preferredSize,
		Confidence:       rec.Confidence,
	}
}

func reasoning(topic string, top ranking.ScoredCandidate, rec recommend.Recommendation, shortlist bool) string {
	if shortlist {
		return fmt.Sprintf("Selected based on general suitability for %s", topic)
	}
	return fmt.Sprintf("Selected based on topic relevance: %s task in the %s domain (score %d)", rec.TaskType, rec.Domain, top.Score)
}
