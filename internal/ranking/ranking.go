// Package ranking scores catalog entries against a Recommendation.
package ranking

import (
	"sort"
	"strings"

	"github.com/KaramelBytes/aistudio/internal/catalog"
	"github.com/KaramelBytes/aistudio/internal/recommend"
)

// MinScore is the lowest top score accepted before the shortlist takes over.
const MinScore = 10

// Score weights.
const (
	taskMatchPoints  = 50
	namePoints       = 100
	domainPoints     = 30
	sizePoints       = 20
	popularPoints    = 10
	usabilityPoints  = 15
	popularDownloads = 5000
	usabilityMinimum = 0.8
	largeDownloads   = 10000
	mediumDownloads  = 1000
)

// ScoredCandidate is an entry with its relevance score.
type ScoredCandidate struct {
	catalog.Entry
	Score     int                `json:"score"`
	TaskType  recommend.TaskType `json:"taskType"`
	SizeProxy string             `json:"sizeProxy"`
}

// Result is the ordered output of Rank.
type Result struct {
	Candidates []ScoredCandidate `json:"candidates"`
	// FromShortlist is set when the search results scored too low (or were
	// empty) and the fixed shortlist was ranked instead.
	FromShortlist bool `json:"fromShortlist"`
}

// Top returns the best candidate.
func (r Result) Top() (ScoredCandidate, bool) {
	if len(r.Candidates) == 0 {
		return ScoredCandidate{}, false
	}
	return r.Candidates[0], true
}

// Rank scores and stably sorts candidates by descending score. When there
// are no candidates or the best one scores below MinScore, the shortlist is
// ranked instead and the input is discarded.
func Rank(candidates []catalog.Entry, rec recommend.Recommendation, preferredSize string) Result {
	scored := Score(candidates, rec, preferredSize)
	if len(scored) > 0 && scored[0].Score >= MinScore {
		return Result{Candidates: scored}
	}
	return Result{Candidates: Score(Shortlist(), rec, preferredSize), FromShortlist: true}
}

// Score applies the scoring rule to every entry and sorts without any fallback.
func Score(candidates []catalog.Entry, rec recommend.Recommendation, preferredSize string) []ScoredCandidate {
	preferredSize = strings.ToLower(strings.TrimSpace(preferredSize))
	out := make([]ScoredCandidate, len(candidates))
	for i, e := range candidates {
		out[i] = scoreOne(e, rec, preferredSize)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func scoreOne(e catalog.Entry, rec recommend.Recommendation, preferredSize string) ScoredCandidate {
	sc := ScoredCandidate{Entry: e, TaskType: InferTaskType(e), SizeProxy: SizeProxy(e.DownloadCount)}
	text := strings.ToLower(e.Title + "\n" + e.Description)

	if sc.TaskType == rec.TaskType {
		sc.Score += taskMatchPoints
	}
	for _, d := range rec.RecommendedDatasets {
		name := strings.ToLower(strings.TrimSpace(d.Name))
		if name != "" && strings.Contains(text, name) {
			sc.Score += namePoints
		}
	}
	for _, kw := range DomainKeywords(rec.Domain) {
		if strings.Contains(text, kw) {
			sc.Score += domainPoints
		}
	}
	if preferredSize != "" && sc.SizeProxy == preferredSize {
		sc.Score += sizePoints
	}
	if e.DownloadCount > popularDownloads {
		sc.Score += popularPoints
	}
	if normalizedUsability(e.UsabilityRating) > usabilityMinimum {
		sc.Score += usabilityPoints
	}
	return sc
}

// SizeProxy buckets a download count: >10000 large, >1000 medium, else small.
func SizeProxy(downloads int) string {
	switch {
	case downloads > largeDownloads:
		return recommend.SizeLarge
	case downloads > mediumDownloads:
		return recommend.SizeMedium
	default:
		return recommend.SizeSmall
	}
}

// ratings on a 0-10 scale are brought to 0-1
func normalizedUsability(r float64) float64 {
	if r > 1 {
		return r / 10
	}
	return r
}
