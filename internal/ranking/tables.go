package ranking

import (
	"strings"

	"github.com/KaramelBytes/aistudio/internal/catalog"
	"github.com/KaramelBytes/aistudio/internal/recommend"
)

var domainKeywords = map[string][]string{
	"healthcare":      {"medical", "health", "disease", "cancer", "covid"},
	"transportation":  {"titanic", "passenger", "transport", "vehicle", "flight", "traffic"},
	"real_estate":     {"house", "housing", "real estate", "property", "price"},
	"computer_vision": {"image", "vision", "digit", "photo", "pixel"},
	"finance":         {"stock", "finance", "financial", "market", "investment"},
	"entertainment":   {"movie", "music", "film", "netflix", "show"},
	"nlp":             {"text", "review", "sentiment", "tweet", "language"},
	"retail":          {"customer", "sales", "product", "retail"},
	"biology":         {"flower", "species", "plant", "iris"},
}

// DomainKeywords returns the keyword list for domain, or nil for unknown domains.
func DomainKeywords(domain string) []string {
	return domainKeywords[strings.ToLower(strings.TrimSpace(domain))]
}

var taskKeywords = []struct {
	task     recommend.TaskType
	keywords []string
}{
	{recommend.ImageClassification, []string{"image", "vision", "digit", "mnist", "photo", "pixel"}},
	{recommend.SentimentAnalysis, []string{"sentiment", "review", "tweet", "emotion"}},
	{recommend.RecommendationTask, []string{"recommend", "collaborative", "ratings"}},
	{recommend.Forecasting, []string{"forecast", "time series", "stock"}},
	{recommend.Clustering, []string{"cluster", "segment"}},
	{recommend.Regression, []string{"regression", "price", "housing", "salary"}},
	{recommend.Classification, []string{"classification", "classify", "survival", "species", "detection"}},
}

// InferTaskType guesses an entry's task from its title, description and tags.
// Entries matching nothing are treated as classification.
func InferTaskType(e catalog.Entry) recommend.TaskType {
	text := strings.ToLower(e.Title + " " + e.Description + " " + strings.Join(e.Tags, " "))
	for _, tk := range taskKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(text, kw) {
				return tk.task
			}
		}
	}
	return recommend.Classification
}

var shortlist = []catalog.Entry{
	{
		Ref:             "c/titanic",
		Title:           "Titanic - Machine Learning from Disaster",
		Description:     "Predict survival of passengers on the Titanic",
		DownloadCount:   234567,
		Size:            "0.8 MB",
		Tags:            []string{"classification", "binary", "beginner"},
		UsabilityRating: 9.8,
	},
	{
		Ref:             "c/house-prices-advanced-regression-techniques",
		Title:           "House Prices - Advanced Regression Techniques",
		Description:     "Predict sales prices of residential homes",
		DownloadCount:   45678,
		Size:            "1.2 MB",
		Tags:            []string{"regression", "housing"},
		UsabilityRating: 9.2,
	},
	{
		Ref:             "oddrationale/mnist-in-csv",
		Title:           "MNIST in CSV",
		Description:     "Handwritten digit images flattened to pixel columns",
		DownloadCount:   98765,
		Size:            "15 MB",
		Tags:            []string{"image", "digit", "computer vision"},
		UsabilityRating: 9.4,
	},
	{
		Ref:             "uciml/iris",
		Title:           "Iris Species",
		Description:     "Classify iris plants into three species",
		DownloadCount:   156789,
		Size:            "0.1 MB",
		Tags:            []string{"classification", "multiclass", "beginner"},
		UsabilityRating: 9.9,
	},
}

// Shortlist returns a copy of the well-known fallback datasets.
func Shortlist() []catalog.Entry {
	return append([]catalog.Entry(nil), shortlist...)
}
