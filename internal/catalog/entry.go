// Package catalog wraps the external dataset catalog (the Kaggle CLI) and a
// curated in-memory fallback used whenever the catalog cannot answer.
package catalog

import (
	"strings"
	"time"
)

// Provenance values reported in every search/import/auto-fetch response.
const (
	SourceAPI     = "kaggle-api"
	SourceMock    = "mock-data"
	SourceAuto    = "kaggle-auto"
	SourceAIMock  = "ai-mock-selection"
	defaultSortBy = "hottest"
)

// Entry is one dataset record. Entries are treated as immutable.
type Entry struct {
	Ref             string    `json:"ref"`
	Title           string    `json:"title"`
	Subtitle        string    `json:"subtitle"`
	Description     string    `json:"description"`
	DownloadCount   int       `json:"downloadCount"`
	VoteCount       int       `json:"voteCount"`
	Size            string    `json:"size"`
	LastUpdated     time.Time `json:"lastUpdated"`
	Tags            []string  `json:"tags"`
	UsabilityRating float64   `json:"usabilityRating"`
}

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

var fallback = []Entry{
	{
		Ref:             "vicsuperman/prediction-of-music-genre",
		Title:           "Music Genre Classification Dataset",
		Subtitle:        "Predict music genre from audio features",
		Description:     "A comprehensive dataset containing audio features for music genre classification",
		DownloadCount:   15432,
		VoteCount:       234,
		Size:            "2.5 MB",
		LastUpdated:     mustTime("2024-01-15T10:00:00Z"),
		Tags:            []string{"music", "classification", "audio", "machine learning"},
		UsabilityRating: 8.5,
	},
	{
		Ref:             "c/house-prices-advanced-regression-techniques",
		Title:           "House Prices - Advanced Regression Techniques",
		Subtitle:        "Predict sales prices and practice feature engineering",
		Description:     "Predict house prices based on various features",
		DownloadCount:   45678,
		VoteCount:       567,
		Size:            "1.2 MB",
		LastUpdated:     mustTime("2024-02-10T15:30:00Z"),
		Tags:            []string{"regression", "housing", "real estate", "competition"},
		UsabilityRating: 9.2,
	},
	{
		Ref:             "puneet6060/intel-image-classification",
		Title:           "Intel Image Classification",
		Subtitle:        "Classify natural images into categories",
		Description:     "Natural images classification dataset with 6 categories",
		DownloadCount:   23456,
		VoteCount:       345,
		Size:            "150 MB",
		LastUpdated:     mustTime("2024-01-20T12:00:00Z"),
		Tags:            []string{"image", "classification", "computer vision", "natural scenes"},
		UsabilityRating: 7.8,
	},
	{
		Ref:             "netflix/netflix-shows",
		Title:           "Netflix Movies and TV Shows",
		Subtitle:        "Content analysis and recommendation dataset",
		Description:     "Netflix dataset with movies and TV shows for recommendation systems and content analysis",
		DownloadCount:   78432,
		VoteCount:       891,
		Size:            "5.2 MB",
		LastUpdated:     mustTime("2024-01-25T09:15:00Z"),
		Tags:            []string{"movie", "recommendation", "content", "streaming", "entertainment"},
		UsabilityRating: 8.9,
	},
	{
		Ref:             "movielens/movielens-20m-dataset",
		Title:           "MovieLens 20M Movie Ratings",
		Subtitle:        "Movie recommendation system dataset",
		Description:     "Large-scale movie rating dataset for building recommendation systems",
		DownloadCount:   125432,
		VoteCount:       1234,
		Size:            "190 MB",
		LastUpdated:     mustTime("2024-02-01T14:30:00Z"),
		Tags:            []string{"movie", "recommendation", "ratings", "collaborative filtering"},
		UsabilityRating: 9.5,
	},
	{
		Ref:             "imdb/imdb-movie-dataset",
		Title:           "IMDB Movie Dataset",
		Subtitle:        "Movie metadata and ratings for analysis",
		Description:     "Comprehensive IMDB movie dataset with ratings, genres, cast, and crew information",
		DownloadCount:   67890,
		VoteCount:       789,
		Size:            "12 MB",
		LastUpdated:     mustTime("2024-01-18T11:45:00Z"),
		Tags:            []string{"movie", "imdb", "ratings", "entertainment", "analysis"},
		UsabilityRating: 8.7,
	},
	{
		Ref:             "titanic/titanic-dataset",
		Title:           "Titanic - Machine Learning from Disaster",
		Subtitle:        "Classic binary classification problem",
		Description:     "Predict survival on the Titanic using passenger data",
		DownloadCount:   234567,
		VoteCount:       2345,
		Size:            "0.8 MB",
		LastUpdated:     mustTime("2024-01-10T16:20:00Z"),
		Tags:            []string{"classification", "binary", "beginner", "competition"},
		UsabilityRating: 9.8,
	},
	{
		Ref:             "iris/iris-flower-dataset",
		Title:           "Iris Flower Dataset",
		Subtitle:        "Classic multiclass classification dataset",
		Description:     "Iris flower species classification based on measurements",
		DownloadCount:   156789,
		VoteCount:       1567,
		Size:            "0.1 MB",
		LastUpdated:     mustTime("2024-01-05T08:00:00Z"),
		Tags:            []string{"classification", "multiclass", "beginner", "flowers"},
		UsabilityRating: 9.9,
	},
	{
		Ref:             "covid19/covid-19-dataset",
		Title:           "COVID-19 Dataset",
		Subtitle:        "Comprehensive COVID-19 data for analysis",
		Description:     "Global COVID-19 cases, deaths, and vaccination data",
		DownloadCount:   89123,
		VoteCount:       891,
		Size:            "15 MB",
		LastUpdated:     mustTime("2024-02-15T12:00:00Z"),
		Tags:            []string{"covid", "pandemic", "health", "time series", "analysis"},
		UsabilityRating: 8.3,
	},
	{
		Ref:             "stock/stock-market-dataset",
		Title:           "Stock Market Dataset",
		Subtitle:        "Stock prices for prediction and analysis",
		Description:     "Historical stock market data for price prediction and financial analysis",
		DownloadCount:   45234,
		VoteCount:       452,
		Size:            "25 MB",
		LastUpdated:     mustTime("2024-02-05T13:30:00Z"),
		Tags:            []string{"stock", "prediction", "finance", "time series", "investment"},
		UsabilityRating: 8.1,
	},
}

// Fallback returns a copy of the curated catalog.
func Fallback() []Entry {
	out := make([]Entry, len(fallback))
	copy(out, fallback)
	return out
}

// FindFallback looks up a curated entry by exact ref.
func FindFallback(ref string) (Entry, bool) {
	for _, e := range fallback {
		if e.Ref == ref {
			return e, true
		}
	}
	return Entry{}, false
}

// Filter keeps entries where every whitespace-separated query word occurs in
// the title, the description, or a tag (tag containing the word or the word
// containing the tag). An empty query keeps everything.
func Filter(entries []Entry, query string) []Entry {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return append([]Entry(nil), entries...)
	}
	var out []Entry
	for _, e := range entries {
		if matchesAll(e, words) {
			out = append(out, e)
		}
	}
	return out
}

func matchesAll(e Entry, words []string) bool {
	title := strings.ToLower(e.Title)
	desc := strings.ToLower(e.Description)
	for _, w := range words {
		if strings.Contains(title, w) || strings.Contains(desc, w) {
			continue
		}
		found := false
		for _, t := range e.Tags {
			t = strings.ToLower(t)
			if t != "" && (strings.Contains(t, w) || strings.Contains(w, t)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
