package recommend

import "strings"

type rule struct {
	keywords []string
	rec      Recommendation
}

// rules are checked in order; the first whose keyword occurs in the
// lowercased topic+description wins.
var rules = []rule{
	{
		keywords: []string{"surviv", "titanic"},
		rec: Recommendation{
			TaskType:         Classification,
			RequiredFeatures: []string{"age", "sex", "passenger_class", "fare", "family_size"},
			IdealDatasetSize: SizeSmall,
			Domain:           "transportation",
			RecommendedDatasets: []DatasetSuggestion{
				{Name: "titanic", Reason: "Canonical survival prediction dataset", Priority: 1},
			},
		},
	},
	{
		keywords: []string{"house", "price", "real estate"},
		rec: Recommendation{
			TaskType:         Regression,
			RequiredFeatures: []string{"square_footage", "bedrooms", "bathrooms", "location", "year_built"},
			IdealDatasetSize: SizeMedium,
			Domain:           "real_estate",
			RecommendedDatasets: []DatasetSuggestion{
				{Name: "house prices", Reason: "Rich tabular features for price regression", Priority: 1},
			},
		},
	},
	{
		keywords: []string{"digit", "image", "vision"},
		rec: Recommendation{
			TaskType:         ImageClassification,
			RequiredFeatures: []string{"pixel_values", "label"},
			IdealDatasetSize: SizeLarge,
			Domain:           "computer_vision",
			RecommendedDatasets: []DatasetSuggestion{
				{Name: "mnist", Reason: "Standard handwritten digit benchmark", Priority: 1},
				{Name: "image classification", Reason: "Natural scene categories", Priority: 2},
			},
		},
	},
	{
		keywords: []string{"sentiment", "review", "tweet", "opinion"},
		rec: Recommendation{
			TaskType:         SentimentAnalysis,
			RequiredFeatures: []string{"text", "label"},
			IdealDatasetSize: SizeMedium,
			Domain:           "nlp",
			RecommendedDatasets: []DatasetSuggestion{
				{Name: "imdb", Reason: "Labelled movie reviews", Priority: 1},
			},
		},
	},
	{
		keywords: []string{"recommend", "movie", "rating"},
		rec: Recommendation{
			TaskType:         RecommendationTask,
			RequiredFeatures: []string{"user_id", "item_id", "rating", "timestamp"},
			IdealDatasetSize: SizeLarge,
			Domain:           "entertainment",
			RecommendedDatasets: []DatasetSuggestion{
				{Name: "movielens", Reason: "User-item ratings at scale", Priority: 1},
				{Name: "netflix", Reason: "Catalog metadata for content features", Priority: 2},
			},
		},
	},
	{
		keywords: []string{"forecast", "stock", "time series", "sales"},
		rec: Recommendation{
			TaskType:         Forecasting,
			RequiredFeatures: []string{"date", "value", "lag_features"},
			IdealDatasetSize: SizeMedium,
			Domain:           "finance",
			RecommendedDatasets: []DatasetSuggestion{
				{Name: "stock market", Reason: "Daily price history", Priority: 1},
			},
		},
	},
	{
		keywords: []string{"cluster", "segment"},
		rec: Recommendation{
			TaskType:         Clustering,
			RequiredFeatures: []string{"numeric_features"},
			IdealDatasetSize: SizeMedium,
			Domain:           "retail",
			RecommendedDatasets: []DatasetSuggestion{
				{Name: "customer", Reason: "Behavioural features for segmentation", Priority: 1},
			},
		},
	},
	{
		keywords: []string{"covid", "disease", "medical", "health", "cancer"},
		rec: Recommendation{
			TaskType:         Classification,
			RequiredFeatures: []string{"patient_age", "symptoms", "test_results", "diagnosis"},
			IdealDatasetSize: SizeMedium,
			Domain:           "healthcare",
			RecommendedDatasets: []DatasetSuggestion{
				{Name: "covid", Reason: "Public health case data", Priority: 1},
			},
		},
	},
}

// Rules maps topic keywords to a fixed Recommendation. Matched rules carry
// confidence 0.8; the generic default carries 0.6 and honours a valid hint.
func Rules(topic, description, hint string) Recommendation {
	text := strings.ToLower(topic + " " + description)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return withOrigin(r.rec, 0.8)
			}
		}
	}
	task := Classification
	if t, ok := ParseTaskType(hint); ok {
		task = t
	}
	return withOrigin(Recommendation{
		TaskType:            task,
		RequiredFeatures:    []string{"features", "target"},
		IdealDatasetSize:    SizeMedium,
		Domain:              "general",
		RecommendedDatasets: []DatasetSuggestion{},
	}, 0.6)
}

// withOrigin copies rec so callers never share the table's slices.
func withOrigin(rec Recommendation, confidence float64) Recommendation {
	rec.RequiredFeatures = append([]string(nil), rec.RequiredFeatures...)
	rec.RecommendedDatasets = append([]DatasetSuggestion{}, rec.RecommendedDatasets...)
	rec.Confidence = confidence
	rec.Origin = OriginRules
	return rec
}
