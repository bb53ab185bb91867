package datasets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/aistudio/internal/analysis"
	"github.com/KaramelBytes/aistudio/internal/catalog"
	"github.com/KaramelBytes/aistudio/internal/recommend"
	"github.com/KaramelBytes/aistudio/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	configured bool
	files      map[string]string
	err        error
}

func (f *fakeSource) Configured() bool { return f.configured }
func (f *fakeSource) Search(context.Context, catalog.Query) ([]catalog.Entry, error) {
	return nil, errors.New("unused")
}
func (f *fakeSource) Show(context.Context, string) (string, error) { return "", errors.New("unused") }
func (f *fakeSource) Download(_ context.Context, ref, dir string) error {
	if !catalog.ValidRef(ref) {
		return catalog.ErrInvalidRef
	}
	if f.err != nil {
		return f.err
	}
	for name, body := range f.files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			return err
		}
	}
	return nil
}

type recorder struct{ recs []*store.ImportRecord }

func (r *recorder) Record(_ context.Context, rec *store.ImportRecord) error {
	r.recs = append(r.recs, rec)
	return nil
}

func TestImport_MockPath(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	im := NewImporter(nil, dir, rec, nil)

	res, err := im.Import(context.Background(), "vicsuperman/prediction-of-music-genre", "")
	require.NoError(t, err)
	assert.Equal(t, catalog.SourceMock, res.Source)
	assert.Equal(t, DefaultProject, res.ProjectID)
	assert.Equal(t, filepath.Join(dir, "default"), res.DownloadPath)
	assert.Equal(t, []string{"mock_data.csv", "data_info.txt"}, res.Files)
	assert.Equal(t, 5, res.Analysis.TotalRows)
	assert.Equal(t, 5, res.Analysis.TotalColumns)
	assert.Equal(t, analysis.QualityGood, res.Analysis.DataQuality)

	info, err := os.ReadFile(filepath.Join(res.DownloadPath, "data_info.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(info), "Mock dataset generated for: vicsuperman/prediction-of-music-genre\nCreated: "))

	require.Len(t, rec.recs, 1)
	assert.Equal(t, catalog.SourceMock, rec.recs[0].Source)
	assert.Equal(t, 5, rec.recs[0].TotalRows)
}

func TestImport_LivePathAnalyzesFirstCSV(t *testing.T) {
	src := &fakeSource{configured: true, files: map[string]string{
		"b.csv":      "x,y\n1,2\n3,4\n5,6\n",
		"a.csv":      "name,score\nann,1\nbob,2\n",
		"readme.txt": "hello",
	}}
	im := NewImporter(src, t.TempDir(), nil, nil)
	res, err := im.Import(context.Background(), "owner/data", "proj-1")
	require.NoError(t, err)
	assert.Equal(t, catalog.SourceAPI, res.Source)
	assert.Equal(t, []string{"a.csv", "b.csv", "readme.txt"}, res.Files)
	assert.Equal(t, "a.csv", res.Analysis.Name)
	assert.Equal(t, 2, res.Analysis.TotalRows)
}

func TestImport_LiveWithoutTabularFiles(t *testing.T) {
	src := &fakeSource{configured: true, files: map[string]string{"photo.png": "x"}}
	res, err := NewImporter(src, t.TempDir(), nil, nil).Import(context.Background(), "owner/house-prices", "p")
	require.NoError(t, err)
	assert.Equal(t, catalog.SourceAPI, res.Source)
	assert.Equal(t, []string{"photo.png"}, res.Files)
	assert.Equal(t, "price", res.Analysis.Columns[0].Name)
}

func TestImport_DownloadFailureFallsBackToMock(t *testing.T) {
	src := &fakeSource{configured: true, err: errors.New("403 forbidden")}
	res, err := NewImporter(src, t.TempDir(), nil, nil).Import(context.Background(), "owner/data", "p")
	require.NoError(t, err)
	assert.Equal(t, catalog.SourceMock, res.Source)
	assert.Contains(t, res.Files, "mock_data.csv")
}

func TestImport_Validation(t *testing.T) {
	src := &fakeSource{configured: true}
	im := NewImporter(src, t.TempDir(), nil, nil)

	_, err := im.Import(context.Background(), "owner/data", "../../etc")
	assert.ErrorIs(t, err, ErrInvalidProject)

	_, err = im.Import(context.Background(), "--unzip", "p")
	assert.ErrorIs(t, err, catalog.ErrInvalidRef)
}

type staticSearch struct{ res catalog.SearchResult }

func (s staticSearch) Search(context.Context, catalog.Query) catalog.SearchResult { return s.res }

type staticRec struct{ rec recommend.Recommendation }

func (s staticRec) Recommend(context.Context, string, string, string) recommend.Recommendation {
	return s.rec
}

func titanicRec() recommend.Recommendation {
	return recommend.Rules("titanic survival", "", "")
}

func TestAutoFetch_LiveWinner(t *testing.T) {
	live := catalog.SearchResult{Entries: catalog.Fallback(), Source: catalog.SourceAPI}
	af := NewAutoFetcher(staticSearch{live}, staticRec{titanicRec()}, nil)

	res, err := af.AutoFetch(context.Background(), "titanic survival", "")
	require.NoError(t, err)
	assert.Equal(t, catalog.SourceAuto, res.Source)
	assert.Equal(t, "titanic/titanic-dataset", res.SelectedDataset.Ref)
	assert.Equal(t, res.SelectedDataset.Score, res.MatchScore)
	assert.Len(t, res.Candidates, 5)
	assert.Equal(t, recommend.Classification, res.Analysis.TaskType)
	assert.Equal(t, 10000, res.Analysis.TotalSamples)
	assert.Equal(t, "medium", res.Analysis.Complexity)
	assert.Equal(t, "Good", res.Analysis.DataQuality)
	assert.Equal(t, len(res.Recommendation.RequiredFeatures), res.Analysis.FeatureCount)
	assert.Contains(t, res.Reasoning, "topic relevance")

	again, _ := af.AutoFetch(context.Background(), "titanic survival", "")
	assert.Equal(t, res, again)
}

func TestAutoFetch_SizesFollowPreferredSize(t *testing.T) {
	live := catalog.SearchResult{Entries: catalog.Fallback(), Source: catalog.SourceAPI}
	af := NewAutoFetcher(staticSearch{live}, staticRec{titanicRec()}, nil)

	cases := []struct {
		size       string
		samples    int
		complexity string
	}{
		{recommend.SizeSmall, 1000, "low"},
		{recommend.SizeMedium, 10000, "medium"},
		{recommend.SizeLarge, 100000, "high"},
	}
	for _, tc := range cases {
		t.Run(tc.size, func(t *testing.T) {
			res, err := af.AutoFetch(context.Background(), "titanic survival", tc.size)
			require.NoError(t, err)
			assert.Equal(t, "titanic/titanic-dataset", res.SelectedDataset.Ref)
			assert.Equal(t, tc.samples, res.Analysis.TotalSamples)
			assert.Equal(t, tc.complexity, res.Analysis.Complexity)
			assert.Equal(t, tc.size, res.Analysis.EstimatedSize)
		})
	}
}

func TestAutoFetch_FallbackSources(t *testing.T) {
	mock := catalog.SearchResult{Entries: catalog.Fallback(), Source: catalog.SourceMock}
	res, err := NewAutoFetcher(staticSearch{mock}, staticRec{titanicRec()}, nil).AutoFetch(context.Background(), "titanic", "small")
	require.NoError(t, err)
	assert.Equal(t, catalog.SourceAIMock, res.Source)

	empty := catalog.SearchResult{Entries: nil, Source: catalog.SourceAPI}
	res, err = NewAutoFetcher(staticSearch{empty}, staticRec{titanicRec()}, nil).AutoFetch(context.Background(), "titanic", "")
	require.NoError(t, err)
	assert.Equal(t, catalog.SourceAIMock, res.Source)
	assert.Equal(t, "c/titanic", res.SelectedDataset.Ref)
	assert.Equal(t, "Selected based on general suitability for titanic", res.Reasoning)
	assert.Len(t, res.Candidates, 4)
}

func TestAutoFetch_TopicRequired(t *testing.T) {
	_, err := NewAutoFetcher(staticSearch{}, staticRec{}, nil).AutoFetch(context.Background(), "  ", "")
	assert.ErrorIs(t, err, ErrTopicRequired)
}
