// Package datasets orchestrates catalog imports and topic-driven auto-fetch.
package datasets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/aistudio/internal/analysis"
	"github.com/KaramelBytes/aistudio/internal/catalog"
	"github.com/KaramelBytes/aistudio/internal/store"
	"github.com/KaramelBytes/aistudio/internal/utils"
	"go.uber.org/zap"
)

const (
	DefaultProject = "default"
	mockDataFile   = "mock_data.csv"
	mockInfoFile   = "data_info.txt"
)

// ErrInvalidProject rejects project IDs that are not a single safe path segment.
var ErrInvalidProject = errors.New("invalid project id")

var projectPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,100}$`)

// Recorder persists import history. *store.Store implements it.
type Recorder interface {
	Record(ctx context.Context, rec *store.ImportRecord) error
}

// ImportResult describes what landed in the download directory.
type ImportResult struct {
	DatasetID    string                   `json:"datasetId"`
	ProjectID    string                   `json:"projectId"`
	DownloadPath string                   `json:"downloadPath"`
	Analysis     analysis.DatasetAnalysis `json:"analysis"`
	Files        []string                 `json:"files"`
	Source       string                   `json:"source"`
}

type Importer struct {
	source       catalog.Source
	downloadsDir string
	recorder     Recorder
	logger       *zap.Logger
	now          func() time.Time
}

// NewImporter builds an Importer. source and recorder may be nil.
func NewImporter(source catalog.Source, downloadsDir string, recorder Recorder, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if downloadsDir == "" {
		downloadsDir = "kaggle_downloads"
	}
	return &Importer{
		source:       source,
		downloadsDir: downloadsDir,
		recorder:     recorder,
		logger:       logger.Named("import"),
		now:          time.Now,
	}
}

// Import downloads datasetID into <downloads>/<projectID> and profiles it.
// Without credentials, or when the download fails, a mock CSV is written
// instead and the result reports source mock-data.
func (im *Importer) Import(ctx context.Context, datasetID, projectID string) (ImportResult, error) {
	datasetID = strings.TrimSpace(datasetID)
	if projectID == "" {
		projectID = DefaultProject
	}
	if !projectPattern.MatchString(projectID) {
		return ImportResult{}, fmt.Errorf("%w: %q", ErrInvalidProject, projectID)
	}
	dir := filepath.Join(im.downloadsDir, projectID)
	if err := utils.EnsureDir(dir); err != nil {
		return ImportResult{}, fmt.Errorf("create download dir: %w", err)
	}

	res := ImportResult{DatasetID: datasetID, ProjectID: projectID, DownloadPath: dir}
	live := false
	if im.source != nil && im.source.Configured() {
		err := im.source.Download(ctx, datasetID, dir)
		switch {
		case errors.Is(err, catalog.ErrInvalidRef):
			return ImportResult{}, err
		case err != nil:
			im.logger.Warn("catalog download failed; writing mock data",
				zap.String("dataset", datasetID), zap.Error(err))
		default:
			live = true
		}
	}

	var err error
	if live {
		res.Source = catalog.SourceAPI
		res.Files, res.Analysis, err = im.analyzeDownload(dir, datasetID)
	} else {
		res.Source = catalog.SourceMock
		res.Files, res.Analysis, err = im.writeMock(dir, datasetID)
	}
	if err != nil {
		return ImportResult{}, err
	}
	im.record(ctx, res)
	return res, nil
}

func (im *Importer) analyzeDownload(dir, datasetID string) ([]string, analysis.DatasetAnalysis, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, analysis.DatasetAnalysis{}, fmt.Errorf("read download dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	target := pickAnalysisFile(files)
	if target == "" {
		im.logger.Info("no tabular file in download; using mock profile", zap.String("dataset", datasetID))
		return files, mockAnalysis(datasetID), nil
	}
	a, err := analysis.AnalyzeFile(filepath.Join(dir, target))
	if err != nil {
		im.logger.Warn("analysis of downloaded file failed; using mock profile",
			zap.String("file", target), zap.Error(err))
		return files, mockAnalysis(datasetID), nil
	}
	return files, a, nil
}

// pickAnalysisFile prefers the first CSV, then any other tabular file.
func pickAnalysisFile(files []string) string {
	for _, f := range files {
		if strings.EqualFold(filepath.Ext(f), ".csv") {
			return f
		}
	}
	for _, f := range files {
		if format, ok := analysis.DetectFormat(f); ok && format.Tabular() {
			return f
		}
	}
	return ""
}

func (im *Importer) writeMock(dir, datasetID string) ([]string, analysis.DatasetAnalysis, error) {
	csvPath := filepath.Join(dir, mockDataFile)
	if err := utils.SafeWriteFile(csvPath, []byte(analysis.MockCSV(datasetID))); err != nil {
		return nil, analysis.DatasetAnalysis{}, err
	}
	info := fmt.Sprintf("Mock dataset generated for: %s\nCreated: %s", datasetID, im.now().UTC().Format(time.RFC3339))
	if err := utils.SafeWriteFile(filepath.Join(dir, mockInfoFile), []byte(info)); err != nil {
		return nil, analysis.DatasetAnalysis{}, err
	}
	a, err := analysis.AnalyzeFile(csvPath)
	if err != nil {
		return nil, analysis.DatasetAnalysis{}, fmt.Errorf("analyze mock data: %w", err)
	}
	return []string{mockDataFile, mockInfoFile}, a, nil
}

func mockAnalysis(datasetID string) analysis.DatasetAnalysis {
	t, err := analysis.LoadDelimited(strings.NewReader(analysis.MockCSV(datasetID)), ',')
	if err != nil {
		return analysis.Analyze(nil, nil)
	}
	a := analysis.Analyze(t.Rows, t.Columns)
	a.Name = mockDataFile
	a.Format = string(analysis.FormatCSV)
	return a
}

func (im *Importer) record(ctx context.Context, res ImportResult) {
	if im.recorder == nil {
		return
	}
	rec := &store.ImportRecord{
		DatasetRef:   res.DatasetID,
		ProjectID:    res.ProjectID,
		Source:       res.Source,
		DownloadPath: res.DownloadPath,
		TotalRows:    res.Analysis.TotalRows,
		TotalColumns: res.Analysis.TotalColumns,
		DataQuality:  string(res.Analysis.DataQuality),
	}
	if err := im.recorder.Record(ctx, rec); err != nil {
		im.logger.Warn("failed to record import", zap.String("dataset", res.DatasetID), zap.Error(err))
	}
}
