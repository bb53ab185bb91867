package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/KaramelBytes/aistudio/internal/catalog"
	"github.com/KaramelBytes/aistudio/internal/datasets"
	"github.com/KaramelBytes/aistudio/internal/recommend"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

const maxPageSize = 100

type searchMetadata struct {
	Query  string `json:"query"`
	Page   int    `json:"page"`
	Size   int    `json:"size"`
	Sort   string `json:"sort"`
	Source string `json:"source"`
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := catalog.Query{Text: params.Get("q"), Sort: params.Get("sort")}

	var errs []FieldError
	if v := params.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs = append(errs, FieldError{Field: "page", Message: "page must be a positive integer"})
		}
		q.Page = n
	}
	if v := params.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPageSize {
			errs = append(errs, FieldError{Field: "size", Message: fmt.Sprintf("size must be between 1 and %d", maxPageSize)})
		}
		q.PageSize = n
	}
	if q.Sort != "" && !catalog.ValidSort(q.Sort) {
		errs = append(errs, FieldError{Field: "sort", Message: "sort must be one of " + strings.Join(catalog.SortOrders, ", ")})
	}
	if len(errs) > 0 {
		validationFailed(w, r, errs...)
		return
	}

	q = q.Normalize()
	res := s.deps.Catalog.Search(r.Context(), q)
	s.deps.Metrics.SearchServed(res.Source)
	entries := res.Entries
	if entries == nil {
		entries = []catalog.Entry{}
	}
	ok(w, r, fmt.Sprintf("Found %d datasets", len(entries)), entries, searchMetadata{
		Query:  q.Text,
		Page:   q.Page,
		Size:   q.PageSize,
		Sort:   q.Sort,
		Source: res.Source,
	})
}

type importRequest struct {
	DatasetID string `json:"datasetId"`
	ProjectID string `json:"projectId"`
}

func (s *Server) importDataset(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		validationFailed(w, r, FieldError{Field: "body", Message: "invalid JSON: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.DatasetID) == "" {
		validationFailed(w, r, FieldError{Field: "datasetId", Message: "datasetId is required"})
		return
	}

	res, err := s.deps.Importer.Import(r.Context(), req.DatasetID, req.ProjectID)
	switch {
	case errors.Is(err, datasets.ErrInvalidProject):
		validationFailed(w, r, FieldError{Field: "projectId", Message: "projectId may contain only letters, digits, '-' and '_'"})
		return
	case errors.Is(err, catalog.ErrInvalidRef):
		validationFailed(w, r, FieldError{Field: "datasetId", Message: "datasetId must look like owner/dataset"})
		return
	case err != nil:
		s.internal(w, r, err)
		return
	}
	s.deps.Metrics.Imported(res.Source)
	ok(w, r, "Dataset imported successfully", res, nil)
}

type autoFetchRequest struct {
	Topic         string `json:"topic"`
	PreferredSize string `json:"preferredSize"`
}

func (s *Server) autoFetch(w http.ResponseWriter, r *http.Request) {
	var req autoFetchRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		validationFailed(w, r, FieldError{Field: "body", Message: "invalid JSON: " + err.Error()})
		return
	}
	var errs []FieldError
	if strings.TrimSpace(req.Topic) == "" {
		errs = append(errs, FieldError{Field: "topic", Message: "topic is required"})
	}
	req.PreferredSize = strings.ToLower(strings.TrimSpace(req.PreferredSize))
	if req.PreferredSize != "" && !recommend.ValidSize(req.PreferredSize) {
		errs = append(errs, FieldError{Field: "preferredSize", Message: "preferredSize must be small, medium or large"})
	}
	if len(errs) > 0 {
		validationFailed(w, r, errs...)
		return
	}

	res, err := s.deps.AutoFetcher.AutoFetch(r.Context(), req.Topic, req.PreferredSize)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	s.deps.Metrics.Recommended(res.Recommendation.Origin)
	s.deps.Metrics.Imported(res.Source)
	ok(w, r, "Dataset selected for "+strings.TrimSpace(req.Topic), res, nil)
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	ref := strings.Trim(chi.URLParam(r, "*"), "/")
	if ref == "" {
		validationFailed(w, r, FieldError{Field: "ref", Message: "dataset ref is required"})
		return
	}
	res, err := s.deps.Catalog.Info(r.Context(), ref)
	switch {
	case errors.Is(err, catalog.ErrInvalidRef):
		validationFailed(w, r, FieldError{Field: "ref", Message: "dataset ref must look like owner/dataset"})
	case errors.Is(err, catalog.ErrNotFound):
		notFound(w, r, "Dataset not found and Kaggle API not configured")
	case err != nil:
		s.internal(w, r, err)
	default:
		ok(w, r, "Dataset info", res, nil)
	}
}

func (s *Server) imports(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		unavailable(w, r, "import history is not configured")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			validationFailed(w, r, FieldError{Field: "limit", Message: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	recs, err := s.deps.Store.List(r.Context(), r.URL.Query().Get("projectId"), limit)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	ok(w, r, fmt.Sprintf("Found %d imports", len(recs)), recs, nil)
}
