package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/aistudio/internal/analysis"
	"github.com/KaramelBytes/aistudio/internal/catalog"
	"github.com/KaramelBytes/aistudio/internal/forwarder"
	"github.com/KaramelBytes/aistudio/internal/ranking"
	"github.com/KaramelBytes/aistudio/internal/recommend"
	"github.com/KaramelBytes/aistudio/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

const (
	maxFieldBytes     = 64 << 10
	recommendTopCount = 5
)

type recommendRequest struct {
	Topic       string `json:"topic"`
	Description string `json:"description"`
	TaskType    string `json:"taskType"`
}

type recommendResponse struct {
	Recommendation recommend.Recommendation  `json:"recommendation"`
	Candidates     []ranking.ScoredCandidate `json:"candidates"`
	FromShortlist  bool                      `json:"fromShortlist"`
}

func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		validationFailed(w, r, FieldError{Field: "body", Message: "invalid JSON: " + err.Error()})
		return
	}
	var errs []FieldError
	if strings.TrimSpace(req.Topic) == "" {
		errs = append(errs, FieldError{Field: "topic", Message: "topic is required"})
	}
	if req.TaskType != "" {
		if _, valid := recommend.ParseTaskType(req.TaskType); !valid {
			errs = append(errs, FieldError{Field: "taskType", Message: "unknown task type"})
		}
	}
	if len(errs) > 0 {
		validationFailed(w, r, errs...)
		return
	}

	rec := s.deps.Synthesizer.Recommend(r.Context(), req.Topic, req.Description, req.TaskType)
	s.deps.Metrics.Recommended(rec.Origin)
	found := s.deps.Catalog.Search(r.Context(), catalog.Query{Text: req.Topic})
	s.deps.Metrics.SearchServed(found.Source)
	ranked := ranking.Rank(found.Entries, rec, rec.IdealDatasetSize)
	cands := ranked.Candidates
	if len(cands) > recommendTopCount {
		cands = cands[:recommendTopCount]
	}
	ok(w, r, "Recommendation generated", recommendResponse{
		Recommendation: rec,
		Candidates:     cands,
		FromShortlist:  ranked.FromShortlist,
	}, map[string]string{"source": found.Source})
}

func (s *Server) tooLarge(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusRequestEntityTooLarge)
	render.JSON(w, r, Envelope{
		Success: false,
		Message: "Upload too large",
		Errors:  []FieldError{{Field: "file", Message: fmt.Sprintf("uploads are limited to %d MB", s.deps.MaxUploadBytes>>20)}},
	})
}

// multipartErr maps a body-reading failure to a response.
func (s *Server) multipartErr(w http.ResponseWriter, r *http.Request, err error) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		s.tooLarge(w, r)
		return
	}
	validationFailed(w, r, FieldError{Field: "file", Message: "invalid multipart body: " + err.Error()})
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.deps.MaxUploadBytes)
	mr, err := r.MultipartReader()
	if err != nil {
		validationFailed(w, r, FieldError{Field: "file", Message: "a multipart/form-data upload is required"})
		return
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.multipartErr(w, r, err)
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}
		s.analyzePart(w, r, part)
		return
	}
	validationFailed(w, r, FieldError{Field: "file", Message: "file is required"})
}

func (s *Server) analyzePart(w http.ResponseWriter, r *http.Request, part *multipart.Part) {
	defer part.Close()
	name := filepath.Base(part.FileName())
	if _, known := analysis.DetectFormat(name); !known {
		validationFailed(w, r, FieldError{Field: "file", Message: "unsupported file type " + filepath.Ext(name)})
		return
	}

	var (
		result     analysis.DatasetAnalysis
		analyzeErr error
	)
	err := utils.WithTempFile("", "upload-", filepath.Ext(name), part, func(path string) error {
		result, analyzeErr = analysis.AnalyzeFile(path)
		return nil
	})
	if err != nil {
		s.multipartErr(w, r, err)
		return
	}
	if analyzeErr != nil {
		validationFailed(w, r, FieldError{Field: "file", Message: "could not parse file: " + analyzeErr.Error()})
		return
	}
	result.Name = name
	ok(w, r, "Dataset analyzed", result, nil)
}

// spooledUpload is a file part held in a temp file until the job is relayed.
type spooledUpload struct {
	field    string
	filename string
	sink     *utils.TempSink
}

func (s *Server) process(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.deps.MaxUploadBytes)
	mr, err := r.MultipartReader()
	if err != nil {
		validationFailed(w, r, FieldError{Field: "body", Message: "a multipart/form-data body is required"})
		return
	}

	var (
		uploads []spooledUpload
		req     forwarder.ProcessRequest
	)
	defer func() {
		for _, u := range uploads {
			if err := u.sink.Release(); err != nil {
				s.logger.Warn("temp upload cleanup failed", zap.String("path", u.sink.Path()), zap.Error(err))
			}
		}
	}()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.multipartErr(w, r, err)
			return
		}
		switch field := part.FormName(); field {
		case "file", "folder_zip":
			sink, err := utils.NewTempSink("", "relay-*"+filepath.Ext(part.FileName()))
			if err != nil {
				part.Close()
				s.internal(w, r, err)
				return
			}
			uploads = append(uploads, spooledUpload{field: field, filename: filepath.Base(part.FileName()), sink: sink})
			_, err = io.Copy(sink, part)
			part.Close()
			if err == nil {
				err = sink.Flush()
			}
			if err != nil {
				s.multipartErr(w, r, err)
				return
			}
		case "text_prompt", "task_type":
			b, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
			part.Close()
			if err != nil {
				s.multipartErr(w, r, err)
				return
			}
			if field == "text_prompt" {
				req.TextPrompt = strings.TrimSpace(string(b))
			} else {
				req.TaskType = strings.TrimSpace(string(b))
			}
		default:
			part.Close()
		}
	}
	if len(uploads) == 0 && req.TextPrompt == "" {
		validationFailed(w, r, FieldError{Field: "file", Message: "a file, folder_zip or text_prompt is required"})
		return
	}

	for _, u := range uploads {
		f, err := os.Open(u.sink.Path())
		if err != nil {
			s.internal(w, r, err)
			return
		}
		defer f.Close()
		req.Files = append(req.Files, forwarder.Upload{Field: u.field, Filename: u.filename, Body: f})
	}

	res, err := s.deps.Forwarder.Process(r.Context(), req)
	if err != nil {
		s.forwardFailure(w, r, "process", err)
		return
	}
	switch res := res.(type) {
	case forwarder.Success:
		s.deps.Metrics.Forward("process", "success")
		render.Status(r, http.StatusOK)
		render.JSON(w, r, res.Data)
	case forwarder.ErrorResponse:
		s.deps.Metrics.Forward("process", "error_response")
		upstreamError(w, r, res.HTTPStatus(), res.Message)
	case forwarder.Malformed:
		s.deps.Metrics.Forward("process", "malformed")
		s.logger.Warn("malformed processing response", zap.Int("status", res.Status), zap.Error(res.Err))
		upstreamError(w, r, res.HTTPStatus(), "processing service returned an unreadable response")
	default:
		s.internal(w, r, fmt.Errorf("unhandled forwarder result %T", res))
	}
}

// forwardFailure maps transport-level forwarder errors.
func (s *Server) forwardFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	var er forwarder.ErrorResponse
	switch {
	case errors.Is(err, forwarder.ErrTimeout):
		s.deps.Metrics.Forward(op, "timeout")
		timedOut(w, r, err)
	case errors.Is(err, forwarder.ErrUnavailable):
		s.deps.Metrics.Forward(op, "unavailable")
		upstreamError(w, r, http.StatusBadGateway, err.Error())
	case errors.As(err, &er):
		s.deps.Metrics.Forward(op, "error_response")
		upstreamError(w, r, er.HTTPStatus(), er.Message)
	case errors.Is(err, forwarder.ErrInvalidFilename):
		validationFailed(w, r, FieldError{Field: "filename", Message: err.Error()})
	case errors.Is(err, context.Canceled):
		s.logger.Debug("client went away", zap.String("op", op))
	default:
		s.internal(w, r, err)
	}
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	d, err := s.deps.Forwarder.Download(r.Context(), filename)
	if err != nil {
		s.forwardFailure(w, r, "download", err)
		return
	}
	defer d.Close()
	s.deps.Metrics.Forward("download", "success")

	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", d.ContentDisposition)
	if d.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(d.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := s.deps.Forwarder.Copy(w, d); err != nil {
		s.logger.Warn("download stream interrupted", zap.String("file", filename), zap.Error(err))
	}
}
