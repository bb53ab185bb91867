// Package forwarder relays processing jobs and downloads to the external ML
// service under bounded waits and normalizes what comes back.
package forwarder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxResponseBytes = 32 << 20

// Upload is one file part. Field is "file" or "folder_zip".
type Upload struct {
	Field    string
	Filename string
	Body     io.Reader
}

// ProcessRequest is the multipart job sent to <base>/process.
type ProcessRequest struct {
	Files      []Upload
	TextPrompt string
	TaskType   string
}

type Config struct {
	BaseURL         string
	ProcessTimeout  time.Duration
	DownloadTimeout time.Duration
	HTTPClient      *http.Client
}

type Forwarder struct {
	baseURL         string
	client          *http.Client
	processTimeout  time.Duration
	downloadTimeout time.Duration
	logger          *zap.Logger
}

// New builds a Forwarder. Zero timeouts default to 120 minutes for
// processing and 2 minutes for downloads.
func New(cfg Config, logger *zap.Logger) *Forwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Forwarder{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		client:          cfg.HTTPClient,
		processTimeout:  cfg.ProcessTimeout,
		downloadTimeout: cfg.DownloadTimeout,
		logger:          logger.Named("forwarder"),
	}
	if f.client == nil {
		f.client = &http.Client{}
	}
	if f.processTimeout <= 0 {
		f.processTimeout = 120 * time.Minute
	}
	if f.downloadTimeout <= 0 {
		f.downloadTimeout = 2 * time.Minute
	}
	return f
}

// Process streams req to the processing service. Transport failures are
// returned as errors (TimeoutError or ErrUnavailable); every HTTP answer is a Result.
func (f *Forwarder) Process(ctx context.Context, req ProcessRequest) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.processTimeout)
	defer cancel()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(mw, req))
	}()
	defer pr.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/process", pr)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, f.transportErr(ctx, "process", f.processTimeout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, f.transportErr(ctx, "process", f.processTimeout, err)
	}
	res := classify(resp.StatusCode, body)
	f.logger.Info("processing job answered",
		zap.Int("status", resp.StatusCode),
		zap.String("result", fmt.Sprintf("%T", res)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func writeForm(mw *multipart.Writer, req ProcessRequest) error {
	for _, u := range req.Files {
		field := u.Field
		if field == "" {
			field = "file"
		}
		part, err := mw.CreateFormFile(field, u.Filename)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, u.Body); err != nil {
			return fmt.Errorf("copy %s: %w", u.Filename, err)
		}
	}
	if req.TextPrompt != "" {
		if err := mw.WriteField("text_prompt", req.TextPrompt); err != nil {
			return err
		}
	}
	if req.TaskType != "" {
		if err := mw.WriteField("task_type", req.TaskType); err != nil {
			return err
		}
	}
	return mw.Close()
}

func classify(status int, body []byte) Result {
	var data map[string]any
	decodeErr := json.Unmarshal(bytes.TrimSpace(body), &data)
	if decodeErr == nil && data == nil {
		decodeErr = errors.New("response body is not a JSON object")
	}
	ok := status >= 200 && status < 300
	switch {
	case decodeErr != nil && ok:
		return Malformed{Status: status, Err: decodeErr}
	case decodeErr != nil:
		msg := strings.TrimSpace(string(body))
		if msg == "" || len(msg) > 512 {
			msg = http.StatusText(status)
		}
		return ErrorResponse{Status: status, Message: msg}
	}
	if e, has := data["error"]; has && e != nil {
		return ErrorResponse{Status: status, Message: errorMessage(e)}
	}
	if !ok {
		msg := http.StatusText(status)
		if m, isStr := data["message"].(string); isStr && m != "" {
			msg = m
		}
		return ErrorResponse{Status: status, Message: msg}
	}
	return Success{Status: status, Data: Reshape(data)}
}

func errorMessage(v any) string {
	switch e := v.(type) {
	case string:
		return e
	case map[string]any:
		if m, ok := e["message"].(string); ok {
			return m
		}
	}
	raw, _ := json.Marshal(v)
	return string(raw)
}

func (f *Forwarder) transportErr(ctx context.Context, op string, after time.Duration, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		f.logger.Warn("processing service timed out", zap.String("op", op), zap.Duration("after", after))
		return &TimeoutError{Op: op, After: after}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}

// Download is an open download stream. Close releases the upstream
// connection and the timeout context.
type Download struct {
	Body               io.ReadCloser
	ContentType        string
	ContentDisposition string
	ContentLength      int64
	cancel             context.CancelFunc
}

func (d *Download) Close() error {
	err := d.Body.Close()
	d.cancel()
	return err
}

// Download opens <base>/api/download/<filename> under the download timeout.
// Non-2xx answers are returned as ErrorResponse errors.
func (f *Forwarder) Download(ctx context.Context, filename string) (*Download, error) {
	if filename == "" || strings.ContainsAny(filename, `/\`) || filename == "." || filename == ".." {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	ctx, cancel := context.WithTimeout(ctx, f.downloadTimeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+DownloadPrefix+url.PathEscape(filename), nil)
	if err != nil {
		cancel()
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		defer cancel()
		return nil, f.transportErr(ctx, "download", f.downloadTimeout, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer cancel()
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if er, ok := classify(resp.StatusCode, body).(ErrorResponse); ok {
			return nil, er
		}
		return nil, ErrorResponse{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	cd := resp.Header.Get("Content-Disposition")
	if cd == "" {
		cd = fmt.Sprintf("attachment; filename=%q", filename)
	}
	return &Download{
		Body:               resp.Body,
		ContentType:        ct,
		ContentDisposition: cd,
		ContentLength:      resp.ContentLength,
		cancel:             cancel,
	}, nil
}

// Copy streams d to w. A deadline hit mid-stream is reported as a TimeoutError.
func (f *Forwarder) Copy(w io.Writer, d *Download) (int64, error) {
	n, err := io.Copy(w, d.Body)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return n, &TimeoutError{Op: "download", After: f.downloadTimeout}
	}
	return n, err
}
