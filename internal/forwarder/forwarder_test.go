package forwarder

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newForwarder(t *testing.T, h http.HandlerFunc, cfg Config) *Forwarder {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL + "/"
	return New(cfg, nil)
}

func blockUntilDone(w http.ResponseWriter, r *http.Request) {
	select {
	case <-r.Context().Done():
	case <-time.After(5 * time.Second):
		w.WriteHeader(http.StatusOK)
	}
}

func TestProcess_SuccessReshaped(t *testing.T) {
	f := newForwarder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/process", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "classify reviews", r.FormValue("text_prompt"))
		assert.Equal(t, "sentiment_analysis", r.FormValue("task_type"))
		file, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "reviews.csv", hdr.Filename)
		assert.Equal(t, "text,label\n", string(data))
		_, _, err = r.FormFile("folder_zip")
		assert.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"download_url":"http://ml:5001/api/download/model_42.zip?sig=abc",
			"visualizations":{"b":"p3","a":["p1","p2"]},"detected_task_type":"sentiment_analysis"}`)
	}, Config{})

	res, err := f.Process(context.Background(), ProcessRequest{
		Files: []Upload{
			{Field: "file", Filename: "reviews.csv", Body: strings.NewReader("text,label\n")},
			{Field: "folder_zip", Filename: "imgs.zip", Body: bytes.NewReader([]byte("PK"))},
		},
		TextPrompt: "classify reviews",
		TaskType:   "sentiment_analysis",
	})
	require.NoError(t, err)
	ok, isSuccess := res.(Success)
	require.True(t, isSuccess, "got %T", res)
	assert.Equal(t, http.StatusOK, ok.HTTPStatus())
	assert.Equal(t, "/api/download/model_42.zip", ok.Data["download_url"])
	assert.Equal(t, map[string]any{"plots": []any{"p1", "p2", "p3"}}, ok.Data["visualizations"])
	assert.Equal(t, "sentiment_analysis", ok.Data["detected_task_type"])
}

func TestProcess_ResultVariants(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		want    Result
		httpOut int
	}{
		{"upstream error status", 422, `{"error":"unsupported task"}`, ErrorResponse{Status: 422, Message: "unsupported task"}, 422},
		{"error field on 200", 200, `{"error":{"message":"model crashed"}}`, ErrorResponse{Status: 200, Message: "model crashed"}, 500},
		{"non-json failure", 503, "<html>down</html>", ErrorResponse{Status: 503, Message: "<html>down</html>"}, 503},
		{"json failure without error", 500, `{"detail":"x"}`, ErrorResponse{Status: 500, Message: "Internal Server Error"}, 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newForwarder(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			}, Config{})
			res, err := f.Process(context.Background(), ProcessRequest{TaskType: "classification"})
			require.NoError(t, err)
			assert.Equal(t, tc.want, res)
			assert.Equal(t, tc.httpOut, res.HTTPStatus())
		})
	}
}

func TestProcess_Malformed(t *testing.T) {
	for _, body := range []string{"not json", "[1,2]", "null"} {
		f := newForwarder(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		}, Config{})
		res, err := f.Process(context.Background(), ProcessRequest{})
		require.NoError(t, err)
		m, ok := res.(Malformed)
		require.True(t, ok, "%q gave %T", body, res)
		assert.Error(t, m.Err)
		assert.Equal(t, http.StatusBadGateway, res.HTTPStatus())
	}
}

func TestProcess_TimeoutIsDistinct(t *testing.T) {
	f := newForwarder(t, blockUntilDone, Config{ProcessTimeout: 50 * time.Millisecond})

	start := time.Now()
	res, err := f.Process(context.Background(), ProcessRequest{TaskType: "classification"})
	assert.Nil(t, res)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.False(t, errors.Is(err, ErrUnavailable))
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "process", te.Op)
	assert.Equal(t, 50*time.Millisecond, te.After)
}

func TestProcess_CallerCancelIsNotTimeout(t *testing.T) {
	f := newForwarder(t, blockUntilDone, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)
	_, err := f.Process(ctx, ProcessRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestProcess_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := New(Config{BaseURL: base}, nil).Process(context.Background(), ProcessRequest{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestDownload(t *testing.T) {
	f := newForwarder(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/download/model.zip":
			w.Header().Set("Content-Type", "application/zip")
			io.WriteString(w, "PKzipbytes")
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"File not found"}`)
		}
	}, Config{})

	d, err := f.Download(context.Background(), "model.zip")
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = f.Copy(&buf, d)
	require.NoError(t, err)
	require.NoError(t, d.Close())
	assert.Equal(t, "PKzipbytes", buf.String())
	assert.Equal(t, "application/zip", d.ContentType)
	assert.Equal(t, `attachment; filename="model.zip"`, d.ContentDisposition)

	_, err = f.Download(context.Background(), "missing.zip")
	var er ErrorResponse
	require.ErrorAs(t, err, &er)
	assert.Equal(t, 404, er.Status)
	assert.Equal(t, "File not found", er.Message)

	for _, bad := range []string{"", "..", "../etc/passwd", `a\b`} {
		_, err = f.Download(context.Background(), bad)
		assert.ErrorIs(t, err, ErrInvalidFilename, bad)
	}
}

func TestDownload_Timeout(t *testing.T) {
	f := newForwarder(t, blockUntilDone, Config{DownloadTimeout: 40 * time.Millisecond})
	_, err := f.Download(context.Background(), "slow.zip")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestReshape(t *testing.T) {
	assert.Nil(t, Reshape(nil))

	got := Reshape(map[string]any{"visualizations": []any{"a"}})
	assert.Equal(t, map[string]any{"plots": []any{"a"}}, got["visualizations"])

	withPlots := map[string]any{"plots": []any{"x"}, "other": 1}
	got = Reshape(map[string]any{"visualizations": withPlots})
	assert.Equal(t, withPlots, got["visualizations"])

	got = Reshape(map[string]any{"download_url": "/files/out/pkg.tar.gz"})
	assert.Equal(t, "/api/download/pkg.tar.gz", got["download_url"])

	got = Reshape(map[string]any{"accuracy": 0.9})
	assert.Equal(t, map[string]any{"accuracy": 0.9}, got)
}
