// Package api exposes the dataset pipeline over HTTP.
package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/KaramelBytes/aistudio/internal/catalog"
	"github.com/KaramelBytes/aistudio/internal/datasets"
	"github.com/KaramelBytes/aistudio/internal/forwarder"
	"github.com/KaramelBytes/aistudio/internal/metrics"
	"github.com/KaramelBytes/aistudio/internal/recommend"
	"github.com/KaramelBytes/aistudio/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

// Deps are the components the handlers call. Store and Metrics may be nil.
type Deps struct {
	Catalog     *catalog.Service
	Synthesizer *recommend.Synthesizer
	Importer    *datasets.Importer
	AutoFetcher *datasets.AutoFetcher
	Forwarder   *forwarder.Forwarder
	Store       *store.Store
	Metrics     *metrics.Metrics
	Logger      *zap.Logger

	// Production hides internal error details from responses.
	Production     bool
	MaxUploadBytes int64
	Version        string
}

type Server struct {
	deps   Deps
	logger *zap.Logger
}

// NewRouter wires middleware and routes.
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = 100 << 20
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	s := &Server{deps: deps, logger: deps.Logger.Named("api")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(s.recoverer)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/kaggle", func(r chi.Router) {
			r.Get("/search", s.search)
			r.Post("/import", s.importDataset)
			r.Post("/auto-fetch", s.autoFetch)
			r.Get("/info/*", s.info)
			r.Get("/imports", s.imports)
		})
		r.Post("/recommend", s.recommend)
		r.Post("/datasets/analyze", s.analyze)
		r.Post("/process", s.process)
		r.Get("/download/{filename}", s.download)
	})
	return r
}

// recoverer turns panics into the internal-error envelope.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logger.Error("panic in handler",
				zap.Any("panic", rec),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.ByteString("stack", debug.Stack()),
			)
			s.internal(w, r, fmt.Errorf("panic: %v", rec))
		}()
		next.ServeHTTP(w, r)
	})
}

// internal writes a 500; the error text is included outside production only.
func (s *Server) internal(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	body := Envelope{Success: false, Message: "Internal server error"}
	if !s.deps.Production {
		body.Error = err.Error()
	}
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, body)
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Service   string    `json:"service"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse{Status: "ok", Timestamp: time.Now().UTC(), Version: s.deps.Version, Service: "aistudio"})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		if err := s.deps.Store.Ping(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
			unavailable(w, r, "database unavailable")
			return
		}
	}
	render.JSON(w, r, healthResponse{Status: "ready", Timestamp: time.Now().UTC(), Version: s.deps.Version, Service: "aistudio"})
}
