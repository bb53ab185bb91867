package catalog

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound is returned by Info when neither the curated list nor the CLI knows ref.
var ErrNotFound = errors.New("dataset not found and catalog API not configured")

// Source is the subset of Client the Service depends on.
type Source interface {
	Configured() bool
	Search(ctx context.Context, q Query) ([]Entry, error)
	Download(ctx context.Context, ref, dir string) error
	Show(ctx context.Context, ref string) (string, error)
}

// SearchResult carries entries plus their provenance.
type SearchResult struct {
	Entries []Entry `json:"entries"`
	Source  string  `json:"source"`
	// Degraded holds the upstream failure when Source is the fallback.
	Degraded error `json:"-"`
}

// Live reports whether the entries came from the external catalog.
func (r SearchResult) Live() bool { return r.Source == SourceAPI }

// InfoResult is either a curated entry or raw CLI output.
type InfoResult struct {
	Ref    string `json:"ref"`
	Entry  *Entry `json:"entry,omitempty"`
	Info   string `json:"info,omitempty"`
	Source string `json:"source"`
}

// Service composes the external catalog with the curated fallback.
type Service struct {
	src    Source
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables result caching for ttl.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.ttl = ttl
	}
}

// NewService builds a Service. logger may be nil.
func NewService(src Source, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{src: src, logger: logger.Named("catalog")}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Configured reports whether the external catalog is usable.
func (s *Service) Configured() bool { return s.src != nil && s.src.Configured() }

// Source exposes the underlying catalog source.
func (s *Service) Source() Source { return s.src }

// Search never fails: any upstream failure degrades to the filtered fallback list.
func (s *Service) Search(ctx context.Context, q Query) SearchResult {
	q = q.Normalize()
	key := CacheKey(q)
	if s.cache != nil && s.Configured() {
		entries, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.Debug("cache read failed", zap.String("key", key), zap.Error(err))
		case ok:
			return SearchResult{Entries: entries, Source: SourceAPI}
		}
	}

	var err error
	if s.src == nil {
		err = &UpstreamFailure{Kind: Unavailable, Op: "search", Err: ErrNotConfigured}
	} else {
		var entries []Entry
		entries, err = s.src.Search(ctx, q)
		if err == nil {
			if s.cache != nil {
				if cerr := s.cache.Set(ctx, key, entries, s.ttl); cerr != nil {
					s.logger.Debug("cache write failed", zap.String("key", key), zap.Error(cerr))
				}
			}
			return SearchResult{Entries: entries, Source: SourceAPI}
		}
	}

	s.logger.Warn("catalog search degraded to curated list",
		zap.String("query", q.Text),
		zap.Error(err),
	)
	return SearchResult{Entries: Filter(Fallback(), q.Text), Source: SourceMock, Degraded: err}
}

// Info resolves ref from the curated list first, then the CLI.
func (s *Service) Info(ctx context.Context, ref string) (InfoResult, error) {
	if e, ok := FindFallback(ref); ok {
		return InfoResult{Ref: ref, Entry: &e, Source: SourceMock}, nil
	}
	if !s.Configured() {
		return InfoResult{}, ErrNotFound
	}
	out, err := s.src.Show(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrInvalidRef) {
			return InfoResult{}, err
		}
		s.logger.Warn("catalog show failed", zap.String("ref", ref), zap.Error(err))
		return InfoResult{}, ErrNotFound
	}
	return InfoResult{Ref: ref, Info: out, Source: SourceAPI}, nil
}
