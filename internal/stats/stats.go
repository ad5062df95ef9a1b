// Package stats reports the live article and researcher totals shown on the
// OLASIS landing page.
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/olasis/olasis-service/internal/observability"
	"github.com/olasis/olasis-service/internal/sources"
)

// Values served when an upstream count is unavailable.
const (
	FallbackArticles    int64 = 200_000_000
	FallbackSpecialists int64 = 20_005_117
)

// DefaultCacheTTL is how long a snapshot is reused.
const DefaultCacheTTL = 5 * time.Minute

// Snapshot is a point-in-time pair of totals.
type Snapshot struct {
	Articles    int64     `json:"articles"`
	Specialists int64     `json:"specialists"`
	LastUpdated time.Time `json:"last_updated"`
}

// Config configures the Service.
type Config struct {
	// CacheTTL of zero disables caching.
	CacheTTL            time.Duration
	ArticlesFallback    int64
	SpecialistsFallback int64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL:            DefaultCacheTTL,
		ArticlesFallback:    FallbackArticles,
		SpecialistsFallback: FallbackSpecialists,
	}
}

// Service computes and caches Snapshots.
type Service struct {
	articles    sources.ArticleCounter
	researchers sources.ResearcherCounter
	config      Config
	metrics     *observability.Metrics
	logger      zerolog.Logger
	now         func() time.Time

	mu       sync.Mutex
	cached   Snapshot
	cachedAt time.Time
}

// NewService creates a Service. Non-positive fallbacks use the package
// defaults. metrics may be nil.
func NewService(articles sources.ArticleCounter, researchers sources.ResearcherCounter, cfg Config, metrics *observability.Metrics, logger zerolog.Logger) *Service {
	if cfg.ArticlesFallback <= 0 {
		cfg.ArticlesFallback = FallbackArticles
	}
	if cfg.SpecialistsFallback <= 0 {
		cfg.SpecialistsFallback = FallbackSpecialists
	}
	return &Service{
		articles:    articles,
		researchers: researchers,
		config:      cfg,
		metrics:     metrics,
		logger:      logger.With().Str("component", "stats").Logger(),
		now:         time.Now,
	}
}

// Snapshot returns the current totals. It never fails: an unavailable
// upstream is replaced by its fallback value. Only fully live snapshots are
// cached, and the counts outlive a cancelled caller so one dropped request
// cannot force fallbacks.
func (s *Service) Snapshot(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.config.CacheTTL > 0 && !s.cachedAt.IsZero() && now.Sub(s.cachedAt) < s.config.CacheTTL {
		return s.cached
	}

	ctx = context.WithoutCancel(ctx)
	var (
		wg                    sync.WaitGroup
		articles, researchers int64
		articlesOK, peopleOK  bool
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		articles, articlesOK = s.count(ctx, sources.SourceOpenAlex, s.articles.CountArticles, s.config.ArticlesFallback)
	}()
	go func() {
		defer wg.Done()
		researchers, peopleOK = s.count(ctx, sources.SourceORCID, s.researchers.CountResearchers, s.config.SpecialistsFallback)
	}()
	wg.Wait()

	snap := Snapshot{
		Articles:    articles,
		Specialists: researchers,
		LastUpdated: now.UTC(),
	}
	if articlesOK && peopleOK {
		s.cached, s.cachedAt = snap, now
	}
	return snap
}

// count returns the live value of fn, or fallback and false.
func (s *Service) count(ctx context.Context, source string, fn func(context.Context) (int64, error), fallback int64) (int64, bool) {
	n, err := fn(ctx)
	if err != nil || n <= 0 {
		s.logger.Warn().
			Err(err).
			Str("source", source).
			Int64("fallback", fallback).
			Msg("live count unavailable; serving fallback")
		s.metrics.RecordStatsFallback(source)
		return fallback, false
	}
	return n, true
}
