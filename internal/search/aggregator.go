// Package search aggregates article and specialist results into
// independently paginated pages.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/olasis/olasis-service/internal/domain"
	"github.com/olasis/olasis-service/internal/events"
	"github.com/olasis/olasis-service/internal/observability"
	"github.com/olasis/olasis-service/internal/sources"
)

const (
	// DefaultPerPage is the page size for both result lists.
	DefaultPerPage = 6

	// DefaultBatchSize is the number of records fetched from each source.
	DefaultBatchSize = 50
)

// Config configures the aggregator.
type Config struct {
	// PerPage is the page size (default: 6).
	PerPage int
	// BatchSize is the number of records fetched from each source (default: 50).
	BatchSize int
}

// Result is one page of aggregated search results.
type Result struct {
	Articles    []domain.ArticleRecord    `json:"articles"`
	Specialists []domain.SpecialistRecord `json:"specialists"`
	Pagination  Pagination                `json:"pagination"`
}

// Pagination carries the shared page number and per-source page info.
type Pagination struct {
	CurrentPage int             `json:"current_page"`
	PerPage     int             `json:"per_page"`
	Articles    domain.PageInfo `json:"articles"`
	Specialists domain.PageInfo `json:"specialists"`
}

// Aggregator fetches a batch from each source and pages through them
// independently.
type Aggregator struct {
	articles    sources.ArticleSearcher
	specialists sources.SpecialistSearcher
	config      Config
	emitter     *events.Emitter
	metrics     *observability.Metrics
	logger      zerolog.Logger
}

// NewAggregator creates an Aggregator. emitter and metrics may be nil.
func NewAggregator(
	articles sources.ArticleSearcher,
	specialists sources.SpecialistSearcher,
	cfg Config,
	emitter *events.Emitter,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Aggregator {
	if cfg.PerPage <= 0 {
		cfg.PerPage = DefaultPerPage
	}
	if cfg.BatchSize < cfg.PerPage {
		cfg.BatchSize = max(DefaultBatchSize, cfg.PerPage)
	}

	return &Aggregator{
		articles:    articles,
		specialists: specialists,
		config:      cfg,
		emitter:     emitter,
		metrics:     metrics,
		logger:      logger.With().Str("component", "search").Logger(),
	}
}

// Search returns page (clamped to at least 1) of the results for query.
// A blank query returns domain.ErrMissingQuery before any fetch. Sources
// that fail contribute empty lists.
func (a *Aggregator) Search(ctx context.Context, query string, page int) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrMissingQuery
	}
	if page < 1 {
		page = 1
	}

	start := time.Now()
	logger := observability.WithSearchContext(observability.LoggerFromContext(ctx, a.logger), query, "aggregate")

	var (
		wg          sync.WaitGroup
		articles    []domain.ArticleRecord
		specialists []domain.SpecialistRecord
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		found, err := a.articles.Search(ctx, query, a.config.BatchSize)
		if err != nil {
			logger.Warn().Err(err).Msg("article search failed")
			return
		}
		articles = found
	}()
	go func() {
		defer wg.Done()
		found, err := a.specialists.Search(ctx, query, a.config.BatchSize, "")
		if err != nil {
			logger.Warn().Err(err).Msg("specialist search failed")
			return
		}
		specialists = found
	}()
	wg.Wait()

	result := &Result{
		Articles:    pageOf(articles, page, a.config.PerPage),
		Specialists: pageOf(specialists, page, a.config.PerPage),
		Pagination: Pagination{
			CurrentPage: page,
			PerPage:     a.config.PerPage,
			Articles:    domain.NewPageInfo(page, a.config.PerPage, len(articles)),
			Specialists: domain.NewPageInfo(page, a.config.PerPage, len(specialists)),
		},
	}

	elapsed := time.Since(start)
	a.metrics.RecordSearch("ok", len(articles), len(specialists), elapsed.Seconds())
	a.emitter.Emit(ctx, domain.EventTypeSearchPerformed, observability.SessionIDFromContext(ctx), domain.SearchPerformedPayload{
		Query:            query,
		Page:             page,
		ArticlesTotal:    len(articles),
		SpecialistsTotal: len(specialists),
	})

	logger.Info().
		Int("page", page).
		Int("articles_total", len(articles)).
		Int("specialists_total", len(specialists)).
		Dur("duration", elapsed).
		Msg("search completed")

	return result, nil
}

// pageOf returns the page-th slice of items; never nil.
func pageOf[T any](items []T, page, perPage int) []T {
	start, end := domain.PageBounds(page, perPage, len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}
