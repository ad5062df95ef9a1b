package openalex

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/olasis/olasis-service/internal/domain"
	"github.com/olasis/olasis-service/internal/observability"
	"github.com/olasis/olasis-service/internal/sources"
)

const (
	// DefaultBaseURL is the default OpenAlex API base URL.
	DefaultBaseURL = "https://api.openalex.org"

	// DefaultRateLimit is the default rate limit for requests per second.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// MaxPerPage is the largest page size OpenAlex accepts.
	MaxPerPage = 200

	// untitled is used when a work has neither display_name nor title.
	untitled = "Untitled"
)

// Config holds configuration for the OpenAlex client.
type Config struct {
	// BaseURL is the OpenAlex API base URL.
	// Defaults to https://api.openalex.org
	BaseURL string

	// Mailto is the contact email for the polite pool. Sent as the mailto
	// parameter when set.
	Mailto string

	// Timeout is the per-call timeout. Defaults to 10 seconds.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxRetries is the number of retries on 429/5xx. Defaults to none.
	MaxRetries int

	// UserAgent is sent with every request.
	UserAgent string
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout == 0 {
		c.Timeout = sources.DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
}

// Client searches and counts OpenAlex works.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
	logger     zerolog.Logger
}

var (
	_ sources.ArticleSearcher = (*Client)(nil)
	_ sources.ArticleCounter  = (*Client)(nil)
)

// New creates a new OpenAlex client with the given configuration.
// metrics may be nil.
func New(cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Source:     sources.SourceOpenAlex,
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		BurstSize:  cfg.BurstSize,
		MaxRetries: cfg.MaxRetries,
		UserAgent:  cfg.UserAgent,
	}, logger, metrics)

	return NewWithHTTPClient(cfg, httpClient, logger)
}

// NewWithHTTPClient creates a new OpenAlex client with a custom HTTP client.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient, logger zerolog.Logger) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "openalex").Logger(),
	}
}

// Search returns up to perPage works matching query. perPage is clamped to
// [1, 200]. An upstream failure yields an empty slice and a nil error; only a
// blank query is an error.
func (c *Client) Search(ctx context.Context, query string, perPage int) ([]domain.ArticleRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrMissingQuery
	}
	perPage = clampPerPage(perPage)

	params := url.Values{}
	params.Set("search", query)
	params.Set("per_page", strconv.Itoa(perPage))
	if c.config.Mailto != "" {
		params.Set("mailto", c.config.Mailto)
	}

	var resp SearchResponse
	if err := c.httpClient.GetJSON(ctx, c.config.BaseURL+"/works", params, nil, &resp); err != nil {
		if errors.Is(err, sources.ErrNoResult) {
			return []domain.ArticleRecord{}, nil
		}
		return nil, fmt.Errorf("searching works: %w", err)
	}

	articles := make([]domain.ArticleRecord, 0, len(resp.Results))
	for i := range resp.Results {
		articles = append(articles, workToArticle(&resp.Results[i]))
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(articles)).
		Int64("total", resp.Meta.Count).
		Msg("openalex search completed")

	return articles, nil
}

// CountArticles returns the number of works of type article indexed by OpenAlex.
func (c *Client) CountArticles(ctx context.Context) (int64, error) {
	params := url.Values{}
	params.Set("filter", "type:article")
	params.Set("per-page", "1")
	if c.config.Mailto != "" {
		params.Set("mailto", c.config.Mailto)
	}

	var resp SearchResponse
	if err := c.httpClient.GetJSON(ctx, c.config.BaseURL+"/works", params, nil, &resp); err != nil {
		return 0, fmt.Errorf("counting articles: %w", err)
	}
	if resp.Meta.Count <= 0 {
		return 0, fmt.Errorf("counting articles: %w: empty count", sources.ErrNoResult)
	}
	return resp.Meta.Count, nil
}

// workToArticle converts an OpenAlex work to a domain article record.
func workToArticle(work *Work) domain.ArticleRecord {
	title := strings.TrimSpace(work.DisplayName)
	if title == "" {
		title = strings.TrimSpace(work.Title)
	}
	if title == "" {
		title = untitled
	}

	authors := make([]string, 0, len(work.Authorships))
	for _, a := range work.Authorships {
		if name := strings.TrimSpace(a.Author.DisplayName); name != "" {
			authors = append(authors, name)
		}
	}

	article := domain.ArticleRecord{
		Title:    title,
		Authors:  authors,
		SourceID: work.ID,
		DOI:      work.DOI,
		URL:      landingPage(work),
	}

	year := work.PublicationYear
	if year == 0 {
		year = work.FromYear
	}
	if year != 0 {
		article.Year = &year
	}

	return article
}

// landingPage prefers the primary location and falls back to the best open
// access location.
func landingPage(work *Work) string {
	if work.PrimaryLocation != nil && work.PrimaryLocation.LandingPageURL != "" {
		return work.PrimaryLocation.LandingPageURL
	}
	if work.BestOALocation != nil {
		return work.BestOALocation.LandingPageURL
	}
	return ""
}

func clampPerPage(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxPerPage {
		return MaxPerPage
	}
	return n
}
