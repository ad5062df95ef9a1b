package orcid

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
	// DefaultBaseURL is the public API base URL.
	DefaultBaseURL = "https://pub.orcid.org/v3.0"

	// DefaultProfileHost prefixes identifiers to build profile URLs.
	DefaultProfileHost = "https://orcid.org/"

	// DefaultDetailLimit caps per-record name lookups per search.
	DefaultDetailLimit = 5

	// DefaultFallbackLabel prefixes the identifier for records without a name.
	DefaultFallbackLabel = "Especialista ORCID"

	// DefaultRateLimit is the default rate limit for requests per second.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// MaxRows is the largest page size ORCID accepts.
	MaxRows = 200
)

// Config holds configuration for the ORCID client.
type Config struct {
	// BaseURL is the public API base URL.
	BaseURL string

	// DetailLimit caps the per-record fetches used to fill hits that came
	// back without a name. Zero disables lookups; negative uses the default.
	DetailLimit int

	// FallbackLabel builds "<label>: <orcid>" for records without a name.
	FallbackLabel string

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
	if c.DetailLimit < 0 {
		c.DetailLimit = DefaultDetailLimit
	}
	if c.FallbackLabel == "" {
		c.FallbackLabel = DefaultFallbackLabel
	}
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

// Client searches and counts ORCID researchers.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
	logger     zerolog.Logger
}

var (
	_ sources.SpecialistSearcher = (*Client)(nil)
	_ sources.ResearcherCounter  = (*Client)(nil)
)

// New creates a new ORCID client with the given configuration.
// metrics may be nil.
func New(cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Source:     sources.SourceORCID,
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		BurstSize:  cfg.BurstSize,
		MaxRetries: cfg.MaxRetries,
		UserAgent:  cfg.UserAgent,
	}, logger, metrics)

	return NewWithHTTPClient(cfg, httpClient, logger)
}

// NewWithHTTPClient creates a new ORCID client with a custom HTTP client.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient, logger zerolog.Logger) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "orcid").Logger(),
	}
}

// Search returns up to rows researchers matching query, optionally filtered
// by country. Names come inline from expanded-search; hits without one are
// filled by serial per-record fetches, at most DetailLimit per search. Hits
// without an identifier are dropped. An upstream failure yields an empty
// slice and a nil error.
func (c *Client) Search(ctx context.Context, query string, rows int, country string) ([]domain.SpecialistRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrMissingQuery
	}
	rows = clampRows(rows)

	params := url.Values{}
	params.Set("q", BuildQuery(query, country))
	params.Set("rows", strconv.Itoa(rows))

	var resp ExpandedSearchResponse
	if err := c.httpClient.GetJSON(ctx, c.config.BaseURL+"/expanded-search/", params, nil, &resp); err != nil {
		if errors.Is(err, sources.ErrNoResult) {
			return []domain.SpecialistRecord{}, nil
		}
		return nil, fmt.Errorf("searching researchers: %w", err)
	}

	specialists := make([]domain.SpecialistRecord, 0, min(len(resp.ExpandedResult), rows))
	lookups := 0
	for _, hit := range resp.ExpandedResult {
		if len(specialists) >= rows {
			break
		}
		path := strings.TrimSpace(hit.OrcidID)
		if path == "" {
			continue
		}

		given, family := strings.TrimSpace(hit.GivenNames), strings.TrimSpace(hit.FamilyNames)
		credit := strings.TrimSpace(hit.CreditName)
		if given == "" && family == "" && credit == "" && lookups < c.config.DetailLimit {
			given, family = c.fetchName(ctx, path)
			lookups++
		}

		specialists = append(specialists, c.toSpecialist(path, given, family, credit))
	}

	c.logger.Debug().
		Str("query", query).
		Str("country", country).
		Int("results", len(specialists)).
		Int("lookups", lookups).
		Int64("total", resp.NumFound).
		Msg("orcid search completed")

	return specialists, nil
}

// CountResearchers returns the number of researchers registered in ORCID.
func (c *Client) CountResearchers(ctx context.Context) (int64, error) {
	params := url.Values{}
	params.Set("q", "*")
	params.Set("rows", "1")

	var resp CountResponse
	if err := c.httpClient.GetJSON(ctx, c.config.BaseURL+"/search/", params, nil, &resp); err != nil {
		return 0, fmt.Errorf("counting researchers: %w", err)
	}
	if resp.NumFound <= 0 {
		return 0, fmt.Errorf("counting researchers: %w: empty count", sources.ErrNoResult)
	}
	return resp.NumFound, nil
}

// fetchName reads the given and family names of a single record. Failures
// yield empty names.
func (c *Client) fetchName(ctx context.Context, path string) (given, family string) {
	var record Record
	if err := c.httpClient.GetJSON(ctx, c.config.BaseURL+"/"+url.PathEscape(path), nil, nil, &record); err != nil {
		return "", ""
	}
	if record.Person == nil || record.Person.Name == nil {
		return "", ""
	}
	name := record.Person.Name
	return strings.TrimSpace(name.GivenNames.value()), strings.TrimSpace(name.FamilyName.value())
}

// toSpecialist builds a record. The display name prefers the name parts, then
// the published credit name, then the fallback label.
func (c *Client) toSpecialist(path, given, family, credit string) domain.SpecialistRecord {
	fullName := strings.TrimSpace(given + " " + family)
	if fullName == "" {
		fullName = credit
	}
	if fullName == "" {
		fullName = c.config.FallbackLabel + ": " + path
	}

	return domain.SpecialistRecord{
		Identifier:  path,
		GivenNames:  given,
		FamilyNames: family,
		FullName:    fullName,
		ProfileURL:  DefaultProfileHost + path,
	}
}

// BuildQuery applies the optional country filter to a researcher query.
func BuildQuery(query, country string) string {
	country = strings.TrimSpace(country)
	if country == "" {
		return query
	}
	return fmt.Sprintf(`(%s) AND (affiliation-org-name:*%s* OR address-country:"%s")`, query, country, country)
}

func clampRows(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxRows {
		return MaxRows
	}
	return n
}
