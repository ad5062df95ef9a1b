// Package sources provides the shared upstream HTTP plumbing for the OLASIS
// search adapters.
//
// Each upstream (the OpenAlex article index, the ORCID researcher registry)
// lives in its own subpackage and talks to the network exclusively through
// HTTPClient.GetJSON. Every failure mode of a fetch (network error, timeout,
// non-2xx status, undecodable body) is reported as an error wrapping
// ErrNoResult, so adapters can degrade to an empty result with a single
// errors.Is check:
//
//	var resp openalex.SearchResponse
//	if err := client.GetJSON(ctx, url, params, nil, &resp); err != nil {
//		if errors.Is(err, sources.ErrNoResult) {
//			return nil, nil
//		}
//		return nil, err
//	}
package sources

import (
	"context"
	"errors"

	"github.com/olasis/olasis-service/internal/domain"
)

// ErrNoResult is wrapped by every GetJSON failure. Callers treat it as
// "nothing came back" and fall back to an empty result or a default value.
var ErrNoResult = errors.New("no result from upstream")

// Source names used for logging, metrics and error attribution.
const (
	SourceOpenAlex = "openalex"
	SourceORCID    = "orcid"
)

// ArticleSearcher searches the article index.
// Implementations return an empty slice and a nil error when the upstream is unavailable.
type ArticleSearcher interface {
	Search(ctx context.Context, query string, perPage int) ([]domain.ArticleRecord, error)
}

// SpecialistSearcher searches the researcher registry.
// Implementations return an empty slice and a nil error when the upstream is unavailable.
type SpecialistSearcher interface {
	Search(ctx context.Context, query string, rows int, country string) ([]domain.SpecialistRecord, error)
}

// ArticleCounter reports the total number of indexed articles.
type ArticleCounter interface {
	CountArticles(ctx context.Context) (int64, error)
}

// ResearcherCounter reports the total number of registered researchers.
type ResearcherCounter interface {
	CountResearchers(ctx context.Context) (int64, error)
}
