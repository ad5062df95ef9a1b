package openalex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olasis/olasis-service/internal/domain"
	"github.com/olasis/olasis-service/internal/sources"
)

// newTestClient creates a client configured for testing with the given server URL.
func newTestClient(serverURL string) *Client {
	return New(Config{
		BaseURL:   serverURL,
		Mailto:    "test@example.com",
		Timeout:   5 * time.Second,
		RateLimit: 100,
		BurstSize: 100,
	}, zerolog.Nop(), nil)
}

// sampleSearchResponse returns a sample OpenAlex search response for testing.
func sampleSearchResponse() SearchResponse {
	return SearchResponse{
		Meta: Meta{Count: 1234, Page: 1, PerPage: 50},
		Results: []Work{
			{
				ID:              "https://openalex.org/W2741809807",
				DOI:             "https://doi.org/10.1038/nature12373",
				Title:           "CRISPR-Cas Systems",
				DisplayName:     "CRISPR-Cas Systems for Editing, Regulating and Targeting Genomes",
				PublicationYear: 2014,
				Authorships: []Authorship{
					{AuthorPosition: "first", Author: AuthorInfo{DisplayName: "Jeffry D. Sander"}},
					{AuthorPosition: "middle", Author: AuthorInfo{DisplayName: ""}},
					{AuthorPosition: "last", Author: AuthorInfo{DisplayName: "J. Keith Joung"}},
				},
				PrimaryLocation: &Location{LandingPageURL: "https://www.nature.com/articles/nbt.2842"},
			},
			{
				ID:             "https://openalex.org/W1",
				Title:          "Fallback Title",
				FromYear:       2001,
				BestOALocation: &Location{LandingPageURL: "https://oa.example.org/w1"},
			},
			{
				ID: "https://openalex.org/W2",
			},
		},
	}
}

func TestClient_Search(t *testing.T) {
	t.Run("maps works to articles", func(t *testing.T) {
		var gotPath, gotSearch, gotPerPage, gotMailto string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotSearch = r.URL.Query().Get("search")
			gotPerPage = r.URL.Query().Get("per_page")
			gotMailto = r.URL.Query().Get("mailto")
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(sampleSearchResponse())
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		articles, err := client.Search(context.Background(), "  crispr  ", 50)
		require.NoError(t, err)
		require.Len(t, articles, 3)

		assert.Equal(t, "/works", gotPath)
		assert.Equal(t, "crispr", gotSearch)
		assert.Equal(t, "50", gotPerPage)
		assert.Equal(t, "test@example.com", gotMailto)

		first := articles[0]
		assert.Equal(t, "CRISPR-Cas Systems for Editing, Regulating and Targeting Genomes", first.Title)
		assert.Equal(t, []string{"Jeffry D. Sander", "J. Keith Joung"}, first.Authors)
		require.NotNil(t, first.Year)
		assert.Equal(t, 2014, *first.Year)
		assert.Equal(t, "https://openalex.org/W2741809807", first.SourceID)
		assert.Equal(t, "https://doi.org/10.1038/nature12373", first.DOI)
		assert.Equal(t, "https://www.nature.com/articles/nbt.2842", first.URL)

		second := articles[1]
		assert.Equal(t, "Fallback Title", second.Title)
		require.NotNil(t, second.Year)
		assert.Equal(t, 2001, *second.Year)
		assert.Equal(t, "https://oa.example.org/w1", second.URL)
		assert.Empty(t, second.Authors)
		assert.NotNil(t, second.Authors)

		third := articles[2]
		assert.Equal(t, "Untitled", third.Title)
		assert.Nil(t, third.Year)
		assert.Empty(t, third.URL)
	})

	t.Run("clamps per page", func(t *testing.T) {
		var gotPerPage []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPerPage = append(gotPerPage, r.URL.Query().Get("per_page"))
			w.Write([]byte(`{"meta":{"count":0},"results":[]}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.Search(context.Background(), "q", 0)
		require.NoError(t, err)
		_, err = client.Search(context.Background(), "q", 1000)
		require.NoError(t, err)

		assert.Equal(t, []string{"1", "200"}, gotPerPage)
	})

	t.Run("omits mailto when not configured", func(t *testing.T) {
		var hasMailto bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, hasMailto = r.URL.Query()["mailto"]
			w.Write([]byte(`{"results":[]}`))
		}))
		defer server.Close()

		client := New(Config{BaseURL: server.URL, RateLimit: 100, BurstSize: 100}, zerolog.Nop(), nil)
		_, err := client.Search(context.Background(), "q", 5)
		require.NoError(t, err)
		assert.False(t, hasMailto)
	})

	t.Run("blank query is rejected without a request", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		articles, err := client.Search(context.Background(), "   ", 5)

		assert.Nil(t, articles)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("upstream failure degrades to empty", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		articles, err := client.Search(context.Background(), "q", 5)

		require.NoError(t, err)
		assert.NotNil(t, articles)
		assert.Empty(t, articles)
	})

	t.Run("malformed body degrades to empty", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>oops</html>`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		articles, err := client.Search(context.Background(), "q", 5)

		require.NoError(t, err)
		assert.Empty(t, articles)
	})
}

func TestClient_CountArticles(t *testing.T) {
	t.Run("reads meta count", func(t *testing.T) {
		var gotFilter, gotPerPage string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotFilter = r.URL.Query().Get("filter")
			gotPerPage = r.URL.Query().Get("per-page")
			w.Write([]byte(`{"meta":{"count":251234567},"results":[{}]}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		count, err := client.CountArticles(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int64(251234567), count)
		assert.Equal(t, "type:article", gotFilter)
		assert.Equal(t, "1", gotPerPage)
	})

	t.Run("failure returns ErrNoResult", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.CountArticles(context.Background())

		assert.ErrorIs(t, err, sources.ErrNoResult)
	})

	t.Run("zero count is treated as no result", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"meta":{"count":0}}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.CountArticles(context.Background())

		assert.ErrorIs(t, err, sources.ErrNoResult)
	})
}

func TestConfig_applyDefaults(t *testing.T) {
	cfg := Config{BaseURL: "https://api.openalex.org/"}
	cfg.applyDefaults()

	assert.Equal(t, "https://api.openalex.org", cfg.BaseURL)
	assert.Equal(t, sources.DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultRateLimit, cfg.RateLimit)
	assert.Equal(t, DefaultBurstSize, cfg.BurstSize)

	empty := Config{}
	empty.applyDefaults()
	assert.Equal(t, DefaultBaseURL, empty.BaseURL)
}
