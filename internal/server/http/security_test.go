package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/olasis/olasis-service/internal/domain"
)

var xssPayloads = []struct {
	name    string
	payload string
	mustNot []string
}{
	{"script tag", "<script>alert('xss')</script>", []string{"<script>", "</script>"}},
	{"img onerror", `<img src=x onerror=alert('xss')>`, []string{"<img"}},
	{"svg tag", `<svg/onload=alert('xss')>`, []string{"<svg"}},
	{"iframe injection", `<iframe src="javascript:alert('xss')">`, []string{"<iframe"}},
}

// TestXSSPayload_ChatMessage verifies that HTML in a chat message is escaped
// when reflected in the JSON reply.
func TestXSSPayload_ChatMessage(t *testing.T) {
	for _, tc := range xssPayloads {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTestHTTPServer()

			body, err := json.Marshal(map[string]string{"message": tc.payload})
			if err != nil {
				t.Fatalf("failed to marshal request body: %v", err)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBuffer(body))
			rr := serveHTTP(srv, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
			}
			for _, forbidden := range tc.mustNot {
				if strings.Contains(rr.Body.String(), forbidden) {
					t.Errorf("response contains unescaped HTML %q: %s", forbidden, rr.Body.String())
				}
			}
			if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
				t.Errorf("expected Content-Type application/json, got %q", ct)
			}
		})
	}
}

// TestXSSPayload_SuggestionField verifies that the echoed field parameter is
// escaped.
func TestXSSPayload_SuggestionField(t *testing.T) {
	for _, tc := range xssPayloads {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTestHTTPServer()
			rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/chat/suggestions?field="+url.QueryEscape(tc.payload), nil))

			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rr.Code)
			}
			for _, forbidden := range tc.mustNot {
				if strings.Contains(rr.Body.String(), forbidden) {
					t.Errorf("response contains unescaped HTML %q: %s", forbidden, rr.Body.String())
				}
			}
		})
	}
}

// TestSessionID_RejectsUnsafeValues verifies that control characters and
// oversized values supplied as a session ID are replaced with a fresh ID.
func TestSessionID_RejectsUnsafeValues(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"newline injection", "abc\r\nSet-Cookie: evil=1"},
		{"non ascii", "sessão"},
		{"too long", strings.Repeat("x", 129)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, d := newTestHTTPServer()

			body, _ := json.Marshal(map[string]string{"message": "hi", "session_id": tc.value})
			rr := serveHTTP(srv, httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBuffer(body)))

			// The body validator rejects the request outright.
			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rr.Code)
			}
			if d.assistant.lastSession() == tc.value {
				t.Error("unsafe session ID reached the assistant")
			}

			req := httptest.NewRequest(http.MethodDelete, "/api/chat/session", nil)
			req.Header[SessionHeader] = []string{tc.value}
			serveHTTP(srv, req)
			if got := d.assistant.lastSession(); got == tc.value || got == "" {
				t.Errorf("expected a generated session ID, got %q", got)
			}
		})
	}
}

// TestMaxBodySize verifies that bodies above the limit are rejected.
func TestMaxBodySize(t *testing.T) {
	srv, d := newTestHTTPServer()

	body := `{"message":"` + strings.Repeat("a", maxRequestBodySize) + `"}`
	rr := serveHTTP(srv, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body)))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
	if d.assistant.lastSession() != "" {
		t.Error("assistant must not be called for an oversized body")
	}
}

// TestWriteDomainError_NeverLeaksInternalDetails ensures that writeDomainError
// maps arbitrary error messages to generic responses and never reflects internal
// error text in the response body.
func TestWriteDomainError_NeverLeaksInternalDetails(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "generic error with DB details",
			err:            fmt.Errorf("FATAL: password authentication failed for user \"olasis\""),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "internal server error",
		},
		{
			name:           "wrapped redis error",
			err:            fmt.Errorf("loading session: %w", errors.New("dial tcp 10.1.2.3:6379: i/o timeout")),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "internal server error",
		},
		{
			name:           "upstream api error",
			err:            domain.NewExternalAPIError("openalex", 502, "bad gateway from 10.0.0.1", nil),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "internal server error",
		},
		{
			name:           "rate limited",
			err:            domain.NewRateLimitError("orcid", 0),
			expectedStatus: http.StatusTooManyRequests,
			expectedBody:   "rate limited",
		},
		{
			name:           "not found",
			err:            domain.NewNotFoundError("session", "secret-id"),
			expectedStatus: http.StatusNotFound,
			expectedBody:   "resource not found",
		},
		{
			name:           "validation error keeps its message",
			err:            domain.ErrMissingQuery,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "No search query provided.",
		},
		{
			name:           "service unavailable",
			err:            fmt.Errorf("gemini: %w", domain.ErrServiceUnavailable),
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   "service unavailable",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeDomainError(rr, tc.err)

			if rr.Code != tc.expectedStatus {
				t.Errorf("expected status %d, got %d", tc.expectedStatus, rr.Code)
			}

			var resp map[string]string
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp["error"] != tc.expectedBody {
				t.Errorf("expected error %q, got %q", tc.expectedBody, resp["error"])
			}
			if tc.expectedBody != tc.err.Error() && strings.Contains(rr.Body.String(), tc.err.Error()) {
				t.Errorf("response body contains raw error message: %s", rr.Body.String())
			}
		})
	}

	t.Run("nil error is no-op", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writeDomainError(rr, nil)
		if rr.Code != http.StatusOK || rr.Body.Len() != 0 {
			t.Errorf("expected no response for nil error, got %d %q", rr.Code, rr.Body.String())
		}
	})
}
