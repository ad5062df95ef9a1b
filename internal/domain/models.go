// Package domain provides domain models and shared types for the OLASIS service.
package domain

import (
	"strings"
)

// ArticleRecord is a normalized article returned by the article index.
type ArticleRecord struct {
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Year     *int     `json:"year"`
	SourceID string   `json:"openalex_id,omitempty"`
	DOI      string   `json:"doi,omitempty"`
	URL      string   `json:"url,omitempty"`
}

// SpecialistRecord is a normalized researcher returned by the identity registry.
// Identifier is the natural key.
type SpecialistRecord struct {
	Identifier  string `json:"orcid"`
	GivenNames  string `json:"given_names,omitempty"`
	FamilyNames string `json:"family_names,omitempty"`
	FullName    string `json:"full_name,omitempty"`
	ProfileURL  string `json:"profile_url,omitempty"`
}

// Language is a supported conversation language.
type Language int

const (
	English Language = iota
	Spanish
	Portuguese

	// LanguageCount is the number of supported languages. Tables indexed by
	// Language are sized with it.
	LanguageCount
)

// Languages lists every supported language in index order.
var Languages = [LanguageCount]Language{English, Spanish, Portuguese}

var languageCodes = [LanguageCount]string{
	English:    "en",
	Spanish:    "es",
	Portuguese: "pt",
}

// String returns the ISO 639-1 code of the language.
func (l Language) String() string {
	if l < 0 || l >= LanguageCount {
		return "unknown"
	}
	return languageCodes[l]
}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l >= 0 && l < LanguageCount
}

// ParseLanguage resolves an ISO 639-1 code (case-insensitive, region suffixes
// such as "pt-BR" allowed) to a supported language.
func ParseLanguage(code string) (Language, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	for _, l := range Languages {
		if languageCodes[l] == code {
			return l, true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (l Language) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Language) UnmarshalText(text []byte) error {
	parsed, ok := ParseLanguage(string(text))
	if !ok {
		return NewValidationError("lang", "unsupported language: "+string(text))
	}
	*l = parsed
	return nil
}

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of a conversation log.
type Turn struct {
	Role    Role     `json:"role"`
	Content string   `json:"content"`
	Lang    Language `json:"lang"`
}

// PageInfo is the pagination metadata for one result source.
type PageInfo struct {
	CurrentPage int  `json:"-"`
	PerPage     int  `json:"-"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
}

// NewPageInfo derives pagination metadata. page is clamped to at least 1 and
// perPage must be positive.
func NewPageInfo(page, perPage, total int) PageInfo {
	if page < 1 {
		page = 1
	}
	if total < 0 {
		total = 0
	}
	totalPages := 0
	if perPage > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	return PageInfo{
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// PageBounds returns the [start, end) slice bounds of page within a list of
// length total. Pages past the end yield an empty range.
func PageBounds(page, perPage, total int) (start, end int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 || page-1 > total/perPage {
		return total, total
	}
	start = (page - 1) * perPage
	if start > total {
		start = total
	}
	end = start + perPage
	if end > total {
		end = total
	}
	return start, end
}
