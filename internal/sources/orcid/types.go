// Package orcid provides a client for the ORCID public registry API.
//
// Researcher search uses the expanded-search endpoint, which returns names
// inline. Hits that come back without a name are filled from the per-record
// endpoint. This package implements sources.SpecialistSearcher and
// sources.ResearcherCounter.
//
// API Documentation: https://info.orcid.org/documentation/api-tutorials/
package orcid

// ExpandedSearchResponse represents the response from /expanded-search.
// ExpandedResult is null when nothing matched.
type ExpandedSearchResponse struct {
	NumFound       int64            `json:"num-found"`
	ExpandedResult []ExpandedResult `json:"expanded-result"`
}

// ExpandedResult is a single expanded-search hit.
type ExpandedResult struct {
	OrcidID         string   `json:"orcid-id"`
	GivenNames      string   `json:"given-names"`
	FamilyNames     string   `json:"family-names"`
	CreditName      string   `json:"credit-name"`
	InstitutionName []string `json:"institution-name"`
}

// CountResponse is the subset of the /search response read for totals.
type CountResponse struct {
	NumFound int64 `json:"num-found"`
}

// Record is the subset of a full ORCID record read for name resolution.
type Record struct {
	Person *Person `json:"person"`
}

// Person holds the biographical section of a record.
type Person struct {
	Name *Name `json:"name"`
}

// Name holds the researcher's name parts.
type Name struct {
	GivenNames *StringValue `json:"given-names"`
	FamilyName *StringValue `json:"family-name"`
}

// StringValue wraps a string in ORCID's {"value": ...} envelope.
type StringValue struct {
	Value string `json:"value"`
}

// value returns the wrapped string or "" for a nil envelope.
func (v *StringValue) value() string {
	if v == nil {
		return ""
	}
	return v.Value
}
