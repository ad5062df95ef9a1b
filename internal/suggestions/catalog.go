// Package suggestions serves question suggestions for the OLABOT chat from a
// static, per-language catalog.
package suggestions

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/olasis/olasis-service/internal/domain"
)

// Context tags.
const (
	ContextBeginner     = "beginner"
	ContextIntermediate = "intermediate"
	ContextAdvanced     = "advanced"
	ContextSearch       = "search_focused"
	ContextMethodology  = "methodology_focused"
	ContextGeneral      = "general"
)

// RequiredContexts lists the context tags every language must define.
var RequiredContexts = []string{
	ContextBeginner,
	ContextIntermediate,
	ContextAdvanced,
	ContextSearch,
	ContextMethodology,
	ContextGeneral,
}

//go:embed catalog.yaml
var defaultCatalog []byte

// Field is a knowledge area with its detection keywords.
type Field struct {
	Key         string   `yaml:"key"`
	Aliases     []string `yaml:"aliases,omitempty"`
	Keywords    []string `yaml:"keywords"`
	Suggestions []string `yaml:"suggestions"`
}

func (f *Field) matches(name string) bool {
	if strings.EqualFold(f.Key, name) {
		return true
	}
	for _, a := range f.Aliases {
		if strings.EqualFold(a, name) {
			return true
		}
	}
	return false
}

// LanguageCatalog is the suggestion set of one language.
type LanguageCatalog struct {
	Contexts      map[string][]string `yaml:"contexts"`
	Fields        []Field             `yaml:"fields"`
	ComplexTerms  []string            `yaml:"complex_terms"`
	BeginnerTerms []string            `yaml:"beginner_terms"`
	Fallback      []string            `yaml:"fallback"`
}

// Field returns the field named key or one of its aliases.
func (c *LanguageCatalog) Field(name string) (*Field, bool) {
	name = strings.TrimSpace(name)
	for i := range c.Fields {
		if c.Fields[i].matches(name) {
			return &c.Fields[i], true
		}
	}
	return nil, false
}

// Catalog holds every language's suggestions.
type Catalog struct {
	Languages map[string]*LanguageCatalog `yaml:"languages"`
}

// DefaultLanguage is used for languages missing from the catalog.
const DefaultLanguage = domain.Portuguese

// For returns the catalog of lang, or the Portuguese one when lang is missing.
func (c *Catalog) For(lang domain.Language) *LanguageCatalog {
	if lc, ok := c.Languages[lang.String()]; ok {
		return lc
	}
	return c.Languages[DefaultLanguage.String()]
}

// Validate checks that every supported language defines every context, at
// least one field and a fallback list.
func (c *Catalog) Validate() error {
	for _, lang := range domain.Languages {
		lc, ok := c.Languages[lang.String()]
		if !ok || lc == nil {
			return fmt.Errorf("suggestion catalog: missing language %q", lang)
		}
		for _, tag := range RequiredContexts {
			if len(lc.Contexts[tag]) == 0 {
				return fmt.Errorf("suggestion catalog: %s: context %q is empty", lang, tag)
			}
		}
		if len(lc.Fields) == 0 {
			return fmt.Errorf("suggestion catalog: %s: no fields", lang)
		}
		for _, f := range lc.Fields {
			if f.Key == "" || len(f.Suggestions) == 0 {
				return fmt.Errorf("suggestion catalog: %s: field %q is incomplete", lang, f.Key)
			}
		}
		if len(lc.Fallback) == 0 {
			return fmt.Errorf("suggestion catalog: %s: fallback list is empty", lang)
		}
	}
	return nil
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing suggestion catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// LoadCatalog reads a catalog from path, or returns the embedded one when
// path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suggestion catalog: %w", err)
	}
	return Parse(data)
}
