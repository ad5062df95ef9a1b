package suggestions

import (
	"math/rand"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/olasis/olasis-service/internal/domain"
)

// Selection modes.
const (
	ModeContext  = "context"
	ModeField    = "field"
	ModeAdaptive = "adaptive"
	ModeFallback = "fallback"
)

// fieldExtras is how many field suggestions are mixed into the general and
// advanced context lists.
const fieldExtras = 2

// Selection is a list of suggestions with the context and field that
// produced it.
type Selection struct {
	Suggestions []string
	Mode        string
	Context     string
	Field       string
}

// Generator picks suggestions from a Catalog. It is safe for concurrent use.
type Generator struct {
	catalog *Catalog

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a Generator. A zero seed is replaced by the current time.
func NewGenerator(catalog *Catalog, seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		catalog: catalog,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// ByContext returns up to limit suggestions for the context tag. Unknown tags
// use the general list.
func (g *Generator) ByContext(lang domain.Language, tag string, limit int) Selection {
	lc := g.catalog.For(lang)
	base, ok := lc.Contexts[tag]
	if !ok {
		tag = ContextGeneral
		base = lc.Contexts[ContextGeneral]
	}

	out := slices.Clone(base)
	if tag == ContextGeneral || tag == ContextAdvanced {
		var pool []string
		for _, f := range lc.Fields {
			for _, s := range f.Suggestions {
				if !slices.Contains(out, s) {
					pool = append(pool, s)
				}
			}
		}
		out = append(out, g.sample(pool, fieldExtras)...)
	}

	out = dedupe(out)
	g.shuffle(out)
	return Selection{Suggestions: truncate(out, limit), Mode: ModeContext, Context: tag}
}

// ByField returns up to limit suggestions for a knowledge field. Unknown
// fields use the general context list.
func (g *Generator) ByField(lang domain.Language, field string, limit int) Selection {
	lc := g.catalog.For(lang)
	sel := Selection{Mode: ModeField}

	var base []string
	if f, ok := lc.Field(field); ok {
		base = f.Suggestions
		sel.Field = f.Key
	} else {
		base = lc.Contexts[ContextGeneral]
		sel.Context = ContextGeneral
	}

	out := dedupe(slices.Clone(base))
	g.shuffle(out)
	sel.Suggestions = truncate(out, limit)
	return sel
}

// Adaptive infers a level and a field from the user's previous questions and
// mixes suggestions for both.
func (g *Generator) Adaptive(lang domain.Language, history []string, limit int) Selection {
	text := strings.ToLower(strings.TrimSpace(strings.Join(history, " ")))
	if text == "" {
		sel := g.ByContext(lang, ContextGeneral, limit)
		sel.Mode = ModeAdaptive
		return sel
	}

	lc := g.catalog.For(lang)
	level := ContextIntermediate
	switch {
	case containsAny(text, lc.ComplexTerms):
		level = ContextAdvanced
	case containsAny(text, lc.BeginnerTerms):
		level = ContextBeginner
	}

	var field *Field
	for i := range lc.Fields {
		if containsAny(text, lc.Fields[i].Keywords) {
			field = &lc.Fields[i]
			break
		}
	}

	out := g.ByContext(lang, level, limit/2).Suggestions
	var rest Selection
	if field != nil {
		rest = g.ByField(lang, field.Key, limit)
	} else {
		rest = g.ByContext(lang, ContextGeneral, limit)
	}
	out = dedupe(append(out, rest.Suggestions...))

	sel := Selection{Suggestions: truncate(out, limit), Mode: ModeAdaptive, Context: level}
	if field != nil {
		sel.Field = field.Key
	}
	return sel
}

// Fallback returns the fixed list served when selection fails.
func (g *Generator) Fallback(lang domain.Language) Selection {
	return Selection{
		Suggestions: slices.Clone(g.catalog.For(lang).Fallback),
		Mode:        ModeFallback,
		Context:     ModeFallback,
	}
}

func (g *Generator) shuffle(list []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rng.Shuffle(len(list), func(i, j int) { list[i], list[j] = list[j], list[i] })
}

// sample returns up to n distinct random elements of list.
func (g *Generator) sample(list []string, n int) []string {
	if n > len(list) {
		n = len(list)
	}
	g.mu.Lock()
	perm := g.rng.Perm(len(list))
	g.mu.Unlock()

	out := make([]string, n)
	for i := range out {
		out[i] = list[perm[i]]
	}
	return out
}

func dedupe(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := list[:0]
	for _, s := range list {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func truncate(list []string, limit int) []string {
	if limit <= 0 || len(list) == 0 {
		return []string{}
	}
	if len(list) > limit {
		return list[:limit]
	}
	return list
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(text, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
