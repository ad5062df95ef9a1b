package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olasis/olasis-service/internal/domain"
	"github.com/olasis/olasis-service/internal/events"
	"github.com/olasis/olasis-service/internal/llm"
	"github.com/olasis/olasis-service/internal/session"
)

// mockGenerator implements llm.Generator for testing.
type mockGenerator struct {
	generateFn func(ctx context.Context, prompt llm.Prompt) (string, error)

	mu      sync.Mutex
	prompts []llm.Prompt
}

func (m *mockGenerator) Generate(ctx context.Context, prompt llm.Prompt) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.generateFn(ctx, prompt)
}

func (m *mockGenerator) Provider() string { return "mock" }
func (m *mockGenerator) Model() string    { return "mock-1" }

func (m *mockGenerator) lastPrompt() llm.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prompts[len(m.prompts)-1]
}

func replyWith(text string) *mockGenerator {
	return &mockGenerator{generateFn: func(context.Context, llm.Prompt) (string, error) {
		return text, nil
	}}
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ActivityEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType
	}
	return out
}

// failingStore fails every Load with a non-not-found error.
type failingStore struct{ session.Store }

func (failingStore) Load(context.Context, string) (*session.Session, error) {
	return nil, errors.New("connection refused")
}

var noDetection = DetectorFunc(func(string) (domain.Language, bool) { return 0, false })

func newTestAssistant(backend Backend, cfg Config) (*Assistant, *session.MemoryStore) {
	store := session.NewMemoryStore(time.Hour)
	return New(backend, store, noDetection, cfg, nil, nil, zerolog.Nop()), store
}

func TestNew_Defaults(t *testing.T) {
	a, _ := newTestAssistant(nil, Config{DefaultLanguage: domain.Language(7)})

	assert.False(t, a.Available())
	assert.Equal(t, DefaultMaxOutputTokens, a.config.MaxOutputTokens)
	assert.Equal(t, session.DefaultHistoryCap, a.config.HistoryCap)
	assert.Equal(t, domain.Spanish, a.config.DefaultLanguage)
	assert.Equal(t, DefaultTimeout, a.config.Timeout)
}

func TestAssistant_Ask_GreetingPolicy(t *testing.T) {
	for _, lang := range domain.Languages {
		t.Run(lang.String(), func(t *testing.T) {
			ctx := context.Background()
			pack := PackFor(lang)
			gen := replyWith(pack.Greeting + " Systematic reviews summarize evidence.")
			a, _ := newTestAssistant(Ready{Generator: gen}, DefaultConfig())

			first, err := a.Ask(ctx, "s1", Request{Message: "what is a review?", Lang: lang.String()})
			require.NoError(t, err)
			assert.Equal(t, StatusOK, first.Status)
			assert.Equal(t, lang, first.Lang)
			assert.Equal(t, pack.Greeting+"\n\nSystematic reviews summarize evidence.", first.Text)
			assert.True(t, strings.HasPrefix(gen.lastPrompt().Text, pack.Templates[FirstTurn]))

			for i := 0; i < 3; i++ {
				next, err := a.Ask(ctx, "s1", Request{Message: fmt.Sprintf("follow up %d", i)})
				require.NoError(t, err)
				assert.Equal(t, StatusOK, next.Status)
				assert.Equal(t, lang, next.Lang, "stored preference applies without a hint")
				assert.Equal(t, "Systematic reviews summarize evidence.", next.Text)
				assert.True(t, strings.HasPrefix(gen.lastPrompt().Text, pack.Templates[FollowUp]))
			}
		})
	}
}

func TestAssistant_Ask_PromptCarriesHistoryAndSampling(t *testing.T) {
	ctx := context.Background()
	gen := replyWith("A meta-analysis pools effect sizes.")
	a, _ := newTestAssistant(Ready{Generator: gen}, DefaultConfig())

	_, err := a.Ask(ctx, "s1", Request{Message: "What is a meta-analysis?", Lang: "en"})
	require.NoError(t, err)
	_, err = a.Ask(ctx, "s1", Request{Message: "And a scoping review?"})
	require.NoError(t, err)

	prompt := gen.lastPrompt()
	assert.Contains(t, prompt.Text, "User: What is a meta-analysis?\n")
	assert.Contains(t, prompt.Text, "OLABOT: "+PackFor(domain.English).Greeting)
	assert.True(t, strings.HasSuffix(prompt.Text, "User: And a scoping review?"))
	assert.Equal(t, DefaultTemperature, prompt.Temperature)
	assert.Equal(t, DefaultTopP, prompt.TopP)
	assert.Equal(t, DefaultMaxOutputTokens, prompt.MaxOutputTokens)
}

func TestAssistant_Ask_HistoryCap(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.HistoryCap = 4
	gen := replyWith("Answer.")
	a, store := newTestAssistant(Ready{Generator: gen}, cfg)

	for i := 0; i < 6; i++ {
		_, err := a.Ask(ctx, "s1", Request{Message: fmt.Sprintf("question %d", i), Lang: "en"})
		require.NoError(t, err)

		sess, err := store.Load(ctx, "s1")
		require.NoError(t, err)
		assert.LessOrEqual(t, len(sess.Log), 4)
	}

	sess, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, sess.Log, 4)
	assert.Equal(t, "question 4", sess.Log[0].Content)
	assert.Equal(t, "question 5", sess.Log[2].Content)
	assert.Len(t, sess.Questions, 6)

	prompt := gen.lastPrompt().Text
	assert.NotContains(t, prompt, "User: question 2\n")
	assert.Contains(t, prompt, "User: question 3\n")
	assert.Contains(t, prompt, "User: question 4\n")
}

func TestAssistant_Ask_EmptyMessage(t *testing.T) {
	gen := replyWith("unused")
	a, store := newTestAssistant(Ready{Generator: gen}, DefaultConfig())

	_, err := a.Ask(context.Background(), "s1", Request{Message: "   \n"})

	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, gen.prompts)
	assert.Equal(t, 0, store.Count())
}

func TestAssistant_Ask_Unavailable(t *testing.T) {
	ctx := context.Background()
	a, store := newTestAssistant(Unavailable{Reason: "missing API key"}, DefaultConfig())

	reply, err := a.Ask(ctx, "s1", Request{Message: "Olá, tudo bem?", Lang: "pt"})
	require.NoError(t, err)

	assert.Equal(t, StatusUnavailable, reply.Status)
	assert.Equal(t, PackFor(domain.Portuguese).Unavailable, reply.Text)

	sess, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, sess.FirstTurn)
	assert.Equal(t, 1, sess.Stats.TotalQueries)
	assert.Equal(t, []string{"Olá, tudo bem?"}, sess.Questions)
	assert.Empty(t, sess.Log)
}

func TestAssistant_Ask_GenerationFailure(t *testing.T) {
	tests := []struct {
		name string
		gen  *mockGenerator
	}{
		{"generator error", &mockGenerator{generateFn: func(context.Context, llm.Prompt) (string, error) {
			return "", &llm.APIError{Provider: "mock", StatusCode: 500, Message: "boom"}
		}}},
		{"empty output", replyWith("  ")},
		{"greeting only", replyWith("Hola!")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			a, store := newTestAssistant(Ready{Generator: tt.gen}, DefaultConfig())

			reply, err := a.Ask(ctx, "s1", Request{Message: "¿Qué es una revisión sistemática?"})
			require.NoError(t, err)

			assert.Equal(t, StatusError, reply.Status)
			assert.Equal(t, domain.Spanish, reply.Lang)
			assert.Equal(t, PackFor(domain.Spanish).Failure, reply.Text)

			sess, err := store.Load(ctx, "s1")
			require.NoError(t, err)
			assert.True(t, sess.FirstTurn, "a failed turn does not consume the greeting")
			assert.Empty(t, sess.Log)
			assert.Equal(t, 1, sess.Stats.ErrorCount)
			assert.Equal(t, 0, sess.Stats.SuccessfulResponses)
		})
	}
}

func TestAssistant_Ask_Timeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 20 * time.Millisecond
	gen := &mockGenerator{generateFn: func(ctx context.Context, _ llm.Prompt) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	a, _ := newTestAssistant(Ready{Generator: gen}, cfg)

	reply, err := a.Ask(context.Background(), "s1", Request{Message: "slow question", Lang: "en"})
	require.NoError(t, err)
	assert.Equal(t, StatusError, reply.Status)
}

func TestAssistant_Ask_LanguageResolution(t *testing.T) {
	ctx := context.Background()

	t.Run("default language", func(t *testing.T) {
		a, _ := newTestAssistant(Ready{Generator: replyWith("ok")}, DefaultConfig())
		reply, err := a.Ask(ctx, "s1", Request{Message: "oi"})
		require.NoError(t, err)
		assert.Equal(t, domain.Spanish, reply.Lang)
	})

	t.Run("configured default", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DefaultLanguage = domain.Portuguese
		a, _ := newTestAssistant(Ready{Generator: replyWith("ok")}, cfg)
		reply, err := a.Ask(ctx, "s1", Request{Message: "oi"})
		require.NoError(t, err)
		assert.Equal(t, domain.Portuguese, reply.Lang)
	})

	t.Run("unknown hint is ignored", func(t *testing.T) {
		a, store := newTestAssistant(Ready{Generator: replyWith("ok")}, DefaultConfig())
		reply, err := a.Ask(ctx, "s1", Request{Message: "hi", Lang: "fr"})
		require.NoError(t, err)
		assert.Equal(t, domain.Spanish, reply.Lang)

		sess, err := store.Load(ctx, "s1")
		require.NoError(t, err)
		assert.Nil(t, sess.Language)
	})

	t.Run("detection beats stored preference without replacing it", func(t *testing.T) {
		store := session.NewMemoryStore(time.Hour)
		detect := DetectorFunc(func(text string) (domain.Language, bool) {
			if strings.HasPrefix(text, "pt:") {
				return domain.Portuguese, true
			}
			return 0, false
		})
		a := New(Ready{Generator: replyWith("ok")}, store, detect, DefaultConfig(), nil, nil, zerolog.Nop())

		reply, err := a.Ask(ctx, "s1", Request{Message: "hello", Lang: "en-US"})
		require.NoError(t, err)
		assert.Equal(t, domain.English, reply.Lang)

		reply, err = a.Ask(ctx, "s1", Request{Message: "pt: uma pergunta longa"})
		require.NoError(t, err)
		assert.Equal(t, domain.Portuguese, reply.Lang)

		reply, err = a.Ask(ctx, "s1", Request{Message: "short"})
		require.NoError(t, err)
		assert.Equal(t, domain.English, reply.Lang)
	})

	t.Run("hint beats detection", func(t *testing.T) {
		store := session.NewMemoryStore(time.Hour)
		detect := DetectorFunc(func(string) (domain.Language, bool) { return domain.Portuguese, true })
		a := New(Ready{Generator: replyWith("ok")}, store, detect, DefaultConfig(), nil, nil, zerolog.Nop())

		reply, err := a.Ask(ctx, "s1", Request{Message: "anything", Lang: "es"})
		require.NoError(t, err)
		assert.Equal(t, domain.Spanish, reply.Lang)
	})
}

func TestAssistant_Ask_ResetFlag(t *testing.T) {
	ctx := context.Background()
	pack := PackFor(domain.English)
	a, store := newTestAssistant(Ready{Generator: replyWith("Evidence synthesis.")}, DefaultConfig())

	_, err := a.Ask(ctx, "s1", Request{Message: "first", Lang: "en"})
	require.NoError(t, err)
	second, err := a.Ask(ctx, "s1", Request{Message: "second"})
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(second.Text, pack.Greeting))

	again, err := a.Ask(ctx, "s1", Request{Message: "start over", Lang: "en", Reset: true})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(again.Text, pack.Greeting))

	sess, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"start over"}, sess.Questions)
	assert.Len(t, sess.Log, 2)
	assert.Equal(t, 1, sess.Stats.TotalQueries)
}

func TestAssistant_Reset(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{}
	store := session.NewMemoryStore(time.Hour)
	emitter := events.NewEmitter(publisher, zerolog.Nop(), nil)
	a := New(Ready{Generator: replyWith("Answer.")}, store, noDetection, DefaultConfig(), emitter, nil, zerolog.Nop())

	_, err := a.Ask(ctx, "s1", Request{Message: "question", Lang: "pt"})
	require.NoError(t, err)
	require.NoError(t, a.Reset(ctx, "s1"))

	sess, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, sess.FirstTurn)
	assert.Empty(t, sess.Log)
	assert.Empty(t, sess.Questions)
	assert.Nil(t, sess.Language)

	assert.Equal(t, []string{domain.EventTypeChatAnswered, domain.EventTypeChatReset}, publisher.types())

	var payload domain.ChatAnsweredPayload
	require.NoError(t, json.Unmarshal(publisher.events[0].Payload, &payload))
	assert.Equal(t, domain.ChatAnsweredPayload{Lang: "pt", FirstTurn: true, Status: StatusOK, MessageLength: 8}, payload)
	assert.Equal(t, "s1", publisher.events[0].SessionID)
}

func TestAssistant_Stats(t *testing.T) {
	ctx := context.Background()
	calls := 0
	gen := &mockGenerator{generateFn: func(context.Context, llm.Prompt) (string, error) {
		calls++
		if calls == 2 {
			return "", errors.New("upstream down")
		}
		return "Answer.", nil
	}}
	a, _ := newTestAssistant(Ready{Generator: gen}, DefaultConfig())
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	now := start
	a.now = func() time.Time { return now }

	empty, err := a.Stats(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, SessionStats{FirstTurn: true}, empty)

	for _, msg := range []string{"one", "two", "three"} {
		_, err := a.Ask(ctx, "s1", Request{Message: msg, Lang: "es"})
		require.NoError(t, err)
	}
	now = start.Add(90 * time.Second)

	stats, err := a.Stats(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalQueries)
	assert.Equal(t, 2, stats.SuccessfulResponses)
	assert.Equal(t, 1, stats.ErrorCount)
	assert.InDelta(t, 66.67, stats.SuccessRate, 0.01)
	assert.Equal(t, 1.5, stats.DurationMinutes)
	assert.Equal(t, "three", stats.LastQuestion)
	assert.Equal(t, "es", stats.Language)
	assert.False(t, stats.FirstTurn)
	assert.Equal(t, 4, stats.HistoryLength)
}

func TestAssistant_StoreFailure(t *testing.T) {
	a := New(Ready{Generator: replyWith("x")}, failingStore{}, nil, DefaultConfig(), nil, nil, zerolog.Nop())

	_, err := a.Ask(context.Background(), "s1", Request{Message: "question"})
	assert.ErrorContains(t, err, "connection refused")

	_, err = a.Stats(context.Background(), "s1")
	assert.Error(t, err)
}

func TestAssistant_ConcurrentTurnsOnOneSession(t *testing.T) {
	ctx := context.Background()
	pack := PackFor(domain.English)
	a, store := newTestAssistant(Ready{Generator: replyWith("Answer.")}, DefaultConfig())

	const n = 20
	replies := make([]Reply, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reply, err := a.Ask(ctx, "shared", Request{Message: fmt.Sprintf("q%d", i), Lang: "en"})
			assert.NoError(t, err)
			replies[i] = reply
		}(i)
	}
	wg.Wait()

	greeted := 0
	for _, r := range replies {
		if strings.HasPrefix(r.Text, pack.Greeting) {
			greeted++
		}
	}
	assert.Equal(t, 1, greeted, "exactly one turn is the first turn")

	sess, err := store.Load(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, n, sess.Stats.TotalQueries)
	assert.Equal(t, n, sess.Stats.SuccessfulResponses)
}

func TestAssistant_ModelInfo(t *testing.T) {
	ready, _ := newTestAssistant(Ready{Generator: replyWith("x")}, DefaultConfig())
	info := ready.ModelInfo()
	assert.True(t, info.Available)
	assert.Equal(t, "mock", info.Provider)
	assert.Equal(t, "mock-1", info.Model)
	assert.Equal(t, DefaultTemperature, info.Temperature)

	down, _ := newTestAssistant(Unavailable{Reason: "missing key"}, DefaultConfig())
	info = down.ModelInfo()
	assert.False(t, info.Available)
	assert.Equal(t, "missing key", info.Reason)
	assert.Empty(t, info.Provider)
}
