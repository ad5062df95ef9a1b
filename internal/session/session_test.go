package session

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olasis/olasis-service/internal/domain"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	s := New("abc", testNow)

	assert.Equal(t, "abc", s.ID)
	assert.True(t, s.FirstTurn)
	assert.NotNil(t, s.Questions)
	assert.NotNil(t, s.Log)
	assert.Nil(t, s.Language)
	assert.Equal(t, testNow, s.CreatedAt)
}

func TestSession_Reset(t *testing.T) {
	s := New("abc", testNow)
	lang := domain.Portuguese
	s.Language = &lang
	s.FirstTurn = false
	s.RecordQuestion("oi")
	s.AppendExchange("oi", "Olá!", domain.Portuguese, 10)
	s.Stats.TotalQueries = 3

	later := testNow.Add(time.Hour)
	s.Reset(later)

	assert.Equal(t, "abc", s.ID)
	assert.True(t, s.FirstTurn)
	assert.Empty(t, s.Questions)
	assert.Empty(t, s.Log)
	assert.Nil(t, s.Language)
	assert.Zero(t, s.Stats)
	assert.Equal(t, testNow, s.CreatedAt)
	assert.Equal(t, later, s.UpdatedAt)
}

func TestSession_RecordQuestion_Capped(t *testing.T) {
	s := New("abc", testNow)
	for i := 0; i < MaxQuestions+7; i++ {
		s.RecordQuestion(fmt.Sprintf("q%d", i))
	}

	require.Len(t, s.Questions, MaxQuestions)
	assert.Equal(t, "q7", s.Questions[0])
	assert.Equal(t, fmt.Sprintf("q%d", MaxQuestions+6), s.LastQuestion())
}

func TestSession_AppendExchange_EvictsOldest(t *testing.T) {
	s := New("abc", testNow)
	for i := 0; i < 8; i++ {
		s.AppendExchange(fmt.Sprintf("u%d", i), fmt.Sprintf("a%d", i), domain.English, 10)
		assert.LessOrEqual(t, len(s.Log), 10)
	}

	require.Len(t, s.Log, 10)
	assert.Equal(t, domain.Turn{Role: domain.RoleUser, Content: "u3", Lang: domain.English}, s.Log[0])
	assert.Equal(t, domain.Turn{Role: domain.RoleAssistant, Content: "a7", Lang: domain.English}, s.Log[9])
}

func TestSession_AppendExchange_DefaultCap(t *testing.T) {
	s := New("abc", testNow)
	for i := 0; i < 20; i++ {
		s.AppendExchange("u", "a", domain.Spanish, 0)
	}
	assert.Len(t, s.Log, DefaultHistoryCap)
}

func TestSession_Window(t *testing.T) {
	s := New("abc", testNow)
	assert.Nil(t, s.Window(4))

	s.AppendExchange("u1", "a1", domain.English, 10)
	s.AppendExchange("u2", "a2", domain.English, 10)

	assert.Len(t, s.Window(10), 4)
	w := s.Window(2)
	require.Len(t, w, 2)
	assert.Equal(t, "u2", w[0].Content)
	assert.Nil(t, s.Window(0))
}

func TestSession_Clone(t *testing.T) {
	s := New("abc", testNow)
	lang := domain.Spanish
	s.Language = &lang
	s.RecordQuestion("hola")

	c := s.Clone()
	c.Questions[0] = "changed"
	*c.Language = domain.English

	assert.Equal(t, "hola", s.Questions[0])
	assert.Equal(t, domain.Spanish, *s.Language)
}

func TestSession_JSONRoundTrip(t *testing.T) {
	s := New("abc", testNow)
	lang := domain.Portuguese
	s.Language = &lang
	s.AppendExchange("oi", "Olá!", domain.Portuguese, 10)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"language":"pt"`)
	assert.Contains(t, string(data), `"lang":"pt"`)

	var decoded Session
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s.Log, decoded.Log)
	require.NotNil(t, decoded.Language)
	assert.Equal(t, domain.Portuguese, *decoded.Language)
}

func TestStats_SuccessRate(t *testing.T) {
	assert.Zero(t, Stats{}.SuccessRate())
	assert.InDelta(t, 75.0, Stats{TotalQueries: 4, SuccessfulResponses: 3}.SuccessRate(), 1e-9)
}
