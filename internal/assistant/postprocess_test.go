package assistant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/olasis/olasis-service/internal/domain"
)

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text unchanged", "A systematic review answers a focused question.", "A systematic review answers a focused question."},
		{"emphasis", "This is **very** _important_.", "This is very important."},
		{"inline code", "Use `grep` here.", "Use grep here."},
		{"entities decoded", "Tom & Jerry say \"hi\" and I'm fine", "Tom & Jerry say \"hi\" and I'm fine"},
		{"blank input", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripMarkdown(tt.input))
		})
	}

	t.Run("headings and lists", func(t *testing.T) {
		got := StripMarkdown("# Methods\n\n- first step\n- second step\n\n\n\nDone.")
		assert.NotContains(t, got, "#")
		assert.NotContains(t, got, "- ")
		assert.Contains(t, got, "Methods")
		assert.Contains(t, got, "first step")
		assert.Contains(t, got, "second step")
		assert.NotContains(t, got, "\n\n\n")
		assert.True(t, strings.HasSuffix(got, "Done."))
	})

	t.Run("raw html dropped", func(t *testing.T) {
		got := StripMarkdown("Text <b>bold</b> here")
		assert.NotContains(t, got, "<")
	})
}

func TestDropEcho(t *testing.T) {
	assert.Equal(t, "AI is a field.", dropEcho("What is AI? AI is a field.", "What is AI?"))
	assert.Equal(t, "AI is a field.", dropEcho("what is ai?  AI is a field.", "What is AI?"))
	assert.Equal(t, "Short", dropEcho("Short", "A much longer message"))
	assert.Equal(t, "Answer first.", dropEcho("Answer first.", "question"))
	assert.Equal(t, "Answer", dropEcho("Answer", ""))
}

func TestStripGreetings(t *testing.T) {
	pt := PackFor(domain.Portuguese)

	assert.Equal(t, "a revisão sistemática é um método.", stripGreetings("Olá! Olá, a revisão sistemática é um método.", pt))
	assert.Equal(t, "", stripGreetings("Oi!", pt))
	assert.Equal(t, "Oito estudos.", stripGreetings("Oito estudos.", pt))
	assert.Equal(t, "Uma meta-análise combina estudos.", stripGreetings("Sou o OLABOT, assistente de pesquisa científica do OLASIS 4.0. Uma meta-análise combina estudos.", pt))
	assert.Equal(t, "Uma meta-análise combina estudos.", stripGreetings(pt.Greeting+" Olá! Uma meta-análise combina estudos.", pt))

	en := PackFor(domain.English)
	assert.Equal(t, "Reviews summarize evidence.", stripGreetings("Hi there! I'm OLABOT, your friendly research buddy. Reviews summarize evidence.", en))
	assert.Equal(t, "OLABOT answers questions about OLASIS.", stripGreetings("OLABOT answers questions about OLASIS.", en))
	assert.Equal(t, "I'm not sure the data supports that.", stripGreetings("I'm not sure the data supports that.", en))
}

func TestPostprocess(t *testing.T) {
	t.Run("first turn keeps one exact greeting", func(t *testing.T) {
		pack := PackFor(domain.English)
		raw := pack.Greeting + " Systematic reviews summarize evidence."
		assert.Equal(t, pack.Greeting+"\n\nSystematic reviews summarize evidence.", postprocess(raw, "what is a review?", FirstTurn, pack))
	})

	t.Run("first turn replaces a loose greeting", func(t *testing.T) {
		pack := PackFor(domain.Spanish)
		got := postprocess("¡Hola! Una revisión sistemática resume la evidencia.", "¿qué es?", FirstTurn, pack)
		assert.Equal(t, pack.Greeting+"\n\nUna revisión sistemática resume la evidencia.", got)
	})

	t.Run("first turn replaces an alternate introduction", func(t *testing.T) {
		pack := PackFor(domain.English)
		got := postprocess("Hi there! I'm OLABOT, your friendly research buddy. Reviews summarize evidence.", "hello", FirstTurn, pack)
		assert.Equal(t, pack.Greeting+"\n\nReviews summarize evidence.", got)
	})

	t.Run("first turn adds a missing greeting", func(t *testing.T) {
		pack := PackFor(domain.Portuguese)
		got := postprocess("**Meta-análise** combina estudos.", "o que é?", FirstTurn, pack)
		assert.Equal(t, pack.Greeting+"\n\nMeta-análise combina estudos.", got)
	})

	t.Run("first turn with only a greeting is empty", func(t *testing.T) {
		assert.Empty(t, postprocess("Hello!", "hi", FirstTurn, PackFor(domain.English)))
		assert.Empty(t, postprocess(PackFor(domain.English).Greeting, "hi", FirstTurn, PackFor(domain.English)))
	})

	t.Run("follow up drops greetings and echo", func(t *testing.T) {
		pack := PackFor(domain.English)
		got := postprocess("What is AI? Hello! Hi, AI is a field of study.", "What is AI?", FollowUp, pack)
		assert.Equal(t, "AI is a field of study.", got)
	})

	t.Run("follow up drops the full pack greeting", func(t *testing.T) {
		for _, lang := range domain.Languages {
			pack := PackFor(lang)
			got := postprocess(pack.Greeting+" More detail follows.", "question", FollowUp, pack)
			assert.Equal(t, "More detail follows.", got, "%s", lang)
		}
	})

	t.Run("follow up drops a self-introduction", func(t *testing.T) {
		tests := []struct {
			lang domain.Language
			raw  string
		}{
			{domain.English, "I'm OLABOT, the scientific research assistant of OLASIS 4.0. More detail follows."},
			{domain.Spanish, "Soy OLABOT, el asistente de investigación científica de OLASIS 4.0. More detail follows."},
			{domain.Portuguese, "Sou o OLABOT, assistente de pesquisa científica do OLASIS 4.0. More detail follows."},
		}
		for _, tt := range tests {
			assert.Equal(t, "More detail follows.", postprocess(tt.raw, "question", FollowUp, PackFor(tt.lang)), "%s", tt.lang)
		}
	})

	t.Run("empty output", func(t *testing.T) {
		assert.Empty(t, postprocess("  ", "q", FollowUp, PackFor(domain.English)))
	})
}
