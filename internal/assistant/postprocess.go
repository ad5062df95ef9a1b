package assistant

import (
	"html"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

var (
	markdownExtensions = parser.CommonExtensions | parser.NoEmptyLineBeforeBlock
	textPolicy         = bluemonday.StrictPolicy()
	blankRuns          = regexp.MustCompile(`\n{3,}`)
	trailingSpace      = regexp.MustCompile(`[ \t]+\n`)
	echoSeparators     = " \t\r\n:;,.!?-"
)

// StripMarkdown renders text as markdown and keeps only its text content,
// so emphasis markers, headings and list bullets disappear.
func StripMarkdown(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	p := parser.NewWithExtensions(markdownExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.SkipHTML})
	rendered := markdown.Render(p.Parse([]byte(text)), renderer)

	plain := html.UnescapeString(textPolicy.Sanitize(string(rendered)))
	plain = strings.ReplaceAll(plain, "\r\n", "\n")
	plain = trailingSpace.ReplaceAllString(plain, "\n")
	plain = blankRuns.ReplaceAllString(plain, "\n\n")
	return strings.TrimSpace(plain)
}

// dropEcho removes a leading verbatim copy of the user's message.
func dropEcho(text, message string) string {
	message = strings.TrimSpace(message)
	if message == "" || len(text) < len(message) {
		return text
	}
	if !strings.EqualFold(text[:len(message)], message) {
		return text
	}
	return strings.TrimLeft(text[len(message):], echoSeparators)
}

// stripGreetings removes leading greetings and self-introductions until
// none is left. The pack's own greeting counts as both.
func stripGreetings(text string, pack *Pack) string {
	for {
		text = strings.TrimSpace(text)
		if strings.HasPrefix(text, pack.Greeting) {
			text = text[len(pack.Greeting):]
			continue
		}
		if rest, ok := cutLeading(text, pack.GreetingPattern); ok {
			text = rest
			continue
		}
		if rest, ok := cutLeading(text, pack.IntroPattern); ok {
			text = rest
			continue
		}
		return text
	}
}

func cutLeading(text string, pattern *regexp.Regexp) (string, bool) {
	loc := pattern.FindStringIndex(text)
	if loc == nil || loc[1] == 0 {
		return text, false
	}
	return text[loc[1]:], true
}

// postprocess turns raw model output into the reply text for a turn. It
// returns "" when nothing usable remains. First replies open with the pack
// greeting exactly once; follow-ups never greet.
func postprocess(raw, message string, kind TurnKind, pack *Pack) string {
	text := StripMarkdown(strings.TrimSpace(raw))
	text = stripGreetings(dropEcho(text, message), pack)
	if kind != FirstTurn || text == "" {
		return text
	}
	return pack.Greeting + "\n\n" + text
}
