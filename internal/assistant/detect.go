package assistant

import (
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"

	"github.com/olasis/olasis-service/internal/domain"
)

// Detector guesses the language of a message.
type Detector interface {
	// Detect returns the language and true, or false when unsure.
	Detect(text string) (domain.Language, bool)
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(text string) (domain.Language, bool)

// Detect implements Detector.
func (f DetectorFunc) Detect(text string) (domain.Language, bool) {
	return f(text)
}

// minDetectRunes is the shortest text handed to the trigram detector. Shorter
// greetings such as "oi" or "hola" are ambiguous across the three languages.
const minDetectRunes = 12

var whatlangToDomain = map[whatlanggo.Lang]domain.Language{
	whatlanggo.Eng: domain.English,
	whatlanggo.Spa: domain.Spanish,
	whatlanggo.Por: domain.Portuguese,
}

// WhatlangDetector detects English, Spanish and Portuguese with whatlanggo.
type WhatlangDetector struct {
	options whatlanggo.Options
}

// NewWhatlangDetector creates a detector restricted to the supported languages.
func NewWhatlangDetector() *WhatlangDetector {
	whitelist := make(map[whatlanggo.Lang]bool, len(whatlangToDomain))
	for l := range whatlangToDomain {
		whitelist[l] = true
	}
	return &WhatlangDetector{options: whatlanggo.Options{Whitelist: whitelist}}
}

// Detect implements Detector.
func (d *WhatlangDetector) Detect(text string) (domain.Language, bool) {
	if utf8.RuneCountInString(text) < minDetectRunes {
		return 0, false
	}
	info := whatlanggo.DetectWithOptions(text, d.options)
	if info.Script == nil {
		return 0, false
	}
	lang, ok := whatlangToDomain[info.Lang]
	return lang, ok
}
