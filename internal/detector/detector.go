// Package detector guesses the language of a text locally so the CLI can
// send a concrete source code instead of "auto".
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// AutoLang is the source code that asks for detection.
const AutoLang = "auto"

type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector over the given languages, or over every language
// lingua knows when none are given. Building is expensive; reuse the result.
func New(languages ...lingua.Language) *Detector {
	builder := lingua.NewLanguageDetectorBuilder()

	var detector lingua.LanguageDetector
	if len(languages) < 2 {
		detector = builder.FromAllLanguages().Build()
	} else {
		detector = builder.FromLanguages(languages...).Build()
	}

	return &Detector{detector: detector}
}

// DetectISO returns the lowercase ISO 639-1 code of text's language.
func (d *Detector) DetectISO(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// Resolve returns lang unchanged unless it is AutoLang, in which case the
// detected code is returned. ok is false when detection was needed and failed.
func (d *Detector) Resolve(text, lang string) (string, bool) {
	if lang != AutoLang {
		return lang, true
	}
	return d.DetectISO(text)
}
