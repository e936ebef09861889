package asr

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Punctuate normalizes a raw transcript: trims whitespace, uppercases the
// first letter, and appends a period when the text does not already end
// with terminal punctuation.
func Punctuate(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	r, size := utf8.DecodeRuneInString(text)
	text = string(unicode.ToUpper(r)) + text[size:]

	switch text[len(text)-1] {
	case '.', '!', '?', ':':
	default:
		text += "."
	}
	return text
}
