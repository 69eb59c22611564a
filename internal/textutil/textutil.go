// Package textutil provides text processing helpers for corpus ingestion.
package textutil

import "regexp"

var tokenizeRe = regexp.MustCompile(`[\p{L}\p{N}_]+|[^\p{L}\p{N}\s]`)

// Tokenize splits text into word tokens and standalone punctuation marks
// (Unicode-aware). Punctuation stays separate so it can carry its own label.
func Tokenize(text string) []string {
	return tokenizeRe.FindAllString(text, -1)
}

var (
	newlineRe    = regexp.MustCompile(`[\n\r]`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// NormalizeWhitespaces replaces newlines and runs of whitespace with a
// single space.
func NormalizeWhitespaces(text string) string {
	text = newlineRe.ReplaceAllString(text, " ")
	return multiSpaceRe.ReplaceAllString(text, " ")
}
