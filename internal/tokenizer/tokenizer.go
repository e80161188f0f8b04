package tokenizer

import (
	"regexp"
	"strings"
)

// nonWordRegex matches sequences of characters that are neither letters nor
// digits (any script).
var nonWordRegex = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Tokenize converts a string into a slice of lowercase word tokens.
//
// Tokenization must agree between stored documents and lookup phrases: the
// token index only prunes candidates, and a document containing the phrase
// must never be pruned away. That is why no camel-case or acronym splitting
// happens here; "FooBar" and "foobar" fold-match as phrases, so they must
// produce identical tokens.
func Tokenize(text string) []string {
	lowerText := strings.ToLower(text)
	split := nonWordRegex.Split(lowerText, -1)

	tokens := make([]string, 0) // Initialize as empty slice, not nil
	for _, s := range split {
		if s != "" { // Filter out empty strings
			tokens = append(tokens, s)
		}
	}
	return tokens
}

// UniqueTokens returns the distinct tokens of text in first-seen order.
func UniqueTokens(text string) []string {
	tokens := Tokenize(text)

	unique := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		unique = append(unique, token)
	}
	return unique
}
