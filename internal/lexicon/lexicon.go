// Package lexicon holds the word-boundary matching shared by the emotion
// classifier, the memory classifier and the response selector.
package lexicon

import (
	"strings"
	"unicode"
)

// Words lowercases text and splits it into word tokens. Apostrophes inside a
// word are kept so "you're" stays one token.
func Words(text string) []string {
	text = strings.ReplaceAll(text, "’", "'")
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// CountPhrase counts how many times phrase occurs in tokens on word
// boundaries. A phrase may be one word or several separated by spaces.
func CountPhrase(tokens []string, phrase string) int {
	parts := Words(phrase)
	if len(parts) == 0 || len(parts) > len(tokens) {
		return 0
	}
	count := 0
	for i := 0; i+len(parts) <= len(tokens); i++ {
		match := true
		for j, p := range parts {
			if tokens[i+j] != p {
				match = false
				break
			}
		}
		if match {
			count++
		}
	}
	return count
}

// ContainsAny reports whether any phrase occurs in tokens.
func ContainsAny(tokens []string, phrases []string) bool {
	for _, p := range phrases {
		if CountPhrase(tokens, p) > 0 {
			return true
		}
	}
	return false
}

// CountAny sums the occurrences of every phrase in tokens.
func CountAny(tokens []string, phrases []string) int {
	total := 0
	for _, p := range phrases {
		total += CountPhrase(tokens, p)
	}
	return total
}

// Set returns the distinct tokens.
func Set(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
