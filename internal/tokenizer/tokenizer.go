// Package tokenizer turns path and name strings into normalized bags of
// character n-grams for substring-style full-text matching.
package tokenizer

import "strings"

const (
	// DefaultMinGram is the smallest n-gram size produced.
	DefaultMinGram = 1
	// DefaultMaxGram is the largest n-gram size produced.
	DefaultMaxGram = 2
)

// Tokenize lower-cases text, splits it on whitespace, and collects every
// contiguous substring of length minGram..maxGram from each word into a
// set. Grams never span a word boundary, so callers can replace path
// separators with spaces to keep segments from matching across one another.
// The output is the set joined by single spaces, in first-seen order, which
// is stable for identical input. Empty or shorter-than-minGram input yields
// an empty string.
func Tokenize(text string, minGram, maxGram int) string {
	if minGram < 1 || maxGram < minGram {
		return ""
	}

	seen := make(map[string]struct{})
	var grams []string

	for _, word := range strings.Fields(strings.ToLower(text)) {
		runes := []rune(word)
		for n := minGram; n <= maxGram; n++ {
			for i := 0; i+n <= len(runes); i++ {
				gram := string(runes[i : i+n])
				if _, ok := seen[gram]; ok {
					continue
				}
				seen[gram] = struct{}{}
				grams = append(grams, gram)
			}
		}
	}

	return strings.Join(grams, " ")
}

// TokenizePath tokenizes a slash-separated relative path with default gram
// sizes, treating each path segment as a separate word.
func TokenizePath(path string) string {
	return Tokenize(strings.ReplaceAll(path, "/", " "), DefaultMinGram, DefaultMaxGram)
}
