package tokenizer

import (
	"sort"
	"strings"
	"testing"
)

func gramSet(out string) map[string]bool {
	set := make(map[string]bool)
	for _, g := range strings.Fields(out) {
		set[g] = true
	}
	return set
}

func TestTokenizeAB(t *testing.T) {
	out := Tokenize("AB", 1, 2)
	got := gramSet(out)

	want := []string{"a", "b", "ab"}
	if len(got) != len(want) {
		t.Fatalf("Expected exactly %d grams, got %d (%q)", len(want), len(got), out)
	}
	for _, g := range want {
		if !got[g] {
			t.Errorf("Expected gram %q in output %q", g, out)
		}
	}
}

func TestTokenizeIdempotentOnLowercase(t *testing.T) {
	first := Tokenize("holiday", 1, 2)
	second := Tokenize("holiday", 1, 2)
	if first != second {
		t.Errorf("Expected stable output for identical input: %q vs %q", first, second)
	}
}

func TestTokenizeEmpty(t *testing.T) {
	if out := Tokenize("", 1, 2); out != "" {
		t.Errorf("Expected empty output for empty input, got %q", out)
	}
	if out := Tokenize("   ", 1, 2); out != "" {
		t.Errorf("Expected empty output for whitespace input, got %q", out)
	}
}

func TestTokenizeNoCrossWordGrams(t *testing.T) {
	got := gramSet(Tokenize("x y", 1, 2))
	if got["xy"] {
		t.Error("Grams must not span word boundaries")
	}
	if !got["x"] || !got["y"] {
		t.Error("Expected unigrams for both words")
	}
}

func TestTokenizeDeduplicates(t *testing.T) {
	out := Tokenize("aaa", 1, 2)
	grams := strings.Fields(out)
	sorted := append([]string(nil), grams...)
	sort.Strings(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			t.Fatalf("Duplicate gram %q in output %q", sorted[i], out)
		}
	}
	got := gramSet(out)
	if !got["a"] || !got["aa"] {
		t.Errorf("Expected grams a and aa, got %q", out)
	}
}

func TestTokenizeInvalidGramRange(t *testing.T) {
	if out := Tokenize("abc", 0, 2); out != "" {
		t.Errorf("Expected empty output for minGram 0, got %q", out)
	}
	if out := Tokenize("abc", 3, 2); out != "" {
		t.Errorf("Expected empty output for maxGram < minGram, got %q", out)
	}
}

func TestTokenizePathSegments(t *testing.T) {
	got := gramSet(TokenizePath("x/y"))
	if got["xy"] {
		t.Error("Path segments must act as word boundaries")
	}
	if !got["x"] || !got["y"] {
		t.Error("Expected grams from each path segment")
	}
}
