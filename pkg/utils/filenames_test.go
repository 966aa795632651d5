package utils

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Sales Analysis", "Sales Analysis"},
		{"slashes", "a/b\\c", "a_b_c"},
		{"special chars", `q: what? "x" <y> |z|`, "q_ what_ _x_ _y_ _z"},
		{"collapsed underscores", "a//b::c", "a_b_c"},
		{"trimmed underscores", "/leading and trailing/", "leading and trailing"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := SanitizeFilename(test.input); got != test.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", test.input, got, test.expected)
			}
		})
	}
}

func TestSanitizeFilenameLengthCap(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := SanitizeFilename(long)
	if len(got) != 200 {
		t.Errorf("Expected 200-character cap, got %d", len(got))
	}
}

func TestTokenCounterFallback(t *testing.T) {
	var tc *TokenCounter
	// nil counter falls back to the character estimate
	if got := tc.CountTokens("12345678"); got != 2 {
		t.Errorf("Expected fallback estimate 2, got %d", got)
	}
}

func TestTokenCounterCounts(t *testing.T) {
	tc, err := NewTokenCounter("gpt-4o")
	if err != nil {
		t.Fatalf("Failed to create token counter: %v", err)
	}
	if got := tc.CountTokens("hello world"); got <= 0 {
		t.Errorf("Expected positive token count, got %d", got)
	}
}
