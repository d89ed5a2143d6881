// Package agent holds helpers shared by the type-specific extraction agents.
package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// DecodeJSON unmarshals a model response into dst. Models wrap JSON in prose
// or markdown fences often enough that we trim to the outermost object first.
func DecodeJSON(raw string, dst any) error {
	trimmed := strings.TrimSpace(raw)
	if start, end := strings.Index(trimmed, "{"), strings.LastIndex(trimmed, "}"); start >= 0 && end > start {
		trimmed = trimmed[start : end+1]
	}
	if err := json.Unmarshal([]byte(trimmed), dst); err != nil {
		return fmt.Errorf("decode model json: %w", err)
	}
	return nil
}

// Truncate caps a prompt excerpt at n bytes without splitting the tail word.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var (
	phonePattern = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

// FindContact returns the first phone number or, failing that, the first
// email address in the text. Empty string when neither is present.
func FindContact(text string) string {
	if m := phonePattern.FindString(text); m != "" {
		return m
	}
	return emailPattern.FindString(text)
}

// FindPhone returns the first phone number in the text.
func FindPhone(text string) string {
	return phonePattern.FindString(text)
}

// FindEmails returns all email addresses in the text.
func FindEmails(text string) []string {
	return emailPattern.FindAllString(text, -1)
}

// ContainsAny reports whether the lower-cased text contains any of the words.
func ContainsAny(textLower string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(textLower, w) {
			return true
		}
	}
	return false
}
