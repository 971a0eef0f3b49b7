// Package layout fits variable-length text onto a fixed-width pixel display.
//
// Wrap packs whitespace-separated words greedily into lines whose measured
// width never exceeds the budget. A word wider than the budget on its own is
// split at character boundaries. The only line allowed to exceed the budget
// is a single character that is itself wider than the budget.
package layout

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// Measurer returns the rendered width of s in pixels.
type Measurer func(s string) int

// Monospace returns a Measurer for a fixed-pitch font where a narrow glyph is
// glyphWidth pixels and East Asian wide glyphs take two cells.
func Monospace(glyphWidth int) Measurer {
	return func(s string) int {
		return runewidth.StringWidth(s) * glyphWidth
	}
}

// Wrap splits text into lines that fit within maxWidth pixels.
// Newlines in text are kept as hard breaks; blank lines produce nothing.
func Wrap(text string, maxWidth int, measure Measurer) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		lines = append(lines, wrapParagraph(paragraph, maxWidth, measure)...)
	}
	return lines
}

func wrapParagraph(paragraph string, maxWidth int, measure Measurer) []string {
	var lines []string
	current := ""
	for _, word := range strings.Fields(paragraph) {
		if measure(word) > maxWidth {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			lines = append(lines, splitWord(word, maxWidth, measure)...)
			continue
		}

		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if measure(candidate) <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// splitWord breaks an over-wide word into the longest prefixes that fit.
func splitWord(word string, maxWidth int, measure Measurer) []string {
	var parts []string
	part := ""
	for _, r := range word {
		next := part + string(r)
		if measure(next) <= maxWidth {
			part = next
			continue
		}
		if part != "" {
			parts = append(parts, part)
		}
		part = string(r)
	}
	if part != "" {
		parts = append(parts, part)
	}
	return parts
}

// Truncate returns at most maxLen runes of s.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i]
		}
		n++
	}
	return s
}
