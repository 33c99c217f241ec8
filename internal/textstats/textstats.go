// Package textstats measures the visible length of generated HTML bodies.
package textstats

import (
	"autoblog/internal/core"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// HangulSyllables covers the precomposed Hangul syllable block U+AC00–U+D7A3.
var HangulSyllables = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0xAC00, Hi: 0xD7A3, Stride: 1}},
}

var scripts = map[string]*unicode.RangeTable{
	"hangul-syllables": HangulSyllables,
	"hangul":           unicode.Hangul,
	"han":              unicode.Han,
	"hiragana":         unicode.Hiragana,
	"katakana":         unicode.Katakana,
	"latin":            unicode.Latin,
}

// ScriptByName returns the character range used for script counting.
func ScriptByName(name string) (*unicode.RangeTable, error) {
	if name == "" {
		return HangulSyllables, nil
	}
	table, ok := scripts[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown script %q", name)
	}
	return table, nil
}

// ScriptNames lists the accepted script names.
func ScriptNames() []string {
	return []string{"hangul-syllables", "hangul", "han", "hiragana", "katakana", "latin"}
}

// Strip removes every markup tag span from html.
func Strip(html string) string {
	return tagPattern.ReplaceAllString(html, "")
}

// Counter measures text against a configured script range.
type Counter struct {
	Script *unicode.RangeTable
}

// NewCounter returns a Counter for the given script (nil means Hangul syllables).
func NewCounter(script *unicode.RangeTable) *Counter {
	if script == nil {
		script = HangulSyllables
	}
	return &Counter{Script: script}
}

// Measure counts characters of html after markup removal.
// Counts are in runes, so multi-byte scripts count one per character.
func (c *Counter) Measure(html string) core.TextStats {
	script := c.Script
	if script == nil {
		script = HangulSyllables
	}

	var stats core.TextStats
	for _, r := range Strip(html) {
		stats.TotalChars++
		if unicode.IsSpace(r) {
			continue
		}
		stats.TotalCharsNoWhitespace++
		if unicode.Is(script, r) {
			stats.ScriptChars++
		}
	}
	return stats
}
