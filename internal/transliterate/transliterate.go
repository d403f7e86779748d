// Package transliterate maps Devanagari text to Gujarati script.
package transliterate

import (
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const (
	devanagariFirst = 0x0900
	devanagariLast  = 0x097F

	// Gujarati mirrors the Devanagari block layout 0x180 code points higher.
	gujaratiOffset = 0x0A80 - 0x0900
)

// DevanagariToGujarati returns a transformer rewriting Devanagari code points.
// Other runes pass through unchanged.
func DevanagariToGujarati() transform.Transformer {
	return runes.Map(func(r rune) rune {
		if r >= devanagariFirst && r <= devanagariLast {
			return r + gujaratiOffset
		}
		return r
	})
}

// ToGujarati transliterates s from Devanagari to Gujarati script.
func ToGujarati(s string) string {
	out, _, err := transform.String(DevanagariToGujarati(), s)
	if err != nil {
		return s
	}
	return out
}
