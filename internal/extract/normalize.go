// Package extract implements the deterministic fallback parser that turns
// itemized prose (typically vision output describing a meal photo) into a
// structured meal record, plus the text normalization shared by the
// pipeline. Everything here is pure: no network, no hidden state.
package extract

import "strings"

// Normalize trims the raw description text. Returns the trimmed text and
// whether any usable content remains.
func Normalize(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	return trimmed, trimmed != ""
}

// Lines segments text into trimmed lines, dropping fully blank ones.
func Lines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
