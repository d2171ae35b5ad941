// Package splitter segments one user message into independent sub-queries.
// Splitting is stateless and deterministic; no user text is ever discarded.
package splitter

import (
	"regexp"
	"strings"
)

const (
	defaultMaxSubQueries = 4
	defaultMinFragment   = 12 // runes; shorter fragments are dangling clauses
)

// connectorRe matches the tokens that separate independent requests.
// The tokens themselves are dropped; everything around them is kept.
var connectorRe = regexp.MustCompile(`(?i)\s*(?:;|\band also\b|\balso\b,?|\bplus\b|\badditionally\b|\banother (?:issue|question|thing)\b|\bone more thing\b|\bsecond question\b)\s*`)

// Splitter segments messages on sentence boundaries and connector tokens.
type Splitter struct {
	// MaxSubQueries caps the number of segments; overflow fragments are
	// concatenated into the final retained slot rather than dropped.
	MaxSubQueries int
	// MinFragment is the rune length under which a fragment is merged
	// back into its neighbor.
	MinFragment int
}

// New creates a splitter with the default limits.
func New() *Splitter {
	return &Splitter{MaxSubQueries: defaultMaxSubQueries, MinFragment: defaultMinFragment}
}

// Split returns the ordered sub-queries of message. A message with no
// connectors comes back as a single segment. Near-duplicate fragments are
// kept separate.
func (s *Splitter) Split(message string) []string {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return nil
	}

	var frags []string
	for _, sent := range splitSentences(msg) {
		for _, part := range connectorRe.Split(sent, -1) {
			part = strings.TrimSpace(part)
			if part != "" {
				frags = append(frags, part)
			}
		}
	}

	frags = s.mergeDangling(frags)
	frags = s.capSegments(frags)
	if len(frags) == 0 {
		return []string{msg}
	}
	return frags
}

// splitSentences breaks text at sentence terminators, keeping the
// terminator with its fragment. A '.' only terminates when followed by
// whitespace or end-of-text, so URLs and hostnames survive intact.
func splitSentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '?', '!', '\n':
			out = append(out, string(runes[start:i+1]))
			start = i + 1
		case '.':
			if i+1 == len(runes) || runes[i+1] == ' ' || runes[i+1] == '\t' {
				out = append(out, string(runes[start:i+1]))
				start = i + 1
			}
		}
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

// mergeDangling folds fragments too short to stand alone into a neighbor:
// into the previous fragment when one exists, otherwise into the next.
func (s *Splitter) mergeDangling(frags []string) []string {
	min := s.MinFragment
	if min <= 0 {
		min = defaultMinFragment
	}
	var out []string
	for _, f := range frags {
		if len([]rune(f)) < min && len(out) > 0 {
			out[len(out)-1] = out[len(out)-1] + " " + f
			continue
		}
		out = append(out, f)
	}
	// A short leading fragment merges forward.
	if len(out) >= 2 && len([]rune(out[0])) < min {
		out[1] = out[0] + " " + out[1]
		out = out[1:]
	}
	return out
}

// capSegments enforces MaxSubQueries by concatenating the overflow into
// the last retained slot.
func (s *Splitter) capSegments(frags []string) []string {
	max := s.MaxSubQueries
	if max <= 0 {
		max = defaultMaxSubQueries
	}
	if len(frags) <= max {
		return frags
	}
	kept := frags[:max-1]
	tail := strings.Join(frags[max-1:], " ")
	return append(append([]string{}, kept...), tail)
}
