// Package ranges parses the clusterlist range sub-languages used by
// definition documents. Two grammars share one engine: Grammar A is the
// comma-delimited authored format ("1,3-5,7"), Grammar B is the
// whitespace-delimited runtime format ("0-2 4"). Both tolerate blank
// tokens from stray delimiters.
package ranges

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Grammar selects the tokenization and strictness rules.
type Grammar int

const (
	// GrammarComma splits on commas and rejects inverted ranges.
	GrammarComma Grammar = iota
	// GrammarWhitespace splits on whitespace; an inverted range expands
	// ascending and therefore contributes no indices. The reference
	// runtime behaves the same way, so no diagnostic is raised for it.
	GrammarWhitespace
)

// MalformedRangeError reports a range list that cannot produce a consistent
// index set. It surfaces as a validation Error, never as a panic.
type MalformedRangeError struct {
	Text   string
	Token  string
	Reason string
}

func (e *MalformedRangeError) Error() string {
	return fmt.Sprintf("malformed range %q: token %q %s", e.Text, e.Token, e.Reason)
}

// Parse expands a range-list string into a sorted, deduplicated index slice.
// Sorting here is what keeps timeline playback order and repeated runs
// deterministic; callers doing bounds checks only just iterate the slice.
func Parse(text string, g Grammar) ([]int, error) {
	return parse(text, g, false)
}

// ParsePermissive is the third variant of the engine: whitespace tokens,
// with tokens that do not parse skipped instead of failing the whole list.
// The historical assessment-clusterlist index extraction behaves this way,
// which is how comma-authored legacy lists pass through it contributing
// nothing.
func ParsePermissive(text string) []int {
	out, _ := parse(text, GrammarWhitespace, true)
	return out
}

func parse(text string, g Grammar, permissive bool) ([]int, error) {
	var tokens []string
	switch g {
	case GrammarComma:
		tokens = strings.Split(text, ",")
	default:
		tokens = strings.Fields(text)
	}

	seen := map[int]struct{}{}
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if strings.Contains(tok, "-") {
			parts := strings.Split(tok, "-")
			if len(parts) != 2 {
				if permissive {
					continue
				}
				return nil, &MalformedRangeError{Text: text, Token: tok, Reason: "is not of the form start-end"}
			}
			start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
			if err != nil {
				if permissive {
					continue
				}
				return nil, &MalformedRangeError{Text: text, Token: tok, Reason: "has a non-integer start"}
			}
			end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err != nil {
				if permissive {
					continue
				}
				return nil, &MalformedRangeError{Text: text, Token: tok, Reason: "has a non-integer end"}
			}
			if g == GrammarComma && start > end {
				return nil, &MalformedRangeError{Text: text, Token: tok, Reason: "has start greater than end"}
			}
			for i := start; i <= end; i++ {
				seen[i] = struct{}{}
			}
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			if permissive {
				continue
			}
			return nil, &MalformedRangeError{Text: text, Token: tok, Reason: "is not an integer"}
		}
		seen[n] = struct{}{}
	}

	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}
