// Package answer turns free-text answers into comparable form.
package answer

import "strings"

// HintLength is the number of characters of the answer revealed as a hint.
const HintLength = 15

const punctuation = `.,!?;:"'()–—-`

// Normalize truncates raw at the first '.' or '(', strips punctuation,
// collapses whitespace and lower-cases the result.
func Normalize(raw string) string {
	return strings.ToLower(Clean(cut(raw)))
}

// Match reports whether two answers are equal after normalization. An
// answer that normalizes to nothing never matches.
func Match(given, want string) bool {
	norm := Normalize(want)
	return norm != "" && Normalize(given) == norm
}

// Clean strips punctuation and collapses whitespace without truncating or
// changing case. The corpus converter applies it to questions and answers.
func Clean(raw string) string {
	stripped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, raw)
	return strings.Join(strings.Fields(stripped), " ")
}

// Hint returns the leading part of the answer shown after repeated misses:
// the text before the first '.' or '(', trimmed, at most HintLength runes.
func Hint(raw string) string {
	head := []rune(strings.TrimSpace(cut(raw)))
	if len(head) > HintLength {
		head = head[:HintLength]
	}
	return string(head)
}

func cut(s string) string {
	if i := strings.IndexAny(s, ".("); i >= 0 {
		return s[:i]
	}
	return s
}
