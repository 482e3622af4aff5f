// Package quiz implements the session core: building a randomized session
// from a question bank, generating multiple-choice options, walking the
// section state machine, and grading answers per question type.
package quiz

import (
	"strings"
	"unicode"
)

// NormalizeAnswer canonicalizes free-text answers for identification
// grading: every character that is not a letter, digit, or whitespace
// becomes a space, whitespace runs collapse to one space, and each token is
// title-cased. Comparison after normalization is exact string equality.
func NormalizeAnswer(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, s)

	tokens := strings.Fields(mapped)
	for i, tok := range tokens {
		tokens[i] = titleToken(tok)
	}
	return strings.Join(tokens, " ")
}

func titleToken(tok string) string {
	runes := []rune(tok)
	out := make([]rune, len(runes))
	for i, r := range runes {
		if i == 0 {
			out[i] = unicode.ToUpper(r)
		} else {
			out[i] = unicode.ToLower(r)
		}
	}
	return string(out)
}

// foldAnswer produces the case, punctuation and digit insensitive key used
// to deduplicate answers and to score similarity. Answers that fold to
// nothing (for example pure-digit answers) fall back to a lowercased trim
// so they still compare unequal to unrelated strings.
func foldAnswer(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsLetter(r):
			if space && b.Len() > 0 {
				b.WriteRune(' ')
			}
			space = false
			b.WriteRune(unicode.ToLower(r))
		}
	}
	folded := b.String()
	if folded == "" {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return folded
}

// isBooleanAnswer reports whether an answer reads as "true" or "false"
// once case and punctuation are ignored.
func isBooleanAnswer(s string) bool {
	folded := foldAnswer(s)
	return folded == "true" || folded == "false"
}

// equalsFolded compares two answers under trim+lowercase rules.
func equalsFolded(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
