package classify

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// tokens is OCR text split into words, kept in both display and match form.
type tokens struct {
	orig  []string // NFKC form, original case
	lower []string // lowercase, used for matching
}

func (t tokens) len() int { return len(t.lower) }

// joined returns the match form of tokens [i, j) without separators.
func (t tokens) joined(i, j int) string {
	return strings.Join(t.lower[i:j], "")
}

// display returns the original-case form of tokens [i, j) separated by spaces.
func (t tokens) display(i, j int) string {
	return strings.Join(t.orig[i:j], " ")
}

// tokenize applies NFKC normalization and splits on every rune that is
// not a letter or digit. OCR artifacts like "$", "|" or "[" become separators.
func tokenize(text string) tokens {
	normed := norm.NFKC.String(text)
	fields := strings.FieldsFunc(normed, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	t := tokens{
		orig:  fields,
		lower: make([]string, len(fields)),
	}
	for i, f := range fields {
		t.lower[i] = strings.ToLower(f)
	}
	return t
}

// normalize returns the canonical match form of text: lowercase alphanumeric
// words separated by single spaces.
func normalize(text string) string {
	return strings.Join(tokenize(text).lower, " ")
}
