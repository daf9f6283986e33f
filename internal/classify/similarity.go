package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity scores two strings on a 0–1 scale: 1 minus the edit distance
// divided by the longer length. Two empty strings score 0.
func Similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// match is the best placement of a vocabulary term inside tokenized text.
type match struct {
	Canonical string
	Score     float64
	Start     int // first token covered
	End       int // one past the last token covered
}

// bestMatch slides every term of vocab over the text and returns the
// highest-scoring placement. A term of n words is compared against every
// run of n-1, n and n+1 consecutive tokens, joined without spaces, so a
// split ("van dal") or merged ("spikeplanted") OCR reading still lines up.
//
// Ties keep the earlier vocabulary entry and the earlier position.
func bestMatch(t tokens, vocab Vocabulary) (match, bool) {
	var best match
	found := false
	for _, entry := range vocab.Entries {
		for _, form := range entry.forms() {
			words := strings.Fields(form)
			target := strings.Join(words, "")
			if target == "" {
				continue
			}
			n := len(words)
			for size := max(1, n-1); size <= n+1; size++ {
				for i := 0; i+size <= t.len(); i++ {
					score := Similarity(t.joined(i, i+size), target)
					if !found || score > best.Score {
						best = match{Canonical: entry.Name, Score: score, Start: i, End: i + size}
						found = true
					}
				}
			}
		}
	}
	return best, found
}

// hasKeyword reports whether any token equals one of the keywords, or
// comes close to a keyword long enough for fuzzy matching to be safe.
func hasKeyword(t tokens, keywords []string, threshold float64) bool {
	for _, tok := range t.lower {
		for _, kw := range keywords {
			if tok == kw {
				return true
			}
			if len(kw) >= 5 && Similarity(tok, kw) >= threshold {
				return true
			}
		}
	}
	return false
}
