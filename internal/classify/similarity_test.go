package classify

import (
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"vandal", "vandal", 1},
		{"vandl", "vandal", 1 - 1.0/6},
		{"", "", 0},
		{"abc", "", 0},
		{"abc", "xyz", 0},
	}
	for _, tt := range tests {
		got := Similarity(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Similarity(%q, %q): got %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	tok := tokenize("  Vandl  $2900|ＯＷＮＥＤ ")
	want := []string{"vandl", "2900", "owned"}
	if len(tok.lower) != len(want) {
		t.Fatalf("tokens: got %v, want %v", tok.lower, want)
	}
	for i := range want {
		if tok.lower[i] != want[i] {
			t.Errorf("token %d: got %q, want %q", i, tok.lower[i], want[i])
		}
	}
	if tok.orig[0] != "Vandl" {
		t.Errorf("original case lost: %q", tok.orig[0])
	}
	if got := normalize("Spike--Planted!!"); got != "spike planted" {
		t.Errorf("normalize: got %q", got)
	}
}

func TestBestMatch_SplitAndMerged(t *testing.T) {
	vocab := DefaultVocabularies()

	m, ok := bestMatch(tokenize("van dal"), vocab[VocabWeapons])
	if !ok || m.Canonical != "Vandal" || m.Score != 1 {
		t.Errorf("split word: got %+v", m)
	}

	m, ok = bestMatch(tokenize("spikeplanted"), vocab[VocabSpike])
	if !ok || m.Canonical != "planted" || m.Score != 1 {
		t.Errorf("merged words: got %+v", m)
	}
}
