package region

import "testing"

func TestParseLabel(t *testing.T) {
	tests := []struct {
		raw       string
		wantKind  Kind
		wantIndex int
	}{
		{"buy-slot-3", KindBuySlot, 3},
		{"BUY-SLOT-12", KindBuySlot, 12},
		{"kill-feed-line", KindKillFeed, 0},
		{"kill-feed-line-2", KindKillFeed, 2},
		{"agent-card-5", KindAgentCard, 5},
		{" score-display ", KindScoreDisplay, 0},
		{"round-timer", KindRoundTimer, 0},
		{"spike-status", KindSpikeStatus, 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLabel(tt.raw)
			if err != nil {
				t.Fatalf("ParseLabel(%q) failed: %v", tt.raw, err)
			}
			if got.Kind != tt.wantKind || got.Index != tt.wantIndex {
				t.Errorf("got %+v, want kind=%s index=%d", got, tt.wantKind, tt.wantIndex)
			}
		})
	}
}

func TestParseLabel_Invalid(t *testing.T) {
	for _, raw := range []string{"", "minimap", "buy-slot-", "buy-slot-x", "buy-slot-0", "buy-slot--1"} {
		t.Run(raw, func(t *testing.T) {
			if _, err := ParseLabel(raw); err == nil {
				t.Errorf("ParseLabel(%q) should fail", raw)
			}
		})
	}
}

func TestLabel_String(t *testing.T) {
	if got := (Label{Kind: KindBuySlot, Index: 3}).String(); got != "buy-slot-3" {
		t.Errorf("got %q, want buy-slot-3", got)
	}
	if got := (Label{Kind: KindRoundTimer}).String(); got != "round-timer" {
		t.Errorf("got %q, want round-timer", got)
	}
}

func TestDetectedRegion_HasCue(t *testing.T) {
	r := DetectedRegion{Cues: []string{CueHighlighted}}
	if !r.HasCue(CueHighlighted) {
		t.Error("expected highlighted cue")
	}
	if r.HasCue(CueHovered) {
		t.Error("unexpected hovered cue")
	}
}
