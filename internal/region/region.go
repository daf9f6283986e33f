// Package region defines the screen regions produced by the detector and
// the OCR text attached to them.
package region

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the family of game UI a region belongs to.
type Kind string

const (
	KindBuySlot      Kind = "buy-slot"
	KindKillFeed     Kind = "kill-feed-line"
	KindAgentCard    Kind = "agent-card"
	KindScoreDisplay Kind = "score-display"
	KindRoundTimer   Kind = "round-timer"
	KindSpikeStatus  Kind = "spike-status"
)

// Kinds lists every region kind in a stable order.
var Kinds = []Kind{
	KindBuySlot,
	KindKillFeed,
	KindAgentCard,
	KindScoreDisplay,
	KindRoundTimer,
	KindSpikeStatus,
}

// Visual cues attached by the region extractor.
const (
	CueHighlighted = "highlighted"
	CueHovered     = "hovered"
)

// Label is a parsed region label such as "buy-slot-3".
type Label struct {
	Kind  Kind
	Index int // 0 when the label carries no index
}

// String renders the label back to its wire form.
func (l Label) String() string {
	if l.Index > 0 {
		return fmt.Sprintf("%s-%d", l.Kind, l.Index)
	}
	return string(l.Kind)
}

// Indexed reports whether the label names a fixed slot on screen.
func (l Label) Indexed() bool {
	return l.Index > 0
}

// ParseLabel splits a raw label into its kind and optional 1-based index.
func ParseLabel(raw string) (Label, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return Label{}, fmt.Errorf("empty region label")
	}
	for _, k := range Kinds {
		if s == string(k) {
			return Label{Kind: k}, nil
		}
		prefix := string(k) + "-"
		if !strings.HasPrefix(s, prefix) {
			continue
		}
		idx, err := strconv.Atoi(s[len(prefix):])
		if err != nil || idx <= 0 {
			return Label{}, fmt.Errorf("invalid index in region label %q", raw)
		}
		return Label{Kind: k, Index: idx}, nil
	}
	return Label{}, fmt.Errorf("unknown region label %q", raw)
}

// BoundingBox is an axis-aligned box in frame pixel coordinates.
type BoundingBox struct {
	X int `json:"x" msgpack:"x" yaml:"x"`
	Y int `json:"y" msgpack:"y" yaml:"y"`
	W int `json:"w" msgpack:"w" yaml:"w"`
	H int `json:"h" msgpack:"h" yaml:"h"`
}

// Empty reports whether the box has no area.
func (b BoundingBox) Empty() bool {
	return b.W <= 0 || b.H <= 0
}

// Detection is one labelled box returned by a detector, before OCR.
type Detection struct {
	Label      string      `json:"label" msgpack:"label"`
	Box        BoundingBox `json:"box" msgpack:"box"`
	Confidence float64     `json:"confidence" msgpack:"confidence"`
}

// DetectedRegion is a detection with the OCR text read from it.
// Produced once per detector poll and never mutated afterwards.
type DetectedRegion struct {
	Label      string      `json:"label"`
	Box        BoundingBox `json:"box"`
	RawText    string      `json:"raw_text"`
	Confidence float64     `json:"confidence"`

	// Cues are secondary visual signals found by the extractor,
	// e.g. CueHighlighted for an owned buy slot.
	Cues []string `json:"cues,omitempty"`
}

// HasCue reports whether the region carries the given visual cue.
func (r DetectedRegion) HasCue(cue string) bool {
	for _, c := range r.Cues {
		if c == cue {
			return true
		}
	}
	return false
}
