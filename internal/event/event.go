// Package event holds the structured records that flow through the
// commentary pipeline: classified game events and the commentary lines
// generated from them.
package event

import (
	"maps"
	"time"
)

// Kind is the category of a recognized game occurrence.
type Kind string

const (
	WeaponOwned      Kind = "weapon_owned"
	RequestingWeapon Kind = "requesting_weapon"
	HoveringWeapon   Kind = "hovering_weapon"
	AgentHover       Kind = "agent_hover"
	AgentLock        Kind = "agent_lock"
	Kill             Kind = "kill"
	SpikePlant       Kind = "spike_plant"
	SpikeDefuse      Kind = "spike_defuse"
	RoundPhaseChange Kind = "round_phase_change"
	ScoreUpdate      Kind = "score_update"
)

// Kinds lists every event kind, highest tie-break priority first:
// kills and tactical events rank above economy and UI events.
var Kinds = []Kind{
	Kill,
	SpikePlant,
	SpikeDefuse,
	RoundPhaseChange,
	ScoreUpdate,
	AgentLock,
	RequestingWeapon,
	WeaponOwned,
	HoveringWeapon,
	AgentHover,
}

// Priority returns the tie-break rank of a kind; lower ranks first.
// Unknown kinds rank last.
func (k Kind) Priority() int {
	for i, kk := range Kinds {
		if kk == k {
			return i
		}
	}
	return len(Kinds)
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k.Priority() < len(Kinds)
}

// ClassifiedEvent is a structured game event derived from one region.
// It is immutable once created; use Clone before changing a copy.
type ClassifiedEvent struct {
	Kind       Kind              `json:"kind"`
	Subject    string            `json:"subject"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Region     string            `json:"region"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Clone returns a deep copy of the event.
func (e ClassifiedEvent) Clone() ClassifiedEvent {
	e.Attributes = maps.Clone(e.Attributes)
	return e
}

// SameState reports whether two events describe the same entity state.
// Timestamps are ignored.
func (e ClassifiedEvent) SameState(o ClassifiedEvent) bool {
	return e.Kind == o.Kind && e.Subject == o.Subject && maps.Equal(e.Attributes, o.Attributes)
}

// Fields returns the template fields for the event: its attributes plus
// "subject".
func (e ClassifiedEvent) Fields() map[string]string {
	fields := make(map[string]string, len(e.Attributes)+1)
	for k, v := range e.Attributes {
		fields[k] = v
	}
	fields["subject"] = e.Subject
	return fields
}

// Caster is one of the two alternating commentary voices.
type Caster string

const (
	Hype    Caster = "hype"
	Analyst Caster = "analyst"
)

// Style is the register a commentary line is written in.
type Style string

const (
	PlayByPlay  Style = "play-by-play"
	Analysis    Style = "analysis"
	Excitement  Style = "excitement"
	Educational Style = "educational"
)

// Styles lists every style.
var Styles = []Style{PlayByPlay, Analysis, Excitement, Educational}

// CommentaryLine is the terminal product of the pipeline, handed to
// speech synthesis and the realtime transport.
type CommentaryLine struct {
	Seq        int              `json:"seq"`
	Text       string           `json:"text"`
	Caster     Caster           `json:"caster"`
	Style      Style            `json:"style"`
	Importance int              `json:"importance"`
	TemplateID string           `json:"template_id"`
	Timestamp  time.Time        `json:"timestamp"`
	Source     *ClassifiedEvent `json:"source_event"`
}
