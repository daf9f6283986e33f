package commentary

import (
	"sort"

	"github.com/arnab-maity007/Advanced-Valo/internal/event"
)

// DefaultImportance is the built-in importance of each event kind on a
// 1..5 scale.
var DefaultImportance = map[event.Kind]int{
	event.Kill:             5,
	event.SpikePlant:       5,
	event.SpikeDefuse:      5,
	event.AgentLock:        3,
	event.ScoreUpdate:      3,
	event.RequestingWeapon: 3,
	event.RoundPhaseChange: 2,
	event.WeaponOwned:      2,
	event.HoveringWeapon:   1,
	event.AgentHover:       1,
}

// DefaultStyles maps each event kind to the style its lines use.
var DefaultStyles = map[event.Kind]event.Style{
	event.Kill:             event.Excitement,
	event.SpikePlant:       event.Excitement,
	event.SpikeDefuse:      event.Excitement,
	event.WeaponOwned:      event.Analysis,
	event.AgentLock:        event.Analysis,
	event.ScoreUpdate:      event.Analysis,
	event.RequestingWeapon: event.Educational,
	event.HoveringWeapon:   event.PlayByPlay,
	event.AgentHover:       event.PlayByPlay,
	event.RoundPhaseChange: event.PlayByPlay,
}

// Importance is a kind → importance table.
type Importance map[event.Kind]int

// NewImportance returns the default table with overrides applied.
// Override values are clamped to 1..5.
func NewImportance(overrides map[event.Kind]int) Importance {
	imp := make(Importance, len(DefaultImportance))
	for k, v := range DefaultImportance {
		imp[k] = v
	}
	for k, v := range overrides {
		imp[k] = min(max(v, 1), 5)
	}
	return imp
}

// Of returns the importance of kind; unknown kinds get 1.
func (imp Importance) Of(kind event.Kind) int {
	if v, ok := imp[kind]; ok {
		return v
	}
	return 1
}

// Rank sorts events by descending importance, then by kind priority.
// Events that tie on both keep their input order.
func (imp Importance) Rank(events []event.ClassifiedEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := imp.Of(events[i].Kind), imp.Of(events[j].Kind)
		if a != b {
			return a > b
		}
		return events[i].Kind.Priority() < events[j].Kind.Priority()
	})
}
