package commentary

import (
	"fmt"
	"math/rand"

	"github.com/arnab-maity007/Advanced-Valo/internal/event"
)

// Rand is the random source used to pick among eligible templates.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Selection is the commentary decision for one event.
type Selection struct {
	Kind       event.Kind
	TemplateID string
	Caster     event.Caster
	Style      event.Style
	Importance int
}

// SelectorOptions configures a Selector.
type SelectorOptions struct {
	Importance map[event.Kind]int
	Styles     map[event.Kind]event.Style
	Rand       Rand
	// Seed seeds the default random source when Rand is nil. Zero uses
	// a fixed seed of 1.
	Seed int64
}

// Selector decides caster, style and template for accepted events. It
// keeps per-session state and is not safe for concurrent use.
type Selector struct {
	catalog    *Catalog
	importance Importance
	styles     map[event.Kind]event.Style
	rnd        Rand

	committed int
	last      map[pairKey]string
}

// NewSelector builds a selector over catalog.
func NewSelector(catalog *Catalog, opts SelectorOptions) *Selector {
	styles := make(map[event.Kind]event.Style, len(DefaultStyles))
	for k, v := range DefaultStyles {
		styles[k] = v
	}
	for k, v := range opts.Styles {
		styles[k] = v
	}
	rnd := opts.Rand
	if rnd == nil {
		seed := opts.Seed
		if seed == 0 {
			seed = 1
		}
		rnd = rand.New(rand.NewSource(seed))
	}
	return &Selector{
		catalog:    catalog,
		importance: NewImportance(opts.Importance),
		styles:     styles,
		rnd:        rnd,
		last:       make(map[pairKey]string),
	}
}

// Importance returns the selector's importance table.
func (s *Selector) Importance() Importance {
	return s.importance
}

// NextCaster returns the caster of the next committed line.
func (s *Selector) NextCaster() event.Caster {
	if s.committed%2 == 0 {
		return event.Hype
	}
	return event.Analyst
}

// Select picks the template for ev. It does not advance caster
// alternation or template history; call Commit once the line has been
// rendered.
func (s *Selector) Select(ev event.ClassifiedEvent) (Selection, error) {
	style, ok := s.styles[ev.Kind]
	if !ok {
		return Selection{}, fmt.Errorf("%w: no style for kind %q", ErrNoTemplate, ev.Kind)
	}
	candidates := s.catalog.For(ev.Kind, style)
	if len(candidates) == 0 {
		return Selection{}, fmt.Errorf("%w: kind %q style %q", ErrNoTemplate, ev.Kind, style)
	}

	if prev := s.last[pairKey{ev.Kind, style}]; prev != "" && len(candidates) > 1 {
		eligible := make([]*Template, 0, len(candidates)-1)
		for _, t := range candidates {
			if t.ID != prev {
				eligible = append(eligible, t)
			}
		}
		candidates = eligible
	}
	t := candidates[s.rnd.Intn(len(candidates))]

	return Selection{
		Kind:       ev.Kind,
		TemplateID: t.ID,
		Caster:     s.NextCaster(),
		Style:      style,
		Importance: s.importance.Of(ev.Kind),
	}, nil
}

// Commit records that sel was emitted.
func (s *Selector) Commit(sel Selection) {
	s.last[pairKey{sel.Kind, sel.Style}] = sel.TemplateID
	s.committed++
}

// Committed returns how many lines have been committed.
func (s *Selector) Committed() int {
	return s.committed
}

// Reset clears caster alternation and template history.
func (s *Selector) Reset() {
	s.committed = 0
	s.last = make(map[pairKey]string)
}
