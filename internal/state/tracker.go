// Package state remembers the last event seen for every on-screen entity
// in a session so unchanged readings are not commented on twice.
package state

import (
	"sort"
	"sync"

	"github.com/arnab-maity007/Advanced-Valo/internal/event"
	"github.com/arnab-maity007/Advanced-Valo/internal/region"
)

// Store holds EntityState entries for one session, keyed by entity key.
// It is safe for concurrent use, although a session updates it from a
// single goroutine.
type Store struct {
	mu      sync.RWMutex
	entries map[string]event.ClassifiedEvent
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]event.ClassifiedEvent)}
}

// Get returns the last event stored under key.
func (s *Store) Get(key string) (event.ClassifiedEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.entries[key]
	return ev, ok
}

// Put replaces the state stored under key.
func (s *Store) Put(key string, ev event.ClassifiedEvent) {
	s.mu.Lock()
	s.entries[key] = ev
	s.mu.Unlock()
}

// Len returns the number of tracked entities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// DeleteFunc drops every entry for which del returns true and reports
// how many were dropped.
func (s *Store) DeleteFunc(del func(key string, ev event.ClassifiedEvent) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, ev := range s.entries {
		if del(k, ev) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// Snapshot returns a copy of every entry, ordered by key.
func (s *Store) Snapshot() []event.ClassifiedEvent {
	s.mu.RLock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]event.ClassifiedEvent, len(keys))
	for i, k := range keys {
		out[i] = s.entries[k].Clone()
	}
	s.mu.RUnlock()
	return out
}

// Clear drops every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]event.ClassifiedEvent)
	s.mu.Unlock()
}

// Key derives the entity key of an event. A kill is its own entity,
// keyed on killer and victim whatever row of the feed shows it, e.g.
// "kill-feed-line:TenZ>Shroud". Labels that name a fixed slot
// ("buy-slot-3", "agent-card-2") key on the slot; anything else keys on
// the label and the subject.
func Key(ev event.ClassifiedEvent) string {
	l, err := region.ParseLabel(ev.Region)
	if ev.Kind == event.Kill {
		feed := ev.Region
		if err == nil {
			feed = string(l.Kind)
		}
		return feed + ":" + ev.Subject + ">" + ev.Attributes["victim"]
	}
	if err == nil && l.Indexed() {
		return l.String()
	}
	return ev.Region + ":" + ev.Subject
}

// roundScoped are the region kinds whose entities only live for a round.
var roundScoped = map[region.Kind]bool{
	region.KindKillFeed:    true,
	region.KindSpikeStatus: true,
}

// Tracker suppresses events that do not change an entity's stored state.
type Tracker struct {
	store *Store
}

// NewTracker wraps store. A nil store gets a fresh one.
func NewTracker(store *Store) *Tracker {
	if store == nil {
		store = NewStore()
	}
	return &Tracker{store: store}
}

// Update returns the event when it differs from the stored state of its
// entity, recording it as the new state. Otherwise it returns false and
// leaves the state untouched. A change is a different kind, subject or
// attribute set; a newer timestamp alone is not a change. An accepted
// change of the round phase to buy starts a new round and forgets the
// kills and spike state of the last one.
func (t *Tracker) Update(ev event.ClassifiedEvent) (*event.ClassifiedEvent, bool) {
	key := Key(ev)
	if prev, ok := t.store.Get(key); ok && prev.SameState(ev) {
		return nil, false
	}
	if ev.Kind == event.RoundPhaseChange && ev.Attributes["phase"] == "buy" {
		t.newRound()
	}
	t.store.Put(key, ev.Clone())
	accepted := ev.Clone()
	return &accepted, true
}

// newRound forgets kills and the spike state of the previous round, so
// the same kill or the next plant is news again.
func (t *Tracker) newRound() {
	t.store.DeleteFunc(func(_ string, ev event.ClassifiedEvent) bool {
		l, err := region.ParseLabel(ev.Region)
		return err == nil && roundScoped[l.Kind]
	})
}

// Entities returns the current state of every tracked entity.
func (t *Tracker) Entities() []event.ClassifiedEvent {
	return t.store.Snapshot()
}

// Len returns the number of tracked entities.
func (t *Tracker) Len() int {
	return t.store.Len()
}

// Reset forgets every entity. Called at session end.
func (t *Tracker) Reset() {
	t.store.Clear()
}
