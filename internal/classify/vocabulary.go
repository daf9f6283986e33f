package classify

// Vocabulary names. Thresholds and additions in configuration refer to these.
const (
	VocabWeapons = "weapons"
	VocabAgents  = "agents"
	VocabPhases  = "phases"
	VocabSpike   = "spike"
)

// Entry is one canonical vocabulary item and the OCR readings that
// should resolve to it.
type Entry struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases,omitempty"`
}

func (e Entry) forms() []string {
	out := make([]string, 0, len(e.Aliases)+1)
	out = append(out, normalize(e.Name))
	for _, a := range e.Aliases {
		out = append(out, normalize(a))
	}
	return out
}

// Vocabulary is a fixed set of entries matched against one region kind.
type Vocabulary struct {
	Name    string
	Entries []Entry
}

// lookup returns the entry with the given canonical name.
func (v Vocabulary) lookup(name string) (Entry, bool) {
	for _, e := range v.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// withAdditions returns a copy of v with extra entries appended. An
// addition whose name already exists extends that entry's aliases.
func (v Vocabulary) withAdditions(extra []Entry) Vocabulary {
	out := Vocabulary{Name: v.Name, Entries: make([]Entry, len(v.Entries))}
	for i, e := range v.Entries {
		out.Entries[i] = Entry{Name: e.Name, Aliases: append([]string(nil), e.Aliases...)}
	}
	for _, add := range extra {
		merged := false
		for i := range out.Entries {
			if out.Entries[i].Name == add.Name {
				out.Entries[i].Aliases = append(out.Entries[i].Aliases, add.Aliases...)
				merged = true
				break
			}
		}
		if !merged {
			out.Entries = append(out.Entries, Entry{Name: add.Name, Aliases: append([]string(nil), add.Aliases...)})
		}
	}
	return out
}

// DefaultVocabularies returns the built-in vocabularies keyed by name.
func DefaultVocabularies() map[string]Vocabulary {
	return map[string]Vocabulary{
		VocabWeapons: {Name: VocabWeapons, Entries: []Entry{
			{Name: "Classic", Aliases: []string{"clasic"}},
			{Name: "Shorty"},
			{Name: "Frenzy"},
			{Name: "Ghost", Aliases: []string{"gost", "ghst"}},
			{Name: "Sheriff", Aliases: []string{"sherif"}},
			{Name: "Stinger"},
			{Name: "Spectre", Aliases: []string{"specter"}},
			{Name: "Bucky"},
			{Name: "Judge", Aliases: []string{"juge"}},
			{Name: "Bulldog"},
			{Name: "Guardian"},
			{Name: "Phantom", Aliases: []string{"fantom"}},
			{Name: "Vandal"},
			{Name: "Marshal"},
			{Name: "Outlaw"},
			{Name: "Operator", Aliases: []string{"opertr"}},
			{Name: "Ares"},
			{Name: "Odin"},
			{Name: "Light Shields"},
			{Name: "Heavy Shields"},
		}},
		VocabAgents: {Name: VocabAgents, Entries: []Entry{
			{Name: "Astra"}, {Name: "Breach"}, {Name: "Brimstone"}, {Name: "Chamber"},
			{Name: "Clove"}, {Name: "Cypher"}, {Name: "Deadlock"}, {Name: "Fade"},
			{Name: "Gekko"}, {Name: "Harbor"}, {Name: "Iso"}, {Name: "Jett"},
			{Name: "KAY/O", Aliases: []string{"kayo"}}, {Name: "Killjoy"}, {Name: "Neon"},
			{Name: "Omen"}, {Name: "Phoenix"}, {Name: "Raze"}, {Name: "Reyna"},
			{Name: "Sage"}, {Name: "Skye"}, {Name: "Sova"}, {Name: "Tejo"},
			{Name: "Viper"}, {Name: "Vyse"}, {Name: "Waylay"}, {Name: "Yoru"},
		}},
		VocabPhases: {Name: VocabPhases, Entries: []Entry{
			{Name: "buy", Aliases: []string{"buy phase", "buying phase"}},
			{Name: "prep", Aliases: []string{"prep phase", "preparation"}},
			{Name: "post", Aliases: []string{"round over", "round won", "round lost", "round win"}},
		}},
		VocabSpike: {Name: VocabSpike, Entries: []Entry{
			{Name: "planted", Aliases: []string{"spike planted", "spike down"}},
			{Name: "defused", Aliases: []string{"spike defused", "defusing"}},
		}},
	}
}

// Cue keyword sets. They already list the common OCR misreadings.
var (
	requestingKeywords = []string{"requesting", "request", "req"}
	ownedKeywords      = []string{"owned", "ownd", "omned", "equipped"}
	lockKeywords       = []string{"lock", "locked", "lockedin"}
	headshotKeywords   = []string{"hs", "headshot"}
)
