package classify

import (
	"regexp"
	"strconv"
	"time"

	"github.com/arnab-maity007/Advanced-Valo/internal/event"
	"github.com/arnab-maity007/Advanced-Valo/internal/region"
)

// DefaultThreshold is the similarity a vocabulary match must reach.
const DefaultThreshold = 0.8

// DefaultMinOCRConfidence is the OCR confidence below which a region is ignored.
const DefaultMinOCRConfidence = 0.5

var (
	pricePattern = regexp.MustCompile(`\$?\s*(\d{2,5})\b`)
	scorePattern = regexp.MustCompile(`\b(\d{1,2})\s*[-:–]\s*(\d{1,2})\b`)
	timerPattern = regexp.MustCompile(`\b\d{1,2}[:.]\d{2}\b`)
)

// Options tune the classifier. Zero values fall back to the defaults.
type Options struct {
	// Threshold is the default similarity needed to accept a match.
	Threshold float64

	// Thresholds overrides Threshold per vocabulary name.
	Thresholds map[string]float64

	// MinOCRConfidence drops regions the OCR engine was unsure about.
	MinOCRConfidence float64

	// Additions extends the built-in vocabularies, keyed by vocabulary name.
	Additions map[string][]Entry

	// Now stamps events when no explicit timestamp is supplied.
	Now func() time.Time
}

// Classifier maps OCR text from a labelled region to a game event.
// It holds no per-session state and is safe for concurrent use.
type Classifier struct {
	threshold  float64
	thresholds map[string]float64
	minConf    float64
	vocab      map[string]Vocabulary
	now        func() time.Time
}

// New builds a classifier from the built-in vocabularies and opts.
func New(opts Options) *Classifier {
	c := &Classifier{
		threshold:  opts.Threshold,
		thresholds: make(map[string]float64, len(opts.Thresholds)),
		minConf:    opts.MinOCRConfidence,
		vocab:      DefaultVocabularies(),
		now:        opts.Now,
	}
	if c.threshold <= 0 {
		c.threshold = DefaultThreshold
	}
	if c.minConf <= 0 {
		c.minConf = DefaultMinOCRConfidence
	}
	if c.now == nil {
		c.now = time.Now
	}
	for name, th := range opts.Thresholds {
		c.thresholds[name] = th
	}
	for name, extra := range opts.Additions {
		v, ok := c.vocab[name]
		if !ok {
			v = Vocabulary{Name: name}
		}
		c.vocab[name] = v.withAdditions(extra)
	}
	return c
}

// ThresholdFor returns the acceptance threshold of a vocabulary.
func (c *Classifier) ThresholdFor(vocab string) float64 {
	if th, ok := c.thresholds[vocab]; ok && th > 0 {
		return th
	}
	return c.threshold
}

// Classify maps a region to an event stamped with the current time.
// It returns false when there is no confident classification; that is
// not an error and callers must not invent an event for it.
func (c *Classifier) Classify(r region.DetectedRegion) (*event.ClassifiedEvent, bool) {
	return c.ClassifyAt(r, c.now())
}

// ClassifyAt is Classify with an explicit timestamp.
func (c *Classifier) ClassifyAt(r region.DetectedRegion, ts time.Time) (*event.ClassifiedEvent, bool) {
	if r.Confidence < c.minConf {
		return nil, false
	}
	label, err := region.ParseLabel(r.Label)
	if err != nil {
		return nil, false
	}
	t := tokenize(r.RawText)
	if t.len() == 0 {
		return nil, false
	}

	var ev *event.ClassifiedEvent
	switch label.Kind {
	case region.KindBuySlot:
		ev = c.classifyBuySlot(r, t)
	case region.KindKillFeed:
		ev = c.classifyKill(t)
	case region.KindAgentCard:
		ev = c.classifyAgent(t)
	case region.KindScoreDisplay:
		ev = classifyScore(r.RawText)
	case region.KindRoundTimer:
		ev = c.classifyPhase(r.RawText, t)
	case region.KindSpikeStatus:
		ev = c.classifySpike(t)
	}
	if ev == nil {
		return nil, false
	}
	ev.Region = label.String()
	ev.Timestamp = ts
	return ev, true
}

func (c *Classifier) matchIn(t tokens, vocab string) (match, bool) {
	m, ok := bestMatch(t, c.vocab[vocab])
	if !ok || m.Score < c.ThresholdFor(vocab) {
		return match{}, false
	}
	return m, true
}

// classifyBuySlot resolves the item in a shop slot and its status.
// Status cues are mutually exclusive; precedence is requesting, then
// hovered, then owned (keyword, highlight, price or bare item).
func (c *Classifier) classifyBuySlot(r region.DetectedRegion, t tokens) *event.ClassifiedEvent {
	m, ok := c.matchIn(t, VocabWeapons)
	if !ok {
		return nil
	}
	attrs := map[string]string{}
	if p := pricePattern.FindStringSubmatch(r.RawText); p != nil {
		attrs["price"] = p[1]
	}

	kind := event.WeaponOwned
	switch {
	case hasKeyword(t, requestingKeywords, c.threshold):
		kind = event.RequestingWeapon
	case r.HasCue(region.CueHovered):
		kind = event.HoveringWeapon
	}
	return &event.ClassifiedEvent{Kind: kind, Subject: m.Canonical, Attributes: attrs}
}

// classifyKill reads "<killer> <weapon> <victim>" lines.
func (c *Classifier) classifyKill(t tokens) *event.ClassifiedEvent {
	m, ok := c.matchIn(t, VocabWeapons)
	if !ok {
		return nil
	}
	killer := t.display(0, m.Start)
	victimEnd := t.len()
	headshot := false
	for victimEnd > m.End && isKeyword(t.lower[victimEnd-1], headshotKeywords) {
		headshot = true
		victimEnd--
	}
	victim := t.display(m.End, victimEnd)
	if killer == "" || victim == "" {
		return nil
	}
	return &event.ClassifiedEvent{
		Kind:    event.Kill,
		Subject: killer,
		Attributes: map[string]string{
			"weapon":   m.Canonical,
			"victim":   victim,
			"headshot": strconv.FormatBool(headshot),
		},
	}
}

func (c *Classifier) classifyAgent(t tokens) *event.ClassifiedEvent {
	m, ok := c.matchIn(t, VocabAgents)
	if !ok {
		return nil
	}
	kind := event.AgentHover
	if hasKeyword(t, lockKeywords, c.threshold) {
		kind = event.AgentLock
	}
	return &event.ClassifiedEvent{Kind: kind, Subject: m.Canonical, Attributes: map[string]string{}}
}

func classifyScore(raw string) *event.ClassifiedEvent {
	s := scorePattern.FindStringSubmatch(raw)
	if s == nil {
		return nil
	}
	a, errA := strconv.Atoi(s[1])
	b, errB := strconv.Atoi(s[2])
	if errA != nil || errB != nil {
		return nil
	}
	return &event.ClassifiedEvent{
		Kind:    event.ScoreUpdate,
		Subject: "score",
		Attributes: map[string]string{
			"team1": strconv.Itoa(a),
			"team2": strconv.Itoa(b),
			"round": strconv.Itoa(a + b + 1),
		},
	}
}

// classifyPhase reads the round timer. Phase words win over a bare timer,
// which means the action phase is running.
func (c *Classifier) classifyPhase(raw string, t tokens) *event.ClassifiedEvent {
	phase := ""
	if m, ok := c.matchIn(t, VocabPhases); ok {
		phase = m.Canonical
	} else if timerPattern.MatchString(raw) {
		phase = "action"
	}
	if phase == "" {
		return nil
	}
	return &event.ClassifiedEvent{
		Kind:       event.RoundPhaseChange,
		Subject:    "round",
		Attributes: map[string]string{"phase": phase},
	}
}

func (c *Classifier) classifySpike(t tokens) *event.ClassifiedEvent {
	m, ok := c.matchIn(t, VocabSpike)
	if !ok {
		return nil
	}
	kind := event.SpikePlant
	if m.Canonical == "defused" {
		kind = event.SpikeDefuse
	}
	return &event.ClassifiedEvent{Kind: kind, Subject: "spike", Attributes: map[string]string{}}
}

func isKeyword(tok string, keywords []string) bool {
	for _, kw := range keywords {
		if tok == kw {
			return true
		}
	}
	return false
}
