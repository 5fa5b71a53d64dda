package caption

import (
	"sync"
	"sync/atomic"
)

// Snapshot is one immutable segmentation of a word list under a policy.
// Nothing in a Snapshot is modified after it is published.
type Snapshot struct {
	Revision uint64
	Words    []WordTimestamp
	Policy   SegmentationPolicy
	Phrases  []Phrase

	words   *Index[WordTimestamp]
	phrases *Index[Phrase]
}

// WordIndex returns the O(log n) index over the snapshot's words.
func (s *Snapshot) WordIndex() *Index[WordTimestamp] {
	return s.words
}

// PhraseIndex returns the O(log n) index over the snapshot's phrases.
func (s *Snapshot) PhraseIndex() *Index[Phrase] {
	return s.phrases
}

// WordState pairs a word with whether it is active at the queried time.
type WordState struct {
	Word   WordTimestamp `json:"word"`
	Active bool          `json:"active"`
}

// Frame is what a renderer needs for one playback tick.
type Frame struct {
	Time        float64        `json:"time"`
	Revision    uint64         `json:"revision"`
	Word        *WordTimestamp `json:"word,omitempty"`
	Phrase      *Phrase        `json:"phrase,omitempty"`
	WordPos     int            `json:"wordPosition"`
	PhrasePos   int            `json:"phrasePosition"`
	PhraseWords []WordState    `json:"phraseWords,omitempty"`
}

// At resolves the active word and phrase at t.
func (s *Snapshot) At(t float64) Frame {
	return s.frame(t, s.words.Lookup(t), s.phrases.Lookup(t))
}

func (s *Snapshot) frame(t float64, wi, pi int) Frame {
	f := Frame{Time: t, Revision: s.Revision, WordPos: wi, PhrasePos: pi}
	if wi >= 0 {
		w := s.Words[wi]
		f.Word = &w
	}
	if pi >= 0 {
		p := s.Phrases[pi]
		f.Phrase = &p
		f.PhraseWords = WordStates(p, t)
	}
	return f
}

// WordStates flags each word of p that is active at t. At most one word is
// flagged: the first one containing t, matching ActiveWord.
func WordStates(p Phrase, t float64) []WordState {
	states := make([]WordState, len(p.Words))
	active := firstContaining(p.Words, t)
	for i, w := range p.Words {
		states[i] = WordState{Word: w, Active: i == active}
	}
	return states
}

// Timeline caches segmentation as a pure function of (words, policy).
// Readers always see a complete snapshot; writers build a new one and swap it
// in, so a resolver query never observes a half-updated phrase set.
type Timeline struct {
	mu      sync.Mutex // serializes writers
	current atomic.Pointer[Snapshot]
}

// NewTimeline returns a timeline with no words under policy.
func NewTimeline(policy SegmentationPolicy) (*Timeline, error) {
	snap, err := build(0, nil, policy)
	if err != nil {
		return nil, err
	}
	t := &Timeline{}
	t.current.Store(snap)
	return t, nil
}

// Snapshot returns the current snapshot.
func (t *Timeline) Snapshot() *Snapshot {
	return t.current.Load()
}

// SetWords replaces the word list and regroups it under the current policy.
// changed is false when words equal the current list. On error the previous
// snapshot stays in place.
func (t *Timeline) SetWords(words []WordTimestamp) (snap *Snapshot, changed bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.current.Load()
	if equalWords(cur.Words, words) {
		return cur, false, nil
	}
	next, err := build(cur.Revision+1, words, cur.Policy)
	if err != nil {
		return cur, false, err
	}
	t.current.Store(next)
	return next, true, nil
}

// SetPolicy regroups the current words under policy. changed is false when
// the policy is unchanged, in which case no work is done.
func (t *Timeline) SetPolicy(policy SegmentationPolicy) (snap *Snapshot, changed bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.current.Load()
	if cur.Policy == policy {
		return cur, false, nil
	}
	next, err := build(cur.Revision+1, cur.Words, policy)
	if err != nil {
		return cur, false, err
	}
	t.current.Store(next)
	return next, true, nil
}

// Replace sets words and policy together as one revision.
func (t *Timeline) Replace(words []WordTimestamp, policy SegmentationPolicy) (*Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.current.Load()
	next, err := build(cur.Revision+1, words, policy)
	if err != nil {
		return cur, err
	}
	t.current.Store(next)
	return next, nil
}

// At resolves a frame against the current snapshot.
func (t *Timeline) At(at float64) Frame {
	return t.current.Load().At(at)
}

func build(revision uint64, words []WordTimestamp, policy SegmentationPolicy) (*Snapshot, error) {
	phrases, err := Segment(words, policy)
	if err != nil {
		return nil, err
	}
	owned := make([]WordTimestamp, len(words))
	copy(owned, words)
	return &Snapshot{
		Revision: revision,
		Words:    owned,
		Policy:   policy,
		Phrases:  phrases,
		words:    NewIndex(owned),
		phrases:  NewIndex(phrases),
	}, nil
}

func equalWords(a, b []WordTimestamp) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Player follows one playback stream over a timeline. It keeps word and
// phrase cursors for the snapshot it last saw and rebuilds them when the
// timeline publishes a new revision. Not safe for concurrent use.
type Player struct {
	timeline *Timeline
	snap     *Snapshot
	words    *Cursor[WordTimestamp]
	phrases  *Cursor[Phrase]
}

// NewPlayer returns a player bound to timeline.
func NewPlayer(timeline *Timeline) *Player {
	return &Player{timeline: timeline}
}

// At resolves the frame at t, advancing the cursors.
func (p *Player) At(t float64) Frame {
	snap := p.timeline.Snapshot()
	if snap != p.snap {
		p.snap = snap
		p.words = NewCursor(snap.WordIndex())
		p.phrases = NewCursor(snap.PhraseIndex())
	}
	return snap.frame(t, p.words.Seek(t), p.phrases.Seek(t))
}
