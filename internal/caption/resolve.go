package caption

import (
	"math"
	"sort"
)

// Span is anything with a closed [start, end] interval.
type Span interface {
	Bounds() (start, end float64)
}

// ActiveWord returns the first word whose closed interval contains t.
// It scans linearly, O(n) per call; use an Index for long transcripts.
func ActiveWord(words []WordTimestamp, t float64) (WordTimestamp, bool) {
	i := firstContaining(words, t)
	if i < 0 {
		return WordTimestamp{}, false
	}
	return words[i], true
}

// ActivePhrase returns the first phrase whose closed interval contains t.
// It scans linearly, O(n) per call, which is fine for phrase lists of a few
// dozen entries.
func ActivePhrase(phrases []Phrase, t float64) (Phrase, bool) {
	i := firstContaining(phrases, t)
	if i < 0 {
		return Phrase{}, false
	}
	return phrases[i], true
}

func firstContaining[T Span](spans []T, t float64) int {
	if math.IsNaN(t) {
		return -1
	}
	for i, s := range spans {
		start, end := s.Bounds()
		if start <= t && t <= end {
			return i
		}
	}
	return -1
}

// Index answers the same query as ActiveWord/ActivePhrase in O(log n).
//
// Spans must be sorted by start (the segmenter guarantees this for both words
// and phrases). Overlaps are allowed: maxEnd[i] holds the largest end among
// spans[0..i], so the first span reaching t is the first index whose running
// maximum is >= t, provided its start is not after t.
type Index[T Span] struct {
	spans  []T
	starts []float64
	maxEnd []float64
}

// NewIndex builds an index over spans. The slice is retained, not copied;
// callers must not mutate it afterwards.
func NewIndex[T Span](spans []T) *Index[T] {
	idx := &Index[T]{
		spans:  spans,
		starts: make([]float64, len(spans)),
		maxEnd: make([]float64, len(spans)),
	}
	running := math.Inf(-1)
	for i, s := range spans {
		start, end := s.Bounds()
		idx.starts[i] = start
		if end > running {
			running = end
		}
		idx.maxEnd[i] = running
	}
	return idx
}

// Len returns the number of indexed spans.
func (x *Index[T]) Len() int {
	return len(x.spans)
}

// At returns the i-th span.
func (x *Index[T]) At(i int) T {
	return x.spans[i]
}

// Lookup returns the position of the first span containing t, or -1.
func (x *Index[T]) Lookup(t float64) int {
	if math.IsNaN(t) || len(x.spans) == 0 {
		return -1
	}
	// first i with maxEnd[i] >= t; end[i] >= t there by construction
	i := sort.SearchFloat64s(x.maxEnd, t)
	if i == len(x.spans) || x.starts[i] > t {
		return -1
	}
	return i
}

// Find is Lookup returning the span itself.
func (x *Index[T]) Find(t float64) (T, bool) {
	var zero T
	i := x.Lookup(t)
	if i < 0 {
		return zero, false
	}
	return x.spans[i], true
}

// contains reports whether i is exactly the answer Lookup(t) would give.
func (x *Index[T]) contains(i int, t float64) bool {
	if i < 0 || i >= len(x.spans) {
		return false
	}
	_, end := x.spans[i].Bounds()
	if x.starts[i] > t || end < t {
		return false
	}
	return i == 0 || x.maxEnd[i-1] < t
}

// Cursor remembers the last answer so monotonic playback is O(1) per frame.
// Seeks fall back to binary search. A Cursor is not safe for concurrent use;
// give each playback stream its own.
type Cursor[T Span] struct {
	index *Index[T]
	last  int
}

// NewCursor returns a cursor over idx.
func NewCursor[T Span](idx *Index[T]) *Cursor[T] {
	return &Cursor[T]{index: idx, last: -1}
}

// Seek returns the position of the active span at t, or -1.
func (c *Cursor[T]) Seek(t float64) int {
	if math.IsNaN(t) {
		return -1
	}
	if c.last >= 0 {
		if c.index.contains(c.last, t) {
			return c.last
		}
		if c.index.contains(c.last+1, t) {
			c.last++
			return c.last
		}
	}
	i := c.index.Lookup(t)
	if i >= 0 {
		c.last = i
	}
	return i
}
