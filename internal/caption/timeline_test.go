package caption

import (
	"sync"
	"testing"
)

func newTestTimeline(t *testing.T, policy SegmentationPolicy) *Timeline {
	t.Helper()
	tl, err := NewTimeline(policy)
	if err != nil {
		t.Fatalf("NewTimeline: %v", err)
	}
	return tl
}

func TestTimeline_InitialSnapshotIsEmpty(t *testing.T) {
	tl := newTestTimeline(t, DefaultPolicy())
	snap := tl.Snapshot()
	if snap.Revision != 0 || len(snap.Words) != 0 || len(snap.Phrases) != 0 {
		t.Errorf("expected empty revision 0, got %+v", snap)
	}
	f := tl.At(1)
	if f.Word != nil || f.Phrase != nil || f.WordPos != -1 || f.PhrasePos != -1 {
		t.Errorf("expected empty frame, got %+v", f)
	}
}

func TestNewTimeline_RejectsBadPolicy(t *testing.T) {
	if _, err := NewTimeline(SegmentationPolicy{MaxWordsPerPhrase: 0}); err == nil {
		t.Error("expected error for invalid policy")
	}
}

func TestTimeline_SetWordsAndPolicy(t *testing.T) {
	tl := newTestTimeline(t, SegmentationPolicy{MaxWordsPerPhrase: 2, SilenceGapThreshold: 1})

	snap, changed, err := tl.SetWords(evenWords(5))
	if err != nil || !changed {
		t.Fatalf("expected change without error, got changed=%v err=%v", changed, err)
	}
	if snap.Revision != 1 || len(snap.Phrases) != 3 {
		t.Errorf("expected revision 1 with 3 phrases, got %d with %d", snap.Revision, len(snap.Phrases))
	}

	// same words: cached, no new revision
	snap, changed, err = tl.SetWords(evenWords(5))
	if err != nil || changed || snap.Revision != 1 {
		t.Errorf("expected cached snapshot, got changed=%v rev=%d err=%v", changed, snap.Revision, err)
	}

	snap, changed, err = tl.SetPolicy(SegmentationPolicy{MaxWordsPerPhrase: 5, SilenceGapThreshold: 1})
	if err != nil || !changed {
		t.Fatalf("expected change, got changed=%v err=%v", changed, err)
	}
	if snap.Revision != 2 || len(snap.Phrases) != 1 {
		t.Errorf("expected revision 2 with 1 phrase, got %d with %d", snap.Revision, len(snap.Phrases))
	}

	_, changed, _ = tl.SetPolicy(SegmentationPolicy{MaxWordsPerPhrase: 5, SilenceGapThreshold: 1})
	if changed {
		t.Error("expected unchanged policy to be a no-op")
	}
}

func TestTimeline_FailedUpdateKeepsPreviousSnapshot(t *testing.T) {
	tl := newTestTimeline(t, DefaultPolicy())
	good, _, err := tl.SetWords(evenWords(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := tl.SetWords(words([2]float64{2, 3}, [2]float64{1, 2})); err == nil {
		t.Fatal("expected validation error for unsorted words")
	}
	if _, _, err := tl.SetPolicy(SegmentationPolicy{MaxWordsPerPhrase: -1}); err == nil {
		t.Fatal("expected validation error for bad policy")
	}
	if tl.Snapshot() != good {
		t.Error("expected failed updates to leave the snapshot untouched")
	}
}

func TestTimeline_FrameCarriesWordStates(t *testing.T) {
	tl := newTestTimeline(t, SegmentationPolicy{MaxWordsPerPhrase: 3, SilenceGapThreshold: 1})
	if _, _, err := tl.SetWords(evenWords(3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f := tl.At(0.5) // inside w1 (0.4-0.7)
	if f.Word == nil || f.Word.Text != "w1" {
		t.Fatalf("expected active word w1, got %+v", f.Word)
	}
	if f.Phrase == nil || f.Phrase.Text != "w0 w1 w2" {
		t.Fatalf("expected active phrase, got %+v", f.Phrase)
	}
	if len(f.PhraseWords) != 3 {
		t.Fatalf("expected 3 word states, got %d", len(f.PhraseWords))
	}
	for i, s := range f.PhraseWords {
		if s.Active != (i == 1) {
			t.Errorf("word %d active=%v", i, s.Active)
		}
	}

	// between words: phrase active, no word active
	f = tl.At(0.35)
	if f.Word != nil || f.Phrase == nil {
		t.Errorf("expected phrase without word at 0.35, got word=%+v phrase=%+v", f.Word, f.Phrase)
	}
	for _, s := range f.PhraseWords {
		if s.Active {
			t.Errorf("expected no active word state, got %+v", s)
		}
	}
}

func TestTimeline_SnapshotIsIsolatedFromCaller(t *testing.T) {
	tl := newTestTimeline(t, DefaultPolicy())
	in := evenWords(3)
	snap, _, _ := tl.SetWords(in)
	in[0].Text = "mutated"
	if snap.Words[0].Text != "w0" {
		t.Error("snapshot words alias the caller's slice")
	}
}

func TestTimeline_ConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	tl := newTestTimeline(t, SegmentationPolicy{MaxWordsPerPhrase: 1, SilenceGapThreshold: 1})
	if _, _, err := tl.SetWords(evenWords(50)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := tl.Snapshot()
				if got := len(Flatten(snap.Phrases)); got != len(snap.Words) {
					t.Errorf("snapshot %d: phrases cover %d of %d words", snap.Revision, got, len(snap.Words))
					return
				}
			}
		}()
	}

	for k := 1; k <= 20; k++ {
		if _, _, err := tl.SetPolicy(SegmentationPolicy{MaxWordsPerPhrase: k, SilenceGapThreshold: 1}); err != nil {
			t.Errorf("SetPolicy(%d): %v", k, err)
		}
	}
	close(stop)
	wg.Wait()
}

func TestPlayer_FollowsRevisions(t *testing.T) {
	tl := newTestTimeline(t, SegmentationPolicy{MaxWordsPerPhrase: 1, SilenceGapThreshold: 1})
	if _, _, err := tl.SetWords(evenWords(4)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := NewPlayer(tl)

	f := p.At(0.5)
	if f.PhrasePos != 1 || f.Revision != 1 {
		t.Errorf("expected phrase 1 at rev 1, got %d at rev %d", f.PhrasePos, f.Revision)
	}

	if _, _, err := tl.SetPolicy(SegmentationPolicy{MaxWordsPerPhrase: 4, SilenceGapThreshold: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f = p.At(0.5)
	if f.PhrasePos != 0 || f.Revision != 2 {
		t.Errorf("expected phrase 0 at rev 2, got %d at rev %d", f.PhrasePos, f.Revision)
	}
	if f.Phrase == nil || len(f.Phrase.Words) != 4 {
		t.Errorf("expected 4-word phrase after regroup, got %+v", f.Phrase)
	}
}
