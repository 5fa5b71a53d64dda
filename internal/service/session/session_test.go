package session

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"caption-timeline-service/internal/caption"
	"caption-timeline-service/internal/style"
)

func TestStore_CreateGetDelete(t *testing.T) {
	st := NewStore(0)

	s, err := st.Create(caption.DefaultPolicy(), style.Default())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.ID() == "" {
		t.Fatal("expected a session id")
	}
	if s.Lifecycle().State() != StatePending {
		t.Errorf("expected StatePending, got %v", s.Lifecycle().State())
	}
	if s.Timeline().Snapshot().Policy != caption.DefaultPolicy() {
		t.Errorf("expected default policy on the timeline")
	}

	got, err := st.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("Get: expected same session, got %v (%v)", got, err)
	}

	if err := st.Delete(s.ID()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Lifecycle().State() != StateClosed {
		t.Errorf("expected deleted session to be closed, got %v", s.Lifecycle().State())
	}
	if _, err := st.Get(s.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := st.Delete(s.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStore_CreateValidates(t *testing.T) {
	st := NewStore(0)
	if _, err := st.Create(caption.SegmentationPolicy{}, style.Default()); !errors.Is(err, caption.ErrValidation) {
		t.Errorf("expected caption validation error, got %v", err)
	}
	bad := style.Default()
	bad.TextColor = "nope"
	if _, err := st.Create(caption.DefaultPolicy(), bad); !errors.Is(err, style.ErrInvalidColor) {
		t.Errorf("expected style error, got %v", err)
	}
	if st.Len() != 0 {
		t.Errorf("expected no sessions after failures, got %d", st.Len())
	}
}

func TestStore_Limit(t *testing.T) {
	st := NewStore(2)
	for i := 0; i < 2; i++ {
		if _, err := st.Create(caption.DefaultPolicy(), style.Default()); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	if _, err := st.Create(caption.DefaultPolicy(), style.Default()); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("expected ErrLimitExceeded, got %v", err)
	}
}

func TestStore_UniqueIDsUnderConcurrency(t *testing.T) {
	st := NewStore(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := st.Create(caption.DefaultPolicy(), style.Default()); err != nil {
				t.Errorf("Create: %v", err)
			}
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, s := range st.List() {
		if seen[s.ID()] {
			t.Errorf("duplicate session id %s", s.ID())
		}
		seen[s.ID()] = true
	}
	if len(seen) != 50 {
		t.Errorf("expected 50 sessions, got %d", len(seen))
	}
}

func TestSession_StyleAndDebug(t *testing.T) {
	st := NewStore(0)
	s, _ := st.Create(caption.DefaultPolicy(), style.Default())

	c := style.Default()
	c.TextCase = style.CaseUpper
	if err := s.SetStyle(c); err != nil {
		t.Fatalf("SetStyle: %v", err)
	}
	if s.Style().TextCase != style.CaseUpper {
		t.Errorf("expected upper case style, got %s", s.Style().TextCase)
	}

	c.PositionPercent = 500
	if err := s.SetStyle(c); err == nil {
		t.Error("expected invalid style to be rejected")
	}
	if s.Style().PositionPercent != style.Default().PositionPercent {
		t.Error("expected rejected style to leave the old one in place")
	}

	raw := json.RawMessage(`{"word_count":3}`)
	s.SetDebug(raw)
	raw[2] = 'X'
	if string(s.Debug()) != `{"word_count":3}` {
		t.Errorf("expected debug copy, got %s", s.Debug())
	}

	s.SetVideoURI("gs://b/v.mp4")
	if s.VideoURI() != "gs://b/v.mp4" {
		t.Errorf("unexpected video uri %s", s.VideoURI())
	}
}
