package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"caption-timeline-service/internal/caption"
	"caption-timeline-service/internal/style"
)

var (
	// ErrNotFound is returned for unknown or deleted session ids.
	ErrNotFound = errors.New("session not found")
	// ErrLimitExceeded is returned when the store already holds the maximum
	// number of sessions.
	ErrLimitExceeded = errors.New("session limit exceeded")
)

// Session is one transcript being captioned.
type Session struct {
	id        string
	createdAt time.Time
	lifecycle *Lifecycle
	timeline  *caption.Timeline

	mu       sync.RWMutex
	style    style.Config
	debug    json.RawMessage
	videoURI string
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Lifecycle returns the transcript lifecycle.
func (s *Session) Lifecycle() *Lifecycle {
	return s.lifecycle
}

// Timeline returns the cached segmentation.
func (s *Session) Timeline() *caption.Timeline {
	return s.timeline
}

// Style returns the current overlay style.
func (s *Session) Style() style.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.style
}

// SetStyle validates and replaces the overlay style.
func (s *Session) SetStyle(c style.Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.style = c
	return nil
}

// Debug returns the collaborator's debug block as received.
func (s *Session) Debug() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.debug
}

// SetDebug stores the collaborator's debug block.
func (s *Session) SetDebug(raw json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debug = append(json.RawMessage(nil), raw...)
}

// VideoURI returns the last video submitted for transcription.
func (s *Session) VideoURI() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.videoURI
}

// SetVideoURI records the video submitted for transcription.
func (s *Session) SetVideoURI(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videoURI = uri
}

// Store keeps sessions in memory.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxSessions int
	now         func() time.Time
}

// NewStore creates a store. maxSessions <= 0 means unlimited.
func NewStore(maxSessions int) *Store {
	return &Store{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

// Create adds a new session with the given policy and style.
func (st *Store) Create(policy caption.SegmentationPolicy, sc style.Config) (*Session, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	timeline, err := caption.NewTimeline(policy)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.maxSessions > 0 && len(st.sessions) >= st.maxSessions {
		return nil, fmt.Errorf("%w: %d sessions open", ErrLimitExceeded, len(st.sessions))
	}
	s := &Session{
		id:        uuid.NewString(),
		createdAt: st.now().UTC(),
		lifecycle: NewLifecycle(),
		timeline:  timeline,
		style:     sc,
	}
	st.sessions[s.id] = s
	return s, nil
}

// Get returns the session with id.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Delete closes and removes the session with id.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.lifecycle.Close()
	return nil
}

// Len returns the number of open sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// List returns open sessions ordered by creation time.
func (st *Store) List() []*Session {
	st.mu.RLock()
	out := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	st.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].createdAt.Equal(out[j].createdAt) {
			return out[i].id < out[j].id
		}
		return out[i].createdAt.Before(out[j].createdAt)
	})
	return out
}
