package service

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Purchase session errors.
var (
	ErrNotAwaiting = errors.New("no purchase in progress")
	ErrNotNumeric  = errors.New("amount must be a positive whole number")
)

// SessionState is the step a user is at in the Stars purchase flow.
type SessionState int

const (
	StateIdle SessionState = iota
	StateAwaitingAmount
)

func (s SessionState) String() string {
	switch s {
	case StateAwaitingAmount:
		return "awaiting_amount"
	default:
		return "idle"
	}
}

type purchaseSession struct {
	state   SessionState
	started time.Time
}

// SessionStore tracks per-user purchase sessions for this process.
// A session leaves AwaitingAmount on any terminal reply.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*purchaseSession
	now      func() time.Time
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*purchaseSession),
		now:      time.Now,
	}
}

// Begin puts the user into AwaitingAmount, restarting any existing session.
func (s *SessionStore) Begin(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = &purchaseSession{state: StateAwaitingAmount, started: s.now()}
}

// State returns the user's current state.
func (s *SessionStore) State(userID int64) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess.state
	}
	return StateIdle
}

// Submit consumes a text reply. Every outcome ends the session: a valid
// positive integer is returned as the amount, anything else yields
// ErrNotNumeric, and a user with no session gets ErrNotAwaiting.
func (s *SessionStore) Submit(userID int64, text string) (int64, error) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()

	if !ok || sess.state != StateAwaitingAmount {
		return 0, ErrNotAwaiting
	}
	return ParseAmount(text)
}

// Cancel drops the user's session and reports whether one existed.
func (s *SessionStore) Cancel(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[userID]
	delete(s.sessions, userID)
	return ok
}

// Sweep removes sessions older than ttl and returns how many were dropped.
func (s *SessionStore) Sweep(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-ttl)
	removed := 0
	for id, sess := range s.sessions {
		if sess.started.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of open sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ParseAmount accepts only ASCII digits forming a positive integer.
func ParseAmount(text string) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, ErrNotNumeric
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, ErrNotNumeric
		}
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrNotNumeric
	}
	return n, nil
}
