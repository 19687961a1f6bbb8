package flow

import (
	"sync"
	"time"
)

// Stage identifies the current position of a session within the order flow.
type Stage string

const (
	// StageIdle indicates there is no active order conversation.
	StageIdle Stage = "idle"
	// StageAddress awaits a typed address or a shared location.
	StageAddress Stage = "address"
	// StagePhone awaits a typed phone number or a shared contact.
	StagePhone Stage = "phone"
	// StageDate awaits a calendar selection.
	StageDate Stage = "date"
	// StageBottles awaits the bottle count.
	StageBottles Stage = "bottles"
)

// Session accumulates one in-progress order. Fields are populated strictly
// in stage order; the session resets on flow start and on any terminal
// outcome.
type Session struct {
	Stage      Stage
	ClientName string

	Address string
	Phone   string

	// Calendar cursor: the (year, month) page currently shown to the user.
	CalendarYear  int
	CalendarMonth time.Month

	DeliveryDate string // DD.MM.YYYY
	Bottles      int
}

// Reset returns the session to its initial idle shape.
func (s *Session) Reset() {
	*s = Session{Stage: StageIdle}
}

// InProgress reports whether an order conversation is active. The zero
// value counts as idle.
func (s *Session) InProgress() bool {
	return s.Stage != StageIdle && s.Stage != ""
}

// Sessions owns per-user conversation state. Events for one user are
// serialized through a per-user lock, so two taps on the same calendar can
// never race on the cursor; different users proceed concurrently.
type Sessions struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	locks    map[int64]*sync.Mutex
}

// NewSessions constructs an empty in-memory session store.
func NewSessions() *Sessions {
	return &Sessions{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Do runs fn with the user's session while holding that user's lock.
func (s *Sessions) Do(userID int64, fn func(*Session) error) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	return fn(s.session(userID))
}

// InProgress reports whether the user currently has an active order flow.
func (s *Sessions) InProgress(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	return ok && sess.InProgress()
}

// Clear drops the stored session for a user.
func (s *Sessions) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
}

func (s *Sessions) session(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{Stage: StageIdle}
		s.sessions[userID] = sess
	}
	return sess
}

func (s *Sessions) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}
