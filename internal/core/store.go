package core

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/datasweeper/internal/metrics"
)

// DefaultSessionTTL is used when NewStore is given a non-positive TTL.
const DefaultSessionTTL = 2 * time.Hour

// Session is one visitor's workspace.
type Session struct {
	ID        string
	CreatedAt time.Time

	lastSeen atomic.Int64

	// mu serializes every operation on the session's files.
	mu      sync.Mutex
	files   []*File
	notices []Notice
}

func newSession(now time.Time) *Session {
	s := &Session{ID: uuid.NewString(), CreatedAt: now}
	s.touch(now)
	return s
}

func (s *Session) touch(t time.Time) {
	s.lastSeen.Store(t.UnixNano())
}

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// find returns the file with the given ID and its position. Callers hold mu.
func (s *Session) find(id string) (*File, int) {
	for i, f := range s.files {
		if f.ID == id {
			return f, i
		}
	}
	return nil, -1
}

// Store holds sessions in memory.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	onEvict  []func(id string)
	metrics  *metrics.Metrics
}

// NewStore creates a store whose sessions expire after ttl without use.
func NewStore(ttl time.Duration, m *metrics.Metrics) *Store {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		metrics:  m,
	}
}

// OnEvict registers fn to run after a session is removed.
func (s *Store) OnEvict(fn func(id string)) {
	s.mu.Lock()
	s.onEvict = append(s.onEvict, fn)
	s.mu.Unlock()
}

// Create starts a new session.
func (s *Store) Create() *Session {
	sess := newSession(s.now())

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetSessions(n)
	return sess
}

// Get returns a live session and marks it used. Unknown and expired IDs
// yield ErrSessionNotFound. The expiry check and the touch happen under the
// read lock, so Sweep never removes a session Get has just handed out.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	now := s.now()
	if !ok || now.Sub(sess.LastSeen()) > s.ttl {
		return nil, ErrSessionNotFound
	}
	sess.touch(now)
	return sess, nil
}

// Ensure returns the session for id, creating a fresh one when id is
// unknown or expired. created reports which happened.
func (s *Store) Ensure(id string) (sess *Session, created bool) {
	if id != "" {
		if sess, err := s.Get(id); err == nil {
			return sess, false
		}
	}
	return s.Create(), true
}

// Delete removes a session.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	hooks := s.onEvict
	s.mu.Unlock()

	if ok {
		s.metrics.SetSessions(n)
		for _, fn := range hooks {
			fn(id)
		}
	}
	return ok
}

// Len returns the number of sessions held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many went.
func (s *Store) Sweep() int {
	s.mu.Lock()
	cutoff := s.now().Add(-s.ttl)
	var expired []string
	for id, sess := range s.sessions {
		if sess.LastSeen().Before(cutoff) {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	hooks := s.onEvict
	s.mu.Unlock()

	if len(expired) > 0 {
		s.metrics.SetSessions(n)
		for _, id := range expired {
			for _, fn := range hooks {
				fn(id)
			}
		}
	}
	return len(expired)
}

// Run sweeps expired sessions every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Info("expired sessions removed", "count", n, "remaining", s.Len())
			}
		}
	}
}
