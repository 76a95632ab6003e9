package interview

import (
	"sync"
	"time"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 2 * time.Hour

// Session is the per-candidate interview context. Questions never change
// after the session is created; the cursor is derived from stored answers.
type Session struct {
	CandidateID string
	Questions   []string
	CreatedAt   time.Time
	LastAccess  time.Time
}

// Sessions is an in-memory session table with sliding expiry.
type Sessions struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	items map[string]*Session

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewSessions creates an empty table. A non-positive ttl uses DefaultSessionTTL.
func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]*Session),
		stop:  make(chan struct{}),
	}
}

// TTL returns the idle expiry.
func (s *Sessions) TTL() time.Duration { return s.ttl }

// Put registers a session, replacing any previous one for the candidate.
func (s *Sessions) Put(candidateID string, questions []string) Session {
	now := s.now()
	sess := &Session{
		CandidateID: candidateID,
		Questions:   append([]string(nil), questions...),
		CreatedAt:   now,
		LastAccess:  now,
	}

	s.mu.Lock()
	s.items[candidateID] = sess
	s.mu.Unlock()
	return copySession(sess)
}

// Get returns the session and refreshes its expiry. Expired sessions are
// removed and reported as missing.
func (s *Sessions) Get(candidateID string) (Session, bool) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[candidateID]
	if !ok {
		return Session{}, false
	}
	if now.Sub(sess.LastAccess) > s.ttl {
		delete(s.items, candidateID)
		return Session{}, false
	}
	sess.LastAccess = now
	return copySession(sess), true
}

// Delete removes a session.
func (s *Sessions) Delete(candidateID string) {
	s.mu.Lock()
	delete(s.items, candidateID)
	s.mu.Unlock()
}

// Len returns the number of stored sessions, expired or not.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep removes expired sessions and returns how many were removed.
func (s *Sessions) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.items {
		if now.Sub(sess.LastAccess) > s.ttl {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps every interval until Stop is called. onSweep, if set,
// receives the number of sessions removed by each sweep.
func (s *Sessions) StartJanitor(interval time.Duration, onSweep func(removed int)) {
	if interval <= 0 {
		interval = s.ttl / 4
	}
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return
	}
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := s.Sweep(); onSweep != nil {
					onSweep(n)
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop ends the janitor and waits for it to exit.
func (s *Sessions) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func copySession(sess *Session) Session {
	out := *sess
	out.Questions = append([]string(nil), sess.Questions...)
	return out
}
