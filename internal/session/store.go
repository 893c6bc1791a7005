// Package session keeps the open calculator forms of the gateway, one per
// browser session, and closes the ones left idle.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/R3E-Network/integrales/internal/form"
	"github.com/R3E-Network/integrales/pkg/logger"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// Gauge receives session counts.
type Gauge interface {
	SetActiveSessions(n int)
	AddSweptSessions(n int)
}

// Session is one open form.
type Session struct {
	ID        string
	Form      *form.Form
	CreatedAt time.Time
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Options configures a Store.
type Options struct {
	TTL    time.Duration
	Logger *logger.Logger
	Gauge  Gauge
}

// Store holds sessions in memory. Nothing is persisted.
type Store struct {
	newForm func() *form.Form
	ttl     time.Duration
	log     *logger.Logger
	gauge   Gauge
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewStore creates a store whose sessions get forms from newForm.
func NewStore(newForm func() *form.Form, opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewDefault("session")
	}
	return &Store{
		newForm:  newForm,
		ttl:      opts.TTL,
		log:      opts.Logger,
		gauge:    opts.Gauge,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Create opens a session with a fresh form.
func (s *Store) Create() *Session {
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Form:      s.newForm(),
		CreatedAt: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = &entry{session: sess, lastSeen: now}
	n := len(s.sessions)
	s.mu.Unlock()

	s.report(n, 0)
	return sess
}

// Get returns a session and marks it as used.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastSeen = s.now()
	return e.session, nil
}

// Delete closes a session. Its form is cleared so a submission in flight
// cannot land anywhere.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	e.session.Form.Clear()
	s.report(n, 0)
	return nil
}

// Len returns the number of open sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	var expired []*Session
	s.mu.Lock()
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.session)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Form.Clear()
	}
	if len(expired) > 0 {
		s.log.WithFields(map[string]interface{}{
			"swept":  len(expired),
			"active": n,
		}).Info("closed idle sessions")
	}
	s.report(n, len(expired))
	return len(expired)
}

func (s *Store) report(active, swept int) {
	if s.gauge == nil {
		return
	}
	s.gauge.SetActiveSessions(active)
	s.gauge.AddSweptSessions(swept)
}
