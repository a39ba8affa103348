// Package session tracks the signed-in sessions of this process.
// Handlers read the current session from the request context; long-lived
// consumers such as job streams end when their session signs out.
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrSignedOut is returned when a signed-out session is presented again
	ErrSignedOut = errors.New("session has been signed out")
	// ErrUnknown is returned for a session id that is not tracked
	ErrUnknown = errors.New("unknown session")
)

// Session is a verified sign-in
type Session struct {
	ID        string    `json:"session_id"`
	Identity  string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// EventKind says what happened to a session
type EventKind string

const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
	Expired   EventKind = "expired"
)

// Event is delivered to subscribers on every session change
type Event struct {
	Kind    EventKind
	Session Session
}

type entry struct {
	session Session
	done    chan struct{}
}

// Store is the process-wide session registry
type Store struct {
	mu      sync.Mutex
	active  map[string]*entry
	revoked map[string]time.Time
	subs    map[int]func(Event)
	nextSub int
}

// NewStore returns an empty registry
func NewStore() *Store {
	return &Store{
		active:  make(map[string]*entry),
		revoked: make(map[string]time.Time),
		subs:    make(map[int]func(Event)),
	}
}

// Track registers a verified session, or returns the one already tracked under its id
func (s *Store) Track(sess Session) (Session, error) {
	s.mu.Lock()
	if _, ok := s.revoked[sess.ID]; ok {
		s.mu.Unlock()
		return Session{}, ErrSignedOut
	}
	if e, ok := s.active[sess.ID]; ok {
		s.mu.Unlock()
		return e.session, nil
	}
	s.active[sess.ID] = &entry{session: sess, done: make(chan struct{})}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	notify(subs, Event{Kind: SignedIn, Session: sess})
	return sess, nil
}

// Current returns the tracked session with the given id
func (s *Store) Current(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.active[id]
	if !ok {
		return Session{}, false
	}
	return e.session, true
}

// Done returns a channel closed when the session signs out or expires.
// Unknown ids get an already closed channel.
func (s *Store) Done(id string) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.active[id]; ok {
		return e.done
	}
	ch := make(chan struct{})
	close(ch)
	return ch
}

// SignOut ends a session; the id is refused by Track until it would have expired
func (s *Store) SignOut(id string) error {
	s.mu.Lock()
	e, ok := s.active[id]
	if !ok {
		s.mu.Unlock()
		return ErrUnknown
	}
	delete(s.active, id)
	s.revoked[id] = e.session.ExpiresAt
	close(e.done)
	subs := s.snapshotSubs()
	s.mu.Unlock()

	notify(subs, Event{Kind: SignedOut, Session: e.session})
	return nil
}

// Subscribe registers fn for every session change and returns its release func
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Sweep drops sessions and revocations that expired at or before now and returns how many were removed
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	var expired []Session
	for id, e := range s.active {
		if e.session.Expired(now) {
			delete(s.active, id)
			close(e.done)
			expired = append(expired, e.session)
		}
	}
	removed := len(expired)
	for id, exp := range s.revoked {
		if exp.IsZero() {
			continue
		}
		if !now.Before(exp) {
			delete(s.revoked, id)
			removed++
		}
	}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, sess := range expired {
		notify(subs, Event{Kind: Expired, Session: sess})
	}
	return removed
}

func (s *Store) snapshotSubs() []func(Event) {
	out := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}

type contextKey struct{}

// NewContext returns a context carrying the session
func NewContext(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session carried by ctx
func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(Session)
	return sess, ok
}
