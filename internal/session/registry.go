// Package session keeps one analysis orchestrator per browser session and
// serves them over HTTP.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/speedx-dev/speedx/internal/orchestrator"
	"github.com/speedx-dev/speedx/internal/store"
)

const (
	// DefaultMaxSessions bounds the number of live sessions.
	DefaultMaxSessions = 1000
	sessionIdleTTL     = time.Hour
	inboxSize          = 20
)

var (
	// ErrNotFound is returned for an unknown or deleted session ID.
	ErrNotFound = errors.New("session not found")
	// ErrLimitReached is returned by Create when every slot holds an active session.
	ErrLimitReached = errors.New("too many active sessions")
)

// Session is one user's analysis state machine and notification inbox.
type Session struct {
	ID           string
	CreatedAt    time.Time
	Orchestrator *orchestrator.Orchestrator
	Inbox        *orchestrator.Inbox

	lastSeen time.Time
}

// Factory builds the orchestrator for a new session.
type Factory func(id string, inbox *orchestrator.Inbox) *orchestrator.Orchestrator

// NewFactory returns a Factory wiring every session to the same remote
// clients. A nil history disables recording.
func NewFactory(
	analysis orchestrator.AnalysisProvider,
	insight orchestrator.InsightProvider,
	history *store.History,
	logger *slog.Logger,
) Factory {
	return func(id string, inbox *orchestrator.Inbox) *orchestrator.Orchestrator {
		opts := []orchestrator.Option{orchestrator.WithNotifier(inbox)}
		if history != nil {
			opts = append(opts, orchestrator.WithRecorder(&historyRecorder{sessionID: id, history: history}))
		}
		return orchestrator.New(analysis, insight, logger.With("session_id", id), opts...)
	}
}

// Registry holds live sessions keyed by random UUID.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	limit    int
	factory  Factory
	now      func() time.Time
}

// NewRegistry returns a Registry holding at most limit sessions.
func NewRegistry(limit int, factory Factory) *Registry {
	if limit <= 0 {
		limit = DefaultMaxSessions
	}
	return &Registry{
		sessions: make(map[string]*Session),
		limit:    limit,
		factory:  factory,
		now:      time.Now,
	}
}

// Create starts a new Idle session. Sessions idle for over an hour are evicted
// first unless they are still Loading.
func (r *Registry) Create() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if len(r.sessions) >= r.limit {
		for id, s := range r.sessions {
			if now.Sub(s.lastSeen) > sessionIdleTTL && s.Orchestrator.Snapshot().Status != orchestrator.Loading {
				delete(r.sessions, id)
			}
		}
	}
	if len(r.sessions) >= r.limit {
		return nil, ErrLimitReached
	}

	id := uuid.NewString()
	inbox := orchestrator.NewInbox(inboxSize)
	s := &Session{
		ID:           id,
		CreatedAt:    now,
		Orchestrator: r.factory(id, inbox),
		Inbox:        inbox,
		lastSeen:     now,
	}
	r.sessions[id] = s
	return s, nil
}

// Get returns the session with the given ID and marks it as seen.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.lastSeen = r.now()
	return s, nil
}

// Delete resets the session's orchestrator, so an in-flight result is
// discarded, and forgets the session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.Orchestrator.Reset()
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
