package orchestration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/C32-SoundTech/SoundTech-DH/core/mediachannels"
)

const defaultSessionTTL = 15 * time.Minute

type RegistryOption func(*Registry)

// WithSessionTTL sets how long an inactive session may linger before the
// registry reaps it. Zero or negative disables reaping.
func WithSessionTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) { r.ttl = ttl }
}

// Registry tracks the live sessions of a deployment and reaps the ones
// whose clients went quiet without disconnecting.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl time.Duration

	closeOnce sync.Once
	closed    chan struct{}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		ttl:      defaultSessionTTL,
		closed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.ttl > 0 {
		go r.reap()
	}

	return r
}

// Create builds a session over the channel, registers it and starts its
// run loop. The session lives until the registry destroys it, the client
// disconnects, or ctx is cancelled. A session that stops running
// deregisters itself.
func (r *Registry) Create(ctx context.Context, channel mediachannels.Channel, opts ...SessionOption) (*Session, error) {
	select {
	case <-r.closed:
		return nil, fmt.Errorf("registry is closed")
	default:
	}

	session, err := NewSession(channel, opts...)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, exists := r.sessions[session.ID]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("session %s already registered", session.ID)
	}
	r.sessions[session.ID] = session
	r.mu.Unlock()

	go func() {
		if err := session.Run(ctx); err != nil {
			logger.Warn("session run ended with error", "session_id", session.ID, "error", err)
		}
		r.remove(session.ID)
	}()

	return session, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session, nil
}

// Destroy closes the session and removes it from the registry.
func (r *Registry) Destroy(id string) error {
	r.mu.Lock()
	session, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	session.Close()
	return nil
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// SessionInfo is a point-in-time snapshot of one live session.
type SessionInfo struct {
	ID           string
	State        PipelineState
	CreatedAt    time.Time
	LastActivity time.Time
	Turns        int
}

// List snapshots the live sessions, oldest first.
func (r *Registry) List() []SessionInfo {
	r.mu.RLock()
	infos := make([]SessionInfo, 0, len(r.sessions))
	for _, session := range r.sessions {
		infos = append(infos, SessionInfo{
			ID:           session.ID,
			State:        session.State(),
			CreatedAt:    session.CreatedAt,
			LastActivity: session.lastActivityTime(),
			Turns:        session.conversation.turnCount(),
		})
	}
	r.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Close destroys every registered session and stops the reaper.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.closed)

		r.mu.Lock()
		sessions := make([]*Session, 0, len(r.sessions))
		for _, session := range r.sessions {
			sessions = append(sessions, session)
		}
		r.sessions = make(map[string]*Session)
		r.mu.Unlock()

		for _, session := range sessions {
			session.Close()
		}
	})
}

func (r *Registry) reap() {
	interval := r.ttl / 4
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.closed:
			return
		case <-ticker.C:
			r.reapIdle()
		}
	}
}

func (r *Registry) reapIdle() {
	cutoff := time.Now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*Session
	for id, session := range r.sessions {
		if session.lastActivityTime().Before(cutoff) {
			delete(r.sessions, id)
			expired = append(expired, session)
		}
	}
	r.mu.Unlock()

	for _, session := range expired {
		logger.Info("reaping idle session", "session_id", session.ID)
		session.Close()
	}
}
