package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"CatalogDash/internal/listing"
)

var ErrNoSession = errors.New("session not found")

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Manager keeps sessions in memory and forgets the ones left idle for longer
// than idleTTL. A zero idleTTL disables expiry.
type Manager struct {
	log         *zap.Logger
	logoutDelay listing.UXDelay
	idleTTL     time.Duration
	now         func() time.Time
	onExpire    func(id string)

	mu       sync.Mutex
	sessions map[string]*entry

	done chan struct{}
	once sync.Once
}

func NewManager(log *zap.Logger, logoutDelay listing.UXDelay, idleTTL time.Duration) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		log:         log,
		logoutDelay: logoutDelay,
		idleTTL:     idleTTL,
		now:         time.Now,
		sessions:    make(map[string]*entry),
		done:        make(chan struct{}),
	}
}

// OnExpire registers fn to run for every session dropped by Sweep. Set it
// before StartJanitor.
func (m *Manager) OnExpire(fn func(id string)) {
	m.onExpire = fn
}

// Create opens a session for user holding token.
func (m *Manager) Create(user, token string) *Session {
	now := m.now()
	s := &Session{id: uuid.NewString(), user: user, created: now, token: token}

	m.mu.Lock()
	m.sessions[s.id] = &entry{session: s, lastSeen: now}
	m.mu.Unlock()
	return s
}

// Get returns the session and refreshes its idle clock.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNoSession
	}
	e.lastSeen = m.now()
	return e.session, nil
}

func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Logout waits the configured delay, then clears the token and forgets the
// session. If ctx ends first the session is left untouched.
func (m *Manager) Logout(ctx context.Context, id string) (*Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	if err := m.logoutDelay.Wait(ctx); err != nil {
		return nil, err
	}

	s.Clear()
	m.Delete(id)
	m.log.Info("logged out", zap.String("user", s.User()))
	return s, nil
}

// Sweep clears and drops sessions idle for longer than the TTL.
func (m *Manager) Sweep() int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	var expired []*Session
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.session)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Clear()
		if m.onExpire != nil {
			m.onExpire(s.ID())
		}
	}
	if n := len(expired); n > 0 {
		m.log.Debug("expired idle sessions", zap.Int("count", n))
	}
	return len(expired)
}

// StartJanitor sweeps every interval until Stop.
func (m *Manager) StartJanitor(interval time.Duration) {
	if interval <= 0 || m.idleTTL <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				m.Sweep()
			case <-m.done:
				return
			}
		}
	}()
}

func (m *Manager) Stop() {
	m.once.Do(func() { close(m.done) })
}
