package listing

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNoListing = errors.New("listing not found")

type entry struct {
	session  *Session
	owner    string
	lastSeen time.Time
}

// Manager keeps listing sessions by id and closes the ones left idle.
type Manager struct {
	fetcher Fetcher
	opts    Options
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry

	done chan struct{}
	once sync.Once
}

func NewManager(f Fetcher, opts Options, idleTTL time.Duration) *Manager {
	return &Manager{
		fetcher:  f,
		opts:     opts.withDefaults(),
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[string]*entry),
		done:     make(chan struct{}),
	}
}

// Open starts a new listing owned by owner and returns its id.
func (m *Manager) Open(owner string, p Params) (string, *Session) {
	id := uuid.NewString()
	s := NewSession(m.fetcher, p, m.opts)

	m.mu.Lock()
	m.sessions[id] = &entry{session: s, owner: owner, lastSeen: m.now()}
	m.mu.Unlock()

	m.opts.Metrics.sessions(1)
	return id, s
}

// Get returns the listing if owner matches and refreshes its idle clock.
func (m *Manager) Get(owner, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok || e.owner != owner {
		return nil, ErrNoListing
	}
	e.lastSeen = m.now()
	return e.session, nil
}

func (m *Manager) Close(owner, id string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if !ok || e.owner != owner {
		m.mu.Unlock()
		return ErrNoListing
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	e.session.Close()
	m.opts.Metrics.sessions(-1)
	return nil
}

// CloseOwner drops every listing of owner, e.g. on logout.
func (m *Manager) CloseOwner(owner string) int {
	m.mu.Lock()
	var closed []*Session
	for id, e := range m.sessions {
		if e.owner == owner {
			closed = append(closed, e.session)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range closed {
		s.Close()
	}
	m.opts.Metrics.sessions(-float64(len(closed)))
	return len(closed)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes listings idle for longer than the TTL.
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
		s.Close()
	}
	if n := len(expired); n > 0 {
		m.opts.Metrics.sessions(-float64(n))
		m.opts.Log.Debug("expired idle listings", zap.Int("count", n))
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

// Stop ends the janitor and closes every listing.
func (m *Manager) Stop() {
	m.once.Do(func() { close(m.done) })

	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range all {
		e.session.Close()
	}
	m.opts.Metrics.sessions(-float64(len(all)))
}
