// Package session holds dashboard sessions. The remote access token lives
// only in process memory and is lost on restart.
package session

import (
	"sync"
	"time"
)

// Area is the part of the dashboard a session may see.
type Area string

const (
	AreaDashboard Area = "dashboard"
	AreaAuth      Area = "auth"
)

type Session struct {
	id      string
	user    string
	created time.Time

	mu    sync.RWMutex
	token string
}

func (s *Session) ID() string         { return s.id }
func (s *Session) User() string       { return s.user }
func (s *Session) Created() time.Time { return s.created }

// Token returns the access token and whether one is held.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *Session) SetToken(tok string) {
	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()
}

func (s *Session) Clear() { s.SetToken("") }

// Area is dashboard while a token is held, auth otherwise.
func (s *Session) Area() Area {
	if _, ok := s.Token(); ok {
		return AreaDashboard
	}
	return AreaAuth
}
