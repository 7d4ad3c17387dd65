package auth

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

type MemStore struct {
	mu      sync.RWMutex
	nextID  int
	byEmail map[string]User
	byID    map[int]string
	cost    int
}

func NewMemStore() *MemStore {
	return &MemStore{
		nextID:  1,
		byEmail: make(map[string]User),
		byID:    make(map[int]string),
		cost:    bcrypt.DefaultCost,
	}
}

func (s *MemStore) Ping(context.Context) error { return nil }

func (s *MemStore) Create(_ context.Context, nu NewUser) (User, error) {
	email := normalizeEmail(nu.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), s.cost)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return User{}, ErrEmailExists
	}

	u := User{
		ID:     s.nextID,
		Name:   nu.Name,
		Email:  email,
		Avatar: nu.Avatar,
		Role:   DefaultRole,
		Hash:   hash,
	}
	s.nextID++
	s.byEmail[email] = u
	s.byID[u.ID] = email
	return u, nil
}

func (s *MemStore) Verify(_ context.Context, email, password string) (User, error) {
	s.mu.RLock()
	u, ok := s.byEmail[normalizeEmail(email)]
	s.mu.RUnlock()

	if !ok {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.Hash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *MemStore) Get(_ context.Context, id int) (User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email, ok := s.byID[id]
	if !ok {
		return User{}, false, nil
	}
	return s.byEmail[email], true, nil
}
