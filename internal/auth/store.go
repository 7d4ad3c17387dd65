// Package auth serves the users and login half of the store API.
package auth

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const DefaultRole = "customer"

type User struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
	Role   string `json:"role"`
	Hash   []byte `json:"-"`
}

type NewUser struct {
	Name     string
	Email    string
	Password string
	Avatar   string
}

type UserStore interface {
	Create(ctx context.Context, u NewUser) (User, error)
	Verify(ctx context.Context, email, password string) (User, error)
	Get(ctx context.Context, id int) (User, bool, error)
	Ping(ctx context.Context) error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
