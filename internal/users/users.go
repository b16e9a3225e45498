// Package users is the actor directory: profiles plus password credentials.
// It backs authentication and the marketplace listing and is not part of
// chain integrity.
package users

import (
	"context"
	"errors"
)

var (
	ErrExists             = errors.New("users: username already taken")
	ErrNotFound           = errors.New("users: user not found")
	ErrInvalidCredentials = errors.New("users: invalid credentials")
)

// User is an actor profile. The password is never carried here; only its
// bcrypt hash exists, inside the store.
type User struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Mobile    string `json:"mobile"`
	PinCode   string `json:"pin_code"`
	State     string `json:"state"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

// Directory is what the HTTP layer needs from the actor store.
type Directory interface {
	Create(ctx context.Context, u User, password string) error
	Authenticate(ctx context.Context, username, password string) error
	Get(ctx context.Context, username string) (User, error)
	List(ctx context.Context) ([]User, error)
	SetPassword(ctx context.Context, username, password string) error
}
