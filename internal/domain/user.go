package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for organizer authentication.
var ErrInvalidCredentials = errors.New("invalid email or password")

// User represents an event organizer account. Account management lives
// elsewhere; this core only reads users to authenticate and to resolve
// ownership.
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserRepository defines read operations on organizer accounts.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the user ID it was issued for.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// AuthService authenticates organizers.
type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
}
