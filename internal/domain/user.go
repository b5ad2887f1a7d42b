package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserRole represents the authorization level of a user.
type UserRole string

// Possible user roles
const (
	RoleMember UserRole = "MEMBER"
	RoleAdmin  UserRole = "ADMIN"
)

// Common validation errors for User
var (
	ErrEmptyUserID      = errors.New("user ID cannot be empty")
	ErrEmptyUserEmail   = errors.New("user email cannot be empty")
	ErrInvalidUserEmail = errors.New("user email is invalid")
	ErrEmptyUserName    = errors.New("user name cannot be empty")
	ErrInvalidUserRole  = errors.New("invalid user role")
)

// User represents a registered account. HashedPassword is never serialized.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Picture        string    `json:"picture"`
	Role           UserRole  `json:"role"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewUser creates a new member User with the given email, name and
// already-hashed password. It generates a new UUID and sets the creation
// timestamp. Returns an error if validation fails.
func NewUser(email, name, hashedPassword string) (*User, error) {
	user := &User{
		ID:             uuid.New(),
		Email:          strings.ToLower(strings.TrimSpace(email)),
		Name:           strings.TrimSpace(name),
		Role:           RoleMember,
		HashedPassword: hashedPassword,
		CreatedAt:      time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Email == "" {
		return ErrEmptyUserEmail
	}

	if !strings.Contains(u.Email, "@") {
		return ErrInvalidUserEmail
	}

	if u.Name == "" {
		return ErrEmptyUserName
	}

	switch u.Role {
	case RoleMember, RoleAdmin:
	default:
		return ErrInvalidUserRole
	}

	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
