package api

import (
	"github.com/google/uuid"

	"github.com/dotdapp/dotd-api/internal/task"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Name     string `json:"name"     validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh
// endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TaskCreatedResponse acknowledges an accepted generation request. The task
// ID is the caller's handle for status polling.
type TaskCreatedResponse struct {
	TaskID uuid.UUID `json:"task_id"`
}

// TaskStatusResponse reports the current state of a generation task. Result
// carries the completed creation or the failure details, depending on status.
type TaskStatusResponse struct {
	TaskID uuid.UUID   `json:"task_id"`
	Status task.Status `json:"status"`
	Result any         `json:"result,omitempty"`
}
