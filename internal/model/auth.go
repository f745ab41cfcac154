package model

import "time"

// User is a registered account
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SignupRequest represents the request to create an account
type SignupRequest struct {
	Username        string `json:"username" validate:"max=64"`
	Password        string `json:"password" validate:"max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"max=72"`
}

// LoginRequest represents the request to log in
type LoginRequest struct {
	Username string `json:"username" validate:"max=64"`
	Password string `json:"password" validate:"max=72"`
}

// LoginResponse carries the issued session token
type LoginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MessageResponse is a plain confirmation message
type MessageResponse struct {
	Message string `json:"message"`
}

// MeResponse describes the authenticated user
type MeResponse struct {
	Username string `json:"username"`
}
