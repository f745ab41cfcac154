package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/contentwriter/api/internal/auth"
	"github.com/contentwriter/api/internal/model"
	"github.com/contentwriter/api/internal/store"
)

const minPasswordLength = 6

// AuthError is a sign-up or login failure shown to the user as is.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

var (
	ErrEmptyCredentials   = &AuthError{Message: "Username and password cannot be empty."}
	ErrPasswordMismatch   = &AuthError{Message: "Passwords do not match."}
	ErrPasswordTooShort   = &AuthError{Message: "Password must be at least 6 characters long."}
	ErrPasswordTooLong    = &AuthError{Message: "Password must be at most 72 bytes long."}
	ErrUsernameTaken      = &AuthError{Message: "Username already exists."}
	ErrInvalidCredentials = &AuthError{Message: "Invalid username or password."}
)

const signupSuccessMessage = "Account created successfully! Please log in."

// AuthService handles sign-up, login and sessions
type AuthService struct {
	store     store.CredentialStore
	jwtSecret string
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(credentials store.CredentialStore, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		store:     credentials,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// Signup validates and registers a new user
func (s *AuthService) Signup(ctx context.Context, req *model.SignupRequest) (*model.MessageResponse, error) {
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Password) == "" {
		return nil, ErrEmptyCredentials
	}
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrPasswordTooLong
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	return &model.MessageResponse{Message: signupSuccessMessage}, nil
}

// Login checks credentials and opens a new session
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.store.FindUser(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	sessionID := uuid.New().String()
	token, expiresAt, err := auth.IssueToken(s.jwtSecret, user.Username, sessionID, s.tokenTTL, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if err := s.store.SetCurrent(ctx, sessionID, user.Username, s.tokenTTL); err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	return &model.LoginResponse{
		Token:     token,
		Username:  user.Username,
		ExpiresAt: expiresAt,
	}, nil
}

// Logout closes a session
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.store.ClearCurrent(ctx, sessionID)
}

// CheckSession verifies that sessionID is open for username
func (s *AuthService) CheckSession(ctx context.Context, sessionID, username string) error {
	current, err := s.store.Current(ctx, sessionID)
	if err != nil {
		return err
	}
	if current != username {
		return store.ErrSessionNotFound
	}
	return nil
}
