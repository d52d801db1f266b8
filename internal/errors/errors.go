package errors

import "errors"

// Common error types shared by the session client and the stub backend
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrUserInactive       = errors.New("user is not active")

	// Token errors
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrWrongTokenType = errors.New("wrong token type")

	// Session errors
	ErrSessionNotReady = errors.New("session not ready")
	ErrForbidden       = errors.New("forbidden")
)
