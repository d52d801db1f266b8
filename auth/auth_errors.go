package auth

import "errors"

// Operation names carried by FailureError.
const (
	OpLogin    = "login"
	OpRegister = "register"
)

var (
	ErrNoRefreshToken      = errors.New("no refresh token")
	ErrRenewedTokenInvalid = errors.New("renewed access token is unusable")
)

// FailureError is a failed login or registration. Error returns the message
// meant for the person signing in; Unwrap gives the underlying cause.
type FailureError struct {
	Op      string
	Message string
	Err     error
}

func (e *FailureError) Error() string {
	return e.Message
}

func (e *FailureError) Unwrap() error {
	return e.Err
}
