package users

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/jrsteele09/coursehub-session/token"
)

// User is an account known to the stub backend.
type User struct {
	ID           string     `json:"id,omitempty"`          // Unique identifier for the user
	Email        string     `json:"email,omitempty"`       // User's email address, the login name
	Username     string     `json:"username,omitempty"`    // Derived from the local part of the email
	PasswordHash string     `json:"-"`                     // Hashed version of the user's password - never serialize
	FullName     string     `json:"full_name,omitempty"`   // Display name
	Role         token.Role `json:"role,omitempty"`        // student, teacher or admin
	DateJoined   time.Time  `json:"date_joined,omitempty"` // Date and time when the user registered
	LastLogin    time.Time  `json:"last_login,omitempty"`  // Last time the user logged in
	Inactive     bool       `json:"inactive,omitempty"`    // Inactive users cannot obtain tokens
}

// Subject returns the token subject for the user.
func (u *User) Subject() token.Subject {
	return token.Subject{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}

// UsernameFromEmail returns the local part of email.
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// PasswordError is a password strength failure. Its text is shown to people as-is.
type PasswordError string

func (e PasswordError) Error() string {
	return string(e)
}

const (
	ErrPasswordTooShort PasswordError = "This password is too short. It must contain at least 8 characters."
	ErrPasswordNoUpper  PasswordError = "This password must contain at least one uppercase letter."
	ErrPasswordNoLower  PasswordError = "This password must contain at least one lowercase letter."
	ErrPasswordNoNumber PasswordError = "This password must contain at least one number."
)

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return ErrPasswordNoUpper
	}
	if !hasLower {
		return ErrPasswordNoLower
	}
	if !hasNumber {
		return ErrPasswordNoNumber
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
