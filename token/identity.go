package token

import (
	"fmt"
	"strings"
	"time"
)

// Role is the platform role carried in the access token. The session client only
// carries it; authorization decisions belong to callers.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ParseRole accepts the closed set of roles. The empty string maps to the zero Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case "", RoleStudent, RoleTeacher, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	return string(r)
}

// Identity is the decoded view of an access token.
type Identity struct {
	SubjectID string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	Role      Role      `json:"role,omitempty"`
	ExpiresAt time.Time `json:"exp"`
}

// ExpiredAt reports whether the identity is expired at the given instant.
// An identity expiring exactly at now is expired.
func (id *Identity) ExpiredAt(now time.Time) bool {
	if id == nil {
		return true
	}
	return !now.Before(id.ExpiresAt)
}

// HasRole reports whether the identity carries one of roles.
func (id *Identity) HasRole(roles ...Role) bool {
	if id == nil {
		return false
	}
	for _, r := range roles {
		if id.Role == r {
			return true
		}
	}
	return false
}
