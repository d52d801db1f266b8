// Package credentials persists the access/refresh credential pair of the current
// session. Every implementation writes both members together; a reader never
// observes half of one pair and half of another.
package credentials

import (
	"errors"

	"golang.org/x/oauth2"
)

// Fixed entry names used by the key/value tiers.
const (
	AccessKey  = "access_token"
	RefreshKey = "refresh_token"
)

var (
	// ErrNoCredential is returned by Load when nothing is stored. It is a valid
	// state (anonymous), not a failure.
	ErrNoCredential = errors.New("no stored credential")

	// ErrIncompletePair is returned by Save when either member is empty.
	ErrIncompletePair = errors.New("credential pair requires both access and refresh")
)

// Pair is the access/refresh credential pair issued by the backend.
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// IsZero reports whether neither member is set.
func (p Pair) IsZero() bool {
	return p.Access == "" && p.Refresh == ""
}

// Complete reports whether both members are set.
func (p Pair) Complete() bool {
	return p.Access != "" && p.Refresh != ""
}

// OAuth2Token exposes the pair as a bearer oauth2.Token.
func (p Pair) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  p.Access,
		RefreshToken: p.Refresh,
		TokenType:    "Bearer",
	}
}

// Repo stores the current credential pair.
//
// Load returns ErrNoCredential when nothing is stored. A loaded pair may carry a
// refresh token without an access token when the access entry expired on its
// own; callers treat that as an expired access token.
type Repo interface {
	Save(pair Pair) error
	Load() (Pair, error)
	Clear() error
}

func validate(pair Pair) error {
	if !pair.Complete() {
		return ErrIncompletePair
	}
	return nil
}
