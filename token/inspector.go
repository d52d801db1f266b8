package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// ErrDecode is returned when a credential string is not a well formed token.
// Callers treat it exactly like an expired token.
var ErrDecode = errors.New("token decode failed")

// Inspector decodes access tokens without verifying their signature. The client
// holds no key material; the backend remains the authority on validity.
type Inspector struct {
	parser  *jwtlib.Parser
	nowFunc func() time.Time
}

type InspectorOption func(*Inspector)

// WithNowFunc pins the clock used for expiry checks.
func WithNowFunc(now func() time.Time) InspectorOption {
	return func(i *Inspector) {
		i.nowFunc = now
	}
}

func NewInspector(options ...InspectorOption) *Inspector {
	i := &Inspector{
		parser:  jwtlib.NewParser(),
		nowFunc: func() time.Time { return NowTimeFunc() },
	}
	for _, opt := range options {
		opt(i)
	}
	return i
}

// Decode extracts the identity claims from rawToken.
func (i *Inspector) Decode(rawToken string) (*Identity, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, fmt.Errorf("%w: empty token", ErrDecode)
	}

	unverified, _, err := i.parser.ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	claims, ok := unverified.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: error extracting claims", ErrDecode)
	}

	identity, err := identityFromClaims(claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return identity, nil
}

// IsExpired reports whether rawToken is expired. A token that cannot be decoded
// is reported as expired. No leeway is applied.
func (i *Inspector) IsExpired(rawToken string) bool {
	identity, err := i.Decode(rawToken)
	if err != nil {
		return true
	}
	return identity.ExpiredAt(i.nowFunc())
}

// Now returns the inspector's clock reading.
func (i *Inspector) Now() time.Time {
	return i.nowFunc()
}

func identityFromClaims(claims jwtlib.MapClaims) (*Identity, error) {
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, errors.New("token missing exp claim")
	}

	subject, err := subjectID(claims)
	if err != nil {
		return nil, err
	}

	roleClaim, _ := claims["role"].(string)
	role, err := ParseRole(roleClaim)
	if err != nil {
		return nil, err
	}

	username, _ := claims["username"].(string)
	email, _ := claims["email"].(string)
	fullName, _ := claims["full_name"].(string)

	return &Identity{
		SubjectID: subject,
		Username:  username,
		Email:     email,
		FullName:  fullName,
		Role:      role,
		ExpiresAt: exp.Time,
	}, nil
}

// subjectID reads user_id, which the backend emits as a number or a string,
// falling back to the registered sub claim.
func subjectID(claims jwtlib.MapClaims) (string, error) {
	switch v := claims["user_id"].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case nil:
	default:
		return "", fmt.Errorf("unexpected user_id claim type %T", v)
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", errors.New("token missing subject")
	}
	return sub, nil
}
