package token

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/jrsteele09/coursehub-session/internal/errors"
)

// Type distinguishes access and refresh tokens through the token_type claim.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// Subject is the account a token pair is minted for.
type Subject struct {
	ID       string
	Username string
	Email    string
	FullName string
	Role     Role
}

// Minter issues and verifies signed token pairs. It backs the stub backend and
// test fixtures; the session client itself never signs anything.
type Minter struct {
	signer     Signer
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowFunc    func() time.Time
}

type MinterOption func(*Minter)

// WithMinterNowFunc sets the clock used for iat/exp and for verification.
func WithMinterNowFunc(now func() time.Time) MinterOption {
	return func(m *Minter) {
		m.nowFunc = now
	}
}

func NewMinter(signer Signer, accessTTL, refreshTTL time.Duration, options ...MinterOption) *Minter {
	m := &Minter{
		signer:     signer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		nowFunc:    func() time.Time { return NowTimeFunc() },
	}
	for _, opt := range options {
		opt(m)
	}
	if m.accessTTL == 0 {
		m.accessTTL = 5 * time.Minute
	}
	if m.refreshTTL == 0 {
		m.refreshTTL = 24 * time.Hour
	}
	return m
}

// Mint creates an access/refresh pair for sub.
func (m *Minter) Mint(sub Subject) (access string, refresh string, err error) {
	access, err = m.sign(sub, TypeAccess, m.accessTTL)
	if err != nil {
		return "", "", fmt.Errorf("Minter.Mint access: %w", err)
	}
	refresh, err = m.sign(sub, TypeRefresh, m.refreshTTL)
	if err != nil {
		return "", "", fmt.Errorf("Minter.Mint refresh: %w", err)
	}
	return access, refresh, nil
}

// MintAccess creates a single access token for sub.
func (m *Minter) MintAccess(sub Subject) (string, error) {
	return m.sign(sub, TypeAccess, m.accessTTL)
}

func (m *Minter) sign(sub Subject, typ Type, ttl time.Duration) (string, error) {
	now := m.nowFunc()
	claims := jwtlib.MapClaims{
		"token_type": string(typ),
		"user_id":    sub.ID,
		"username":   sub.Username,
		"email":      sub.Email,
		"full_name":  sub.FullName,
		"role":       string(sub.Role),
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
		"jti":        uuid.New().String(),
	}
	return m.signer.Sign(claims)
}

// Verify checks the signature, expiry and token_type of rawToken and returns
// the identity it carries.
func (m *Minter) Verify(rawToken string, want Type) (*Identity, error) {
	parsed, err := jwtlib.ParseWithClaims(rawToken, jwtlib.MapClaims{}, m.signer.GetVerificationKey,
		jwtlib.WithTimeFunc(m.nowFunc),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok || !parsed.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	if typ, _ := claims["token_type"].(string); Type(typ) != want {
		return nil, apperrors.ErrWrongTokenType
	}
	return identityFromClaims(claims)
}
