package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/coursehub-session/internal/errors"
	"github.com/jrsteele09/coursehub-session/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyIdentity stores the *token.Identity of the verified access token.
const ContextKeyIdentity ContextKey = "identity"

// IdentityFromContext returns the identity injected by RequireAuth.
func IdentityFromContext(ctx context.Context) (*token.Identity, bool) {
	id, ok := ctx.Value(ContextKeyIdentity).(*token.Identity)
	return id, ok && id != nil
}

// RequireAuth validates a Bearer access token and injects its identity.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeDetail(w, http.StatusUnauthorized, detailNotAuthenticated, "not_authenticated")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				writeDetail(w, http.StatusUnauthorized, detailGivenTokenInvalid, codeTokenNotValid)
				return
			}

			identity, err := s.minter.Verify(parts[1], token.TypeAccess)
			if err != nil {
				if !errors.Is(err, apperrors.ErrTokenExpired) {
					logError(r.Method, r.URL.Path, err.Error())
				}
				writeDetail(w, http.StatusUnauthorized, detailGivenTokenInvalid, codeTokenNotValid)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyIdentity, identity)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireRole rejects identities without one of roles. Chain it after RequireAuth.
func (s *Server) RequireRole(roles ...token.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok || !identity.HasRole(roles...) {
				writeDetail(w, http.StatusForbidden, detailForbidden, "permission_denied")
				return
			}
			next(w, r)
		}
	}
}
