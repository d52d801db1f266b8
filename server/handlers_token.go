package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/jrsteele09/coursehub-session/internal/errors"
	"github.com/jrsteele09/coursehub-session/token"
	"github.com/jrsteele09/coursehub-session/users"
)

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// TokenHandler exchanges email and password for an access/refresh pair.
func (s *Server) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeDetail(w, http.StatusBadRequest, detailMalformed, "parse_error")
			return
		}

		fields := fieldErrors{}
		if req.Email == "" {
			fields.add("email", "This field may not be blank.")
		}
		if req.Password == "" {
			fields.add("password", "This field may not be blank.")
		}
		if len(fields) > 0 {
			writeJSON(w, http.StatusBadRequest, fields)
			return
		}

		user, err := s.authenticate(req.Email, req.Password)
		if err != nil {
			log.Debug().Err(err).Str("email", req.Email).Msg("token request rejected")
			writeDetail(w, http.StatusUnauthorized, detailBadCredentials, "no_active_account")
			return
		}

		access, refresh, err := s.minter.Mint(user.Subject())
		if err != nil {
			logError(r.Method, r.URL.Path, err.Error())
			writeDetail(w, http.StatusInternalServerError, "A server error occurred.", "")
			return
		}
		if err := s.users.SetLastLogin(user.Email, s.nowFunc()); err != nil {
			log.Warn().Err(err).Str("email", user.Email).Msg("update last login")
		}
		s.metrics.tokensIssued.WithLabelValues("password").Inc()
		writeJSON(w, http.StatusOK, tokenResponse{Access: access, Refresh: refresh})
	}
}

// RefreshHandler mints a new access token from a valid refresh token. The
// refresh token is not rotated, so the response carries only "access".
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeDetail(w, http.StatusBadRequest, detailMalformed, "parse_error")
			return
		}
		if req.Refresh == "" {
			writeJSON(w, http.StatusBadRequest, fieldErrors{"refresh": {"This field may not be blank."}})
			return
		}

		identity, err := s.minter.Verify(req.Refresh, token.TypeRefresh)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, detailTokenInvalid, codeTokenNotValid)
			return
		}

		// Claims are re-read from the account so that role changes apply on renew.
		user, err := s.users.GetByID(identity.SubjectID)
		if err != nil || user.Inactive {
			writeDetail(w, http.StatusUnauthorized, detailTokenInvalid, codeTokenNotValid)
			return
		}

		access, err := s.minter.MintAccess(user.Subject())
		if err != nil {
			logError(r.Method, r.URL.Path, err.Error())
			writeDetail(w, http.StatusInternalServerError, "A server error occurred.", "")
			return
		}
		s.metrics.tokensIssued.WithLabelValues("refresh").Inc()
		writeJSON(w, http.StatusOK, tokenResponse{Access: access})
	}
}

func (s *Server) authenticate(email, password string) (*users.User, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user.Inactive {
		return nil, apperrors.ErrUserInactive
	}
	if !user.CheckPassword(password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}
