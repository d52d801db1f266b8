package server

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/jrsteele09/coursehub-session/internal/errors"
	"github.com/jrsteele09/coursehub-session/token"
	"github.com/jrsteele09/coursehub-session/users"
)

const (
	msgBlank      = "This field may not be blank."
	msgEmailTaken = "user with this email already exists."
)

type registerRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordMatched string `json:"password_matched"`
	Role            string `json:"role"`
}

type registerResponse struct {
	FullName string     `json:"full_name"`
	Email    string     `json:"email"`
	Role     token.Role `json:"role"`
}

// RegisterHandler creates a student or teacher account. Validation failures
// answer 400 with {field: [messages]}.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeDetail(w, http.StatusBadRequest, detailMalformed, "parse_error")
			return
		}

		role, fields := s.validateRegistration(&req)
		if len(fields) > 0 {
			writeJSON(w, http.StatusBadRequest, fields)
			return
		}

		hash, err := users.HashPassword(req.Password)
		if err != nil {
			logError(r.Method, r.URL.Path, err.Error())
			writeDetail(w, http.StatusInternalServerError, "A server error occurred.", "")
			return
		}
		user := &users.User{
			Email:        req.Email,
			Username:     users.UsernameFromEmail(req.Email),
			PasswordHash: hash,
			FullName:     req.FullName,
			Role:         role,
			DateJoined:   s.nowFunc(),
		}
		// The lookup in validation can race another registration for the same email.
		err = s.users.Create(user)
		if errors.Is(err, apperrors.ErrUserExists) {
			writeJSON(w, http.StatusBadRequest, fieldErrors{"email": {msgEmailTaken}})
			return
		}
		if err != nil {
			logError(r.Method, r.URL.Path, err.Error())
			writeDetail(w, http.StatusInternalServerError, "A server error occurred.", "")
			return
		}

		log.Info().Str("email", user.Email).Str("role", string(role)).Msg("account registered")
		s.metrics.registrations.Inc()
		writeJSON(w, http.StatusCreated, registerResponse{FullName: user.FullName, Email: user.Email, Role: user.Role})
	}
}

func (s *Server) validateRegistration(req *registerRequest) (token.Role, fieldErrors) {
	fields := fieldErrors{}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)

	if req.FullName == "" {
		fields.add("full_name", msgBlank)
	}

	switch {
	case req.Email == "":
		fields.add("email", msgBlank)
	case !validEmail(req.Email):
		fields.add("email", "Enter a valid email address.")
	default:
		_, err := s.users.GetByEmail(req.Email)
		switch {
		case err == nil:
			fields.add("email", msgEmailTaken)
		case !errors.Is(err, apperrors.ErrUserNotFound):
			log.Warn().Err(err).Msg("lookup email during registration")
		}
	}

	if req.Password == "" {
		fields.add("password", msgBlank)
	} else if err := users.ValidatePasswordStrength(req.Password); err != nil {
		fields.add("password", err.Error())
	}
	if req.PasswordMatched == "" {
		fields.add("password_matched", msgBlank)
	} else if req.Password != "" && req.Password != req.PasswordMatched {
		fields.add("password", "Password fields do not match.")
	}

	role, err := token.ParseRole(req.Role)
	switch {
	case err != nil, role == token.RoleAdmin:
		fields.add("role", `"`+req.Role+`" is not a valid choice.`)
	case role == "":
		role = token.RoleStudent
	}

	return role, fields
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, "@")
}
