package server

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	apperrors "github.com/jrsteele09/coursehub-session/internal/errors"
	"github.com/jrsteele09/coursehub-session/token"
	"github.com/jrsteele09/coursehub-session/users"
)

// DemoAccount is a seeded login for local development.
type DemoAccount struct {
	Email    string
	Password string
	FullName string
	Role     token.Role
}

var DemoAccounts = []DemoAccount{
	{Email: "teacher@coursehub.test", Password: "Teach3rPass", FullName: "Demo Teacher", Role: token.RoleTeacher},
	{Email: "student@coursehub.test", Password: "Stud3ntPass", FullName: "Demo Student", Role: token.RoleStudent},
}

// SeedDemoUsers creates the demo accounts that do not exist yet.
func (s *Server) SeedDemoUsers() error {
	for _, acct := range DemoAccounts {
		_, err := s.users.GetByEmail(acct.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			return fmt.Errorf("[Server SeedDemoUsers] lookup %s: %w", acct.Email, err)
		}

		hash, err := users.HashPassword(acct.Password)
		if err != nil {
			return fmt.Errorf("[Server SeedDemoUsers] hash password: %w", err)
		}
		user := &users.User{
			Email:        acct.Email,
			Username:     users.UsernameFromEmail(acct.Email),
			PasswordHash: hash,
			FullName:     acct.FullName,
			Role:         acct.Role,
			DateJoined:   s.nowFunc(),
		}
		if err := s.users.Upsert(user); err != nil {
			return fmt.Errorf("[Server SeedDemoUsers] create %s: %w", acct.Email, err)
		}
		log.Info().Str("email", acct.Email).Str("role", string(acct.Role)).Msg("seeded demo account")
	}
	return nil
}
