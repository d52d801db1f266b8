package users_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/jrsteele09/coursehub-session/internal/errors"
	"github.com/jrsteele09/coursehub-session/token"
	"github.com/jrsteele09/coursehub-session/users"
	fakeuserrepo "github.com/jrsteele09/coursehub-session/users/repofake"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := map[string]error{
		"Str0ngPass": nil,
		"Sh0rt":      users.ErrPasswordTooShort,
		"lowercase1": users.ErrPasswordNoUpper,
		"UPPERCASE1": users.ErrPasswordNoLower,
		"NoNumbers!": users.ErrPasswordNoNumber,
	}
	for password, want := range tests {
		t.Run(password, func(t *testing.T) {
			err := users.ValidatePasswordStrength(password)
			if want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, want)
		})
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := users.HashPassword("Str0ngPass")
	require.NoError(t, err)

	u := &users.User{PasswordHash: hash}
	require.True(t, u.CheckPassword("Str0ngPass"))
	require.False(t, u.CheckPassword("str0ngpass"))
}

func TestUser_Subject(t *testing.T) {
	u := &users.User{ID: "42", Email: "ada@example.com", Username: "ada", FullName: "Ada Lovelace", Role: token.RoleTeacher}
	require.Equal(t, token.Subject{ID: "42", Username: "ada", Email: "ada@example.com", FullName: "Ada Lovelace", Role: token.RoleTeacher}, u.Subject())
	require.Equal(t, "ada", users.UsernameFromEmail("ada@example.com"))
	require.Equal(t, "plain", users.UsernameFromEmail("plain"))
}

func TestFakeUserRepo(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	joined := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(&users.User{Email: "Ada@Example.com", Role: token.RoleTeacher, DateJoined: joined}))
	require.NoError(t, repo.Upsert(&users.User{Email: "grace@example.com", Role: token.RoleStudent, DateJoined: joined.Add(time.Hour)}))

	ada, err := repo.GetByEmail("ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, ada.ID)

	byID, err := repo.GetByID(ada.ID)
	require.NoError(t, err)
	require.Equal(t, ada.Email, byID.Email)

	_, err = repo.GetByEmail("nobody@example.com")
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	_, err = repo.GetByID("missing")
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)

	at := joined.Add(48 * time.Hour)
	require.NoError(t, repo.SetLastLogin("ada@example.com", at))
	ada, err = repo.GetByEmail("ada@example.com")
	require.NoError(t, err)
	require.True(t, ada.LastLogin.Equal(at))
	require.ErrorIs(t, repo.SetLastLogin("nobody@example.com", at), apperrors.ErrUserNotFound)

	err = repo.Create(&users.User{Email: "ADA@example.com", Role: token.RoleStudent})
	require.ErrorIs(t, err, apperrors.ErrUserExists)
	require.NoError(t, repo.Create(&users.User{Email: "linus@example.com", Role: token.RoleStudent, DateJoined: joined.Add(2 * time.Hour)}))

	all, err := repo.List(0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "Ada@Example.com", all[0].Email)

	page, err := repo.List(1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "grace@example.com", page[0].Email)

	empty, err := repo.List(5, 10)
	require.NoError(t, err)
	require.Empty(t, empty)
}
