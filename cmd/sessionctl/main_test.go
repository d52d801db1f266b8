package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/coursehub-session/internal/config"
	apperrors "github.com/jrsteele09/coursehub-session/internal/errors"
	"github.com/jrsteele09/coursehub-session/server"
	"github.com/jrsteele09/coursehub-session/session"
	"github.com/jrsteele09/coursehub-session/token"
	fakeuserrepo "github.com/jrsteele09/coursehub-session/users/repofake"
)

type testFixture struct {
	baseURL  string
	stateDir string
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SEED_DEMO_USERS", "true")
	t.Setenv(config.ConfigFileVar, "")

	srv, err := server.New(config.New(), fakeuserrepo.NewFakeUserRepo())
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testFixture{baseURL: ts.URL + server.APIPrefix + "/", stateDir: t.TempDir()}
}

func (f *testFixture) run(t *testing.T, store string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--base-url", f.baseURL, "--store", store, "--state-dir", f.stateDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSessionctl_LoginStatusGetLogout(t *testing.T) {
	for _, store := range []string{"file", "cookie"} {
		t.Run(store, func(t *testing.T) {
			f := setupTestFixture(t)
			teacher := server.DemoAccounts[0]

			_, err := f.run(t, store, "get", "courses/")
			require.ErrorIs(t, err, errAuthRequired)
			require.Equal(t, ExitCodeAuthRequired, exitCode(err))

			out, err := f.run(t, store, "login", "--email", teacher.Email, "--password", teacher.Password)
			require.NoError(t, err)
			require.Contains(t, out, "Signed in as Demo Teacher (teacher)")

			out, err = f.run(t, store, "status")
			require.NoError(t, err)
			require.Contains(t, out, "authenticated")
			require.Contains(t, out, teacher.Email)

			out, err = f.run(t, store, "whoami")
			require.NoError(t, err)
			require.Equal(t, "Demo Teacher <teacher@coursehub.test> (teacher)\n", out)

			out, err = f.run(t, store, "get", "courses/", "--role", "teacher")
			require.NoError(t, err)
			require.Equal(t, "[]", strings.TrimSpace(out))

			_, err = f.run(t, store, "get", "courses/", "--role", "student")
			require.ErrorIs(t, err, apperrors.ErrForbidden)
			require.Equal(t, ExitCodeForbidden, exitCode(err))

			out, err = f.run(t, store, "logout")
			require.NoError(t, err)
			require.Contains(t, out, "Signed out")

			out, err = f.run(t, store, "status")
			require.NoError(t, err)
			require.Contains(t, out, "anonymous")
		})
	}
}

func TestSessionctl_RegisterErrors(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.run(t, "memory", "register", "--full-name", "Grace", "--email", "grace@example.com", "--password", "short")
	require.Error(t, err)
	require.Contains(t, err.Error(), "This password is too short")
	require.Equal(t, ExitCodeError, exitCode(err))

	out, err := f.run(t, "memory", "register", "--full-name", "Grace", "--email", "grace@example.com", "--password", "C0bolRocks", "--role", "teacher")
	require.NoError(t, err)
	require.Contains(t, out, "Registered and signed in as grace@example.com (teacher)")

	_, err = f.run(t, "memory", "login", "--email", "grace@example.com", "--password", "wrong")
	require.EqualError(t, err, "No active account found with the given credentials")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitCodeSuccess},
		{"not signed in", errAuthRequired, ExitCodeAuthRequired},
		{"role not allowed", fmt.Errorf("%w: role student is not allowed", apperrors.ErrForbidden), ExitCodeForbidden},
		{"session not ready", apperrors.ErrSessionNotReady, ExitCodeNotReady},
		{"anything else", errors.New("connection refused"), ExitCodeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestOpenRepo_UnknownStore(t *testing.T) {
	_, _, err := openRepo(storeSettings{Kind: "floppy"})
	require.ErrorContains(t, err, `unknown store "floppy"`)

	_, _, err = openRepo(storeSettings{Kind: config.StorePostgres})
	require.ErrorContains(t, err, "DATABASE_URL is required")
}

func TestRenderStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var out bytes.Buffer
	renderStatus(&out, session.State{
		Ready: true,
		Phase: session.PhaseAuthenticated,
		Identity: &token.Identity{
			SubjectID: "42",
			Username:  "ada",
			Email:     "ada@example.com",
			Role:      token.RoleTeacher,
			ExpiresAt: now.Add(90 * time.Second),
		},
	}, now)
	require.Contains(t, out.String(), "ada@example.com")
	require.Contains(t, out.String(), "(in 1m30s)")

	out.Reset()
	renderStatus(&out, session.State{Ready: true, Phase: session.PhaseAnonymous}, now)
	require.Contains(t, out.String(), "anonymous")
}

func TestResolve(t *testing.T) {
	got, err := resolve("http://localhost:8000/api/v1", "/courses/")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000/api/v1/courses/", got)
}
