package server_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/coursehub-session/auth"
	"github.com/jrsteele09/coursehub-session/credentials"
	"github.com/jrsteele09/coursehub-session/exchange"
	"github.com/jrsteele09/coursehub-session/profile"
	"github.com/jrsteele09/coursehub-session/server"
	"github.com/jrsteele09/coursehub-session/session"
	"github.com/jrsteele09/coursehub-session/token"
)

func (f *testFixture) newClientService(t *testing.T, repo credentials.Repo) *auth.Service {
	t.Helper()
	client, err := exchange.NewClient(f.http.URL + server.APIPrefix)
	require.NoError(t, err)
	service, err := auth.NewService(auth.Deps{
		Repo:      repo,
		Exchange:  client,
		Inspector: token.NewInspector(token.WithNowFunc(f.clock)),
	})
	require.NoError(t, err)
	return service
}

// The session client against the backend: login, survive a restart through the
// file store, renew transparently once the access token expires, and log out.
func TestEndToEnd_SessionLifecycle(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	repo, err := credentials.NewFileRepo(filepath.Join(t.TempDir(), credentials.DefaultFileName))
	require.NoError(t, err)

	first := f.newClientService(t, repo)
	state, err := first.Bootstrap(ctx)
	require.NoError(t, err)
	require.Equal(t, session.PhaseAnonymous, state.Phase)

	require.NoError(t, first.Login(ctx, demoTeacher.Email, demoTeacher.Password))
	require.Equal(t, token.RoleTeacher, first.State().Identity.Role)
	issued, err := repo.Load()
	require.NoError(t, err)

	// A new process restores the session from disk.
	second := f.newClientService(t, repo)
	state, err = second.Bootstrap(ctx)
	require.NoError(t, err)
	require.Equal(t, session.PhaseAuthenticated, state.Phase)
	require.Equal(t, "teacher", state.Identity.Username)

	// Past the access lifetime the next request renews before it is sent.
	f.advance(accessTokenTTL + time.Second)
	profiles, err := profile.NewClient(f.http.URL+server.APIPrefix, second.HTTPClient())
	require.NoError(t, err)
	me, err := profiles.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "Demo Teacher", me.FullName)

	renewed, err := repo.Load()
	require.NoError(t, err)
	require.NotEqual(t, issued.Access, renewed.Access)
	require.Equal(t, issued.Refresh, renewed.Refresh, "the backend does not rotate refresh tokens")
	require.True(t, second.State().Identity.ExpiresAt.After(state.Identity.ExpiresAt))

	require.NoError(t, second.Logout())
	_, err = repo.Load()
	require.ErrorIs(t, err, credentials.ErrNoCredential)

	_, err = profiles.Get(ctx)
	require.ErrorIs(t, err, profile.ErrUnavailable)
}

func TestEndToEnd_ExpiredRefreshEndsSession(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	repo := credentials.NewInMemoryRepo()

	service := f.newClientService(t, repo)
	require.NoError(t, service.Login(ctx, demoStudent.Email, demoStudent.Password))

	f.advance(refreshTokenTTL + time.Minute)
	resp, err := service.HTTPClient().Get(f.http.URL + server.RouteCourses)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, session.PhaseAnonymous, service.State().Phase)
	_, err = repo.Load()
	require.ErrorIs(t, err, credentials.ErrNoCredential)
}

func TestEndToEnd_RegisterAndGate(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	service := f.newClientService(t, credentials.NewInMemoryRepo())
	_, err := service.Bootstrap(ctx)
	require.NoError(t, err)

	err = service.Register(ctx, exchange.Registration{
		FullName:        "Grace Hopper",
		Email:           "grace@example.com",
		Password:        "weak",
		PasswordConfirm: "weak",
		Role:            token.RoleStudent,
	})
	var failure *auth.FailureError
	require.True(t, errors.As(err, &failure))
	require.Contains(t, failure.Message, "This password is too short")
	require.ErrorIs(t, err, exchange.ErrRejected)
	require.Equal(t, session.DecisionLogin, session.Authorize(service.State(), token.RoleStudent))

	require.NoError(t, service.Register(ctx, exchange.Registration{
		FullName:        "Grace Hopper",
		Email:           "grace@example.com",
		Password:        "C0bolRocks",
		PasswordConfirm: "C0bolRocks",
		Role:            token.RoleStudent,
	}))
	state := service.State()
	require.Equal(t, session.DecisionAllow, session.Authorize(state, token.RoleStudent))
	require.Equal(t, session.DecisionForbidden, session.Authorize(state, token.RoleTeacher))

	err = service.Login(ctx, "grace@example.com", "wrong")
	require.True(t, errors.As(err, &failure))
	require.Equal(t, "No active account found with the given credentials", failure.Message)
	require.Equal(t, session.PhaseAuthenticated, service.State().Phase, "a failed login leaves the session unchanged")
}
