package auth_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/coursehub-session/credentials"
	"github.com/jrsteele09/coursehub-session/credentials/repofake"
	"github.com/jrsteele09/coursehub-session/exchange"
	"github.com/jrsteele09/coursehub-session/session"
)

func TestBootstrap_NoCredentials(t *testing.T) {
	f := setupTestFixture(t)

	state, err := f.service.Bootstrap(context.Background())
	require.NoError(t, err)
	require.True(t, state.Ready)
	require.Nil(t, state.Identity)
	require.Equal(t, session.PhaseAnonymous, state.Phase)
	require.Zero(t, f.exchange.IssueCalls()+f.exchange.RenewCalls()+f.exchange.RegisterCalls(), "no network calls")
}

func TestBootstrap_ValidAccess(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.mintPair(t)
	require.NoError(t, f.repo.Save(pair))

	state, err := f.service.Bootstrap(context.Background())
	require.NoError(t, err)
	require.Equal(t, session.PhaseAuthenticated, state.Phase)
	require.Equal(t, f.decode(t, pair.Access), state.Identity)
	require.Zero(t, f.exchange.RenewCalls())
	require.Equal(t, pair, f.repo.Current())
}

func TestBootstrap_ExpiredAccessValidRefresh(t *testing.T) {
	f := setupTestFixture(t)
	old := f.mintPair(t)
	require.NoError(t, f.repo.Save(old))
	f.advance(accessTokenTTL + time.Minute)

	state, err := f.service.Bootstrap(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, f.exchange.RenewCalls())

	stored := f.repo.Current()
	require.NotEqual(t, old, stored)
	require.False(t, f.inspector.IsExpired(stored.Access))
	require.Equal(t, session.PhaseAuthenticated, state.Phase)
	require.Equal(t, f.decode(t, stored.Access), state.Identity)
}

func TestBootstrap_RenewFailure(t *testing.T) {
	t.Run("rejected by backend", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.repo.Save(f.mintPair(t)))
		f.advance(accessTokenTTL)
		f.exchange.RenewErr = &exchange.RejectedError{Op: exchange.OpRenew, Status: 401, Detail: "Token is invalid or expired"}

		state, err := f.service.Bootstrap(context.Background())
		require.NoError(t, err)
		require.True(t, state.Ready)
		require.Nil(t, state.Identity)
		require.Equal(t, 1, f.exchange.RenewCalls())
		f.requireAnonymous(t)
	})

	t.Run("refresh token expired", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.repo.Save(f.mintPair(t)))
		f.advance(refreshTokenTTL + time.Hour)

		_, err := f.service.Bootstrap(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, f.exchange.RenewCalls(), "renew is attempted once and never retried")
		f.requireAnonymous(t)
	})

	t.Run("backend unreachable", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.repo.Save(f.mintPair(t)))
		f.advance(time.Hour)
		f.exchange.RenewErr = &exchange.UnreachableError{Op: exchange.OpRenew, Err: context.DeadlineExceeded}

		_, err := f.service.Bootstrap(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, f.exchange.RenewCalls())
		f.requireAnonymous(t)
	})
}

func TestBootstrap_PartialPairs(t *testing.T) {
	t.Run("refresh only renews", func(t *testing.T) {
		seed := setupTestFixture(t).mintPair(t)
		f := setupTestFixtureWithRepo(t, repofake.NewFakeCredentialRepoWith(credentials.Pair{Refresh: seed.Refresh}))

		state, err := f.service.Bootstrap(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, f.exchange.RenewCalls())
		require.Equal(t, session.PhaseAuthenticated, state.Phase)
		require.True(t, f.repo.Current().Complete())
	})

	t.Run("undecodable access renews", func(t *testing.T) {
		seed := setupTestFixture(t).mintPair(t)
		f := setupTestFixtureWithRepo(t, repofake.NewFakeCredentialRepoWith(credentials.Pair{Access: "garbage", Refresh: seed.Refresh}))

		state, err := f.service.Bootstrap(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, f.exchange.RenewCalls())
		require.Equal(t, session.PhaseAuthenticated, state.Phase)
	})

	t.Run("expired access without refresh", func(t *testing.T) {
		expired := setupTestFixture(t).mintPair(t).Access
		f := setupTestFixtureWithRepo(t, repofake.NewFakeCredentialRepoWith(credentials.Pair{Access: expired}))
		f.advance(time.Hour)

		_, err := f.service.Bootstrap(context.Background())
		require.NoError(t, err)
		require.Zero(t, f.exchange.RenewCalls())
		f.requireAnonymous(t)
	})
}

func TestBootstrap_StoreError(t *testing.T) {
	f := setupTestFixture(t)
	f.repo.LoadErr = errors.New("input/output error")

	state, err := f.service.Bootstrap(context.Background())
	require.ErrorContains(t, err, "input/output error")
	require.True(t, state.Ready, "the session is ready even when the store cannot be read")
	require.Nil(t, state.Identity)
	require.Zero(t, f.exchange.RenewCalls())
}

func TestBootstrap_RunsOnce(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.repo.Save(f.mintPair(t)))
	f.advance(time.Hour)

	var wg sync.WaitGroup
	states := make([]session.State, 5)
	for i := range states {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			states[i], _ = f.service.Bootstrap(context.Background())
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, f.exchange.RenewCalls())
	for _, state := range states {
		require.Equal(t, session.PhaseAuthenticated, state.Phase)
	}
}

func TestBootstrap_WaitReady(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.repo.Save(f.mintPair(t)))

	ready := make(chan session.State, 1)
	go func() {
		state, err := f.service.Session().WaitReady(context.Background())
		if err == nil {
			ready <- state
		}
	}()

	_, err := f.service.Bootstrap(context.Background())
	require.NoError(t, err)

	select {
	case state := <-ready:
		require.Equal(t, session.PhaseAuthenticated, state.Phase)
	case <-time.After(time.Second):
		t.Fatal("WaitReady was not released by Bootstrap")
	}
}

func TestBootstrap_NotifiesSubscribers(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.repo.Save(f.mintPair(t)))

	var phases []session.Phase
	f.service.Session().Subscribe(func(s session.State) {
		phases = append(phases, s.Phase)
	})

	_, err := f.service.Bootstrap(context.Background())
	require.NoError(t, err)
	require.Equal(t, session.PhaseBootstrapping, phases[0])
	require.Equal(t, session.PhaseAuthenticated, phases[len(phases)-1])
	for _, p := range phases {
		require.NotEqual(t, session.PhaseAnonymous, p, "never reports signed out while restoring a valid session")
	}
}

func TestBootstrap_SharesRenewWithRequestPipeline(t *testing.T) {
	f := setupTestFixture(t)
	api := newProtectedAPI(t)
	require.NoError(t, f.repo.Save(f.mintPair(t)))
	f.advance(time.Hour)

	f.exchange.RenewGate = make(chan struct{})
	f.exchange.RenewEntered = make(chan struct{}, 2)

	booted := make(chan session.State, 1)
	go func() {
		state, _ := f.service.Bootstrap(context.Background())
		booted <- state
	}()
	status := getAsync(f.service.HTTPClient(), api.server.URL)

	<-f.exchange.RenewEntered
	// Give the other caller time to join the flight before it completes.
	time.Sleep(50 * time.Millisecond)
	close(f.exchange.RenewGate)

	require.Equal(t, http.StatusOK, <-status)
	state := <-booted

	require.Equal(t, 1, f.exchange.RenewCalls())
	require.Equal(t, []string{"Bearer " + f.repo.Current().Access}, api.seen())
	require.Equal(t, session.PhaseAuthenticated, state.Phase)
	require.Equal(t, f.decode(t, f.repo.Current().Access), f.service.State().Identity)
}

func TestBootstrap_NoRefreshTokenIsCounted(t *testing.T) {
	expired := setupTestFixture(t).mintPair(t).Access
	f := setupTestFixtureWithRepo(t, repofake.NewFakeCredentialRepoWith(credentials.Pair{Access: expired}))
	f.advance(time.Hour)

	_, err := f.service.Bootstrap(context.Background())
	require.NoError(t, err)
	f.requireAnonymous(t)

	expected := `
# HELP session_renew_total Credential renews by result. no_refresh ends the session without calling the backend; discarded means the session changed while the backend call was outstanding.
# TYPE session_renew_total counter
session_renew_total{result="no_refresh"} 1
`
	require.NoError(t, testutil.GatherAndCompare(f.registry, strings.NewReader(expected), "session_renew_total"))
}
