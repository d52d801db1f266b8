package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/coursehub-session/session"
	"github.com/jrsteele09/coursehub-session/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teacherIdentity() *token.Identity {
	return &token.Identity{
		SubjectID: "42",
		Username:  "ada",
		FullName:  "Ada Lovelace",
		Role:      token.RoleTeacher,
		ExpiresAt: time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC),
	}
}

func TestStore_Phases(t *testing.T) {
	store := session.NewStore()

	state := store.Get()
	require.False(t, state.Ready)
	require.Nil(t, state.Identity)
	require.Equal(t, session.PhaseUninitialized, state.Phase)

	store.MarkBootstrapping()
	require.Equal(t, session.PhaseBootstrapping, store.Get().Phase)

	store.SetIdentity(teacherIdentity())
	require.Equal(t, session.PhaseBootstrapping, store.Get().Phase, "identity alone does not make the session ready")

	store.SetReady(true)
	state = store.Get()
	require.Equal(t, session.PhaseAuthenticated, state.Phase)
	require.True(t, state.Authenticated())

	store.SetIdentity(nil)
	state = store.Get()
	require.Equal(t, session.PhaseAnonymous, state.Phase)
	require.True(t, state.Ready)
	require.False(t, state.Authenticated())
}

func TestStore_SnapshotsAreCopies(t *testing.T) {
	store := session.NewStore()
	identity := teacherIdentity()
	store.SetIdentity(identity)

	identity.Username = "mutated"
	got := store.Get()
	require.Equal(t, "ada", got.Identity.Username)

	got.Identity.Username = "mutated again"
	require.Equal(t, "ada", store.Get().Identity.Username)
}

func TestStore_Subscribe(t *testing.T) {
	store := session.NewStore()

	var seen []session.State
	unsubscribe := store.Subscribe(func(s session.State) {
		seen = append(seen, s)
	})

	store.MarkBootstrapping()
	store.SetIdentity(teacherIdentity())
	store.SetReady(true)
	store.SetReady(true)
	store.SetIdentity(teacherIdentity())

	require.Len(t, seen, 3, "repeated identical updates are not notifications")
	require.Equal(t, session.PhaseBootstrapping, seen[0].Phase)
	require.Equal(t, "ada", seen[1].Identity.Username)
	require.Equal(t, session.PhaseAuthenticated, seen[2].Phase)

	unsubscribe()
	unsubscribe()
	store.SetIdentity(nil)
	require.Len(t, seen, 3)
}

func TestStore_SubscriberMayReadStore(t *testing.T) {
	store := session.NewStore()
	var phase session.Phase
	store.Subscribe(func(s session.State) {
		phase = store.Get().Phase
	})
	store.SetReady(true)
	require.Equal(t, session.PhaseAnonymous, phase)
}

func TestStore_ConcurrentChangesDeliveredInOrder(t *testing.T) {
	store := session.NewStore()
	store.SetReady(true)

	var lock sync.Mutex
	var seen []session.State
	store.Subscribe(func(s session.State) {
		lock.Lock()
		seen = append(seen, s)
		lock.Unlock()
		// Widen the window between taking a snapshot and delivering it.
		time.Sleep(time.Millisecond)
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(signIn bool) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if signIn {
					store.SetIdentity(teacherIdentity())
				} else {
					store.SetIdentity(nil)
				}
			}
		}(i%2 == 0)
	}
	wg.Wait()

	lock.Lock()
	defer lock.Unlock()
	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		require.NotEqual(t, seen[i-1].Phase, seen[i].Phase, "each delivery is a change from the one before")
	}
	require.Equal(t, store.Get().Phase, seen[len(seen)-1].Phase, "the last delivery matches the current state")
}

func TestStore_SubscriberMayUpdateStore(t *testing.T) {
	store := session.NewStore()

	var phases []session.Phase
	store.Subscribe(func(s session.State) {
		phases = append(phases, s.Phase)
		if s.Phase == session.PhaseAnonymous {
			store.SetIdentity(teacherIdentity())
		}
	})

	done := make(chan struct{})
	go func() {
		store.SetReady(true)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("update from inside a subscriber deadlocked")
	}
	require.Equal(t, []session.Phase{session.PhaseAnonymous, session.PhaseAuthenticated}, phases)
}

func TestStore_WaitReady(t *testing.T) {
	t.Run("released by SetReady", func(t *testing.T) {
		store := session.NewStore()
		var wg sync.WaitGroup
		results := make(chan session.State, 3)
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				state, err := store.WaitReady(context.Background())
				assert.NoError(t, err)
				results <- state
			}()
		}

		store.SetIdentity(teacherIdentity())
		store.SetReady(true)
		wg.Wait()
		close(results)
		for state := range results {
			require.True(t, state.Ready)
			require.NotNil(t, state.Identity)
		}
	})

	t.Run("already ready", func(t *testing.T) {
		store := session.NewStore()
		store.SetReady(true)
		state, err := store.WaitReady(context.Background())
		require.NoError(t, err)
		require.Equal(t, session.PhaseAnonymous, state.Phase)
	})

	t.Run("context done", func(t *testing.T) {
		store := session.NewStore()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		state, err := store.WaitReady(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.False(t, state.Ready)
	})
}

func TestPhase_String(t *testing.T) {
	require.Equal(t, "uninitialized", session.PhaseUninitialized.String())
	require.Equal(t, "bootstrapping", session.PhaseBootstrapping.String())
	require.Equal(t, "authenticated", session.PhaseAuthenticated.String())
	require.Equal(t, "anonymous", session.PhaseAnonymous.String())
}
