package session

import (
	"context"
	"sync"

	"github.com/jrsteele09/coursehub-session/token"
)

// Store is the observable holder of the session State. It performs no
// validation; callers decide what identity to install.
//
// Subscribers run outside the lock and receive a snapshot. Snapshots are
// delivered one at a time in the order the changes were made, so the last
// one a subscriber sees always matches Get. A change made while another
// goroutine is delivering is queued and delivered by that goroutine.
type Store struct {
	mu            sync.RWMutex
	state         State
	bootstrapping bool
	subscribers   map[int]func(State)
	nextID        int
	ready         chan struct{}
	readyOnce     sync.Once

	pending     []State
	dispatching bool
}

func NewStore() *Store {
	return &Store{
		subscribers: make(map[int]func(State)),
		ready:       make(chan struct{}),
	}
}

// Get returns the current state.
func (s *Store) Get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// Subscribe registers fn for every subsequent change and returns a func that
// removes it.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

// MarkBootstrapping records that the initial session check has started.
func (s *Store) MarkBootstrapping() {
	s.update(func() {
		s.bootstrapping = true
	})
}

// SetIdentity installs identity, or clears it when nil.
func (s *Store) SetIdentity(identity *token.Identity) {
	var installed *token.Identity
	if identity != nil {
		id := *identity
		installed = &id
	}
	s.update(func() {
		s.state.Identity = installed
	})
}

func (s *Store) SetReady(ready bool) {
	s.update(func() {
		s.state.Ready = ready
		if ready {
			s.bootstrapping = false
		}
	})
	if ready {
		s.readyOnce.Do(func() { close(s.ready) })
	}
}

// WaitReady blocks until the state has been ready at least once or ctx is done.
func (s *Store) WaitReady(ctx context.Context) (State, error) {
	select {
	case <-s.ready:
		return s.Get(), nil
	case <-ctx.Done():
		return s.Get(), ctx.Err()
	}
}

func (s *Store) update(mutate func()) {
	s.mu.Lock()
	before := s.state
	mutate()
	s.state.Phase = derivePhase(s.state, s.bootstrapping)
	changed := before.Ready != s.state.Ready ||
		before.Phase != s.state.Phase ||
		!sameIdentity(before.Identity, s.state.Identity)
	if !changed {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, s.snapshot())
	if s.dispatching {
		s.mu.Unlock()
		return
	}
	s.dispatching = true
	s.dispatch()
}

// dispatch delivers queued snapshots until none are left. It is entered with
// s.mu held and returns with it released.
func (s *Store) dispatch() {
	for len(s.pending) > 0 {
		snap := s.pending[0]
		s.pending = s.pending[1:]
		subscribers := make([]func(State), 0, len(s.subscribers))
		for _, fn := range s.subscribers {
			subscribers = append(subscribers, fn)
		}
		s.mu.Unlock()

		for _, fn := range subscribers {
			fn(snap)
		}
		s.mu.Lock()
	}
	s.pending = nil
	s.dispatching = false
	s.mu.Unlock()
}

// snapshot must be called with s.mu held.
func (s *Store) snapshot() State {
	out := s.state
	if out.Identity != nil {
		id := *out.Identity
		out.Identity = &id
	}
	return out
}
