package repofake

import (
	"sync"

	"github.com/jrsteele09/coursehub-session/credentials"
)

var _ credentials.Repo = (*FakeCredentialRepo)(nil)

// FakeCredentialRepo is an in-memory credentials.Repo that counts calls and
// can be told to fail.
type FakeCredentialRepo struct {
	mu    sync.Mutex
	pair  credentials.Pair
	saves []credentials.Pair

	LoadErr  error
	SaveErr  error
	ClearErr error

	loadCalls  int
	clearCalls int
}

func NewFakeCredentialRepo() *FakeCredentialRepo {
	return &FakeCredentialRepo{}
}

// NewFakeCredentialRepoWith returns a fake already holding pair.
func NewFakeCredentialRepoWith(pair credentials.Pair) *FakeCredentialRepo {
	return &FakeCredentialRepo{pair: pair}
}

func (f *FakeCredentialRepo) Save(pair credentials.Pair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SaveErr != nil {
		return f.SaveErr
	}
	if !pair.Complete() {
		return credentials.ErrIncompletePair
	}
	f.pair = pair
	f.saves = append(f.saves, pair)
	return nil
}

func (f *FakeCredentialRepo) Load() (credentials.Pair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls++
	if f.LoadErr != nil {
		return credentials.Pair{}, f.LoadErr
	}
	if f.pair.IsZero() {
		return credentials.Pair{}, credentials.ErrNoCredential
	}
	return f.pair, nil
}

func (f *FakeCredentialRepo) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls++
	f.pair = credentials.Pair{}
	return f.ClearErr
}

// Current returns the stored pair without counting a load.
func (f *FakeCredentialRepo) Current() credentials.Pair {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pair
}

// Saves returns every pair saved so far, oldest first.
func (f *FakeCredentialRepo) Saves() []credentials.Pair {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]credentials.Pair(nil), f.saves...)
}

func (f *FakeCredentialRepo) LoadCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadCalls
}

func (f *FakeCredentialRepo) ClearCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clearCalls
}
