package credentials

import "sync"

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo keeps the pair for the lifetime of the process.
type InMemoryRepo struct {
	mu   sync.RWMutex
	pair Pair
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{}
}

func (r *InMemoryRepo) Save(pair Pair) error {
	if err := validate(pair); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pair = pair
	return nil
}

func (r *InMemoryRepo) Load() (Pair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.pair.IsZero() {
		return Pair{}, ErrNoCredential
	}
	return r.pair, nil
}

func (r *InMemoryRepo) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pair = Pair{}
	return nil
}
