package credentials

import (
	"errors"
	"fmt"
)

var _ Repo = (*TieredRepo)(nil)

// TieredRepo reads the primary tier first and falls back to the secondary.
// Saves go to the primary only; Clear erases both so nothing is left readable.
type TieredRepo struct {
	primary   Repo
	secondary Repo
}

func NewTieredRepo(primary, secondary Repo) (*TieredRepo, error) {
	if primary == nil {
		return nil, fmt.Errorf("[NewTieredRepo] primary is required")
	}
	if secondary == nil {
		return nil, fmt.Errorf("[NewTieredRepo] secondary is required")
	}
	return &TieredRepo{primary: primary, secondary: secondary}, nil
}

func (r *TieredRepo) Save(pair Pair) error {
	return r.primary.Save(pair)
}

func (r *TieredRepo) Load() (Pair, error) {
	pair, err := r.primary.Load()
	if err == nil {
		return pair, nil
	}
	if !errors.Is(err, ErrNoCredential) {
		return Pair{}, err
	}
	return r.secondary.Load()
}

func (r *TieredRepo) Clear() error {
	return errors.Join(r.primary.Clear(), r.secondary.Clear())
}
