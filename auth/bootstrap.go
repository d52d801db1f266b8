package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/coursehub-session/credentials"
	"github.com/jrsteele09/coursehub-session/session"
)

// Bootstrap outcomes, also used as the session_bootstrap_total label.
const (
	outcomeAnonymous   = "anonymous"
	outcomeRestored    = "restored"
	outcomeRenewed     = "renewed"
	outcomeRenewFailed = "renew_failed"
	outcomeStoreError  = "store_error"
)

// Bootstrap rebuilds the session from the credential store. It runs once per
// Service; later calls wait for the first run and return the current state.
// The session is always ready afterwards. Only a store read failure is returned.
func (s *Service) Bootstrap(ctx context.Context) (session.State, error) {
	s.bootOnce.Do(func() {
		outcome, err := s.bootstrap(ctx)
		s.bootErr = err
		s.metrics.bootstrap(outcome)
		log.Debug().Str("outcome", outcome).Msg("session bootstrapped")
	})
	return s.state.Get(), s.bootErr
}

func (s *Service) bootstrap(ctx context.Context) (string, error) {
	gen := s.currentGeneration()
	s.state.MarkBootstrapping()

	pair, err := s.repo.Load()
	if err != nil {
		s.state.SetIdentity(nil)
		s.state.SetReady(true)
		if errors.Is(err, credentials.ErrNoCredential) {
			return outcomeAnonymous, nil
		}
		log.Err(err).Msg("failed to load credentials")
		return outcomeStoreError, errors.Wrap(err, "[Bootstrap] load credentials")
	}

	if pair.Access != "" && !s.inspector.IsExpired(pair.Access) {
		identity, err := s.inspector.Decode(pair.Access)
		if err == nil {
			s.install(identity)
			return outcomeRestored, nil
		}
	}

	if pair.Refresh == "" {
		s.metrics.renew(resultNoRefresh)
		s.endSession(gen, "no refresh token")
		s.state.SetReady(true)
		return outcomeAnonymous, nil
	}

	if _, err := s.renew(ctx); err != nil {
		// renew ends the session itself unless the store could not be read.
		s.sessionMu.Lock()
		if s.generation == gen {
			s.state.SetIdentity(nil)
		}
		s.sessionMu.Unlock()
		s.state.SetReady(true)
		return outcomeRenewFailed, nil
	}
	return outcomeRenewed, nil
}
