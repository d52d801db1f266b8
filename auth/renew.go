package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/coursehub-session/credentials"
)

// renewKey is constant: there is one credential pair, so one flight at a time.
const renewKey = "renew"

// renew returns a pair whose access token is not expired, calling the backend
// at most once for any number of concurrent callers. On failure the session is
// ended; failures are never retried. A sign-in or sign-out that lands while the
// backend call is outstanding wins: the renewed pair is dropped and the
// session that replaced it is left alone.
func (s *Service) renew(ctx context.Context) (credentials.Pair, error) {
	v, err, shared := s.renewGroup.Do(renewKey, func() (any, error) {
		gen := s.currentGeneration()

		// Another flight may have finished between the caller's read and this one.
		pair, err := s.repo.Load()
		if err != nil {
			return nil, err
		}
		if pair.Access != "" && !s.inspector.IsExpired(pair.Access) {
			return pair, nil
		}
		if pair.Refresh == "" {
			s.metrics.renew(resultNoRefresh)
			if !s.endSession(gen, "no refresh token") {
				return s.replaced()
			}
			return nil, ErrNoRefreshToken
		}

		// A caller going away must not fail the renew for everyone sharing it.
		fresh, err := s.exchange.Renew(context.WithoutCancel(ctx), pair.Refresh)
		if err != nil {
			s.metrics.renew(resultFailure)
			log.Warn().Err(err).Msg("credential renew failed")
			if !s.endSession(gen, "renew failed") {
				return s.replaced()
			}
			return nil, err
		}

		identity, err := s.inspector.Decode(fresh.Access)
		if err != nil || identity.ExpiredAt(s.inspector.Now()) {
			s.metrics.renew(resultFailure)
			if !s.endSession(gen, "renewed token unusable") {
				return s.replaced()
			}
			return nil, ErrRenewedTokenInvalid
		}

		s.sessionMu.Lock()
		if s.generation != gen {
			s.sessionMu.Unlock()
			s.metrics.renew(resultDiscarded)
			log.Debug().Msg("session changed during renew, discarding renewed credentials")
			return s.replaced()
		}
		if err := s.repo.Save(fresh); err != nil {
			s.generation++
			s.hardLogout("renewed credentials not saved")
			s.sessionMu.Unlock()
			s.metrics.renew(resultFailure)
			log.Err(err).Msg("failed to persist renewed credentials")
			return nil, errors.Wrap(err, "save renewed credentials")
		}
		s.install(identity)
		s.sessionMu.Unlock()

		s.metrics.renew(resultSuccess)
		log.Debug().Str("user_id", identity.SubjectID).Msg("credentials renewed")
		return fresh, nil
	})
	if err != nil {
		return credentials.Pair{}, err
	}
	if shared {
		log.Debug().Msg("joined in-flight renew")
	}
	return v.(credentials.Pair), nil
}

// replaced answers a renew whose session was replaced mid-flight with whatever
// the replacing session stored.
func (s *Service) replaced() (any, error) {
	pair, err := s.repo.Load()
	if err != nil {
		return nil, err
	}
	if pair.Access == "" || s.inspector.IsExpired(pair.Access) {
		return nil, credentials.ErrNoCredential
	}
	return pair, nil
}
