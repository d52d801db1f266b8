// Package auth is the session context object: it owns the credential store,
// the exchange client and the session state, and exposes sign-in, sign-out,
// the startup bootstrap and the authenticated request pipeline.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/jrsteele09/coursehub-session/credentials"
	"github.com/jrsteele09/coursehub-session/exchange"
	"github.com/jrsteele09/coursehub-session/session"
	"github.com/jrsteele09/coursehub-session/token"
)

const defaultRequestTimeout = 10 * time.Second

// Exchanger performs the backend credential exchanges. *exchange.Client
// implements it.
type Exchanger interface {
	Issue(ctx context.Context, email, password string) (credentials.Pair, error)
	Renew(ctx context.Context, refresh string) (credentials.Pair, error)
	Register(ctx context.Context, reg exchange.Registration) error
}

var _ Exchanger = (*exchange.Client)(nil)

// Deps holds the collaborators of a Service. Inspector and State default when nil.
type Deps struct {
	Repo      credentials.Repo
	Exchange  Exchanger
	Inspector *token.Inspector
	State     *session.Store
}

// Service is the explicit session context handed to every caller that needs
// the session. There is no package-level instance.
type Service struct {
	repo      credentials.Repo
	exchange  Exchanger
	inspector *token.Inspector
	state     *session.Store

	renewGroup singleflight.Group

	// sessionMu orders credential writes with the session state they imply.
	// generation changes on every sign-in and sign-out so a renew that started
	// under an earlier session can tell it must not write.
	sessionMu  sync.Mutex
	generation uint64

	bootOnce sync.Once
	bootErr  error

	requestTimeout time.Duration
	labels         map[string]string
	registerer     prometheus.Registerer
	metrics        *metrics
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithRegisterer exports the session counters on reg.
func WithRegisterer(reg prometheus.Registerer) ServiceOption {
	return func(s *Service) {
		s.registerer = reg
	}
}

// WithRequestTimeout sets the timeout of the client returned by HTTPClient.
func WithRequestTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.requestTimeout = timeout
		}
	}
}

// WithLabels overrides the field labels used in login and register failure messages.
func WithLabels(labels map[string]string) ServiceOption {
	return func(s *Service) {
		s.labels = labels
	}
}

// NewService initializes a Service with required dependencies.
func NewService(deps Deps, options ...ServiceOption) (*Service, error) {
	if deps.Repo == nil {
		return nil, errors.New("[NewService] Repo is required")
	}
	if deps.Exchange == nil {
		return nil, errors.New("[NewService] Exchange is required")
	}
	if deps.Inspector == nil {
		deps.Inspector = token.NewInspector()
	}
	if deps.State == nil {
		deps.State = session.NewStore()
	}

	s := &Service{
		repo:           deps.Repo,
		exchange:       deps.Exchange,
		inspector:      deps.Inspector,
		state:          deps.State,
		requestTimeout: defaultRequestTimeout,
		labels:         exchange.DefaultLabels,
	}
	for _, opt := range options {
		opt(s)
	}

	m, err := newMetrics(s.registerer)
	if err != nil {
		return nil, errors.Wrap(err, "[NewService] register metrics")
	}
	s.metrics = m
	return s, nil
}

// State returns the current session state.
func (s *Service) State() session.State {
	return s.state.Get()
}

// Session returns the observable session store for subscriptions and WaitReady.
// Subscribers may run while a sign-in or sign-out is being applied and must
// not call Login, Logout or Bootstrap synchronously.
func (s *Service) Session() *session.Store {
	return s.state
}

// Login exchanges email and password for a credential pair and signs in.
// On failure the session is unchanged and the error is a *FailureError.
func (s *Service) Login(ctx context.Context, email, password string) error {
	pair, err := s.exchange.Issue(ctx, email, password)
	if err != nil {
		s.metrics.login(resultFailure)
		log.Info().Err(err).Str("email", email).Msg("login rejected")
		return s.failure(OpLogin, err)
	}

	identity, err := s.inspector.Decode(pair.Access)
	if err != nil {
		s.metrics.login(resultFailure)
		log.Err(err).Msg("issued access token is undecodable")
		return s.failure(OpLogin, err)
	}

	s.sessionMu.Lock()
	err = s.repo.Save(pair)
	if err == nil {
		s.generation++
		s.install(identity)
	}
	s.sessionMu.Unlock()
	if err != nil {
		s.metrics.login(resultFailure)
		log.Err(err).Msg("failed to persist issued credentials")
		return s.failure(OpLogin, errors.Wrap(err, "save credentials"))
	}

	s.metrics.login(resultSuccess)
	log.Info().Str("user_id", identity.SubjectID).Str("role", identity.Role.String()).Msg("signed in")
	return nil
}

// Register creates an account and then signs in with the same credentials.
func (s *Service) Register(ctx context.Context, reg exchange.Registration) error {
	if err := s.exchange.Register(ctx, reg); err != nil {
		log.Info().Err(err).Str("email", reg.Email).Msg("registration rejected")
		return s.failure(OpRegister, err)
	}
	return s.Login(ctx, reg.Email, reg.Password)
}

// Logout erases the stored credentials and leaves the session ready and
// anonymous, even when erasing fails. A renew still in flight is discarded.
func (s *Service) Logout() error {
	s.sessionMu.Lock()
	s.generation++
	err := s.repo.Clear()
	s.state.SetIdentity(nil)
	s.state.SetReady(true)
	s.sessionMu.Unlock()
	if err != nil {
		log.Err(err).Msg("failed to clear credentials on logout")
		return errors.Wrap(err, "[Logout] clear credentials")
	}
	log.Info().Msg("signed out")
	return nil
}

func (s *Service) install(identity *token.Identity) {
	s.state.SetIdentity(identity)
	s.state.SetReady(true)
}

func (s *Service) currentGeneration() uint64 {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	return s.generation
}

// endSession ends the session unless it was replaced since gen was read.
// It reports whether it did.
func (s *Service) endSession(gen uint64, reason string) bool {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	if s.generation != gen {
		log.Debug().Str("reason", reason).Msg("session changed, not ending it")
		return false
	}
	s.generation++
	s.hardLogout(reason)
	return true
}

// hardLogout ends the session after an irrecoverable credential failure.
// Callers hold sessionMu.
func (s *Service) hardLogout(reason string) {
	if err := s.repo.Clear(); err != nil {
		log.Err(err).Str("reason", reason).Msg("failed to clear credentials")
	}
	s.state.SetIdentity(nil)
	s.state.SetReady(true)
	log.Info().Str("reason", reason).Msg("session ended")
}

func (s *Service) failure(op string, err error) *FailureError {
	return &FailureError{
		Op:      op,
		Message: exchange.Message(err, s.labels),
		Err:     err,
	}
}
