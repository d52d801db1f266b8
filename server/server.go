package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/coursehub-session/internal/config"
	"github.com/jrsteele09/coursehub-session/token"
	"github.com/jrsteele09/coursehub-session/users"
)

// Server is the development backend speaking the same token contract as the
// platform API. It keeps no session table: refresh tokens are self-contained.
type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	users    users.UserRepo
	minter   *token.Minter
	courses  *courseStore
	metrics  *metrics
	registry *prometheus.Registry
	nowFunc  func() time.Time
}

type Option func(*Server)

// WithMinter replaces the minter built from the signing secret and TTLs in the config.
func WithMinter(m *token.Minter) Option {
	return func(s *Server) {
		s.minter = m
	}
}

// WithNowFunc sets the clock used for last-login and course timestamps.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = now
	}
}

func New(config config.Config, userRepo users.UserRepo, options ...Option) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("[Server New] config is required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("[Server New] user repo is required")
	}

	s := &Server{
		env:      config.GetEnv(),
		mux:      http.NewServeMux(),
		config:   config,
		users:    userRepo,
		courses:  newCourseStore(),
		registry: prometheus.NewRegistry(),
		nowFunc:  time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.minter == nil {
		signer := token.NewHMACSigner(config.GetSigningSecret())
		s.minter = token.NewMinter(signer, config.GetAccessTokenTTL(), config.GetRefreshTokenTTL())
	}
	s.metrics = newMetrics(s.registry)

	if config.GetSeedDemoUsers() {
		if err := s.SeedDemoUsers(); err != nil {
			return nil, fmt.Errorf("[Server New] failed to seed demo users: %w", err)
		}
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered route patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func logError(method, path, error string) {
	log.Error().Msgf("[%-19s] %s %s", colourMethod(method), path, Red+error+ResetColor)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}
