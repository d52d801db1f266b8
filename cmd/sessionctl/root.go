package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/coursehub-session/auth"
	"github.com/jrsteele09/coursehub-session/exchange"
	"github.com/jrsteele09/coursehub-session/internal/config"
	apperrors "github.com/jrsteele09/coursehub-session/internal/errors"
	"github.com/jrsteele09/coursehub-session/internal/logging"
)

// Exit codes for CLI commands.
const (
	ExitCodeSuccess      = 0
	ExitCodeError        = 1
	ExitCodeAuthRequired = 2
	ExitCodeForbidden    = 3
	ExitCodeNotReady     = 4
)

var errAuthRequired = errors.New("not signed in; run: sessionctl login")

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case errors.Is(err, errAuthRequired):
		return ExitCodeAuthRequired
	case errors.Is(err, apperrors.ErrForbidden):
		return ExitCodeForbidden
	case errors.Is(err, apperrors.ErrSessionNotReady):
		return ExitCodeNotReady
	default:
		return ExitCodeError
	}
}

// app carries the resolved settings and the session service for one invocation.
type app struct {
	out io.Writer

	configPath string
	baseURL    string
	storeKind  string
	stateDir   string
	logLevel   string

	cfg     config.Config
	service *auth.Service
	closers []func() error
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	cmd := &cobra.Command{
		Use:   "sessionctl",
		Short: "Sign in to CourseHub and call the API with the stored session",
		Long: `sessionctl keeps a CourseHub session on disk (or in a cookie jar or
Postgres) and attaches it to API requests, renewing the access token when it
expires.

Examples:
  sessionctl login --email teacher@coursehub.test --password Teach3rPass
  sessionctl status
  sessionctl get courses/ --role teacher
  sessionctl logout`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	cmd.SetOut(out)

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML config file (env "+config.ConfigFileVar+")")
	flags.StringVar(&a.baseURL, "base-url", "", "API root, e.g. http://localhost:8000/api/v1/")
	flags.StringVar(&a.storeKind, "store", "", "credential store: file, cookie, postgres or memory")
	flags.StringVar(&a.stateDir, "state-dir", "", "directory for file and cookie stores")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newStatusCmd(a),
		newWhoamiCmd(a),
		newGetCmd(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.GetLogLevel()
	if a.logLevel != "" {
		level = a.logLevel
	}
	logging.Init(cfg.GetEnv(), level, os.Stderr)

	settings := a.settings()
	repo, closeRepo, err := openRepo(settings)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, closeRepo)

	client, err := exchange.NewClient(settings.BaseURL, exchange.WithTimeout(settings.Timeout))
	if err != nil {
		return fmt.Errorf("exchange client: %w", err)
	}
	a.service, err = auth.NewService(auth.Deps{Repo: repo, Exchange: client}, auth.WithRequestTimeout(settings.Timeout))
	if err != nil {
		return fmt.Errorf("session service: %w", err)
	}
	log.Debug().Str("base_url", settings.BaseURL).Str("store", string(settings.Kind)).Msg("session client ready")
	return nil
}

func (a *app) loadConfig() (config.Config, error) {
	path := a.configPath
	if path == "" {
		path = os.Getenv(config.ConfigFileVar)
	}
	if path == "" {
		return config.New(), nil
	}
	cfg, err := config.NewFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// storeSettings is the client configuration after flags are applied.
type storeSettings struct {
	BaseURL     string
	Kind        config.StoreKind
	StateDir    string
	DatabaseURL string
	Timeout     time.Duration
}

func (a *app) settings() storeSettings {
	s := storeSettings{
		BaseURL:     a.cfg.GetBaseURL(),
		Kind:        a.cfg.GetStoreKind(),
		StateDir:    a.cfg.GetStateDir(),
		DatabaseURL: a.cfg.GetDatabaseURL(),
		Timeout:     a.cfg.GetRequestTimeout(),
	}
	if a.baseURL != "" {
		s.BaseURL = a.baseURL
	}
	if a.storeKind != "" {
		s.Kind = config.StoreKind(a.storeKind)
	}
	if a.stateDir != "" {
		s.StateDir = a.stateDir
	}
	return s
}

func (a *app) close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
