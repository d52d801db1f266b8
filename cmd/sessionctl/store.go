package main

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/lib/pq"

	"github.com/jrsteele09/coursehub-session/credentials"
	"github.com/jrsteele09/coursehub-session/internal/config"
)

// cookieFileName is the cookie jar snapshot inside the state directory.
const cookieFileName = "cookies.json"

// openRepo builds the credential store selected by s.Kind. The returned func
// releases its resources.
func openRepo(s storeSettings) (credentials.Repo, func() error, error) {
	noop := func() error { return nil }

	switch s.Kind {
	case config.StoreMemory:
		return credentials.NewInMemoryRepo(), noop, nil

	case config.StoreFile, "":
		repo, err := credentials.NewFileRepo(filepath.Join(s.StateDir, credentials.DefaultFileName))
		if err != nil {
			return nil, nil, fmt.Errorf("file store: %w", err)
		}
		return repo, noop, nil

	case config.StoreCookie:
		cookies, err := credentials.NewCookieRepo(s.BaseURL, credentials.WithCookieFile(filepath.Join(s.StateDir, cookieFileName)))
		if err != nil {
			return nil, nil, fmt.Errorf("cookie store: %w", err)
		}
		file, err := credentials.NewFileRepo(filepath.Join(s.StateDir, credentials.DefaultFileName))
		if err != nil {
			return nil, nil, fmt.Errorf("cookie store fallback: %w", err)
		}
		repo, err := credentials.NewTieredRepo(cookies, file)
		if err != nil {
			return nil, nil, err
		}
		return repo, noop, nil

	case config.StorePostgres:
		if s.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("postgres store: DATABASE_URL is required")
		}
		db, err := sql.Open("postgres", s.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres store: %w", err)
		}
		repo, err := credentials.NewPostgresRepo(db, "")
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("postgres store: %w", err)
		}
		return repo, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q (want file, cookie, postgres or memory)", s.Kind)
	}
}
