package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	envVar         = "ENV"
	logLevelVar    = "LOG_LEVEL"
	baseURLVar     = "BASE_URL"
	storeVar       = "STORE"
	stateDirVar    = "STATE_DIR"
	databaseURLVar = "DATABASE_URL"
	timeoutVar     = "REQUEST_TIMEOUT"
)

// source resolves a setting from the environment, then the optional config file.
type source struct {
	file map[string]string
}

func (s source) get(name, defaultValue string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	if value, ok := s.file[name]; ok && value != "" {
		return value
	}
	return defaultValue
}

func (s source) duration(name string, defaultValue time.Duration) time.Duration {
	raw := s.get(name, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func (s source) boolean(name string, defaultValue bool) bool {
	raw := s.get(name, "")
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return b
}

type EnvVars struct {
	src source
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.src.get(portEnvVar, "8000")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.src.get(appNameVar, "CourseHub")
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.src.get(envVar, "DEV"))
}

func (e EnvVars) GetLogLevel() string {
	return e.src.get(logLevelVar, "info")
}

// StoreKind selects the credential repository the client is composed with.
type StoreKind string

const (
	StoreMemory   StoreKind = "memory"
	StoreFile     StoreKind = "file"
	StoreCookie   StoreKind = "cookie"
	StorePostgres StoreKind = "postgres"
)

type Client struct {
	src source
}

var _ ClientConfig = Client{}

// GetBaseURL returns the backend API root. It always ends in a slash so that
// endpoint paths resolve relative to it.
func (c Client) GetBaseURL() string {
	base := c.src.get(baseURLVar, "http://localhost:8000/api/v1/")
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

func (c Client) GetStoreKind() StoreKind {
	return StoreKind(strings.ToLower(c.src.get(storeVar, string(StoreFile))))
}

func (c Client) GetStateDir() string {
	if dir := c.src.get(stateDirVar, ""); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".coursehub"
	}
	return filepath.Join(home, ".config", "coursehub")
}

func (c Client) GetDatabaseURL() string {
	return c.src.get(databaseURLVar, "")
}

func (c Client) GetRequestTimeout() time.Duration {
	return c.src.duration(timeoutVar, 10*time.Second)
}

type Backend struct {
	src source
}

var _ BackendConfig = Backend{}

func (b Backend) GetSigningSecret() string {
	return b.src.get("SIGNING_SECRET", "dev-signing-secret-change-me")
}

func (b Backend) GetAccessTokenTTL() time.Duration {
	return b.src.duration("ACCESS_TOKEN_TTL", 5*time.Minute)
}

func (b Backend) GetRefreshTokenTTL() time.Duration {
	return b.src.duration("REFRESH_TOKEN_TTL", 24*time.Hour)
}

func (b Backend) GetSeedDemoUsers() bool {
	return b.src.boolean("SEED_DEMO_USERS", true)
}

// GetEnv returns the value of an environment variable or defaultValue when unset.
func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
