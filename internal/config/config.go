package config

import "time"

type Config interface {
	EnvConfig
	ClientConfig
	BackendConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

// ClientConfig holds the settings the session client is composed from.
type ClientConfig interface {
	GetBaseURL() string
	GetStoreKind() StoreKind
	GetStateDir() string
	GetDatabaseURL() string
	GetRequestTimeout() time.Duration
}

// BackendConfig holds the settings of the stub backend.
type BackendConfig interface {
	GetSigningSecret() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetSeedDemoUsers() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Client
	Backend
	Cors
}

// New returns a Config backed by environment variables only.
func New() Config {
	return newMainConfig(source{})
}

// NewFromFile returns a Config backed by environment variables, falling back to the
// values in the YAML file at path before the built-in defaults.
func NewFromFile(path string) (Config, error) {
	values, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return newMainConfig(source{file: values}), nil
}

func newMainConfig(src source) mainConfig {
	return mainConfig{
		EnvVars: EnvVars{src: src},
		Client:  Client{src: src},
		Backend: Backend{src: src},
		Cors:    Cors{src: src},
	}
}
