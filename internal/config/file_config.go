package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFileVar names the environment variable that points at the YAML config file.
const ConfigFileVar = "COURSEHUB_CONFIG"

// LoadFile reads a flat YAML document such as
//
//	base_url: https://api.example.com/api/v1/
//	store: cookie
//	request_timeout: 15s
//
// and returns its values keyed by the matching environment variable name.
// A missing file yields an empty set.
func LoadFile(path string) (map[string]string, error) {
	values := make(map[string]string)
	if strings.TrimSpace(path) == "" {
		return values, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}
	for k, v := range raw {
		if v == nil {
			continue
		}
		values[strings.ToUpper(strings.TrimSpace(k))] = fmt.Sprint(v)
	}
	return values, nil
}
