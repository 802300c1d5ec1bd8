// Package config resolves CLI configuration from a YAML file, a .env file,
// and NOTEFOLD_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is everything the CLI needs to reach the remote note service.
type Config struct {
	// ServiceURL is the remote note service endpoint.
	ServiceURL string `yaml:"service_url"`
	// OAuthProvider is the default provider for `login --oauth`.
	OAuthProvider string `yaml:"oauth_provider"`
	// OAuthRedirectTo is where the external flow sends the user agent back.
	OAuthRedirectTo string `yaml:"oauth_redirect_to"`
	// TokenPath overrides where the session token is cached.
	TokenPath string `yaml:"token_path"`
	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`
}

// DefaultDir returns the per-user configuration directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "notefold"), nil
}

// Load resolves the configuration. path may be empty, in which case the
// default location is used; a missing file at the default location is fine,
// a missing explicit file is an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	explicit := path != ""
	if !explicit {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "config.yaml")
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// no config file is fine, env can carry everything
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	// .env in the working directory, if present, then real env on top
	_ = godotenv.Load()
	applyEnv(cfg)

	if cfg.TokenPath == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		cfg.TokenPath = filepath.Join(dir, "session.token")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("NOTEFOLD_SERVICE_URL"); v != "" {
		cfg.ServiceURL = v
	}
	if v := os.Getenv("NOTEFOLD_OAUTH_PROVIDER"); v != "" {
		cfg.OAuthProvider = v
	}
	if v := os.Getenv("NOTEFOLD_OAUTH_REDIRECT_TO"); v != "" {
		cfg.OAuthRedirectTo = v
	}
	if v := os.Getenv("NOTEFOLD_TOKEN_PATH"); v != "" {
		cfg.TokenPath = v
	}
	if v := os.Getenv("NOTEFOLD_VERBOSE"); v == "1" || v == "true" {
		cfg.Verbose = true
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.ServiceURL == "" {
		return errors.New("service_url is not set (config file or NOTEFOLD_SERVICE_URL)")
	}
	return nil
}
