// Package config loads CLI configuration and org credentials.
//
// Configuration lives in a TOML file, by default
// $XDG_CONFIG_HOME/simply/config.toml (or ~/.config/simply/config.toml).
// The SIMPLY_CONFIG environment variable overrides the path. A missing file
// is not an error; every setting has a default.
//
//	api_version = "62.0"
//	target_org = "ci"
//	target_dev_hub = "hub"
//
//	[orgs.ci]
//	username = "ci@example.com"
//	instance_url = "https://example.my.salesforce.com"
//	access_token_env = "SF_CI_TOKEN"
//
//	[cache]
//	redis_url = "redis://localhost:6379/0"
//	ttl = "24h"
//	disabled = false
//
// Orgs that are not listed can still be used in CI by setting
// SF_ACCESS_TOKEN and SF_INSTANCE_URL.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	pkgerrors "github.com/simplysf/simply-package/pkg/errors"
)

// AppName is used for configuration and cache directories.
const AppName = "simply"

// Environment variables.
const (
	EnvConfig      = "SIMPLY_CONFIG"
	EnvAccessToken = "SF_ACCESS_TOKEN"
	EnvInstanceURL = "SF_INSTANCE_URL"
)

// DefaultAPIVersion is used when neither flag nor config sets one.
const DefaultAPIVersion = "62.0"

// DefaultCacheTTL is how long API responses such as the version list are cached.
const DefaultCacheTTL = 24 * time.Hour

// Config is the parsed configuration file.
type Config struct {
	APIVersion   string         `toml:"api_version"`
	TargetOrg    string         `toml:"target_org"`
	TargetDevHub string         `toml:"target_dev_hub"`
	Orgs         map[string]Org `toml:"orgs"`
	Cache        CacheConfig    `toml:"cache"`
}

// Org holds the credentials of one org, keyed by alias.
type Org struct {
	Username       string `toml:"username"`
	InstanceURL    string `toml:"instance_url"`
	AccessTokenEnv string `toml:"access_token_env"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	RedisURL string   `toml:"redis_url"`
	TTL      Duration `toml:"ttl"`
	Disabled bool     `toml:"disabled"`
}

// Duration is a time.Duration decoded from strings like "24h".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// CacheTTL returns the configured TTL or DefaultCacheTTL.
func (c *Config) CacheTTL() time.Duration {
	if c.Cache.TTL <= 0 {
		return DefaultCacheTTL
	}
	return time.Duration(c.Cache.TTL)
}

// Path returns the configuration file path.
func Path() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// Load reads the configuration from Path. A missing file yields an empty config.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return &Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the configuration at path. A missing file yields an empty config.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	return &cfg, nil
}

// Auth is a resolved set of org credentials.
type Auth struct {
	Alias       string
	Username    string
	InstanceURL string
	AccessToken string
}

// ResolveOrg finds credentials for an org alias or username. Orgs missing
// from the file fall back to SF_ACCESS_TOKEN and SF_INSTANCE_URL.
func (c *Config) ResolveOrg(nameOrAlias string) (Auth, error) {
	if err := pkgerrors.ValidateAlias(nameOrAlias); err != nil {
		return Auth{}, err
	}

	alias, org, ok := c.lookup(nameOrAlias)
	if !ok {
		auth := Auth{
			Alias:       nameOrAlias,
			Username:    nameOrAlias,
			InstanceURL: os.Getenv(EnvInstanceURL),
			AccessToken: os.Getenv(EnvAccessToken),
		}
		if auth.InstanceURL == "" || auth.AccessToken == "" {
			return Auth{}, pkgerrors.New(pkgerrors.ErrCodeConnection,
				"no authorization found for org %q; add it to the config file or set %s and %s", nameOrAlias, EnvAccessToken, EnvInstanceURL)
		}
		return auth, validateInstanceURL(auth)
	}

	env := org.AccessTokenEnv
	if env == "" {
		env = EnvAccessToken
	}
	auth := Auth{
		Alias:       alias,
		Username:    org.Username,
		InstanceURL: org.InstanceURL,
		AccessToken: os.Getenv(env),
	}
	if auth.Username == "" {
		auth.Username = alias
	}
	if auth.AccessToken == "" {
		return Auth{}, pkgerrors.New(pkgerrors.ErrCodeUnauthorized, "access token for org %q not set (expected in $%s)", alias, env)
	}
	return auth, validateInstanceURL(auth)
}

func (c *Config) lookup(nameOrAlias string) (string, Org, bool) {
	if org, ok := c.Orgs[nameOrAlias]; ok {
		return nameOrAlias, org, true
	}
	for alias, org := range c.Orgs {
		if strings.EqualFold(org.Username, nameOrAlias) {
			return alias, org, true
		}
	}
	return "", Org{}, false
}

func validateInstanceURL(a Auth) error {
	if err := pkgerrors.ValidateURL(a.InstanceURL); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeInvalidConfig, err, "instance URL for org %q", a.Alias)
	}
	return nil
}
