package cli

import (
	"context"

	"github.com/simplysf/simply-package/pkg/cache"
	"github.com/simplysf/simply-package/pkg/config"
	pkgerrors "github.com/simplysf/simply-package/pkg/errors"
	"github.com/simplysf/simply-package/pkg/integrations/salesforce"
)

// session is the configuration and cache shared by one command run.
type session struct {
	cfg   *config.Config
	cache cache.Cache
}

// openSession loads the config file and opens the cache backend.
func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, cache: newCache(ctx, cfg)}, nil
}

func (s *session) Close() error {
	return s.cache.Close()
}

// apiVersion picks the flag value, then the configured one, then the default.
func (s *session) apiVersion(flag string) (string, error) {
	v := flag
	if v == "" {
		v = s.cfg.APIVersion
	}
	if v == "" {
		v = config.DefaultAPIVersion
	}
	if err := salesforce.ValidateAPIVersion(v); err != nil {
		return "", err
	}
	return v, nil
}

// connect opens and verifies a connection to the named org.
func (s *session) connect(ctx context.Context, org, apiVersion string) (*salesforce.Connection, error) {
	version, err := s.apiVersion(apiVersion)
	if err != nil {
		return nil, err
	}
	auth, err := s.cfg.ResolveOrg(org)
	if err != nil {
		return nil, err
	}

	logger := loggerFromContext(ctx)
	logger.Debug("Connecting", "org", auth.Alias, "instance", auth.InstanceURL, "api", version)

	conn, err := salesforce.NewConnection(salesforce.Options{
		InstanceURL: auth.InstanceURL,
		AccessToken: auth.AccessToken,
		Username:    auth.Username,
		APIVersion:  version,
		Cache:       s.cache,
		CacheTTL:    s.cfg.CacheTTL(),
	})
	if err != nil {
		return nil, err
	}
	if err := conn.Verify(ctx); err != nil {
		if pkgerrors.Is(err, pkgerrors.ErrCodeAPIVersion) || pkgerrors.Is(err, pkgerrors.ErrCodeUnauthorized) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeConnection, err, "unable to connect to %s", org)
	}
	return conn, nil
}

// orgOrDefault returns flag, falling back to the configured default.
func orgOrDefault(flag, configured, name string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if configured != "" {
		return configured, nil
	}
	return "", pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "missing required flag --%s", name)
}
