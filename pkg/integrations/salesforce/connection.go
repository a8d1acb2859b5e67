// Package salesforce implements the packaging Org and Hub interfaces over
// the REST and Tooling APIs.
package salesforce

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/simplysf/simply-package/pkg/cache"
	pkgerrors "github.com/simplysf/simply-package/pkg/errors"
	"github.com/simplysf/simply-package/pkg/integrations"
	"github.com/simplysf/simply-package/pkg/packaging"
)

// MinAPIVersion is the lowest supported API version.
const MinAPIVersion = 36

// Options configures a Connection.
type Options struct {
	InstanceURL string
	AccessToken string
	Username    string
	APIVersion  string

	// Cache stores the instance's supported API versions.
	Cache    cache.Cache
	CacheTTL time.Duration

	// HTTPClient overrides the default transport client.
	HTTPClient *http.Client
}

// Connection is an authenticated connection to one org.
type Connection struct {
	client      *integrations.Client
	instanceURL string
	apiVersion  string
	username    string
}

var (
	_ packaging.Org = (*Connection)(nil)
	_ packaging.Hub = (*Connection)(nil)
)

// NewConnection validates opts and creates a Connection. It does not
// contact the org; call Verify for that.
func NewConnection(opts Options) (*Connection, error) {
	if err := ValidateAPIVersion(opts.APIVersion); err != nil {
		return nil, err
	}
	if err := pkgerrors.ValidateURL(opts.InstanceURL); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeConnection, err, "invalid instance URL")
	}
	if opts.AccessToken == "" {
		return nil, pkgerrors.New(pkgerrors.ErrCodeUnauthorized, "no access token for %s", opts.Username)
	}

	client := integrations.NewClient(opts.Cache, "salesforce:", opts.CacheTTL, map[string]string{
		"Authorization": "Bearer " + opts.AccessToken,
		"User-Agent":    "simply-package",
	})
	if opts.HTTPClient != nil {
		client.SetHTTPClient(opts.HTTPClient)
	}
	return &Connection{
		client:      client,
		instanceURL: strings.TrimRight(opts.InstanceURL, "/"),
		apiVersion:  normalizeVersion(opts.APIVersion),
		username:    opts.Username,
	}, nil
}

// ValidateAPIVersion checks that v looks like "62.0" and is at least
// MinAPIVersion.
func ValidateAPIVersion(v string) error {
	major, _, _ := strings.Cut(strings.TrimPrefix(v, "v"), ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return pkgerrors.New(pkgerrors.ErrCodeAPIVersion, "invalid API version %q", v)
	}
	if n < MinAPIVersion {
		return pkgerrors.New(pkgerrors.ErrCodeAPIVersion,
			"API version %s is too low; the minimum supported version is %d.0", v, MinAPIVersion)
	}
	return nil
}

func normalizeVersion(v string) string {
	v = strings.TrimPrefix(v, "v")
	if !strings.Contains(v, ".") {
		v += ".0"
	}
	return v
}

// Username returns the authenticated username.
func (c *Connection) Username() string { return c.username }

// APIVersion returns the API version used for requests.
func (c *Connection) APIVersion() string { return c.apiVersion }

type apiVersionInfo struct {
	Label   string `json:"label"`
	URL     string `json:"url"`
	Version string `json:"version"`
}

// Verify checks that the org is reachable and supports the configured API
// version. The instance's version list is cached.
func (c *Connection) Verify(ctx context.Context) error {
	var versions []apiVersionInfo
	key := cache.Key("versions", c.instanceURL)
	err := c.client.Cached(ctx, key, false, &versions, func() error {
		return c.client.Get(ctx, c.instanceURL+"/services/data/", &versions)
	})
	if err != nil {
		return mapError(err, "connect to %s", c.instanceURL)
	}
	supported := slices.ContainsFunc(versions, func(v apiVersionInfo) bool { return v.Version == c.apiVersion })
	if !supported {
		return pkgerrors.New(pkgerrors.ErrCodeAPIVersion, "API version %s is not supported by %s", c.apiVersion, c.instanceURL)
	}
	return nil
}

func (c *Connection) dataURL(path string) string {
	return fmt.Sprintf("%s/services/data/v%s/%s", c.instanceURL, c.apiVersion, strings.TrimLeft(path, "/"))
}

type queryResult[T any] struct {
	TotalSize      int    `json:"totalSize"`
	Done           bool   `json:"done"`
	NextRecordsURL string `json:"nextRecordsUrl"`
	Records        []T    `json:"records"`
}

// toolingQuery runs a Tooling API query and follows nextRecordsUrl until done.
func toolingQuery[T any](ctx context.Context, c *Connection, soql string) ([]T, error) {
	next := c.dataURL("tooling/query/?q=" + url.QueryEscape(soql))
	var records []T
	for next != "" {
		var page queryResult[T]
		if err := c.client.Get(ctx, next, &page); err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
		if page.Done || page.NextRecordsURL == "" {
			break
		}
		next = c.instanceURL + page.NextRecordsURL
	}
	return records, nil
}

// mapError converts transport errors into coded errors.
func mapError(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	switch {
	case err == nil:
		return nil
	case pkgerrors.GetCode(err) != "":
		return err
	case errors.Is(err, integrations.ErrUnauthorized):
		return pkgerrors.Wrap(pkgerrors.ErrCodeUnauthorized, err, "%s", msg)
	case errors.Is(err, integrations.ErrNotFound):
		return pkgerrors.Wrap(pkgerrors.ErrCodeNotFound, err, "%s", msg)
	case errors.Is(err, integrations.ErrNetwork):
		return pkgerrors.Wrap(pkgerrors.ErrCodeNetwork, err, "%s", msg)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
