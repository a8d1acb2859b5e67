package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/simplysf/simply-package/pkg/cleanup"
	"github.com/simplysf/simply-package/pkg/config"
	"github.com/simplysf/simply-package/pkg/dependencies"
	pkgerrors "github.com/simplysf/simply-package/pkg/errors"
)

const (
	testSpvID = "04t000000000001AAA"
	testPkgID = "0Ho000000000001AAA"
	testReqID = "0Hf000000000001AAA"
	apiPath   = "/services/data/v62.0"
)

// fakeOrg serves the subset of the REST API the commands use.
type fakeOrg struct {
	mu          sync.Mutex
	packageType string
	status      string
	installs    []map[string]any
	deprecated  []string
}

func (o *fakeOrg) handler(t *testing.T) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				io.WriteString(w, `[{"message":"Session expired or invalid","errorCode":"INVALID_SESSION_ID"}]`)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Get("/services/data/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"label":"Winter '25","url":"/services/data/v62.0","version":"62.0"}]`)
	})
	r.Get(apiPath+"/tooling/query/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		switch {
		case strings.Contains(q, "FROM InstalledSubscriberPackage"):
			respond(w, map[string]any{"done": true, "records": []any{}})
		case strings.Contains(q, "FROM SubscriberPackageVersion"):
			respond(w, map[string]any{"done": true, "records": []map[string]any{{
				"Id":                       testSpvID,
				"Name":                     "Base",
				"Package2ContainerOptions": o.packageType,
				"InstallValidationStatus":  "NO_ERRORS_DETECTED",
			}}})
		case strings.Contains(q, "FROM Package2Version"):
			respond(w, map[string]any{"done": true, "records": []map[string]any{
				{"Id": "05i000000000001AAA", "Package2Id": testPkgID, "SubscriberPackageVersionId": "04t000000000011AAA", "MajorVersion": 1, "MinorVersion": 2, "PatchVersion": 0, "BuildNumber": 1},
				{"Id": "05i000000000002AAA", "Package2Id": testPkgID, "SubscriberPackageVersionId": "04t000000000012AAA", "MajorVersion": 1, "MinorVersion": 2, "PatchVersion": 0, "BuildNumber": 2, "IsReleased": true},
				{"Id": "05i000000000003AAA", "Package2Id": testPkgID, "SubscriberPackageVersionId": "04t000000000013AAA", "MajorVersion": 1, "MinorVersion": 3, "PatchVersion": 0, "BuildNumber": 1},
			}})
		default:
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `[{"message":"unexpected query","errorCode":"MALFORMED_QUERY"}]`)
		}
	})
	r.Post(apiPath+"/tooling/sobjects/PackageInstallRequest", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		o.mu.Lock()
		o.installs = append(o.installs, body)
		o.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"`+testReqID+`","success":true,"errors":[]}`)
	})
	r.Get(apiPath+"/tooling/sobjects/PackageInstallRequest/{id}", func(w http.ResponseWriter, r *http.Request) {
		rec := map[string]any{
			"Id":                          chi.URLParam(r, "id"),
			"Status":                      o.status,
			"SubscriberPackageVersionKey": testSpvID,
		}
		if o.status == "ERROR" {
			rec["Errors"] = map[string]any{"errors": []map[string]string{{"message": "missing dependency"}}}
		}
		respond(w, rec)
	})
	r.Patch(apiPath+"/tooling/sobjects/Package2Version/{id}", func(w http.ResponseWriter, r *http.Request) {
		o.mu.Lock()
		o.deprecated = append(o.deprecated, chi.URLParam(r, "id"))
		o.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func respond(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// setup starts a fake org, points the environment at it and writes a
// project with one direct dependency.
func setup(t *testing.T, org *fakeOrg) string {
	t.Helper()
	srv := httptest.NewServer(org.handler(t))
	t.Cleanup(srv.Close)

	tmp := t.TempDir()
	t.Setenv(config.EnvConfig, filepath.Join(tmp, "missing.toml"))
	t.Setenv(config.EnvAccessToken, "tok")
	t.Setenv(config.EnvInstanceURL, srv.URL)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmp, "cache"))

	proj := filepath.Join(tmp, "proj")
	require.NoError(t, os.MkdirAll(proj, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(proj, "sfdx-project.json"), []byte(`{
  "packageDirectories": [
    {"path": "force-app", "default": true, "package": "App", "versionNumber": "1.0.0.NEXT",
     "dependencies": [{"package": "Base@1.2.0-1"}]}
  ],
  "packageAliases": {"Base@1.2.0-1": "`+testSpvID+`", "Base": "`+testPkgID+`"}
}`), 0o644))
	return proj
}

// run executes the root command and returns what it wrote to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := New(io.Discard, log.InfoLevel)
	c.stdout = &out

	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInstallCommandJSON(t *testing.T) {
	org := &fakeOrg{packageType: "Managed", status: "SUCCESS"}
	proj := setup(t, org)

	out, err := run(t, "package", "dependencies", "install", "-o", "scratch", "-w", "1", "--json", "--project-dir", proj)
	require.NoError(t, err)

	var items []dependencies.PackageToInstall
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Equal(t, []dependencies.PackageToInstall{{
		PackageName:                "Base@1.2.0-1",
		Status:                     dependencies.StatusInstalled,
		SubscriberPackageVersionID: testSpvID,
	}}, items)

	require.Len(t, org.installs, 1)
	require.Equal(t, testSpvID, org.installs[0]["SubscriberPackageVersionKey"])
	require.Equal(t, "none", org.installs[0]["SecurityType"])
	require.Equal(t, "mixed-mode", org.installs[0]["UpgradeType"])
	_, sent := org.installs[0]["ApexCompileType"]
	require.False(t, sent, "ApexCompileType must be omitted unless --apex-compile is given")
}

func TestInstallCommandTable(t *testing.T) {
	org := &fakeOrg{packageType: "Managed", status: "SUCCESS"}
	proj := setup(t, org)

	out, err := run(t, "package", "dependencies", "install", "-o", "scratch", "-w", "1", "-a", "package", "--project-dir", proj)
	require.NoError(t, err)
	require.Equal(t, "package", org.installs[0]["ApexCompileType"])
	require.Contains(t, out, "Package Dependencies")
	require.Contains(t, out, "SUBSCRIBER PACKAGE VERSION ID")
	require.Contains(t, out, testSpvID)
	require.Contains(t, out, "Installed")
}

func TestInstallCommandFailure(t *testing.T) {
	org := &fakeOrg{packageType: "Managed", status: "ERROR"}
	proj := setup(t, org)

	out, err := run(t, "package", "dependencies", "install", "-o", "scratch", "-w", "1", "--json", "--project-dir", proj)
	require.True(t, pkgerrors.Is(err, pkgerrors.ErrCodeInstallFailed), "err = %v", err)
	require.Contains(t, err.Error(), "1) missing dependency")
	require.Contains(t, out, `"status": "Failed"`)
}

func TestInstallCommandRejectsBadChoice(t *testing.T) {
	_, err := run(t, "package", "dependencies", "install", "-o", "scratch", "-i", "Everything")
	require.True(t, pkgerrors.Is(err, pkgerrors.ErrCodeInvalidInput), "err = %v", err)
	require.Contains(t, err.Error(), "install-type")
}

func TestInstallCommandRequiresTargetOrg(t *testing.T) {
	proj := setup(t, &fakeOrg{})
	_, err := run(t, "package", "dependencies", "install", "--project-dir", proj)
	require.True(t, pkgerrors.Is(err, pkgerrors.ErrCodeInvalidInput), "err = %v", err)
	require.Contains(t, err.Error(), "--target-org")
}

func TestInstallCommandOutsideProject(t *testing.T) {
	setup(t, &fakeOrg{})
	_, err := run(t, "package", "dependencies", "install", "-o", "scratch", "--project-dir", t.TempDir())
	require.True(t, pkgerrors.Is(err, pkgerrors.ErrCodeInvalidProject), "err = %v", err)
}

func TestInstallCommandPromptNeedsTerminal(t *testing.T) {
	orig := isInteractive
	isInteractive = func() bool { return false }
	t.Cleanup(func() { isInteractive = orig })

	org := &fakeOrg{packageType: "Unlocked", status: "SUCCESS"}
	proj := setup(t, org)

	_, err := run(t, "package", "dependencies", "install", "-o", "scratch", "-t", "Delete", "--project-dir", proj)
	require.Error(t, err)
	require.Contains(t, err.Error(), "--no-prompt")
	require.Empty(t, org.installs)

	_, err = run(t, "package", "dependencies", "install", "-o", "scratch", "-t", "Delete", "-r", "-w", "1", "--project-dir", proj)
	require.NoError(t, err)
	require.Len(t, org.installs, 1)
	require.Equal(t, "delete-only", org.installs[0]["UpgradeType"])
}

func TestCleanupCommandJSON(t *testing.T) {
	org := &fakeOrg{}
	proj := setup(t, org)

	out, err := run(t, "package", "version", "cleanup", "-p", "Base", "-s", "1.2.0", "-v", "devhub", "--json", "--project-dir", proj)
	require.NoError(t, err)

	var results []cleanup.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Equal(t, []cleanup.Result{{SubscriberPackageVersionID: "04t000000000011AAA", Success: true}}, results)
	require.Equal(t, []string{"05i000000000001AAA"}, org.deprecated)
}

func TestCleanupCommandTable(t *testing.T) {
	org := &fakeOrg{}
	proj := setup(t, org)

	out, err := run(t, "package", "version", "cleanup", "-p", testPkgID, "-s", "1.3.0", "-v", "devhub", "--project-dir", proj)
	require.NoError(t, err)
	require.Contains(t, out, "Package Version Cleanup Results")
	require.Contains(t, out, "PACKAGE VERSION ID")
	require.Contains(t, out, "04t000000000013AAA")
	require.Contains(t, out, "true")
}

func TestCleanupCommandInvalidMatcher(t *testing.T) {
	_, err := run(t, "package", "version", "cleanup", "-p", testPkgID, "-s", "1.2", "-v", "devhub")
	require.True(t, pkgerrors.Is(err, pkgerrors.ErrCodeInvalidFormat), "err = %v", err)
}

func TestCleanupCommandOutsideProject(t *testing.T) {
	org := &fakeOrg{}
	setup(t, org)

	_, err := run(t, "package", "version", "cleanup", "-p", testPkgID, "-s", "1.2.0", "-v", "devhub", "--project-dir", t.TempDir())
	require.True(t, pkgerrors.Is(err, pkgerrors.ErrCodeInvalidProject), "err = %v", err)
	require.Empty(t, org.deprecated)
}

func TestReportCommand(t *testing.T) {
	tests := []struct {
		status string
		code   pkgerrors.Code
	}{
		{"SUCCESS", ""},
		{"IN_PROGRESS", pkgerrors.ErrCodeInstallInProgress},
		{"ERROR", pkgerrors.ErrCodeInstallFailed},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			setup(t, &fakeOrg{status: tt.status})
			out, err := run(t, "package", "install", "report", "-i", testReqID, "-o", "scratch", "--json")
			if tt.code == "" {
				require.NoError(t, err)
			} else {
				require.True(t, pkgerrors.Is(err, tt.code), "err = %v", err)
			}
			require.Contains(t, out, `"status": "`+tt.status+`"`)
		})
	}
}

func TestCachePathCommand(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	out, err := run(t, "cache", "path")
	require.NoError(t, err)
	require.Equal(t, "/tmp/xdg/simply\n", out)
}

func TestCacheClearCommand(t *testing.T) {
	org := &fakeOrg{packageType: "Managed", status: "SUCCESS"}
	proj := setup(t, org)

	// A connection populates the cache with the org's API versions.
	_, err := run(t, "package", "dependencies", "install", "-o", "scratch", "-w", "1", "--json", "--project-dir", proj)
	require.NoError(t, err)

	dir, err := cacheDir()
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	_, err = run(t, "cache", "clear")
	require.NoError(t, err)
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	dir, err := cacheDir()
	require.NoError(t, err)
	require.Equal(t, "/custom/cache/simply", dir)
}

func TestMinutesLeft(t *testing.T) {
	require.Equal(t, 0, minutesLeft(0))
	require.Equal(t, 1, minutesLeft(30e9))
	require.Equal(t, 30, minutesLeft(30*60e9))
}
