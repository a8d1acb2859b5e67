package salesforce

import (
	"context"
	"fmt"

	pkgerrors "github.com/simplysf/simply-package/pkg/errors"
	"github.com/simplysf/simply-package/pkg/packaging"
)

type installedRecord struct {
	ID                  string `json:"Id"`
	SubscriberPackageID string `json:"SubscriberPackageId"`
	SubscriberPackage   struct {
		Name            string `json:"Name"`
		NamespacePrefix string `json:"NamespacePrefix"`
	} `json:"SubscriberPackage"`
	SubscriberPackageVersion struct {
		ID           string `json:"Id"`
		Name         string `json:"Name"`
		MajorVersion int    `json:"MajorVersion"`
		MinorVersion int    `json:"MinorVersion"`
		PatchVersion int    `json:"PatchVersion"`
		BuildNumber  int    `json:"BuildNumber"`
	} `json:"SubscriberPackageVersion"`
}

const installedQuery = "SELECT Id, SubscriberPackageId, SubscriberPackage.NamespacePrefix, SubscriberPackage.Name, " +
	"SubscriberPackageVersion.Id, SubscriberPackageVersion.Name, SubscriberPackageVersion.MajorVersion, " +
	"SubscriberPackageVersion.MinorVersion, SubscriberPackageVersion.PatchVersion, SubscriberPackageVersion.BuildNumber " +
	"FROM InstalledSubscriberPackage ORDER BY SubscriberPackageId"

// InstalledPackages lists InstalledSubscriberPackage records.
func (c *Connection) InstalledPackages(ctx context.Context) ([]packaging.InstalledPackage, error) {
	records, err := toolingQuery[installedRecord](ctx, c, installedQuery)
	if err != nil {
		return nil, mapError(err, "list installed packages")
	}
	out := make([]packaging.InstalledPackage, 0, len(records))
	for _, r := range records {
		v := r.SubscriberPackageVersion
		out = append(out, packaging.InstalledPackage{
			SubscriberPackageID:        r.SubscriberPackageID,
			SubscriberPackageVersionID: v.ID,
			PackageName:                r.SubscriberPackage.Name,
			VersionNumber:              fmt.Sprintf("%d.%d.%d.%d", v.MajorVersion, v.MinorVersion, v.PatchVersion, v.BuildNumber),
		})
	}
	return out, nil
}

type subscriberVersionRecord struct {
	ID                       string `json:"Id"`
	Name                     string `json:"Name"`
	Package2ContainerOptions string `json:"Package2ContainerOptions"`
	InstallValidationStatus  string `json:"InstallValidationStatus"`
	RemoteSiteSettings       *struct {
		Settings []struct {
			URL string `json:"url"`
		} `json:"settings"`
	} `json:"RemoteSiteSettings"`
	CspTrustedSites *struct {
		Settings []struct {
			EndpointURL string `json:"endpointUrl"`
		} `json:"settings"`
	} `json:"CspTrustedSites"`
}

// SubscriberPackageVersion fetches a SubscriberPackageVersion record.
func (c *Connection) SubscriberPackageVersion(ctx context.Context, id, installationKey string) (*packaging.SubscriberPackageVersion, error) {
	if err := pkgerrors.ValidateRecordID(id); err != nil {
		return nil, err
	}
	soql := "SELECT Id, Name, Package2ContainerOptions, RemoteSiteSettings, CspTrustedSites, InstallValidationStatus " +
		fmt.Sprintf("FROM SubscriberPackageVersion WHERE Id ='%s'", id)
	if installationKey != "" {
		soql += fmt.Sprintf(" AND InstallationKey ='%s'", packaging.EscapeSOQL(installationKey))
	}

	records, err := toolingQuery[subscriberVersionRecord](ctx, c, soql)
	if err != nil {
		return nil, mapError(err, "get package version %s", id)
	}
	if len(records) == 0 {
		return nil, pkgerrors.New(pkgerrors.ErrCodeNotFound,
			"package version %s not found; check the id and installation key", id)
	}

	r := records[0]
	v := &packaging.SubscriberPackageVersion{
		ID:                      r.ID,
		Name:                    r.Name,
		PackageType:             r.Package2ContainerOptions,
		InstallValidationStatus: r.InstallValidationStatus,
	}
	if r.RemoteSiteSettings != nil {
		for _, s := range r.RemoteSiteSettings.Settings {
			v.RemoteSiteURLs = append(v.RemoteSiteURLs, s.URL)
		}
	}
	if r.CspTrustedSites != nil {
		for _, s := range r.CspTrustedSites.Settings {
			v.CSPTrustedSiteURLs = append(v.CSPTrustedSiteURLs, s.EndpointURL)
		}
	}
	return v, nil
}

type saveResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Errors  []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type installRequestRecord struct {
	ID                          string `json:"Id"`
	Status                      string `json:"Status"`
	SubscriberPackageVersionKey string `json:"SubscriberPackageVersionKey"`
	Errors                      *struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"Errors"`
}

func (r installRequestRecord) toRequest() *packaging.InstallRequest {
	req := &packaging.InstallRequest{
		ID:                          r.ID,
		Status:                      r.Status,
		SubscriberPackageVersionKey: r.SubscriberPackageVersionKey,
	}
	if r.Errors != nil {
		for _, e := range r.Errors.Errors {
			req.Errors = append(req.Errors, e.Message)
		}
	}
	return req
}

// CreateInstallRequest submits a PackageInstallRequest and returns its
// initial state.
func (c *Connection) CreateInstallRequest(ctx context.Context, req packaging.InstallCreateRequest) (*packaging.InstallRequest, error) {
	var resp saveResponse
	if err := c.client.Post(ctx, c.dataURL("tooling/sobjects/PackageInstallRequest"), req, &resp); err != nil {
		return nil, mapError(err, "create install request for %s", req.SubscriberPackageVersionKey)
	}
	if !resp.Success || resp.ID == "" {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, pkgerrors.New(pkgerrors.ErrCodeInstallFailed, "install request for %s was rejected: %v", req.SubscriberPackageVersionKey, msgs)
	}
	return c.InstallRequest(ctx, resp.ID)
}

// InstallRequest fetches a PackageInstallRequest by id.
func (c *Connection) InstallRequest(ctx context.Context, id string) (*packaging.InstallRequest, error) {
	if err := pkgerrors.ValidateRecordID(id); err != nil {
		return nil, err
	}
	var r installRequestRecord
	if err := c.client.Get(ctx, c.dataURL("tooling/sobjects/PackageInstallRequest/"+id), &r); err != nil {
		return nil, mapError(err, "get install request %s", id)
	}
	return r.toRequest(), nil
}

type packageVersionRecord struct {
	ID                         string  `json:"Id"`
	Package2ID                 string  `json:"Package2Id"`
	SubscriberPackageVersionID string  `json:"SubscriberPackageVersionId"`
	MajorVersion               int     `json:"MajorVersion"`
	MinorVersion               int     `json:"MinorVersion"`
	PatchVersion               int     `json:"PatchVersion"`
	BuildNumber                int     `json:"BuildNumber"`
	Branch                     *string `json:"Branch"`
	IsReleased                 bool    `json:"IsReleased"`
	IsDeprecated               bool    `json:"IsDeprecated"`
	IsPasswordProtected        bool    `json:"IsPasswordProtected"`
}

func (r packageVersionRecord) toVersion() packaging.PackageVersion {
	v := packaging.PackageVersion{
		ID:                         r.ID,
		Package2ID:                 r.Package2ID,
		SubscriberPackageVersionID: r.SubscriberPackageVersionID,
		Major:                      r.MajorVersion,
		Minor:                      r.MinorVersion,
		Patch:                      r.PatchVersion,
		Build:                      r.BuildNumber,
		IsReleased:                 r.IsReleased,
		IsDeprecated:               r.IsDeprecated,
		IsPasswordProtected:        r.IsPasswordProtected,
	}
	if r.Branch != nil {
		v.Branch = *r.Branch
	}
	return v
}

func toVersions(records []packageVersionRecord) []packaging.PackageVersion {
	out := make([]packaging.PackageVersion, 0, len(records))
	for _, r := range records {
		out = append(out, r.toVersion())
	}
	return out
}

// QueryPackageVersions runs the filter's query against Package2Version.
func (c *Connection) QueryPackageVersions(ctx context.Context, f packaging.VersionFilter) ([]packaging.PackageVersion, error) {
	if err := pkgerrors.ValidateRecordID(f.Package2ID); err != nil {
		return nil, err
	}
	records, err := toolingQuery[packageVersionRecord](ctx, c, f.SOQL())
	if err != nil {
		return nil, mapError(err, "query versions of %s", f.Package2ID)
	}
	return toVersions(records), nil
}

// ListPackageVersions lists the non-deprecated versions of a package.
func (c *Connection) ListPackageVersions(ctx context.Context, packageID string) ([]packaging.PackageVersion, error) {
	if err := pkgerrors.ValidateRecordID(packageID); err != nil {
		return nil, err
	}
	soql := "SELECT Id, Package2Id, SubscriberPackageVersionId, MajorVersion, MinorVersion, PatchVersion, BuildNumber, " +
		"Branch, IsReleased, IsDeprecated, IsPasswordProtected FROM Package2Version " +
		fmt.Sprintf("WHERE Package2Id='%s' AND IsDeprecated = FALSE ", packageID) +
		"ORDER BY MajorVersion, MinorVersion, PatchVersion, BuildNumber"
	records, err := toolingQuery[packageVersionRecord](ctx, c, soql)
	if err != nil {
		return nil, mapError(err, "list versions of %s", packageID)
	}
	return toVersions(records), nil
}

// DeletePackageVersion deletes a package version by marking it deprecated.
func (c *Connection) DeletePackageVersion(ctx context.Context, versionID string) (packaging.SaveResult, error) {
	if !packaging.IsPackageVersionID(versionID) {
		return packaging.SaveResult{}, pkgerrors.New(pkgerrors.ErrCodeInvalidID, "invalid Package2Version id %q", versionID)
	}
	if err := pkgerrors.ValidateRecordID(versionID); err != nil {
		return packaging.SaveResult{}, err
	}
	body := map[string]bool{"IsDeprecated": true}
	if err := c.client.Patch(ctx, c.dataURL("tooling/sobjects/Package2Version/"+versionID), body, nil); err != nil {
		return packaging.SaveResult{ID: versionID}, mapError(err, "delete package version %s", versionID)
	}
	return packaging.SaveResult{ID: versionID, Success: true}, nil
}
