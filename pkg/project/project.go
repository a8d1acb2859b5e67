// Package project loads sfdx-project.json files.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	pkgerrors "github.com/simplysf/simply-package/pkg/errors"
)

// FileName is the project configuration file name.
const FileName = "sfdx-project.json"

// Project is a parsed project configuration.
type Project struct {
	// Dir is the directory containing the project file.
	Dir string `json:"-"`

	PackageDirectories []PackageDirectory `json:"packageDirectories"`
	PackageAliases     map[string]string  `json:"packageAliases,omitempty"`
	SourceAPIVersion   string             `json:"sourceApiVersion,omitempty"`
}

// PackageDirectory is one entry of packageDirectories.
type PackageDirectory struct {
	Path          string       `json:"path"`
	Default       bool         `json:"default,omitempty"`
	Package       string       `json:"package,omitempty"`
	VersionNumber string       `json:"versionNumber,omitempty"`
	Dependencies  []Dependency `json:"dependencies,omitempty"`
}

// Dependency is a package directory dependency. Package is an alias or id;
// VersionNumber is set for dependencies resolved through a Dev Hub.
type Dependency struct {
	Package       string `json:"package"`
	VersionNumber string `json:"versionNumber,omitempty"`
	Branch        string `json:"branch,omitempty"`
}

// IsHubResolvable reports whether the dependency names a package and a
// version specifier that must be resolved against a Dev Hub.
func (d Dependency) IsHubResolvable() bool {
	return d.Package != "" && d.VersionNumber != ""
}

// HasDependencies reports whether dir declares at least one dependency.
func HasDependencies(dir PackageDirectory) bool {
	return len(dir.Dependencies) > 0
}

// Find walks up from dir looking for a project file and returns its path.
func Find(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(abs, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", pkgerrors.New(pkgerrors.ErrCodeInvalidProject,
				"this command must be run inside a project (no %s found in %s or any parent directory)", FileName, dir)
		}
		abs = parent
	}
}

// Load parses the project file at path.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidProject, err, "read %s", path)
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidProject, err, "parse %s", path)
	}
	if len(p.PackageDirectories) == 0 {
		return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidProject, "%s declares no packageDirectories", path)
	}
	p.Dir = filepath.Dir(path)
	return &p, nil
}

// Resolve finds and loads the project enclosing dir.
func Resolve(dir string) (*Project, error) {
	path, err := Find(dir)
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// PackageIDFromAlias returns the id an alias points to, or name unchanged
// when it is not an alias.
func (p *Project) PackageIDFromAlias(name string) string {
	if id, ok := p.PackageAliases[name]; ok && id != "" {
		return id
	}
	return name
}

// DirectoriesWithDependencies returns the package directories that declare
// dependencies, in file order.
func (p *Project) DirectoriesWithDependencies() []PackageDirectory {
	var out []PackageDirectory
	for _, d := range p.PackageDirectories {
		if HasDependencies(d) {
			out = append(out, d)
		}
	}
	return out
}

func (d PackageDirectory) String() string {
	if d.Package != "" {
		return fmt.Sprintf("%s (%s)", d.Package, d.Path)
	}
	return d.Path
}
