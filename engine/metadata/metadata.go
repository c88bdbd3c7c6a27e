// Package metadata implements metadata extraction (C3): given a package's
// source tree, discover its declared name, build-time dependencies, and
// runtime dependencies, across the handful of Python packaging declaration
// styles a source-first fetch can land on. Grounded on
// ipi/utils/metadataExtractor.py's extractMetadata dispatch.
package metadata

import (
	"path/filepath"
	"regexp"

	"github.com/pkg/errors"
	"github.com/petwheel/petwheel/engine"
)

// Extracted is the result of extracting metadata from a package directory.
type Extracted struct {
	Name      engine.PackageName
	BuildDeps []engine.Requirement
	Deps      []engine.Requirement
}

// extractor is implemented by each declaration style (PEP 517/621 wrapper,
// setuptools, flit_core, poetry, pdm). A style that genuinely cannot supply
// a property (e.g. flit's declared deps) returns errNotDeclared, unwrapped,
// which Extract treats as "no data," not failure.
type extractor interface {
	getName() (string, error)
	getBuildDeps() ([]string, error)
	getDeps() ([]string, error)
}

// errNotDeclared marks a property a given declaration style does not
// support extracting (e.g. flit_core's runtime deps), distinct from a
// malformed file. Extract treats it as "no data" rather than failure,
// mirroring the Python NotImplementedError handling in
// SetuptoolsMetadataExtractor._getName (falls through to the next style).
var errNotDeclared = errors.New("declaration style does not expose this property")

var validNameRx = regexp.MustCompile(`^[.\w-]+$`)

// Extract dispatches over rootDir's declared packaging metadata: a
// pyproject.toml with both [build-system] and [project] tables; a
// pyproject.toml with [build-system] only, dispatching to a backend-specific
// extractor; or, absent pyproject.toml entirely, a setuptools fallback
// (setup.cfg, then setup.py).
func Extract(rootDir string) (*Extracted, error) {
	tomlPath := filepath.Join(rootDir, "pyproject.toml")
	backendName := "setuptools"

	pyproject, ok, err := loadPyproject(tomlPath)
	if err != nil {
		return nil, &engine.MetadataMalformedError{Path: tomlPath, Cause: err}
	}

	var pep517 *pep517Extractor
	if ok {
		pep517, err = newPEP517Extractor(pyproject)
		if err != nil {
			pep517 = nil // falls back to setuptools, matching fallBackToSetuptools
		} else {
			backendName = pep517.backendName()
		}
	}

	var ext extractor
	if pep517 == nil || pep517.child == nil {
		backend, err := dispatchBackend(backendName, pyproject, rootDir)
		if err != nil {
			return nil, &engine.MetadataMissingError{Path: rootDir}
		}
		ext = backend
	}

	if pep517 != nil {
		if ext != nil {
			pep517.child = ext
		}
		ext = pep517
	}

	if ext == nil {
		return nil, &engine.MetadataMissingError{Path: rootDir}
	}

	name, err := ext.getName()
	if err != nil {
		return nil, errors.Wrapf(err, "extracting name from %s", rootDir)
	}
	if !validNameRx.MatchString(name) {
		return nil, &engine.InvalidNameError{Name: name}
	}

	buildDeps, err := collectDeps(ext.getBuildDeps)
	if err != nil {
		return nil, errors.Wrapf(err, "extracting build deps from %s", rootDir)
	}
	deps, err := collectDeps(ext.getDeps)
	if err != nil {
		return nil, errors.Wrapf(err, "extracting deps from %s", rootDir)
	}

	return &Extracted{
		Name:      engine.Canon(name),
		BuildDeps: buildDeps,
		Deps:      deps,
	}, nil
}

func collectDeps(get func() ([]string, error)) ([]engine.Requirement, error) {
	raw, err := get()
	if errors.Is(err, errNotDeclared) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	reqs := make([]engine.Requirement, 0, len(raw))
	for _, r := range raw {
		reqs = append(reqs, parseRequirement(r))
	}
	return reqs, nil
}
