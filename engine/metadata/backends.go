package metadata

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// dispatchBackend builds the backend-specific extractor named by
// backendName, mirroring toolSpecificExtractors. pyproject may be nil
// (no pyproject.toml at all), in which case only "setuptools" is valid.
func dispatchBackend(backendName string, pyproject pyprojectTable, rootDir string) (extractor, error) {
	switch backendName {
	case "setuptools":
		return newSetuptoolsExtractor(rootDir)
	case "flit_core":
		return newFlitExtractor(pyproject)
	case "poetry":
		return newPoetryExtractor(pyproject)
	case "pdm":
		return newPDMExtractor(pyproject)
	default:
		// Unknown backend declared; setuptools is the fallback of last
		// resort, matching extractMetadata's fallBackToSetuptools path.
		return newSetuptoolsExtractor(rootDir)
	}
}

// flitExtractor reads [tool.flit.metadata]. Grounded on
// FlitMetadataExtractor: name only, build/runtime deps are not
// implemented by the original either.
type flitExtractor struct {
	metadata pyprojectTable
}

func newFlitExtractor(pyproject pyprojectTable) (*flitExtractor, error) {
	tool, _ := subtable(pyproject, "tool")
	flit, ok := subtable(tool, "flit")
	if !ok {
		return nil, errors.New("flit metadata is not present")
	}
	metadata, _ := subtable(flit, "metadata")
	return &flitExtractor{metadata: metadata}, nil
}

func (e *flitExtractor) getName() (string, error) {
	if name := stringVal(e.metadata, "dist-name"); name != "" {
		return name, nil
	}
	if name := stringVal(e.metadata, "module"); name != "" {
		return name, nil
	}
	return "", errors.New("flit metadata has no dist-name or module")
}
func (e *flitExtractor) getBuildDeps() ([]string, error) { return nil, errNotDeclared }
func (e *flitExtractor) getDeps() ([]string, error)      { return nil, errNotDeclared }

// poetryExtractor reads [tool.poetry]. Grounded on PoetryMetadataExtractor:
// name and deps (minus the implicit "python" pseudo-dependency); build
// deps are not implemented by the original either, since they come from
// [build-system].requires for every poetry project.
type poetryExtractor struct {
	table pyprojectTable
}

func newPoetryExtractor(pyproject pyprojectTable) (*poetryExtractor, error) {
	tool, _ := subtable(pyproject, "tool")
	poetry, ok := subtable(tool, "poetry")
	if !ok {
		return nil, errors.New("poetry metadata is not present")
	}
	return &poetryExtractor{table: poetry}, nil
}

func (e *poetryExtractor) getName() (string, error) {
	name := stringVal(e.table, "name")
	if name == "" {
		return "", errors.New("poetry metadata has no name")
	}
	return name, nil
}
func (e *poetryExtractor) getBuildDeps() ([]string, error) { return nil, errNotDeclared }

func (e *poetryExtractor) getDeps() ([]string, error) {
	deps, ok := subtable(e.table, "dependencies")
	if !ok {
		return nil, nil
	}
	names := make([]string, 0, len(deps))
	for k := range deps {
		if k == "python" {
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

// pdmExtractor reads [tool.pdm]. Grounded on PDMMetadataExtractor, whose
// _getName references an undefined module-level `pdm` (a bug in the
// original); petwheel reads the name off the extractor's own table
// instead, since that's clearly the intent.
type pdmExtractor struct {
	table pyprojectTable
}

func newPDMExtractor(pyproject pyprojectTable) (*pdmExtractor, error) {
	tool, _ := subtable(pyproject, "tool")
	pdm, ok := subtable(tool, "pdm")
	if !ok {
		return nil, errors.New("pdm metadata is not present")
	}
	return &pdmExtractor{table: pdm}, nil
}

func (e *pdmExtractor) getName() (string, error) {
	name := stringVal(e.table, "name")
	if name == "" {
		return "", errors.New("pdm metadata has no name")
	}
	return name, nil
}
func (e *pdmExtractor) getBuildDeps() ([]string, error) { return nil, errNotDeclared }
func (e *pdmExtractor) getDeps() ([]string, error)      { return nil, errNotDeclared }

// setuptoolsExtractor tries setup.cfg first, then setup.py, preferring
// whichever supplies a non-empty answer. Grounded on
// SetuptoolsMetadataExtractor.
type setuptoolsExtractor struct {
	cfg *setupCfgExtractor
	py  *setupPyExtractor
}

func newSetuptoolsExtractor(rootDir string) (*setuptoolsExtractor, error) {
	cfgPath := filepath.Join(rootDir, "setup.cfg")
	pyPath := filepath.Join(rootDir, "setup.py")

	_, cfgErr := os.Stat(cfgPath)
	_, pyErr := os.Stat(pyPath)
	if os.IsNotExist(cfgErr) && os.IsNotExist(pyErr) {
		return nil, errors.New("setuptools metadata is not present")
	}

	e := &setuptoolsExtractor{}
	if cfgErr == nil {
		cfg, err := newSetupCfgExtractor(cfgPath)
		if err != nil {
			return nil, err
		}
		e.cfg = cfg
	}
	if pyErr == nil {
		py, err := newSetupPyExtractor(pyPath)
		if err != nil {
			return nil, err
		}
		e.py = py
	}
	return e, nil
}

func (e *setuptoolsExtractor) getName() (string, error) {
	if e.cfg != nil {
		if name, err := e.cfg.getName(); err == nil && name != "" {
			return name, nil
		}
	}
	if e.py != nil {
		return e.py.getName()
	}
	return "", errors.New("neither setup.cfg nor setup.py declared a name")
}

func (e *setuptoolsExtractor) getBuildDeps() ([]string, error) {
	return e.firstNonEmpty(func(x extractor) ([]string, error) { return x.getBuildDeps() })
}

func (e *setuptoolsExtractor) getDeps() ([]string, error) {
	return e.firstNonEmpty(func(x extractor) ([]string, error) { return x.getDeps() })
}

func (e *setuptoolsExtractor) firstNonEmpty(get func(extractor) ([]string, error)) ([]string, error) {
	if e.cfg != nil {
		if res, err := get(e.cfg); err == nil && len(res) > 0 {
			return res, nil
		}
	}
	if e.py != nil {
		return get(e.py)
	}
	return nil, nil
}
