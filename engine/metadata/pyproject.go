package metadata

import (
	"os"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/petwheel/petwheel/engine"
)

// pyprojectTable mirrors Python's dict-shaped tomllib.load result: petwheel
// decodes into a generic map rather than fixed structs (unlike
// google-oss-rebuild's pyproject.go, which only ever needs a couple of
// known fields) because every declaration style reads a different,
// overlapping slice of [build-system]/[project]/[tool.*].
type pyprojectTable = map[string]any

// loadPyproject reads and decodes rootDir's pyproject.toml. ok is false,
// with no error, when the file simply doesn't exist.
func loadPyproject(path string) (pyprojectTable, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var table pyprojectTable
	if err := toml.Unmarshal(data, &table); err != nil {
		return nil, false, err
	}
	return table, true, nil
}

func subtable(t pyprojectTable, key string) (pyprojectTable, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := t[key]
	if !ok {
		return nil, false
	}
	sub, ok := v.(map[string]any)
	return sub, ok
}

func stringSlice(t pyprojectTable, key string) []string {
	v, ok := t[key]
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, el := range list {
		if s, ok := el.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func stringVal(t pyprojectTable, key string) string {
	v, _ := t[key].(string)
	return v
}

// pep517Extractor wraps the [build-system] table, delegating name/deps to
// child once known (the PEP 621 [project] table, or a backend-specific
// extractor). Grounded on PEP517MetadataExtractor.
type pep517Extractor struct {
	buildSystem pyprojectTable
	child       extractor
}

func newPEP517Extractor(pyproject pyprojectTable) (*pep517Extractor, error) {
	bs, ok := subtable(pyproject, "build-system")
	if !ok {
		return nil, errors.New("PEP 517 metadata is not present")
	}
	e := &pep517Extractor{buildSystem: bs}
	if child, err := newPEP621Extractor(pyproject); err == nil {
		e.child = child
	}
	return e, nil
}

// backendName is the dotted build-backend id's leading module component,
// e.g. "setuptools" out of "setuptools.build_meta", defaulting to
// setuptools when the table omits build-backend entirely.
func (e *pep517Extractor) backendName() string {
	raw := stringVal(e.buildSystem, "build-backend")
	if raw == "" {
		return "setuptools"
	}
	return strings.SplitN(raw, ".", 2)[0]
}

func (e *pep517Extractor) getName() (string, error) { return e.child.getName() }
func (e *pep517Extractor) getDeps() ([]string, error) { return e.child.getDeps() }
func (e *pep517Extractor) getBuildDeps() ([]string, error) {
	return stringSlice(e.buildSystem, "requires"), nil
}

// pep621Extractor wraps the [project] table. It never supplies build deps
// itself (those come only from [build-system]).
type pep621Extractor struct {
	project pyprojectTable
}

func newPEP621Extractor(pyproject pyprojectTable) (*pep621Extractor, error) {
	p, ok := subtable(pyproject, "project")
	if !ok {
		return nil, errors.New("PEP 621 metadata is not present")
	}
	return &pep621Extractor{project: p}, nil
}

func (e *pep621Extractor) getName() (string, error)       { return stringVal(e.project, "name"), nil }
func (e *pep621Extractor) getDeps() ([]string, error)     { return stringSlice(e.project, "dependencies"), nil }
func (e *pep621Extractor) getBuildDeps() ([]string, error) { return nil, errNotDeclared }

// requirementNameRx pulls the distribution name off the front of a PEP 508
// requirement string, stopping at the first version/marker/extra
// delimiter. Petwheel unpins immediately on ingestion (engine.Unpin), so
// the extractor only needs the name, not the full specifier grammar.
var requirementNameRx = regexp.MustCompile(`^\s*([A-Za-z0-9][A-Za-z0-9._-]*)`)

func parseRequirement(raw string) engine.Requirement {
	reqPart, markerExpr := splitMarker(raw)
	m := requirementNameRx.FindStringSubmatch(reqPart)
	name := reqPart
	if m != nil {
		name = m[1]
	}
	req := engine.Requirement{Name: engine.Canon(name)}
	if markerExpr != "" {
		req.Marker = &engine.EnvMarker{Expr: markerExpr, Applies: evalMarker(markerExpr)}
	}
	return engine.Unpin(req)
}
