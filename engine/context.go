package engine

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// Home resolves petwheel's on-disk layout: a single root directory holding
// every registry TSV file and the interpreter's own install tree.
// Grounded on golang-dep's Ctx/NewContext, which resolves the supporting
// context (there, a GOPATH) the rest of the tool operates against; petwheel
// has no GOPATH equivalent, so Home resolves PETWHEEL_HOME instead.
type Home struct {
	Root string
}

// DefaultHomeEnvVar is the environment variable petwheel checks before
// falling back to "~/.petwheel".
const DefaultHomeEnvVar = "PETWHEEL_HOME"

// NewHome resolves PETWHEEL_HOME, defaulting to "~/.petwheel" when unset.
func NewHome() (*Home, error) {
	if root := os.Getenv(DefaultHomeEnvVar); root != "" {
		return &Home{Root: root}, nil
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "resolving user home directory")
	}
	return &Home{Root: filepath.Join(dir, ".petwheel")}, nil
}

// RegistriesDir is where registry TSV files live, one file per named
// registry.
func (h *Home) RegistriesDir() string {
	return filepath.Join(h.Root, "registries")
}

// InstallRoot is the interpreter's own install tree, laid out by
// install.DefaultScheme.
func (h *Home) InstallRoot() string {
	return filepath.Join(h.Root, "interpreter")
}

// EnsureLayout creates Root's subdirectories if they don't already exist.
func (h *Home) EnsureLayout() error {
	for _, dir := range []string{h.RegistriesDir(), h.InstallRoot()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "creating %s", dir)
		}
	}
	return nil
}

// LoadRegistries reads every "*.tsv" file under RegistriesDir into a leaf
// registry named after its file stem, and returns them composed into a
// single CompoundRegistry in filename order — the registry precedence a
// "repo list"/"repo add" ordering is expected to respect.
func (h *Home) LoadRegistries() (*CompoundRegistry, error) {
	entries, err := os.ReadDir(h.RegistriesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return NewCompoundRegistry("petwheel"), nil
		}
		return nil, errors.Wrapf(err, "reading %s", h.RegistriesDir())
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".tsv" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var children []Registry
	for _, name := range names {
		f, err := os.Open(filepath.Join(h.RegistriesDir(), name))
		if err != nil {
			return nil, errors.Wrapf(err, "opening registry %s", name)
		}
		regName := name[:len(name)-len(".tsv")]
		leaf, err := FromTSV(f, regName)
		f.Close()
		if err != nil {
			return nil, err
		}
		children = append(children, leaf)
	}
	return NewCompoundRegistry("petwheel", children...), nil
}

// AddRegistry copies the TSV file at srcPath into RegistriesDir under
// name, so it's picked up by the next LoadRegistries call. Grounded on the
// repo subcommand family's "repo add" (SPEC_FULL.md's supplemented
// features).
func (h *Home) AddRegistry(name, srcPath string) error {
	if err := h.EnsureLayout(); err != nil {
		return err
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return errors.Wrapf(err, "reading %s", srcPath)
	}
	dest := filepath.Join(h.RegistriesDir(), name+".tsv")
	return os.WriteFile(dest, data, 0o644)
}

// RemoveRegistry deletes the named registry's TSV file.
func (h *Home) RemoveRegistry(name string) error {
	return os.Remove(filepath.Join(h.RegistriesDir(), name+".tsv"))
}

// ErrNoSignedOverlay is returned by "repo update": the signed-metadata
// overlay that would give the command something to refresh is an
// out-of-scope collaborator (section 1's signed-repo layer), so this is a
// deliberate no-op rather than a missing feature.
var ErrNoSignedOverlay = errors.New("repo update: no signed overlay configured, nothing to refresh")
