package bootstrap

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petwheel/petwheel/engine"
	"github.com/petwheel/petwheel/engine/install"
	petlog "github.com/petwheel/petwheel/engine/log"
)

func markInstalled(t *testing.T, scheme install.Scheme, name engine.PackageName) {
	t.Helper()
	dir := filepath.Join(scheme.Purelib, string(name)+"-0.0.0.dist-info")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("markInstalled %s: %v", name, err)
	}
}

func TestMissingEssentialsAllMissing(t *testing.T) {
	b := &Bootstrapper{
		Scheme: install.DefaultScheme(t.TempDir()),
		Log:    petlog.Discard(),
	}
	missing := b.MissingEssentials()
	if len(missing) == 0 {
		t.Fatal("expected every essential package to be reported missing against an empty scheme")
	}
	found := map[engine.PackageName]bool{}
	for _, n := range missing {
		found[n] = true
	}
	for _, want := range EssentialPackages {
		if !found[want] {
			t.Errorf("expected %q to be reported missing", want)
		}
	}
}

func TestMissingEssentialsNoneMissing(t *testing.T) {
	root := t.TempDir()
	scheme := install.DefaultScheme(root)
	for _, name := range append(append([]engine.PackageName{}, EssentialPackages...), allScheduled(PackagingSchedule, ExtensionBundle)...) {
		markInstalled(t, scheme, name)
	}
	b := &Bootstrapper{Scheme: scheme, Log: petlog.Discard()}
	if missing := b.MissingEssentials(); len(missing) != 0 {
		t.Errorf("expected no missing packages, got %v", missing)
	}
}

// writeFixtureWheel builds a minimal, real wheel archive for name so
// installBySchedule's calls into the real install.Reinstaller succeed.
func writeFixtureWheel(t *testing.T, outDir string, name engine.PackageName) string {
	t.Helper()
	path := filepath.Join(outDir, string(name)+"-0.0.0-py3-none-any.whl")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating fixture wheel for %s: %v", name, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	distInfo := string(name) + "-0.0.0.dist-info"
	if w, err := zw.Create(distInfo + "/WHEEL"); err != nil {
		t.Fatalf("creating WHEEL entry: %v", err)
	} else if _, err := w.Write([]byte("Wheel-Version: 1.0\nRoot-Is-Purelib: true\n")); err != nil {
		t.Fatalf("writing WHEEL entry: %v", err)
	}
	if w, err := zw.Create(distInfo + "/RECORD"); err != nil {
		t.Fatalf("creating RECORD entry: %v", err)
	} else if _, err := w.Write([]byte(distInfo + "/WHEEL,,\n" + distInfo + "/RECORD,,\n")); err != nil {
		t.Fatalf("writing RECORD entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing fixture wheel: %v", err)
	}
	return path
}

// fakeBuilder records the extraPythonPath it was called with for each
// package directory, and produces a real fixture wheel so the surrounding
// install machinery has something genuine to unpack.
type fakeBuilder struct {
	t     *testing.T
	calls map[string][]string
}

func newFakeBuilder(t *testing.T) *fakeBuilder {
	return &fakeBuilder{t: t, calls: map[string][]string{}}
}

func (f *fakeBuilder) Build(ctx context.Context, packageDir, outDir string, extraPythonPath []string) (string, error) {
	f.calls[packageDir] = extraPythonPath
	name := packageDir
	if i := strings.LastIndexByte(packageDir, '/'); i >= 0 {
		name = packageDir[i+1:]
	}
	return writeFixtureWheel(f.t, outDir, engine.PackageName(name)), nil
}

func TestInstallBySchedulePrunesAlreadyInstalledSiblings(t *testing.T) {
	root := t.TempDir()
	scheme := install.DefaultScheme(root)
	builder := newFakeBuilder(t)
	b := &Bootstrapper{Scheme: scheme, Builder: builder, Log: petlog.Discard()}

	schedule := []ScheduleEntry{
		{Name: "a"},
		{Name: "b", ExtraPaths: []engine.PackageName{"a"}},
	}
	dirs := map[engine.PackageName]string{
		"a": "/src/a",
		"b": "/src/b",
	}

	if err := b.installBySchedule(context.Background(), schedule, dirs); err != nil {
		t.Fatalf("installBySchedule: %v", err)
	}

	if got := builder.calls["/src/a"]; len(got) != 0 {
		t.Errorf("expected no extra paths for a's build, got %v", got)
	}
	// By the time "b" builds, "a" is already installed, so its ExtraPaths
	// entry for "a" must be pruned rather than appended.
	if got := builder.calls["/src/b"]; len(got) != 0 {
		t.Errorf("expected a's source dir to be pruned from b's extra paths once a is installed, got %v", got)
	}

	for _, name := range []engine.PackageName{"a", "b"} {
		if _, installed := install.InstalledVersion(scheme, name); !installed {
			t.Errorf("expected %q to be installed", name)
		}
	}
}

func TestInstallByScheduleSkipsSiblingWithoutSourceDir(t *testing.T) {
	root := t.TempDir()
	scheme := install.DefaultScheme(root)
	builder := newFakeBuilder(t)
	b := &Bootstrapper{Scheme: scheme, Builder: builder, Log: petlog.Discard()}

	// "b" names "c" as a build-time sibling, but "c" has no entry in dirs
	// (e.g. it was never scheduled for cloning this run) -- it must be
	// silently skipped rather than producing an empty-string extra path.
	schedule := []ScheduleEntry{
		{Name: "b", ExtraPaths: []engine.PackageName{"c"}},
	}
	dirs := map[engine.PackageName]string{"b": "/src/b"}

	if err := b.installBySchedule(context.Background(), schedule, dirs); err != nil {
		t.Fatalf("installBySchedule: %v", err)
	}
	if got := builder.calls["/src/b"]; len(got) != 0 {
		t.Errorf("expected no extra paths when the sibling source dir is unknown, got %v", got)
	}
}
