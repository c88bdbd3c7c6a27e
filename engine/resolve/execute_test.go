package resolve_test

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petwheel/petwheel/engine"
	"github.com/petwheel/petwheel/engine/install"
	"github.com/petwheel/petwheel/engine/resolve"
)

// writeRealFixtureWheel builds a genuine, installable wheel so Execute's
// call into install.Reinstaller.Reinstall succeeds for every target,
// letting the test observe the full build order across both phases.
func writeRealFixtureWheel(t *testing.T, outDir string, name engine.PackageName) string {
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

type recordingBuilder struct {
	t     *testing.T
	built []string
}

func (b *recordingBuilder) Build(ctx context.Context, packageDir, outDir string, extraPythonPath []string) (string, error) {
	b.built = append(b.built, packageDir)
	name := packageDir
	if i := strings.LastIndexByte(packageDir, '/'); i >= 0 {
		name = packageDir[i+1:]
	}
	return writeRealFixtureWheel(b.t, outDir, engine.PackageName(name)), nil
}

func TestExecuteInstallsEachPhaseInReverseDiscoveryOrder(t *testing.T) {
	builder := &recordingBuilder{t: t}
	plan := &resolve.InstallPlan{Targets: map[resolve.PhaseID][]resolve.InstallTarget{
		resolve.PhaseBuild: {
			{Name: "buildtool-a", InstallDir: "/src/buildtool-a"},
			{Name: "buildtool-b", InstallDir: "/src/buildtool-b"},
		},
		resolve.PhaseRuntime: {
			{Name: "top", InstallDir: "/src/top"},
			{Name: "mid", InstallDir: "/src/mid"},
			{Name: "leaf", InstallDir: "/src/leaf"},
		},
	}}

	scheme := install.DefaultScheme(t.TempDir())
	if err := resolve.Execute(context.Background(), plan, builder, scheme); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	want := []string{
		"/src/buildtool-b", "/src/buildtool-a", // build phase, reversed
		"/src/leaf", "/src/mid", "/src/top", // runtime phase, reversed
	}
	if len(builder.built) != len(want) {
		t.Fatalf("built = %v, want %v", builder.built, want)
	}
	for i, w := range want {
		if builder.built[i] != w {
			t.Errorf("built[%d] = %q, want %q (build phase before runtime, reverse discovery order within each)", i, builder.built[i], w)
		}
	}

	for _, name := range []engine.PackageName{"buildtool-a", "buildtool-b", "top", "mid", "leaf"} {
		if _, installed := install.InstalledVersion(scheme, name); !installed {
			t.Errorf("expected %q to be installed after Execute", name)
		}
	}
}
