package install

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

// writeFixtureWheel builds a minimal, real wheel zip for name/version with a
// single purelib module and a RECORD listing it, so Install/Uninstall can be
// exercised against a real archive rather than a stub.
func writeFixtureWheel(t *testing.T, dir, name, version string, rootIsPurelib bool) string {
	t.Helper()
	path := filepath.Join(dir, name+"-"+version+"-py3-none-any.whl")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating fixture wheel: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	moduleName := name + ".py"
	w, err := zw.Create(moduleName)
	if err != nil {
		t.Fatalf("creating module entry: %v", err)
	}
	if _, err := w.Write([]byte("VERSION = " + `"` + version + `"` + "\n")); err != nil {
		t.Fatalf("writing module entry: %v", err)
	}

	distInfo := name + "-" + version + ".dist-info"
	wheelEntry, err := zw.Create(distInfo + "/WHEEL")
	if err != nil {
		t.Fatalf("creating WHEEL entry: %v", err)
	}
	purelibVal := "false"
	if rootIsPurelib {
		purelibVal = "true"
	}
	if _, err := wheelEntry.Write([]byte("Wheel-Version: 1.0\nRoot-Is-Purelib: " + purelibVal + "\n")); err != nil {
		t.Fatalf("writing WHEEL entry: %v", err)
	}

	recordEntry, err := zw.Create(distInfo + "/RECORD")
	if err != nil {
		t.Fatalf("creating RECORD entry: %v", err)
	}
	record := moduleName + ",,\n" + distInfo + "/WHEEL,,\n" + distInfo + "/RECORD,,\n"
	if _, err := recordEntry.Write([]byte(record)); err != nil {
		t.Fatalf("writing RECORD entry: %v", err)
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("closing wheel zip: %v", err)
	}
	return path
}

func TestInstallUnpacksPurelibPayload(t *testing.T) {
	root := t.TempDir()
	scheme := DefaultScheme(root)
	wheelDir := t.TempDir()
	wheelPath := writeFixtureWheel(t, wheelDir, "widget", "1.0.0", true)

	if err := Install(wheelPath, scheme); err != nil {
		t.Fatalf("Install: %v", err)
	}

	if _, err := os.Stat(filepath.Join(scheme.Purelib, "widget.py")); err != nil {
		t.Errorf("expected widget.py under purelib: %v", err)
	}
	if _, err := os.Stat(filepath.Join(scheme.Purelib, "widget-1.0.0.dist-info", "RECORD")); err != nil {
		t.Errorf("expected RECORD under dist-info: %v", err)
	}

	version, installed := InstalledVersion(scheme, "widget")
	if !installed || version != "1.0.0" {
		t.Errorf("InstalledVersion after install = (%q, %v), want (1.0.0, true)", version, installed)
	}
}

func TestUninstallRemovesRecordedPaths(t *testing.T) {
	root := t.TempDir()
	scheme := DefaultScheme(root)
	wheelDir := t.TempDir()
	wheelPath := writeFixtureWheel(t, wheelDir, "widget", "1.0.0", true)

	if err := Install(wheelPath, scheme); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if err := Uninstall("widget", scheme); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}

	if _, err := os.Stat(filepath.Join(scheme.Purelib, "widget.py")); !os.IsNotExist(err) {
		t.Errorf("expected widget.py to be removed, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(scheme.Purelib, "widget-1.0.0.dist-info")); !os.IsNotExist(err) {
		t.Errorf("expected dist-info to be removed, stat err = %v", err)
	}

	_, installed := InstalledVersion(scheme, "widget")
	if installed {
		t.Error("expected widget to be reported not installed after Uninstall")
	}
}

func TestUninstallOfAbsentPackageIsNoop(t *testing.T) {
	root := t.TempDir()
	scheme := DefaultScheme(root)
	if err := Uninstall("never-installed", scheme); err != nil {
		t.Errorf("expected uninstalling an absent package to be a no-op, got %v", err)
	}
}

func TestReinstallerReplacesExistingVersion(t *testing.T) {
	root := t.TempDir()
	scheme := DefaultScheme(root)
	wheelDir := t.TempDir()
	reinstaller := Reinstaller{Scheme: scheme}

	oldWheel := writeFixtureWheel(t, wheelDir, "widget", "1.0.0", true)
	if err := reinstaller.InstallOnly(oldWheel); err != nil {
		t.Fatalf("InstallOnly: %v", err)
	}

	newWheel := writeFixtureWheel(t, wheelDir, "widget", "2.0.0", true)
	if err := reinstaller.Reinstall(newWheel); err != nil {
		t.Fatalf("Reinstall: %v", err)
	}

	version, installed := InstalledVersion(scheme, "widget")
	if !installed || version != "2.0.0" {
		t.Errorf("InstalledVersion after reinstall = (%q, %v), want (2.0.0, true)", version, installed)
	}
	if _, err := os.Stat(filepath.Join(scheme.Purelib, "widget-1.0.0.dist-info")); !os.IsNotExist(err) {
		t.Error("expected the old dist-info to be removed by Reinstall")
	}
}
