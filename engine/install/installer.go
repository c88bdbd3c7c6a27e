package install

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	flock "github.com/theckman/go-flock"
	"github.com/petwheel/petwheel/engine"
	"github.com/pkg/errors"
)

// lockFileName is created under the scheme's Data root and held for the
// duration of an install/uninstall, so two petwheel processes never
// unpack into the same site-packages concurrently. Grounded on the
// general shared-install-directory concern spec.md's "Shared resources"
// section calls out; golang-dep itself has no direct analogue since it
// never mutates a shared install tree, so this is modeled directly on
// go-flock's own advisory-lock idiom.
const lockFileName = ".petwheel.install.lock"

// Install unpacks wheelPath into scheme, routing purelib/platlib payload
// by Root-Is-Purelib and "{name}-{version}.data/<category>" directories
// by their declared category. It extracts to a temporary staging
// directory first and moves categorized subtrees into place with
// shutil.CopyTree, mirroring how distlib/installer stages files before
// they're linked into their final scheme destination.
func Install(wheelPath string, scheme Scheme) error {
	info, err := ReadInfo(wheelPath)
	if err != nil {
		return &engine.InstallFailedError{Wheel: wheelPath, Cause: err}
	}

	lk := flock.NewFlock(filepath.Join(scheme.Data, lockFileName))
	if err := os.MkdirAll(scheme.Data, 0o755); err != nil {
		return &engine.InstallFailedError{Wheel: wheelPath, Cause: err}
	}
	if err := lk.Lock(); err != nil {
		return &engine.InstallFailedError{Wheel: wheelPath, Cause: errors.Wrap(err, "acquiring install lock")}
	}
	defer lk.Unlock()

	stagingDir, err := os.MkdirTemp("", "petwheel-install-*")
	if err != nil {
		return &engine.InstallFailedError{Wheel: wheelPath, Cause: err}
	}
	defer os.RemoveAll(stagingDir)

	if err := extractZip(wheelPath, stagingDir); err != nil {
		return &engine.InstallFailedError{Wheel: wheelPath, Cause: err}
	}

	dataDirPrefix := string(info.Name) + "-" + info.Version + ".data"
	mainDest := scheme.Platlib
	if info.RootIsPurelib {
		mainDest = scheme.Purelib
	}

	if err := os.MkdirAll(mainDest, 0o755); err != nil {
		return &engine.InstallFailedError{Wheel: wheelPath, Cause: err}
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		return &engine.InstallFailedError{Wheel: wheelPath, Cause: err}
	}
	for _, entry := range entries {
		src := filepath.Join(stagingDir, entry.Name())
		if entry.Name() == dataDirPrefix && entry.IsDir() {
			if err := installDataDir(src, scheme); err != nil {
				return &engine.InstallFailedError{Wheel: wheelPath, Cause: err}
			}
			continue
		}
		dst := filepath.Join(mainDest, entry.Name())
		if err := copyTree(src, dst); err != nil {
			return &engine.InstallFailedError{Wheel: wheelPath, Cause: err}
		}
	}
	return nil
}

// installDataDir routes each "{name}-{version}.data/<category>"
// subdirectory to its scheme destination.
func installDataDir(dataDir string, scheme Scheme) error {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dest, ok := scheme.destFor(entry.Name())
		if !ok {
			continue // unknown category: skip rather than fail the install
		}
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return err
		}
		src := filepath.Join(dataDir, entry.Name())
		subEntries, err := os.ReadDir(src)
		if err != nil {
			return err
		}
		for _, sub := range subEntries {
			if err := copyTree(filepath.Join(src, sub.Name()), filepath.Join(dest, sub.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

// Uninstall removes a previously-installed distribution's purelib/platlib
// payload by scanning for its dist-info directory and the RECORD entries
// it lists. Grounded on UnInstallerUnInstaller's per-scheme uninstaller
// pair, simplified since petwheel owns a single self-contained scheme
// rather than needing separate purelib/platlib uninstallers.
func Uninstall(name engine.PackageName, scheme Scheme) error {
	lk := flock.NewFlock(filepath.Join(scheme.Data, lockFileName))
	if err := lk.Lock(); err != nil {
		return &engine.UninstallFailedError{Name: name, Cause: errors.Wrap(err, "acquiring install lock")}
	}
	defer lk.Unlock()

	distInfo, err := findDistInfo(scheme.Purelib, name)
	if err != nil {
		return &engine.UninstallFailedError{Name: name, Cause: err}
	}
	if distInfo == "" {
		return nil // not installed: nothing to do
	}

	record := filepath.Join(distInfo, "RECORD")
	paths, err := readRecord(record)
	if err != nil {
		return &engine.UninstallFailedError{Name: name, Cause: err}
	}
	for _, p := range paths {
		full := filepath.Join(scheme.Purelib, p)
		if err := os.RemoveAll(full); err != nil && !os.IsNotExist(err) {
			return &engine.UninstallFailedError{Name: name, Cause: err}
		}
	}
	return os.RemoveAll(distInfo)
}

func findDistInfo(purelib string, name engine.PackageName) (string, error) {
	entries, err := os.ReadDir(purelib)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	prefix := string(name) + "-"
	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), ".dist-info") {
			continue
		}
		if strings.HasPrefix(strings.ToLower(e.Name()), strings.ToLower(prefix)) {
			return filepath.Join(purelib, e.Name()), nil
		}
	}
	return "", nil
}

func readRecord(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var paths []string
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		p := strings.SplitN(line, ",", 2)[0]
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

func extractZip(src, destDir string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()
	for _, f := range r.File {
		dest := filepath.Join(destDir, f.Name)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := extractZipFile(f, dest); err != nil {
			return err
		}
	}
	return nil
}

func extractZipFile(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, rc)
	return err
}
