package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"

	"github.com/pkg/errors"
	"github.com/petwheel/petwheel/engine"
	"github.com/petwheel/petwheel/engine/install"
	petlog "github.com/petwheel/petwheel/engine/log"
	"github.com/petwheel/petwheel/engine/resolve"
	"github.com/petwheel/petwheel/engine/wheel"
)

// WheelBuilder is the build collaborator this package consumes; satisfied
// by *wheel.Builder. Mirrors resolve.WheelBuilder's narrowing for the same
// reason: bootstrap and resolve both avoid importing engine/wheel just to
// name a method signature.
type WheelBuilder interface {
	Build(ctx context.Context, packageDir, outDir string, extraPythonPath []string) (string, error)
}

// Bootstrapper drives the ordered install sequence of section 4.7.
// Grounded on ItselfBootstrapper, with its reload/unload dance (Python's
// runtime module reloading, section 9's first design note) replaced by
// nothing at all: every stage here runs in this same process, reading
// only from the filesystem (the install scheme) between stages, so there
// is no in-process module cache to invalidate.
type Bootstrapper struct {
	Registry engine.Registry
	Fetcher  resolve.SourceFetcher
	Builder  WheelBuilder
	Scheme   install.Scheme
	Log      *petlog.Logger
}

// MissingEssentials reports which of the bootstrap-critical packages are
// not yet present under b.Scheme, in the fixed order they're checked in
// by getMissingPackagingPackages: the legacy-path pair, the hook-protocol
// tier, and the extension bundle.
func (b *Bootstrapper) MissingEssentials() []engine.PackageName {
	var missing []engine.PackageName
	for _, name := range append(append([]engine.PackageName{}, EssentialPackages...), allScheduled(PackagingSchedule, ExtensionBundle)...) {
		if _, ok := install.InstalledVersion(b.Scheme, name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// BootstrapPackaging runs section 4.7 steps 1-4: clone and install the
// foundational pair via the legacy imperative path, then the hook-protocol
// tier, then the extension bundle. Grounded on bootstrapPythonPackaging.
func (b *Bootstrapper) BootstrapPackaging(ctx context.Context) error {
	tempDir, err := os.MkdirTemp("", "petwheel-bootstrap-*")
	if err != nil {
		return errors.Wrap(err, "creating bootstrap temp dir")
	}
	defer os.RemoveAll(tempDir)

	b.Log.LogPipelinefln("cloning essential packages: %v", EssentialPackages)
	essentialDirs, err := b.clonePackages(ctx, tempDir, EssentialPackages)
	if err != nil {
		return err
	}
	for _, name := range EssentialPackages {
		if err := b.legacyBuildAndInstall(ctx, essentialDirs[name], nil); err != nil {
			return errors.Wrapf(err, "bootstrapping %s via the legacy imperative path", name)
		}
	}

	rest := allScheduled(PackagingSchedule, ExtensionBundle)
	b.Log.LogPipelinefln("cloning the rest of the packaging ecosystem: %v", rest)
	restDirs, err := b.clonePackages(ctx, tempDir, rest)
	if err != nil {
		return err
	}

	if err := b.installBySchedule(ctx, PackagingSchedule, restDirs); err != nil {
		return err
	}
	return b.installBySchedule(ctx, ExtensionBundle, restDirs)
}

// Self re-invokes the resolver with upgrade=true to install selfName into
// the runtime (section 4.7 step 5), refusing to proceed if the packaging
// system BootstrapPackaging installs isn't present yet. Grounded on
// ItselfBootstrapper.__call__'s bootstrapPackagingIfNeeded precondition
// check, without the reload machinery (see the Bootstrapper doc comment).
func (b *Bootstrapper) Self(ctx context.Context, selfName string) error {
	if missing := b.MissingEssentials(); len(missing) > 0 {
		return &engine.BootstrapPreconditionError{Missing: missing}
	}
	resolver := resolve.NewResolver(b.Registry, b.Fetcher, b.Scheme)
	plan, err := resolver.Run(ctx, resolve.Prefs{ResolveDeps: true, Upgrade: true}, []string{selfName})
	if err != nil {
		return err
	}
	return resolve.Execute(ctx, plan, b.Builder, b.Scheme)
}

// clonePackages fetches each name's registry entry into its own
// subdirectory of tempDir, returning the resulting source directories.
// System-sourced entries are skipped with a warning rather than fetched,
// mirroring the resolver's own fetch-round routing (section 4.6 step 1) —
// the bootstrap schedule names pure-Python packages only, so this branch
// is not expected to fire in practice.
func (b *Bootstrapper) clonePackages(ctx context.Context, tempDir string, names []engine.PackageName) (map[engine.PackageName]string, error) {
	dirs := make(map[engine.PackageName]string, len(names))
	for _, name := range names {
		entry, _, err := b.Registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		if entry.Source.Type == engine.FetcherSystem {
			b.Log.LogPipelinefln("%s is system-provided, skipping clone", name)
			continue
		}
		dir := filepath.Join(tempDir, string(name))
		if err := b.Fetcher.Fetch(ctx, entry.Source, dir); err != nil {
			return nil, err
		}
		if entry.Source.SubDir != "" {
			dir = filepath.Join(dir, entry.Source.SubDir)
		}
		dirs[name] = dir
	}
	return dirs, nil
}

// installBySchedule walks schedule in order, building each entry with its
// still-uninstalled siblings' source directories appended to the build's
// import path, and installing the result. Grounded on bootstrapBySequence,
// whose alreadyInstalled set prunes a schedule entry's ExtraPaths list of
// names that have since become real installed packages rather than bare
// source trees borrowed for the build.
func (b *Bootstrapper) installBySchedule(ctx context.Context, schedule []ScheduleEntry, dirs map[engine.PackageName]string) error {
	alreadyInstalled := map[engine.PackageName]bool{}
	reinstaller := install.Reinstaller{Scheme: b.Scheme}

	for _, entry := range schedule {
		b.Log.LogPipelinefln("installing %s", entry.Name)
		var extraPaths []string
		for _, sib := range entry.ExtraPaths {
			if alreadyInstalled[sib] {
				continue
			}
			if dir, ok := dirs[sib]; ok {
				extraPaths = append(extraPaths, dir)
			}
		}

		outDir, err := os.MkdirTemp("", "petwheel-bootstrap-build-*")
		if err != nil {
			return err
		}
		wheelPath, err := b.Builder.Build(ctx, dirs[entry.Name], outDir, extraPaths)
		if err != nil {
			os.RemoveAll(outDir)
			return errors.Wrapf(err, "building %s", entry.Name)
		}
		err = reinstaller.InstallOnly(wheelPath)
		os.RemoveAll(outDir)
		if err != nil {
			return err
		}
		alreadyInstalled[entry.Name] = true
	}
	return nil
}

// installRequiresRx strips a setup.cfg's install_requires declaration
// before the legacy-path build, so the foundational pair never tries to
// pull in its own install-time dependencies through a package manager
// that doesn't exist yet. Grounded on fixSetupCfgForWheel's
// re.subn("^install_requires.+$", ...).
var installRequiresRx = regexp.MustCompile(`(?m)^install_requires.*$`)

// legacyBuildAndInstall drives the pre-hook-protocol path (section 4.7
// step 2): elide install-time deps from setup.cfg if present, then run
// "setup.py bdist_wheel" directly rather than through the build-backend
// hook protocol, since the hook-calling library itself is one of the
// things being bootstrapped. Grounded on bootstrapSetuptoolsAndPip's
// roughWheel/installSetuptools sequence, collapsed to one pass per
// package instead of the original's separate "rough" and "final" wheel
// builds for wheel's own package (that two-pass dance exists there to
// work around wheel needing itself to build itself in-process; building
// directly via subprocess here doesn't have that bootstrapping loop).
func (b *Bootstrapper) legacyBuildAndInstall(ctx context.Context, dir string, extraPythonPath []string) error {
	cfgPath := filepath.Join(dir, "setup.cfg")
	if data, err := os.ReadFile(cfgPath); err == nil {
		rewritten := installRequiresRx.ReplaceAll(data, nil)
		if err := os.WriteFile(cfgPath, rewritten, 0o644); err != nil {
			return errors.Wrapf(err, "rewriting %s", cfgPath)
		}
	}

	var runErr error
	err := wheel.WithPythonPathEnv(extraPythonPath, func() error {
		cmd := exec.CommandContext(ctx, "python3", "setup.py", "bdist_wheel")
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		if err != nil {
			runErr = &engine.BuildFailedError{PackageDir: dir, Output: string(out)}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	wheelPath, err := findSingleWheel(filepath.Join(dir, "dist"))
	if err != nil {
		return err
	}
	return install.Reinstaller{Scheme: b.Scheme}.InstallOnly(wheelPath)
}

func findSingleWheel(distDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(distDir, "*.whl"))
	if err != nil {
		return "", err
	}
	if len(matches) != 1 {
		return "", &engine.BuildFailedError{PackageDir: distDir, Output: fmt.Sprintf("expected exactly one wheel, found %v", matches)}
	}
	return matches[0], nil
}
