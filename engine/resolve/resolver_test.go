package resolve_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/petwheel/petwheel/engine"
	"github.com/petwheel/petwheel/engine/install"
	"github.com/petwheel/petwheel/engine/resolve"
)

// fixtureFetcher fakes source retrieval: every RegistryEntry's RepoURI
// names a key into fixtures, a ready-made pyproject.toml body written
// straight into targetDir rather than cloned from anywhere, so tests
// exercise the real metadata extractor without touching a network or VCS.
type fixtureFetcher struct {
	fixtures map[string]string
}

func (f *fixtureFetcher) Fetch(ctx context.Context, source engine.SourceDescriptor, targetDir string) error {
	body, ok := f.fixtures[source.RepoURI]
	if !ok {
		return errNotFound(source.RepoURI)
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(targetDir, "pyproject.toml"), []byte(body), 0o644)
}

type notFoundErr string

func (e notFoundErr) Error() string { return "no fixture for " + string(e) }
func errNotFound(name string) error { return notFoundErr(name) }

// buildRegistry maps each name to a git-fetched fixture, except names
// listed in systemNames, which map to a System descriptor instead.
func buildRegistry(names []string, systemNames map[string]bool) engine.Registry {
	reg := engine.NewLeafRegistry("fixtures")
	for _, n := range names {
		canon := engine.Canon(n)
		if systemNames[n] {
			reg.Entries[canon] = engine.RegistryEntry{Name: canon, Source: engine.SourceDescriptor{Type: engine.FetcherSystem}}
			continue
		}
		reg.Entries[canon] = engine.RegistryEntry{Name: canon, Source: engine.SourceDescriptor{Type: engine.FetcherGit, RepoURI: n}}
	}
	return reg
}

func pyproject(name string, buildDeps, deps []string) string {
	body := "[build-system]\nrequires = [" + quoteList(buildDeps) + "]\nbuild-backend = \"setuptools.build_meta\"\n\n"
	body += "[project]\nname = \"" + name + "\"\ndependencies = [" + quoteList(deps) + "]\n"
	return body
}

func quoteList(items []string) string {
	out := ""
	for i, it := range items {
		if i > 0 {
			out += ", "
		}
		out += "\"" + it + "\""
	}
	return out
}

func targetNames(t *testing.T, plan *resolve.InstallPlan, phase resolve.PhaseID) []string {
	t.Helper()
	var out []string
	for _, tgt := range plan.Targets[phase] {
		out = append(out, string(tgt.Name))
	}
	return out
}

func TestResolveLeafPackageNoDeps(t *testing.T) {
	fixtures := map[string]string{
		"leaf": pyproject("leaf", nil, nil),
	}
	reg := buildRegistry([]string{"leaf"}, nil)
	resolver := resolve.NewResolver(reg, &fixtureFetcher{fixtures: fixtures}, install.DefaultScheme(t.TempDir()))

	plan, err := resolver.Run(context.Background(), resolve.DefaultPrefs(), []string{"leaf"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	runtime := targetNames(t, plan, resolve.PhaseRuntime)
	if len(runtime) != 1 || runtime[0] != "leaf" {
		t.Errorf("runtime targets = %v, want [leaf]", runtime)
	}
	if len(plan.Targets[resolve.PhaseBuild]) != 0 {
		t.Errorf("expected no build targets, got %v", plan.Targets[resolve.PhaseBuild])
	}
}

func TestResolveTransitiveRuntimeChain(t *testing.T) {
	fixtures := map[string]string{
		"top":  pyproject("top", nil, []string{"mid"}),
		"mid":  pyproject("mid", nil, []string{"leaf"}),
		"leaf": pyproject("leaf", nil, nil),
	}
	reg := buildRegistry([]string{"top", "mid", "leaf"}, nil)
	resolver := resolve.NewResolver(reg, &fixtureFetcher{fixtures: fixtures}, install.DefaultScheme(t.TempDir()))

	plan, err := resolver.Run(context.Background(), resolve.DefaultPrefs(), []string{"top"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	runtime := targetNames(t, plan, resolve.PhaseRuntime)
	want := []string{"top", "mid", "leaf"}
	if len(runtime) != len(want) {
		t.Fatalf("runtime targets = %v, want %v", runtime, want)
	}
	for i := range want {
		if runtime[i] != want[i] {
			t.Errorf("discovery order[%d] = %q, want %q (full: %v)", i, runtime[i], want[i], runtime)
		}
	}
}

func TestResolveBuildRuntimeMigration(t *testing.T) {
	// "pkgA" depends on "shared" at runtime; "pkgB" depends on "shared" as
	// a build tool, in the same round. Invariant: "shared" ends up solely
	// in the build phase's plan, not duplicated into runtime too.
	fixtures := map[string]string{
		"pkgA":   pyproject("pkgA", nil, []string{"shared"}),
		"pkgB":   pyproject("pkgB", []string{"shared"}, nil),
		"shared": pyproject("shared", nil, nil),
	}
	reg := buildRegistry([]string{"pkgA", "pkgB", "shared"}, nil)
	resolver := resolve.NewResolver(reg, &fixtureFetcher{fixtures: fixtures}, install.DefaultScheme(t.TempDir()))

	plan, err := resolver.Run(context.Background(), resolve.DefaultPrefs(), []string{"pkgA", "pkgB"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	build := targetNames(t, plan, resolve.PhaseBuild)
	runtime := targetNames(t, plan, resolve.PhaseRuntime)

	if !contains(build, "shared") {
		t.Errorf("expected shared in the build phase, build targets = %v", build)
	}
	if contains(runtime, "shared") {
		t.Errorf("expected shared NOT in the runtime phase once claimed by build, runtime targets = %v", runtime)
	}
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}

func TestResolveUpgradeGatedSkipsAlreadyInstalled(t *testing.T) {
	fixtures := map[string]string{
		"top": pyproject("top", nil, []string{"already-there"}),
	}
	reg := buildRegistry([]string{"top", "already-there"}, nil)
	root := t.TempDir()
	scheme := install.DefaultScheme(root)
	if err := os.MkdirAll(filepath.Join(scheme.Purelib, "already-there-1.0.0.dist-info"), 0o755); err != nil {
		t.Fatalf("seeding installed dir: %v", err)
	}

	resolver := resolve.NewResolver(reg, &fixtureFetcher{fixtures: fixtures}, scheme)
	plan, err := resolver.Run(context.Background(), resolve.Prefs{ResolveDeps: true}, []string{"top"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	runtime := targetNames(t, plan, resolve.PhaseRuntime)
	if contains(runtime, "already-there") {
		t.Errorf("expected already-installed dep to be skipped without --upgrade, runtime targets = %v", runtime)
	}
	if !contains(runtime, "top") {
		t.Errorf("expected top itself to still be resolved, runtime targets = %v", runtime)
	}
}

func TestResolveUpgradeForcesReinstallOfPresentDep(t *testing.T) {
	fixtures := map[string]string{
		"top": pyproject("top", nil, []string{"already-there"}),
		"already-there": pyproject("already-there", nil, nil),
	}
	reg := buildRegistry([]string{"top", "already-there"}, nil)
	root := t.TempDir()
	scheme := install.DefaultScheme(root)
	if err := os.MkdirAll(filepath.Join(scheme.Purelib, "already-there-1.0.0.dist-info"), 0o755); err != nil {
		t.Fatalf("seeding installed dir: %v", err)
	}

	resolver := resolve.NewResolver(reg, &fixtureFetcher{fixtures: fixtures}, scheme)
	plan, err := resolver.Run(context.Background(), resolve.Prefs{ResolveDeps: true, Upgrade: true}, []string{"top"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	runtime := targetNames(t, plan, resolve.PhaseRuntime)
	if !contains(runtime, "already-there") {
		t.Errorf("expected --upgrade to re-resolve an already-installed dep, runtime targets = %v", runtime)
	}
}

func TestResolveSystemFetcherDepIsIgnoredNotFetched(t *testing.T) {
	fixtures := map[string]string{
		"top": pyproject("top", nil, []string{"stdlib-ish"}),
	}
	reg := buildRegistry([]string{"top", "stdlib-ish"}, map[string]bool{"stdlib-ish": true})
	resolver := resolve.NewResolver(reg, &fixtureFetcher{fixtures: fixtures}, install.DefaultScheme(t.TempDir()))

	plan, err := resolver.Run(context.Background(), resolve.DefaultPrefs(), []string{"top"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	runtime := targetNames(t, plan, resolve.PhaseRuntime)
	if contains(runtime, "stdlib-ish") {
		t.Errorf("expected a system-sourced dep never to become an install target, runtime targets = %v", runtime)
	}
	if !contains(runtime, "top") {
		t.Errorf("expected top to still resolve, runtime targets = %v", runtime)
	}
}

func TestResolveMarkerSkipsInapplicableDep(t *testing.T) {
	fixtures := map[string]string{
		"top":      pyproject("top", nil, []string{`pywin32; sys_platform == 'win32'`, "requests"}),
		"requests": pyproject("requests", nil, nil),
	}
	reg := buildRegistry([]string{"top", "pywin32", "requests"}, nil)
	resolver := resolve.NewResolver(reg, &fixtureFetcher{fixtures: fixtures}, install.DefaultScheme(t.TempDir()))

	plan, err := resolver.Run(context.Background(), resolve.DefaultPrefs(), []string{"top"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	runtime := targetNames(t, plan, resolve.PhaseRuntime)
	if contains(runtime, "pywin32") {
		t.Errorf("expected the win32-only marker dep to be skipped on the seeded linux environment, runtime targets = %v", runtime)
	}
	if !contains(runtime, "requests") {
		t.Errorf("expected the unconditional sibling dep to still resolve, runtime targets = %v", runtime)
	}
}
