// Package bootstrap implements the self-bootstrapper (C7): the hand-
// verified install sequence used when the metadata extractor or the
// build-backend hook library is itself missing from the runtime.
// Grounded on ipi/bootstrap/{itself,packaging,tiers,utils}.py.
package bootstrap

import "github.com/petwheel/petwheel/engine"

// ScheduleEntry is one step of a topological install schedule: a package
// name and the names of sibling packages (already cloned, not yet
// installed) whose source trees must be visible on the build's import
// path because their own build backend isn't installed yet either.
// Grounded on bootstrapBySequence's (name, extraImportPathNames[]) tuples.
type ScheduleEntry struct {
	Name       engine.PackageName
	ExtraPaths []engine.PackageName
}

// names returns the entry's own name followed by its ExtraPaths, in order.
func (s ScheduleEntry) names() []engine.PackageName { return append([]engine.PackageName{s.Name}, s.ExtraPaths...) }

// EssentialPackages is the foundational pair bootstrapped via the legacy
// imperative path (section 4.7 step 2), before any build-backend hook
// protocol library exists to build anything else. Grounded on
// packaging.py's essentialPackages dict (the "50" values there are
// Python's own installation-order hint to pip; petwheel's schedule is
// already explicit order, so only the names survive).
var EssentialPackages = []engine.PackageName{"setuptools", "wheel"}

// PackagingSchedule is the second tier (section 4.7 step 3): packages
// whose own pyproject.toml already declares a build-backend, built via
// the normal hook protocol with sibling not-yet-installed sources added
// to the build's import path. Grounded on
// bootstrapTheRestPackagingEcosystem's explicit tuple schedule.
var PackagingSchedule = []ScheduleEntry{
	{Name: "tomli", ExtraPaths: []engine.PackageName{"pyproject-hooks", "flit-core"}},
	{Name: "pyparsing", ExtraPaths: []engine.PackageName{"pyproject-hooks", "flit-core", "packaging"}},
	{Name: "packaging", ExtraPaths: []engine.PackageName{"pyproject-hooks", "flit-core"}},
	{Name: "flit-core", ExtraPaths: []engine.PackageName{"packaging", "pyproject-hooks", "tomli"}},
	{Name: "pyproject-hooks", ExtraPaths: []engine.PackageName{"packaging", "flit-core", "tomli"}},
	{Name: "typing-extensions", ExtraPaths: []engine.PackageName{"flit-core"}},
	{Name: "setuptools-scm", ExtraPaths: []engine.PackageName{"typing-extensions"}},
	{Name: "build", ExtraPaths: []engine.PackageName{"packaging", "pyproject-hooks", "tomli"}},
}

// ExtensionBundle is the optional second bundle (section 4.7 step 4):
// hatchling and its own dependency order. Grounded on bootstrapHatchling.
var ExtensionBundle = []ScheduleEntry{
	{Name: "pathspec"},
	{Name: "editables"},
	{Name: "pluggy"},
	{Name: "hatchling", ExtraPaths: []engine.PackageName{"pathspec", "pluggy"}},
}

// allScheduled collects every name PackagingSchedule/ExtensionBundle may
// need cloned, including names only ever referenced as an ExtraPaths
// sibling.
func allScheduled(schedules ...[]ScheduleEntry) []engine.PackageName {
	seen := map[engine.PackageName]bool{}
	var out []engine.PackageName
	for _, schedule := range schedules {
		for _, entry := range schedule {
			for _, n := range entry.names() {
				if !seen[n] {
					seen[n] = true
					out = append(out, n)
				}
			}
		}
	}
	return out
}
