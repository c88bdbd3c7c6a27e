// Package resolve implements the worklist resolver (C6): a bounded,
// round-based fixed point over build-time and run-time dependencies that
// fetches, extracts metadata from, and schedules packages for install.
// Grounded on original_source/ipi/resolver.py's ResolutionRound /
// ResolutionSubRound / PackageFetcher.
package resolve

import "github.com/petwheel/petwheel/engine"

// Prefs carries the user-facing resolution policy knobs (section 4.4):
// whether to re-resolve a package's own runtime deps, and the two
// reinstall escalation flags. Grounded on resolver.py's ResolutionPrefs.
type Prefs struct {
	// ResolveDeps, when false, limits expansion to build-time deps only
	// (a leaf runtime package's own deps are not walked).
	ResolveDeps bool
	// Upgrade forces reinstallation even when some version is already
	// present, without touching ForceReinstall.
	Upgrade bool
	// ForceReinstall forces reinstallation unconditionally, and is reset
	// to false whenever build-time deps are checked (Build's PatchPrefs),
	// so build tools are never force-reinstalled transitively.
	ForceReinstall bool
}

// DefaultPrefs returns the defaults ResolutionPrefs() itself defaults to:
// resolve a package's own runtime deps, neither upgrade nor force
// reinstall anything already present.
func DefaultPrefs() Prefs {
	return Prefs{ResolveDeps: true}
}

// PhaseID orders the two dependency phases. Build is always resolved and
// installed before Runtime, mirroring DepsKindID's iteration order in the
// original (build before pkgs).
type PhaseID int

const (
	PhaseBuild PhaseID = iota
	PhaseRuntime
)

func (p PhaseID) String() string {
	if p == PhaseBuild {
		return "build tool"
	}
	return "package"
}

// phaseOrder fixes the iteration order used throughout: build, then
// runtime. Every loop over phases uses this slice so the ordering stays
// in one place.
var phaseOrder = []PhaseID{PhaseBuild, PhaseRuntime}

// Kind describes one phase's behavior: which half of a package's metadata
// it draws deps from, whether a dependency already owned by the other
// phase should migrate into this one, and how this phase patches the
// prefs it hands to its own appendNewDeps call. Grounded on resolver.py's
// DEPS_KINDS table (buildDepsKind / pkgsDepsKind).
type Kind struct {
	ID PhaseID
	// GetDeps pulls this phase's half of a package's already-extracted
	// metadata: BuildDeps for Build, Deps (gated on prefs.ResolveDeps)
	// for Runtime.
	GetDeps func(prefs Prefs, md *metadataDeps) []engine.Requirement
	// MoveToThis reports whether a dependency discovered already being
	// processed by the other phase should migrate into this phase's
	// collection instead of being left where it was found.
	MoveToThis bool
	// PatchPrefs derives this phase's own prefs from the ambient prefs,
	// e.g. Build never propagates ForceReinstall to its own build tools.
	PatchPrefs func(Prefs) Prefs
}

// metadataDeps is the slice of extracted package metadata appendNewDeps
// needs: the two dependency lists of a metadata.Extracted, copied so that
// Kind's signature does not name the metadata package's type.
type metadataDeps struct {
	BuildDeps []engine.Requirement
	Deps      []engine.Requirement
}

var kinds = map[PhaseID]Kind{
	PhaseBuild: {
		ID:         PhaseBuild,
		GetDeps:    func(_ Prefs, md *metadataDeps) []engine.Requirement { return md.BuildDeps },
		MoveToThis: true,
		PatchPrefs: func(p Prefs) Prefs { p.ForceReinstall = false; return p },
	},
	PhaseRuntime: {
		ID: PhaseRuntime,
		GetDeps: func(prefs Prefs, md *metadataDeps) []engine.Requirement {
			if !prefs.ResolveDeps {
				return nil
			}
			return md.Deps
		},
		MoveToThis: false,
		PatchPrefs: func(p Prefs) Prefs { return p },
	},
}

// stage names where in a SubRound's pipeline a package currently sits.
// Only Fetched and Resolved are migratable collections (a ToFetch entry
// hasn't produced an install dir yet, so there is nothing to move);
// that asymmetry is also present in resolver.py's _STAGE_TO_COLLECTION,
// which likewise omits toFetch.
type stage int

const (
	stageNotProcessed stage = iota
	stageFetched
	stageResolved
)

// InstallTarget is one package ready to be built and installed, in the
// order its phase discovered it.
type InstallTarget struct {
	Name      engine.PackageName
	InstallDir string
}

// InstallPlan is the full resolver result: install targets per phase, in
// discovery order within each phase. Callers install Build before Runtime,
// and walk each phase's slice in reverse so a dependency installs no later
// than its first dependent (invariant 2, section 8), the same reversal
// genInstallTargets applies in the original. See engine/resolve/execute.go.
type InstallPlan struct {
	Targets map[PhaseID][]InstallTarget
}
