package resolve

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/petwheel/petwheel/engine"
	"github.com/petwheel/petwheel/engine/install"
	"github.com/petwheel/petwheel/engine/metadata"
)

// SubRound tracks one phase's pipeline state within a single round: names
// still to fetch, names fetched but not yet deps-resolved, names fully
// resolved (install dir known), and names the registry says are already
// present on the system. Grounded on resolver.py's ResolutionSubRound.
type SubRound struct {
	Kind     Kind
	ToFetch  *nameSet
	Fetched  *nameDirMap
	Resolved *nameDirMap
	Ignored  *nameSet
}

func newSubRound(kind Kind) *SubRound {
	return &SubRound{
		Kind:     kind,
		ToFetch:  newNameSet(),
		Fetched:  newNameDirMap(),
		Resolved: newNameDirMap(),
		Ignored:  newNameSet(),
	}
}

func (s *SubRound) collectionForStage(st stage) *nameDirMap {
	switch st {
	case stageFetched:
		return s.Fetched
	case stageResolved:
		return s.Resolved
	}
	return nil
}

func (s *SubRound) stageOf(name engine.PackageName) stage {
	if s.Fetched.Has(name) {
		return stageFetched
	}
	if s.Resolved.Has(name) {
		return stageResolved
	}
	return stageNotProcessed
}

// isReinstallNeeded reports whether dep needs to be scheduled at all:
// skipped outright by its environment marker, or already satisfied by an
// installed distribution and not forced. Every Requirement reaching this
// point has already had its upstream version specifier stripped by Unpin
// (C8, section 4.3), so "some version is installed" is the only signal
// left to check against — there is no surviving constraint to compare.
// Grounded on resolver.py's isReInstallationNeeded, minus the specifier
// branch that can never fire once upstream specifiers can't survive to
// this point.
func isReinstallNeeded(dep engine.Requirement, prefs Prefs, installed func(engine.PackageName) (string, bool)) bool {
	if dep.Skip() {
		return false
	}
	if _, ok := installed(dep.Name); !ok {
		return true
	}
	return prefs.Upgrade || prefs.ForceReinstall
}

// appendNewDeps folds deps into successor's ToFetch, or migrates an
// already-fetched-or-resolved dependency from an other phase's
// collection into this phase's own collection when s.Kind.MoveToThis.
// Migration is one-shot: the first other subround holding the name wins,
// matching resolver.py's `break` out of the otherSubRounds loop rather
// than continuing to check the rest (there are only ever two phases, so
// this only matters if that ever changes).
//
// Grounded on resolver.py's ResolutionSubRound.appendNewDeps, with one
// correction. The original's migration line reads both the source and
// destination collection from otherSubRound:
//
//	otherRoundCollection = otherSubRound.stageToCollection(otherRoundStage)
//	thisRoundCollection = otherSubRound.stageToCollection(otherRoundStage)
//
// Both names resolve to the same dict, so the "migration" immediately
// deletes the element from the collection it was just copied into — a
// same-dict no-op that silently drops the dependency instead of moving
// it. That can't be the intended behavior: section 4.4's migration rule
// requires an actual move between phases (a runtime dep later found to
// also be a build tool's dependency must end up scheduled under the
// build phase). This implements the evident intent instead: copy into
// *this* subround's collection at the matched stage, then delete it from
// the other's. Recorded in DESIGN.md's Open question decisions.
// targetMoveToThis is the moveToThis flag of the *target* Kind (the
// classification deps belongs to, kindID in resolveRound) — distinct
// from s.Kind, which is the discoverer phase's own Kind and governs only
// the `others` cross-check below. sibling is the successor round's
// SubRound for the other phase: scenario 3 (section 8) requires a
// dependency discovered as a runtime dep of one package and a build dep
// of another, within the *same* round, to end up solely in the build
// phase's successor toFetch. Neither package has been fetched yet, so
// there is nothing in `others` (this round's fetched/resolved) to find —
// the only place the rival classification's claim is visible yet is the
// sibling successor's own toFetch, populated moments earlier by this
// same resolveRound pass. This is the "structural move of the map entry"
// Open Question (b) describes, not an extension of isAlreadyBeingProcessed
// (which still only ever looks at fetched/resolved).
func (s *SubRound) appendNewDeps(prefs Prefs, deps []engine.Requirement, others []*SubRound, successor, sibling *SubRound, targetMoveToThis bool, installed func(engine.PackageName) (string, bool)) {
	for _, dep := range deps {
		name := dep.Name
		if s.Ignored.Has(name) {
			continue
		}
		if !isReinstallNeeded(dep, prefs, installed) {
			continue
		}

		migratedOrFound := false
		for _, other := range others {
			st := other.stageOf(name)
			if st == stageNotProcessed {
				continue
			}
			if s.Kind.MoveToThis {
				otherColl := other.collectionForStage(st)
				thisColl := s.collectionForStage(st)
				dir, _ := otherColl.Get(name)
				thisColl.Set(name, dir)
				otherColl.Delete(name)
			}
			migratedOrFound = true
			break
		}
		if migratedOrFound {
			continue
		}
		if s.stageOf(name) != stageNotProcessed {
			continue
		}
		if sibling.ToFetch.Has(name) {
			if targetMoveToThis {
				sibling.ToFetch.Delete(name)
			} else {
				continue
			}
		}
		successor.ToFetch.Add(name)
	}
}

// Round is one iteration's worth of per-phase pipeline state.
type Round struct {
	Phases map[PhaseID]*SubRound
}

func newRound() *Round {
	r := &Round{Phases: make(map[PhaseID]*SubRound, len(phaseOrder))}
	for _, id := range phaseOrder {
		r.Phases[id] = newSubRound(kinds[id])
	}
	return r
}

func (r *Round) isEmpty() bool {
	for _, id := range phaseOrder {
		if r.Phases[id].ToFetch.Len() > 0 {
			return false
		}
	}
	return true
}

// SourceFetcher is the fetch collaborator the resolver consumes (section
// 1's "the core consumes a fetch function"): *engine.Fetcher satisfies
// it for production use; tests substitute a fake that materializes fixed
// source trees instead of shelling out to git/hg.
type SourceFetcher interface {
	Fetch(ctx context.Context, source engine.SourceDescriptor, targetDir string) error
}

// Resolver is the top-level driver (section 4.6's PackageFetcher
// equivalent): it owns a single temporary sources directory for the
// whole resolve, fetching each round's newly-discovered names into it
// and removing it on every exit path.
type Resolver struct {
	Registry engine.Registry
	Fetcher  SourceFetcher
	Scheme   install.Scheme
}

// NewResolver builds a Resolver over registry, using fetcher for source
// retrieval and scheme to check what's already installed.
func NewResolver(registry engine.Registry, fetcher SourceFetcher, scheme install.Scheme) *Resolver {
	return &Resolver{Registry: registry, Fetcher: fetcher, Scheme: scheme}
}

// Run drives the fixed-point loop to completion: seed the runtime phase
// with names, then alternate fetch and deps-resolution steps until no
// subround has anything left to fetch. Grounded on resolver.py's
// PackageFetcher.__call__, a context manager around a TemporaryDirectory;
// Go has no context-manager sugar, so the cleanup is a defer instead.
func (res *Resolver) Run(ctx context.Context, prefs Prefs, names []string) (*InstallPlan, error) {
	sourcesDir, err := os.MkdirTemp("", "petwheel-sources-*")
	if err != nil {
		return nil, errors.Wrap(err, "creating sources directory")
	}
	defer os.RemoveAll(sourcesDir)

	installed := func(name engine.PackageName) (string, bool) {
		return install.InstalledVersion(res.Scheme, name)
	}

	round := newRound()
	for _, n := range names {
		round.Phases[PhaseRuntime].ToFetch.Add(engine.Canon(n))
	}

	plan := &InstallPlan{Targets: make(map[PhaseID][]InstallTarget, len(phaseOrder))}

	for !round.isEmpty() {
		if err := res.fetchRound(ctx, round, sourcesDir); err != nil {
			return nil, err
		}
		successor := newRound()
		if err := res.resolveRound(prefs, round, successor, installed, plan); err != nil {
			return nil, err
		}
		round = successor
	}
	return plan, nil
}

// fetchRound fetches every name still in ToFetch across all phases of
// round, routing System-sourced names straight to Ignored instead
// (section 4.6, step 1), and clears ToFetch once done.
func (res *Resolver) fetchRound(ctx context.Context, round *Round, sourcesDir string) error {
	for _, id := range phaseOrder {
		sr := round.Phases[id]
		for _, name := range append([]engine.PackageName(nil), sr.ToFetch.Names()...) {
			entry, _, err := res.Registry.Lookup(name)
			if err != nil {
				return err
			}
			if entry.Source.Type == engine.FetcherSystem {
				sr.Ignored.Add(name)
				continue
			}
			dir := filepath.Join(sourcesDir, string(name))
			if err := res.Fetcher.Fetch(ctx, entry.Source, dir); err != nil {
				return err
			}
			if entry.Source.SubDir != "" {
				dir = filepath.Join(dir, entry.Source.SubDir)
			}
			sr.Fetched.Set(name, dir)
		}
		sr.ToFetch = newNameSet()
	}
	return nil
}

// resolveRound extracts metadata for every name this round fetched,
// folds its build and runtime deps into the successor round (migrating
// across phases where owed), and records each resolved name as an
// install target in discovery order. Grounded on resolver.py's
// _processResolutionForCurrentSubRound /
// ResolutionRound.subroundSuccessorPrefs: for a package discovered while
// processing phase P, its deps are drawn from *every* Kind's GetDeps
// (its build deps and its runtime deps both matter, regardless of which
// phase P itself is), but appendNewDeps is always called on P's own
// SubRound — so migration direction follows the phase doing the
// discovering, not the phase the dependency's kind nominally belongs to.
func (res *Resolver) resolveRound(prefs Prefs, round, successor *Round, installed func(engine.PackageName) (string, bool), plan *InstallPlan) error {
	for _, id := range phaseOrder {
		this := round.Phases[id]
		var others []*SubRound
		for _, oid := range phaseOrder {
			if oid != id {
				others = append(others, round.Phases[oid])
			}
		}

		for _, name := range append([]engine.PackageName(nil), this.Fetched.Names()...) {
			dir, _ := this.Fetched.Get(name)
			md, err := metadata.Extract(dir)
			if err != nil {
				return err
			}
			mdDeps := &metadataDeps{BuildDeps: md.BuildDeps, Deps: md.Deps}

			for _, kindID := range phaseOrder {
				k := kinds[kindID]
				deps := k.GetDeps(prefs, mdDeps)
				if len(deps) == 0 {
					continue
				}
				patched := k.PatchPrefs(prefs)
				siblingID := PhaseRuntime
				if kindID == PhaseRuntime {
					siblingID = PhaseBuild
				}
				this.appendNewDeps(patched, deps, others, successor.Phases[kindID], successor.Phases[siblingID], k.MoveToThis, installed)
			}

			this.Resolved.Set(name, dir)
			plan.Targets[id] = append(plan.Targets[id], InstallTarget{Name: name, InstallDir: dir})
		}
	}
	return nil
}
