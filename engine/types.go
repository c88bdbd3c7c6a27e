// Package engine implements the resolve/fetch/build/install pipeline: the
// core of petwheel. It discovers build-time and run-time dependencies from
// source trees fetched via user-curated petname registries, builds wheels
// through the standard build-backend hook protocol, and installs them into
// an interpreter's runtime tree.
package engine

import (
	"regexp"
	"strings"
)

// PackageName is a canonical package identifier. Two names are equal iff
// their Canon forms are equal.
type PackageName string

var canonRx = regexp.MustCompile(`[-_.]+`)

// Canon returns the canonical form of a package name: lowercased, with runs
// of '-', '_' and '.' collapsed to a single '-'. Idempotent: Canon(Canon(x))
// == Canon(x).
func Canon(name string) PackageName {
	lowered := strings.ToLower(name)
	return PackageName(canonRx.ReplaceAllString(lowered, "-"))
}

// nameValidRx matches the acceptable character set for an extracted package
// name, mirroring ipi's metadataExtractor validPackageNameRx.
var nameValidRx = regexp.MustCompile(`^[\w.-]+$`)

// ValidName reports whether name is an acceptable extracted package name.
func ValidName(name string) bool {
	return nameValidRx.MatchString(name)
}

// EnvMarker is an environment predicate attached to a Requirement, such as
// `sys_platform == 'win32'`. Evaluation is delegated to the metadata
// extractor that produced the Requirement; by the time a Requirement
// reaches the resolver, Applies has already been resolved once and cached
// here, because re-evaluating requires no further subprocess or filesystem
// access.
type EnvMarker struct {
	Expr    string
	Applies bool
}

// VersionSpec is an upstream-declared version constraint string (e.g.
// ">=1.0,<2.0"). The resolver never parses it for upstream-declared
// specifiers — those are always stripped by Unpin before a Requirement is
// scheduled (section 4.3/C8). A VersionSpec that survives to
// Requirement.Specifier is therefore always empty unless synthesized by
// local policy.
type VersionSpec string

// Empty reports whether the specifier is absent, meaning "any version
// satisfies".
func (v VersionSpec) Empty() bool {
	return v == ""
}

// Requirement is a single dependency declaration: a name, an optional
// version specifier, and an optional environment marker.
type Requirement struct {
	Name      PackageName
	Specifier VersionSpec
	Marker    *EnvMarker
}

// Skip reports whether this requirement should never be enqueued, because
// its marker is present and evaluates to false (invariant 4 in section 8).
func (r Requirement) Skip() bool {
	return r.Marker != nil && !r.Marker.Applies
}

// FetcherType enumerates the source-control systems a SourceDescriptor may
// name.
type FetcherType int

const (
	// FetcherNone is an undefined fetcher; scheduling it is always an error.
	FetcherNone FetcherType = iota
	// FetcherSystem means the package must already be installed; the
	// resolver records it as ignored rather than fetching it.
	FetcherSystem
	// FetcherPip fetches a prebuilt wheel rather than a source tree. Not
	// implemented by the in-scope Fetcher; present for registry
	// round-tripping only (section 6: unknown fetcher tokens include pip).
	FetcherPip
	// FetcherGit clones a git repository.
	FetcherGit
	// FetcherHg clones a Mercurial repository.
	FetcherHg
)

func (t FetcherType) String() string {
	switch t {
	case FetcherSystem:
		return "system"
	case FetcherPip:
		return "pip"
	case FetcherGit:
		return "git"
	case FetcherHg:
		return "hg"
	default:
		return "none"
	}
}

// ParseFetcherType maps a TSV "fetcher" column token to a FetcherType.
// An empty token with a non-empty repo defaults to git (section 6).
func ParseFetcherType(token, repo string) (FetcherType, bool) {
	switch token {
	case "":
		if repo != "" {
			return FetcherGit, true
		}
		return FetcherNone, true
	case "git":
		return FetcherGit, true
	case "hg":
		return FetcherHg, true
	case "system":
		return FetcherSystem, true
	case "pip":
		return FetcherPip, true
	case "none":
		return FetcherNone, true
	default:
		return FetcherNone, false
	}
}

// SourceDescriptor names where a package's source lives and how to fetch
// it. A System descriptor means "assume pre-installed; do not fetch".
type SourceDescriptor struct {
	Type    FetcherType
	RepoURI string
	SubDir  string
	RefSpec string
	Depth   int
}

// RegistryEntry is a resolved petname: the canonical name plus its source.
type RegistryEntry struct {
	Name   PackageName
	Source SourceDescriptor
}
