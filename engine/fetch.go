package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/vcs"
	"github.com/pkg/errors"
	petlog "github.com/petwheel/petwheel/engine/log"
)

// fetchTimeout bounds how long a clone may go without producing output
// before it is considered hung, mirroring golang-dep's 2-minute default for
// VCS subprocesses (gps/cmd.go, root cmd.go).
const fetchTimeout = 2 * time.Minute

// Fetcher clones a SourceDescriptor into targetDir. Descriptors of type
// System are the caller's responsibility to special-case before calling
// Fetch; calling Fetch with one is a programmer error, since the resolver
// is expected to have already routed System sources to "ignored" (section
// 4.6, step 1).
type Fetcher struct {
	Log *petlog.Logger
}

// NewFetcher builds a Fetcher that logs to l (nil is fine, discards).
func NewFetcher(l *petlog.Logger) *Fetcher {
	return &Fetcher{Log: l}
}

// Fetch clones source into targetDir. Git supports shallow depth,
// single-branch refSpec, and sparse-checkout subDir via a post-clone step.
// Mercurial ignores depth (unsupported by the protocol) and warns once.
func (f *Fetcher) Fetch(ctx context.Context, source SourceDescriptor, targetDir string) error {
	switch source.Type {
	case FetcherGit:
		return f.fetchGit(ctx, source, targetDir)
	case FetcherHg:
		return f.fetchHg(ctx, source, targetDir)
	case FetcherSystem:
		// Caller error: System sources must never reach Fetch.
		return &UnsupportedFetcherError{Source: source}
	default:
		return &UnsupportedFetcherError{Source: source}
	}
}

func (f *Fetcher) fetchGit(ctx context.Context, source SourceDescriptor, targetDir string) error {
	repo, err := vcs.NewGitRepo(source.RepoURI, targetDir)
	if err != nil {
		return errors.Wrapf(err, "constructing git repo for %s", source.RepoURI)
	}

	args := []string{"clone", "--filter=tree:0"}
	if source.Depth > 0 {
		args = append(args, "--depth", fmt.Sprint(source.Depth))
	}
	if source.RefSpec != "" {
		args = append(args, "--single-branch", "--branch", source.RefSpec)
	}
	if source.SubDir != "" {
		args = append(args, "--no-checkout", "--sparse")
	}
	args = append(args, source.RepoURI, targetDir)

	_, stderr, err := runSubprocess(ctx, "", "git", fetchTimeout, args...)
	if err != nil {
		return &FetchFailedError{Source: source, ExitCode: exitCodeOf(err), Stderr: string(stderr)}
	}

	if source.SubDir != "" {
		_, stderr, err := runSubprocess(ctx, targetDir, "git", fetchTimeout, "sparse-checkout", "set", source.SubDir)
		if err != nil {
			return &FetchFailedError{Source: source, ExitCode: exitCodeOf(err), Stderr: string(stderr)}
		}
	}

	// repo.CheckLocal confirms vcs's own bookkeeping agrees a clone landed;
	// kept for parity with golang-dep's vcs_repo.go Get() error surface.
	if !repo.CheckLocal() {
		return &FetchFailedError{Source: source, ExitCode: -1, Stderr: "clone reported success but no local repo found"}
	}
	return nil
}

func (f *Fetcher) fetchHg(ctx context.Context, source SourceDescriptor, targetDir string) error {
	if source.Depth > 0 {
		f.Log.WarnHgShallowUnsupported()
	}
	args := []string{"clone", "--rev", "default"}
	if source.RefSpec != "" {
		args = []string{"clone", "--rev", source.RefSpec}
	}
	args = append(args, source.RepoURI, targetDir)

	_, stderr, err := runSubprocess(ctx, "", "hg", fetchTimeout, args...)
	if err != nil {
		return &FetchFailedError{Source: source, ExitCode: exitCodeOf(err), Stderr: string(stderr)}
	}
	return nil
}
