package engine

import "fmt"

// The error taxonomy from the error-handling design: every engine error is
// one of these concrete types. Callers that need to branch on the kind of
// failure should use errors.As (these are returned wrapped in
// github.com/pkg/errors context by the component that raised them).

// RegistryNotFoundError is returned when no leaf registry in a lookup chain
// contains a name.
type RegistryNotFoundError struct {
	Name PackageName
}

func (e *RegistryNotFoundError) Error() string {
	return fmt.Sprintf("no registry entry for %q", string(e.Name))
}

// FetchFailedError wraps a failed source-control subprocess invocation.
type FetchFailedError struct {
	Source   SourceDescriptor
	ExitCode int
	Stderr   string
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("fetch of %s failed (exit %d): %s", e.Source.RepoURI, e.ExitCode, e.Stderr)
}

// UnsupportedFetcherError is raised when a registry names a fetcher type
// the core cannot dispatch.
type UnsupportedFetcherError struct {
	Source SourceDescriptor
}

func (e *UnsupportedFetcherError) Error() string {
	return fmt.Sprintf("unsupported fetcher %s for %s", e.Source.Type, e.Source.RepoURI)
}

// MetadataMissingError means no declaration style could be found at all.
type MetadataMissingError struct {
	Path string
}

func (e *MetadataMissingError) Error() string {
	return fmt.Sprintf("no package metadata found under %s", e.Path)
}

// MetadataMalformedError wraps a parse failure in a specific declaration
// style.
type MetadataMalformedError struct {
	Path  string
	Cause error
}

func (e *MetadataMalformedError) Error() string {
	return fmt.Sprintf("malformed package metadata at %s: %v", e.Path, e.Cause)
}

func (e *MetadataMalformedError) Unwrap() error { return e.Cause }

// InvalidNameError means an extracted name failed ValidName.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid package name %q", e.Name)
}

// BuildFailedError wraps a failed build-backend hook call or legacy
// setup.py invocation.
type BuildFailedError struct {
	PackageDir string
	Output     string
}

func (e *BuildFailedError) Error() string {
	return fmt.Sprintf("build of %s failed: %s", e.PackageDir, e.Output)
}

// InstallFailedError wraps a failed wheel unpack.
type InstallFailedError struct {
	Wheel string
	Cause error
}

func (e *InstallFailedError) Error() string {
	return fmt.Sprintf("install of %s failed: %v", e.Wheel, e.Cause)
}

func (e *InstallFailedError) Unwrap() error { return e.Cause }

// UninstallFailedError wraps a failed removal of a previously-installed
// distribution.
type UninstallFailedError struct {
	Name  PackageName
	Cause error
}

func (e *UninstallFailedError) Error() string {
	return fmt.Sprintf("uninstall of %s failed: %v", string(e.Name), e.Cause)
}

func (e *UninstallFailedError) Unwrap() error { return e.Cause }

// PartialEvaluationInsufficientError is raised when a setup.py partial
// evaluator could not fold a referenced symbol.
type PartialEvaluationInsufficientError struct {
	VarName string
}

func (e *PartialEvaluationInsufficientError) Error() string {
	return fmt.Sprintf("could not constant-fold reference to %q while evaluating setup.py", e.VarName)
}

// BootstrapPreconditionError is raised by the self-bootstrapper when
// essential packages are missing and it cannot proceed.
type BootstrapPreconditionError struct {
	Missing []PackageName
}

func (e *BootstrapPreconditionError) Error() string {
	return fmt.Sprintf("bootstrap precondition not met, missing: %v", e.Missing)
}
