// Package wheel implements the wheel builder (C4): invoking a package's
// declared build backend in a child process, isolated from the engine's
// own process by an in-band cookie protocol so backend chatter on stdout
// never corrupts the result.
package wheel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/petwheel/petwheel/engine"
)

// Builder builds wheels by shelling out to a Python interpreter running
// pyDriverSource. PythonExe defaults to "python3" when empty.
type Builder struct {
	PythonExe string
}

func NewBuilder() *Builder { return &Builder{PythonExe: "python3"} }

type buildRequest struct {
	Pkg    string `json:"pkg"`
	OutDir string `json:"outDir"`
}

type buildError struct {
	Class string   `json:"class"`
	Args  []string `json:"args"`
}

type buildResult struct {
	Wheel string      `json:"wheel"`
	Error *buildError `json:"error"`
}

// Build invokes the build backend declared by packageDir on outDir,
// enforcing that exactly one wheel results (a build that produces zero or
// more than one matching wheel is treated as failed, per the engine's
// single-artifact invariant). extraPythonPath is made visible to the
// child process's PYTHONPATH, for self-bootstrap builds that need a
// freshly-cloned build backend that isn't installed anywhere normal.
func (b *Builder) Build(ctx context.Context, packageDir, outDir string, extraPythonPath []string) (string, error) {
	exe := b.PythonExe
	if exe == "" {
		exe = "python3"
	}

	c, err := newCookie()
	if err != nil {
		return "", err
	}
	script := fmt.Sprintf(pyDriverSource, pyStrLit(reverse(c.start)), pyStrLit(reverse(c.end)))

	payload, err := json.Marshal(buildRequest{Pkg: packageDir, OutDir: outDir})
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, exe, "-c", script)
	cmd.Env = childEnvWithPythonPath(extraPythonPath)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	content, _, _ := c.unwrap(stdout.String())
	if content == "" {
		out := stderr.String()
		if out == "" {
			out = stdout.String()
		}
		return "", &engine.BuildFailedError{PackageDir: packageDir, Output: out}
	}

	var res buildResult
	if err := json.Unmarshal([]byte(content), &res); err != nil {
		return "", &engine.BuildFailedError{PackageDir: packageDir, Output: content}
	}
	if res.Error != nil {
		return "", &engine.BuildFailedError{
			PackageDir: packageDir,
			Output:     fmt.Sprintf("%s: %v", res.Error.Class, res.Error.Args),
		}
	}
	if runErr != nil {
		return "", &engine.BuildFailedError{PackageDir: packageDir, Output: stderr.String()}
	}

	return enforceSingleWheel(outDir, res.Wheel)
}

// enforceSingleWheel verifies the build produced exactly one wheel file
// in outDir and that it matches the path the driver reported. The one-
// matching-wheel requirement is deliberate: a build backend that emits
// stray or multiple wheels leaves the engine unable to pick a winner
// without guessing, so it's treated as a build failure rather than an
// installer ambiguity.
func enforceSingleWheel(outDir, reported string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(outDir, "*.whl"))
	if err != nil {
		return "", &engine.BuildFailedError{PackageDir: outDir, Output: err.Error()}
	}
	if len(matches) != 1 {
		return "", &engine.BuildFailedError{
			PackageDir: outDir,
			Output:     fmt.Sprintf("expected exactly one wheel in %s, found %d", outDir, len(matches)),
		}
	}
	if reported != "" && matches[0] != reported {
		return "", &engine.BuildFailedError{
			PackageDir: outDir,
			Output:     fmt.Sprintf("build reported wheel %s but %s is the only one present", reported, matches[0]),
		}
	}
	return matches[0], nil
}
