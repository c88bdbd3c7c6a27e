package resolve

import (
	"context"
	"os"

	"github.com/petwheel/petwheel/engine/install"
)

// WheelBuilder is the build collaborator Execute consumes: *wheel.Builder
// satisfies it for production use. Kept as a narrow interface here (rather
// than importing engine/wheel directly) the same way SourceFetcher keeps
// the resolver decoupled from engine/fetch.go's concrete type.
type WheelBuilder interface {
	Build(ctx context.Context, packageDir, outDir string, extraPythonPath []string) (string, error)
}

// Execute builds and installs every target InstallPlan names. Grounded on
// spec.md section 5's ordering guarantee: the build phase is installed
// before the runtime phase, and within each phase targets install in
// reverse discovery order (invariant 2 — a dependency never installs later
// than its first dependent; since resolveRound appends each phase's
// targets in discovery order, walking the slice backwards gives the
// leaf-dependencies-first order installation needs).
func Execute(ctx context.Context, plan *InstallPlan, builder WheelBuilder, scheme install.Scheme) error {
	reinstaller := install.Reinstaller{Scheme: scheme}
	for _, id := range phaseOrder {
		targets := plan.Targets[id]
		for i := len(targets) - 1; i >= 0; i-- {
			if err := buildAndInstall(ctx, targets[i].InstallDir, builder, reinstaller); err != nil {
				return err
			}
		}
	}
	return nil
}

func buildAndInstall(ctx context.Context, packageDir string, builder WheelBuilder, reinstaller install.Reinstaller) error {
	outDir, err := os.MkdirTemp("", "petwheel-build-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(outDir)

	wheelPath, err := builder.Build(ctx, packageDir, outDir, nil)
	if err != nil {
		return err
	}
	return reinstaller.Reinstall(wheelPath)
}
