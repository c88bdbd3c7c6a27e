package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/petwheel/petwheel/engine"
	"github.com/petwheel/petwheel/engine/install"
	"github.com/petwheel/petwheel/engine/resolve"
)

// resolveCmd plans an install without building or installing anything —
// useful for inspecting what "install" would do (section 6's "resolve"
// subcommand).
var resolveCmd = &cobra.Command{
	Use:   "resolve <names...>",
	Short: "Print the install plan for one or more packages without building or installing",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := home.LoadRegistries()
		if err != nil {
			return err
		}
		scheme := install.DefaultScheme(home.InstallRoot())
		resolver := resolve.NewResolver(registry, engine.NewFetcher(logger), scheme)

		plan, err := resolver.Run(cmd.Context(), resolve.DefaultPrefs(), args)
		if err != nil {
			return err
		}
		fmt.Println("build tools:")
		for _, t := range plan.Targets[resolve.PhaseBuild] {
			fmt.Printf("  %s\t%s\n", t.Name, t.InstallDir)
		}
		fmt.Println("packages:")
		for _, t := range plan.Targets[resolve.PhaseRuntime] {
			fmt.Printf("  %s\t%s\n", t.Name, t.InstallDir)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
