package main

import (
	"github.com/spf13/cobra"
	"github.com/petwheel/petwheel/engine"
	"github.com/petwheel/petwheel/engine/install"
	"github.com/petwheel/petwheel/engine/resolve"
	"github.com/petwheel/petwheel/engine/wheel"
)

var (
	installUpgrade        bool
	installForceReinstall bool
)

var installCmd = &cobra.Command{
	Use:   "install <names...>",
	Short: "Resolve, build and install one or more packages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := home.LoadRegistries()
		if err != nil {
			return err
		}
		scheme := install.DefaultScheme(home.InstallRoot())
		resolver := resolve.NewResolver(registry, engine.NewFetcher(logger), scheme)

		prefs := resolve.Prefs{ResolveDeps: true, Upgrade: installUpgrade, ForceReinstall: installForceReinstall}
		plan, err := resolver.Run(cmd.Context(), prefs, args)
		if err != nil {
			return err
		}
		return resolve.Execute(cmd.Context(), plan, wheel.NewBuilder(), scheme)
	},
}

func init() {
	installCmd.Flags().BoolVar(&installUpgrade, "upgrade", false, "reinstall even when a version is already present")
	installCmd.Flags().BoolVar(&installForceReinstall, "force-reinstall", false, "reinstall unconditionally")
	rootCmd.AddCommand(installCmd)
}
