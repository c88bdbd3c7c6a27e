package main

import (
	"github.com/spf13/cobra"
	"github.com/petwheel/petwheel/engine"
	"github.com/petwheel/petwheel/engine/bootstrap"
	"github.com/petwheel/petwheel/engine/install"
	"github.com/petwheel/petwheel/engine/wheel"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Bootstrap the packaging ecosystem or petwheel itself",
}

var bootstrapPackagingCmd = &cobra.Command{
	Use:   "packaging",
	Short: "Bootstrap setuptools, wheel, and the rest of the packaging ecosystem from source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBootstrapper()
		if err != nil {
			return err
		}
		return b.BootstrapPackaging(cmd.Context())
	},
}

var bootstrapSelfCmd = &cobra.Command{
	Use:   "self <package-name>",
	Short: "Install petwheel's own package into the runtime, once packaging is bootstrapped",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBootstrapper()
		if err != nil {
			return err
		}
		return b.Self(cmd.Context(), args[0])
	},
}

func newBootstrapper() (*bootstrap.Bootstrapper, error) {
	registry, err := home.LoadRegistries()
	if err != nil {
		return nil, err
	}
	scheme := install.DefaultScheme(home.InstallRoot())
	return &bootstrap.Bootstrapper{
		Registry: registry,
		Fetcher:  engine.NewFetcher(logger),
		Builder:  wheel.NewBuilder(),
		Scheme:   scheme,
		Log:      logger,
	}, nil
}

func init() {
	bootstrapCmd.AddCommand(bootstrapPackagingCmd, bootstrapSelfCmd)
	rootCmd.AddCommand(bootstrapCmd)
}
