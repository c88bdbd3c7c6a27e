package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/petwheel/petwheel/engine"
	petlog "github.com/petwheel/petwheel/engine/log"
)

// rootCmd is intentionally thin (SPEC_FULL.md's AMBIENT STACK/CLI note):
// it only has to translate flags into resolve.Prefs and call the engine.
var rootCmd = &cobra.Command{
	Use:           "petwheel",
	Short:         "A source-first Python package manager core",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var logger = petlog.New(os.Stderr)

// home is resolved once per process invocation (PersistentPreRunE) rather
// than at package init, so PETWHEEL_HOME overrides set by tests or by the
// "--home" flag below are honored.
var home *engine.Home

var homeOverride string

func init() {
	rootCmd.PersistentFlags().StringVar(&homeOverride, "home", "", "override PETWHEEL_HOME")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if homeOverride != "" {
			os.Setenv(engine.DefaultHomeEnvVar, homeOverride)
		}
		h, err := engine.NewHome()
		if err != nil {
			return err
		}
		if err := h.EnsureLayout(); err != nil {
			return err
		}
		home = h
		return nil
	}
}

// Execute runs the root command, returning the error cobra reported (if
// any) after printing it to stderr.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
