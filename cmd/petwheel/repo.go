package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/petwheel/petwheel/engine"
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage registry files under PETWHEEL_HOME/registries",
}

var repoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured registries and their entry counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		compound, err := home.LoadRegistries()
		if err != nil {
			return err
		}
		for _, child := range compound.Children {
			count := "?"
			if leaf, ok := child.(*engine.LeafRegistry); ok {
				count = fmt.Sprint(len(leaf.Entries))
			}
			fmt.Printf("%s\t%s entries\n", child.RegistryName(), count)
		}
		return nil
	},
}

var repoAddCmd = &cobra.Command{
	Use:   "add <name> <tsv-path>",
	Short: "Add a registry TSV file under PETWHEEL_HOME/registries",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return home.AddRegistry(args[0], args[1])
	},
}

var repoRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a previously-added registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return home.RemoveRegistry(args[0])
	},
}

// repoUpdateCmd always fails: refreshing a registry against a signed
// overlay requires the out-of-scope signed-repo collaborator (section 1).
var repoUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh registries against their signed overlay (not implemented)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return engine.ErrNoSignedOverlay
	},
}

func init() {
	repoCmd.AddCommand(repoListCmd, repoAddCmd, repoUpdateCmd, repoRemoveCmd)
	rootCmd.AddCommand(repoCmd)
}
