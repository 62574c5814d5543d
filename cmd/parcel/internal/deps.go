package internal

import (
	"fmt"

	"github.com/replaykit/parcel/internal/project"
	"github.com/replaykit/parcel/internal/resolve"
	"github.com/spf13/cobra"
)

var depsSource string

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Print the resolved dependency set",
	Long:  `Deps evaluates the requirement rules against the option set and prints the resolved requirement list. No backend tool is invoked.`,
	RunE:  runDeps,
}

func init() {
	addOptionFlags(depsCmd)
	depsCmd.Flags().StringVarP(&depsSource, "source", "C", ".", "Source tree to resolve for")
	rootCmd.AddCommand(depsCmd)
}

func runDeps(cmd *cobra.Command, args []string) error {
	desc, err := project.Load(depsSource)
	if err != nil {
		return fmt.Errorf("failed to load project descriptor: %w", err)
	}
	opts, err := optionSet(cmd, desc)
	if err != nil {
		return err
	}

	reqs, err := resolve.Resolve(opts)
	if err != nil {
		return err
	}

	for _, r := range resolve.Sorted(reqs) {
		line := r.Name + "/" + r.Version
		if r.Override {
			line += " (override)"
		}
		if r.ToolOnly {
			line += " (tool)"
		}
		fmt.Println(line)
	}
	return nil
}
