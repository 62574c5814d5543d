package internal

import (
	"fmt"

	"github.com/replaykit/parcel/internal/driver"
	"github.com/replaykit/parcel/internal/project"
	"github.com/spf13/cobra"
)

var (
	buildVerbose bool
	buildSource  string
	buildCompDB  bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Resolve dependencies and build the project",
	Long:  `Build resolves the concrete dependency set, stages dependency assets, configures the selected backend and compiles the project. Packaging (install) is a separate, opt-in step; see "parcel pack".`,
	RunE:  runBuild,
}

func init() {
	addOptionFlags(buildCmd)
	buildCmd.Flags().BoolVarP(&buildVerbose, "verbose", "v", false, "Enable verbose backend output")
	buildCmd.Flags().StringVarP(&buildSource, "source", "C", ".", "Source tree to build")
	buildCmd.Flags().BoolVar(&buildCompDB, "compdb", false, "Copy the compile-command manifest to the source root")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	desc, err := project.Load(buildSource)
	if err != nil {
		return fmt.Errorf("failed to load project descriptor: %w", err)
	}
	opts, err := optionSet(cmd, desc)
	if err != nil {
		return err
	}

	logger := newLogger()
	restore, err := quietBackend(buildVerbose)
	if err != nil {
		return err
	}
	defer restore()

	d, err := driver.New(opts, driver.Config{
		SourceDir: buildSource,
		CompDB:    buildCompDB,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	report, err := d.Run()
	if err != nil {
		return err
	}

	restore()
	version := desc.Version
	if version == "" {
		version = "(unversioned)"
	}
	fmt.Printf("%s %s: %s\n", desc.Name, version, report.Stage)
	if report.CompileCommands != "" && buildVerbose {
		fmt.Printf("compile commands: %s\n", report.CompileCommands)
	}
	return nil
}
