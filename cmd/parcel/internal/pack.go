package internal

import (
	"fmt"

	"github.com/replaykit/parcel/internal/driver"
	"github.com/replaykit/parcel/internal/project"
	"github.com/spf13/cobra"
)

var (
	packVerbose bool
	packSource  string
	packPrefix  string
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Build and install the project",
	Long:  `Pack runs the full lifecycle including the install step, producing installable artifacts under the install prefix. Backends without install support report a warning instead of failing the build.`,
	RunE:  runPack,
}

func init() {
	addOptionFlags(packCmd)
	packCmd.Flags().BoolVarP(&packVerbose, "verbose", "v", false, "Enable verbose backend output")
	packCmd.Flags().StringVarP(&packSource, "source", "C", ".", "Source tree to build")
	packCmd.Flags().StringVar(&packPrefix, "prefix", "", "Install prefix")
	rootCmd.AddCommand(packCmd)
}

func runPack(cmd *cobra.Command, args []string) error {
	desc, err := project.Load(packSource)
	if err != nil {
		return fmt.Errorf("failed to load project descriptor: %w", err)
	}
	opts, err := optionSet(cmd, desc)
	if err != nil {
		return err
	}

	logger := newLogger()
	restore, err := quietBackend(packVerbose)
	if err != nil {
		return err
	}
	defer restore()

	d, err := driver.New(opts, driver.Config{
		SourceDir:  packSource,
		InstallDir: packPrefix,
		Install:    true,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	report, err := d.Run()
	if err != nil {
		return err
	}

	restore()
	fmt.Printf("%s: %s\n", desc.Name, report.Stage)
	if report.InstallUnsupported {
		fmt.Println("note: backend does not support install; artifacts remain in the build directory")
	}
	return nil
}
