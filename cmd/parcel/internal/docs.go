package internal

import (
	"fmt"

	"github.com/replaykit/parcel/internal/driver"
	"github.com/replaykit/parcel/internal/options"
	"github.com/replaykit/parcel/internal/project"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	docsVerbose bool
	docsSource  string
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Build the project documentation",
	Long:  `Docs resolves the dependency set with the documentation toolchain included and builds the backend's docs target. The documentation build is independent of the primary artifact.`,
	RunE:  runDocs,
}

func init() {
	addOptionFlags(docsCmd)
	docsCmd.Flags().BoolVarP(&docsVerbose, "verbose", "v", false, "Enable verbose backend output")
	docsCmd.Flags().StringVarP(&docsSource, "source", "C", ".", "Source tree to build")
	rootCmd.AddCommand(docsCmd)
}

func runDocs(cmd *cobra.Command, args []string) error {
	desc, err := project.Load(docsSource)
	if err != nil {
		return fmt.Errorf("failed to load project descriptor: %w", err)
	}

	bindOptionFlags(cmd)
	builder := viper.GetString("builder")
	if builder == "" {
		builder = desc.Options.Builder
	}
	opts, err := options.New(options.Config{
		Builder:      builder,
		BuildDocs:    true,
		OS:           viper.GetString("os"),
		Compiler:     viper.GetString("compiler"),
		CompilerStd:  viper.GetString("compiler-std"),
		Arch:         viper.GetString("arch"),
		BuildOptions: desc.BuildOptions,
		DepOptions:   desc.DepOptions,
	})
	if err != nil {
		return err
	}

	logger := newLogger()
	restore, err := quietBackend(docsVerbose)
	if err != nil {
		return err
	}
	defer restore()

	d, err := driver.New(opts, driver.Config{
		SourceDir: docsSource,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	report, err := d.RunDocs()
	if err != nil {
		return err
	}

	restore()
	fmt.Printf("%s docs: %s\n", desc.Name, report.Stage)
	return nil
}
