package internal

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/replaykit/parcel/internal/options"
	"github.com/replaykit/parcel/internal/project"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// addOptionFlags registers the option-set flags shared by the lifecycle
// commands. Each maps to a PARCEL_* environment variable through viper.
func addOptionFlags(cmd *cobra.Command) {
	cmd.Flags().String("builder", "", "backend build tool (cmake|meson|qmake)")
	cmd.Flags().Bool("docs", false, "resolve and build the documentation toolchain")
	cmd.Flags().String("os", "", "target operating system")
	cmd.Flags().String("compiler", "", "target compiler")
	cmd.Flags().String("compiler-std", "", "C++ standard, e.g. 17")
	cmd.Flags().String("arch", "", "target architecture")
}

// bindOptionFlags points viper at this command's flag instances. Binding
// happens at run time because the lifecycle commands share flag names.
func bindOptionFlags(cmd *cobra.Command) {
	for _, name := range []string{"builder", "docs", "os", "compiler", "compiler-std", "arch"} {
		viper.BindPFlag(name, cmd.Flags().Lookup(name))
	}
}

// optionSet builds the immutable option set for one invocation from flags,
// environment and the project descriptor, in that order of precedence.
func optionSet(cmd *cobra.Command, desc *project.Descriptor) (options.Set, error) {
	bindOptionFlags(cmd)

	builder := viper.GetString("builder")
	if builder == "" {
		builder = desc.Options.Builder
	}
	docs := viper.GetBool("docs") || desc.Options.BuildDocs

	return options.New(options.Config{
		Builder:      builder,
		BuildDocs:    docs,
		OS:           viper.GetString("os"),
		Compiler:     viper.GetString("compiler"),
		CompilerStd:  viper.GetString("compiler-std"),
		Arch:         viper.GetString("arch"),
		BuildOptions: desc.BuildOptions,
		DepOptions:   desc.DepOptions,
	})
}

// newLogger builds the stage logger bound to the current stderr, before
// any quiet-mode redirection.
func newLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Prefix:          "parcel",
	})
}

// quietBackend silences backend tool output when verbose is off. It
// redirects os.Stdout/os.Stderr so subprocess output (cmake, meson) is
// swallowed; the returned restore func puts them back.
func quietBackend(verbose bool) (restore func(), err error) {
	if verbose {
		return func() {}, nil
	}
	savedStdout := os.Stdout
	savedStderr := os.Stderr
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return nil, err
	}
	os.Stdout = devNull
	os.Stderr = devNull
	var once sync.Once
	return func() {
		once.Do(func() {
			devNull.Close()
			os.Stdout = savedStdout
			os.Stderr = savedStderr
		})
	}, nil
}
