package internal

import (
	"os"
	"strings"

	"github.com/replaykit/parcel/internal/driver"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:          "parcel",
	Short:        "parcel drives dependency resolution and backend builds",
	Long:         `parcel evaluates the project's build descriptor: it resolves the concrete dependency set, stages dependency assets into the source tree, and drives one of the backend build tools (cmake, meson, qmake) through configure, build and install.`,
	SilenceUsage: true,
}

func init() {
	viper.SetEnvPrefix("PARCEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). The process exit code
// distinguishes which lifecycle stage failed.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(driver.ExitCode(err))
	}
}
