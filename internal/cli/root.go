package cli

import (
	"github.com/example/soyc-report/internal/config"
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X".
var version = "dev"

// Execute builds the root command tree and runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	loader := &config.Loader{ConfigPath: config.DefaultConfigPath}
	rootOpts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "soyc-report",
		Short:         "Build GWT Story Of Your Compile reports with the SOYC dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	rootCmd.SetVersionTemplate("soyc-report version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&rootOpts.ConfigPath, "config", config.DefaultConfigPath, "Path to soyc-report.yml (optional)")
	rootCmd.PersistentFlags().StringVar(&rootOpts.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if rootOpts.ConfigPath != "" {
			loader.ConfigPath = rootOpts.ConfigPath
		}
		if rootOpts.LogLevel != "" {
			loader.LogLevel = rootOpts.LogLevel
		}
	}

	rootCmd.AddCommand(
		newInitCmd(loader),
		newDoctorCmd(loader),
		newScanCmd(loader),
		newGenerateCmd(loader),
		newReportCmd(loader),
	)

	return rootCmd
}

type rootOptions struct {
	ConfigPath string
	LogLevel   string
}
