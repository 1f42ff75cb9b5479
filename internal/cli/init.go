package cli

import (
	"fmt"

	"github.com/example/soyc-report/internal/config"
	"github.com/example/soyc-report/internal/dashboard"
	"github.com/spf13/cobra"
)

func newInitCmd(loader *config.Loader) *cobra.Command {
	flags := &runtimeFlagSet{}
	var skipJavaCheck bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Validate the execution environment and configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(loader, cmd, flags)
			if err != nil {
				return err
			}

			for _, dir := range []string{cfg.OutputDir, cfg.ReportRoot()} {
				if err := ensureOutputDir(dir); err != nil {
					return err
				}
			}

			if !skipJavaCheck && !cfg.DryRun {
				if err := dashboard.NewRunner(cfg.Java).EnsureBinary(); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Environment looks good. Reports will be stored in %s\n", cfg.ReportRoot())
			return nil
		},
	}

	bindRuntimeFlags(cmd, flags)
	cmd.Flags().BoolVar(&skipJavaCheck, "skip-java-check", false, "Allow init to pass even if java is missing")

	return cmd
}
