package cli

import (
	"fmt"

	"github.com/example/soyc-report/internal/config"
	"github.com/example/soyc-report/internal/events"
	"github.com/example/soyc-report/internal/index"
	"github.com/example/soyc-report/internal/report"
	"github.com/spf13/cobra"
)

func newReportCmd(loader *config.Loader) *cobra.Command {
	flags := &runtimeFlagSet{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the SOYC index page linking every declared GWT module",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(loader, cmd, flags)
			if err != nil {
				return err
			}

			deps := report.Deps{
				Modules:  moduleReader(cfg),
				Renderer: index.Renderer{Title: cfg.Title},
				Logger:   newLogger(cmd.ErrOrStderr(), cfg.LogLevel),
				Events:   events.NewEmitter(cmd.OutOrStdout()),
			}

			if _, err := report.RenderIndex(cmd.Context(), reportOptions(cfg), deps); err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Index written to %s\n", cfg.IndexPath())
			return nil
		},
	}

	bindRuntimeFlags(cmd, flags)

	return cmd
}
