package cli

import (
	"github.com/example/soyc-report/internal/config"
	"github.com/example/soyc-report/internal/events"
	"github.com/example/soyc-report/internal/report"
	"github.com/spf13/cobra"
)

func newGenerateCmd(loader *config.Loader) *cobra.Command {
	flags := &runtimeFlagSet{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the SOYC dashboard for every compiled module and write the index page",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(loader, cmd, flags)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

			deps, err := buildDeps(cmd, cfg, logger)
			if err != nil {
				return err
			}

			summary, runErr := report.Generate(cmd.Context(), reportOptions(cfg), deps)

			// The summary is written even for failed runs so the aborting module is on record.
			if cfg.SummaryFile != "" {
				if err := report.WriteSummary(cfg.SummaryFile, summary); err != nil {
					return err
				}
				if err := deps.Events.Send(events.SummaryWritten, "", events.Fields{"path": cfg.SummaryFile}); err != nil {
					return err
				}
			}

			return runErr
		},
	}

	bindRuntimeFlags(cmd, flags)

	return cmd
}
