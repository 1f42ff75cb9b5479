package cli

import (
	"github.com/example/soyc-report/internal/config"
	"github.com/example/soyc-report/internal/events"
	"github.com/example/soyc-report/internal/locator"
	"github.com/example/soyc-report/internal/report"
	"github.com/spf13/cobra"
)

func newScanCmd(loader *config.Loader) *cobra.Command {
	flags := &runtimeFlagSet{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List raw SOYC reports found in the extra directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(loader, cmd, flags)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

			matches, err := locator.Locate(cfg.ExtraDir)
			if err != nil {
				return err
			}

			if len(matches) == 0 {
				logger.Warn(report.NoReportWarning, "dir", cfg.ExtraDir)
				return nil
			}

			emitter := events.NewEmitter(cmd.OutOrStdout())
			for _, m := range matches {
				inputs, err := locator.DeriveInputs(cfg.ExtraDir, m)
				if err != nil {
					return err
				}
				if err := emitter.Send(events.MatchFound, "", events.Fields{
					"module":       m.Module,
					"path":         m.Path,
					"dependencies": inputs.Dependencies,
					"splitPoints":  inputs.SplitPoints,
				}); err != nil {
					return err
				}
			}
			return nil
		},
	}

	bindRuntimeFlags(cmd, flags)

	return cmd
}
