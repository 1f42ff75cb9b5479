package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/example/soyc-report/internal/config"
	"github.com/example/soyc-report/internal/dashboard"
	"github.com/example/soyc-report/internal/events"
	"github.com/example/soyc-report/internal/gwtmodule"
	"github.com/example/soyc-report/internal/index"
	"github.com/example/soyc-report/internal/report"
	"github.com/example/soyc-report/internal/toolchain"
)

func ensureOutputDir(path string) error {
	if path == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	return os.MkdirAll(path, 0o755)
}

func newLogger(w io.Writer, level string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{Prefix: "soyc"})
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

func loadConfig(loader *config.Loader, cmd *cobra.Command, flags *runtimeFlagSet) (config.RuntimeConfig, error) {
	cfg, err := loader.Load(flags.toOverrides(cmd))
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func reportOptions(cfg config.RuntimeConfig) report.Options {
	return report.Options{
		ExtraDir:     cfg.ExtraDir,
		ReportDir:    cfg.ReportRoot(),
		IndexPath:    cfg.IndexPath(),
		LinkBase:     cfg.LinkBase(),
		Java:         cfg.Java,
		JVMArgs:      cfg.JVMArgs,
		Class:        cfg.DashboardClass,
		VerifyInputs: cfg.VerifyInputs,
		DryRun:       cfg.DryRun,
	}
}

func newResolver(cfg config.RuntimeConfig) (toolchain.Resolver, error) {
	resolver, err := toolchain.NewResolver(toolchain.Settings{
		DevJar: cfg.GwtDevJar,
		Home:   cfg.GwtHome,
		Extra:  cfg.Classpath,
	})
	if errors.Is(err, toolchain.ErrNoSupportLibrary) {
		// Only fatal once there is something to run.
		return nil, nil
	}
	return resolver, err
}

func moduleReader(cfg config.RuntimeConfig) gwtmodule.Reader {
	return gwtmodule.DefaultReader{SourceRoots: cfg.SourceRoots, Declared: cfg.Modules}
}

// buildDeps wires the production collaborators. Child process output goes to stderr so stdout stays NDJSON.
func buildDeps(cmd *cobra.Command, cfg config.RuntimeConfig, logger *log.Logger) (report.Deps, error) {
	resolver, err := newResolver(cfg)
	if err != nil {
		return report.Deps{}, err
	}

	runner := dashboard.NewRunner(cfg.Java)
	runner.Timeout = cfg.Timeout
	runner.Stdout = cmd.ErrOrStderr()
	runner.Stderr = cmd.ErrOrStderr()

	return report.Deps{
		Runner:   runner,
		Resolver: resolver,
		Modules:  moduleReader(cfg),
		Renderer: index.Renderer{Title: cfg.Title},
		Logger:   logger,
		Events:   events.NewEmitter(cmd.OutOrStdout()),
	}, nil
}
