package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/example/soyc-report/internal/config"
	"github.com/example/soyc-report/internal/dashboard"
	"github.com/example/soyc-report/internal/gwtmodule"
	"github.com/example/soyc-report/internal/locator"
	"github.com/example/soyc-report/internal/toolchain"
	"github.com/spf13/cobra"
)

type doctorCheck struct {
	Name   string
	Status string // "✓", "✗" or "⊘"
	Detail string
	Error  error
}

func newDoctorCmd(loader *config.Loader) *cobra.Command {
	flags := &runtimeFlagSet{}
	var timeout int

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate java, the GWT support library, and the project layout",
		Long: `The doctor subcommand performs comprehensive validation of the soyc-report environment:
- java launcher presence and version
- gwt-dev support library resolution
- raw SOYC output in the extra directory
- GWT module descriptors in the source roots
- configuration validity and output directory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loader.Load(flags.toOverrides(cmd))
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeout)*time.Second)
			defer cancel()

			checks := runDoctorChecks(ctx, &cfg)
			printDoctorReport(cmd, checks)

			for _, check := range checks {
				if check.Error != nil {
					return fmt.Errorf("doctor checks failed")
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "\n✓ All checks passed. System is ready.")
			return nil
		},
	}

	bindRuntimeFlags(cmd, flags)
	cmd.Flags().IntVar(&timeout, "timeout-seconds", 30, "Timeout in seconds for the diagnostics")

	return cmd
}

func runDoctorChecks(ctx context.Context, cfg *config.RuntimeConfig) []doctorCheck {
	checks := []doctorCheck{}

	javaCheck := checkJavaBinary(ctx, cfg.Java, cfg.DryRun)
	checks = append(checks, javaCheck)

	checks = append(checks, checkSupportLibrary(ctx, cfg))
	checks = append(checks, checkRawReports(cfg.ExtraDir))
	checks = append(checks, checkModules(cfg))
	checks = append(checks, checkConfiguration(cfg))
	checks = append(checks, checkOutputDirectory(cfg.OutputDir))

	return checks
}

func checkJavaBinary(ctx context.Context, java string, dryRun bool) doctorCheck {
	if dryRun {
		return doctorCheck{
			Name:   "Java Launcher",
			Status: "⊘",
			Detail: "Skipped (dry-run mode)",
		}
	}

	if err := dashboard.NewRunner(java).EnsureBinary(); err != nil {
		return doctorCheck{
			Name:   "Java Launcher",
			Status: "✗",
			Detail: fmt.Sprintf("%s not found in PATH", java),
			Error:  err,
		}
	}

	detail := "Available"
	if version, err := getJavaVersion(ctx, java); err == nil {
		detail = version
	}

	return doctorCheck{
		Name:   "Java Launcher",
		Status: "✓",
		Detail: detail,
	}
}

// getJavaVersion returns the first line of `java -version`, which the JVM prints on stderr.
func getJavaVersion(ctx context.Context, java string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, java, "-version").CombinedOutput() // #nosec G204
	if err != nil {
		return "", err
	}

	line, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	if line == "" {
		return "unknown", nil
	}
	return line, nil
}

func checkSupportLibrary(ctx context.Context, cfg *config.RuntimeConfig) doctorCheck {
	check := doctorCheck{Name: "GWT Support Library"}

	resolver, err := toolchain.NewResolver(toolchain.Settings{DevJar: cfg.GwtDevJar, Home: cfg.GwtHome, Extra: cfg.Classpath})
	if err == nil {
		var cp []string
		cp, err = resolver.Classpath(ctx)
		if err == nil {
			check.Status = "✓"
			check.Detail = cp[0]
			return check
		}
	}

	if errors.Is(err, toolchain.ErrNoSupportLibrary) && cfg.DryRun {
		check.Status = "⊘"
		check.Detail = "Not configured (dry-run mode)"
		return check
	}

	check.Status = "✗"
	check.Detail = "Unresolved"
	check.Error = err
	return check
}

func checkRawReports(extraDir string) doctorCheck {
	matches, err := locator.Locate(extraDir)
	if err != nil {
		return doctorCheck{
			Name:   "Raw SOYC Reports",
			Status: "✗",
			Detail: extraDir,
			Error:  err,
		}
	}

	if len(matches) == 0 {
		return doctorCheck{
			Name:   "Raw SOYC Reports",
			Status: "⊘",
			Detail: fmt.Sprintf("None in %s (compile with -compileReport)", extraDir),
		}
	}

	return doctorCheck{
		Name:   "Raw SOYC Reports",
		Status: "✓",
		Detail: fmt.Sprintf("%d module(s) in %s", len(matches), extraDir),
	}
}

func checkModules(cfg *config.RuntimeConfig) doctorCheck {
	modules, err := gwtmodule.ReadAll(moduleReader(*cfg))
	if err != nil {
		return doctorCheck{
			Name:   "GWT Modules",
			Status: "✗",
			Detail: "Unreadable module descriptors",
			Error:  err,
		}
	}

	names := make([]string, 0, len(modules))
	for _, m := range modules {
		names = append(names, m.Name)
	}

	if len(names) == 0 {
		return doctorCheck{
			Name:   "GWT Modules",
			Status: "⊘",
			Detail: "No *.gwt.xml found; the index will be empty",
		}
	}

	return doctorCheck{
		Name:   "GWT Modules",
		Status: "✓",
		Detail: strings.Join(names, ", "),
	}
}

func checkConfiguration(cfg *config.RuntimeConfig) doctorCheck {
	if err := cfg.Validate(); err != nil {
		return doctorCheck{
			Name:   "Configuration",
			Status: "✗",
			Detail: "Invalid configuration",
			Error:  err,
		}
	}

	return doctorCheck{
		Name:   "Configuration",
		Status: "✓",
		Detail: fmt.Sprintf("reports=%s, verifyInputs=%t", cfg.ReportRoot(), cfg.VerifyInputs),
	}
}

func checkOutputDirectory(outputDir string) doctorCheck {
	err := ensureOutputDir(outputDir)
	if err == nil {
		err = probeWritable(outputDir)
	}
	if err != nil {
		return doctorCheck{
			Name:   "Output Directory",
			Status: "✗",
			Detail: outputDir,
			Error:  err,
		}
	}

	return doctorCheck{
		Name:   "Output Directory",
		Status: "✓",
		Detail: outputDir,
	}
}

func probeWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".soyc-doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func printDoctorReport(cmd *cobra.Command, checks []doctorCheck) {
	fmt.Fprintln(cmd.OutOrStdout(), "Running environment diagnostics...")

	for _, check := range checks {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %-30s %s\n", check.Status, check.Name+":", check.Detail)
		if check.Error != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "   Error: %v\n", check.Error)
		}
	}
}
