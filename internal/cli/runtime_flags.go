package cli

import (
	"time"

	"github.com/example/soyc-report/internal/config"
	"github.com/example/soyc-report/internal/index"
	"github.com/spf13/cobra"
)

// runtimeFlagSet tracks shared flags before they are converted into config overrides.
type runtimeFlagSet struct {
	extraDir     string
	reportDir    string
	outputDir    string
	sourceRoots  string
	modules      string
	java         string
	gwtDevJar    string
	gwtHome      string
	classpath    string
	timeout      time.Duration
	verifyInputs bool
	dryRun       bool
	summaryFile  string
	title        string
}

func bindRuntimeFlags(cmd *cobra.Command, flags *runtimeFlagSet) {
	cmd.Flags().StringVar(&flags.extraDir, "extra-dir", "", "Directory holding the compiler's extra (SOYC) output")
	cmd.Flags().StringVar(&flags.reportDir, "report-dir", "", "Directory receiving one report per module (default <output-dir>/soyc)")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "Site output directory for the index page")
	cmd.Flags().StringVar(&flags.sourceRoots, "source-roots", "", "Comma-separated source roots searched for *.gwt.xml")
	cmd.Flags().StringVar(&flags.modules, "modules", "", "Comma-separated GWT module names (overrides scanning)")
	cmd.Flags().StringVar(&flags.java, "java", "", "Java launcher used to run the dashboard")
	cmd.Flags().StringVar(&flags.gwtDevJar, "gwt-dev-jar", "", "Path to gwt-dev.jar")
	cmd.Flags().StringVar(&flags.gwtHome, "gwt-home", "", "GWT distribution directory searched for gwt-dev*.jar")
	cmd.Flags().StringVar(&flags.classpath, "classpath", "", "Extra classpath entries for the dashboard")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Per-module dashboard timeout (0 disables)")
	cmd.Flags().BoolVar(&flags.verifyInputs, "verify-inputs", true, "Fail before launch when dependencies/splitPoints files are missing")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print dashboard invocations without running them")
	cmd.Flags().StringVar(&flags.summaryFile, "summary-file", "", "Optional summary JSON output path")
	cmd.Flags().StringVar(&flags.title, "title", "", "Index page title (default \""+index.DefaultTitle+"\")")
}

func (f *runtimeFlagSet) toOverrides(cmd *cobra.Command) config.Overrides {
	ov := config.Overrides{}
	changed := cmd.Flags().Changed

	if changed("extra-dir") {
		ov.ExtraDir = f.extraDir
	}

	if changed("report-dir") {
		ov.ReportDir = f.reportDir
	}

	if changed("output-dir") {
		ov.OutputDir = f.outputDir
	}

	if changed("source-roots") {
		ov.SourceRoots = config.ParseList(f.sourceRoots)
	}

	if changed("modules") {
		ov.Modules = config.ParseList(f.modules)
	}

	if changed("java") {
		ov.Java = f.java
	}

	if changed("gwt-dev-jar") {
		ov.GwtDevJar = f.gwtDevJar
	}

	if changed("gwt-home") {
		ov.GwtHome = f.gwtHome
	}

	if changed("classpath") {
		ov.Classpath = config.ParsePathList(f.classpath)
	}

	if changed("timeout") {
		timeout := f.timeout
		ov.Timeout = &timeout
	}

	if changed("verify-inputs") {
		verify := f.verifyInputs
		ov.VerifyInputs = &verify
	}

	if changed("dry-run") {
		dry := f.dryRun
		ov.DryRun = &dry
	}

	if changed("summary-file") {
		ov.SummaryFile = f.summaryFile
	}

	if changed("title") {
		ov.Title = f.title
	}

	return ov
}
