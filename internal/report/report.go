// Package report drives a SOYC report run: locate raw compiler output, run the
// dashboard once per module, then write the index page linking every module.
//
// Invocations run strictly one after another and the first failure ends the
// run, so a published report set is either complete or absent.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/example/soyc-report/internal/dashboard"
	"github.com/example/soyc-report/internal/events"
	"github.com/example/soyc-report/internal/gwtmodule"
	"github.com/example/soyc-report/internal/index"
	"github.com/example/soyc-report/internal/locator"
	"github.com/example/soyc-report/internal/toolchain"
)

// NoReportWarning is logged when the scan root holds no raw SOYC output.
const NoReportWarning = "No SOYC raw report found, did you compile with soyc option set?"

// Options is the explicit configuration for one run.
type Options struct {
	ExtraDir     string
	ReportDir    string
	IndexPath    string
	LinkBase     string
	Java         string
	JVMArgs      []string
	Class        string
	VerifyInputs bool
	DryRun       bool
}

// Deps are the collaborators a run talks to.
type Deps struct {
	Runner   dashboard.Runner
	Resolver toolchain.Resolver
	Modules  gwtmodule.Reader
	Renderer index.Renderer
	Logger   *log.Logger
	Events   *events.Emitter
}

// Summary describes what a run did.
type Summary struct {
	GeneratedAt time.Time           `json:"generatedAt"`
	ExtraDir    string              `json:"extraDir"`
	ReportDir   string              `json:"reportDir"`
	Skipped     bool                `json:"skipped"`
	DryRun      bool                `json:"dryRun"`
	Classpath   []string            `json:"classpath,omitempty"`
	Invocations []InvocationSummary `json:"invocations"`
	IndexPath   string              `json:"indexPath,omitempty"`
	Modules     []string            `json:"modules,omitempty"`
}

// InvocationSummary records one dashboard run.
type InvocationSummary struct {
	Module   string   `json:"module"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Duration string   `json:"duration,omitempty"`
	Reason   string   `json:"reason"`
	Error    string   `json:"error,omitempty"`
}

func (d Deps) logger() *log.Logger {
	if d.Logger == nil {
		return log.New(io.Discard)
	}
	return d.Logger
}

// Generate runs the full pass. Zero matches is a warning, not an error, and skips the index.
func Generate(ctx context.Context, opts Options, deps Deps) (Summary, error) {
	logger := deps.logger()
	summary := Summary{
		GeneratedAt: time.Now().UTC(),
		ExtraDir:    opts.ExtraDir,
		ReportDir:   opts.ReportDir,
		DryRun:      opts.DryRun,
		Invocations: []InvocationSummary{},
	}

	matches, err := locator.Locate(opts.ExtraDir)
	if err != nil {
		return summary, fmt.Errorf("locate soyc reports: %w", err)
	}

	if len(matches) == 0 {
		logger.Warn(NoReportWarning, "dir", opts.ExtraDir)
		summary.Skipped = true
		return summary, deps.Events.Send(events.GenerateSkipped, NoReportWarning, events.Fields{"extraDir": opts.ExtraDir})
	}

	if err := deps.Events.Send(events.GenerateStart, "Generating SOYC reports", events.Fields{"matches": len(matches), "dryRun": opts.DryRun}); err != nil {
		return summary, err
	}

	// java is only needed once there is something to run.
	if !opts.DryRun && deps.Runner != nil {
		if err := deps.Runner.EnsureBinary(); err != nil {
			return summary, err
		}
	}

	classpath, err := resolveClasspath(ctx, opts, deps)
	if err != nil {
		return summary, err
	}
	summary.Classpath = classpath

	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		res, err := invoke(ctx, opts, deps, classpath, m)
		summary.Invocations = append(summary.Invocations, summarize(res))
		if err != nil {
			logger.Error("dashboard failed", "module", m.Module, "err", err)
			if serr := deps.Events.Send(events.InvocationFailed, err.Error(), events.Fields{"module": m.Module, "reason": string(res.Reason)}); serr != nil {
				err = errors.Join(err, serr)
			}
			return summary, fmt.Errorf("soyc report generation aborted: %w", err)
		}
	}

	written, err := RenderIndex(ctx, opts, deps)
	if err != nil {
		return summary, err
	}
	summary.IndexPath = opts.IndexPath
	summary.Modules = written

	return summary, deps.Events.Send(events.GenerateFinished, "SOYC reports complete", events.Fields{"invocations": len(summary.Invocations), "modules": len(written)})
}

func resolveClasspath(ctx context.Context, opts Options, deps Deps) ([]string, error) {
	if deps.Resolver == nil {
		if opts.DryRun {
			return nil, nil
		}
		return nil, toolchain.ErrNoSupportLibrary
	}

	cp, err := deps.Resolver.Classpath(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve gwt support library: %w", err)
	}
	deps.logger().Debug("resolved dashboard classpath", "entries", len(cp))
	return cp, nil
}

func invoke(ctx context.Context, opts Options, deps Deps, classpath []string, m locator.Match) (dashboard.Result, error) {
	logger := deps.logger()

	inputs, err := locator.DeriveInputs(opts.ExtraDir, m)
	if err != nil {
		return failed(dashboard.Invocation{Module: m.Module}, dashboard.ReasonPrecondition, err), err
	}

	inv, err := dashboard.Build(dashboard.Request{
		Java:      opts.Java,
		JVMArgs:   opts.JVMArgs,
		Class:     opts.Class,
		Classpath: classpath,
		ReportDir: opts.ReportDir,
		Match:     m,
		Inputs:    inputs,
	})
	if err != nil {
		return failed(dashboard.Invocation{Module: m.Module}, dashboard.ReasonPrecondition, err), err
	}

	if opts.VerifyInputs {
		if perr := dashboard.CheckInputs(inv); perr != nil {
			return failed(inv, dashboard.ReasonPrecondition, perr.Err), perr
		}
	}

	if opts.DryRun {
		logger.Info("dry run", "module", inv.Module, "cmd", inv.String())
		res := dashboard.Result{Invocation: inv, Reason: dashboard.ReasonNone}
		return res, deps.Events.Send(events.InvocationPlanned, inv.String(), events.Fields{"module": inv.Module, "out": inv.OutDir})
	}

	if deps.Runner == nil {
		err := errors.New("no dashboard runner configured")
		return failed(inv, dashboard.ReasonLaunch, err), err
	}

	logger.Info("running soyc dashboard", "module", inv.Module, "out", inv.OutDir)
	if err := deps.Events.Send(events.InvocationStart, "", events.Fields{"module": inv.Module, "out": inv.OutDir}); err != nil {
		return failed(inv, dashboard.ReasonLaunch, err), err
	}

	res := deps.Runner.Run(ctx, inv)
	if !res.OK() {
		return res, res.AsError()
	}

	logger.Debug("dashboard finished", "module", inv.Module, "duration", res.Duration)
	return res, deps.Events.Send(events.InvocationFinished, "", events.Fields{"module": inv.Module, "exitCode": res.ExitCode, "duration": res.Duration.String()})
}

func failed(inv dashboard.Invocation, reason dashboard.Reason, err error) dashboard.Result {
	return dashboard.Result{Invocation: inv, ExitCode: -1, Reason: reason, Err: err}
}

func summarize(res dashboard.Result) InvocationSummary {
	s := InvocationSummary{
		Module:   res.Invocation.Module,
		Args:     res.Invocation.Args,
		ExitCode: res.ExitCode,
		Reason:   string(res.Reason),
	}
	if res.Duration > 0 {
		s.Duration = res.Duration.String()
	}
	if res.Err != nil {
		s.Error = res.Err.Error()
	}
	return s
}

// RenderIndex reads every declared module and writes the index page. It returns the linked module names.
func RenderIndex(ctx context.Context, opts Options, deps Deps) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if deps.Modules == nil {
		return nil, errors.New("no gwt module reader configured")
	}
	if opts.IndexPath == "" {
		return nil, errors.New("index path cannot be empty")
	}

	modules, err := gwtmodule.ReadAll(deps.Modules)
	if err != nil {
		return nil, fmt.Errorf("render soyc index: %w", err)
	}

	entries := index.Entries(modules, opts.LinkBase)
	if err := deps.Renderer.WriteFile(opts.IndexPath, entries); err != nil {
		return nil, fmt.Errorf("write soyc index: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}

	deps.logger().Info("index written", "path", opts.IndexPath, "modules", len(names))
	if err := deps.Events.Send(events.IndexWritten, "", events.Fields{"path": opts.IndexPath, "modules": names}); err != nil {
		return nil, err
	}
	return names, nil
}

// WriteSummary stores the run summary as indented JSON.
func WriteSummary(path string, summary Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, append(data, '\n'), 0o644)
}
