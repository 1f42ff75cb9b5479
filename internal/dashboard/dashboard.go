package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/soyc-report/internal/locator"
)

const (
	// DefaultJava is the launcher used when none is configured.
	DefaultJava = "java"
	// DefaultClass is the SOYC dashboard entry point shipped in gwt-dev.
	DefaultClass = "com.google.gwt.soyc.SoycDashboard"
)

// ErrMissingInput is wrapped by precondition failures when a derived data file is absent.
var ErrMissingInput = errors.New("soyc input file missing")

// Runner defines the operations needed to drive the dashboard tool.
type Runner interface {
	EnsureBinary() error
	Run(ctx context.Context, inv Invocation) Result
}

// CommandRunner executes invocations as real child processes.
type CommandRunner struct {
	Binary  string
	Timeout time.Duration
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewRunner returns a command runner for the given java launcher.
func NewRunner(binary string) *CommandRunner {
	if binary == "" {
		binary = DefaultJava
	}
	return &CommandRunner{Binary: binary}
}

// Request carries everything needed to build one dashboard invocation.
type Request struct {
	Java      string
	JVMArgs   []string
	Class     string
	Classpath []string
	ReportDir string
	Match     locator.Match
	Inputs    locator.Inputs
}

// Invocation is a fully built command line for one module.
type Invocation struct {
	Module     string
	Executable string
	Args       []string
	OutDir     string
	Inputs     locator.Inputs
}

// String renders the invocation the way it would be typed in a shell.
func (inv Invocation) String() string {
	return strings.Join(append([]string{inv.Executable}, inv.Args...), " ")
}

// Build assembles `java [jvmArgs] -cp <cp> <class> -out <reportDir>/<module> <stories> <deps> <splitPoints>`.
func Build(req Request) (Invocation, error) {
	if req.Match.Module == "" {
		return Invocation{}, fmt.Errorf("%w: %q", locator.ErrNoModuleSegment, req.Match.Path)
	}
	if req.ReportDir == "" {
		return Invocation{}, errors.New("report directory cannot be empty")
	}

	java := req.Java
	if java == "" {
		java = DefaultJava
	}
	class := req.Class
	if class == "" {
		class = DefaultClass
	}

	reportDir, err := filepath.Abs(req.ReportDir)
	if err != nil {
		return Invocation{}, fmt.Errorf("resolve report directory: %w", err)
	}
	outDir := filepath.Join(reportDir, req.Match.Module)

	args := append([]string{}, req.JVMArgs...)
	if len(req.Classpath) > 0 {
		args = append(args, "-cp", strings.Join(req.Classpath, string(os.PathListSeparator)))
	}
	args = append(args, class, "-out", outDir)
	args = append(args, req.Inputs.Files()...)

	return Invocation{
		Module:     req.Match.Module,
		Executable: java,
		Args:       args,
		OutDir:     outDir,
		Inputs:     req.Inputs,
	}, nil
}

// CheckInputs verifies that all three data files exist before the tool is launched.
func CheckInputs(inv Invocation) *InvocationError {
	var missing []string
	for _, f := range inv.Inputs.Files() {
		info, err := os.Stat(f)
		if err != nil || info.IsDir() {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	return &InvocationError{
		Module: inv.Module,
		Reason: ReasonPrecondition,
		Err:    fmt.Errorf("%w: %s", ErrMissingInput, strings.Join(missing, ", ")),
	}
}

// EnsureBinary verifies that the java launcher is discoverable on PATH.
func (r *CommandRunner) EnsureBinary() error {
	if _, err := exec.LookPath(r.Binary); err != nil {
		return fmt.Errorf("java binary not found: %w", err)
	}
	return nil
}

// Run executes the invocation and blocks until the child exits.
func (r *CommandRunner) Run(ctx context.Context, inv Invocation) Result {
	result := Result{Invocation: inv, ExitCode: -1}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	if err := os.MkdirAll(inv.OutDir, 0o755); err != nil {
		result.Reason = ReasonLaunch
		result.Err = fmt.Errorf("create output directory: %w", err)
		return result
	}

	// Executable and arguments come from configuration and located files, not from remote input.
	cmd := exec.CommandContext(ctx, inv.Executable, inv.Args...) // #nosec G204
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		result.Reason = ReasonLaunch
		if ctx.Err() != nil {
			result.Reason = ReasonCanceled
		}
		result.Err = err
		return result
	}

	err := cmd.Wait()
	result.Duration = time.Since(start)
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	switch {
	case err == nil:
		result.Reason = ReasonNone
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.Reason = ReasonTimeout
		result.Err = fmt.Errorf("timed out after %s: %w", r.Timeout, ctx.Err())
	case errors.Is(ctx.Err(), context.Canceled):
		result.Reason = ReasonCanceled
		result.Err = ctx.Err()
	default:
		result.Reason = ReasonExit
		result.Err = err
	}
	return result
}
