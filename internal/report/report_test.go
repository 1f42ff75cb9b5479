package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/example/soyc-report/internal/dashboard"
	"github.com/example/soyc-report/internal/events"
	"github.com/example/soyc-report/internal/gwtmodule"
	"github.com/example/soyc-report/internal/toolchain"
)

// fakeRunner records invocations and fails on the module named in failOn.
type fakeRunner struct {
	failOn    string
	binaryErr error
	calls     []dashboard.Invocation
}

func (f *fakeRunner) EnsureBinary() error { return f.binaryErr }

func (f *fakeRunner) Run(ctx context.Context, inv dashboard.Invocation) dashboard.Result {
	f.calls = append(f.calls, inv)
	if inv.Module == f.failOn {
		return dashboard.Result{Invocation: inv, ExitCode: 1, Reason: dashboard.ReasonExit, Err: errors.New("exit status 1")}
	}
	return dashboard.Result{Invocation: inv, Reason: dashboard.ReasonNone}
}

type staticClasspath []string

func (s staticClasspath) Classpath(ctx context.Context) ([]string, error) { return s, nil }

type brokenReader struct{}

func (brokenReader) ModuleNames() ([]string, error) { return []string{"modA"}, nil }

func (brokenReader) ReadModule(name string) (gwtmodule.Module, error) {
	return gwtmodule.Module{}, errors.New("malformed descriptor")
}

type fixture struct {
	extra   string
	site    string
	sources string
}

func newFixture(t *testing.T, modules ...string) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{
		extra:   filepath.Join(root, "target", "extra"),
		site:    filepath.Join(root, "target", "site"),
		sources: filepath.Join(root, "src", "main", "java"),
	}
	for _, m := range modules {
		dir := filepath.Join(f.extra, m, "soycReport")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		for _, name := range []string{"stories0.xml.gz", "dependencies0.xml.gz", "splitPoints0.xml.gz"} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte("gz"), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
		}
	}
	return f
}

func (f fixture) declare(t *testing.T, names ...string) gwtmodule.Reader {
	t.Helper()
	if err := os.MkdirAll(f.sources, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(f.sources, n+".gwt.xml"), []byte("<module/>"), 0o600); err != nil {
			t.Fatalf("write descriptor: %v", err)
		}
	}
	return gwtmodule.DefaultReader{SourceRoots: []string{f.sources}, Declared: names}
}

func (f fixture) options() Options {
	return Options{
		ExtraDir:     f.extra,
		ReportDir:    filepath.Join(f.site, "soyc"),
		IndexPath:    filepath.Join(f.site, "soyc.html"),
		LinkBase:     "soyc",
		VerifyInputs: true,
	}
}

func TestGenerateRunsOncePerModuleAndLinksDeclaredModules(t *testing.T) {
	f := newFixture(t, "modA", "modB")
	runner := &fakeRunner{}
	stream := &bytes.Buffer{}

	summary, err := Generate(context.Background(), f.options(), Deps{
		Runner:   runner,
		Resolver: staticClasspath{"/opt/gwt/gwt-dev.jar"},
		Modules:  f.declare(t, "modA", "modB", "modC"),
		Events:   events.NewEmitter(stream),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(runner.calls) != 2 {
		t.Fatalf("expected 2 invocations, got %d", len(runner.calls))
	}
	for i, want := range []string{"modA", "modB"} {
		inv := runner.calls[i]
		if inv.Module != want {
			t.Fatalf("invocation %d: expected module %s, got %s", i, want, inv.Module)
		}
		if inv.OutDir != filepath.Join(f.site, "soyc", want) {
			t.Fatalf("unexpected out dir %s", inv.OutDir)
		}
		if !strings.HasSuffix(inv.Args[len(inv.Args)-1], filepath.Join(want, "soycReport", "splitPoints0.xml.gz")) {
			t.Fatalf("unexpected trailing arg %v", inv.Args)
		}
	}

	page, err := os.ReadFile(filepath.Join(f.site, "soyc.html"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if got := strings.Count(string(page), "<li><a href="); got != 3 {
		t.Fatalf("expected 3 links, got %d:\n%s", got, page)
	}
	if !strings.Contains(string(page), `href="soyc/modC/index.html"`) {
		t.Fatalf("modC link missing even without a report:\n%s", page)
	}

	if summary.Skipped || len(summary.Invocations) != 2 || len(summary.Modules) != 3 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if !strings.Contains(stream.String(), string(events.IndexWritten)) {
		t.Fatalf("expected index event, got %s", stream.String())
	}
}

func TestGenerateZeroMatchesWarnsAndSkips(t *testing.T) {
	f := newFixture(t)
	runner := &fakeRunner{}
	logs := &bytes.Buffer{}

	summary, err := Generate(context.Background(), f.options(), Deps{
		Runner:  runner,
		Modules: brokenReader{},
		Logger:  log.New(logs),
	})
	if err != nil {
		t.Fatalf("zero matches should not fail: %v", err)
	}

	if len(runner.calls) != 0 {
		t.Fatalf("expected no invocations, got %d", len(runner.calls))
	}
	if !summary.Skipped {
		t.Fatal("summary should be marked skipped")
	}
	if !strings.Contains(logs.String(), "No SOYC raw report found") {
		t.Fatalf("expected warning, got %q", logs.String())
	}
	if _, err := os.Stat(filepath.Join(f.site, "soyc.html")); !os.IsNotExist(err) {
		t.Fatalf("index should not be written on skip: %v", err)
	}
}

func TestGenerateZeroMatchesDoesNotNeedJava(t *testing.T) {
	f := newFixture(t)
	runner := &fakeRunner{binaryErr: errors.New("java binary not found")}

	summary, err := Generate(context.Background(), f.options(), Deps{
		Runner:  runner,
		Modules: f.declare(t, "modA"),
		Logger:  log.New(&bytes.Buffer{}),
	})
	if err != nil {
		t.Fatalf("zero matches should succeed without java: %v", err)
	}
	if !summary.Skipped {
		t.Fatal("summary should be marked skipped")
	}
}

func TestGenerateChecksJavaBeforeFirstInvocation(t *testing.T) {
	f := newFixture(t, "modA")
	missing := errors.New("java binary not found")
	runner := &fakeRunner{binaryErr: missing}

	_, err := Generate(context.Background(), f.options(), Deps{
		Runner:   runner,
		Resolver: staticClasspath{},
		Modules:  f.declare(t, "modA"),
		Logger:   log.New(&bytes.Buffer{}),
	})
	if !errors.Is(err, missing) {
		t.Fatalf("expected missing java error, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("expected no invocations, got %d", len(runner.calls))
	}
	if _, err := os.Stat(filepath.Join(f.site, "soyc.html")); !os.IsNotExist(err) {
		t.Fatalf("index should not be written: %v", err)
	}
}

func TestGenerateDryRunDoesNotCheckJava(t *testing.T) {
	f := newFixture(t, "modA")
	opts := f.options()
	opts.DryRun = true

	_, err := Generate(context.Background(), opts, Deps{
		Runner:  &fakeRunner{binaryErr: errors.New("java binary not found")},
		Modules: f.declare(t, "modA"),
		Logger:  log.New(&bytes.Buffer{}),
	})
	if err != nil {
		t.Fatalf("dry run should not need java: %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("stream closed") }

// rejectingWriter fails only the writes that contain reject.
type rejectingWriter struct{ reject string }

func (w rejectingWriter) Write(p []byte) (int, error) {
	if bytes.Contains(p, []byte(w.reject)) {
		return 0, errors.New("stream closed")
	}
	return len(p), nil
}

func TestGenerateZeroMatchesReportsEventFailure(t *testing.T) {
	f := newFixture(t)

	summary, err := Generate(context.Background(), f.options(), Deps{
		Runner:  &fakeRunner{},
		Modules: f.declare(t, "modA"),
		Logger:  log.New(&bytes.Buffer{}),
		Events:  events.NewEmitter(failingWriter{}),
	})
	if err == nil || !strings.Contains(err.Error(), "stream closed") {
		t.Fatalf("expected event write error, got %v", err)
	}
	if !summary.Skipped {
		t.Fatal("summary should still be marked skipped")
	}
}

func TestGenerateAbortKeepsInvocationErrorWhenEventsFail(t *testing.T) {
	f := newFixture(t, "modA")

	_, err := Generate(context.Background(), f.options(), Deps{
		Runner:   &fakeRunner{failOn: "modA"},
		Resolver: staticClasspath{},
		Modules:  f.declare(t, "modA"),
		Logger:   log.New(&bytes.Buffer{}),
		Events:   events.NewEmitter(rejectingWriter{reject: string(events.InvocationFailed)}),
	})
	var ierr *dashboard.InvocationError
	if !errors.As(err, &ierr) || ierr.Module != "modA" {
		t.Fatalf("expected invocation error for modA, got %v", err)
	}
	if !strings.Contains(err.Error(), "stream closed") {
		t.Fatalf("expected event write error to be reported, got %v", err)
	}
}

func TestGenerateAbortsOnFirstFailure(t *testing.T) {
	f := newFixture(t, "modA", "modB", "modC")
	runner := &fakeRunner{failOn: "modB"}

	summary, err := Generate(context.Background(), f.options(), Deps{
		Runner:   runner,
		Resolver: staticClasspath{},
		Modules:  f.declare(t, "modA", "modB", "modC"),
	})

	var ierr *dashboard.InvocationError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected invocation error, got %v", err)
	}
	if ierr.Module != "modB" || ierr.Reason != dashboard.ReasonExit {
		t.Fatalf("unexpected failure %+v", ierr)
	}

	if len(runner.calls) != 2 {
		t.Fatalf("expected invocations to stop after modB, got %d", len(runner.calls))
	}
	if len(summary.Invocations) != 2 || summary.Invocations[1].Reason != "exit" {
		t.Fatalf("unexpected summary %+v", summary.Invocations)
	}
	if _, err := os.Stat(filepath.Join(f.site, "soyc.html")); !os.IsNotExist(err) {
		t.Fatal("index should not be written after a failed invocation")
	}
}

func TestGenerateMissingSiblingIsPreconditionFailure(t *testing.T) {
	f := newFixture(t, "modA")
	if err := os.Remove(filepath.Join(f.extra, "modA", "soycReport", "dependencies0.xml.gz")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	runner := &fakeRunner{}

	_, err := Generate(context.Background(), f.options(), Deps{
		Runner:   runner,
		Resolver: staticClasspath{},
		Modules:  f.declare(t, "modA"),
	})
	if !errors.Is(err, dashboard.ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatal("runner must not be called when inputs are missing")
	}

	opts := f.options()
	opts.VerifyInputs = false
	if _, err := Generate(context.Background(), opts, Deps{Runner: runner, Resolver: staticClasspath{}, Modules: f.declare(t, "modA")}); err != nil {
		t.Fatalf("unverified run should proceed: %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(runner.calls))
	}
}

func TestGenerateRequiresSupportLibrary(t *testing.T) {
	f := newFixture(t, "modA")
	_, err := Generate(context.Background(), f.options(), Deps{Runner: &fakeRunner{}, Modules: f.declare(t, "modA")})
	if !errors.Is(err, toolchain.ErrNoSupportLibrary) {
		t.Fatalf("expected ErrNoSupportLibrary, got %v", err)
	}
}

func TestGenerateDryRunPlansWithoutRunning(t *testing.T) {
	f := newFixture(t, "modA")
	stream := &bytes.Buffer{}
	opts := f.options()
	opts.DryRun = true

	summary, err := Generate(context.Background(), opts, Deps{
		Modules: f.declare(t, "modA"),
		Events:  events.NewEmitter(stream),
	})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !strings.Contains(stream.String(), string(events.InvocationPlanned)) {
		t.Fatalf("expected planned invocation event, got %s", stream.String())
	}
	if len(summary.Invocations) != 1 || summary.Invocations[0].Module != "modA" {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.IndexPath == "" {
		t.Fatal("dry run should still render the index")
	}
}

func TestRenderIndexFailsWholeOnDescriptorError(t *testing.T) {
	f := newFixture(t)
	_, err := RenderIndex(context.Background(), f.options(), Deps{Modules: brokenReader{}})
	if err == nil || !strings.Contains(err.Error(), "malformed descriptor") {
		t.Fatalf("expected descriptor error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(f.site, "soyc.html")); !os.IsNotExist(err) {
		t.Fatal("no partial index should be written")
	}
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "summary.json")
	summary := Summary{
		ExtraDir:    "target/extra",
		Invocations: []InvocationSummary{{Module: "modA", Reason: "none"}},
		Modules:     []string{"modA"},
	}

	if err := WriteSummary(path, summary); err != nil {
		t.Fatalf("write summary: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("parse summary json: %v", err)
	}
	if parsed["extraDir"] != "target/extra" {
		t.Fatalf("summary missing extraDir: %+v", parsed)
	}
}
