package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "soyc-report.yml"
	DefaultOutputName = "soyc"

	envExtraDir       = "SOYC_EXTRA_DIR"
	envReportDir      = "SOYC_REPORT_DIR"
	envOutputDir      = "SOYC_OUTPUT_DIR"
	envSourceRoots    = "SOYC_SOURCE_ROOTS"
	envModules        = "SOYC_MODULES"
	envJava           = "SOYC_JAVA"
	envJVMArgs        = "SOYC_JVM_ARGS"
	envDashboardClass = "SOYC_DASHBOARD_CLASS"
	envGwtDevJar      = "SOYC_GWT_DEV_JAR"
	envGwtHome        = "SOYC_GWT_HOME"
	envClasspath      = "SOYC_CLASSPATH"
	envTimeout        = "SOYC_TIMEOUT"
	envVerifyInputs   = "SOYC_VERIFY_INPUTS"
	envDryRun         = "SOYC_DRY_RUN"
	envSummaryFile    = "SOYC_SUMMARY_FILE"
	envTitle          = "SOYC_TITLE"
	envLogLevel       = "SOYC_LOG_LEVEL"
)

// Loader merges configuration coming from files, environment variables, and CLI flags.
type Loader struct {
	ConfigPath string
	// LogLevel, when set, wins over every other source.
	LogLevel string
}

// RuntimeConfig contains the fully merged settings required by the sub-commands.
type RuntimeConfig struct {
	ExtraDir       string
	ReportDir      string
	OutputDir      string
	OutputName     string
	SourceRoots    []string
	Modules        []string
	Java           string
	JVMArgs        []string
	DashboardClass string
	GwtDevJar      string
	GwtHome        string
	Classpath      []string
	Timeout        time.Duration
	VerifyInputs   bool
	DryRun         bool
	SummaryFile    string
	Title          string
	LogLevel       string
}

// Overrides captures values coming from the config file, env vars or CLI flags.
// Empty values and nil pointers leave the current setting alone.
type Overrides struct {
	ExtraDir       string
	ReportDir      string
	OutputDir      string
	OutputName     string
	SourceRoots    []string
	Modules        []string
	Java           string
	JVMArgs        []string
	DashboardClass string
	GwtDevJar      string
	GwtHome        string
	Classpath      []string
	Timeout        *time.Duration
	VerifyInputs   *bool
	DryRun         *bool
	SummaryFile    string
	Title          string
	LogLevel       string
}

// DefaultRuntimeConfig mirrors a Maven project layout.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		ExtraDir:       filepath.Join("target", "extra"),
		OutputDir:      filepath.Join("target", "site"),
		OutputName:     DefaultOutputName,
		SourceRoots:    []string{filepath.Join("src", "main", "java"), filepath.Join("src", "main", "resources")},
		Java:           "java",
		DashboardClass: "com.google.gwt.soyc.SoycDashboard",
		VerifyInputs:   true,
		LogLevel:       "info",
	}
}

// Load resolves the final runtime configuration.
func (l Loader) Load(override Overrides) (RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()

	path := l.ConfigPath
	if path == "" {
		path = DefaultConfigPath
	}

	if fileExists(path) {
		fileOv, err := loadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load %s: %w", path, err)
		}
		cfg.apply(fileOv)
	}

	envOv, err := overridesFromEnv()
	if err != nil {
		return cfg, err
	}
	cfg.apply(envOv)
	cfg.apply(override)
	cfg.apply(Overrides{LogLevel: l.LogLevel})

	return cfg, nil
}

// Validate ensures the config contains the minimum required data.
func (c RuntimeConfig) Validate() error {
	if c.ExtraDir == "" {
		return errors.New("extra directory cannot be empty")
	}

	if c.OutputDir == "" {
		return errors.New("output directory cannot be empty")
	}

	if c.OutputName == "" || strings.ContainsAny(c.OutputName, `/\`) {
		return fmt.Errorf("output name must be a plain file name (got %q)", c.OutputName)
	}

	if len(c.SourceRoots) == 0 && len(c.Modules) == 0 {
		return errors.New("at least one source root or declared module is required")
	}

	if c.Java == "" {
		return errors.New("java launcher must be specified")
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative (got %s)", c.Timeout)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}

	return nil
}

// ReportRoot is the directory that receives one subdirectory per module.
func (c RuntimeConfig) ReportRoot() string {
	if c.ReportDir != "" {
		return c.ReportDir
	}
	return filepath.Join(c.OutputDir, c.OutputName)
}

// IndexPath is where the index page is written.
func (c RuntimeConfig) IndexPath() string {
	return filepath.Join(c.OutputDir, c.OutputName+".html")
}

// LinkBase is the slash separated path from the index page to the report root.
func (c RuntimeConfig) LinkBase() string {
	rel, err := filepath.Rel(c.OutputDir, c.ReportRoot())
	if err != nil {
		return filepath.ToSlash(c.ReportRoot())
	}
	return filepath.ToSlash(rel)
}

func (c *RuntimeConfig) apply(src Overrides) {
	setString(&c.ExtraDir, src.ExtraDir)
	setString(&c.ReportDir, src.ReportDir)
	setString(&c.OutputDir, src.OutputDir)
	setString(&c.OutputName, src.OutputName)
	setString(&c.Java, src.Java)
	setString(&c.DashboardClass, src.DashboardClass)
	setString(&c.GwtDevJar, src.GwtDevJar)
	setString(&c.GwtHome, src.GwtHome)
	setString(&c.SummaryFile, src.SummaryFile)
	setString(&c.Title, src.Title)
	setString(&c.LogLevel, strings.ToLower(src.LogLevel))

	setList(&c.SourceRoots, src.SourceRoots)
	setList(&c.Modules, src.Modules)
	setList(&c.JVMArgs, src.JVMArgs)
	setList(&c.Classpath, src.Classpath)

	if src.Timeout != nil {
		c.Timeout = *src.Timeout
	}

	if src.VerifyInputs != nil {
		c.VerifyInputs = *src.VerifyInputs
	}

	if src.DryRun != nil {
		c.DryRun = *src.DryRun
	}
}

func setString(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, values []string) {
	if cleaned := cleanList(values); len(cleaned) > 0 {
		*dst = cleaned
	}
}

func loadFromFile(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Overrides{}, err
	}

	type rawConfig struct {
		ExtraDir       string   `yaml:"extraDir"`
		ReportDir      string   `yaml:"reportDir"`
		OutputDir      string   `yaml:"outputDir"`
		OutputName     string   `yaml:"outputName"`
		SourceRoots    listFlex `yaml:"sourceRoots"`
		Modules        listFlex `yaml:"modules"`
		Java           string   `yaml:"java"`
		JVMArgs        []string `yaml:"jvmArgs"`
		DashboardClass string   `yaml:"dashboardClass"`
		GwtDevJar      string   `yaml:"gwtDevJar"`
		GwtHome        string   `yaml:"gwtHome"`
		Classpath      listFlex `yaml:"classpath"`
		Timeout        string   `yaml:"timeout"`
		VerifyInputs   *bool    `yaml:"verifyInputs"`
		DryRun         *bool    `yaml:"dryRun"`
		SummaryFile    string   `yaml:"summaryFile"`
		Title          string   `yaml:"title"`
		LogLevel       string   `yaml:"logLevel"`
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Overrides{}, err
	}

	over := Overrides{
		ExtraDir:       raw.ExtraDir,
		ReportDir:      raw.ReportDir,
		OutputDir:      raw.OutputDir,
		OutputName:     raw.OutputName,
		SourceRoots:    raw.SourceRoots,
		Modules:        raw.Modules,
		Java:           raw.Java,
		JVMArgs:        raw.JVMArgs,
		DashboardClass: raw.DashboardClass,
		GwtDevJar:      raw.GwtDevJar,
		GwtHome:        raw.GwtHome,
		Classpath:      raw.Classpath,
		VerifyInputs:   raw.VerifyInputs,
		DryRun:         raw.DryRun,
		SummaryFile:    raw.SummaryFile,
		Title:          raw.Title,
		LogLevel:       raw.LogLevel,
	}

	if raw.Timeout != "" {
		d, err := ParseTimeout(raw.Timeout)
		if err != nil {
			return Overrides{}, err
		}
		over.Timeout = &d
	}

	return over, nil
}

func overridesFromEnv() (Overrides, error) {
	ov := Overrides{
		ExtraDir:       os.Getenv(envExtraDir),
		ReportDir:      os.Getenv(envReportDir),
		OutputDir:      os.Getenv(envOutputDir),
		Java:           os.Getenv(envJava),
		DashboardClass: os.Getenv(envDashboardClass),
		GwtDevJar:      os.Getenv(envGwtDevJar),
		GwtHome:        os.Getenv(envGwtHome),
		SummaryFile:    os.Getenv(envSummaryFile),
		Title:          os.Getenv(envTitle),
		LogLevel:       os.Getenv(envLogLevel),
	}

	if value := os.Getenv(envSourceRoots); value != "" {
		ov.SourceRoots = ParseList(value)
	}

	if value := os.Getenv(envModules); value != "" {
		ov.Modules = ParseList(value)
	}

	if value := os.Getenv(envJVMArgs); value != "" {
		ov.JVMArgs = strings.Fields(value)
	}

	if value := os.Getenv(envClasspath); value != "" {
		ov.Classpath = ParsePathList(value)
	}

	if value := os.Getenv(envTimeout); value != "" {
		d, err := ParseTimeout(value)
		if err != nil {
			return ov, fmt.Errorf("%s: %w", envTimeout, err)
		}
		ov.Timeout = &d
	}

	if value := os.Getenv(envVerifyInputs); value != "" {
		parsed := parseBool(value)
		ov.VerifyInputs = &parsed
	}

	if value := os.Getenv(envDryRun); value != "" {
		parsed := parseBool(value)
		ov.DryRun = &parsed
	}

	return ov, nil
}

// ParseTimeout accepts Go durations ("90s", "5m") or a bare number of seconds.
func ParseTimeout(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q", value)
	}
	return d, nil
}

// ParseList turns comma or newline separated input into individual values.
func ParseList(input string) []string {
	return splitOnDelimiters(input, []rune{',', '\n', '\r'})
}

// ParsePathList splits on the OS path list separator as well as commas.
func ParsePathList(input string) []string {
	return splitOnDelimiters(input, []rune{',', '\n', '\r', os.PathListSeparator})
}

func parseBool(value string) bool {
	return strings.EqualFold(value, "true") || value == "1"
}

func splitOnDelimiters(input string, delims []rune) []string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil
	}

	separator := func(r rune) bool {
		for _, d := range delims {
			if r == d {
				return true
			}
		}
		return false
	}

	return cleanList(strings.FieldsFunc(trimmed, separator))
}

func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		candidate := strings.TrimSpace(v)
		if candidate != "" {
			out = append(out, candidate)
		}
	}
	return out
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// listFlex enables YAML fields that can be specified as a scalar or sequence.
type listFlex []string

func (t *listFlex) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var out []string
		for _, node := range value.Content {
			out = append(out, strings.TrimSpace(node.Value))
		}
		*t = cleanList(out)
	case yaml.ScalarNode:
		*t = ParseList(value.Value)
	default:
		return fmt.Errorf("unsupported YAML type for list value")
	}
	return nil
}
