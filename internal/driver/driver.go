// Package driver runs the packaging lifecycle: resolve the dependency
// set, stage dependency assets, then drive the selected backend through
// configure, build and (opt-in) install.
package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/replaykit/parcel/internal/env"
	"github.com/replaykit/parcel/internal/options"
	"github.com/replaykit/parcel/internal/resolve"
	"github.com/replaykit/parcel/internal/staging"
	"github.com/replaykit/parcel/pkgs/buildsys"
)

// Stage is a position in the lifecycle state machine.
type Stage int

const (
	StageInit Stage = iota
	StageResolved
	StageConfigured
	StageBuilt
	StageInstalled
)

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "init"
	case StageResolved:
		return "resolved"
	case StageConfigured:
		return "configured"
	case StageBuilt:
		return "built"
	case StageInstalled:
		return "installed"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Failure marks the lifecycle stage a run failed in. Already-completed
// stages keep their artifacts; there is no rollback, so partial build
// output stays inspectable.
type Failure struct {
	Stage Stage
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("failed at %s: %v", f.Stage, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Exit codes per failed stage, so callers can tell a resolution failure
// from a backend build failure.
const (
	ExitOK               = 0
	ExitFailure          = 1
	ExitFailedResolved   = 2
	ExitFailedConfigured = 3
	ExitFailedBuilt      = 4
	ExitFailedInstalled  = 5
)

// ExitCode maps an error returned by the driver (or the CLI around it) to
// a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var f *Failure
	if !errors.As(err, &f) {
		return ExitFailure
	}
	switch f.Stage {
	case StageResolved:
		return ExitFailedResolved
	case StageConfigured:
		return ExitFailedConfigured
	case StageBuilt:
		return ExitFailedBuilt
	case StageInstalled:
		return ExitFailedInstalled
	}
	return ExitFailure
}

// Config carries per-invocation driver settings beyond the option set.
type Config struct {
	SourceDir  string
	InstallDir string

	// Install opts in to the install step; packaging is distinct from
	// building.
	Install bool

	// CompDB copies the exported compile-command manifest to the source
	// root after a successful configure.
	CompDB bool

	// PackageRoot overrides where resolved dependency packages live.
	// Empty means the user cache (env.PackageDir).
	PackageRoot string

	// Rules are the staging rules to apply before configure; nil means
	// staging.DefaultRules.
	Rules []staging.Rule

	// Adapter overrides backend selection; nil selects by opts.Builder.
	Adapter buildsys.Adapter

	Logger *log.Logger
}

// Report summarizes a finished (or failed) run.
type Report struct {
	Stage        Stage
	Requirements []resolve.Requirement

	// InstallUnsupported is set when install was requested but the
	// backend does not implement it; reported as a warning, not a
	// failure.
	InstallUnsupported bool

	// CompileCommands is the manifest path, when the backend exported
	// one.
	CompileCommands string
}

// Driver owns one invocation. The option set is fixed at construction;
// the backend handle (adapter) lives for the duration of the run.
type Driver struct {
	opts    options.Set
	cfg     Config
	adapter buildsys.Adapter
	stage   Stage
	log     *log.Logger
}

// New builds a driver for one invocation. Backend selection is a pure
// function of the builder option.
func New(opts options.Set, cfg Config) (*Driver, error) {
	if cfg.SourceDir == "" {
		cfg.SourceDir = "."
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	adapter := cfg.Adapter
	if adapter == nil {
		var err error
		adapter, err = Select(opts.Builder, cfg.SourceDir)
		if err != nil {
			return nil, err
		}
	}
	if cfg.InstallDir != "" {
		adapter.InstallDir(cfg.InstallDir)
	}
	return &Driver{
		opts:    opts,
		cfg:     cfg,
		adapter: adapter,
		stage:   StageInit,
		log:     logger,
	}, nil
}

// Stage returns the lifecycle stage reached so far.
func (d *Driver) Stage() Stage { return d.stage }

func (d *Driver) fail(stage Stage, err error) error {
	return &Failure{Stage: stage, Err: err}
}

// Run executes the lifecycle through Built, and through Installed when
// install was requested. Each step either completes or fails atomically;
// nothing is retried.
func (d *Driver) Run() (*Report, error) {
	report := &Report{Stage: d.stage}

	reqs, err := d.resolveStep(report)
	if err != nil {
		return report, err
	}
	if err := d.configureStep(report, reqs); err != nil {
		return report, err
	}

	d.log.Info("building", "backend", d.adapter.Kind())
	if err := d.adapter.Build(); err != nil {
		return report, d.fail(StageBuilt, err)
	}
	d.stage = StageBuilt
	report.Stage = d.stage

	if d.opts.BuildDocs {
		// The docs branch never gates the primary artifact.
		if err := d.adapter.Docs(); err != nil {
			d.log.Warn("documentation build failed", "err", err)
		}
	}

	if d.cfg.Install {
		d.log.Info("installing", "backend", d.adapter.Kind())
		switch err := d.adapter.Install(); {
		case errors.Is(err, buildsys.ErrUnsupported):
			d.log.Warn("install not supported by backend", "backend", d.adapter.Kind())
			report.InstallUnsupported = true
		case err != nil:
			return report, d.fail(StageInstalled, err)
		default:
			d.stage = StageInstalled
			report.Stage = d.stage
		}
	}

	return report, nil
}

// RunDocs executes the lifecycle through configure and builds the
// documentation target. Unlike the docs branch of Run, a failure here is
// fatal: the caller asked for docs specifically.
func (d *Driver) RunDocs() (*Report, error) {
	report := &Report{Stage: d.stage}

	reqs, err := d.resolveStep(report)
	if err != nil {
		return report, err
	}
	if err := d.configureStep(report, reqs); err != nil {
		return report, err
	}

	d.log.Info("building documentation", "backend", d.adapter.Kind())
	if err := d.adapter.Docs(); err != nil {
		return report, d.fail(StageBuilt, err)
	}
	d.stage = StageBuilt
	report.Stage = d.stage
	return report, nil
}

func (d *Driver) resolveStep(report *Report) ([]resolve.Requirement, error) {
	d.log.Info("resolving dependencies", "builder", d.opts.Builder, "docs", d.opts.BuildDocs)
	reqs, err := resolve.Resolve(d.opts)
	if err != nil {
		return nil, d.fail(StageResolved, err)
	}
	d.stage = StageResolved
	report.Stage = d.stage
	report.Requirements = reqs
	d.log.Info("resolved", "requirements", len(reqs))
	return reqs, nil
}

func (d *Driver) configureStep(report *Report, reqs []resolve.Requirement) error {
	depDirs, err := d.packageDirs(reqs)
	if err != nil {
		return d.fail(StageConfigured, err)
	}

	rules := d.cfg.Rules
	if rules == nil {
		rules = staging.DefaultRules()
	}
	if err := staging.Stage(rules, depDirs, d.cfg.SourceDir); err != nil {
		return d.fail(StageConfigured, err)
	}

	for _, r := range reqs {
		if r.ToolOnly {
			continue
		}
		if dir := depDirs[r.Name]; dir != "" {
			if _, err := os.Stat(dir); err == nil {
				d.adapter.UsePackage(r.Name, dir)
			}
		}
	}

	d.log.Info("configuring", "backend", d.adapter.Kind())
	if err := d.adapter.Configure(d.opts, reqs); err != nil {
		return d.fail(StageConfigured, err)
	}
	d.stage = StageConfigured
	report.Stage = d.stage

	if path, err := d.adapter.CompileCommands(); err == nil {
		report.CompileCommands = path
		if d.cfg.CompDB {
			dest := filepath.Join(d.cfg.SourceDir, "compile_commands.json")
			if err := copyFile(path, dest); err != nil {
				d.log.Warn("could not copy compile commands", "err", err)
			}
		}
	}
	return nil
}

// packageDirs maps each requirement to its package tree under the package
// root. Existence is not checked here; staging reports missing trees it
// depends on, and UsePackage skips absent ones.
func (d *Driver) packageDirs(reqs []resolve.Requirement) (map[string]string, error) {
	root := d.cfg.PackageRoot
	if root == "" {
		var err error
		root, err = env.PackageDir()
		if err != nil {
			return nil, err
		}
	}
	dirs := make(map[string]string, len(reqs))
	for _, r := range reqs {
		dirs[r.Name] = env.PackagePath(root, r.Name, r.Version)
	}
	return dirs, nil
}

func copyFile(src, dest string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}
