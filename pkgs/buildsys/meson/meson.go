// Package meson drives a Meson backend through the buildsys lifecycle.
package meson

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/replaykit/parcel/internal/options"
	"github.com/replaykit/parcel/internal/resolve"
	"github.com/replaykit/parcel/pkgs/buildsys"
)

// Meson wraps the meson setup/compile/install verbs.
type Meson struct {
	sourceDir  string
	buildDir   string
	installDir string
	buildType  string
	defs       map[string]string
	env        map[string]string
	pkgs       map[string]string
	run        buildsys.Runner
}

var _ buildsys.Adapter = (*Meson)(nil)

// New creates a Meson adapter rooted at sourceDir.
func New(sourceDir string) *Meson {
	return &Meson{
		sourceDir: sourceDir,
		buildDir:  filepath.Join(sourceDir, "build"),
		defs:      map[string]string{},
		env:       map[string]string{},
		pkgs:      map[string]string{},
		run:       buildsys.Run,
	}
}

func (m *Meson) Kind() options.Builder { return options.BuilderMeson }

func (m *Meson) Source(dir string) {
	m.sourceDir = dir
	m.buildDir = filepath.Join(dir, "build")
}

func (m *Meson) InstallDir(dir string) {
	m.installDir = dir
}

func (m *Meson) BuildDir(dir string) *Meson {
	m.buildDir = dir
	return m
}

func (m *Meson) BuildType(name string) *Meson {
	m.buildType = name
	return m
}

func (m *Meson) Define(key, value string) *Meson {
	m.defs[key] = value
	return m
}

func (m *Meson) Env(key, value string) {
	m.env[key] = value
}

// UsePackage points pkg-config and the library path at a dependency's
// package tree. Meson resolves dependencies through pkg-config, so that is
// the main channel here.
func (m *Meson) UsePackage(name, dir string) {
	m.pkgs[name] = dir

	pkgconfigDir := filepath.Join(dir, "lib", "pkgconfig")
	if _, err := os.Stat(pkgconfigDir); err == nil {
		buildsys.PrependPath(m.env, "PKG_CONFIG_PATH", pkgconfigDir)
	}
	libDir := filepath.Join(dir, "lib")
	if _, err := os.Stat(libDir); err == nil {
		buildsys.PrependPath(m.env, "LIBRARY_PATH", libDir)
	}
	includeDir := filepath.Join(dir, "include")
	if _, err := os.Stat(includeDir); err == nil {
		buildsys.AppendFlag(m.env, "CPPFLAGS", "-I"+includeDir)
	}
}

// Configure runs meson setup. A build directory that is already configured
// is reconfigured in place, keeping the step idempotent.
func (m *Meson) Configure(opts options.Set, reqs []resolve.Requirement, args ...string) error {
	if err := os.MkdirAll(m.buildDir, 0o755); err != nil {
		return &buildsys.BackendError{Tool: "meson", Step: "configure", Err: err}
	}

	if m.installDir != "" {
		m.defs["prefix"] = m.installDir
	}
	if m.buildType != "" {
		m.defs["buildtype"] = m.buildType
	}
	if opts.CompilerStd != "" {
		m.defs["cpp_std"] = "c++" + opts.CompilerStd
	}
	if v, ok := opts.BuildOption("fPIC"); ok {
		if v == "False" || v == "false" {
			m.defs["b_staticpic"] = "false"
		} else {
			m.defs["b_staticpic"] = "true"
		}
	}
	if opts.Compiler != "" {
		m.env["CXX"] = opts.Compiler
	}

	if err := buildsys.WriteDepsManifest(m.buildDir, reqs, m.pkgs); err != nil {
		return &buildsys.BackendError{Tool: "meson", Step: "configure", Err: err}
	}

	mesonArgs := []string{"setup", m.buildDir, m.sourceDir}
	if m.configured() {
		mesonArgs = append(mesonArgs, "--reconfigure")
	}
	mesonArgs = append(mesonArgs, m.defsArgs()...)
	mesonArgs = append(mesonArgs, args...)

	if err := m.run("meson", mesonArgs, m.env); err != nil {
		return &buildsys.BackendError{Tool: "meson", Step: "configure", Err: err}
	}
	return nil
}

func (m *Meson) Build(args ...string) error {
	cmdArgs := append([]string{"compile", "-C", m.buildDir}, args...)
	if err := m.run("meson", cmdArgs, m.env); err != nil {
		return &buildsys.BackendError{Tool: "meson", Step: "build", Err: err}
	}
	return nil
}

func (m *Meson) Install(args ...string) error {
	cmdArgs := append([]string{"install", "-C", m.buildDir}, args...)
	if err := m.run("meson", cmdArgs, m.env); err != nil {
		return &buildsys.BackendError{Tool: "meson", Step: "install", Err: err}
	}
	return nil
}

func (m *Meson) Docs() error {
	if err := m.run("meson", []string{"compile", "-C", m.buildDir, "docs"}, m.env); err != nil {
		return &buildsys.BackendError{Tool: "meson", Step: "docs", Err: err}
	}
	return nil
}

// CompileCommands returns the manifest meson emits during setup.
func (m *Meson) CompileCommands() (string, error) {
	path := filepath.Join(m.buildDir, "compile_commands.json")
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("compile commands not generated yet: %w", err)
	}
	return path, nil
}

func (m *Meson) OutputDir() string {
	if m.installDir != "" {
		return m.installDir
	}
	return m.buildDir
}

// configured reports whether the build directory already holds a meson
// configuration.
func (m *Meson) configured() bool {
	_, err := os.Stat(filepath.Join(m.buildDir, "meson-info"))
	return err == nil
}

func (m *Meson) defsArgs() []string {
	if len(m.defs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m.defs))
	for k := range m.defs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, "-D"+k+"="+m.defs[k])
	}
	return args
}
