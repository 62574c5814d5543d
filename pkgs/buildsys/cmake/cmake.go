// Package cmake drives a CMake backend through the buildsys lifecycle.
package cmake

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/replaykit/parcel/internal/options"
	"github.com/replaykit/parcel/internal/resolve"
	"github.com/replaykit/parcel/pkgs/buildsys"
)

type defineValue struct {
	value    string
	typeName string
}

// CMake wraps common CMake build steps with chainable configuration.
type CMake struct {
	sourceDir  string
	buildDir   string
	installDir string
	generator  string
	buildType  string
	toolchain  string
	defines    map[string]defineValue
	env        map[string]string
	pkgs       map[string]string
	run        buildsys.Runner
}

var _ buildsys.Adapter = (*CMake)(nil)

// New creates a CMake adapter rooted at sourceDir. The build directory is
// a fixed child of the source tree so that re-running Configure reuses the
// same on-disk configuration instead of failing.
func New(sourceDir string) *CMake {
	return &CMake{
		sourceDir: sourceDir,
		buildDir:  filepath.Join(sourceDir, "build"),
		defines:   map[string]defineValue{},
		env:       map[string]string{},
		pkgs:      map[string]string{},
		run:       buildsys.Run,
	}
}

func (c *CMake) Kind() options.Builder { return options.BuilderCMake }

func (c *CMake) Source(dir string) {
	c.sourceDir = dir
	c.buildDir = filepath.Join(dir, "build")
}

func (c *CMake) InstallDir(dir string) {
	c.installDir = dir
}

func (c *CMake) BuildDir(dir string) *CMake {
	c.buildDir = dir
	return c
}

func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

func (c *CMake) Toolchain(path string) *CMake {
	c.toolchain = path
	return c
}

func (c *CMake) Define(key, value string) *CMake {
	c.defines[key] = defineValue{value: value, typeName: "STRING"}
	return c
}

func (c *CMake) DefineBool(key string, value bool) *CMake {
	if value {
		c.defines[key] = defineValue{value: "ON", typeName: "BOOL"}
		return c
	}
	c.defines[key] = defineValue{value: "OFF", typeName: "BOOL"}
	return c
}

func (c *CMake) Env(key, value string) {
	c.env[key] = value
}

// UsePackage configures the build environment to resolve headers and
// libraries from a dependency's package tree.
func (c *CMake) UsePackage(name, dir string) {
	c.pkgs[name] = dir

	includeDir := filepath.Join(dir, "include")
	libDir := filepath.Join(dir, "lib")
	pkgconfigDir := filepath.Join(libDir, "pkgconfig")

	if _, err := os.Stat(pkgconfigDir); err == nil {
		buildsys.PrependPath(c.env, "PKG_CONFIG_PATH", pkgconfigDir)
	}
	if _, err := os.Stat(dir); err == nil {
		buildsys.PrependPath(c.env, "CMAKE_PREFIX_PATH", dir)
	}
	if _, err := os.Stat(includeDir); err == nil {
		buildsys.PrependPath(c.env, "CMAKE_INCLUDE_PATH", includeDir)
	}
	if _, err := os.Stat(libDir); err == nil {
		buildsys.PrependPath(c.env, "CMAKE_LIBRARY_PATH", libDir)
	}

	if runtime.GOOS == "windows" {
		if _, err := os.Stat(includeDir); err == nil {
			buildsys.PrependPath(c.env, "INCLUDE", includeDir)
		}
		if _, err := os.Stat(libDir); err == nil {
			buildsys.PrependPath(c.env, "LIB", libDir)
		}
	} else {
		if _, err := os.Stat(includeDir); err == nil {
			buildsys.AppendFlag(c.env, "CPPFLAGS", "-I"+includeDir)
		}
		if _, err := os.Stat(libDir); err == nil {
			buildsys.AppendFlag(c.env, "LDFLAGS", "-L"+libDir)
		}
	}
}

// Configure generates the build system in the build directory. Compile
// command export is always enabled so IDE tooling can pick up per-file
// flags.
func (c *CMake) Configure(opts options.Set, reqs []resolve.Requirement, args ...string) error {
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return &buildsys.BackendError{Tool: "cmake", Step: "configure", Err: err}
	}

	c.DefineBool("CMAKE_EXPORT_COMPILE_COMMANDS", true)
	if c.installDir != "" {
		c.Define("CMAKE_INSTALL_PREFIX", c.installDir)
	}
	if c.toolchain != "" {
		c.Define("CMAKE_TOOLCHAIN_FILE", c.toolchain)
	}
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	if opts.CompilerStd != "" {
		c.Define("CMAKE_CXX_STANDARD", opts.CompilerStd)
	}
	if v, ok := opts.BuildOption("fPIC"); ok {
		c.DefineBool("CMAKE_POSITION_INDEPENDENT_CODE", v != "False" && v != "false")
	}
	if opts.Compiler != "" {
		c.env["CXX"] = opts.Compiler
	}
	if opts.OS != "" && opts.OS != systemName(runtime.GOOS) && opts.OS != runtime.GOOS {
		c.Define("CMAKE_SYSTEM_NAME", systemName(opts.OS))
		c.Define("CMAKE_SYSTEM_PROCESSOR", opts.Arch)
	}

	if err := buildsys.WriteDepsManifest(c.buildDir, reqs, c.pkgs); err != nil {
		return &buildsys.BackendError{Tool: "cmake", Step: "configure", Err: err}
	}

	cmakeArgs := []string{"-S", c.sourceDir, "-B", c.buildDir}
	if c.generator != "" {
		cmakeArgs = append(cmakeArgs, "-G", c.generator)
	}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	cmakeArgs = append(cmakeArgs, args...)

	if err := c.run("cmake", cmakeArgs, c.env); err != nil {
		return &buildsys.BackendError{Tool: "cmake", Step: "configure", Err: err}
	}
	return nil
}

func (c *CMake) Build(args ...string) error {
	cmdArgs := []string{"--build", c.buildDir}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "--config", c.buildType)
	}
	cmdArgs = append(cmdArgs, args...)
	if err := c.run("cmake", cmdArgs, c.env); err != nil {
		return &buildsys.BackendError{Tool: "cmake", Step: "build", Err: err}
	}
	return nil
}

func (c *CMake) Install(args ...string) error {
	cmdArgs := []string{"--install", c.buildDir}
	if c.installDir != "" {
		cmdArgs = append(cmdArgs, "--prefix", c.installDir)
	}
	cmdArgs = append(cmdArgs, args...)
	if err := c.run("cmake", cmdArgs, c.env); err != nil {
		return &buildsys.BackendError{Tool: "cmake", Step: "install", Err: err}
	}
	return nil
}

func (c *CMake) Docs() error {
	if err := c.run("cmake", []string{"--build", c.buildDir, "--target", "docs"}, c.env); err != nil {
		return &buildsys.BackendError{Tool: "cmake", Step: "docs", Err: err}
	}
	return nil
}

// CompileCommands returns the manifest exported during Configure.
func (c *CMake) CompileCommands() (string, error) {
	path := filepath.Join(c.buildDir, "compile_commands.json")
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("compile commands not exported yet: %w", err)
	}
	return path, nil
}

// OutputDir returns the install dir if set, otherwise the build dir.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}
	return c.buildDir
}

func (c *CMake) definesArgs() []string {
	if len(c.defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.defines))
	for k := range c.defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := c.defines[k]
		if def.typeName != "" {
			args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
			continue
		}
		args = append(args, "-D"+k+"="+def.value)
	}
	return args
}

// systemName maps a GOOS-style name to CMake's CMAKE_SYSTEM_NAME spelling.
// Names already in CMake spelling pass through.
func systemName(os string) string {
	switch os {
	case "linux":
		return "Linux"
	case "darwin":
		return "Darwin"
	case "windows":
		return "Windows"
	}
	return os
}
