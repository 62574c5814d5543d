package cmake

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/replaykit/parcel/internal/options"
	"github.com/replaykit/parcel/internal/resolve"
	"github.com/replaykit/parcel/pkgs/buildsys"
)

type recordedCall struct {
	bin  string
	args []string
}

// record installs a recording runner that always succeeds.
func record(c *CMake) *[]recordedCall {
	var calls []recordedCall
	c.run = func(bin string, args []string, env map[string]string) error {
		calls = append(calls, recordedCall{bin: bin, args: append([]string{}, args...)})
		return nil
	}
	return &calls
}

func mustOptions(t *testing.T, cfg options.Config) options.Set {
	t.Helper()
	s, err := options.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func hasArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func TestConfigureArgs(t *testing.T) {
	sourceDir := t.TempDir()
	c := New(sourceDir)
	calls := record(c)
	c.InstallDir("/opt/server")

	opts := mustOptions(t, options.Config{Builder: "cmake", CompilerStd: "17"})
	reqs, err := resolve.Resolve(opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Configure(opts, reqs); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	if len(*calls) != 1 {
		t.Fatalf("got %d backend calls, want 1", len(*calls))
	}
	args := (*calls)[0].args
	if (*calls)[0].bin != "cmake" {
		t.Errorf("bin = %q", (*calls)[0].bin)
	}
	for _, want := range []string{
		"-S", sourceDir,
		"-B", filepath.Join(sourceDir, "build"),
		"-DCMAKE_EXPORT_COMPILE_COMMANDS:BOOL=ON",
		"-DCMAKE_CXX_STANDARD:STRING=17",
		"-DCMAKE_INSTALL_PREFIX:STRING=/opt/server",
	} {
		if !hasArg(args, want) {
			t.Errorf("configure args missing %q in %v", want, args)
		}
	}
}

func TestConfigureIsIdempotent(t *testing.T) {
	sourceDir := t.TempDir()
	c := New(sourceDir)
	calls := record(c)

	opts := mustOptions(t, options.Config{Builder: "cmake"})
	reqs, err := resolve.Resolve(opts)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Configure(opts, reqs); err != nil {
		t.Fatalf("first Configure: %v", err)
	}
	if err := c.Configure(opts, reqs); err != nil {
		t.Fatalf("second Configure: %v", err)
	}
	if len(*calls) != 2 {
		t.Fatalf("got %d backend calls, want 2", len(*calls))
	}
	if !reflect.DeepEqual((*calls)[0].args, (*calls)[1].args) {
		t.Errorf("second configure produced different args:\n%v\n%v",
			(*calls)[0].args, (*calls)[1].args)
	}
}

func TestConfigureWritesDepsManifest(t *testing.T) {
	sourceDir := t.TempDir()
	c := New(sourceDir)
	record(c)

	opts := mustOptions(t, options.Config{Builder: "cmake"})
	reqs, err := resolve.Resolve(opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Configure(opts, reqs); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	manifest := filepath.Join(sourceDir, "build", buildsys.DepsManifestName)
	data, err := os.ReadFile(manifest)
	if err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
	if !strings.Contains(string(data), `"fmt"`) {
		t.Error("manifest does not mention fmt")
	}
}

func TestUsePackageSetsEnv(t *testing.T) {
	pkgDir := t.TempDir()
	includeDir := filepath.Join(pkgDir, "include")
	libDir := filepath.Join(pkgDir, "lib")
	pkgconfigDir := filepath.Join(libDir, "pkgconfig")
	for _, dir := range []string{includeDir, libDir, pkgconfigDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for _, key := range []string{"PKG_CONFIG_PATH", "CMAKE_PREFIX_PATH", "CMAKE_INCLUDE_PATH", "CMAKE_LIBRARY_PATH", "CPPFLAGS", "LDFLAGS"} {
		t.Setenv(key, "")
	}

	c := New(t.TempDir())
	c.UsePackage("glfw", pkgDir)

	expect := map[string]string{
		"PKG_CONFIG_PATH":    pkgconfigDir,
		"CMAKE_PREFIX_PATH":  pkgDir,
		"CMAKE_INCLUDE_PATH": includeDir,
		"CMAKE_LIBRARY_PATH": libDir,
	}
	for k, v := range expect {
		if got := c.env[k]; got != v {
			t.Errorf("env[%s] = %q, want %q", k, got, v)
		}
	}
}

func TestBuildSurfacesBackendError(t *testing.T) {
	c := New(t.TempDir())
	backendFail := errors.New("exit status 2")
	c.run = func(bin string, args []string, env map[string]string) error {
		return backendFail
	}

	err := c.Build()
	var be *buildsys.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("error = %v, want *buildsys.BackendError", err)
	}
	if be.Step != "build" || be.Tool != "cmake" {
		t.Errorf("BackendError = %+v", be)
	}
	if !errors.Is(err, backendFail) {
		t.Error("backend detail not passed through")
	}
}

func TestCompileCommands(t *testing.T) {
	sourceDir := t.TempDir()
	c := New(sourceDir)

	if _, err := c.CompileCommands(); err == nil {
		t.Error("CompileCommands succeeded before configure")
	}

	buildDir := filepath.Join(sourceDir, "build")
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(buildDir, "compile_commands.json"), []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := c.CompileCommands()
	if err != nil {
		t.Fatalf("CompileCommands: %v", err)
	}
	if path != filepath.Join(buildDir, "compile_commands.json") {
		t.Errorf("path = %q", path)
	}
}
