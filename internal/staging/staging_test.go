package staging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeFixture lays out a fake imgui package tree with binding shims.
func writeFixture(t *testing.T) (pkgDir string) {
	t.Helper()
	pkgDir = t.TempDir()
	bindings := filepath.Join(pkgDir, "res", "bindings")
	if err := os.MkdirAll(bindings, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"imgui_impl_glfw.cpp",
		"imgui_impl_glfw.h",
		"imgui_impl_opengl3.cpp",
		"imgui_impl_opengl3.h",
		"imgui_impl_vulkan.cpp",
	} {
		if err := os.WriteFile(filepath.Join(bindings, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return pkgDir
}

func TestStageCopiesMatches(t *testing.T) {
	pkgDir := writeFixture(t)
	sourceDir := t.TempDir()
	deps := map[string]string{"imgui": pkgDir}

	if err := Stage(DefaultRules(), deps, sourceDir); err != nil {
		t.Fatalf("Stage: %v", err)
	}

	for _, name := range []string{
		"imgui_impl_glfw.cpp",
		"imgui_impl_glfw.h",
		"imgui_impl_opengl3.cpp",
		"imgui_impl_opengl3.h",
	} {
		path := filepath.Join(sourceDir, "bindings", name)
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("staged file missing: %v", err)
		}
		if string(data) != name {
			t.Errorf("staged %s has content %q", name, data)
		}
	}

	// Files outside the patterns stay put.
	if _, err := os.Stat(filepath.Join(sourceDir, "bindings", "imgui_impl_vulkan.cpp")); err == nil {
		t.Error("unmatched file was staged")
	}
}

func TestStageIsRepeatable(t *testing.T) {
	pkgDir := writeFixture(t)
	sourceDir := t.TempDir()
	deps := map[string]string{"imgui": pkgDir}

	if err := Stage(DefaultRules(), deps, sourceDir); err != nil {
		t.Fatalf("first Stage: %v", err)
	}
	if err := Stage(DefaultRules(), deps, sourceDir); err != nil {
		t.Fatalf("second Stage: %v", err)
	}
}

func TestStageMissingDependency(t *testing.T) {
	sourceDir := t.TempDir()

	err := Stage(DefaultRules(), map[string]string{}, sourceDir)
	var stagingErr *Error
	if !errors.As(err, &stagingErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if stagingErr.Rule.SourceDep != "imgui" {
		t.Errorf("error names dep %q, want imgui", stagingErr.Rule.SourceDep)
	}
}

func TestStageEmptyMatchSet(t *testing.T) {
	pkgDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(pkgDir, "res", "bindings"), 0o755); err != nil {
		t.Fatal(err)
	}
	sourceDir := t.TempDir()

	err := Stage(DefaultRules(), map[string]string{"imgui": pkgDir}, sourceDir)
	var stagingErr *Error
	if !errors.As(err, &stagingErr) {
		t.Fatalf("error = %v, want *Error for empty match set", err)
	}
}

func TestStageMissingSourcePath(t *testing.T) {
	pkgDir := t.TempDir() // no res/bindings inside
	sourceDir := t.TempDir()

	err := Stage(DefaultRules(), map[string]string{"imgui": pkgDir}, sourceDir)
	var stagingErr *Error
	if !errors.As(err, &stagingErr) {
		t.Fatalf("error = %v, want *Error for missing source path", err)
	}
}
