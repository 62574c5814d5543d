// Package staging copies auxiliary integration files from resolved
// dependency packages into the source tree before the backend is
// configured. Adapters assume staged files already exist at configure
// time, so staging failures abort the run before any backend invocation.
package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Rule describes one pre-configure copy: files matching Pattern under
// SourceDep's SourceSubpath land in DestSubpath of the source tree.
type Rule struct {
	Pattern       string
	SourceDep     string
	SourceSubpath string
	DestSubpath   string
}

// Error reports a staging rule that could not be applied. A missing shim
// would otherwise surface as a late, confusing backend build failure, so
// empty matches and unknown dependencies are errors, never skips.
type Error struct {
	Rule   Rule
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("staging %q from %s: %s", e.Rule.Pattern, e.Rule.SourceDep, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// DefaultRules stages the imgui windowing and render-backend bindings the
// UI sources include directly.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "*glfw*", SourceDep: "imgui", SourceSubpath: "res/bindings", DestSubpath: "bindings"},
		{Pattern: "*opengl3*", SourceDep: "imgui", SourceSubpath: "res/bindings", DestSubpath: "bindings"},
	}
}

// Stage applies rules against the resolved dependency package directories,
// copying matches into sourceDir. It stops at the first rule that cannot
// be satisfied.
func Stage(rules []Rule, deps map[string]string, sourceDir string) error {
	for _, r := range rules {
		if err := apply(r, deps, sourceDir); err != nil {
			return err
		}
	}
	return nil
}

func apply(r Rule, deps map[string]string, sourceDir string) error {
	pkgDir, ok := deps[r.SourceDep]
	if !ok || pkgDir == "" {
		return &Error{Rule: r, Reason: "dependency not resolved"}
	}

	srcRoot := filepath.Join(pkgDir, filepath.FromSlash(r.SourceSubpath))
	if _, err := os.Stat(srcRoot); err != nil {
		return &Error{Rule: r, Reason: "source path missing", Err: err}
	}

	matches, err := doublestar.Glob(os.DirFS(srcRoot), r.Pattern)
	if err != nil {
		return &Error{Rule: r, Reason: "bad pattern", Err: err}
	}
	if len(matches) == 0 {
		return &Error{Rule: r, Reason: "no files matched"}
	}

	destRoot := filepath.Join(sourceDir, filepath.FromSlash(r.DestSubpath))
	for _, rel := range matches {
		src := filepath.Join(srcRoot, filepath.FromSlash(rel))
		info, err := os.Stat(src)
		if err != nil {
			return &Error{Rule: r, Reason: "stat failed", Err: err}
		}
		if info.IsDir() {
			continue
		}
		dest := filepath.Join(destRoot, filepath.FromSlash(rel))
		if err := copyFile(src, dest, info.Mode()); err != nil {
			return &Error{Rule: r, Reason: "copy failed", Err: err}
		}
	}
	return nil
}

func copyFile(src, dest string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
