// Package buildsys defines the uniform lifecycle contract over backend
// build tools (CMake, Meson, qmake). It keeps the common configure/build/
// install shape and dependency/env setup; implementations add their own
// extras.
package buildsys

import (
	"errors"
	"fmt"

	"github.com/replaykit/parcel/internal/options"
	"github.com/replaykit/parcel/internal/resolve"
)

// ErrUnsupported marks a lifecycle step the backend does not implement.
// Adapters must return it instead of silently succeeding, so a no-op is
// never mistaken for a completed build.
var ErrUnsupported = errors.New("operation not supported by this backend")

// BackendError wraps an opaque failure from the backend tool. The detail is
// passed through verbatim; the orchestrator only distinguishes success from
// failure.
type BackendError struct {
	Tool string
	Step string
	Err  error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Tool, e.Step, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Adapter drives one backend build tool. Exactly one adapter is active per
// invocation; it owns the backend's on-disk state (the build directory)
// for the lifetime of the run.
type Adapter interface {
	// Kind identifies the backend this adapter drives.
	Kind() options.Builder

	// Basic paths.
	Source(dir string)
	InstallDir(dir string)

	// UsePackage injects a resolved dependency's package tree into the
	// build environment.
	UsePackage(name, dir string)

	// Environment helper.
	Env(key, val string)

	// Lifecycle. Configure must be idempotent: a second call with
	// identical inputs reproduces an equivalent configuration rather
	// than failing.
	Configure(opts options.Set, reqs []resolve.Requirement, args ...string) error
	Build(args ...string) error
	Install(args ...string) error

	// Docs builds the backend's documentation target.
	Docs() error

	// CompileCommands returns the path of the exported compile-command
	// manifest, once Configure has produced one.
	CompileCommands() (string, error)

	// Where artifacts land.
	OutputDir() string
}
