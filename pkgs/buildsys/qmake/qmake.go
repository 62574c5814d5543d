// Package qmake declares the qmake backend. The backend is not implemented
// yet; every lifecycle step reports buildsys.ErrUnsupported so callers
// never mistake the stub for a completed build.
package qmake

import (
	"fmt"

	"github.com/replaykit/parcel/internal/options"
	"github.com/replaykit/parcel/internal/resolve"
	"github.com/replaykit/parcel/pkgs/buildsys"
)

// Qmake is a declared-but-unimplemented backend adapter.
type Qmake struct {
	sourceDir  string
	installDir string
}

var _ buildsys.Adapter = (*Qmake)(nil)

func New(sourceDir string) *Qmake {
	return &Qmake{sourceDir: sourceDir}
}

func (q *Qmake) Kind() options.Builder { return options.BuilderQmake }

func (q *Qmake) Source(dir string) { q.sourceDir = dir }

func (q *Qmake) InstallDir(dir string) { q.installDir = dir }

func (q *Qmake) UsePackage(name, dir string) {}

func (q *Qmake) Env(key, val string) {}

func (q *Qmake) Configure(opts options.Set, reqs []resolve.Requirement, args ...string) error {
	return q.unsupported("configure")
}

func (q *Qmake) Build(args ...string) error {
	return q.unsupported("build")
}

func (q *Qmake) Install(args ...string) error {
	return q.unsupported("install")
}

func (q *Qmake) Docs() error {
	return q.unsupported("docs")
}

func (q *Qmake) CompileCommands() (string, error) {
	return "", q.unsupported("compile commands")
}

func (q *Qmake) OutputDir() string { return q.sourceDir }

func (q *Qmake) unsupported(step string) error {
	return fmt.Errorf("qmake %s: %w", step, buildsys.ErrUnsupported)
}
