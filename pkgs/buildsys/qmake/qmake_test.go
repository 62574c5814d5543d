package qmake

import (
	"errors"
	"testing"

	"github.com/replaykit/parcel/internal/options"
	"github.com/replaykit/parcel/pkgs/buildsys"
)

func TestEveryStepIsUnsupported(t *testing.T) {
	q := New(t.TempDir())

	opts, err := options.New(options.Config{Builder: "qmake"})
	if err != nil {
		t.Fatal(err)
	}

	steps := map[string]error{
		"configure": q.Configure(opts, nil),
		"build":     q.Build(),
		"install":   q.Install(),
		"docs":      q.Docs(),
	}
	for step, err := range steps {
		if err == nil {
			t.Errorf("%s succeeded; a stub must never look like a completed build", step)
			continue
		}
		if !errors.Is(err, buildsys.ErrUnsupported) {
			t.Errorf("%s error = %v, want ErrUnsupported", step, err)
		}
	}

	if _, err := q.CompileCommands(); !errors.Is(err, buildsys.ErrUnsupported) {
		t.Errorf("CompileCommands error = %v, want ErrUnsupported", err)
	}
}

func TestKind(t *testing.T) {
	if got := New(".").Kind(); got != options.BuilderQmake {
		t.Errorf("Kind() = %s", got)
	}
}
