package driver

import (
	"fmt"

	"github.com/replaykit/parcel/internal/options"
	"github.com/replaykit/parcel/pkgs/buildsys"
	"github.com/replaykit/parcel/pkgs/buildsys/cmake"
	"github.com/replaykit/parcel/pkgs/buildsys/meson"
	"github.com/replaykit/parcel/pkgs/buildsys/qmake"
)

// adapters is the closed backend table. Adding a backend means adding a
// constructor here, not editing a dispatch chain.
var adapters = map[options.Builder]func(sourceDir string) buildsys.Adapter{
	options.BuilderCMake: func(dir string) buildsys.Adapter { return cmake.New(dir) },
	options.BuilderMeson: func(dir string) buildsys.Adapter { return meson.New(dir) },
	options.BuilderQmake: func(dir string) buildsys.Adapter { return qmake.New(dir) },
}

// Select returns the adapter for the chosen backend. There is no fallback
// and no auto-detection; the builder option decides alone.
func Select(b options.Builder, sourceDir string) (buildsys.Adapter, error) {
	newAdapter, ok := adapters[b]
	if !ok {
		return nil, &options.ConfigurationError{
			Option: "builder",
			Value:  b.String(),
			Reason: fmt.Sprintf("must be one of %v", options.Builders),
		}
	}
	return newAdapter(sourceDir), nil
}
