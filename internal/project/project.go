// Package project loads the parcel.toml descriptor of the project being
// packaged and resolves the project version.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DescriptorName is the descriptor file parcel looks for at the source
// root.
const DescriptorName = "parcel.toml"

// Options are the descriptor's default build options; command-line flags
// and environment take precedence.
type Options struct {
	Builder   string `toml:"builder"`
	BuildDocs bool   `toml:"build_docs"`
}

// Descriptor is the declarative project description.
type Descriptor struct {
	Name        string   `toml:"name"`
	Version     string   `toml:"version"`
	Description string   `toml:"description"`
	License     string   `toml:"license"`
	Topics      []string `toml:"topics"`

	Options Options `toml:"options"`

	// BuildOptions are options of the package itself (e.g. fPIC).
	BuildOptions map[string]string `toml:"build_options"`

	// DepOptions configure individual dependencies, keyed by name.
	DepOptions map[string]map[string]string `toml:"dependency_options"`
}

// Load reads the descriptor from dir. A missing descriptor yields defaults
// (name derived from the directory) so a bare source tree still builds.
func Load(dir string) (*Descriptor, error) {
	d := &Descriptor{}

	data, err := os.ReadFile(filepath.Join(dir, DescriptorName))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	case err != nil:
		return nil, err
	default:
		if err := toml.Unmarshal(data, d); err != nil {
			return nil, fmt.Errorf("parse %s: %w", DescriptorName, err)
		}
	}

	if d.Name == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		d.Name = filepath.Base(abs)
	}
	if d.Version == "" {
		d.Version = scrapeVersionFile(filepath.Join(dir, "CMakeLists.txt"))
	}
	return d, nil
}

var versionRe = regexp.MustCompile(`(?m)set\(\s*[A-Za-z0-9_]+_VERSION\s+([^)\s]+)\s*\)`)

// ScrapeVersion extracts the project version from CMakeLists.txt content,
// looking for a set(<NAME>_VERSION ...) assignment. Returns "" when no
// version is declared.
func ScrapeVersion(cmakeLists []byte) string {
	m := versionRe.FindSubmatch(cmakeLists)
	if m == nil {
		return ""
	}
	return strings.Trim(string(m[1]), `"`)
}

func scrapeVersionFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return ScrapeVersion(data)
}
