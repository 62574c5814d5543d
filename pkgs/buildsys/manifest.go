package buildsys

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/replaykit/parcel/internal/resolve"
)

// DepsManifestName is the file adapters write into the build directory so
// external generators and IDE tooling can consume the resolved dependency
// set.
const DepsManifestName = "parcel-deps.json"

type manifestEntry struct {
	Name       string            `json:"name"`
	Version    string            `json:"version"`
	Override   bool              `json:"override,omitempty"`
	ToolOnly   bool              `json:"tool_only,omitempty"`
	Options    map[string]string `json:"options,omitempty"`
	PackageDir string            `json:"package_dir,omitempty"`
}

// WriteDepsManifest writes the resolved requirement list, with the package
// directories known to the adapter, into dir. Rewriting an existing
// manifest with the same inputs produces identical content, keeping
// Configure idempotent.
func WriteDepsManifest(dir string, reqs []resolve.Requirement, pkgs map[string]string) error {
	entries := make([]manifestEntry, 0, len(reqs))
	for _, r := range resolve.Sorted(reqs) {
		e := manifestEntry{
			Name:       r.Name,
			Version:    r.Version,
			Override:   r.Override,
			ToolOnly:   r.ToolOnly,
			PackageDir: pkgs[r.Name],
		}
		if len(r.Options) > 0 {
			e.Options = r.Options
		}
		entries = append(entries, e)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, DepsManifestName), append(data, '\n'), 0o644)
}
