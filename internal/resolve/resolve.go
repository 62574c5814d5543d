// Package resolve maps an option set to the concrete dependency set of the
// build. Resolution is a pure function: no filesystem or network access, so
// the requirement rules stay unit-testable on their own.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/replaykit/parcel/internal/options"
	"golang.org/x/mod/semver"
)

// Requirement is one resolved dependency of the build.
type Requirement struct {
	Name    string
	Version string

	// Override forces this version over any other declaration of the
	// same name elsewhere in the graph. No range negotiation happens;
	// the override wins deterministically.
	Override bool

	// ToolOnly marks requirements needed only to produce side artifacts
	// (documentation); they are never linked into the shipped build.
	ToolOnly bool

	// Options are sub-options forwarded to the dependency's own build
	// (e.g. fmt header_only=false). Recorded on the requirement and
	// written to the dependency manifest at configure time.
	Options map[string]string
}

// ResolutionError reports an inconsistency in the declared requirement
// rules, such as two non-overridable declarations of the same name at
// different versions.
type ResolutionError struct {
	Name   string
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %q: %s", e.Name, e.Reason)
}

// rule is one declaration in the requirement table. when==nil means the
// rule always applies.
type rule struct {
	req  Requirement
	when func(options.Set) bool
}

func docsEnabled(s options.Set) bool { return s.BuildDocs }

// requirementRules is the declarative requirement table of the project.
// Base entries apply to every option set; doc-toolchain entries are gated
// on the docs option and marked tool-only.
var requirementRules = []rule{
	{req: Requirement{Name: "imgui", Version: "1.92.0-docking"}},
	{req: Requirement{Name: "glfw", Version: "3.4"}},
	{req: Requirement{Name: "glew", Version: "2.2.0"}},
	{req: Requirement{Name: "asio", Version: "1.34.2"}},
	{req: Requirement{Name: "units", Version: "2.3.3"}},
	{req: Requirement{Name: "nlohmann_json", Version: "3.12.0"}},
	{req: Requirement{Name: "span-lite", Version: "0.11.0"}},
	{req: Requirement{Name: "tl-expected", Version: "1.1.0"}},
	{req: Requirement{Name: "range-v3", Version: "0.12.0"}},
	{req: Requirement{Name: "transwarp", Version: "2.2.3"}},
	{req: Requirement{Name: "freetype", Version: "2.13.2"}},
	{req: Requirement{Name: "tinyxml2", Version: "11.0.0"}},
	{req: Requirement{Name: "date", Version: "3.0.4"}},
	{req: Requirement{Name: "taywee-args", Version: "6.4.6"}},
	{req: Requirement{Name: "concurrentqueue", Version: "1.0.4"}},
	{req: Requirement{Name: "lunasvg", Version: "3.0.1"}},
	{req: Requirement{Name: "tomlplusplus", Version: "3.4.0"}},
	{req: Requirement{Name: "stb", Version: "cci.20240531"}},
	{req: Requirement{Name: "spdlog", Version: "1.15.3"}},
	{req: Requirement{Name: "libenvpp", Version: "1.5.0"}},
	{req: Requirement{Name: "fmt", Version: "11.2.0", Override: true}},

	// Testing toolchain, linked into test binaries only.
	{req: Requirement{Name: "catch2", Version: "3.8.1"}},
	{req: Requirement{Name: "fakeit", Version: "2.4.1"}},

	// Documentation toolchain.
	{req: Requirement{Name: "doxygen", Version: "1.14.0", ToolOnly: true}, when: docsEnabled},
	{req: Requirement{Name: "sphinx", Version: "7.1.1", ToolOnly: true}, when: docsEnabled},
	{req: Requirement{Name: "breathe", Version: "4.35.0", ToolOnly: true}, when: docsEnabled},
	{req: Requirement{Name: "sphinx-rtd-theme", Version: "1.3.0", ToolOnly: true}, when: docsEnabled},
	{req: Requirement{Name: "sphinxcontrib-mermaid", Version: "0.9.2", ToolOnly: true}, when: docsEnabled},
	{req: Requirement{Name: "sphinx-multiversion", Version: "0.2.4", ToolOnly: true}, when: docsEnabled},
}

// Resolve evaluates the requirement table against opts and returns the
// concrete requirement list. An unknown builder is rejected before any
// requirement is emitted.
func Resolve(opts options.Set) ([]Requirement, error) {
	return evalRules(requirementRules, opts)
}

func evalRules(rules []rule, opts options.Set) ([]Requirement, error) {
	if !opts.Builder.Valid() {
		return nil, &options.ConfigurationError{
			Option: "builder",
			Value:  opts.Builder.String(),
			Reason: fmt.Sprintf("must be one of %v", options.Builders),
		}
	}

	var list []Requirement
	index := make(map[string]int)

	for _, r := range rules {
		if r.when != nil && !r.when(opts) {
			continue
		}
		req := r.req
		req.Options = opts.DepOptions(req.Name)

		i, seen := index[req.Name]
		if !seen {
			index[req.Name] = len(list)
			list = append(list, req)
			continue
		}

		// A later override replaces the earlier entry. Without an
		// override, a repeated name must agree on the version.
		switch {
		case req.Override:
			list[i] = req
		case list[i].Override:
			// The earlier override wins; drop the new declaration.
		case !sameVersion(list[i].Version, req.Version):
			return nil, &ResolutionError{
				Name: req.Name,
				Reason: fmt.Sprintf("conflicting versions %s and %s, neither is an override",
					list[i].Version, req.Version),
			}
		}
	}

	return list, nil
}

// sameVersion reports whether two version strings denote the same version.
// Both are compared as semver when possible; versions outside semver
// (e.g. cci.20240531 snapshots) fall back to literal comparison.
func sameVersion(v1, v2 string) bool {
	c1, c2 := canonical(v1), canonical(v2)
	if c1 != "" && c2 != "" {
		return semver.Compare(c1, c2) == 0
	}
	return v1 == v2
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}

// Names returns the requirement names in declaration order.
func Names(reqs []Requirement) []string {
	names := make([]string, len(reqs))
	for i, r := range reqs {
		names[i] = r.Name
	}
	return names
}

// Sorted returns a copy of reqs sorted by name, for order-insensitive
// comparison and stable output.
func Sorted(reqs []Requirement) []Requirement {
	out := make([]Requirement, len(reqs))
	copy(out, reqs)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
