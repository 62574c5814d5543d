// Package options holds the immutable option set of a single parcel
// invocation. All branching in the resolver and the variant selector keys
// off a Set value; nothing reads options from globals.
package options

import (
	"fmt"
	"runtime"
	"sort"
)

// Builder identifies one of the supported backend build tools.
type Builder string

const (
	BuilderCMake Builder = "cmake"
	BuilderMeson Builder = "meson"
	BuilderQmake Builder = "qmake"
)

// Builders lists the closed set of known backends.
var Builders = []Builder{BuilderCMake, BuilderMeson, BuilderQmake}

// Valid reports whether b is one of the known backends.
func (b Builder) Valid() bool {
	switch b {
	case BuilderCMake, BuilderMeson, BuilderQmake:
		return true
	}
	return false
}

func (b Builder) String() string { return string(b) }

// ConfigurationError reports a bad or unknown option value. It is raised at
// construction time, before any side effect takes place.
type ConfigurationError struct {
	Option string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid option %s=%q: %s", e.Option, e.Value, e.Reason)
}

// Config carries the raw user/environment choices used to construct a Set.
type Config struct {
	Builder     string
	BuildDocs   bool
	OS          string
	Compiler    string
	CompilerStd string // optional, e.g. "17"
	Arch        string

	// BuildOptions are free-form options of the package itself
	// (e.g. fPIC). Platform pruning happens here.
	BuildOptions map[string]string

	// DepOptions override options of individual dependencies,
	// keyed by dependency name.
	DepOptions map[string]map[string]string
}

// Set is an immutable record of the choices of one invocation.
// Construct it with New; the zero value is not valid.
type Set struct {
	Builder     Builder
	BuildDocs   bool
	OS          string
	Compiler    string
	CompilerStd string
	Arch        string

	buildOptions map[string]string
	depOptions   map[string]map[string]string
}

// New validates cfg and builds a Set. Unknown builder values are rejected
// here so every later step can assume a member of the closed enum. Platform
// pruning (dropping fPIC on Windows, where it is meaningless) also happens
// here, once, and is idempotent.
func New(cfg Config) (Set, error) {
	b := Builder(cfg.Builder)
	if cfg.Builder == "" {
		b = BuilderCMake
	}
	if !b.Valid() {
		return Set{}, &ConfigurationError{
			Option: "builder",
			Value:  cfg.Builder,
			Reason: fmt.Sprintf("must be one of %v", Builders),
		}
	}

	s := Set{
		Builder:     b,
		BuildDocs:   cfg.BuildDocs,
		OS:          cfg.OS,
		Compiler:    cfg.Compiler,
		CompilerStd: cfg.CompilerStd,
		Arch:        cfg.Arch,
	}
	if s.OS == "" {
		s.OS = runtime.GOOS
	}
	if s.Arch == "" {
		s.Arch = runtime.GOARCH
	}

	s.buildOptions = copyOptions(cfg.BuildOptions)
	s.depOptions = copyDepOptions(cfg.DepOptions)
	pruneForPlatform(s.OS, s.buildOptions)

	return s, nil
}

// pruneForPlatform removes options that have no meaning on the target
// platform. fPIC matches both the conventional spelling and Windows GOOS.
func pruneForPlatform(os string, opts map[string]string) {
	if os == "windows" || os == "Windows" {
		delete(opts, "fPIC")
	}
}

// BuildOption returns the value of a package build option and whether it
// was set.
func (s Set) BuildOption(name string) (string, bool) {
	v, ok := s.buildOptions[name]
	return v, ok
}

// BuildOptionNames returns the set option names, sorted.
func (s Set) BuildOptionNames() []string {
	names := make([]string, 0, len(s.buildOptions))
	for k := range s.buildOptions {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// DepOptions returns a copy of the sub-options for the named dependency.
// Mutating the returned map does not affect the Set.
func (s Set) DepOptions(dep string) map[string]string {
	return copyOptions(s.depOptions[dep])
}

func copyOptions(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyDepOptions(src map[string]map[string]string) map[string]map[string]string {
	dst := make(map[string]map[string]string, len(src))
	for name, opts := range src {
		dst[name] = copyOptions(opts)
	}
	return dst
}
