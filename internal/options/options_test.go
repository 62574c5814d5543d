package options

import (
	"errors"
	"runtime"
	"testing"
)

func TestNewValidatesBuilder(t *testing.T) {
	tests := []struct {
		name    string
		builder string
		want    Builder
		wantErr bool
	}{
		{"cmake", "cmake", BuilderCMake, false},
		{"meson", "meson", BuilderMeson, false},
		{"qmake", "qmake", BuilderQmake, false},
		{"empty defaults to cmake", "", BuilderCMake, false},
		{"unknown rejected", "ninja", "", true},
		{"case sensitive", "CMake", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(Config{Builder: tt.builder})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("New(%q) succeeded, want error", tt.builder)
				}
				var cfgErr *ConfigurationError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("New(%q) error = %T, want *ConfigurationError", tt.builder, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%q) returned error: %v", tt.builder, err)
			}
			if s.Builder != tt.want {
				t.Errorf("Builder = %q, want %q", s.Builder, tt.want)
			}
		})
	}
}

func TestNewDefaultsPlatform(t *testing.T) {
	s, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if s.OS != runtime.GOOS {
		t.Errorf("OS = %q, want %q", s.OS, runtime.GOOS)
	}
	if s.Arch != runtime.GOARCH {
		t.Errorf("Arch = %q, want %q", s.Arch, runtime.GOARCH)
	}
}

func TestWindowsPrunesFPIC(t *testing.T) {
	s, err := New(Config{
		OS:           "windows",
		BuildOptions: map[string]string{"fPIC": "True", "shared": "False"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.BuildOption("fPIC"); ok {
		t.Error("fPIC survived pruning on windows")
	}
	if v, ok := s.BuildOption("shared"); !ok || v != "False" {
		t.Errorf("shared = %q, %v; want False, true", v, ok)
	}

	// Construction from the already-pruned values is a no-op.
	s2, err := New(Config{
		OS:           "windows",
		BuildOptions: map[string]string{"shared": "False"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(s2.BuildOptionNames()), 1; got != want {
		t.Errorf("BuildOptionNames() has %d entries, want %d", got, want)
	}
}

func TestLinuxKeepsFPIC(t *testing.T) {
	s, err := New(Config{
		OS:           "linux",
		BuildOptions: map[string]string{"fPIC": "True"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.BuildOption("fPIC"); !ok {
		t.Error("fPIC pruned on linux")
	}
}

func TestSetIsIsolatedFromConfig(t *testing.T) {
	depOpts := map[string]map[string]string{
		"fmt": {"header_only": "False"},
	}
	s, err := New(Config{DepOptions: depOpts})
	if err != nil {
		t.Fatal(err)
	}

	// Mutating the input after construction must not leak in.
	depOpts["fmt"]["header_only"] = "True"
	if got := s.DepOptions("fmt")["header_only"]; got != "False" {
		t.Errorf("DepOptions leaked input mutation: got %q", got)
	}

	// Mutating an accessor result must not leak back.
	s.DepOptions("fmt")["header_only"] = "True"
	if got := s.DepOptions("fmt")["header_only"]; got != "False" {
		t.Errorf("DepOptions leaked result mutation: got %q", got)
	}
}
