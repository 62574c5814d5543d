// Package env locates the parcel work directories under the user cache.
package env

import (
	"os"
	"path/filepath"
)

// WorkDir returns the root of parcel's per-user state.
func WorkDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, ".parcel"), nil
}

// PackageDir returns the directory holding unpacked dependency packages,
// creating it on first use. PARCEL_PACKAGE_DIR overrides the default
// location.
func PackageDir() (string, error) {
	if dir := os.Getenv("PARCEL_PACKAGE_DIR"); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", err
		}
		return dir, nil
	}
	workDir, err := WorkDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(workDir, "packages")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// PackagePath returns the package tree of one dependency version below
// root.
func PackagePath(root, name, version string) string {
	return filepath.Join(root, name, version)
}
