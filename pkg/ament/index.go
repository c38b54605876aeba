// Package ament locates installed ROS 2 packages through the ament resource
// index.
package ament

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PrefixPathEnv holds the ordered install prefixes of the sourced workspaces.
const PrefixPathEnv = "AMENT_PREFIX_PATH"

const packagesMarkerDir = "share/ament_index/resource_index/packages"

// Resolver finds installed packages.
type Resolver interface {
	// PackagePrefix returns the install prefix that provides pkg.
	PackagePrefix(pkg string) (string, error)

	// PackageShareDirectory returns <prefix>/share/<pkg>.
	PackageShareDirectory(pkg string) (string, error)
}

// PackageNotFoundError is returned when no prefix provides a package.
type PackageNotFoundError struct {
	Package  string
	Prefixes []string
}

func (e *PackageNotFoundError) Error() string {
	if len(e.Prefixes) == 0 {
		return fmt.Sprintf("package '%s' not found: %s is empty, source a ROS 2 workspace first", e.Package, PrefixPathEnv)
	}
	return fmt.Sprintf("package '%s' not found, searching: [%s]", e.Package, strings.Join(e.Prefixes, ", "))
}

// Index resolves packages by scanning install prefixes in order. The first
// prefix carrying the package marker wins.
type Index struct {
	prefixes []string
}

// NewIndex creates an Index over prefixes. Empty entries are dropped.
func NewIndex(prefixes []string) *Index {
	clean := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	return &Index{prefixes: clean}
}

// FromEnvironment creates an Index from AMENT_PREFIX_PATH.
func FromEnvironment() *Index {
	return NewIndex(SplitPrefixPath(os.Getenv(PrefixPathEnv)))
}

// SplitPrefixPath splits a prefix path list on the OS list separator.
func SplitPrefixPath(value string) []string {
	if value == "" {
		return nil
	}
	return filepath.SplitList(value)
}

// Prefixes returns the search order.
func (i *Index) Prefixes() []string {
	out := make([]string, len(i.prefixes))
	copy(out, i.prefixes)
	return out
}

// PackagePrefix implements Resolver.
func (i *Index) PackagePrefix(pkg string) (string, error) {
	if pkg == "" {
		return "", fmt.Errorf("package name cannot be empty")
	}
	for _, prefix := range i.prefixes {
		marker := filepath.Join(prefix, filepath.FromSlash(packagesMarkerDir), pkg)
		if info, err := os.Stat(marker); err == nil && !info.IsDir() {
			return prefix, nil
		}
	}
	return "", &PackageNotFoundError{Package: pkg, Prefixes: i.Prefixes()}
}

// PackageShareDirectory implements Resolver.
func (i *Index) PackageShareDirectory(pkg string) (string, error) {
	prefix, err := i.PackagePrefix(pkg)
	if err != nil {
		return "", err
	}
	return filepath.Join(prefix, "share", pkg), nil
}

// Packages lists every package visible through the index, sorted. A package
// shadowed by an earlier prefix is listed once.
func (i *Index) Packages() ([]string, error) {
	seen := make(map[string]bool)
	for _, prefix := range i.prefixes {
		entries, err := os.ReadDir(filepath.Join(prefix, filepath.FromSlash(packagesMarkerDir)))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading resource index of %s: %w", prefix, err)
		}
		for _, e := range entries {
			if !e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
				seen[e.Name()] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
