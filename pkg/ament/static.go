package ament

import (
	"fmt"
	"path/filepath"
	"strings"
)

// StaticIndex maps package names straight to share directories. It backs the
// --share-dir overrides and tests.
type StaticIndex map[string]string

// PackageShareDirectory implements Resolver.
func (s StaticIndex) PackageShareDirectory(pkg string) (string, error) {
	dir, ok := s[pkg]
	if !ok {
		return "", &PackageNotFoundError{Package: pkg}
	}
	return dir, nil
}

// PackagePrefix implements Resolver, assuming the <prefix>/share/<pkg> layout.
func (s StaticIndex) PackagePrefix(pkg string) (string, error) {
	dir, err := s.PackageShareDirectory(pkg)
	if err != nil {
		return "", err
	}
	return filepath.Dir(filepath.Dir(dir)), nil
}

// ParseOverride parses a "pkg=dir" flag value.
func ParseOverride(value string) (string, string, error) {
	pkg, dir, ok := strings.Cut(value, "=")
	if !ok || pkg == "" || dir == "" {
		return "", "", fmt.Errorf("invalid share directory override %q, expected <package>=<dir>", value)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", "", err
	}
	return pkg, abs, nil
}

// Chain tries each resolver in order and returns the first hit.
type Chain []Resolver

// PackagePrefix implements Resolver.
func (c Chain) PackagePrefix(pkg string) (string, error) {
	return c.first(func(r Resolver) (string, error) { return r.PackagePrefix(pkg) }, pkg)
}

// PackageShareDirectory implements Resolver.
func (c Chain) PackageShareDirectory(pkg string) (string, error) {
	return c.first(func(r Resolver) (string, error) { return r.PackageShareDirectory(pkg) }, pkg)
}

func (c Chain) first(fn func(Resolver) (string, error), pkg string) (string, error) {
	var prefixes []string
	for _, r := range c {
		v, err := fn(r)
		if err == nil {
			return v, nil
		}
		nf, ok := err.(*PackageNotFoundError)
		if !ok {
			return "", err
		}
		prefixes = append(prefixes, nf.Prefixes...)
	}
	return "", &PackageNotFoundError{Package: pkg, Prefixes: prefixes}
}

// ExecutablePath returns <prefix>/lib/<pkg>/<exe> for a package executable.
func ExecutablePath(r Resolver, pkg, exe string) (string, error) {
	prefix, err := r.PackagePrefix(pkg)
	if err != nil {
		return "", err
	}
	return filepath.Join(prefix, "lib", pkg, exe), nil
}
