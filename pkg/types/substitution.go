package types

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SubstitutionContext is what a Substitution is resolved against.
type SubstitutionContext interface {
	// LaunchConfiguration returns the current value of a launch argument.
	LaunchConfiguration(name string) (string, bool)

	// PackageShareDirectory returns the installed share directory of pkg.
	PackageShareDirectory(pkg string) (string, error)
}

// Substitution is a value that is only known once arguments are resolved.
type Substitution interface {
	Perform(ctx SubstitutionContext) (string, error)

	// Describe renders the substitution without resolving it, in the
	// $(...) notation of launch files.
	Describe() string
}

// Text is a literal value.
type Text string

func (t Text) Perform(SubstitutionContext) (string, error) { return string(t), nil }
func (t Text) Describe() string { return string(t) }

// LaunchConfiguration is the value of the named launch argument.
type LaunchConfiguration string

// Perform looks the argument up; an undeclared name is an error.
func (l LaunchConfiguration) Perform(ctx SubstitutionContext) (string, error) {
	v, ok := ctx.LaunchConfiguration(string(l))
	if !ok {
		return "", NewValidationError("launch configuration '%s' does not exist", string(l))
	}
	return v, nil
}

func (l LaunchConfiguration) Describe() string { return "$(var " + string(l) + ")" }

// PackageShare is the installed share directory of a package.
type PackageShare string

func (p PackageShare) Perform(ctx SubstitutionContext) (string, error) {
	return ctx.PackageShareDirectory(string(p))
}

func (p PackageShare) Describe() string { return "$(find-pkg-share " + string(p) + ")" }

// PathJoin joins its parts with the OS path separator.
type PathJoin []Substitution

func (p PathJoin) Perform(ctx SubstitutionContext) (string, error) {
	parts := make([]string, 0, len(p))
	for _, part := range p {
		s, err := part.Perform(ctx)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return filepath.Join(parts...), nil
}

func (p PathJoin) Describe() string {
	parts := make([]string, 0, len(p))
	for _, part := range p {
		parts = append(parts, part.Describe())
	}
	return strings.Join(parts, string(filepath.Separator))
}

// PackagePath is shorthand for PathJoin{PackageShare(pkg), Text(elem)...}.
func PackagePath(pkg string, elem ...string) PathJoin {
	join := PathJoin{PackageShare(pkg)}
	for _, e := range elem {
		join = append(join, Text(e))
	}
	return join
}

// Perform resolves sub, treating nil as the empty string.
func Perform(ctx SubstitutionContext, sub Substitution) (string, error) {
	if sub == nil {
		return "", nil
	}
	v, err := sub.Perform(ctx)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", sub.Describe(), err)
	}
	return v, nil
}

// Describe renders sub, treating nil as the empty string.
func Describe(sub Substitution) string {
	if sub == nil {
		return ""
	}
	return sub.Describe()
}
