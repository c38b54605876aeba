package launch

import (
	"strings"

	"github.com/rzbill/navlaunch/pkg/ament"
)

// launchContext is the substitution context of one evaluation.
type launchContext struct {
	values     map[string]string
	resolver   ament.Resolver
	namespaces []string
}

func (c *launchContext) LaunchConfiguration(name string) (string, bool) {
	v, ok := c.values[name]
	return v, ok
}

func (c *launchContext) PackageShareDirectory(pkg string) (string, error) {
	return c.resolver.PackageShareDirectory(pkg)
}

// namespace is the namespace currently in effect, "" at the root.
func (c *launchContext) namespace() string {
	if len(c.namespaces) == 0 {
		return ""
	}
	return c.namespaces[len(c.namespaces)-1]
}

func (c *launchContext) pushNamespace(pushed string) {
	c.namespaces = append(c.namespaces, JoinNamespace(c.namespace(), pushed))
}

func (c *launchContext) popNamespace() {
	c.namespaces = c.namespaces[:len(c.namespaces)-1]
}

// JoinNamespace applies a pushed namespace on top of base. An absolute push
// replaces base, a relative one nests under it and an empty one is a no-op.
// The result is absolute, or "" when no namespace applies.
func JoinNamespace(base, pushed string) string {
	pushed = strings.TrimSpace(pushed)
	switch {
	case pushed == "" || pushed == "/":
		return NormalizeNamespace(base)
	case strings.HasPrefix(pushed, "/"):
		return NormalizeNamespace(pushed)
	case base == "":
		return NormalizeNamespace(pushed)
	default:
		return NormalizeNamespace(base + "/" + pushed)
	}
}

// NormalizeNamespace makes ns absolute, collapses repeated separators and
// drops the trailing one. The root namespace normalizes to "".
func NormalizeNamespace(ns string) string {
	parts := strings.FieldsFunc(ns, func(r rune) bool { return r == '/' })
	if len(parts) == 0 {
		return ""
	}
	return "/" + strings.Join(parts, "/")
}
