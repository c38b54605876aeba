package types

import "sort"

// LaunchDescription is a declarative launch file: its arguments and the
// ordered actions they parameterize.
type LaunchDescription struct {
	Name        string
	Description string
	Arguments   []Argument
	Actions     []Action
}

// Argument returns the declaration named name.
func (d *LaunchDescription) Argument(name string) (Argument, bool) {
	for _, a := range d.Arguments {
		if a.Name == name {
			return a, true
		}
	}
	return Argument{}, false
}

// Validate checks argument declarations and action shapes.
func (d *LaunchDescription) Validate() error {
	seen := make(map[string]bool, len(d.Arguments))
	for _, a := range d.Arguments {
		if err := a.Validate(); err != nil {
			return err
		}
		if seen[a.Name] {
			return NewValidationError("launch argument '%s' declared twice", a.Name)
		}
		seen[a.Name] = true
	}
	return validateActions(d.Actions)
}

func validateActions(actions []Action) error {
	for _, action := range actions {
		switch a := action.(type) {
		case *Node:
			if a.Package == "" || a.Executable == "" {
				return NewValidationError("%s: package and executable are required", a.ActionName())
			}
			if err := a.Output.Validate(); err != nil {
				return WrapValidationError(err, "%s", a.ActionName())
			}
			for _, p := range a.Parameters {
				if rw, ok := p.(RewrittenYAML); ok && rw.Source == nil {
					return NewValidationError("%s: rewritten parameters need a source file", a.ActionName())
				}
			}
		case *IncludeLaunch:
			if a.Path == nil {
				return NewValidationError("include: path is required")
			}
		case *Group:
			if err := validateActions(a.Actions); err != nil {
				return err
			}
		case nil:
			return NewValidationError("nil action")
		default:
			return NewValidationError("unsupported action %s", action.ActionName())
		}
	}
	return nil
}

// Packages lists every package the description refers to, through node
// packages or package share substitutions, in sorted order. Conditions are
// not evaluated.
func (d *LaunchDescription) Packages() []string {
	seen := map[string]bool{}
	for _, a := range d.Arguments {
		collectPackages(a.Default, seen)
	}
	collectActionPackages(d.Actions, seen)

	out := make([]string, 0, len(seen))
	for pkg := range seen {
		out = append(out, pkg)
	}
	sort.Strings(out)
	return out
}

func collectActionPackages(actions []Action, seen map[string]bool) {
	for _, action := range actions {
		switch a := action.(type) {
		case *Node:
			seen[a.Package] = true
			for _, arg := range a.Arguments {
				collectPackages(arg, seen)
			}
			for _, p := range a.Parameters {
				switch p := p.(type) {
				case ParameterFile:
					collectPackages(p.Path, seen)
				case RewrittenYAML:
					collectPackages(p.Source, seen)
				}
			}
		case *IncludeLaunch:
			collectPackages(a.Path, seen)
			for _, arg := range a.Arguments {
				collectPackages(arg.Value, seen)
			}
		case *Group:
			collectActionPackages(a.Actions, seen)
		}
	}
}

func collectPackages(sub Substitution, seen map[string]bool) {
	switch s := sub.(type) {
	case PackageShare:
		seen[string(s)] = true
	case PathJoin:
		for _, part := range s {
			collectPackages(part, seen)
		}
	}
}
