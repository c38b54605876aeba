package types

// ParameterOverlay is one entry of a node's parameter list. Later overlays
// take precedence over earlier ones.
type ParameterOverlay interface {
	overlay()
}

// ParameterFile passes an existing parameter file through unchanged.
type ParameterFile struct {
	Path Substitution
}

// Parameter is a single name/value pair of a ParameterMap. The value's text is
// converted to a typed scalar (bool, int, float or string) on resolution.
type Parameter struct {
	Name  string
	Value Substitution
}

// ParameterMap is an inline set of parameters, kept in declaration order.
type ParameterMap []Parameter

// RewrittenYAML loads Source, applies Rewrites to matching leaves, and nests
// the document under RootKey when it resolves non-empty.
type RewrittenYAML struct {
	Source Substitution

	RootKey Substitution

	// Rewrites maps a leaf key, or a dotted path, to its replacement value.
	Rewrites map[string]Substitution

	// ConvertTypes turns numeric rewrite values into ints and floats.
	// Booleans are always converted.
	ConvertTypes bool
}

func (ParameterFile) overlay() {}
func (ParameterMap) overlay() {}
func (RewrittenYAML) overlay() {}
