package types

import "strings"

// Condition gates whether an action is part of the active set.
// A nil Condition is always true.
type Condition interface {
	Evaluate(ctx SubstitutionContext) (bool, error)
	Describe() string
}

// IfCondition is true when Expression resolves to a true literal.
type IfCondition struct {
	Expression Substitution
}

// Evaluate resolves the expression.
func (c IfCondition) Evaluate(ctx SubstitutionContext) (bool, error) {
	return evaluateConditionExpression(ctx, c.Expression)
}

func (c IfCondition) Describe() string { return "if " + Describe(c.Expression) }

// UnlessCondition is true when Expression resolves to a false literal.
type UnlessCondition struct {
	Expression Substitution
}

// Evaluate resolves the expression and negates it.
func (c UnlessCondition) Evaluate(ctx SubstitutionContext) (bool, error) {
	v, err := evaluateConditionExpression(ctx, c.Expression)
	return !v, err
}

func (c UnlessCondition) Describe() string { return "unless " + Describe(c.Expression) }

// EvaluateCondition treats a nil condition as true.
func EvaluateCondition(ctx SubstitutionContext, c Condition) (bool, error) {
	if c == nil {
		return true, nil
	}
	return c.Evaluate(ctx)
}

// ParseBool accepts true/false/1/0 in any case.
func ParseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, NewValidationError("condition expression %q must be one of: true, false, 1, 0", value)
}

func evaluateConditionExpression(ctx SubstitutionContext, expr Substitution) (bool, error) {
	v, err := Perform(ctx, expr)
	if err != nil {
		return false, err
	}
	return ParseBool(v)
}
