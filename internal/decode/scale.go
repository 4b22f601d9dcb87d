// internal/decode/scale.go
package decode

import (
	"fmt"

	"github.com/Knetic/govaluate"
)

// Compile checks that an equation parses and only refers to x.
func Compile(equation string) error {
	expr, err := govaluate.NewEvaluableExpression(equation)
	if err != nil {
		return fmt.Errorf("decode: equation %q: %w", equation, err)
	}
	for _, v := range expr.Vars() {
		if v != "x" {
			return fmt.Errorf("decode: equation %q: unknown variable %q", equation, v)
		}
	}
	return nil
}

// Scale evaluates equation with x bound to the decoded value.
// An empty equation returns x unchanged.
func Scale(equation string, x float64) (float64, error) {
	if equation == "" {
		return x, nil
	}

	expr, err := govaluate.NewEvaluableExpression(equation)
	if err != nil {
		return 0, fmt.Errorf("decode: equation %q: %w", equation, err)
	}

	out, err := expr.Evaluate(map[string]interface{}{"x": x})
	if err != nil {
		return 0, fmt.Errorf("decode: evaluate %q: %w", equation, err)
	}

	v, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("decode: equation %q produced %T, want number", equation, out)
	}
	return v, nil
}
