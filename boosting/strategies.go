package boosting

import (
	"fmt"
	"math"

	"github.com/Knetic/govaluate"

	"gitlab.grandhoo.com/rock/rock_seco/seco_config"
)

// Log 1 + c·ln(h)
func Log(c float64) func(h float64) (float64, error) {
	return func(h float64) (float64, error) {
		return 1 + c*math.Log(h), nil
	}
}

// Root h^(1/r)
func Root(r float64) func(h float64) (float64, error) {
	return func(h float64) (float64, error) {
		return math.Pow(h, 1/r), nil
	}
}

// LinearLog grows linearly with slope c up to the switch point s and
// logarithmically afterwards, continuous with the same slope at s.
func LinearLog(c, s float64) func(h float64) (float64, error) {
	return func(h float64) (float64, error) {
		if h <= s {
			return 1 + c*(h-1), nil
		}
		return 1 + c*(s-1) + c*s*math.Log(h/s), nil
	}
}

// Peak rises from (1, 1) to (peak, maxBoost) and falls back to 1 at
// maxLabels; curvature bends both sides. peak must be at least 2.
func Peak(peak, maxLabels, maxBoost, curvature float64) func(h float64) (float64, error) {
	return func(h float64) (float64, error) {
		var x float64
		switch {
		case h == peak:
			x = 1
		case h < peak:
			x = (h - 1) / (peak - 1)
		default:
			x = (maxLabels - h) / (maxLabels - peak)
		}
		return 1 + math.Pow(x, 1/curvature)*(maxBoost-1), nil
	}
}

// Expression evaluates a formula in the variable h; ln, log2, sqrt and pow are
// available as functions.
func Expression(expr string) (func(h float64) (float64, error), error) {
	if expr == "" {
		return nil, fmt.Errorf("%w: empty boosting expression", seco_config.ErrConfig)
	}
	expression, err := govaluate.NewEvaluableExpressionWithFunctions(expr, functions)
	if err != nil {
		return nil, fmt.Errorf("%w: expression %q: %v", seco_config.ErrConfig, expr, err)
	}
	return func(h float64) (float64, error) {
		result, err := expression.Evaluate(map[string]interface{}{"h": h})
		if err != nil {
			return 0, fmt.Errorf("%w: expression %q at h=%v: %v", seco_config.ErrConfig, expr, h, err)
		}
		v, ok := result.(float64)
		if !ok {
			return 0, fmt.Errorf("%w: expression %q returned %T", seco_config.ErrConfig, expr, result)
		}
		return v, nil
	}, nil
}

var functions = map[string]govaluate.ExpressionFunction{
	"ln":   unary(math.Log),
	"log2": unary(math.Log2),
	"sqrt": unary(math.Sqrt),
	"pow": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("pow expects 2 arguments, got %d", len(args))
		}
		x, ok1 := args[0].(float64)
		y, ok2 := args[1].(float64)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("pow expects numbers")
		}
		return math.Pow(x, y), nil
	},
}

func unary(f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expects 1 argument, got %d", len(args))
		}
		x, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("expects a number, got %T", args[0])
		}
		return f(x), nil
	}
}
