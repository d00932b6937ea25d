package toolbuiltin

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/llmcouncil/llmcouncil/pkg/tool"
)

var calculatorSchema = &tool.JSONSchema{
	Type: "object",
	Properties: map[string]interface{}{
		"expression": map[string]interface{}{
			"type":        "string",
			"description": "The mathematical expression to evaluate (e.g., '2 + 2', 'sqrt(16)', 'sin(pi/2)')",
		},
	},
	Required: []string{"expression"},
}

// CalculatorTool evaluates mathematical expressions with a fixed set of
// functions and constants. Expressions never reach the host beyond the
// expression engine.
type CalculatorTool struct {
	functions map[string]govaluate.ExpressionFunction
	params    map[string]interface{}
}

// NewCalculatorTool constructs a CalculatorTool.
func NewCalculatorTool() *CalculatorTool {
	return &CalculatorTool{
		functions: calculatorFunctions(),
		params: map[string]interface{}{
			"pi": math.Pi,
			"e":  math.E,
		},
	}
}

func (t *CalculatorTool) Name() string { return "calculator" }

func (t *CalculatorTool) Description() string {
	return "Perform mathematical calculations. Supports basic arithmetic, exponents, square root (sqrt), trigonometric functions (sin, cos, tan), logarithms (log, log10), and constants (pi, e)."
}

func (t *CalculatorTool) Schema() *tool.JSONSchema { return calculatorSchema }

func (t *CalculatorTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	raw, _ := args["expression"].(string)
	expression := strings.TrimSpace(raw)
	if expression == "" {
		return "", fmt.Errorf("calculator: expression is required")
	}
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(expression, t.functions)
	if err != nil {
		return "", fmt.Errorf("calculator: invalid expression: %w", err)
	}
	value, err := expr.Evaluate(t.params)
	if err != nil {
		return "", fmt.Errorf("calculator: evaluation failed: %w", err)
	}
	result, ok := value.(float64)
	if !ok {
		return fmt.Sprintf("%v", value), nil
	}
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return "", fmt.Errorf("calculator: division by zero or undefined result")
	}
	return formatNumber(result), nil
}

// formatNumber renders whole values without a decimal point and everything
// else with up to ten significant figures.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.10g", v)
}

func calculatorFunctions() map[string]govaluate.ExpressionFunction {
	unary := func(name string, fn func(float64) float64) govaluate.ExpressionFunction {
		return func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("%s expects 1 argument, got %d", name, len(args))
			}
			x, ok := args[0].(float64)
			if !ok {
				return nil, fmt.Errorf("%s expects a numeric argument", name)
			}
			return fn(x), nil
		}
	}
	binary := func(name string, fn func(float64, float64) float64) govaluate.ExpressionFunction {
		return func(args ...interface{}) (interface{}, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("%s expects 2 arguments, got %d", name, len(args))
			}
			x, okX := args[0].(float64)
			y, okY := args[1].(float64)
			if !okX || !okY {
				return nil, fmt.Errorf("%s expects numeric arguments", name)
			}
			return fn(x, y), nil
		}
	}
	return map[string]govaluate.ExpressionFunction{
		"sqrt":    unary("sqrt", math.Sqrt),
		"sin":     unary("sin", math.Sin),
		"cos":     unary("cos", math.Cos),
		"tan":     unary("tan", math.Tan),
		"asin":    unary("asin", math.Asin),
		"acos":    unary("acos", math.Acos),
		"atan":    unary("atan", math.Atan),
		"log":     unary("log", math.Log),
		"log10":   unary("log10", math.Log10),
		"log2":    unary("log2", math.Log2),
		"exp":     unary("exp", math.Exp),
		"floor":   unary("floor", math.Floor),
		"ceil":    unary("ceil", math.Ceil),
		"abs":     unary("abs", math.Abs),
		"degrees": unary("degrees", func(x float64) float64 { return x * 180 / math.Pi }),
		"radians": unary("radians", func(x float64) float64 { return x * math.Pi / 180 }),
		"round":   unary("round", math.Round),
		"pow":     binary("pow", math.Pow),
		"min":     binary("min", math.Min),
		"max":     binary("max", math.Max),
	}
}
