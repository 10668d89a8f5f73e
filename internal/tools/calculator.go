// Package tools holds the builtin tool units shipped with the gateway.
package tools

import (
	"context"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/voxline/toolgate/internal/tool"
)

// Calculator returns the four arithmetic units. Each takes numbers a and b
// and returns the bare formatted result as text.
func Calculator() []*tool.Unit {
	return []*tool.Unit{
		arithmeticUnit("add", "Add two numbers", func(a, b float64) (float64, string) {
			return a + b, ""
		}),
		arithmeticUnit("subtract", "Subtract b from a", func(a, b float64) (float64, string) {
			return a - b, ""
		}),
		arithmeticUnit("multiply", "Multiply two numbers", func(a, b float64) (float64, string) {
			return a * b, ""
		}),
		arithmeticUnit("divide", "Divide a by b", func(a, b float64) (float64, string) {
			if b == 0 {
				return 0, "division by zero"
			}

			return a / b, ""
		}),
	}
}

func arithmeticUnit(name, description string, op func(a, b float64) (float64, string)) *tool.Unit {
	return &tool.Unit{
		Name:        name,
		Description: description,
		Schema:      tool.SimpleSchema(map[string]string{"a": "number", "b": "number"}),
		Handler: func(_ context.Context, args map[string]any) (*mcp.CallToolResult, error) {
			a, ok := asNumber(args["a"])
			if !ok {
				return tool.Errorf("parameter a must be a number"), nil
			}

			b, ok := asNumber(args["b"])
			if !ok {
				return tool.Errorf("parameter b must be a number"), nil
			}

			result, errMsg := op(a, b)
			if errMsg != "" {
				return tool.ErrorResult(errMsg), nil
			}

			return tool.TextResult(formatNumber(result)), nil
		},
	}
}

// asNumber accepts the numeric shapes JSON decoding can produce.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)

		return f, err == nil
	default:
		return 0, false
	}
}

// formatNumber renders without trailing zeros: 5 not 5.000000.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
