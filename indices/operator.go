package indices

import (
	"math"
	"strings"
)

// Operator is the comparison applied between climate data and a threshold.
type Operator string

const (
	OpGreater        Operator = ">"
	OpLower          Operator = "<"
	OpGreaterOrEqual Operator = ">="
	OpLowerOrEqual   Operator = "<="
	OpEqual          Operator = "=="
)

var operatorAliases = map[string]Operator{
	">":     OpGreater,
	"gt":    OpGreater,
	"<":     OpLower,
	"lt":    OpLower,
	">=":    OpGreaterOrEqual,
	"ge":    OpGreaterOrEqual,
	"gte":   OpGreaterOrEqual,
	"<=":    OpLowerOrEqual,
	"le":    OpLowerOrEqual,
	"lte":   OpLowerOrEqual,
	"==":    OpEqual,
	"=":     OpEqual,
	"e":     OpEqual,
	"eq":    OpEqual,
	"equal": OpEqual,
}

// ParseOperator resolves an operator spelling or alias ("gt", ">=", "eq").
func ParseOperator(s string) (Operator, error) {
	op, ok := operatorAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", newConfigError("unknown operator %q", s)
	}
	return op, nil
}

// Valid reports whether o is one of the five supported comparisons.
func (o Operator) Valid() bool {
	switch o {
	case OpGreater, OpLower, OpGreaterOrEqual, OpLowerOrEqual, OpEqual:
		return true
	}
	return false
}

// Compare applies the operator to a data value and a threshold value.
// Comparing against NaN on either side is false: missing data never
// exceeds a threshold.
func (o Operator) Compare(value, threshold float64) bool {
	if math.IsNaN(value) || math.IsNaN(threshold) {
		return false
	}
	switch o {
	case OpGreater:
		return value > threshold
	case OpLower:
		return value < threshold
	case OpGreaterOrEqual:
		return value >= threshold
	case OpLowerOrEqual:
		return value <= threshold
	case OpEqual:
		return value == threshold
	default:
		return false
	}
}

// word returns the spelled-out comparison for metadata rendering.
func (o Operator) word() string {
	switch o {
	case OpGreater:
		return "above"
	case OpLower:
		return "below"
	case OpGreaterOrEqual:
		return "at or above"
	case OpLowerOrEqual:
		return "at or below"
	case OpEqual:
		return "equal to"
	default:
		return string(o)
	}
}

// slug returns the comparison as a standard-name fragment.
func (o Operator) slug() string {
	return strings.ReplaceAll(o.word(), " ", "_")
}

func (o Operator) String() string { return string(o) }
