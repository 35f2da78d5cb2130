// Package valuefilter parses value filter expressions such as ">100k" or
// "1m-5m" and evaluates drop values against them.
package valuefilter

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Operator is the comparison a filter applies
type Operator string

const (
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "="
	OpRange        Operator = "range"
)

// equalTolerance is the relative band within which "=" matches
const equalTolerance = 0.1

var (
	rangePattern    = regexp.MustCompile(`^(\d+(?:\.\d+)?)([km]?)\s*-\s*(\d+(?:\.\d+)?)([km]?)$`)
	operatorPattern = regexp.MustCompile(`^([<>=]+)\s*(\d+(?:\.\d+)?)([km]?)$`)
	numberPattern   = regexp.MustCompile(`^(\d+(?:\.\d+)?)([km]?)$`)
)

// Filter is a parsed value predicate. Min and Max are set for OpRange,
// Value for every other operator.
type Filter struct {
	Op    Operator
	Value float64
	Min   float64
	Max   float64
}

// Parse parses filter text. It returns nil for empty or unrecognized input,
// which callers treat as no filter.
func Parse(text string) *Filter {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return nil
	}

	if m := rangePattern.FindStringSubmatch(s); m != nil {
		return &Filter{
			Op:  OpRange,
			Min: shorthand(m[1], m[2]),
			Max: shorthand(m[3], m[4]),
		}
	}

	if m := operatorPattern.FindStringSubmatch(s); m != nil {
		return &Filter{
			Op:    Operator(m[1]),
			Value: shorthand(m[2], m[3]),
		}
	}

	if m := numberPattern.FindStringSubmatch(s); m != nil {
		return &Filter{
			Op:    OpEqual,
			Value: shorthand(m[1], m[2]),
		}
	}

	return nil
}

// Evaluate reports whether value passes f. A nil filter and an unknown
// operator both match everything.
func Evaluate(value float64, f *Filter) bool {
	if f == nil {
		return true
	}
	switch f.Op {
	case OpGreater:
		return value > f.Value
	case OpGreaterEqual:
		return value >= f.Value
	case OpLess:
		return value < f.Value
	case OpLessEqual:
		return value <= f.Value
	case OpEqual:
		if f.Value == 0 {
			return value == 0
		}
		return math.Abs(value-f.Value) < f.Value*equalTolerance
	case OpRange:
		return value >= f.Min && value <= f.Max
	default:
		return true
	}
}

// Match is Evaluate as a method
func (f *Filter) Match(value float64) bool {
	return Evaluate(value, f)
}

func (f *Filter) String() string {
	if f == nil {
		return "any"
	}
	if f.Op == OpRange {
		return fmt.Sprintf("%s-%s", Format(f.Min), Format(f.Max))
	}
	return string(f.Op) + Format(f.Value)
}

// Format renders a value in k/m shorthand
func Format(v float64) string {
	switch {
	case v >= 1_000_000:
		return strconv.FormatFloat(v/1_000_000, 'f', -1, 64) + "m"
	case v >= 1_000:
		return strconv.FormatFloat(v/1_000, 'f', -1, 64) + "k"
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

func shorthand(num, suffix string) float64 {
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	switch suffix {
	case "k":
		return v * 1_000
	case "m":
		return v * 1_000_000
	default:
		return v
	}
}
