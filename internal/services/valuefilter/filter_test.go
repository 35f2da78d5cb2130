package valuefilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseForms(t *testing.T) {
	tests := []struct {
		input string
		want  *Filter
	}{
		{">100k", &Filter{Op: OpGreater, Value: 100_000}},
		{">= 2.5m", &Filter{Op: OpGreaterEqual, Value: 2_500_000}},
		{"<500", &Filter{Op: OpLess, Value: 500}},
		{"<=1K", &Filter{Op: OpLessEqual, Value: 1_000}},
		{"=50k", &Filter{Op: OpEqual, Value: 50_000}},
		{"100k", &Filter{Op: OpEqual, Value: 100_000}},
		{"100k-1m", &Filter{Op: OpRange, Min: 100_000, Max: 1_000_000}},
		{"  1.5m - 2m  ", &Filter{Op: OpRange, Min: 1_500_000, Max: 2_000_000}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.input))
		})
	}
}

func TestParseMalformedReturnsNil(t *testing.T) {
	for _, input := range []string{"", "   ", "abc", "100x", "-5", "1m-", ">"} {
		assert.Nil(t, Parse(input), "input %q", input)
	}
}

func TestEvaluateThresholds(t *testing.T) {
	assert.True(t, Evaluate(150_000, Parse(">100k")))
	assert.False(t, Evaluate(90_000, Parse(">100k")))
	assert.True(t, Evaluate(100_000, Parse(">=100k")))
	assert.False(t, Evaluate(100_000, Parse("<100k")))
	assert.True(t, Evaluate(100_000, Parse("<=100k")))
}

func TestEvaluateRangeInclusive(t *testing.T) {
	f := Parse("100k-1m")
	require.NotNil(t, f)

	assert.True(t, Evaluate(500_000, f))
	assert.True(t, Evaluate(100_000, f))
	assert.True(t, Evaluate(1_000_000, f))
	assert.False(t, Evaluate(50_000, f))
}

func TestEvaluateExactMatchTolerance(t *testing.T) {
	f := Parse("100k")

	assert.True(t, Evaluate(105_000, f))
	assert.True(t, Evaluate(95_000, f))
	assert.False(t, Evaluate(120_000, f))
	assert.False(t, Evaluate(110_000, f))
}

func TestEvaluateExactZero(t *testing.T) {
	f := Parse("0")

	assert.True(t, Evaluate(0, f))
	assert.False(t, Evaluate(1, f))
}

func TestEvaluateFailsOpen(t *testing.T) {
	assert.True(t, Evaluate(1, nil))
	assert.True(t, Evaluate(1, Parse("garbage")))
	assert.True(t, Evaluate(1, Parse("<>100")))
	assert.True(t, Evaluate(1, &Filter{Op: "=>", Value: 100}))
}

func TestFilterString(t *testing.T) {
	assert.Equal(t, ">100k", Parse(">100k").String())
	assert.Equal(t, "1m-2.5m", Parse("1m-2.5m").String())
	assert.Equal(t, "any", (*Filter)(nil).String())
}
