package assertion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpectation(t *testing.T) {
	cases := []struct {
		name string
		raw  any
		want Expectation
	}{
		{"bare int", 5, Expectation{OpEq, 5}},
		{"int64", int64(3), Expectation{OpEq, 3}},
		{"whole float from yaml", float64(4), Expectation{OpEq, 4}},
		{"numeric string", "7", Expectation{OpEq, 7}},
		{"gte", ">= 2", Expectation{OpGte, 2}},
		{"gte no space", ">=10", Expectation{OpGte, 10}},
		{"gt", "> 0", Expectation{OpGt, 0}},
		{"lte", "<= 9", Expectation{OpLte, 9}},
		{"lt", "< 2", Expectation{OpLt, 2}},
		{"padded", "  >= 4  ", Expectation{OpGte, 4}},
		{"range lower bound only", "~30-50", Expectation{OpGte, 30}},
		{"range small bounds", "~2-10", Expectation{OpGte, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseExpectation(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("rejects garbage", func(t *testing.T) {
		for _, raw := range []any{"many", ">= x", "~x-y", "~5", 1.5, nil, []int{1}} {
			_, err := ParseExpectation(raw)
			var parseErr *ParseError
			assert.ErrorAs(t, err, &parseErr, "raw=%v", raw)
		}
	})
}

func TestExpectationMet(t *testing.T) {
	cases := []struct {
		exp    Expectation
		actual int
		want   bool
	}{
		{Expectation{OpEq, 5}, 5, true},
		{Expectation{OpEq, 5}, 4, false},
		{Expectation{OpGte, 2}, 2, true},
		{Expectation{OpGte, 2}, 1, false},
		{Expectation{OpGt, 0}, 1, true},
		{Expectation{OpGt, 0}, 0, false},
		{Expectation{OpLte, 3}, 3, true},
		{Expectation{OpLte, 3}, 4, false},
		{Expectation{OpLt, 2}, 1, true},
		{Expectation{OpLt, 2}, 2, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.exp.Met(tc.actual), "%s vs %d", tc.exp, tc.actual)
	}
}

// The range form deliberately ignores its upper bound: an overshoot is
// treated as a pass.
func TestRangeUpperBoundUnenforced(t *testing.T) {
	exp, err := ParseExpectation("~30-50")
	require.NoError(t, err)
	assert.True(t, exp.Met(200))
}

func TestExpectationString(t *testing.T) {
	assert.Equal(t, "== 5", Expectation{OpEq, 5}.String())
	assert.Equal(t, ">= 2", Expectation{OpGte, 2}.String())
}
