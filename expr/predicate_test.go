package expr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph/jdm/expr"
	"github.com/flowgraph/jdm/value"
)

func TestPredicateEmptyIsAlwaysTrue(t *testing.T) {
	ok, err := expr.EvalPredicate("", value.OfNumber(5), value.NewObject())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = expr.EvalPredicate("-", value.OfNumber(5), value.NewObject())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPredicateBareValueShorthand(t *testing.T) {
	ok, err := expr.EvalPredicate("30", value.OfNumber(30), value.NewObject())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = expr.EvalPredicate("30", value.OfNumber(31), value.NewObject())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = expr.EvalPredicate(`"adult"`, value.OfString("adult"), value.NewObject())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPredicateRangeShorthand(t *testing.T) {
	ok, err := expr.EvalPredicate("[18..65]", value.OfNumber(30), value.NewObject())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = expr.EvalPredicate("[18..65]", value.OfNumber(70), value.NewObject())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPredicateComparisonOnDollar(t *testing.T) {
	ok, err := expr.EvalPredicate("< 18", value.OfNumber(10), value.NewObject())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = expr.EvalPredicate("> 65", value.OfNumber(70), value.NewObject())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPredicateNegativeBareValue(t *testing.T) {
	ok, err := expr.EvalPredicate("-5", value.OfNumber(-5), value.NewObject())
	require.NoError(t, err)
	assert.True(t, ok)
}
