package dataset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weatherExamples(t *testing.T) *Examples {
	attrs := []*Attribute{
		NewNominal("outlook", "sunny", "rainy"),
		NewNumeric("temperature"),
		NewNominal("play", "no", "yes"),
	}
	ex := New(attrs, 2)
	require.NoError(t, ex.Add([]float64{0, 30, 0}, 1))
	require.NoError(t, ex.Add([]float64{1, 18, 1}, 1))
	require.NoError(t, ex.Add([]float64{0, Missing, 1}, 2))
	return ex
}

func TestExamples(t *testing.T) {
	ex := weatherExamples(t)

	assert.Equal(t, 3, ex.Len())
	assert.Equal(t, 2, ex.Attribute(2).Index)
	assert.True(t, ex.IsTarget(2))
	assert.False(t, ex.IsTarget(0))
	assert.False(t, ex.IsMultiLabel())
	assert.Equal(t, 4.0, ex.TotalWeight())
	assert.True(t, IsMissing(ex.At(2).Value(1)))
	assert.Equal(t, "rainy", ex.Attribute(0).Format(1))
	assert.Equal(t, "?", ex.Attribute(1).Format(Missing))

	err := ex.Add([]float64{0, 1}, 1)
	assert.Error(t, err)
}

func TestSetWeight(t *testing.T) {
	ex := weatherExamples(t)

	require.NoError(t, ex.SetWeight(0, 0.5))
	assert.True(t, ex.At(0).Reweighted())
	assert.False(t, ex.At(1).Reweighted())

	err := ex.SetWeight(1, -1)
	assert.True(t, errors.Is(err, ErrNegativeWeight))
	assert.Equal(t, 1.0, ex.At(1).Weight())

	err = ex.Add([]float64{0, 1, 0}, -2)
	assert.True(t, errors.Is(err, ErrNegativeWeight))
}

func TestSubsetSharesExamples(t *testing.T) {
	ex := weatherExamples(t)
	sub := ex.Subset([]int{2, 0})

	require.Equal(t, 2, sub.Len())
	assert.Equal(t, 2, sub.At(0).Index())
	require.NoError(t, sub.SetWeight(1, 3))
	assert.Equal(t, 3.0, ex.At(0).Weight())

	positives := ex.Filter(func(e *Example) bool { return e.Value(2) == 1 })
	assert.Equal(t, 2, positives.Len())
	assert.Equal(t, ex.ClassIndex(), positives.ClassIndex())
}

func TestPredictedLabels(t *testing.T) {
	attrs := []*Attribute{
		NewNumeric("x"),
		NewNominal("l1", "0", "1"),
		NewNominal("l2", "0", "1"),
	}
	ex := NewMultiLabel(attrs, []int{1, 2})
	require.NoError(t, ex.Add([]float64{1, 1, 0}, 1))

	assert.True(t, ex.IsMultiLabel())
	pos, ok := ex.LabelPosition(2)
	assert.True(t, ok)
	assert.Equal(t, 1, pos)

	assert.False(t, ex.At(0).Predicted(1))
	ex.SetPredicted(0, 2)
	ex.SetPredicted(0, 0) // 不是标签, 忽略
	assert.True(t, ex.At(0).Predicted(1))
	assert.False(t, ex.At(0).Predicted(0))
}

func TestCheckRefinable(t *testing.T) {
	assert.NoError(t, NewNumeric("x").CheckRefinable())
	err := (&Attribute{Name: "d", Kind: Date}).CheckRefinable()
	assert.True(t, errors.Is(err, ErrUnsupportedAttribute))
}

func TestResetWeights(t *testing.T) {
	ex := weatherExamples(t)
	view := ex.View()
	require.NoError(t, view.SetWeight(0, 0))
	view.SetPredicted(1, 2)
	assert.True(t, ex.At(0).Reweighted())

	ex.ResetWeights()
	assert.False(t, ex.At(0).Reweighted())
	assert.Equal(t, 1.0, ex.At(0).Weight())
	assert.False(t, ex.At(1).Predicted(0))
}
