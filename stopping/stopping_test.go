package stopping

import (
	"errors"
	"math"
	"testing"

	"github.com/RoaringBitmap/roaring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"gitlab.grandhoo.com/rock/rock_seco/dataset"
	"gitlab.grandhoo.com/rock/rock_seco/heuristic"
	"gitlab.grandhoo.com/rock/rock_seco/multilabel"
	"gitlab.grandhoo.com/rock/rock_seco/rule"
	"gitlab.grandhoo.com/rock/rock_seco/seco_config"
)

func TestCriticalValues(t *testing.T) {
	seen := make(map[float64]float64)
	for _, level := range SignificanceLevels() {
		v, err := CriticalValue(level)
		require.NoError(t, err)
		assert.InDelta(t, distuv.ChiSquared{K: 1}.Quantile(level), v, 1e-3, "level %v", level)
		_, dup := seen[v]
		assert.False(t, dup)
		seen[v] = level
	}
	assert.Len(t, seen, 9)

	for _, level := range []float64{0, 0.5, 0.91, 0.999, 1} {
		_, err := CriticalValue(level)
		assert.True(t, errors.Is(err, seco_config.ErrConfig), "level %v", level)
	}

	_, err := NewCriterion(seco_config.Properties{
		seco_config.KeyName:         seco_config.StopLikelihoodRatio,
		seco_config.KeySignificance: "0.91",
	}, nil)
	assert.True(t, errors.Is(err, seco_config.ErrConfig))
}

func withStats(m heuristic.ConfusionMatrix) *rule.Rule {
	r := rule.New(rule.Single(1, 1), rule.Condition{Attribute: 0, Op: rule.Less, Value: 1})
	r.Stats = m
	return r
}

func TestLikelihoodRatio(t *testing.T) {
	c, err := NewCriterion(seco_config.Properties{seco_config.KeyName: seco_config.StopLikelihoodRatio}, nil)
	require.NoError(t, err)
	lr := c.(LikelihoodRatio)
	assert.Equal(t, 2.706, lr.Critical)

	pure := withStats(heuristic.ConfusionMatrix{TP: 10, TN: 10})
	assert.InDelta(t, 20*math.Ln2, lr.Statistic(pure), 1e-9)
	stop, err := lr.CheckForStop(pure, nil)
	require.NoError(t, err)
	assert.False(t, stop)

	random := withStats(heuristic.ConfusionMatrix{TP: 5, FP: 5, TN: 5, FN: 5})
	stop, err = lr.CheckForStop(random, nil)
	require.NoError(t, err)
	assert.True(t, stop)

	stop, err = lr.CheckForStop(withStats(heuristic.ConfusionMatrix{TN: 4, FN: 4}), nil)
	require.NoError(t, err)
	assert.True(t, stop)

	// 与父规则分布一致, 不显著
	parent := withStats(heuristic.ConfusionMatrix{TP: 10, TN: 10})
	child := parent.Extend(rule.Condition{Attribute: 2, Op: rule.Equal, Value: 0})
	child.Stats = heuristic.ConfusionMatrix{TP: 5, TN: 10, FN: 5}
	stop, err = LikelihoodRatio{Critical: 2.706, ComparePredecessor: true}.CheckForStop(child, nil)
	require.NoError(t, err)
	assert.True(t, stop)
	stop, err = LikelihoodRatio{Critical: 2.706}.CheckForStop(child, nil)
	require.NoError(t, err)
	assert.False(t, stop)
}

func TestLikelihoodRatioPredecessorFallback(t *testing.T) {
	lr := LikelihoodRatio{Critical: 2.706, ComparePredecessor: true}
	parent := withStats(heuristic.ConfusionMatrix{TP: 5, TN: 5})

	// 泛化得到的子规则不与父规则比较
	general := parent.Without(0)
	general.Stats = heuristic.ConfusionMatrix{TP: 5, FP: 5}
	assert.Equal(t, 0.0, lr.Statistic(general))
	stop, err := lr.CheckForStop(general, nil)
	require.NoError(t, err)
	assert.True(t, stop)

	// 父规则无负例, 子规则覆盖负例时期望为 0, 退回全局先验
	special := parent.Extend(rule.Condition{Attribute: 2, Op: rule.Equal, Value: 0})
	special.Stats = heuristic.ConfusionMatrix{TP: 3, FP: 1}
	v := lr.Statistic(special)
	assert.False(t, math.IsInf(v, 0) || math.IsNaN(v))
	_, err = lr.CheckForStop(special, nil)
	require.NoError(t, err)
}

func TestNoNegatives(t *testing.T) {
	c, err := NewCriterion(seco_config.Properties{seco_config.KeyName: seco_config.StopNoNegatives}, nil)
	require.NoError(t, err)
	stop, _ := c.CheckForStop(withStats(heuristic.ConfusionMatrix{TP: 3, TN: 1}), nil)
	assert.True(t, stop)
	stop, _ = c.CheckForStop(withStats(heuristic.ConfusionMatrix{TP: 3, FP: 1}), nil)
	assert.False(t, stop)

	c, err = NewCriterion(seco_config.Properties{}, nil)
	require.NoError(t, err)
	stop, _ = c.CheckForStop(withStats(heuristic.ConfusionMatrix{}), nil)
	assert.False(t, stop)
}

// x = 1..20, class = 1 iff x <= 10
func twentyExamples(t *testing.T) *dataset.Examples {
	ex := dataset.New([]*dataset.Attribute{
		dataset.NewNumeric("x"),
		dataset.NewNominal("class", "0", "1"),
	}, 1)
	for x := 1; x <= 20; x++ {
		class := 0.0
		if x <= 10 {
			class = 1
		}
		require.NoError(t, ex.Add([]float64{float64(x), class}, 1))
	}
	return ex
}

func evaluated(t *testing.T, ex *dataset.Examples, c rule.Condition) *rule.Rule {
	r := rule.New(rule.Single(1, 1), c)
	require.NoError(t, rule.NewEvaluator(heuristic.Precision{}).Evaluate(r, ex))
	return r
}

func TestCoverageAndDefaultRule(t *testing.T) {
	ex := twentyExamples(t)
	head := rule.Single(1, 1)

	coverage, err := NewRuleSetCriterion(seco_config.Properties{}, rule.NewEvaluator(heuristic.Precision{}), nil)
	require.NoError(t, err)
	d, err := coverage.CheckForRuleStop(rule.NewRuleSet(), evaluated(t, ex, rule.Condition{Op: rule.Less, Value: 12.5}), ex, roaring.New(), head)
	require.NoError(t, err)
	assert.False(t, d.Stop)
	assert.Nil(t, d.Remaining)
	d, _ = coverage.CheckForRuleStop(rule.NewRuleSet(), evaluated(t, ex, rule.Condition{Op: rule.GreaterEqual, Value: 6.5}), ex, roaring.New(), head)
	assert.True(t, d.Stop) // tp=4, fp=10

	def, err := NewRuleSetCriterion(seco_config.Properties{seco_config.KeyName: seco_config.RuleStopDefaultRule}, rule.NewEvaluator(heuristic.Precision{}), nil)
	require.NoError(t, err)
	d, err = def.CheckForRuleStop(rule.NewRuleSet(), evaluated(t, ex, rule.Condition{Op: rule.Less, Value: 10.5}), ex, nil, head)
	require.NoError(t, err)
	assert.False(t, d.Stop)
	// precision 1/3 is below the default rule's 0.5
	d, _ = def.CheckForRuleStop(rule.NewRuleSet(), evaluated(t, ex, rule.Condition{Op: rule.GreaterEqual, Value: 5.5}), ex, nil, head)
	assert.True(t, d.Stop)
	empty := rule.New(head)
	empty.Value = 1
	d, _ = def.CheckForRuleStop(rule.NewRuleSet(), empty, ex, nil, head)
	assert.True(t, d.Stop)

	_, err = NewRuleSetCriterion(seco_config.Properties{seco_config.KeyName: "entropy"}, rule.NewEvaluator(heuristic.Precision{}), nil)
	assert.True(t, errors.Is(err, seco_config.ErrConfig))
}

// x = 1..8, A = B = 1 iff x <= 6
func twoLabels(t *testing.T) *dataset.Examples {
	ex := dataset.NewMultiLabel([]*dataset.Attribute{
		dataset.NewNumeric("x"),
		dataset.NewNominal("A", "0", "1"),
		dataset.NewNominal("B", "0", "1"),
	}, []int{1, 2})
	for x := 1; x <= 8; x++ {
		l := 0.0
		if x <= 6 {
			l = 1
		}
		require.NoError(t, ex.Add([]float64{float64(x), l, l}, 1))
	}
	return ex
}

func TestDefaultRuleMultiLabel(t *testing.T) {
	ex := twoLabels(t)
	ev, err := multilabel.NewEvaluator(seco_config.Properties{}, heuristic.Precision{}, nil, nil)
	require.NoError(t, err)
	head := rule.NewHead(rule.Assignment{Label: 1, Value: 1}, rule.Assignment{Label: 2, Value: 1})
	r := rule.New(head, rule.Condition{Op: rule.Less, Value: 6.5})
	require.NoError(t, ev.Evaluate(r, ex))
	damping := 1 / (1 + math.Ln2)
	require.InDelta(t, damping, r.Score(), 1e-9)

	def, err := NewRuleSetCriterion(seco_config.Properties{seco_config.KeyName: seco_config.RuleStopDefaultRule}, ev, nil)
	require.NoError(t, err)
	// 空规则体: pooled precision 12/16, 同样按 head 大小衰减
	d, err := def.CheckForRuleStop(rule.NewRuleSet(), r, ex, nil, head)
	require.NoError(t, err)
	assert.False(t, d.Stop)

	worse := rule.New(head, rule.Condition{Op: rule.GreaterEqual, Value: 4.5})
	require.NoError(t, ev.Evaluate(worse, ex))
	d, err = def.CheckForRuleStop(rule.NewRuleSet(), worse, ex, nil, head)
	require.NoError(t, err)
	assert.True(t, d.Stop)
}

func TestMDL(t *testing.T) {
	ex := twentyExamples(t)
	head := rule.Single(1, 1)
	c, err := NewRuleSetCriterion(seco_config.Properties{seco_config.KeyName: seco_config.RuleStopMDL}, rule.NewEvaluator(heuristic.Precision{}), nil)
	require.NoError(t, err)
	mdl := c.(*MDL)
	assert.Equal(t, 64.0, mdl.Surplus)
	assert.Equal(t, 0.5, mdl.MaxErrorRate)

	perfect := evaluated(t, ex, rule.Condition{Op: rule.Less, Value: 10.5})
	d, err := mdl.CheckForRuleStop(rule.NewRuleSet(), perfect, ex, roaring.New(), head)
	require.NoError(t, err)
	assert.False(t, d.Stop)
	require.NotNil(t, d.Remaining)
	assert.Equal(t, 10, d.Remaining.Len())
	for i := 0; i < d.Remaining.Len(); i++ {
		assert.Equal(t, 0.0, d.Remaining.At(i).Value(1))
	}
	assert.Less(t, mdl.MinDL(), 28.6)

	// 剩余样本中没有正例
	next := evaluated(t, d.Remaining, rule.Condition{Op: rule.GreaterEqual, Value: 15.5})
	d2, err := mdl.CheckForRuleStop(rule.NewRuleSet(), next, d.Remaining, roaring.New(), head)
	require.NoError(t, err)
	assert.True(t, d2.Stop)
	assert.Same(t, d.Remaining, d2.Remaining)

	mdl.Reset()
	sloppy := evaluated(t, ex, rule.Condition{Op: rule.GreaterEqual, Value: 4.5})
	d, err = mdl.CheckForRuleStop(rule.NewRuleSet(), sloppy, ex, roaring.New(), head)
	require.NoError(t, err)
	assert.True(t, d.Stop) // error rate 10/16

	strict := NewMDL(-20, 0.5, nil)
	d, err = strict.CheckForRuleStop(rule.NewRuleSet(), evaluated(t, ex, rule.Condition{Op: rule.Less, Value: 12.5}), ex, roaring.New(), head)
	require.NoError(t, err)
	assert.True(t, d.Stop)
}

func TestMDLSkipsTheoryCoverage(t *testing.T) {
	ex := twentyExamples(t)
	covered := roaring.BitmapOf(0, 1, 2)
	r := evaluated(t, ex, rule.Condition{Op: rule.Less, Value: 10.5})
	d, err := NewMDL(64, 0.5, nil).CheckForRuleStop(rule.NewRuleSet(), r, ex, covered, rule.Single(1, 1))
	require.NoError(t, err)
	assert.False(t, d.Stop)
	assert.Equal(t, 10, d.Remaining.Len())
	for i := 0; i < d.Remaining.Len(); i++ {
		assert.False(t, covered.Contains(uint32(d.Remaining.At(i).Index())))
	}
}

func TestDescriptionLengths(t *testing.T) {
	assert.Equal(t, 0.0, RuleDL(0, 10))
	assert.InDelta(t, 0.5*(-math.Log2(0.05)-19*math.Log2(0.95)), RuleDL(1, 20), 1e-9)
	assert.Equal(t, 0.0, SubsetDL(10, 0, 0))
	assert.InDelta(t, math.Log2(21)+20-10*math.Log2(0.75), DataDL(0.5, 0, 20, 0, 10), 1e-9)

	_, err := checkDL(math.NaN())
	assert.True(t, errors.Is(err, heuristic.ErrDegenerate))
}
