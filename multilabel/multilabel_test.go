package multilabel

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.grandhoo.com/rock/rock_seco/boosting"
	"gitlab.grandhoo.com/rock/rock_seco/dataset"
	"gitlab.grandhoo.com/rock/rock_seco/heuristic"
	"gitlab.grandhoo.com/rock/rock_seco/rule"
	"gitlab.grandhoo.com/rock/rock_seco/seco_config"
)

var averagings = []string{
	seco_config.AveragingMicro,
	seco_config.AveragingMacro,
	seco_config.AveragingLabelBased,
	seco_config.AveragingExampleBased,
}

func binary(name string) *dataset.Attribute {
	return dataset.NewNominal(name, "0", "1")
}

func newEvaluator(t *testing.T, h heuristic.Heuristic, props seco_config.Properties) *Evaluator {
	ev, err := NewEvaluator(props, h, nil, nil)
	require.NoError(t, err)
	return ev
}

func TestSingleLabelEquivalence(t *testing.T) {
	labels := []float64{1, 1, 0, 1, 0}
	weights := []float64{1, 2, 1, 1, 3}
	attrs := func() []*dataset.Attribute { return []*dataset.Attribute{dataset.NewNumeric("x"), binary("y")} }

	single := dataset.New(attrs(), 1)
	multi := dataset.NewMultiLabel(attrs(), []int{1})
	for i, l := range labels {
		require.NoError(t, single.Add([]float64{float64(i), l}, weights[i]))
		require.NoError(t, multi.Add([]float64{float64(i), l}, weights[i]))
	}

	plain := rule.New(rule.Single(1, 1))
	require.NoError(t, rule.NewEvaluator(heuristic.Precision{}).Evaluate(plain, single))
	assert.Equal(t, 0.5, plain.Value)

	for _, averaging := range averagings {
		ev := newEvaluator(t, heuristic.Precision{}, seco_config.Properties{seco_config.KeyAveraging: averaging})
		r := rule.New(rule.Single(1, 1))
		require.NoError(t, ev.Evaluate(r, multi))
		assert.InDelta(t, plain.Value, r.Value, 1e-12, averaging)
		assert.Equal(t, plain.Stats, r.Stats, averaging)
		assert.Equal(t, plain.Stats, r.LabelStats[1], averaging)
	}
}

// x = 1..4, A = [1,1,0,0], B = [1,1,0,0], C = [0,1,1,0]
func threeLabels(t *testing.T) *dataset.Examples {
	ex := dataset.NewMultiLabel([]*dataset.Attribute{
		dataset.NewNumeric("x"), binary("A"), binary("B"), binary("C"),
	}, []int{1, 2, 3})
	rows := [][]float64{
		{1, 1, 1, 0},
		{2, 1, 1, 1},
		{3, 0, 0, 1},
		{4, 0, 0, 0},
	}
	for _, row := range rows {
		require.NoError(t, ex.Add(row, 1))
	}
	return ex
}

func TestRuleIndependentRelevance(t *testing.T) {
	ex := threeLabels(t)
	body := rule.Condition{Attribute: 0, Op: rule.Less, Value: 2.5}
	r := rule.New(rule.Single(1, 1), body)

	dependent := newEvaluator(t, heuristic.Precision{}, seco_config.Properties{})
	require.NoError(t, dependent.Evaluate(r, ex))
	assert.Equal(t, heuristic.ConfusionMatrix{TP: 2, TN: 2}, r.Stats)

	independent := newEvaluator(t, heuristic.Precision{}, seco_config.Properties{
		seco_config.KeyRelevance: seco_config.RuleIndependent,
		seco_config.KeyDamping:   seco_config.DampingNone,
	})
	require.NoError(t, independent.Evaluate(r, ex))
	// B 和 C 不在 head 中, 视为未覆盖, 目标为 1
	assert.Equal(t, heuristic.ConfusionMatrix{TP: 2, TN: 2}, r.LabelStats[1])
	assert.Equal(t, heuristic.ConfusionMatrix{FN: 2, TN: 2}, r.LabelStats[2])
	assert.Equal(t, heuristic.ConfusionMatrix{FN: 2, TN: 2}, r.LabelStats[3])
	assert.Equal(t, heuristic.ConfusionMatrix{TP: 2, FN: 4, TN: 6}, r.Stats)

	fixed := newEvaluator(t, heuristic.Precision{}, seco_config.Properties{
		seco_config.KeyRelevance: seco_config.RuleIndependent,
		seco_config.KeyLabels:    "1, 3, 42",
	})
	require.NoError(t, fixed.Evaluate(r, ex))
	assert.Len(t, r.LabelStats, 2)

	_, err := RelevantLabels(seco_config.RuleDependent, nil, rule.Single(0, 1), ex)
	assert.Error(t, err)
}

func TestMissingLabelsSkipped(t *testing.T) {
	ex := threeLabels(t)
	require.NoError(t, ex.Add([]float64{1.5, dataset.Missing, 1, 1}, 5))
	r := rule.New(rule.Single(1, 1))
	for _, averaging := range averagings {
		ev := newEvaluator(t, heuristic.Precision{}, seco_config.Properties{seco_config.KeyAveraging: averaging})
		require.NoError(t, ev.Evaluate(r, ex))
		assert.Equal(t, 0.5, r.Value, averaging)
		assert.Equal(t, 4.0, r.Stats.Total(), averaging)
		assert.True(t, r.Covered.Test(4))
	}
}

func TestMicroDamping(t *testing.T) {
	ex := threeLabels(t)
	head := rule.NewHead(rule.Assignment{Label: 1, Value: 1}, rule.Assignment{Label: 2, Value: 1})
	r := rule.New(head, rule.Condition{Attribute: 0, Op: rule.Less, Value: 2.5})

	logEv := newEvaluator(t, heuristic.Precision{}, seco_config.Properties{})
	require.NoError(t, logEv.Evaluate(r, ex))
	assert.InDelta(t, 1/(1+math.Ln2), r.Value, 1e-12)

	none := newEvaluator(t, heuristic.Precision{}, seco_config.Properties{seco_config.KeyDamping: seco_config.DampingNone})
	require.NoError(t, none.Evaluate(r, ex))
	assert.Equal(t, 1.0, r.Value)
	assert.Equal(t, 1.0, none.Damping(5))
}

func TestAveragingStrategiesDiffer(t *testing.T) {
	ex := threeLabels(t)
	head := rule.NewHead(rule.Assignment{Label: 1, Value: 1}, rule.Assignment{Label: 3, Value: 1})
	// 覆盖 x=2,3: A=[1,0], C=[1,1]
	r := rule.New(head, rule.Condition{Attribute: 0, Op: rule.GreaterEqual, Value: 1.5}, rule.Condition{Attribute: 0, Op: rule.Less, Value: 3.5})

	// laplace: 单个 TP 2/3, FP 1/3, 未覆盖 1/2
	want := map[string]float64{
		seco_config.AveragingMicro:        4.0 / 6,
		seco_config.AveragingLabelBased:   (0.5 + 0.75) / 2,
		seco_config.AveragingExampleBased: (0.5 + 0.75 + 0.5 + 0.5) / 4,
		seco_config.AveragingMacro:        (0.5 + 2.0/3 + 0.5 + 0.5) / 4,
	}
	for averaging, v := range want {
		ev := newEvaluator(t, heuristic.Laplace{}, seco_config.Properties{
			seco_config.KeyAveraging: averaging,
			seco_config.KeyDamping:   seco_config.DampingNone,
		})
		require.NoError(t, ev.Evaluate(r, ex))
		assert.InDelta(t, v, r.Value, 1e-12, averaging)
	}
}

func TestOptimizationModes(t *testing.T) {
	ex := dataset.NewMultiLabel([]*dataset.Attribute{dataset.NewNumeric("x"), binary("y")}, []int{1})
	for x := 1; x <= 3; x++ {
		require.NoError(t, ex.Add([]float64{float64(x), 1}, 1))
	}
	ex.SetPredicted(1, 1)
	r := rule.New(rule.Single(1, 1), rule.Condition{Attribute: 0, Op: rule.Less, Value: 1.5})

	want := map[string]float64{
		"":                              2.0 / 3,
		seco_config.OptimizationClassic: 0.5,
		seco_config.OptimizationAdapted: 2.0 / 3,
		seco_config.OptimizationClever:  0.8,
		seco_config.OptimizationCovered: 1,
	}
	for mode, v := range want {
		ev := newEvaluator(t, heuristic.FMeasure{Beta: 1}, seco_config.Properties{seco_config.KeyOptimization: mode})
		require.NoError(t, ev.Evaluate(r, ex))
		assert.InDelta(t, v, r.Value, 1e-12, mode)
		// x=2 的 pair 已被预测, 不计入精度侧
		assert.Equal(t, heuristic.ConfusionMatrix{TP: 1, FN: 1}, r.Stats, mode)
	}

	_, err := NewEvaluator(seco_config.Properties{seco_config.KeyOptimization: "greedy"}, heuristic.FMeasure{Beta: 1}, nil, nil)
	assert.True(t, errors.Is(err, seco_config.ErrConfig))
	_, err = NewEvaluator(seco_config.Properties{seco_config.KeyAveraging: "median"}, heuristic.Precision{}, nil, nil)
	assert.True(t, errors.Is(err, seco_config.ErrConfig))
}

func randomMultiLabel(t *testing.T, seed int64) *dataset.Examples {
	rnd := rand.New(rand.NewSource(seed))
	ex := dataset.NewMultiLabel([]*dataset.Attribute{
		dataset.NewNumeric("x"), dataset.NewNominal("c", "p", "q", "r"),
		binary("l1"), binary("l2"), binary("l3"),
	}, []int{2, 3, 4})
	for i := 0; i < 60; i++ {
		row := []float64{float64(rnd.Intn(20)), float64(rnd.Intn(3)), float64(rnd.Intn(2)), float64(rnd.Intn(2)), float64(rnd.Intn(2))}
		if rnd.Intn(8) == 0 {
			row[3] = dataset.Missing
		}
		require.NoError(t, ex.Add(row, float64(1+rnd.Intn(3))))
		if rnd.Intn(4) == 0 {
			ex.SetPredicted(i, 2)
		}
	}
	return ex
}

func TestIncrementalMatchesFull(t *testing.T) {
	ex := randomMultiLabel(t, 17)
	head := rule.NewHead(rule.Assignment{Label: 2, Value: 1}, rule.Assignment{Label: 3, Value: 0})
	for _, averaging := range averagings {
		for _, relevance := range []string{seco_config.RuleDependent, seco_config.RuleIndependent} {
			ev := newEvaluator(t, heuristic.Laplace{}, seco_config.Properties{
				seco_config.KeyAveraging:    averaging,
				seco_config.KeyRelevance:    relevance,
				seco_config.KeyOptimization: seco_config.OptimizationClever,
			})
			parent := rule.New(head, rule.Condition{Attribute: 0, Op: rule.Less, Value: 12.5})
			require.NoError(t, ev.Evaluate(parent, ex))
			child := parent.Extend(rule.Condition{Attribute: 1, Op: rule.NotEqual, Value: 2})
			require.NoError(t, ev.EvaluateIncremental(child, parent, ex))
			grandChild := child.Extend(rule.Condition{Attribute: 0, Op: rule.GreaterEqual, Value: 3.5})
			require.NoError(t, ev.EvaluateIncremental(grandChild, child, ex))

			for _, r := range []*rule.Rule{child, grandChild} {
				full := rule.New(r.Head, r.Body...)
				require.NoError(t, ev.Evaluate(full, ex))
				assert.InDelta(t, full.Value, r.Value, 1e-9, "%s/%s", averaging, relevance)
				assert.Equal(t, full.Stats, r.Stats)
				assert.Equal(t, full.LabelStats, r.LabelStats)
				assert.True(t, full.Covered.Equal(r.Covered))
			}
			assert.True(t, parent.Covered.IsSuperSet(grandChild.Covered))
		}
	}
}

func TestHeadFinder(t *testing.T) {
	ex := threeLabels(t)
	body := rule.New(nil, rule.Condition{Attribute: 0, Op: rule.Less, Value: 2.5})

	booster, err := boosting.New(seco_config.Properties{seco_config.KeyScale: "0.1"}, 3, nil)
	require.NoError(t, err)
	props := seco_config.Properties{seco_config.KeyDamping: seco_config.DampingNone}
	ev, err := NewEvaluator(props, heuristic.Precision{}, booster, nil)
	require.NoError(t, err)

	r, err := NewHeadFinder(props, ev, nil).FindHead(body, ex)
	require.NoError(t, err)
	assert.Equal(t, rule.NewHead(rule.Assignment{Label: 1, Value: 1}, rule.Assignment{Label: 2, Value: 1}), r.Head)
	assert.Equal(t, 1.0, r.Value)
	assert.InDelta(t, 1+0.1*math.Ln2, r.Score(), 1e-12)

	limited, err := NewHeadFinder(props.With(seco_config.KeyMaxHeadSize, "1"), ev, nil).FindHead(body, ex)
	require.NoError(t, err)
	assert.Equal(t, rule.Single(1, 1), limited.Head)

	// precision 已达上界, 不再扩展
	plain := newEvaluator(t, heuristic.Precision{}, props)
	pruned, err := NewHeadFinder(props, plain, nil).FindHead(body, ex)
	require.NoError(t, err)
	assert.Equal(t, rule.Single(1, 1), pruned.Head)

	// 规则体不覆盖任何样本
	empty := rule.New(nil, rule.Condition{Attribute: 0, Op: rule.Less, Value: 0.5})
	_, err = NewHeadFinder(props, plain, nil).FindHead(empty, ex)
	assert.True(t, errors.Is(err, ErrNoHead))
}
