package multilabel

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"gitlab.grandhoo.com/rock/rock_seco/heuristic"
)

// labelMatrices 单个标签的精度和召回统计
type labelMatrices struct {
	m      heuristic.ConfusionMatrix
	recall heuristic.ConfusionMatrix
}

// accumulator collects the statistics of a set of examples for every
// averaging strategy at once.
type accumulator struct {
	pooled       heuristic.ConfusionMatrix
	pooledRecall heuristic.ConfusionMatrix
	labels       map[int]*labelMatrices
	values       []float64 // 每个样本的取值
	weights      []float64 // 每个样本的权重
}

func newAccumulator() *accumulator {
	return &accumulator{labels: make(map[int]*labelMatrices)}
}

func (a *accumulator) label(l int) *labelMatrices {
	lm, ok := a.labels[l]
	if !ok {
		lm = &labelMatrices{}
		a.labels[l] = lm
	}
	return lm
}

func (a *accumulator) addExample(value, weight float64) {
	a.values = append(a.values, value)
	a.weights = append(a.weights, weight)
}

// merge 把 o 加到 a 中, 不共享 o 的内存
func (a *accumulator) merge(o *accumulator) {
	a.pooled.Add(o.pooled)
	a.pooledRecall.Add(o.pooledRecall)
	for l, lm := range o.labels {
		t := a.label(l)
		t.m.Add(lm.m)
		t.recall.Add(lm.recall)
	}
	a.values = append(a.values, o.values...)
	a.weights = append(a.weights, o.weights...)
}

// compact returns a copy whose per-example values are folded into one
// weighted entry.
func (a *accumulator) compact() *accumulator {
	c := newAccumulator()
	c.pooled = a.pooled
	c.pooledRecall = a.pooledRecall
	for l, lm := range a.labels {
		cp := *lm
		c.labels[l] = &cp
	}
	if w := floats.Sum(a.weights); w > 0 {
		c.addExample(stat.Mean(a.values, a.weights), w)
	}
	return c
}

// exampleMean 按样本权重的加权平均, 没有权重时为 0
func (a *accumulator) exampleMean() float64 {
	if floats.Sum(a.weights) <= 0 {
		return 0
	}
	return stat.Mean(a.values, a.weights)
}
