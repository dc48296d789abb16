package dataset

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

type Example struct {
	index         int // 加载时的行号, 子集中保持不变
	Values        []float64
	weight        float64
	initialWeight float64
	predicted     *bitset.BitSet // 已被前面规则预测过的标签(按标签位置)
}

func (e *Example) Index() int { return e.index }

func (e *Example) Value(attr int) float64 { return e.Values[attr] }

func (e *Example) Weight() float64 { return e.weight }

func (e *Example) InitialWeight() float64 { return e.initialWeight }

// Reweighted 权重被覆盖循环修改过
func (e *Example) Reweighted() bool { return e.weight != e.initialWeight }

// Predicted reports whether the label at labelPos was predicted by an earlier rule.
func (e *Example) Predicted(labelPos int) bool {
	return e.predicted != nil && e.predicted.Test(uint(labelPos))
}

// Examples is an ordered, weighted example collection. Subsets share *Example
// values, so weights written through any view are visible in all of them.
type Examples struct {
	attributes   []*Attribute
	examples     []*Example
	classIndex   int   // 单标签的类别属性, 没有为 -1
	labelIndices []int // 多标签的标签属性
	labelPos     map[int]int
}

// New creates a single-label collection; classIndex may be -1.
func New(attributes []*Attribute, classIndex int) *Examples {
	ex := newExamples(attributes)
	ex.classIndex = classIndex
	if classIndex >= 0 {
		ex.labelIndices = []int{classIndex}
		ex.labelPos[classIndex] = 0
	}
	return ex
}

// NewMultiLabel creates a collection whose label attributes are binary nominals.
func NewMultiLabel(attributes []*Attribute, labelIndices []int) *Examples {
	ex := newExamples(attributes)
	ex.classIndex = -1
	ex.labelIndices = append([]int(nil), labelIndices...)
	for pos, idx := range labelIndices {
		ex.labelPos[idx] = pos
	}
	return ex
}

func newExamples(attributes []*Attribute) *Examples {
	for i, a := range attributes {
		a.Index = i
	}
	return &Examples{
		attributes: attributes,
		labelPos:   make(map[int]int),
	}
}

// Add 追加一行, values 长度必须等于属性个数
func (ex *Examples) Add(values []float64, weight float64) error {
	if len(values) != len(ex.attributes) {
		return fmt.Errorf("example has %d values, expect %d", len(values), len(ex.attributes))
	}
	if weight < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeWeight, weight)
	}
	ex.examples = append(ex.examples, &Example{
		index:         len(ex.examples),
		Values:        values,
		weight:        weight,
		initialWeight: weight,
	})
	return nil
}

func (ex *Examples) Len() int { return len(ex.examples) }

func (ex *Examples) At(i int) *Example { return ex.examples[i] }

func (ex *Examples) Attribute(i int) *Attribute { return ex.attributes[i] }

func (ex *Examples) Attributes() []*Attribute { return ex.attributes }

func (ex *Examples) NumAttributes() int { return len(ex.attributes) }

func (ex *Examples) ClassIndex() int { return ex.classIndex }

func (ex *Examples) LabelIndices() []int { return ex.labelIndices }

func (ex *Examples) NumLabels() int { return len(ex.labelIndices) }

func (ex *Examples) IsMultiLabel() bool { return ex.classIndex < 0 && len(ex.labelIndices) > 0 }

// LabelPosition 标签属性在 LabelIndices 中的位置
func (ex *Examples) LabelPosition(attr int) (int, bool) {
	pos, ok := ex.labelPos[attr]
	return pos, ok
}

// IsTarget 类别属性或标签属性, 不能出现在规则体中
func (ex *Examples) IsTarget(attr int) bool {
	_, ok := ex.labelPos[attr]
	return ok
}

func (ex *Examples) SetWeight(i int, weight float64) error {
	if weight < 0 {
		return fmt.Errorf("%w: example %d weight %v", ErrNegativeWeight, ex.examples[i].index, weight)
	}
	ex.examples[i].weight = weight
	return nil
}

// SetPredicted 标记样本 i 的标签 attr 已被预测
func (ex *Examples) SetPredicted(i int, attr int) {
	pos, ok := ex.labelPos[attr]
	if !ok {
		return
	}
	e := ex.examples[i]
	if e.predicted == nil {
		e.predicted = bitset.New(uint(len(ex.labelIndices)))
	}
	e.predicted.Set(uint(pos))
}

func (ex *Examples) TotalWeight() float64 {
	var sum float64
	for _, e := range ex.examples {
		sum += e.weight
	}
	return sum
}

// Subset 按位置取子集, 共享样本和属性
func (ex *Examples) Subset(positions []int) *Examples {
	sub := ex.emptyView(len(positions))
	for _, p := range positions {
		sub.examples = append(sub.examples, ex.examples[p])
	}
	return sub
}

// Filter keeps the examples for which keep returns true.
func (ex *Examples) Filter(keep func(e *Example) bool) *Examples {
	sub := ex.emptyView(len(ex.examples))
	for _, e := range ex.examples {
		if keep(e) {
			sub.examples = append(sub.examples, e)
		}
	}
	return sub
}

func (ex *Examples) emptyView(capacity int) *Examples {
	return &Examples{
		attributes:   ex.attributes,
		examples:     make([]*Example, 0, capacity),
		classIndex:   ex.classIndex,
		labelIndices: ex.labelIndices,
		labelPos:     ex.labelPos,
	}
}

// ResetWeights 恢复加载时的权重, 并清除已预测标签
func (ex *Examples) ResetWeights() {
	for _, e := range ex.examples {
		e.weight = e.initialWeight
		e.predicted = nil
	}
}

// View 与 ex 共享样本的完整视图
func (ex *Examples) View() *Examples {
	return ex.Filter(func(*Example) bool { return true })
}
