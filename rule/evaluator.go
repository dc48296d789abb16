package rule

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"gitlab.grandhoo.com/rock/rock_seco/dataset"
	"gitlab.grandhoo.com/rock/rock_seco/heuristic"
)

// Evaluator scores single-label rules against the head target.
type Evaluator struct {
	h heuristic.Heuristic
}

func NewEvaluator(h heuristic.Heuristic) *Evaluator {
	return &Evaluator{h: h}
}

func (ev *Evaluator) Heuristic() heuristic.Heuristic { return ev.h }

// 增量评估需要的状态: 父规则未覆盖部分的矩阵
type evalState struct {
	examples  *dataset.Examples
	target    Assignment
	uncovered heuristic.ConfusionMatrix
}

// Target 单标签目标, 取 head 的第一个赋值
func Target(r *Rule) (Assignment, error) {
	if len(r.Head) == 0 {
		return Assignment{}, fmt.Errorf("rule %v has an empty head", r)
	}
	return r.Head[0], nil
}

// IsPositive 目标缺失时 ok 为 false
func IsPositive(e *dataset.Example, target Assignment) (positive, ok bool) {
	v := e.Value(target.Label)
	if dataset.IsMissing(v) {
		return false, false
	}
	return v == target.Value, true
}

// Matches 样本满足 head 的全部赋值; 任一标签缺失时 ok 为 false
func Matches(e *dataset.Example, head Head) (positive, ok bool) {
	positive = true
	for _, a := range head {
		p, known := IsPositive(e, a)
		if !known {
			return false, false
		}
		positive = positive && p
	}
	return positive, true
}

// Evaluate 全量扫描
func (ev *Evaluator) Evaluate(r *Rule, examples *dataset.Examples) error {
	return ev.EvaluateIncremental(r, nil, examples)
}

// EvaluateIncremental reuses the parent's uncovered statistics and rescans only
// the examples the parent covered. Only valid when r specializes parent; a nil
// parent or a parent evaluated elsewhere falls back to a full scan.
func (ev *Evaluator) EvaluateIncremental(r, parent *Rule, examples *dataset.Examples) error {
	target, err := Target(r)
	if err != nil {
		return err
	}
	var m, uncovered heuristic.ConfusionMatrix
	covered := bitset.New(uint(examples.Len()))
	count := func(i int) {
		e := examples.At(i)
		positive, ok := IsPositive(e, target)
		if !ok {
			return
		}
		if r.Covers(e) {
			covered.Set(uint(i))
			m.Count(true, positive, e.Weight())
		} else {
			uncovered.Count(false, positive, e.Weight())
		}
	}

	if st, ok := reusable(parent, examples, target); ok {
		uncovered = st.uncovered
		for i, found := parent.Covered.NextSet(0); found; i, found = parent.Covered.NextSet(i + 1) {
			count(int(i))
		}
	} else {
		for i := 0; i < examples.Len(); i++ {
			count(i)
		}
	}
	m.Add(uncovered)

	value, err := heuristic.Check(ev.h.Name(), ev.h.Evaluate(m))
	if err != nil {
		return fmt.Errorf("rule %v: %w", r, err)
	}
	r.Heuristic = ev.h.Name()
	r.Stats = m
	r.Value = value
	r.HasBoost = false
	r.Covered = covered
	r.state = &evalState{examples: examples, target: target, uncovered: uncovered}
	return nil
}

func reusable(parent *Rule, examples *dataset.Examples, target Assignment) (*evalState, bool) {
	if parent == nil || parent.Covered == nil {
		return nil, false
	}
	st, ok := parent.state.(*evalState)
	if !ok || st.examples != examples || st.target != target {
		return nil, false
	}
	return st, true
}
