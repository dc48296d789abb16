package refinement

import (
	"fmt"
	"math/rand"

	"gitlab.grandhoo.com/rock/rock_seco/dataset"
	"gitlab.grandhoo.com/rock/rock_seco/rule"
)

// TopInitializer 空规则体, 覆盖全部样本
type TopInitializer struct {
	ev Evaluator
}

func (t *TopInitializer) InitializeRule(examples *dataset.Examples, head rule.Head) (*rule.Rule, error) {
	r := rule.New(head)
	if err := t.ev.EvaluateIncremental(r, nil, examples); err != nil {
		return nil, err
	}
	return r, nil
}

// BottomInitializer starts from the most specific rule of a random positive
// seed example: nominal values become equalities, numeric values lower bounds.
type BottomInitializer struct {
	ev  Evaluator
	rnd *rand.Rand
}

func (b *BottomInitializer) InitializeRule(examples *dataset.Examples, head rule.Head) (*rule.Rule, error) {
	body, err := b.seedBody(examples, head)
	if err != nil {
		return nil, err
	}
	r := rule.New(head, body...)
	if err := b.ev.EvaluateIncremental(r, nil, examples); err != nil {
		return nil, err
	}
	return r, nil
}

func (b *BottomInitializer) seedBody(examples *dataset.Examples, head rule.Head) ([]rule.Condition, error) {
	var seeds []int
	for i := 0; i < examples.Len(); i++ {
		e := examples.At(i)
		if p, ok := rule.Matches(e, head); ok && p && e.Weight() > 0 {
			seeds = append(seeds, i)
		}
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no positive example for head %v", head)
	}
	seed := examples.At(seeds[b.rnd.Intn(len(seeds))])

	var body []rule.Condition
	for _, attr := range examples.Attributes() {
		if examples.IsTarget(attr.Index) {
			continue
		}
		if err := attr.CheckRefinable(); err != nil {
			return nil, err
		}
		v := seed.Value(attr.Index)
		if dataset.IsMissing(v) {
			continue
		}
		op := rule.Equal
		if attr.IsNumeric() {
			op = rule.GreaterEqual
		}
		body = append(body, rule.Condition{Attribute: attr.Index, Op: op, Value: v})
	}
	return body, nil
}

// RandomInitializer 从 bottom 规则中随机保留每个条件, 概率 1/2
type RandomInitializer struct {
	BottomInitializer
}

func (r *RandomInitializer) InitializeRule(examples *dataset.Examples, head rule.Head) (*rule.Rule, error) {
	full, err := r.seedBody(examples, head)
	if err != nil {
		return nil, err
	}
	var body []rule.Condition
	for _, c := range full {
		if r.rnd.Intn(2) == 0 {
			body = append(body, c)
		}
	}
	result := rule.New(head, body...)
	if err := r.ev.EvaluateIncremental(result, nil, examples); err != nil {
		return nil, err
	}
	return result, nil
}
