package refinement

import (
	"github.com/bits-and-blooms/bitset"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gitlab.grandhoo.com/rock/rock_seco/dataset"
	"gitlab.grandhoo.com/rock/rock_seco/rule"
	"gitlab.grandhoo.com/rock/rock_seco/seco_config"
	"gitlab.grandhoo.com/rock/rock_seco/topk"
	"gitlab.grandhoo.com/rock/rock_seco/utils/seco_logger"
	"gitlab.grandhoo.com/rock/rock_seco/utils/set"
)

// Specializer adds one condition to the parent body.
type Specializer struct {
	ev   Evaluator
	opts Options
	log  *zap.SugaredLogger
}

func NewSpecializer(ev Evaluator, opts Options, log *zap.SugaredLogger) *Specializer {
	return &Specializer{ev: ev, opts: opts, log: seco_logger.OrNop(log)}
}

func (s *Specializer) RefineRule(parent *rule.Rule, examples *dataset.Examples) ([]*rule.Rule, error) {
	conditions, err := s.Conditions(parent, examples)
	if err != nil {
		return nil, err
	}
	children := make([]*rule.Rule, len(conditions))
	for i, c := range conditions {
		children[i] = parent.Extend(c)
	}
	if err := evaluateAll(s.ev, children, parent, examples, s.opts.Parallelism); err != nil {
		return nil, err
	}
	beam := topk.NewBeam(s.opts.BeamWidth)
	beam.AddAll(children)
	s.log.Debugf("[specialize] %v: %d candidates, keep %d", parent, len(children), beam.Len())
	return beam.Items(), nil
}

// Conditions enumerates the candidate conditions for parent, irredundancy
// filter applied.
func (s *Specializer) Conditions(parent *rule.Rule, examples *dataset.Examples) ([]rule.Condition, error) {
	covered := coveredPositions(parent, examples)
	used := set.New[int]()
	existing := set.New[rule.Condition]()
	for _, c := range parent.Body {
		used.Put(c.Attribute)
		existing.Put(c)
	}

	var candidates []rule.Condition
	for _, attr := range examples.Attributes() {
		if examples.IsTarget(attr.Index) {
			continue
		}
		if s.opts.Distinct && used.Exist(attr.Index) {
			continue
		}
		if err := attr.CheckRefinable(); err != nil {
			return nil, err
		}
		if attr.IsNominal() {
			candidates = append(candidates, s.nominalConditions(attr)...)
		} else {
			candidates = append(candidates, numericConditions(attr, parent.Head, examples, covered)...)
		}
	}

	result := candidates[:0]
	for _, c := range candidates {
		if existing.Exist(c) {
			continue
		}
		if s.opts.Irredundant && !irredundant(c, parent.Head, examples, covered) {
			continue
		}
		result = append(result, c)
	}
	return result, nil
}

func (s *Specializer) nominalConditions(attr *dataset.Attribute) []rule.Condition {
	var result []rule.Condition
	for v := range attr.Values {
		if s.opts.Comparison != seco_config.CompareNotEqual {
			result = append(result, rule.Condition{Attribute: attr.Index, Op: rule.Equal, Value: float64(v)})
		}
		if s.opts.Comparison != seco_config.CompareEqual {
			result = append(result, rule.Condition{Attribute: attr.Index, Op: rule.NotEqual, Value: float64(v)})
		}
	}
	return result
}

// 重新加权过的样本不参与阈值扫描
func numericConditions(attr *dataset.Attribute, head rule.Head, examples *dataset.Examples, covered *bitset.BitSet) []rule.Condition {
	var values []float64
	var positive []bool
	for i, ok := covered.NextSet(0); ok; i, ok = covered.NextSet(i + 1) {
		e := examples.At(int(i))
		v := e.Value(attr.Index)
		if dataset.IsMissing(v) || e.Reweighted() {
			continue
		}
		p, known := rule.Matches(e, head)
		if !known {
			continue
		}
		values = append(values, v)
		positive = append(positive, p)
	}
	var result []rule.Condition
	for _, t := range NumericThresholds(values, positive) {
		result = append(result,
			rule.Condition{Attribute: attr.Index, Op: rule.Less, Value: t},
			rule.Condition{Attribute: attr.Index, Op: rule.GreaterEqual, Value: t})
	}
	return result
}

// irredundant: 必须减少覆盖的负例, 且至少保留一个正例
func irredundant(c rule.Condition, head rule.Head, examples *dataset.Examples, covered *bitset.BitSet) bool {
	var negBefore, negAfter, posAfter float64
	for i, ok := covered.NextSet(0); ok; i, ok = covered.NextSet(i + 1) {
		e := examples.At(int(i))
		p, known := rule.Matches(e, head)
		if !known {
			continue
		}
		keep := c.Covers(e)
		if p {
			if keep {
				posAfter += e.Weight()
			}
			continue
		}
		negBefore += e.Weight()
		if keep {
			negAfter += e.Weight()
		}
	}
	return negAfter < negBefore && posAfter > 0
}

func coveredPositions(r *rule.Rule, examples *dataset.Examples) *bitset.BitSet {
	if r.Covered != nil && r.Covered.Len() == uint(examples.Len()) {
		return r.Covered
	}
	covered := bitset.New(uint(examples.Len()))
	for i := 0; i < examples.Len(); i++ {
		if r.Covers(examples.At(i)) {
			covered.Set(uint(i))
		}
	}
	return covered
}

// evaluateAll 并发评估, 每个子规则只写自己的统计量
func evaluateAll(ev Evaluator, children []*rule.Rule, parent *rule.Rule, examples *dataset.Examples, parallelism int) error {
	if parallelism <= 1 {
		for _, child := range children {
			if err := ev.EvaluateIncremental(child, parent, examples); err != nil {
				return err
			}
		}
		return nil
	}
	var g errgroup.Group
	g.SetLimit(parallelism)
	for _, child := range children {
		child := child
		g.Go(func() error {
			return ev.EvaluateIncremental(child, parent, examples)
		})
	}
	return g.Wait()
}
