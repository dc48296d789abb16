package refinement

import (
	"go.uber.org/zap"

	"gitlab.grandhoo.com/rock/rock_seco/dataset"
	"gitlab.grandhoo.com/rock/rock_seco/rule"
	"gitlab.grandhoo.com/rock/rock_seco/topk"
	"gitlab.grandhoo.com/rock/rock_seco/utils/seco_logger"
)

// Generalizer removes one condition per child. Coverage may grow, so children
// are always evaluated from scratch.
type Generalizer struct {
	ev   Evaluator
	opts Options
	log  *zap.SugaredLogger
}

func NewGeneralizer(ev Evaluator, opts Options, log *zap.SugaredLogger) *Generalizer {
	return &Generalizer{ev: ev, opts: opts, log: seco_logger.OrNop(log)}
}

func (g *Generalizer) RefineRule(parent *rule.Rule, examples *dataset.Examples) ([]*rule.Rule, error) {
	children := g.Children(parent)
	if len(children) == 0 {
		return nil, nil
	}
	if err := evaluateAll(g.ev, children, nil, examples, g.opts.Parallelism); err != nil {
		return nil, err
	}
	beam := topk.NewBeam(g.opts.BeamWidth)
	beam.AddAll(children)
	g.log.Debugf("[generalize] %v: %d candidates, keep %d", parent, len(children), beam.Len())
	return beam.Items(), nil
}

// Children 每个条件对应一个删除该条件的子规则, 空规则体没有子规则
func (g *Generalizer) Children(parent *rule.Rule) []*rule.Rule {
	children := make([]*rule.Rule, 0, parent.Length())
	for i := range parent.Body {
		children = append(children, parent.Without(i))
	}
	return children
}

// Bidirectional runs both operators on the same parent and merges their
// results into one bounded set.
type Bidirectional struct {
	specializer *Specializer
	generalizer *Generalizer
	opts        Options
}

func NewBidirectional(ev Evaluator, opts Options, log *zap.SugaredLogger) *Bidirectional {
	return &Bidirectional{
		specializer: NewSpecializer(ev, opts, log),
		generalizer: NewGeneralizer(ev, opts, log),
		opts:        opts,
	}
}

func (b *Bidirectional) RefineRule(parent *rule.Rule, examples *dataset.Examples) ([]*rule.Rule, error) {
	specialized, err := b.specializer.RefineRule(parent, examples)
	if err != nil {
		return nil, err
	}
	generalized, err := b.generalizer.RefineRule(parent, examples)
	if err != nil {
		return nil, err
	}
	beam := topk.NewBeam(b.opts.BeamWidth)
	beam.AddAll(specialized)
	beam.AddAll(generalized)
	return beam.Items(), nil
}
