package stopping

import (
	"github.com/RoaringBitmap/roaring"
	"go.uber.org/zap"

	"gitlab.grandhoo.com/rock/rock_seco/dataset"
	"gitlab.grandhoo.com/rock/rock_seco/rule"
	"gitlab.grandhoo.com/rock/rock_seco/seco_config"
	"gitlab.grandhoo.com/rock/rock_seco/utils/seco_logger"
)

// Decision of a rule set criterion. A non-nil Remaining replaces the working
// example set of the covering loop.
type Decision struct {
	Stop      bool
	Remaining *dataset.Examples
}

// RuleSetCriterion decides whether r should still be added to theory. covered
// holds the Index of every example the theory already covers.
type RuleSetCriterion interface {
	CheckForRuleStop(theory *rule.RuleSet, r *rule.Rule, examples *dataset.Examples, covered *roaring.Bitmap, target rule.Head) (Decision, error)
	// Reset 开始学习新的目标前调用
	Reset()
}

// Coverage 覆盖的负例不少于正例时停止
type Coverage struct{}

func (Coverage) CheckForRuleStop(_ *rule.RuleSet, r *rule.Rule, _ *dataset.Examples, _ *roaring.Bitmap, _ rule.Head) (Decision, error) {
	return Decision{Stop: r.Stats.TP <= r.Stats.FP}, nil
}

func (Coverage) Reset() {}

// RuleEvaluator scores a rule the way the search does.
type RuleEvaluator interface {
	Evaluate(r *rule.Rule, examples *dataset.Examples) error
}

// DefaultRule stops when r is no better than the empty-body rule with the same
// head, or r itself has an empty body. Both are scored by the same evaluator,
// so averaging, damping and boosting apply to both.
type DefaultRule struct {
	ev RuleEvaluator
}

func NewDefaultRule(ev RuleEvaluator) *DefaultRule {
	return &DefaultRule{ev: ev}
}

func (d *DefaultRule) CheckForRuleStop(_ *rule.RuleSet, r *rule.Rule, examples *dataset.Examples, _ *roaring.Bitmap, target rule.Head) (Decision, error) {
	if r.IsEmpty() {
		return Decision{Stop: true}, nil
	}
	def := rule.New(target)
	if err := d.ev.Evaluate(def, examples); err != nil {
		return Decision{}, err
	}
	return Decision{Stop: r.Score() <= def.Score()}, nil
}

func (d *DefaultRule) Reset() {}

// NeverRule 从不停止
type NeverRule struct{}

func (NeverRule) CheckForRuleStop(*rule.RuleSet, *rule.Rule, *dataset.Examples, *roaring.Bitmap, rule.Head) (Decision, error) {
	return Decision{}, nil
}

func (NeverRule) Reset() {}

// NewRuleSetCriterion builds the rule set criterion named by "name", coverage
// by default. ev is the evaluator the rules are scored with.
func NewRuleSetCriterion(props seco_config.Properties, ev RuleEvaluator, log *zap.SugaredLogger) (RuleSetCriterion, error) {
	log = seco_logger.OrNop(log)
	r := props.Reader(seco_config.ComponentRuleStop, log)
	name, err := r.OneOf(seco_config.KeyName, seco_config.RuleStopCoverage,
		seco_config.RuleStopCoverage, seco_config.RuleStopDefaultRule, seco_config.RuleStopMDL, seco_config.RuleStopNone)
	if err != nil {
		return nil, err
	}
	switch name {
	case seco_config.RuleStopDefaultRule:
		return NewDefaultRule(ev), nil
	case seco_config.RuleStopMDL:
		return NewMDL(
			r.Float(seco_config.KeySurplus, seco_config.DefaultSurplus),
			r.Float(seco_config.KeyMaxErrorRate, seco_config.DefaultMaxErrorRate),
			log,
		), nil
	case seco_config.RuleStopNone:
		return NeverRule{}, nil
	}
	return Coverage{}, nil
}
