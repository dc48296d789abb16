package rule_dig

import (
	"errors"

	"github.com/RoaringBitmap/roaring"
	cmap "github.com/orcaman/concurrent-map"

	"gitlab.grandhoo.com/rock/rock_seco/boosting"
	"gitlab.grandhoo.com/rock/rock_seco/dataset"
	"gitlab.grandhoo.com/rock/rock_seco/multilabel"
	"gitlab.grandhoo.com/rock/rock_seco/rule"
	"gitlab.grandhoo.com/rock/rock_seco/seco_config"
	"gitlab.grandhoo.com/rock/rock_seco/utils/storage_utils/duration"
)

// DigMultiLabelRules learns multi-head rules. After each rule the labels in its
// head are marked predicted on the covered examples; the loop ends once every
// label of every example is predicted or no rule passes the rule set criterion.
// The default rule predicts the majority values of the examples left over.
// A "boosting" section in the config enables boosting of rule values.
func (l *Learner) DigMultiLabelRules(examples *dataset.Examples) (*Result, error) {
	var booster *boosting.Booster
	if props := l.conf.Get(seco_config.ComponentBoosting); len(props) > 0 {
		var err error
		if booster, err = boosting.New(props, examples.NumLabels(), l.log); err != nil {
			return nil, err
		}
	}
	props := l.conf.Get(seco_config.ComponentMultiLabel)
	ev, err := multilabel.NewEvaluator(props, l.h, booster, l.log)
	if err != nil {
		return nil, err
	}
	s, err := l.newSearcher(ev)
	if err != nil {
		return nil, err
	}
	s.heads = multilabel.NewHeadFinder(props, ev, l.log)

	var timer duration.Duration
	timer.Enter()
	examples.ResetWeights()
	l.log.Infof("[DigMultiLabelRules] start, examples:%v, labels:%v", examples.Len(), examples.NumLabels())

	theory := rule.NewRuleSet()
	evaluated := cmap.New()
	covered := roaring.New()
	working := examples.View()
	s.ruleStop.Reset()
	for theory.Len() < l.maxRules {
		if unpredictedWeight(working) == 0 {
			break
		}
		var rd duration.Duration
		rd.Enter()
		start, ok, err := l.initialMultiLabelRule(s, working)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		best, err := l.findBestRule(s, working, start, evaluated)
		rd.Exit()
		if err != nil {
			return nil, err
		}
		if best.IsEmpty() || best.Stats.TP == 0 {
			break
		}
		if containsRule(theory, best) {
			// 已学到的规则再次出现, 去掉它覆盖的样本后继续
			working = withoutCovered(working, best)
			continue
		}
		decision, err := s.ruleStop.CheckForRuleStop(theory, best, working, covered, best.Head)
		if err != nil {
			return nil, err
		}
		if decision.Stop {
			l.log.Debugf("[DigMultiLabelRules] stop before %v", best.Format(working))
			break
		}
		theory.Add(best)
		l.log.Infof("[DigMultiLabelRules] 规则:%v, value:%.4f, 单条规则执行时间:%v", best.Format(working), best.Score(), rd.DurationString())

		markCovered(covered, working, best)
		markPredicted(working, best)
		if decision.Remaining != nil {
			working = decision.Remaining
			continue
		}
		if working, err = l.reweightMultiLabel(working, best); err != nil {
			return nil, err
		}
	}
	// 默认规则取剩余样本中的多数取值
	if working.Len() == 0 {
		working = examples
	}
	defHead := majorityHead(working)
	examples.ResetWeights()

	def := rule.New(defHead)
	if err := ev.Evaluate(def, examples); err != nil {
		return nil, err
	}
	theory.SetDefault(def)
	timer.Exit()
	l.log.Infof("[DigMultiLabelRules] finish, 规则数:%v, 评估规则数:%v, 执行时间:%v", theory.Len(), evaluated.Count(), timer.AccumulationString())
	return &Result{Theory: theory, Evaluated: evaluated.Count(), Time: timer.AccumulationString()}, nil
}

// initialMultiLabelRule finds the best head of the empty body, then lets the
// initializer seed a body for that head. ok is false when no head covers a
// positive pair.
func (l *Learner) initialMultiLabelRule(s *searcher, working *dataset.Examples) (*rule.Rule, bool, error) {
	top, err := s.heads.FindHead(rule.New(nil), working)
	if errors.Is(err, multilabel.ErrNoHead) {
		l.log.Debugf("[DigMultiLabelRules] no head: %v", err)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	seeded, err := s.init.InitializeRule(working, top.Head)
	if err != nil {
		return nil, false, err
	}
	if seeded.IsEmpty() {
		return top, true, nil
	}
	// 种子规则体重新选 head, 找不到时退回空规则体
	headed, err := s.heads.FindHead(seeded, working)
	if errors.Is(err, multilabel.ErrNoHead) {
		return top, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return headed, true, nil
}

func (l *Learner) reweightMultiLabel(working *dataset.Examples, r *rule.Rule) (*dataset.Examples, error) {
	if l.reweighting == seco_config.ReweightHalve {
		return l.reweight(working, r)
	}
	return working.Filter(func(e *dataset.Example) bool { return !allPredicted(working, e) }), nil
}

func markPredicted(working *dataset.Examples, r *rule.Rule) {
	for i, ok := r.Covered.NextSet(0); ok; i, ok = r.Covered.NextSet(i + 1) {
		for _, a := range r.Head {
			working.SetPredicted(int(i), a.Label)
		}
	}
}

func allPredicted(examples *dataset.Examples, e *dataset.Example) bool {
	for pos := range examples.LabelIndices() {
		if !e.Predicted(pos) {
			return false
		}
	}
	return true
}

func unpredictedWeight(examples *dataset.Examples) float64 {
	total := 0.0
	for i := 0; i < examples.Len(); i++ {
		if e := examples.At(i); !allPredicted(examples, e) {
			total += e.Weight()
		}
	}
	return total
}

// majorityHead 每个标签取加权最多的取值
func majorityHead(examples *dataset.Examples) rule.Head {
	var assignments []rule.Assignment
	for _, l := range examples.LabelIndices() {
		order := classOrder(examples, l)
		if len(order) == 0 {
			continue
		}
		assignments = append(assignments, rule.Assignment{Label: l, Value: float64(order[len(order)-1])})
	}
	return rule.NewHead(assignments...)
}
