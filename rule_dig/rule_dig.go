package rule_dig

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/RoaringBitmap/roaring"
	cmap "github.com/orcaman/concurrent-map"
	"go.uber.org/zap"

	"gitlab.grandhoo.com/rock/rock_seco/dataset"
	"gitlab.grandhoo.com/rock/rock_seco/heuristic"
	"gitlab.grandhoo.com/rock/rock_seco/multilabel"
	"gitlab.grandhoo.com/rock/rock_seco/refinement"
	"gitlab.grandhoo.com/rock/rock_seco/rule"
	"gitlab.grandhoo.com/rock/rock_seco/seco_config"
	"gitlab.grandhoo.com/rock/rock_seco/stopping"
	"gitlab.grandhoo.com/rock/rock_seco/topk"
	"gitlab.grandhoo.com/rock/rock_seco/utils/seco_logger"
	"gitlab.grandhoo.com/rock/rock_seco/utils/storage_utils/duration"
)

// Result 一次学习的结果
type Result struct {
	Theory    *rule.RuleSet
	Evaluated int    // 搜索中产生的不同候选规则数
	Time      string // 累计耗时
}

// Learner drives the covering loop: find the best rule, add it to the theory,
// remove or down-weight the examples it explains, repeat.
type Learner struct {
	conf        seco_config.Config
	h           heuristic.Heuristic
	maxRules    int
	reweighting string
	seed        int64
	log         *zap.SugaredLogger
}

// evaluator 单标签或多标签评估器
type evaluator interface {
	refinement.Evaluator
	stopping.RuleEvaluator
}

// searcher 一个目标的搜索组件
type searcher struct {
	ev       evaluator
	init     refinement.Initializer
	refiner  refinement.Refiner
	filter   topk.Filter
	stop     stopping.Criterion
	ruleStop stopping.RuleSetCriterion
	heads    *multilabel.HeadFinder // 仅多标签
}

func New(conf seco_config.Config, log *zap.SugaredLogger) (*Learner, error) {
	log = seco_logger.OrNop(log)
	h, err := heuristic.New(conf.Get(seco_config.ComponentHeuristic), log)
	if err != nil {
		return nil, err
	}
	r := conf.Get(seco_config.ComponentCovering).Reader(seco_config.ComponentCovering, log)
	reweighting, err := r.OneOf(seco_config.KeyReweighting, seco_config.ReweightRemove,
		seco_config.ReweightRemove, seco_config.ReweightHalve)
	if err != nil {
		return nil, err
	}
	return &Learner{
		conf:        conf,
		h:           h,
		maxRules:    r.PositiveInt(seco_config.KeyMaxRules, seco_config.DefaultMaxRules),
		reweighting: reweighting,
		seed:        int64(r.Int(seco_config.KeySeed, seco_config.DefaultSeed)),
		log:         log,
	}, nil
}

func (l *Learner) Heuristic() heuristic.Heuristic { return l.h }

func (l *Learner) newSearcher(ev evaluator) (*searcher, error) {
	s := &searcher{ev: ev}
	var err error
	rnd := rand.New(rand.NewSource(l.seed))
	if s.init, err = refinement.NewInitializer(l.conf.Get(seco_config.ComponentInitializer), ev, rnd, l.log); err != nil {
		return nil, err
	}
	if s.refiner, err = refinement.NewRefiner(l.conf.Get(seco_config.ComponentRefiner), ev, l.log); err != nil {
		return nil, err
	}
	if s.filter, err = topk.NewFilter(l.conf.Get(seco_config.ComponentFilter), l.log); err != nil {
		return nil, err
	}
	if s.stop, err = stopping.NewCriterion(l.conf.Get(seco_config.ComponentStop), l.log); err != nil {
		return nil, err
	}
	if s.ruleStop, err = stopping.NewRuleSetCriterion(l.conf.Get(seco_config.ComponentRuleStop), ev, l.log); err != nil {
		return nil, err
	}
	return s, nil
}

// Learn 按样本集类型选择单标签或多标签学习
func (l *Learner) Learn(examples *dataset.Examples) (*Result, error) {
	if examples.IsMultiLabel() {
		return l.DigMultiLabelRules(examples)
	}
	return l.DigRules(examples)
}

// DigRules learns rules for every class value except the most frequent one,
// rarest first. The most frequent value becomes the default rule.
func (l *Learner) DigRules(examples *dataset.Examples) (*Result, error) {
	classIndex := examples.ClassIndex()
	if classIndex < 0 {
		return nil, fmt.Errorf("examples have no class attribute")
	}
	if class := examples.Attribute(classIndex); !class.IsNominal() || class.NumValues() == 0 {
		return nil, fmt.Errorf("%w: class %s must be nominal with a non-empty domain", dataset.ErrUnsupportedAttribute, class.Name)
	}
	ev := rule.NewEvaluator(l.h)
	s, err := l.newSearcher(ev)
	if err != nil {
		return nil, err
	}

	var timer duration.Duration
	timer.Enter()

	theory := rule.NewRuleSet()
	order := classOrder(examples, classIndex)
	l.log.Infof("[DigRules] start, examples:%v, class:%v, 目标顺序:%v", examples.Len(), examples.Attribute(classIndex).Name, order)
	evaluated := cmap.New()
	for _, v := range order[:len(order)-1] {
		examples.ResetWeights()
		target := rule.Single(classIndex, float64(v))
		n, err := l.cover(s, theory, examples.View(), target, evaluated)
		if err != nil {
			return nil, err
		}
		l.log.Infof("[DigRules] target %v 发现的规则数:%v", target.Format(examples), n)
	}
	examples.ResetWeights()

	def := rule.New(rule.Single(classIndex, float64(order[len(order)-1])))
	if err := ev.Evaluate(def, examples); err != nil {
		return nil, err
	}
	theory.SetDefault(def)
	timer.Exit()
	l.log.Infof("[DigRules] finish, 规则数:%v, 评估规则数:%v, 执行时间:%v", theory.Len(), evaluated.Count(), timer.AccumulationString())
	return &Result{Theory: theory, Evaluated: evaluated.Count(), Time: timer.AccumulationString()}, nil
}

// cover runs the covering loop for one target and returns the number of
// rules added to theory.
func (l *Learner) cover(s *searcher, theory *rule.RuleSet, working *dataset.Examples, target rule.Head, evaluated cmap.ConcurrentMap) (int, error) {
	s.ruleStop.Reset()
	covered := roaring.New()
	added := 0
	for theory.Len() < l.maxRules {
		if positiveWeight(working, target) == 0 {
			break
		}
		var rd duration.Duration
		rd.Enter()
		start, err := s.init.InitializeRule(working, target)
		if err != nil {
			return added, err
		}
		best, err := l.findBestRule(s, working, start, evaluated)
		rd.Exit()
		if err != nil {
			return added, err
		}
		if best == nil || best.IsEmpty() || best.Stats.TP == 0 {
			break
		}
		if containsRule(theory, best) {
			l.log.Debugf("[cover] %v already in theory", best)
			break
		}
		decision, err := s.ruleStop.CheckForRuleStop(theory, best, working, covered, target)
		if err != nil {
			return added, err
		}
		if decision.Stop {
			l.log.Debugf("[cover] stop before %v", best.Format(working))
			break
		}
		theory.Add(best)
		added++
		l.log.Infof("[cover] 规则:%v, value:%.4f, 单条规则执行时间:%v", best.Format(working), best.Score(), rd.DurationString())

		markCovered(covered, working, best)
		if decision.Remaining != nil {
			working = decision.Remaining
			continue
		}
		if working, err = l.reweight(working, best); err != nil {
			return added, err
		}
	}
	return added, nil
}

// findBestRule beam search from start. Rules already evaluated in this search
// are not expanded twice.
func (l *Learner) findBestRule(s *searcher, working *dataset.Examples, start *rule.Rule, evaluated cmap.ConcurrentMap) (*rule.Rule, error) {
	seen := cmap.New()
	best, beam := start, []*rule.Rule{start}
	seen.Set(best.Key(), best.Score())
	evaluated.SetIfAbsent(best.Key(), best.Score())

	for len(beam) > 0 {
		var candidates []*rule.Rule
		for _, parent := range beam {
			stop, err := s.stop.CheckForStop(parent, working)
			if err != nil {
				return nil, err
			}
			if stop {
				continue
			}
			children, err := s.refiner.RefineRule(parent, working)
			if err != nil {
				return nil, err
			}
			for _, child := range children {
				if s.heads != nil {
					headed, err := s.heads.FindHead(child, working)
					if errors.Is(err, multilabel.ErrNoHead) {
						continue
					}
					if err != nil {
						return nil, err
					}
					child = headed
				}
				if !seen.SetIfAbsent(child.Key(), child.Score()) {
					continue
				}
				evaluated.SetIfAbsent(child.Key(), child.Score())
				candidates = append(candidates, child)
			}
		}
		sort.SliceStable(candidates, func(i, j int) bool { return rule.Better(candidates[i], candidates[j]) })
		beam = s.filter.FilterRules(candidates)
		for _, c := range beam {
			if rule.Better(c, best) {
				best = c
			}
		}
	}
	return best, nil
}

// reweight removes the examples r covers, or halves their weight.
func (l *Learner) reweight(working *dataset.Examples, r *rule.Rule) (*dataset.Examples, error) {
	if l.reweighting == seco_config.ReweightHalve {
		for i, ok := r.Covered.NextSet(0); ok; i, ok = r.Covered.NextSet(i + 1) {
			e := working.At(int(i))
			if err := working.SetWeight(int(i), e.Weight()/2); err != nil {
				return nil, err
			}
		}
		return working, nil
	}
	return withoutCovered(working, r), nil
}

func withoutCovered(working *dataset.Examples, r *rule.Rule) *dataset.Examples {
	var keep []int
	for i := 0; i < working.Len(); i++ {
		if !r.Covered.Test(uint(i)) {
			keep = append(keep, i)
		}
	}
	return working.Subset(keep)
}

func markCovered(covered *roaring.Bitmap, working *dataset.Examples, r *rule.Rule) {
	for i, ok := r.Covered.NextSet(0); ok; i, ok = r.Covered.NextSet(i + 1) {
		covered.Add(uint32(working.At(int(i)).Index()))
	}
}

func containsRule(theory *rule.RuleSet, r *rule.Rule) bool {
	key := r.Key()
	for _, t := range theory.Rules() {
		if t.Key() == key {
			return true
		}
	}
	return false
}

func positiveWeight(examples *dataset.Examples, target rule.Head) float64 {
	total := 0.0
	for i := 0; i < examples.Len(); i++ {
		e := examples.At(i)
		if p, ok := rule.Matches(e, target); ok && p {
			total += e.Weight()
		}
	}
	return total
}

// classOrder 类别取值按加权频数升序, 同频按取值顺序
func classOrder(examples *dataset.Examples, classIndex int) []int {
	attr := examples.Attribute(classIndex)
	freq := make([]float64, attr.NumValues())
	for i := 0; i < examples.Len(); i++ {
		e := examples.At(i)
		v := e.Value(classIndex)
		if dataset.IsMissing(v) {
			continue
		}
		freq[int(v)] += e.Weight()
	}
	order := make([]int, len(freq))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return freq[order[i]] < freq[order[j]] })
	return order
}
