package multilabel

import (
	"fmt"
	"math"
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"gitlab.grandhoo.com/rock/rock_seco/boosting"
	"gitlab.grandhoo.com/rock/rock_seco/dataset"
	"gitlab.grandhoo.com/rock/rock_seco/heuristic"
	"gitlab.grandhoo.com/rock/rock_seco/rule"
	"gitlab.grandhoo.com/rock/rock_seco/seco_config"
	"gitlab.grandhoo.com/rock/rock_seco/utils/seco_logger"
)

// Evaluator scores multi-head rules over (example, relevant label) pairs.
type Evaluator struct {
	h            heuristic.Heuristic
	relevance    string
	labels       []int
	averaging    string
	damping      string
	optimization string
	booster      *boosting.Booster
	log          *zap.SugaredLogger
}

// NewEvaluator reads relevance, averaging, damping, optimization and labels.
// booster may be nil.
func NewEvaluator(props seco_config.Properties, h heuristic.Heuristic, booster *boosting.Booster, log *zap.SugaredLogger) (*Evaluator, error) {
	log = seco_logger.OrNop(log)
	r := props.Reader(seco_config.ComponentMultiLabel, log)
	relevance, err := r.OneOf(seco_config.KeyRelevance, seco_config.RuleDependent,
		seco_config.RuleDependent, seco_config.RuleIndependent)
	if err != nil {
		return nil, err
	}
	averaging, err := r.OneOf(seco_config.KeyAveraging, seco_config.AveragingMicro,
		seco_config.AveragingMicro, seco_config.AveragingMacro, seco_config.AveragingLabelBased, seco_config.AveragingExampleBased)
	if err != nil {
		return nil, err
	}
	damping, err := r.OneOf(seco_config.KeyDamping, seco_config.DampingLog,
		seco_config.DampingLog, seco_config.DampingNone)
	if err != nil {
		return nil, err
	}
	optimization, err := r.OneOf(seco_config.KeyOptimization, "", "",
		seco_config.OptimizationClassic, seco_config.OptimizationAdapted,
		seco_config.OptimizationClever, seco_config.OptimizationCovered)
	if err != nil {
		return nil, err
	}
	if _, ok := h.(heuristic.Combined); optimization != "" && !ok {
		log.Warnf("[multi_label] %s cannot combine precision and recall, optimization %s only affects statistics", h.Name(), optimization)
	}
	return &Evaluator{
		h:            h,
		relevance:    relevance,
		labels:       r.IntList(seco_config.KeyLabels),
		averaging:    averaging,
		damping:      damping,
		optimization: optimization,
		booster:      booster,
		log:          log,
	}, nil
}

func (ev *Evaluator) Heuristic() heuristic.Heuristic { return ev.h }

func (ev *Evaluator) Booster() *boosting.Booster { return ev.booster }

// 增量评估的状态: 父规则未覆盖样本的统计
type mlState struct {
	examples  *dataset.Examples
	head      string
	relevant  string
	uncovered *accumulator
}

func (ev *Evaluator) Evaluate(r *rule.Rule, examples *dataset.Examples) error {
	return ev.EvaluateIncremental(r, nil, examples)
}

// EvaluateIncremental reuses the statistics of the examples parent does not
// cover. The caller passes parent only for specializations; a parent with a
// different head, different relevant labels or other examples is ignored.
func (ev *Evaluator) EvaluateIncremental(r, parent *rule.Rule, examples *dataset.Examples) error {
	relevant, err := RelevantLabels(ev.relevance, ev.labels, r.Head, examples)
	if err != nil {
		return err
	}
	headKey, relevantKey := r.Head.String(), fmt.Sprint(relevant)

	uncovered, cov := newAccumulator(), newAccumulator()
	covered := bitset.New(uint(examples.Len()))
	scan := func(i int) {
		e := examples.At(i)
		if r.Covers(e) {
			covered.Set(uint(i))
			ev.account(cov, e, true, r.Head, relevant, examples)
		} else {
			ev.account(uncovered, e, false, r.Head, relevant, examples)
		}
	}

	st, ok := parentState(parent, examples, headKey, relevantKey)
	if ok {
		uncovered = st.uncovered.compact()
		for i, found := parent.Covered.NextSet(0); found; i, found = parent.Covered.NextSet(i + 1) {
			scan(int(i))
		}
	} else {
		for i := 0; i < examples.Len(); i++ {
			scan(i)
		}
	}

	total := newAccumulator()
	total.merge(uncovered)
	total.merge(cov)
	value, err := ev.value(total, r.Head.Size())
	if err != nil {
		return fmt.Errorf("rule %v: %w", r, err)
	}

	r.Heuristic = ev.h.Name()
	r.Stats = total.pooled
	r.LabelStats = make(map[int]heuristic.ConfusionMatrix, len(total.labels))
	for l, lm := range total.labels {
		r.LabelStats[l] = lm.m
	}
	r.Value = value
	r.HasBoost = false
	if ev.booster != nil {
		r.SetBoosted(ev.booster.Boost(value, r.Head.Size()))
	}
	r.Covered = covered
	r.SetState(&mlState{examples: examples, head: headKey, relevant: relevantKey, uncovered: uncovered})
	return nil
}

func parentState(parent *rule.Rule, examples *dataset.Examples, head, relevant string) (*mlState, bool) {
	if parent == nil || parent.Covered == nil {
		return nil, false
	}
	st, ok := parent.State().(*mlState)
	if !ok || st.examples != examples || st.head != head || st.relevant != relevant {
		return nil, false
	}
	return st, true
}

// account adds the pairs of one example. A relevant label outside the head is
// never covered and its target is the relevant value.
func (ev *Evaluator) account(acc *accumulator, e *dataset.Example, covered bool, head rule.Head, relevant []int, examples *dataset.Examples) {
	w := e.Weight()
	var em, er heuristic.ConfusionMatrix
	var pairValues []float64
	for _, l := range relevant {
		actual := e.Value(l)
		if dataset.IsMissing(actual) {
			continue
		}
		target, inHead := head.Value(l)
		if !inHead {
			target = RelevantValue(examples.Attribute(l))
		}
		pos, _ := examples.LabelPosition(l)
		pairCovered := covered && inHead
		positive := actual == target
		predicted := e.Predicted(pos)

		lm := acc.label(l)
		rm, counted := ev.recallPair(pairCovered, covered, positive, predicted, w)
		if counted {
			acc.pooledRecall.Add(rm)
			lm.recall.Add(rm)
		}
		// macro 和 example based 在样本内部不加权
		ur, _ := ev.recallPair(pairCovered, covered, positive, predicted, 1)
		er.Add(ur)
		// 已被之前规则预测的 pair 不再进入精度侧
		if predicted {
			continue
		}

		var pm heuristic.ConfusionMatrix
		pm.Count(pairCovered, positive, w)
		acc.pooled.Add(pm)
		lm.m.Add(pm)

		var um heuristic.ConfusionMatrix
		um.Count(pairCovered, positive, 1)
		em.Add(um)
		pairValues = append(pairValues, ev.score(um, ur))
	}
	if len(pairValues) == 0 {
		return
	}
	switch ev.averaging {
	case seco_config.AveragingMacro:
		mean, _ := stats.Mean(pairValues)
		acc.addExample(mean, w)
	case seco_config.AveragingExampleBased:
		acc.addExample(ev.score(em, er), w)
	}
}

// recallPair 召回侧的统计, 按 optimization 模式处理已被预测的标签
func (ev *Evaluator) recallPair(pairCovered, exampleCovered, positive, predicted bool, w float64) (heuristic.ConfusionMatrix, bool) {
	var m heuristic.ConfusionMatrix
	switch ev.optimization {
	case "":
		return m, false
	case seco_config.OptimizationAdapted:
		if predicted {
			return m, false
		}
	case seco_config.OptimizationClever:
		if !pairCovered && positive && predicted {
			m.TP += w
			return m, true
		}
	case seco_config.OptimizationCovered:
		if !exampleCovered {
			return m, false
		}
	}
	m.Count(pairCovered, positive, w)
	return m, true
}

func (ev *Evaluator) score(m, recall heuristic.ConfusionMatrix) float64 {
	if ev.optimization != "" {
		if c, ok := ev.h.(heuristic.Combined); ok {
			return c.EvaluateCombined(m, recall)
		}
	}
	return ev.h.Evaluate(m)
}

func (ev *Evaluator) value(total *accumulator, headSize int) (float64, error) {
	var v float64
	switch ev.averaging {
	case seco_config.AveragingMicro:
		v = ev.score(total.pooled, total.pooledRecall) * ev.Damping(headSize)
	case seco_config.AveragingLabelBased:
		var perLabel []float64
		for _, l := range sortedLabels(total) {
			lm := total.labels[l]
			if lm.m.IsZero() {
				continue
			}
			perLabel = append(perLabel, ev.score(lm.m, lm.recall))
		}
		if len(perLabel) > 0 {
			v, _ = stats.Mean(perLabel)
		}
	default:
		v = total.exampleMean()
	}
	return heuristic.Check(ev.h.Name(), v)
}

func sortedLabels(a *accumulator) []int {
	labels := make([]int, 0, len(a.labels))
	for l := range a.labels {
		labels = append(labels, l)
	}
	sort.Ints(labels)
	return labels
}

// Damping 1/(1+ln h) for log damping, 1 otherwise.
func (ev *Evaluator) Damping(headSize int) float64 {
	if ev.damping != seco_config.DampingLog || headSize <= 1 {
		return 1
	}
	return 1 / (1 + math.Log(float64(headSize)))
}
