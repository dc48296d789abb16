package stopping

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"gitlab.grandhoo.com/rock/rock_seco/dataset"
	"gitlab.grandhoo.com/rock/rock_seco/heuristic"
	"gitlab.grandhoo.com/rock/rock_seco/rule"
	"gitlab.grandhoo.com/rock/rock_seco/seco_config"
	"gitlab.grandhoo.com/rock/rock_seco/utils/seco_logger"
)

// Criterion decides whether a candidate should not be refined any further.
type Criterion interface {
	CheckForStop(candidate *rule.Rule, examples *dataset.Examples) (bool, error)
}

// NoNegatives 不再覆盖负例时停止
type NoNegatives struct{}

func (NoNegatives) CheckForStop(candidate *rule.Rule, _ *dataset.Examples) (bool, error) {
	return candidate.Stats.FP == 0, nil
}

// Never 从不停止
type Never struct{}

func (Never) CheckForStop(*rule.Rule, *dataset.Examples) (bool, error) { return false, nil }

// chi-square(1) 临界值
var criticalValues = map[float64]float64{
	0.7:   1.074,
	0.75:  1.323,
	0.8:   1.642,
	0.85:  2.072,
	0.9:   2.706,
	0.95:  3.841,
	0.975: 5.024,
	0.99:  6.635,
	0.995: 7.879,
}

// CriticalValue maps a significance level to its chi-square(1) critical value.
func CriticalValue(significance float64) (float64, error) {
	v, ok := criticalValues[significance]
	if !ok {
		return 0, fmt.Errorf("%w: no critical value for significance level %v", seco_config.ErrConfig, significance)
	}
	return v, nil
}

// SignificanceLevels 支持的显著性水平, 升序
func SignificanceLevels() []float64 {
	return []float64{0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 0.975, 0.99, 0.995}
}

// LikelihoodRatio stops once the covered class distribution is no longer
// significantly different from the expected one.
type LikelihoodRatio struct {
	Critical float64
	// ComparePredecessor 用父规则的覆盖分布作为期望
	ComparePredecessor bool
}

// Statistic LRS = 2 * (p*ln(p/Ep) + n*ln(n/En)). The predecessor's
// distribution is only used for specializations whose observed counts it can
// expect; otherwise the class distribution of all examples is used.
func (l LikelihoodRatio) Statistic(candidate *rule.Rule) float64 {
	p, n := candidate.Stats.TP, candidate.Stats.FP
	prior := heuristic.Precision{}.Evaluate(heuristic.ConfusionMatrix{
		TP: candidate.Stats.Positives(),
		FP: candidate.Stats.Negatives(),
	})
	if pred := candidate.Predecessor; l.ComparePredecessor && pred != nil &&
		pred.Stats.Covered() > 0 && candidate.Length() > pred.Length() {
		predPrior := heuristic.Precision{}.Evaluate(pred.Stats)
		// 期望为 0 而观测非 0 时退回全局先验
		if (predPrior > 0 || p == 0) && (predPrior < 1 || n == 0) {
			prior = predPrior
		}
	}
	covered := p + n
	return 2 * (xlogy(p, covered*prior) + xlogy(n, covered*(1-prior)))
}

func (l LikelihoodRatio) CheckForStop(candidate *rule.Rule, _ *dataset.Examples) (bool, error) {
	if candidate.Stats.Covered() == 0 {
		return true, nil
	}
	lrs, err := heuristic.Check("likelihood ratio", l.Statistic(candidate))
	if err != nil {
		return false, err
	}
	return lrs < l.Critical, nil
}

// x*ln(x/e), 0*ln(0) = 0
func xlogy(x, e float64) float64 {
	if x == 0 {
		return 0
	}
	return x * math.Log(x/e)
}

// NewCriterion builds the per-refinement criterion named by "name"; an
// unmapped significance level is fatal.
func NewCriterion(props seco_config.Properties, log *zap.SugaredLogger) (Criterion, error) {
	log = seco_logger.OrNop(log)
	r := props.Reader(seco_config.ComponentStop, log)
	name, err := r.OneOf(seco_config.KeyName, seco_config.StopNone,
		seco_config.StopNoNegatives, seco_config.StopLikelihoodRatio, seco_config.StopNone)
	if err != nil {
		return nil, err
	}
	switch name {
	case seco_config.StopNoNegatives:
		return NoNegatives{}, nil
	case seco_config.StopLikelihoodRatio:
		critical, err := CriticalValue(r.Float(seco_config.KeySignificance, seco_config.DefaultSignificance))
		if err != nil {
			return nil, err
		}
		return LikelihoodRatio{
			Critical:           critical,
			ComparePredecessor: r.Bool(seco_config.KeyCompareToPredecessor, false),
		}, nil
	}
	return Never{}, nil
}
