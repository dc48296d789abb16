package boosting

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"gitlab.grandhoo.com/rock/rock_seco/heuristic"
	"gitlab.grandhoo.com/rock/rock_seco/seco_config"
	"gitlab.grandhoo.com/rock/rock_seco/utils/seco_logger"
)

// Booster lifts a rule value by a factor f(h) of its head size h. The factor
// is tabulated for h in [1, maxLabels] at construction.
type Booster struct {
	name    string
	combine string
	table   []float64 // table[h], table[0] 不用
}

// New builds the strategy named by "name", log by default.
func New(props seco_config.Properties, maxLabels int, log *zap.SugaredLogger) (*Booster, error) {
	log = seco_logger.OrNop(log)
	r := props.Reader(seco_config.ComponentBoosting, log)
	name, err := r.OneOf(seco_config.KeyName, seco_config.BoostLog,
		seco_config.BoostLog, seco_config.BoostRoot, seco_config.BoostLinearLog, seco_config.BoostPeak, seco_config.BoostExpression)
	if err != nil {
		return nil, err
	}
	combine, err := r.OneOf(seco_config.KeyCombine, seco_config.CombineMultiply,
		seco_config.CombineMultiply, seco_config.CombineAdd)
	if err != nil {
		return nil, err
	}
	maxLabels = r.PositiveInt(seco_config.KeyMaxLabels, max(maxLabels, 1))

	var f func(h float64) (float64, error)
	switch name {
	case seco_config.BoostLog:
		f = Log(r.Float(seco_config.KeyScale, seco_config.DefaultScale))
	case seco_config.BoostRoot:
		root := r.Float(seco_config.KeyRoot, seco_config.DefaultRoot)
		if root <= 0 {
			return nil, fmt.Errorf("%w: root %v must be positive", seco_config.ErrConfig, root)
		}
		f = Root(root)
	case seco_config.BoostLinearLog:
		f = LinearLog(r.Float(seco_config.KeyScale, seco_config.DefaultScale),
			float64(r.PositiveInt(seco_config.KeySwitchPoint, seco_config.DefaultSwitchPoint)))
	case seco_config.BoostPeak:
		peak := r.PositiveInt(seco_config.KeyPeakLabel, max((maxLabels+1)/2, 2))
		if peak < 2 {
			return nil, fmt.Errorf("%w: peak_label %d must be at least 2", seco_config.ErrConfig, peak)
		}
		if peak > maxLabels {
			return nil, fmt.Errorf("%w: peak_label %d exceeds max_labels %d", seco_config.ErrConfig, peak, maxLabels)
		}
		f = Peak(float64(peak), float64(maxLabels),
			r.Float(seco_config.KeyMaxBoost, seco_config.DefaultMaxBoost),
			r.Float(seco_config.KeyCurvature, seco_config.DefaultCurvature))
	case seco_config.BoostExpression:
		f, err = Expression(r.String(seco_config.KeyExpression, ""))
		if err != nil {
			return nil, err
		}
	}
	b, err := NewBooster(name, combine, maxLabels, f)
	if err != nil {
		return nil, err
	}
	log.Debugf("[boosting] %s/%s factors %v", name, combine, b.table[1:])
	return b, nil
}

// NewBooster tabulates f; NaN, infinite and negative factors are rejected.
func NewBooster(name, combine string, maxLabels int, f func(h float64) (float64, error)) (*Booster, error) {
	table := make([]float64, maxLabels+1)
	for h := 1; h <= maxLabels; h++ {
		v, err := f(float64(h))
		if err != nil {
			return nil, err
		}
		if table[h], err = heuristic.Check(name, v); err != nil {
			return nil, err
		}
		if v < 0 {
			return nil, fmt.Errorf("%w: %s factor %v at h=%d is negative", seco_config.ErrConfig, name, v, h)
		}
	}
	return &Booster{name: name, combine: combine, table: table}, nil
}

func (b *Booster) Name() string { return b.name }

func (b *Booster) MaxLabels() int { return len(b.table) - 1 }

func (b *Booster) clamp(h int) int {
	if h < 1 {
		return 1
	}
	if h > b.MaxLabels() {
		return b.MaxLabels()
	}
	return h
}

// Factor f(h), h 超出范围时取边界值
func (b *Booster) Factor(h int) float64 {
	return b.table[b.clamp(h)]
}

// Boost v·f(h) or v+f(h)-1.
func (b *Booster) Boost(v float64, h int) float64 {
	if b.combine == seco_config.CombineAdd {
		return v + b.Factor(h) - 1
	}
	return v * b.Factor(h)
}

// MaxValue is the largest boosted value of v for a head size in [lo, hi].
func (b *Booster) MaxValue(v float64, lo, hi int) float64 {
	lo, hi = b.clamp(lo), b.clamp(hi)
	best := b.Boost(v, lo)
	for h := lo + 1; h <= hi; h++ {
		best = math.Max(best, b.Boost(v, h))
	}
	return best
}

// UpperBound bounds the boosted value of any raw value <= maxRaw with a head
// size in [lo, hi]. Boost is non-decreasing in v since every factor is >= 0.
func (b *Booster) UpperBound(maxRaw float64, lo, hi int) float64 {
	return b.MaxValue(maxRaw, lo, hi)
}
