package heuristic

import (
	"errors"
	"fmt"
	"math"

	"gitlab.grandhoo.com/rock/rock_seco/seco_config"
	"gitlab.grandhoo.com/rock/rock_seco/utils/seco_logger"
	"go.uber.org/zap"
)

// ErrDegenerate NaN 或 Inf 不允许进入规则比较
var ErrDegenerate = errors.New("degenerate numeric value")

// Heuristic scores a confusion matrix. Implementations are pure and return 0
// whenever a denominator vanishes.
type Heuristic interface {
	Name() string
	Evaluate(m ConfusionMatrix) float64
}

// Bounded heuristics know their maximum achievable value.
type Bounded interface {
	Heuristic
	Max() float64
}

// Combined heuristics mix precision-side statistics of one matrix with the
// recall-side statistics of another.
type Combined interface {
	Heuristic
	EvaluateCombined(precision, recall ConfusionMatrix) float64
}

// Check 检查数值是否退化
func Check(name string, v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s evaluated to %v", ErrDegenerate, name, v)
	}
	return v, nil
}

// Names 所有已注册的启发式
var Names = []string{
	seco_config.Precision,
	seco_config.Recall,
	seco_config.Laplace,
	seco_config.Accuracy,
	seco_config.SubsetAccuracy,
	seco_config.FMeasure,
	seco_config.MEstimate,
	seco_config.WRA,
	seco_config.KloesgenWrobel,
	seco_config.Correlation,
	seco_config.RelativeCost,
	seco_config.Gini,
}

// New builds the heuristic named by the "name" property, precision by default.
func New(props seco_config.Properties, log *zap.SugaredLogger) (Heuristic, error) {
	log = seco_logger.OrNop(log)
	r := props.Reader(seco_config.ComponentHeuristic, log)
	name, err := r.OneOf(seco_config.KeyName, seco_config.Precision, Names...)
	if err != nil {
		return nil, err
	}
	switch name {
	case seco_config.Recall:
		return Recall{}, nil
	case seco_config.Laplace:
		return Laplace{}, nil
	case seco_config.Accuracy:
		return Accuracy{}, nil
	case seco_config.SubsetAccuracy:
		return SubsetAccuracy{}, nil
	case seco_config.FMeasure:
		beta := r.Float(seco_config.KeyBeta, seco_config.DefaultBeta)
		if beta < 0 {
			log.Warnf("[heuristic] beta %v < 0, use default", beta)
			beta = seco_config.DefaultBeta
		}
		return FMeasure{Beta: beta}, nil
	case seco_config.MEstimate:
		return MEstimate{M: r.Float(seco_config.KeyM, seco_config.DefaultM)}, nil
	case seco_config.WRA:
		return WRA{}, nil
	case seco_config.KloesgenWrobel:
		return KloesgenWrobel{Omega: r.Float(seco_config.KeyOmega, seco_config.DefaultOmega)}, nil
	case seco_config.Correlation:
		return Correlation{}, nil
	case seco_config.RelativeCost:
		return RelativeCost{Cost: r.Float(seco_config.KeyCost, seco_config.DefaultCost)}, nil
	case seco_config.Gini:
		return Gini{}, nil
	}
	return Precision{}, nil
}

// MustNew 测试和默认组件使用
func MustNew(name string) Heuristic {
	h, err := New(seco_config.Properties{seco_config.KeyName: name}, nil)
	if err != nil {
		panic(err)
	}
	return h
}

func div(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
