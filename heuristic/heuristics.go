package heuristic

import (
	"math"

	"gitlab.grandhoo.com/rock/rock_seco/seco_config"
)

// Precision TP/(TP+FP), 没有覆盖时为 0
type Precision struct{}

func (Precision) Name() string                       { return seco_config.Precision }
func (Precision) Evaluate(m ConfusionMatrix) float64 { return div(m.TP, m.TP+m.FP) }
func (Precision) Max() float64                       { return 1 }

// Recall TP/(TP+FN), 没有正例时为 0
type Recall struct{}

func (Recall) Name() string                       { return seco_config.Recall }
func (Recall) Evaluate(m ConfusionMatrix) float64 { return div(m.TP, m.TP+m.FN) }
func (Recall) Max() float64                       { return 1 }

// Laplace (TP+1)/(TP+FP+2)
type Laplace struct{}

func (Laplace) Name() string { return seco_config.Laplace }
func (Laplace) Evaluate(m ConfusionMatrix) float64 {
	return (m.TP + 1) / (m.TP + m.FP + 2)
}
func (Laplace) Max() float64 { return 1 }

// Accuracy (TP+TN)/total
type Accuracy struct{}

func (Accuracy) Name() string { return seco_config.Accuracy }
func (Accuracy) Evaluate(m ConfusionMatrix) float64 {
	return div(m.TP+m.TN, m.Total())
}
func (Accuracy) Max() float64 { return 1 }

// SubsetAccuracy 1 当且仅当没有 FP 和 FN, 用于 example based 的整例判断
type SubsetAccuracy struct{}

func (SubsetAccuracy) Name() string { return seco_config.SubsetAccuracy }
func (SubsetAccuracy) Evaluate(m ConfusionMatrix) float64 {
	if m.FP == 0 && m.FN == 0 {
		return 1
	}
	return 0
}
func (SubsetAccuracy) Max() float64 { return 1 }

// FMeasure weighted harmonic mean of precision and recall.
type FMeasure struct {
	Beta float64
}

func (FMeasure) Name() string { return seco_config.FMeasure }

func (f FMeasure) Evaluate(m ConfusionMatrix) float64 {
	return f.EvaluateCombined(m, m)
}

func (f FMeasure) EvaluateCombined(precision, recall ConfusionMatrix) float64 {
	p := Precision{}.Evaluate(precision)
	r := Recall{}.Evaluate(recall)
	b2 := f.Beta * f.Beta
	return div((1+b2)*p*r, b2*p+r)
}

func (FMeasure) Max() float64 { return 1 }

// MEstimate precision smoothed towards the prior with weight M.
type MEstimate struct {
	M float64
}

func (MEstimate) Name() string { return seco_config.MEstimate }
func (e MEstimate) Evaluate(m ConfusionMatrix) float64 {
	prior := div(m.Positives(), m.Total())
	return div(m.TP+e.M*prior, m.TP+m.FP+e.M)
}
func (MEstimate) Max() float64 { return 1 }

// WRA weighted relative accuracy, coverage * (precision - prior). The prior
// grows with TP as well, so the value is not monotone in TP.
type WRA struct{}

func (WRA) Name() string { return seco_config.WRA }
func (WRA) Evaluate(m ConfusionMatrix) float64 {
	total := m.Total()
	if total == 0 {
		return 0
	}
	return m.Covered() / total * (div(m.TP, m.Covered()) - m.Positives()/total)
}

// KloesgenWrobel coverage^omega * (precision - prior). Like WRA it is not
// monotone in TP.
type KloesgenWrobel struct {
	Omega float64
}

func (KloesgenWrobel) Name() string { return seco_config.KloesgenWrobel }
func (k KloesgenWrobel) Evaluate(m ConfusionMatrix) float64 {
	total := m.Total()
	if total == 0 || m.Covered() == 0 {
		return 0
	}
	return math.Pow(m.Covered()/total, k.Omega) * (m.TP/m.Covered() - m.Positives()/total)
}

// Correlation phi coefficient of the 2x2 table.
type Correlation struct{}

func (Correlation) Name() string { return seco_config.Correlation }
func (Correlation) Evaluate(m ConfusionMatrix) float64 {
	d := m.Positives() * m.Negatives() * m.Covered() * m.Uncovered()
	if d <= 0 {
		return 0
	}
	return (m.TP*m.TN - m.FP*m.FN) / math.Sqrt(d)
}
func (Correlation) Max() float64 { return 1 }

// RelativeCost cost*TPR - (1-cost)*FPR
type RelativeCost struct {
	Cost float64
}

func (RelativeCost) Name() string { return seco_config.RelativeCost }
func (c RelativeCost) Evaluate(m ConfusionMatrix) float64 {
	return c.Cost*div(m.TP, m.Positives()) - (1-c.Cost)*div(m.FP, m.Negatives())
}
func (c RelativeCost) Max() float64 { return c.Cost }
