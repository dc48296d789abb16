package heuristic

import (
	"math"

	"gitlab.grandhoo.com/rock/rock_seco/seco_config"
)

// GiniIndexInfo x 为规则体覆盖, y 为目标成立
type GiniIndexInfo struct {
	xY     float64
	noXY   float64
	xNoY   float64
	noXNoY float64
}

func NewGiniIndexInfo(m ConfusionMatrix) GiniIndexInfo {
	return GiniIndexInfo{xY: m.TP, noXY: m.FN, xNoY: m.FP, noXNoY: m.TN}
}

// Impurity weighted gini impurity of splitting on the target, NaN mapped to 0
func (g GiniIndexInfo) Impurity() float64 {
	y := g.xY + g.noXY
	noY := g.xNoY + g.noXNoY
	iLeft := 1 - (g.xNoY/noY)*(g.xNoY/noY) - (g.noXNoY/noY)*(g.noXNoY/noY)
	iRight := 1 - (g.xY/y)*(g.xY/y) - (g.noXY/y)*(g.noXY/y)
	f := (noY/(y+noY))*iLeft + (y/(y+noY))*iRight
	if math.IsNaN(f) {
		return 0
	}
	return f
}

// CoveredImpurity gini impurity of the covered side, 0 when nothing is covered
func (g GiniIndexInfo) CoveredImpurity() float64 {
	x := g.xY + g.xNoY
	if x == 0 {
		return 0
	}
	p := g.xY / x
	return 1 - p*p - (1-p)*(1-p)
}

// Gini scores the purity of the covered side towards the target. Below
// precision 0.5 the score is the impurity, above it 1 - impurity, so the score
// grows with precision: 0 for a rule covering only negatives, 1 for a pure rule.
type Gini struct{}

func (Gini) Name() string { return seco_config.Gini }
func (Gini) Evaluate(m ConfusionMatrix) float64 {
	if m.Covered() == 0 {
		return 0
	}
	impurity := NewGiniIndexInfo(m).CoveredImpurity()
	if m.TP*2 < m.Covered() {
		return impurity
	}
	return 1 - impurity
}
func (Gini) Max() float64 { return 1 }
