package heuristic

import "fmt"

// ConfusionMatrix 加权的 TP/FP/TN/FN, 每次评估新建
type ConfusionMatrix struct {
	TP float64 // covered, positive
	FP float64 // covered, negative
	TN float64 // uncovered, negative
	FN float64 // uncovered, positive
}

// Count 按覆盖和正负情况累加权重
func (m *ConfusionMatrix) Count(covered, positive bool, weight float64) {
	switch {
	case covered && positive:
		m.TP += weight
	case covered:
		m.FP += weight
	case positive:
		m.FN += weight
	default:
		m.TN += weight
	}
}

func (m *ConfusionMatrix) Add(o ConfusionMatrix) {
	m.TP += o.TP
	m.FP += o.FP
	m.TN += o.TN
	m.FN += o.FN
}

func (m ConfusionMatrix) Total() float64 { return m.TP + m.FP + m.TN + m.FN }

// Positives P = TP + FN
func (m ConfusionMatrix) Positives() float64 { return m.TP + m.FN }

// Negatives N = FP + TN
func (m ConfusionMatrix) Negatives() float64 { return m.FP + m.TN }

// Covered TP + FP
func (m ConfusionMatrix) Covered() float64 { return m.TP + m.FP }

func (m ConfusionMatrix) Uncovered() float64 { return m.TN + m.FN }

func (m ConfusionMatrix) IsZero() bool { return m.Total() == 0 }

func (m ConfusionMatrix) String() string {
	return fmt.Sprintf("[tp=%g fp=%g tn=%g fn=%g]", m.TP, m.FP, m.TN, m.FN)
}
