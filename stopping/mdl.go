package stopping

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring"
	"go.uber.org/zap"

	"gitlab.grandhoo.com/rock/rock_seco/dataset"
	"gitlab.grandhoo.com/rock/rock_seco/heuristic"
	"gitlab.grandhoo.com/rock/rock_seco/rule"
	"gitlab.grandhoo.com/rock/rock_seco/utils/seco_logger"
)

// 覆盖部分的错误中期望为 FP 的比例
const expFPOverErr = 0.5

// MDL tracks the description length of the growing theory. It stops once the
// length exceeds the minimum seen so far by Surplus bits, the rule's error
// rate reaches MaxErrorRate, or the rule covers no positives.
type MDL struct {
	Surplus      float64
	MaxErrorRate float64

	started  bool
	ruleBits float64 // 已接受规则的长度之和
	cover    float64 // 已接受规则覆盖的权重
	fp       float64
	minDL    float64
	log      *zap.SugaredLogger
}

func NewMDL(surplus, maxErrorRate float64, log *zap.SugaredLogger) *MDL {
	return &MDL{Surplus: surplus, MaxErrorRate: maxErrorRate, log: seco_logger.OrNop(log)}
}

func (m *MDL) Reset() {
	m.started = false
	m.ruleBits, m.cover, m.fp, m.minDL = 0, 0, 0, 0
}

// MinDL 目前为止最小的描述长度
func (m *MDL) MinDL() float64 { return m.minDL }

func (m *MDL) CheckForRuleStop(theory *rule.RuleSet, r *rule.Rule, examples *dataset.Examples, covered *roaring.Bitmap, target rule.Head) (Decision, error) {
	var tp, fp, fn, uncover float64
	for i := 0; i < examples.Len(); i++ {
		e := examples.At(i)
		if covered != nil && covered.Contains(uint32(e.Index())) {
			continue
		}
		p, ok := rule.Matches(e, target)
		if !ok {
			continue
		}
		w := e.Weight()
		switch {
		case r.Covers(e) && p:
			tp += w
		case r.Covers(e):
			fp += w
		case p:
			fn += w
			uncover += w
		default:
			uncover += w
		}
	}

	if !m.started {
		empty, err := checkDL(DataDL(expFPOverErr, m.cover, uncover+tp+fp, m.fp, fn+tp))
		if err != nil {
			return Decision{}, err
		}
		m.minDL = empty
		m.started = true
	}

	if tp == 0 {
		return Decision{Stop: true, Remaining: examples}, nil
	}
	if fp/(tp+fp) >= m.MaxErrorRate {
		m.log.Debugf("[mdl] %v error rate %.3f >= %v", r, fp/(tp+fp), m.MaxErrorRate)
		return Decision{Stop: true, Remaining: examples}, nil
	}

	bits, err := checkDL(RuleDL(r.Length(), possibleConditions(examples)))
	if err != nil {
		return Decision{}, err
	}
	total, err := checkDL(m.ruleBits + bits + DataDL(expFPOverErr, m.cover+tp+fp, uncover, m.fp+fp, fn))
	if err != nil {
		return Decision{}, err
	}
	if total > m.minDL+m.Surplus {
		m.log.Debugf("[mdl] %v: dl %.2f exceeds min %.2f by more than %v", r, total, m.minDL, m.Surplus)
		return Decision{Stop: true, Remaining: examples}, nil
	}

	m.ruleBits += bits
	m.cover += tp + fp
	m.fp += fp
	m.minDL = math.Min(m.minDL, total)

	remaining := examples.Filter(func(e *dataset.Example) bool {
		if covered != nil && covered.Contains(uint32(e.Index())) {
			return false
		}
		return !r.Covers(e)
	})
	return Decision{Remaining: remaining}, nil
}

func checkDL(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: description length %v", heuristic.ErrDegenerate, v)
	}
	return v, nil
}

// SubsetDL bits to encode k chosen elements out of t with probability p.
func SubsetDL(t, k, p float64) float64 {
	var bits float64
	if k > 0 {
		bits -= k * math.Log2(p)
	}
	if t-k > 0 {
		bits -= (t - k) * math.Log2(1-p)
	}
	return bits
}

// RuleDL 0.5 * (log2(k) + S(n, k, k/n)), n 为可选条件数
func RuleDL(k, n int) float64 {
	if k == 0 {
		return 0
	}
	if n < k {
		n = k
	}
	kf, nf := float64(k), float64(n)
	return 0.5 * (math.Log2(kf) + SubsetDL(nf, kf, kf/nf))
}

// DataDL bits for the exceptions of a theory covering cover weight with fp
// false positives and leaving uncover weight with fn false negatives.
func DataDL(expFPOverErr, cover, uncover, fp, fn float64) float64 {
	total := math.Log2(cover + uncover + 1)
	var coverBits, uncoverBits float64
	if cover > uncover {
		expErr := expFPOverErr * (fp + fn)
		coverBits = SubsetDL(cover, fp, expErr/cover)
		if uncover > 0 {
			uncoverBits = SubsetDL(uncover, fn, fn/uncover)
		}
	} else {
		expErr := (1 - expFPOverErr) * (fp + fn)
		if cover > 0 {
			coverBits = SubsetDL(cover, fp, fp/cover)
		}
		if uncover > 0 {
			uncoverBits = SubsetDL(uncover, fn, expErr/uncover)
		}
	}
	return total + coverBits + uncoverBits
}

// 所有可能条件的个数: nominal 取值个数, numeric 不同取值个数
func possibleConditions(examples *dataset.Examples) int {
	n := 0
	for _, attr := range examples.Attributes() {
		if examples.IsTarget(attr.Index) {
			continue
		}
		if attr.IsNominal() {
			n += attr.NumValues()
			continue
		}
		distinct := make(map[float64]struct{})
		for i := 0; i < examples.Len(); i++ {
			if v := examples.At(i).Value(attr.Index); !dataset.IsMissing(v) {
				distinct[v] = struct{}{}
			}
		}
		n += len(distinct)
	}
	return n
}
