package rule

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/exp/slices"

	"gitlab.grandhoo.com/rock/rock_seco/dataset"
	"gitlab.grandhoo.com/rock/rock_seco/heuristic"
)

// Rule body => head. A rule is mutated only while it is evaluated; once it is
// added to a RuleSet it must not change.
type Rule struct {
	Body []Condition
	Head Head

	Heuristic  string
	Stats      heuristic.ConfusionMatrix
	LabelStats map[int]heuristic.ConfusionMatrix // 多标签评估时每个标签的矩阵
	Value      float64
	Boosted    float64
	HasBoost   bool
	Covered    *bitset.BitSet // 在被评估的样本集中的位置

	Predecessor *Rule // 派生出该规则的父规则, 构成一棵树
	state       interface{}
}

// New 空规则体覆盖所有样本
func New(head Head, body ...Condition) *Rule {
	return &Rule{Head: head, Body: append([]Condition(nil), body...)}
}

func (r *Rule) Length() int { return len(r.Body) }

func (r *Rule) IsEmpty() bool { return len(r.Body) == 0 }

func (r *Rule) Covers(e *dataset.Example) bool {
	for _, c := range r.Body {
		if !c.Covers(e) {
			return false
		}
	}
	return true
}

// UsesAttribute 规则体中是否已有该属性的条件
func (r *Rule) UsesAttribute(attr int) bool {
	for _, c := range r.Body {
		if c.Attribute == attr {
			return true
		}
	}
	return false
}

// Extend 特化: 追加条件, 父规则作为 predecessor
func (r *Rule) Extend(c Condition) *Rule {
	body := make([]Condition, 0, len(r.Body)+1)
	body = append(body, r.Body...)
	body = append(body, c)
	return &Rule{Body: body, Head: r.Head, Predecessor: r}
}

// Without 泛化: 删除第 i 个条件
func (r *Rule) Without(i int) *Rule {
	body := make([]Condition, 0, len(r.Body)-1)
	body = append(body, r.Body[:i]...)
	body = append(body, r.Body[i+1:]...)
	return &Rule{Body: body, Head: r.Head, Predecessor: r}
}

// WithHead 同样的规则体, 新的 head, 不保留评估结果
func (r *Rule) WithHead(h Head) *Rule {
	return &Rule{Body: append([]Condition(nil), r.Body...), Head: h, Predecessor: r.Predecessor}
}

// Score boosted value when present, raw value otherwise.
func (r *Rule) Score() float64 {
	if r.HasBoost {
		return r.Boosted
	}
	return r.Value
}

func (r *Rule) SetBoosted(v float64) {
	r.Boosted = v
	r.HasBoost = true
}

// State 评估器的增量状态, 对规则之外透明
func (r *Rule) State() interface{} { return r.state }

func (r *Rule) SetState(s interface{}) { r.state = s }

// ResetEvaluation 清除上一次评估的结果
func (r *Rule) ResetEvaluation() {
	r.Heuristic = ""
	r.Stats = heuristic.ConfusionMatrix{}
	r.LabelStats = nil
	r.Value = 0
	r.Boosted = 0
	r.HasBoost = false
	r.Covered = nil
	r.state = nil
}

func (r *Rule) sortedBody() []Condition {
	body := append([]Condition(nil), r.Body...)
	slices.SortFunc(body, Condition.Compare)
	return body
}

// Key is equal for rules with the same body conditions (in any order) and head.
func (r *Rule) Key() string {
	var sb strings.Builder
	for i, c := range r.sortedBody() {
		if i > 0 {
			sb.WriteString("&")
		}
		sb.WriteString(c.String())
	}
	sb.WriteString("->")
	sb.WriteString(r.Head.String())
	return sb.String()
}

func (r *Rule) String() string {
	return r.Format(nil)
}

func (r *Rule) Format(ex *dataset.Examples) string {
	parts := make([]string, len(r.Body))
	for i, c := range r.Body {
		parts[i] = c.Format(ex)
	}
	body := strings.Join(parts, " ^ ")
	if body == "" {
		body = "true"
	}
	return fmt.Sprintf("%s => %s", body, r.Head.Format(ex))
}

// Compare returns a negative number when a ranks before b. Score descending,
// then fewer conditions, then larger TP, then body and head order.
func Compare(a, b *Rule) int {
	if r := cmp.Compare(b.Score(), a.Score()); r != 0 {
		return r
	}
	if r := cmp.Compare(len(a.Body), len(b.Body)); r != 0 {
		return r
	}
	if r := cmp.Compare(b.Stats.TP, a.Stats.TP); r != 0 {
		return r
	}
	ab, bb := a.sortedBody(), b.sortedBody()
	for i := 0; i < len(ab) && i < len(bb); i++ {
		if r := ab[i].Compare(bb[i]); r != 0 {
			return r
		}
	}
	return a.Head.Compare(b.Head)
}

// Better a 严格优于 b
func Better(a, b *Rule) bool { return Compare(a, b) < 0 }
