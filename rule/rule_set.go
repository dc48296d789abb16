package rule

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"gitlab.grandhoo.com/rock/rock_seco/dataset"
)

// RuleSet 有序规则集, 预测时第一个覆盖样本的规则生效
type RuleSet struct {
	rules       []*Rule
	defaultRule *Rule
}

func NewRuleSet() *RuleSet {
	return &RuleSet{}
}

func (rs *RuleSet) Add(r *Rule) { rs.rules = append(rs.rules, r) }

func (rs *RuleSet) Len() int { return len(rs.rules) }

func (rs *RuleSet) Rules() []*Rule { return rs.rules }

func (rs *RuleSet) At(i int) *Rule { return rs.rules[i] }

// SetDefault 末尾的默认规则, body 必须为空
func (rs *RuleSet) SetDefault(r *Rule) { rs.defaultRule = r }

func (rs *RuleSet) Default() *Rule { return rs.defaultRule }

// Predict returns the first rule covering e, or the default rule.
func (rs *RuleSet) Predict(e *dataset.Example) (*Rule, bool) {
	for _, r := range rs.rules {
		if r.Covers(e) {
			return r, true
		}
	}
	if rs.defaultRule != nil {
		return rs.defaultRule, true
	}
	return nil, false
}

// PredictLabels 多标签预测: 按顺序合并所有覆盖规则的 head, 先出现的赋值优先
func (rs *RuleSet) PredictLabels(e *dataset.Example) Head {
	var h Head
	for _, r := range rs.rules {
		if !r.Covers(e) {
			continue
		}
		for _, a := range r.Head {
			if _, ok := h.Value(a.Label); !ok {
				h = h.With(a)
			}
		}
	}
	if rs.defaultRule != nil {
		for _, a := range rs.defaultRule.Head {
			if _, ok := h.Value(a.Label); !ok {
				h = h.With(a)
			}
		}
	}
	return h
}

// Table 规则集的文本表格
func (rs *RuleSet) Table(ex *dataset.Examples) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "rule", "heuristic", "value", "tp", "fp", "tn", "fn"})
	for i, r := range rs.rules {
		t.AppendRow(ruleRow(i+1, r, ex))
	}
	if rs.defaultRule != nil {
		t.AppendRow(ruleRow("default", rs.defaultRule, ex))
	}
	t.SetStyle(table.StyleLight)
	return t.Render()
}

func ruleRow(id interface{}, r *Rule, ex *dataset.Examples) table.Row {
	return table.Row{
		id,
		r.Format(ex),
		r.Heuristic,
		fmt.Sprintf("%.4f", r.Score()),
		r.Stats.TP,
		r.Stats.FP,
		r.Stats.TN,
		r.Stats.FN,
	}
}
