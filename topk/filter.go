package topk

import (
	"gitlab.grandhoo.com/rock/rock_seco/rule"
	"gitlab.grandhoo.com/rock/rock_seco/seco_config"
	"gitlab.grandhoo.com/rock/rock_seco/utils/seco_logger"
	"go.uber.org/zap"
)

// Filter reduces a candidate list, keeping the relative order of survivors.
type Filter interface {
	FilterRules(rules []*rule.Rule) []*rule.Rule
}

// BeamFilter 保留最好的 Width 条
type BeamFilter struct {
	Width int
}

func (f BeamFilter) FilterRules(rules []*rule.Rule) []*rule.Rule {
	b := NewBeam(f.Width)
	b.AddAll(rules)
	return append([]*rule.Rule(nil), b.Items()...)
}

// MinPositivesFilter 覆盖正例权重不足的规则被丢弃
type MinPositivesFilter struct {
	Min float64
}

func (f MinPositivesFilter) FilterRules(rules []*rule.Rule) []*rule.Rule {
	var result []*rule.Rule
	for _, r := range rules {
		if r.Stats.TP >= f.Min {
			result = append(result, r)
		}
	}
	return result
}

// MaxLengthFilter 规则体长度上限
type MaxLengthFilter struct {
	Max int
}

func (f MaxLengthFilter) FilterRules(rules []*rule.Rule) []*rule.Rule {
	var result []*rule.Rule
	for _, r := range rules {
		if r.Length() <= f.Max {
			result = append(result, r)
		}
	}
	return result
}

// Chain 依次应用
type Chain []Filter

func (c Chain) FilterRules(rules []*rule.Rule) []*rule.Rule {
	for _, f := range c {
		rules = f.FilterRules(rules)
	}
	return rules
}

// NewFilter builds the filter named by "name", beam by default.
func NewFilter(props seco_config.Properties, log *zap.SugaredLogger) (Filter, error) {
	log = seco_logger.OrNop(log)
	r := props.Reader(seco_config.ComponentFilter, log)
	name, err := r.OneOf(seco_config.KeyName, seco_config.FilterBeam,
		seco_config.FilterBeam, seco_config.FilterMinPositives, seco_config.FilterMaxLength)
	if err != nil {
		return nil, err
	}
	switch name {
	case seco_config.FilterMinPositives:
		return MinPositivesFilter{Min: r.Float(seco_config.KeyMinPositives, seco_config.DefaultMinPositives)}, nil
	case seco_config.FilterMaxLength:
		return MaxLengthFilter{Max: r.PositiveInt(seco_config.KeyMaxLength, seco_config.DefaultMaxLength)}, nil
	}
	return BeamFilter{Width: r.PositiveInt(seco_config.KeyBeamWidth, seco_config.DefaultBeamWidth)}, nil
}
