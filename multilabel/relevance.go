package multilabel

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set"

	"gitlab.grandhoo.com/rock/rock_seco/dataset"
	"gitlab.grandhoo.com/rock/rock_seco/rule"
	"gitlab.grandhoo.com/rock/rock_seco/seco_config"
)

// RelevantLabels selects the label attributes a rule is evaluated on:
// the head labels (rule dependent) or a fixed list (rule independent, all
// labels when the list is empty). Labels unknown to examples are dropped.
func RelevantLabels(policy string, fixed []int, head rule.Head, examples *dataset.Examples) ([]int, error) {
	known := mapset.NewSet()
	for _, l := range examples.LabelIndices() {
		known.Add(l)
	}
	var selected mapset.Set
	switch policy {
	case seco_config.RuleDependent:
		selected = head.Labels()
	case seco_config.RuleIndependent:
		if len(fixed) == 0 {
			selected = known
		} else {
			selected = mapset.NewSet()
			for _, l := range fixed {
				selected.Add(l)
			}
		}
	default:
		return nil, fmt.Errorf("%w: unknown relevance %q", seco_config.ErrConfig, policy)
	}
	relevant := make([]int, 0, selected.Cardinality())
	for _, l := range selected.Intersect(known).ToSlice() {
		relevant = append(relevant, l.(int))
	}
	sort.Ints(relevant)
	if len(relevant) == 0 {
		return nil, fmt.Errorf("no relevant labels for head %v", head)
	}
	return relevant, nil
}

// RelevantValue 标签属性中表示"相关"的取值下标
func RelevantValue(attr *dataset.Attribute) float64 {
	if i, ok := attr.ValueIndex("1"); ok {
		return float64(i)
	}
	return 1
}
