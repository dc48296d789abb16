package refinement

import (
	"cmp"

	"golang.org/x/exp/slices"
)

type valueClass struct {
	value    float64
	positive bool
	negative bool
}

// NumericThresholds returns the midpoints between neighbouring distinct values
// whose target membership differs. A value seen with both classes is a
// boundary on either side.
func NumericThresholds(values []float64, positive []bool) []float64 {
	if len(values) == 0 {
		return nil
	}
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	slices.SortFunc(idx, func(a, b int) int { return cmp.Compare(values[a], values[b]) })

	var groups []valueClass
	for _, i := range idx {
		if len(groups) == 0 || groups[len(groups)-1].value != values[i] {
			groups = append(groups, valueClass{value: values[i]})
		}
		g := &groups[len(groups)-1]
		if positive[i] {
			g.positive = true
		} else {
			g.negative = true
		}
	}

	var thresholds []float64
	for j := 0; j+1 < len(groups); j++ {
		a, b := groups[j], groups[j+1]
		pure := a.positive != a.negative && b.positive != b.negative
		if pure && a.positive == b.positive {
			continue
		}
		thresholds = append(thresholds, a.value+(b.value-a.value)/2)
	}
	return thresholds
}
