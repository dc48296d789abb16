package rule

import (
	"cmp"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set"
	"golang.org/x/exp/slices"

	"gitlab.grandhoo.com/rock/rock_seco/dataset"
)

// Assignment 预测 Label 属性取值 Value
type Assignment struct {
	Label int
	Value float64
}

// Head is sorted by label; a single-label head has exactly one assignment.
type Head []Assignment

func NewHead(assignments ...Assignment) Head {
	h := make(Head, 0, len(assignments))
	for _, a := range assignments {
		if _, ok := h.Value(a.Label); ok {
			continue
		}
		h = append(h, a)
	}
	slices.SortFunc(h, func(a, b Assignment) int { return cmp.Compare(a.Label, b.Label) })
	return h
}

// Single 单标签规则的头
func Single(label int, value float64) Head {
	return Head{{Label: label, Value: value}}
}

func (h Head) Size() int { return len(h) }

// Value 返回标签的预测值
func (h Head) Value(label int) (float64, bool) {
	for _, a := range h {
		if a.Label == label {
			return a.Value, true
		}
	}
	return 0, false
}

// With 返回加入一个赋值的新 head
func (h Head) With(a Assignment) Head {
	next := make(Head, 0, len(h)+1)
	next = append(next, h...)
	next = append(next, a)
	return NewHead(next...)
}

// Labels 头部标签集合
func (h Head) Labels() mapset.Set {
	s := mapset.NewSet()
	for _, a := range h {
		s.Add(a.Label)
	}
	return s
}

func (h Head) Compare(o Head) int {
	for i := 0; i < len(h) && i < len(o); i++ {
		if r := cmp.Compare(h[i].Label, o[i].Label); r != 0 {
			return r
		}
		if r := cmp.Compare(h[i].Value, o[i].Value); r != 0 {
			return r
		}
	}
	return cmp.Compare(len(h), len(o))
}

func (h Head) String() string {
	parts := make([]string, len(h))
	for i, a := range h {
		parts[i] = "a" + strconv.Itoa(a.Label) + "=" + strconv.FormatFloat(a.Value, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (h Head) Format(ex *dataset.Examples) string {
	if ex == nil {
		return h.String()
	}
	parts := make([]string, len(h))
	for i, a := range h {
		attr := ex.Attribute(a.Label)
		parts[i] = attr.Name + "=" + attr.Format(a.Value)
	}
	return strings.Join(parts, ",")
}
