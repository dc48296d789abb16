package topk

import (
	"errors"
	"math/rand"
	"sort"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"gitlab.grandhoo.com/rock/rock_seco/rule"
	"gitlab.grandhoo.com/rock/rock_seco/seco_config"
)

func candidate(attr int, threshold, value, tp float64) *rule.Rule {
	r := rule.New(rule.Single(9, 1), rule.Condition{Attribute: attr, Op: rule.Less, Value: threshold})
	r.Value = value
	r.Stats.TP = tp
	return r
}

func TestBeam(t *testing.T) {
	Convey("Given a beam of capacity 3", t, func() {
		b := NewBeam(3)

		Convey("It never exceeds its capacity and keeps the best rules", func() {
			rnd := rand.New(rand.NewSource(7))
			var all []*rule.Rule
			for i := 0; i < 200; i++ {
				// 少量取值, 制造大量平局
				r := candidate(rnd.Intn(3), float64(i), float64(rnd.Intn(5))/4, float64(rnd.Intn(3)))
				all = append(all, r)
				b.Add(r)
				So(b.Len(), ShouldBeLessThanOrEqualTo, 3)

				sorted := append([]*rule.Rule(nil), all...)
				sort.Slice(sorted, func(i, j int) bool { return rule.Better(sorted[i], sorted[j]) })
				n := len(sorted)
				if n > 3 {
					n = 3
				}
				So(b.Items(), ShouldResemble, sorted[:n])
			}
		})

		Convey("Duplicates are rejected", func() {
			So(b.Add(candidate(0, 1, 0.5, 1)), ShouldBeTrue)
			So(b.Add(candidate(0, 1, 0.9, 1)), ShouldBeFalse)
			So(b.Len(), ShouldEqual, 1)
		})

		Convey("A full beam only accepts strictly better rules", func() {
			b.Add(candidate(0, 1, 0.5, 1))
			b.Add(candidate(0, 2, 0.6, 1))
			b.Add(candidate(0, 3, 0.7, 1))
			So(b.Add(candidate(0, 4, 0.1, 1)), ShouldBeFalse)
			So(b.Add(candidate(0, 5, 0.8, 1)), ShouldBeTrue)
			So(b.Best().Value, ShouldEqual, 0.8)
			So(b.Worst().Value, ShouldEqual, 0.6)
			So(b.Contains(candidate(0, 1, 0, 0)), ShouldBeFalse)
		})
	})
}

func TestFilters(t *testing.T) {
	Convey("Filters built from properties", t, func() {
		rules := []*rule.Rule{
			candidate(0, 1, 0.9, 0.5),
			candidate(1, 1, 0.8, 3),
			candidate(2, 1, 0.7, 2).Extend(rule.Condition{Attribute: 3, Op: rule.Equal, Value: 1}),
		}
		rules[2].Value = 0.95

		Convey("beam keeps the best beam_width rules", func() {
			f, err := NewFilter(seco_config.Properties{seco_config.KeyBeamWidth: "2"}, nil)
			So(err, ShouldBeNil)
			out := f.FilterRules(rules)
			So(out, ShouldHaveLength, 2)
			So(out[0], ShouldEqual, rules[2])
			So(out[1], ShouldEqual, rules[0])
		})

		Convey("min_positives drops rules with too little TP", func() {
			f, err := NewFilter(seco_config.Properties{seco_config.KeyName: "min_positives"}, nil)
			So(err, ShouldBeNil)
			So(f.FilterRules(rules), ShouldHaveLength, 1)
		})

		Convey("max_length drops long rules", func() {
			f, err := NewFilter(seco_config.Properties{seco_config.KeyName: "max_length", seco_config.KeyMaxLength: "1"}, nil)
			So(err, ShouldBeNil)
			So(Chain{f}.FilterRules(rules), ShouldHaveLength, 2)
		})

		Convey("unknown filters are configuration errors", func() {
			_, err := NewFilter(seco_config.Properties{seco_config.KeyName: "top"}, nil)
			So(errors.Is(err, seco_config.ErrConfig), ShouldBeTrue)
		})
	})
}
