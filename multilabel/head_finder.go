package multilabel

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gitlab.grandhoo.com/rock/rock_seco/dataset"
	"gitlab.grandhoo.com/rock/rock_seco/heuristic"
	"gitlab.grandhoo.com/rock/rock_seco/rule"
	"gitlab.grandhoo.com/rock/rock_seco/seco_config"
	"gitlab.grandhoo.com/rock/rock_seco/utils/seco_logger"
)

// ErrNoHead no head assignment covers a positive pair
var ErrNoHead = errors.New("no head covers a positive pair")

// HeadFinder grows the head of a body greedily, one label assignment per
// round, while the best boosted value improves.
type HeadFinder struct {
	ev          *Evaluator
	maxHeadSize int // 0 不限制
	log         *zap.SugaredLogger
}

func NewHeadFinder(props seco_config.Properties, ev *Evaluator, log *zap.SugaredLogger) *HeadFinder {
	log = seco_logger.OrNop(log)
	r := props.Reader(seco_config.ComponentMultiLabel, log)
	return &HeadFinder{
		ev:          ev,
		maxHeadSize: r.Int(seco_config.KeyMaxHeadSize, seco_config.DefaultMaxHeadSize),
		log:         log,
	}
}

// FindHead returns body with the best head found, evaluated. Assignments
// covering no positive pair are never chosen.
func (f *HeadFinder) FindHead(body *rule.Rule, examples *dataset.Examples) (*rule.Rule, error) {
	labels := examples.LabelIndices()
	limit := len(labels)
	if f.maxHeadSize > 0 && f.maxHeadSize < limit {
		limit = f.maxHeadSize
	}
	bound, bounded := f.ev.h.(heuristic.Bounded)

	var best *rule.Rule
	var head rule.Head
	for head.Size() < limit {
		var roundBest *rule.Rule
		for _, l := range labels {
			if _, used := head.Value(l); used {
				continue
			}
			for v := 0; v < examples.Attribute(l).NumValues(); v++ {
				candidate := body.WithHead(head.With(rule.Assignment{Label: l, Value: float64(v)}))
				if err := f.ev.Evaluate(candidate, examples); err != nil {
					return nil, err
				}
				if candidate.Stats.TP == 0 {
					continue
				}
				if roundBest == nil || rule.Better(candidate, roundBest) {
					roundBest = candidate
				}
			}
		}
		if roundBest == nil || (best != nil && !rule.Better(roundBest, best)) {
			break
		}
		best, head = roundBest, roundBest.Head
		if bounded && f.ev.booster == nil && best.Score() >= bound.Max() {
			break
		}
		if bounded && f.ev.booster != nil && head.Size() < limit {
			upper := f.ev.booster.UpperBound(bound.Max(), head.Size()+1, limit)
			if upper <= best.Score() {
				f.log.Debugf("[head] prune at %v: bound %.4f <= %.4f", head, upper, best.Score())
				break
			}
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w for %v", ErrNoHead, body)
	}
	return best, nil
}
