package refinement

import (
	"math/rand"

	"go.uber.org/zap"

	"gitlab.grandhoo.com/rock/rock_seco/dataset"
	"gitlab.grandhoo.com/rock/rock_seco/rule"
	"gitlab.grandhoo.com/rock/rock_seco/seco_config"
	"gitlab.grandhoo.com/rock/rock_seco/utils/seco_logger"
)

// Evaluator fills a rule's statistics. A non-nil parent allows reuse of the
// parent's statistics and is only passed for specializations.
type Evaluator interface {
	EvaluateIncremental(r, parent *rule.Rule, examples *dataset.Examples) error
}

type Initializer interface {
	InitializeRule(examples *dataset.Examples, head rule.Head) (*rule.Rule, error)
}

// Refiner returns the evaluated refinements of r, best first.
type Refiner interface {
	RefineRule(r *rule.Rule, examples *dataset.Examples) ([]*rule.Rule, error)
}

// Options 精化算子共享的配置
type Options struct {
	Comparison  string
	Irredundant bool
	Distinct    bool
	BeamWidth   int
	Parallelism int
}

func DefaultOptions() Options {
	return Options{
		Comparison:  seco_config.CompareEqual,
		Irredundant: true,
		Distinct:    true,
		BeamWidth:   seco_config.DefaultBeamWidth,
		Parallelism: seco_config.DefaultParallelism,
	}
}

// ReadOptions 读取 refiner 配置, 比较方式非法是致命错误
func ReadOptions(props seco_config.Properties, log *zap.SugaredLogger) (Options, error) {
	r := props.Reader(seco_config.ComponentRefiner, log)
	comparison, err := r.OneOf(seco_config.KeyComparison, seco_config.CompareEqual,
		seco_config.CompareEqual, seco_config.CompareNotEqual, seco_config.CompareBoth)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Comparison:  comparison,
		Irredundant: r.Bool(seco_config.KeyIrredundant, true),
		Distinct:    r.Bool(seco_config.KeyDistinctAttr, true),
		BeamWidth:   r.PositiveInt(seco_config.KeyBeamWidth, seco_config.DefaultBeamWidth),
		Parallelism: r.PositiveInt(seco_config.KeyParallelism, seco_config.DefaultParallelism),
	}, nil
}

// NewRefiner builds the refiner named by "name", specialize by default.
// Properties apply to both directions of the bidirectional refiner.
func NewRefiner(props seco_config.Properties, ev Evaluator, log *zap.SugaredLogger) (Refiner, error) {
	log = seco_logger.OrNop(log)
	name, err := props.Reader(seco_config.ComponentRefiner, log).OneOf(seco_config.KeyName, seco_config.RefineSpecialize,
		seco_config.RefineSpecialize, seco_config.RefineGeneralize, seco_config.RefineBidirectional)
	if err != nil {
		return nil, err
	}
	opts, err := ReadOptions(props, log)
	if err != nil {
		return nil, err
	}
	log.Debugf("[refiner] %s with %s", name, props)
	switch name {
	case seco_config.RefineGeneralize:
		return NewGeneralizer(ev, opts, log), nil
	case seco_config.RefineBidirectional:
		return NewBidirectional(ev, opts, log), nil
	}
	return NewSpecializer(ev, opts, log), nil
}

// NewInitializer builds the initializer named by "name", top by default.
func NewInitializer(props seco_config.Properties, ev Evaluator, rnd *rand.Rand, log *zap.SugaredLogger) (Initializer, error) {
	log = seco_logger.OrNop(log)
	r := props.Reader(seco_config.ComponentInitializer, log)
	name, err := r.OneOf(seco_config.KeyName, seco_config.InitTop,
		seco_config.InitTop, seco_config.InitBottom, seco_config.InitRandom)
	if err != nil {
		return nil, err
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(int64(r.Int(seco_config.KeySeed, seco_config.DefaultSeed))))
	}
	switch name {
	case seco_config.InitBottom:
		return &BottomInitializer{ev: ev, rnd: rnd}, nil
	case seco_config.InitRandom:
		return &RandomInitializer{BottomInitializer{ev: ev, rnd: rnd}}, nil
	}
	return &TopInitializer{ev: ev}, nil
}
