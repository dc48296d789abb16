package seco_config

import (
	"errors"
	"math"
)

// ErrConfig 配置错误, 不可恢复
var ErrConfig = errors.New("invalid configuration")

// 组件名, 对应配置文件中的一级 key
const (
	ComponentHeuristic   = "heuristic"
	ComponentInitializer = "initializer"
	ComponentRefiner     = "refiner"
	ComponentFilter      = "filter"
	ComponentStop        = "stop"
	ComponentRuleStop    = "rule_stop"
	ComponentMultiLabel  = "multi_label"
	ComponentBoosting    = "boosting"
	ComponentCovering    = "covering"
)

// 属性 key
const (
	KeyName         = "name"
	KeyBeamWidth    = "beam_width"
	KeyComparison   = "comparison"
	KeyIrredundant  = "irredundant"
	KeyDistinctAttr = "distinct_attributes"
	KeyParallelism  = "parallelism"
	KeyMaxLength    = "max_length"
	KeyMinPositives = "min_positives"
	KeySeed         = "seed"

	KeyBeta   = "beta"
	KeyM      = "m"
	KeyOmega  = "omega"
	KeyCost   = "cost"
	KeyTarget = "target"

	KeySignificance         = "significance"
	KeyCompareToPredecessor = "compare_to_predecessor"
	KeySurplus              = "surplus"
	KeyMaxErrorRate         = "max_error_rate"

	KeyRelevance    = "relevance"
	KeyAveraging    = "averaging"
	KeyDamping      = "damping"
	KeyOptimization = "optimization"
	KeyLabels       = "labels"
	KeyMaxHeadSize  = "max_head_size"

	KeyMaxLabels   = "max_labels"
	KeyCombine     = "combine"
	KeyScale       = "scale"
	KeyRoot        = "root"
	KeySwitchPoint = "switch_point"
	KeyPeakLabel   = "peak_label"
	KeyMaxBoost    = "max_boost"
	KeyCurvature   = "curvature"
	KeyExpression  = "expression"

	KeyMaxRules    = "max_rules"
	KeyReweighting = "reweighting"
	KeyLogLevel    = "log_level"
)

// 启发式函数
const (
	Precision      = "precision"
	Recall         = "recall"
	Laplace        = "laplace"
	Accuracy       = "accuracy"
	SubsetAccuracy = "subset_accuracy"
	FMeasure       = "f_measure"
	MEstimate      = "m_estimate"
	WRA            = "wra"
	KloesgenWrobel = "kloesgen_wrobel"
	Correlation    = "correlation"
	RelativeCost   = "relative_cost"
	Gini           = "gini"
)

// 初始化 / 精化 / 过滤
const (
	InitTop    = "top"
	InitBottom = "bottom"
	InitRandom = "random"

	RefineSpecialize    = "specialize"
	RefineGeneralize    = "generalize"
	RefineBidirectional = "bidirectional"

	CompareEqual    = "equal"
	CompareNotEqual = "not_equal"
	CompareBoth     = "both"

	FilterBeam         = "beam"
	FilterMinPositives = "min_positives"
	FilterMaxLength    = "max_length"
)

// 停止条件
const (
	StopNoNegatives     = "no_negatives"
	StopLikelihoodRatio = "likelihood_ratio"
	StopNone            = "none"

	RuleStopCoverage    = "coverage"
	RuleStopDefaultRule = "default_rule"
	RuleStopMDL         = "mdl"
	RuleStopNone        = "none"
)

// 多标签
const (
	RuleDependent   = "rule_dependent"
	RuleIndependent = "rule_independent"

	AveragingMicro        = "micro"
	AveragingMacro        = "macro"
	AveragingLabelBased   = "label_based"
	AveragingExampleBased = "example_based"

	DampingLog  = "log"
	DampingNone = "none"

	OptimizationClassic = "classic"
	OptimizationAdapted = "adapted"
	OptimizationClever  = "clever"
	OptimizationCovered = "covered"
)

// boosting / lifting
const (
	BoostLog        = "log"
	BoostRoot       = "root"
	BoostLinearLog  = "linear_log"
	BoostPeak       = "peak"
	BoostExpression = "expression"

	CombineMultiply = "multiply"
	CombineAdd      = "add"
)

// 样本重加权
const (
	ReweightRemove = "remove"
	ReweightHalve  = "halve"
)

// 默认值
const (
	DefaultBeamWidth    = 1
	DefaultParallelism  = 1
	DefaultMaxLength    = math.MaxInt32
	DefaultMinPositives = 1.0
	DefaultSeed         = 1

	DefaultBeta  = 1.0
	DefaultM     = 22.466
	DefaultOmega = 0.4323
	DefaultCost  = 0.342

	DefaultSignificance = 0.9
	DefaultSurplus      = 64.0
	DefaultMaxErrorRate = 0.5

	DefaultMaxHeadSize = 0 // 0 表示不限制

	DefaultScale       = 1.0
	DefaultRoot        = 2.0
	DefaultSwitchPoint = 3
	DefaultMaxBoost    = 1.5
	DefaultCurvature   = 2.0

	DefaultMaxRules = 100
)
