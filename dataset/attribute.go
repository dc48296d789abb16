package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	ErrUnsupportedAttribute = errors.New("unsupported attribute type")
	ErrNegativeWeight       = errors.New("example weight must be non-negative")
)

type AttributeKind int

const (
	Nominal AttributeKind = iota
	Numeric
	Text // 可以加载, 不能出现在规则体中
	Date
)

func (k AttributeKind) String() string {
	switch k {
	case Nominal:
		return "nominal"
	case Numeric:
		return "numeric"
	case Text:
		return "text"
	case Date:
		return "date"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Attribute 不可变, 由 Index 唯一标识
type Attribute struct {
	Index  int
	Name   string
	Kind   AttributeKind
	Values []string // nominal 的取值域, 值以下标存储
}

func NewNominal(name string, values ...string) *Attribute {
	return &Attribute{Name: name, Kind: Nominal, Values: values}
}

func NewNumeric(name string) *Attribute {
	return &Attribute{Name: name, Kind: Numeric}
}

func (a *Attribute) IsNominal() bool { return a.Kind == Nominal }
func (a *Attribute) IsNumeric() bool { return a.Kind == Numeric }

func (a *Attribute) NumValues() int { return len(a.Values) }

// ValueIndex 返回 nominal 取值的下标
func (a *Attribute) ValueIndex(value string) (int, bool) {
	for i, v := range a.Values {
		if v == value {
			return i, true
		}
	}
	return -1, false
}

// Format renders a stored value the way it was loaded.
func (a *Attribute) Format(value float64) string {
	if IsMissing(value) {
		return "?"
	}
	if a.Kind == Nominal {
		i := int(value)
		if i >= 0 && i < len(a.Values) {
			return a.Values[i]
		}
	}
	return strconv.FormatFloat(value, 'g', -1, 64)
}

// CheckRefinable 规则体只支持 nominal 和 numeric
func (a *Attribute) CheckRefinable() error {
	if a.Kind != Nominal && a.Kind != Numeric {
		return fmt.Errorf("%w: attribute %q is %s", ErrUnsupportedAttribute, a.Name, a.Kind)
	}
	return nil
}

// Missing 缺失值
var Missing = math.NaN()

func IsMissing(v float64) bool {
	return math.IsNaN(v)
}
