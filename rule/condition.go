package rule

import (
	"cmp"
	"fmt"
	"strconv"

	"gitlab.grandhoo.com/rock/rock_seco/dataset"
)

type Operator int

const (
	Equal        Operator = iota // nominal =
	NotEqual                     // nominal !=
	Less                         // numeric <
	GreaterEqual                 // numeric >=
)

func (o Operator) String() string {
	switch o {
	case Equal:
		return "="
	case NotEqual:
		return "!="
	case Less:
		return "<"
	case GreaterEqual:
		return ">="
	}
	return "op(" + strconv.Itoa(int(o)) + ")"
}

// Condition 单属性的原子测试, 创建后不可变
type Condition struct {
	Attribute int
	Op        Operator
	Value     float64
}

// Covers 缺失值不满足任何条件
func (c Condition) Covers(e *dataset.Example) bool {
	v := e.Value(c.Attribute)
	if dataset.IsMissing(v) {
		return false
	}
	switch c.Op {
	case Equal:
		return v == c.Value
	case NotEqual:
		return v != c.Value
	case Less:
		return v < c.Value
	case GreaterEqual:
		return v >= c.Value
	}
	return false
}

// Compare orders by attribute, operator, then value.
func (c Condition) Compare(o Condition) int {
	if r := cmp.Compare(c.Attribute, o.Attribute); r != 0 {
		return r
	}
	if r := cmp.Compare(c.Op, o.Op); r != 0 {
		return r
	}
	return cmp.Compare(c.Value, o.Value)
}

func (c Condition) String() string {
	return fmt.Sprintf("a%d%s%s", c.Attribute, c.Op, strconv.FormatFloat(c.Value, 'g', -1, 64))
}

// Format 使用属性名和 nominal 取值显示
func (c Condition) Format(ex *dataset.Examples) string {
	if ex == nil {
		return c.String()
	}
	attr := ex.Attribute(c.Attribute)
	return attr.Name + c.Op.String() + attr.Format(c.Value)
}
