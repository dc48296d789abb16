package seco_config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Properties 组件的扁平配置, 每个组件自行解释, 不认识的 key 直接忽略
type Properties map[string]string

// Config component -> properties
type Config map[string]Properties

func (p Properties) Clone() Properties {
	cp := make(Properties, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp
}

// With 返回设置了 key 的副本
func (p Properties) With(key, value string) Properties {
	cp := p.Clone()
	cp[key] = value
	return cp
}

func (p Properties) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(p[k])
	}
	return sb.String()
}

// Reader reads typed values; malformed values are logged and replaced by the default.
type Reader struct {
	component string
	props     Properties
	log       *zap.SugaredLogger
}

func (p Properties) Reader(component string, log *zap.SugaredLogger) *Reader {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Reader{component: component, props: p, log: log}
}

func (r *Reader) lookup(key string) (string, bool) {
	v, ok := r.props[key]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (r *Reader) String(key, def string) string {
	if v, ok := r.lookup(key); ok {
		return strings.ToLower(v)
	}
	return def
}

func (r *Reader) Int(key string, def int) int {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		r.log.Warnf("[%s] malformed int property %s=%q, use default %v", r.component, key, v, def)
		return def
	}
	return i
}

// PositiveInt 同 Int, 但 <1 时回退到默认值
func (r *Reader) PositiveInt(key string, def int) int {
	i := r.Int(key, def)
	if i < 1 {
		r.log.Warnf("[%s] property %s=%d must be positive, use default %v", r.component, key, i, def)
		return def
	}
	return i
}

func (r *Reader) Float(key string, def float64) float64 {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.log.Warnf("[%s] malformed float property %s=%q, use default %v", r.component, key, v, def)
		return def
	}
	return f
}

func (r *Reader) Bool(key string, def bool) bool {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.log.Warnf("[%s] malformed bool property %s=%q, use default %v", r.component, key, v, def)
		return def
	}
	return b
}

// IntList 逗号分隔的整数列表, 格式错误的项会被跳过
func (r *Reader) IntList(key string) []int {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	var result []int
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			r.log.Warnf("[%s] skip malformed item %q of %s", r.component, s, key)
			continue
		}
		result = append(result, i)
	}
	return result
}

// OneOf 读取枚举值, 非法值是致命错误
func (r *Reader) OneOf(key, def string, allowed ...string) (string, error) {
	v := r.String(key, def)
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: [%s] unknown %s %q, expect one of %v", ErrConfig, r.component, key, v, allowed)
}

// LoadYAML 读取 component -> properties 的配置文件
func LoadYAML(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseYAML(data)
}

func ParseYAML(data []byte) (Config, error) {
	raw := make(map[string]map[string]interface{})
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	conf := make(Config, len(raw))
	for component, kv := range raw {
		props := make(Properties, len(kv))
		for k, v := range kv {
			props[k] = fmt.Sprint(v)
		}
		conf[component] = props
	}
	return conf, nil
}

// Get 不存在时返回空配置
func (c Config) Get(component string) Properties {
	if p, ok := c[component]; ok {
		return p
	}
	return Properties{}
}
