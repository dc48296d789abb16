package set

import (
	"cmp"

	"golang.org/x/exp/slices"
)

// Set 基于 map 的集合, 非并发安全
type Set[E comparable] map[E]struct{}

func New[E comparable]() Set[E] {
	return make(map[E]struct{})
}

// Of 用给定元素构造集合
func Of[E comparable](es ...E) Set[E] {
	s := make(Set[E], len(es))
	for _, e := range es {
		s.Put(e)
	}
	return s
}

func (s Set[E]) Put(e E) {
	s[e] = struct{}{}
}

func (s Set[E]) Remove(e E) {
	delete(s, e)
}

func (s Set[E]) Exist(e E) bool {
	_, ok := s[e]
	return ok
}

func (s Set[E]) Len() int {
	return len(s)
}

// Foreach 回调返回 false 时停止
func (s Set[E]) Foreach(it func(e E) bool) {
	for e := range s {
		if !it(e) {
			break
		}
	}
}

func (s Set[E]) ToSlice() []E {
	es := make([]E, 0, s.Len())
	for e := range s {
		es = append(es, e)
	}
	return es
}

// Sorted 有序输出, 用于需要确定顺序的场景
func Sorted[E cmp.Ordered](s Set[E]) []E {
	es := s.ToSlice()
	slices.Sort(es)
	return es
}
