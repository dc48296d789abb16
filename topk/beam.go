package topk

import (
	"sort"

	"gitlab.grandhoo.com/rock/rock_seco/rule"
)

// Beam keeps the best capacity rules seen so far, best first. A full beam
// evicts its worst rule only for a strictly better one; duplicates are rejected.
type Beam struct {
	capacity int
	items    []*rule.Rule
	keys     map[string]bool
}

func NewBeam(capacity int) *Beam {
	if capacity < 1 {
		capacity = 1
	}
	return &Beam{capacity: capacity, keys: make(map[string]bool, capacity)}
}

func (b *Beam) Capacity() int { return b.capacity }

func (b *Beam) Len() int { return len(b.items) }

// Add 返回规则是否被保留
func (b *Beam) Add(r *rule.Rule) bool {
	key := r.Key()
	if b.keys[key] {
		return false
	}
	if len(b.items) == b.capacity {
		worst := b.items[len(b.items)-1]
		if !rule.Better(r, worst) {
			return false
		}
		delete(b.keys, worst.Key())
		b.items = b.items[:len(b.items)-1]
	}
	i := sort.Search(len(b.items), func(i int) bool { return rule.Better(r, b.items[i]) })
	b.items = append(b.items, nil)
	copy(b.items[i+1:], b.items[i:])
	b.items[i] = r
	b.keys[key] = true
	return true
}

// AddAll 依次加入
func (b *Beam) AddAll(rules []*rule.Rule) {
	for _, r := range rules {
		b.Add(r)
	}
}

// Items best first, the slice must not be modified.
func (b *Beam) Items() []*rule.Rule { return b.items }

func (b *Beam) Best() *rule.Rule {
	if len(b.items) == 0 {
		return nil
	}
	return b.items[0]
}

func (b *Beam) Worst() *rule.Rule {
	if len(b.items) == 0 {
		return nil
	}
	return b.items[len(b.items)-1]
}

func (b *Beam) Contains(r *rule.Rule) bool { return b.keys[r.Key()] }
