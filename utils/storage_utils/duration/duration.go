package duration

import (
	"sync"
	"time"
)

// Duration 可重入的计时器, 嵌套 Enter/Exit 只计一次
type Duration struct {
	initTime   time.Time
	tick       time.Time
	accumulate time.Duration
	reentrant  int
	mu         sync.RWMutex
}

func (d *Duration) Enter() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.reentrant == 0 {
		d.tick = time.Now()
		if d.initTime.IsZero() {
			d.initTime = d.tick
		}
	}
	d.reentrant++
}

func (d *Duration) Exit() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.reentrant == 0 {
		return
	}
	d.reentrant--
	if d.reentrant == 0 {
		d.accumulate += time.Since(d.tick)
	}
}

// Elapsed 从第一次 Enter 到现在
func (d *Duration) Elapsed() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.initTime.IsZero() {
		return 0
	}
	return time.Since(d.initTime)
}

// Accumulation 所有 Enter/Exit 区间之和, 包括尚未结束的区间
func (d *Duration) Accumulation() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.reentrant == 0 {
		return d.accumulate
	}
	return d.accumulate + time.Since(d.tick)
}

func (d *Duration) DurationString() string {
	return d.Elapsed().Round(time.Millisecond).String()
}

func (d *Duration) AccumulationString() string {
	return d.Accumulation().Round(time.Millisecond).String()
}
