package metrics

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// rateWindow 速率窗口（秒）
const rateWindow = 60

// RateMeter 速率计算器（基于滑动窗口）
//
// 使用 60 个 1 秒桶计算最近 60 秒的平均速率。
type RateMeter struct {
	clock clock.Clock

	mu      sync.Mutex
	buckets [rateWindow]int64
	idx     int
	last    time.Time
}

// NewRateMeter 创建速率计算器
func NewRateMeter(clk clock.Clock) *RateMeter {
	if clk == nil {
		clk = clock.New()
	}
	return &RateMeter{clock: clk, last: clk.Now()}
}

// Add 把字节数计入当前桶
func (r *RateMeter) Add(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advanceLocked(r.clock.Now())
	r.buckets[r.idx] += n
}

// Rate 平均速率（字节/秒）
func (r *RateMeter) Rate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advanceLocked(r.clock.Now())

	var total int64
	for _, v := range r.buckets {
		total += v
	}
	return float64(total) / rateWindow
}

// advanceLocked 把窗口推进到 now，清空经过的桶
func (r *RateMeter) advanceLocked(now time.Time) {
	steps := int(now.Sub(r.last) / time.Second)
	if steps <= 0 {
		return
	}
	if steps >= rateWindow {
		r.buckets = [rateWindow]int64{}
		r.idx = 0
	} else {
		for i := 0; i < steps; i++ {
			r.idx = (r.idx + 1) % rateWindow
			r.buckets[r.idx] = 0
		}
	}
	r.last = r.last.Add(time.Duration(steps) * time.Second)
}
