package metrics

import (
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-brs/pkg/interfaces"
)

// Traffic 汇总全部节点的流量
//
// 节点只暴露累计量，Traffic 为每个节点记住上次看到的值，
// 把增量计入总量与速率。
type Traffic struct {
	mu       sync.Mutex
	seenIn   map[interfaces.Peer]int64
	seenOut  map[interfaces.Peer]int64
	totalIn  int64
	totalOut int64

	inRate  *RateMeter
	outRate *RateMeter
}

// NewTraffic 创建流量汇总
func NewTraffic(clk clock.Clock) *Traffic {
	return &Traffic{
		seenIn:  make(map[interfaces.Peer]int64),
		seenOut: make(map[interfaces.Peer]int64),
		inRate:  NewRateMeter(clk),
		outRate: NewRateMeter(clk),
	}
}

// ObserveDownloaded 读取节点的下载累计量，返回新增的字节数
func (t *Traffic) ObserveDownloaded(p interfaces.Peer) int64 {
	cur := p.DownloadedVolume()
	t.mu.Lock()
	delta := deltaOf(t.seenIn, p, cur)
	t.totalIn += delta
	t.mu.Unlock()
	if delta > 0 {
		t.inRate.Add(delta)
	}
	return delta
}

// ObserveUploaded 读取节点的上传累计量，返回新增的字节数
func (t *Traffic) ObserveUploaded(p interfaces.Peer) int64 {
	cur := p.UploadedVolume()
	t.mu.Lock()
	delta := deltaOf(t.seenOut, p, cur)
	t.totalOut += delta
	t.mu.Unlock()
	if delta > 0 {
		t.outRate.Add(delta)
	}
	return delta
}

// deltaOf 更新基线并返回增量，累计量回退时视为从 0 重新开始
func deltaOf(seen map[interfaces.Peer]int64, p interfaces.Peer, cur int64) int64 {
	delta := cur - seen[p]
	if delta < 0 {
		delta = cur
	}
	seen[p] = cur
	return max(delta, 0)
}

// Forget 丢弃节点的基线
func (t *Traffic) Forget(p interfaces.Peer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.seenIn, p)
	delete(t.seenOut, p)
}

// Tracked 有基线的节点数
func (t *Traffic) Tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen := make(map[interfaces.Peer]struct{}, len(t.seenIn)+len(t.seenOut))
	for p := range t.seenIn {
		seen[p] = struct{}{}
	}
	for p := range t.seenOut {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// Totals 流量快照
func (t *Traffic) Totals() Stats {
	t.mu.Lock()
	in, out := t.totalIn, t.totalOut
	t.mu.Unlock()
	return Stats{
		TotalIn:  in,
		TotalOut: out,
		RateIn:   t.inRate.Rate(),
		RateOut:  t.outRate.Rate(),
	}
}
