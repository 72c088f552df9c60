// Package limiter 提供按远程主机的请求限流
//
// 每个主机一个令牌桶，桶数量由 LRU 限定，长期不活跃的主机被淘汰。
// HTTP 与 gRPC 服务端共用同一实现。
package limiter

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// DefaultMaxHosts 默认跟踪的最大主机数
const DefaultMaxHosts = 4096

// Limiter 按主机限流
//
// nil 或 limit <= 0 创建的 Limiter 不限流。
type Limiter struct {
	limit   rate.Limit
	burst   int
	buckets *lru.Cache[string, *rate.Limiter]
}

// New 创建限流器
//
// limit 为每秒请求数，burst 为突发上限；limit <= 0 时返回 nil（不限流）。
func New(limit float64, burst int, maxHosts int) *Limiter {
	if limit <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	if maxHosts <= 0 {
		maxHosts = DefaultMaxHosts
	}
	buckets, err := lru.New[string, *rate.Limiter](maxHosts)
	if err != nil {
		// 容量已保证为正
		panic(err)
	}
	return &Limiter{limit: rate.Limit(limit), burst: burst, buckets: buckets}
}

// Allow 主机是否可以再发起一次请求
func (l *Limiter) Allow(host string) bool {
	if l == nil {
		return true
	}
	b, ok := l.buckets.Get(host)
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		if prev, loaded, _ := l.buckets.PeekOrAdd(host, b); loaded {
			b = prev
		}
	}
	return b.Allow()
}

// Hosts 当前跟踪的主机数
func (l *Limiter) Hosts() int {
	if l == nil {
		return 0
	}
	return l.buckets.Len()
}
