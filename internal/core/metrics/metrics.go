package metrics

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/lib/log"
	"github.com/dep2p/go-brs/pkg/types"
)

var logger = log.Logger("core/metrics")

// ErrAlreadyAttached 已经挂接到注册表
var ErrAlreadyAttached = errors.New("metrics: already attached")

// Metrics 节点指标
type Metrics struct {
	namespace string
	registry  *prometheus.Registry
	traffic   *Traffic

	events     *prometheus.CounterVec
	downloaded prometheus.Counter
	uploaded   prometheus.Counter

	attached atomic.Bool
}

// New 创建指标集合，并注册 Go 运行时与进程采集器
func New(cfg Config, clk clock.Clock) *Metrics {
	ns := cfg.Namespace
	m := &Metrics{
		namespace: ns,
		registry:  prometheus.NewRegistry(),
		traffic:   NewTraffic(clk),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "peer",
			Name:      "events_total",
			Help:      "Peer lifecycle notifications by event.",
		}, []string{"event"}),
		downloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "peer",
			Name:      "downloaded_bytes_total",
			Help:      "Bytes received from peers.",
		}),
		uploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "peer",
			Name:      "uploaded_bytes_total",
			Help:      "Bytes sent to peers.",
		}),
	}

	m.registry.MustRegister(
		m.events,
		m.downloaded,
		m.uploaded,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: "peer",
			Name:      "download_rate_bytes",
			Help:      "Average bytes per second received from peers over the last minute.",
		}, func() float64 { return m.traffic.Totals().RateIn }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: "peer",
			Name:      "upload_rate_bytes",
			Help:      "Average bytes per second sent to peers over the last minute.",
		}, func() float64 { return m.traffic.Totals().RateOut }),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Attach 注册节点事件监听并导出注册表的节点统计
func (m *Metrics) Attach(peers interfaces.PeerManager) error {
	if !m.attached.CompareAndSwap(false, true) {
		return ErrAlreadyAttached
	}
	if err := m.registry.Register(newPeerCollector(m.namespace, peers)); err != nil {
		return fmt.Errorf("metrics: register peer collector: %w", err)
	}
	for _, ev := range types.AllPeerEvents() {
		m.events.WithLabelValues(ev.String())
		peers.AddListener(ev, m.onEvent)
	}
	logger.Debug("指标已挂接到注册表")
	return nil
}

// onEvent 节点事件回调
func (m *Metrics) onEvent(p interfaces.Peer, ev types.PeerEvent) {
	m.events.WithLabelValues(ev.String()).Inc()
	switch ev {
	case types.EventDownloadedVolume:
		if d := m.traffic.ObserveDownloaded(p); d > 0 {
			m.downloaded.Add(float64(d))
		}
	case types.EventUploadedVolume:
		if d := m.traffic.ObserveUploaded(p); d > 0 {
			m.uploaded.Add(float64(d))
		}
	case types.EventRemove:
		m.traffic.Forget(p)
	}
}

// Gatherer 指标采集入口
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Traffic 流量汇总，m 为 nil 时返回 nil
func (m *Metrics) Traffic() *Traffic {
	if m == nil {
		return nil
	}
	return m.traffic
}
