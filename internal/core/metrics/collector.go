package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-brs/pkg/interfaces"
	"github.com/dep2p/go-brs/pkg/types"
)

// peerStates 导出的节点状态
var peerStates = []types.PeerState{
	types.PeerStateNotConnected,
	types.PeerStateConnected,
	types.PeerStateDisconnected,
}

// peerCollector 采集时统计注册表中的节点
type peerCollector struct {
	peers       interfaces.PeerManager
	byState     *prometheus.Desc
	blacklisted *prometheus.Desc
}

var _ prometheus.Collector = (*peerCollector)(nil)

func newPeerCollector(namespace string, peers interfaces.PeerManager) *peerCollector {
	return &peerCollector{
		peers: peers,
		byState: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "peers"),
			"Number of known peers by connection state.",
			[]string{"state"}, nil,
		),
		blacklisted: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "peers_blacklisted"),
			"Number of known peers currently blacklisted.",
			nil, nil,
		),
	}
}

// Describe 实现 prometheus.Collector
func (c *peerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.byState
	ch <- c.blacklisted
}

// Collect 实现 prometheus.Collector
func (c *peerCollector) Collect(ch chan<- prometheus.Metric) {
	counts := make(map[types.PeerState]int, len(peerStates))
	blacklisted := 0
	for _, p := range c.peers.AllPeers() {
		counts[p.State()]++
		if p.IsBlacklisted() {
			blacklisted++
		}
	}
	for _, s := range peerStates {
		ch <- prometheus.MustNewConstMetric(c.byState, prometheus.GaugeValue, float64(counts[s]), s.String())
	}
	ch <- prometheus.MustNewConstMetric(c.blacklisted, prometheus.GaugeValue, float64(blacklisted))
}
