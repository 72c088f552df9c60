package metrics

// Stats 流量统计快照
//
// TotalIn/TotalOut 为从节点收到/发往节点的累计字节数，
// RateIn/RateOut 为最近 60 秒的平均速率（字节/秒）。
type Stats struct {
	TotalIn  int64
	TotalOut int64
	RateIn   float64
	RateOut  float64
}
