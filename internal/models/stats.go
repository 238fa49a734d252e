package models

// SummaryStats aggregates the whole record store for the summary panel.
type SummaryStats struct {
	TotalTests  int     `json:"total_tests"`
	AvgDownload float64 `json:"avg_download"`
	AvgUpload   float64 `json:"avg_upload"`
	AvgPing     float64 `json:"avg_ping"`
	MaxDownload float64 `json:"max_download"`
	MinPing     int     `json:"min_ping"`
}

// ChartData is the chart-aggregation projection: the newest records in
// chronological order, split into per-field series, plus the quality
// distribution over the same window.
type ChartData struct {
	Labels       []string        `json:"labels"` // formatted timestamps
	Download     []float64       `json:"download"`
	Upload       []float64       `json:"upload"`
	Ping         []int           `json:"ping"`
	Jitter       []int           `json:"jitter"`
	PacketLoss   []float64       `json:"packet_loss"`
	QualityCount map[Quality]int `json:"quality_count"`
	Summary      SummaryStats    `json:"summary"`
}
