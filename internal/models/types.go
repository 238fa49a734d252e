package models

// Quality is the ordinal rating assigned to a completed measurement.
type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityFair      Quality = "fair"
	QualityPoor      Quality = "poor"
)

// Rank returns the ordinal position of a quality tier, poor lowest.
// Unknown values sort below poor.
func (q Quality) Rank() int {
	switch q {
	case QualityExcellent:
		return 4
	case QualityGood:
		return 3
	case QualityFair:
		return 2
	case QualityPoor:
		return 1
	}
	return 0
}

// MeasurementRecord is one completed speed test. Records are created by
// the sequencer when all phases finish and are never mutated afterwards.
type MeasurementRecord struct {
	Download   float64 `json:"download"`    // Mbps
	Upload     float64 `json:"upload"`      // Mbps
	Ping       int     `json:"ping"`        // milliseconds
	Jitter     int     `json:"jitter"`      // milliseconds
	PacketLoss float64 `json:"packet_loss"` // percentage
	Timestamp  int64   `json:"timestamp"`   // epoch milliseconds
	Quality    Quality `json:"quality"`
}

// NetworkInfoSnapshot holds the one-shot environment facts collected at
// session start. Fields that cannot be determined carry "Unknown".
type NetworkInfoSnapshot struct {
	PublicIP       string `json:"public_ip"`
	LocalIP        string `json:"local_ip"`
	Hostname       string `json:"hostname"`
	OS             string `json:"os"`
	ISP            string `json:"isp"`
	ConnectionType string `json:"connection_type"`
	Location       string `json:"location"`
}

// DNSTiming is one entry of the simulated DNS latency filler.
type DNSTiming struct {
	Server    string `json:"server"`
	LatencyMs int    `json:"latency_ms"`
}

// TracerouteHop is one entry of the simulated traceroute filler.
type TracerouteHop struct {
	Hop       int    `json:"hop"`
	Address   string `json:"address"`
	LatencyMs int    `json:"latency_ms"`
}
