// Package netinfo collects the one-shot environment facts shown on the
// network info tab, plus the simulated DNS and traceroute fillers.
package netinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime"
	"time"

	"speedboard/internal/models"
)

// Unknown is the placeholder for any fact that cannot be determined.
const Unknown = "Unknown"

// Probe performs the best-effort environment collection. Every lookup
// failure degrades to a placeholder; Collect never returns an error.
type Probe struct {
	client    *http.Client
	lookupURL string
	clock     models.Clock
	rand      models.Rand
}

// New creates a probe. lookupURL is the external IP lookup endpoint,
// expected to answer `{"ip": "..."}`.
func New(lookupURL string, clk models.Clock, rnd models.Rand) *Probe {
	return &Probe{
		client:    &http.Client{Timeout: 5 * time.Second},
		lookupURL: lookupURL,
		clock:     clk,
		rand:      rnd,
	}
}

// Collect gathers the snapshot once. Called at session start.
func (p *Probe) Collect(ctx context.Context) models.NetworkInfoSnapshot {
	snapshot := models.NetworkInfoSnapshot{
		PublicIP:       p.publicIP(ctx),
		LocalIP:        localIP(),
		Hostname:       hostname(),
		OS:             runtime.GOOS,
		ISP:            Unknown,
		ConnectionType: Unknown,
		Location:       Unknown,
	}
	return snapshot
}

func (p *Probe) publicIP(ctx context.Context) string {
	if p.lookupURL == "" {
		return Unknown
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.lookupURL, nil)
	if err != nil {
		return Unknown
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return Unknown
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Unknown
	}

	var body struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.IP == "" {
		return Unknown
	}
	return body.IP
}

// localIP finds the preferred outbound address without sending any
// packets: the UDP "connection" only resolves routing.
func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return Unknown
	}
	defer conn.Close()
	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return Unknown
	}
	return addr.IP.String()
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return Unknown
	}
	return name
}

// dnsServers are the fixed resolvers shown by the latency filler.
var dnsServers = []string{"1.1.1.1", "8.8.8.8", "9.9.9.9"}

// DNSLatencies runs the simulated DNS latency filler: one randomized
// 10-50 ms entry per resolver, waited out on the clock.
func (p *Probe) DNSLatencies(ctx context.Context) ([]models.DNSTiming, error) {
	timings := make([]models.DNSTiming, 0, len(dnsServers))
	for _, server := range dnsServers {
		latency := 10 + int(p.rand.Float64()*40)
		if err := p.clock.Sleep(ctx, time.Duration(latency)*time.Millisecond); err != nil {
			return nil, err
		}
		timings = append(timings, models.DNSTiming{Server: server, LatencyMs: latency})
	}
	return timings, nil
}

const (
	tracerouteHops  = 5
	tracerouteTotal = 2 * time.Second
)

// Traceroute runs the simulated 5-hop traceroute filler. Hop latencies
// grow monotonically; the whole run takes a fixed 2 seconds on the
// clock.
func (p *Probe) Traceroute(ctx context.Context) ([]models.TracerouteHop, error) {
	hops := make([]models.TracerouteHop, 0, tracerouteHops)
	perHop := tracerouteTotal / tracerouteHops

	latency := 0
	for i := 1; i <= tracerouteHops; i++ {
		if err := p.clock.Sleep(ctx, perHop); err != nil {
			return nil, err
		}
		latency += 2 + int(p.rand.Float64()*18)
		hops = append(hops, models.TracerouteHop{
			Hop:       i,
			Address:   hopAddress(i, p.rand),
			LatencyMs: latency,
		})
	}
	return hops, nil
}

// hopAddress fabricates a plausible path: gateway first, carrier space
// after.
func hopAddress(hop int, rnd models.Rand) string {
	if hop == 1 {
		return "192.168.1.1"
	}
	return fmt.Sprintf("10.%d.%d.%d",
		hop,
		int(rnd.Float64()*255),
		1+int(rnd.Float64()*254),
	)
}
