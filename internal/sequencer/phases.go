package sequencer

import (
	"context"
	"math"
	"net/http"
	"time"

	"speedboard/internal/metrics"
	"speedboard/internal/models"
	"speedboard/internal/quality"
)

const (
	pingSamples      = 5
	pingSampleGap    = 100 * time.Millisecond
	displayDelay     = time.Second
	packetLossCeil   = 2.0
	uploadRatioFloor = 0.1
	uploadRatioSpan  = 0.4
)

// downloadSizes are the simulated transfer sizes, in arbitrary units.
var downloadSizes = []int{1, 2, 5}

// run walks the phase sequence. Any cancellation observed at a delay
// or sample boundary discards all partial results and resets to idle;
// there is no other way for a run to end without a record.
func (s *Sequencer) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ping, jitter, err := s.pingPhase(ctx)
	if err != nil {
		s.cancelled()
		return
	}
	s.mu.Lock()
	s.status.Ping = ping
	s.status.Jitter = jitter
	s.mu.Unlock()
	s.setPhase(PhaseDownload, progressPing)

	download, err := s.downloadPhase(ctx)
	if err != nil {
		s.cancelled()
		return
	}
	s.mu.Lock()
	s.status.Download = download
	s.mu.Unlock()
	s.setPhase(PhaseUpload, progressDownload)

	// Upload is derived, not independently measured: a random fraction
	// of the download result. Documented simulated behavior.
	upload := round1(download * (uploadRatioFloor + s.rand.Float64()*uploadRatioSpan))
	packetLoss := round2(s.rand.Float64() * packetLossCeil)
	s.mu.Lock()
	s.status.Upload = upload
	s.status.PacketLoss = packetLoss
	s.mu.Unlock()
	s.setPhase(PhaseComplete, progressUpload)

	record := models.MeasurementRecord{
		Download:   download,
		Upload:     upload,
		Ping:       ping,
		Jitter:     jitter,
		PacketLoss: packetLoss,
		Timestamp:  s.clock.Now().UnixMilli(),
		Quality:    quality.Classify(download, ping),
	}
	s.setPhase(PhaseComplete, progressComplete)

	// Results stay on screen for a moment before the record lands in
	// the history. A stop during this window still discards the run.
	if err := s.clock.Sleep(ctx, displayDelay); err != nil {
		s.cancelled()
		return
	}

	if err := s.store.Append(record); err != nil {
		// The store has no failure mode worth surfacing to the user;
		// log-level reporting happens in the web layer via status.
		s.cancelled()
		return
	}
	metrics.TestsCompleted.Inc()
	s.reset()
}

func (s *Sequencer) cancelled() {
	metrics.TestsCancelled.Inc()
	s.reset()
}

// pingPhase takes five timed round trips and reduces them to a mean
// latency and a max-min jitter, both in whole milliseconds.
func (s *Sequencer) pingPhase(ctx context.Context) (ping, jitter int, err error) {
	samples := make([]float64, 0, pingSamples)
	for i := 0; i < pingSamples; i++ {
		if i > 0 {
			if err := s.clock.Sleep(ctx, pingSampleGap); err != nil {
				return 0, 0, err
			}
		}
		latency, err := s.pingSample(ctx)
		if err != nil {
			return 0, 0, err
		}
		samples = append(samples, latency)
	}

	var sum, min, max float64
	min = samples[0]
	max = samples[0]
	for _, v := range samples {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return int(math.Round(sum / float64(len(samples)))), int(math.Round(max - min)), nil
}

// pingSample times one round trip against the probe endpoint. Probe
// failures never abort the run: the sample is substituted with a
// randomized fallback latency, waited out on the clock so the pacing
// matches a real sample.
func (s *Sequencer) pingSample(ctx context.Context) (float64, error) {
	if s.probeURL != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.probeURL, nil)
		if err == nil {
			start := time.Now()
			resp, doErr := s.client.Do(req)
			if doErr == nil {
				resp.Body.Close()
				return float64(time.Since(start)) / float64(time.Millisecond), nil
			}
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
		}
	}

	latency := 5 + s.rand.Float64()*50
	if err := s.clock.Sleep(ctx, time.Duration(latency*float64(time.Millisecond))); err != nil {
		return 0, err
	}
	return latency, nil
}

// downloadPhase times three simulated transfers. Each transfer's
// duration is inversely proportional to a randomized throughput factor
// in [50,200); the reported speed is the mean across samples.
func (s *Sequencer) downloadPhase(ctx context.Context) (float64, error) {
	var total float64
	for _, size := range downloadSizes {
		factor := 50 + s.rand.Float64()*150
		seconds := float64(size*8) / factor
		if err := s.clock.Sleep(ctx, time.Duration(seconds*float64(time.Second))); err != nil {
			return 0, err
		}
		total += float64(size*8) / seconds
	}
	return round1(total / float64(len(downloadSizes))), nil
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
