// Package sequencer drives the synthetic speed test. It walks a fixed
// linear sequence of phases, produces one MeasurementRecord per
// completed run, and hands it to the record store. All measured values
// come from the injected randomness source; delays come from the
// injected clock, so tests run deterministic and instant.
package sequencer

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"speedboard/internal/metrics"
	"speedboard/internal/models"
)

// Phase identifies the sequencer state.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhasePing     Phase = "ping"
	PhaseDownload Phase = "download"
	PhaseUpload   Phase = "upload"
	PhaseComplete Phase = "complete"
)

// Progress checkpoints surfaced after each phase completes.
const (
	progressPing     = 25
	progressDownload = 65
	progressUpload   = 90
	progressComplete = 100
)

// Status is a snapshot of the sequencer, including partial results of
// the phases finished so far.
type Status struct {
	Phase      Phase   `json:"phase"`
	Progress   int     `json:"progress"`
	Running    bool    `json:"running"`
	Ping       int     `json:"ping"`
	Jitter     int     `json:"jitter"`
	Download   float64 `json:"download"`
	Upload     float64 `json:"upload"`
	PacketLoss float64 `json:"packet_loss"`
}

// Sequencer runs at most one measurement at a time.
type Sequencer struct {
	store models.RecordStore
	clock models.Clock
	rand  models.Rand

	probeURL string
	client   *http.Client

	mu     sync.Mutex
	status Status
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a sequencer writing to store. probeURL is the endpoint
// timed during the ping phase; when empty, every sample falls back to
// a simulated delay.
func New(store models.RecordStore, clk models.Clock, rnd models.Rand, probeURL string) *Sequencer {
	return &Sequencer{
		store:    store,
		clock:    clk,
		rand:     rnd,
		probeURL: probeURL,
		client:   &http.Client{Timeout: 2 * time.Second},
		status:   Status{Phase: PhaseIdle},
	}
}

// Start begins a measurement run. It returns an error if one is
// already in progress.
func (s *Sequencer) Start() error {
	s.mu.Lock()
	if s.status.Running {
		s.mu.Unlock()
		return fmt.Errorf("measurement already running")
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.status = Status{Phase: PhasePing, Running: true}
	s.mu.Unlock()

	metrics.TestsStarted.Inc()
	go s.run(ctx, s.done)
	return nil
}

// Stop cancels the current run, if any. Cancellation is cooperative:
// it takes effect at the next delay or sample boundary the run
// observes. Partial results are discarded and no record is produced.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Status returns the current snapshot.
func (s *Sequencer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Wait blocks until the current run finishes, for tests and the
// one-shot CLI mode. It returns immediately when nothing is running.
func (s *Sequencer) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Sequencer) setPhase(phase Phase, progress int) {
	s.mu.Lock()
	s.status.Phase = phase
	s.status.Progress = progress
	s.mu.Unlock()
	metrics.Progress.Set(float64(progress))
}

func (s *Sequencer) reset() {
	s.mu.Lock()
	s.status = Status{Phase: PhaseIdle}
	s.cancel = nil
	s.mu.Unlock()
	metrics.Progress.Set(0)
}
