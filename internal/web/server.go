// Package web serves the dashboard: the embedded static UI, the JSON
// API the tabs poll, export downloads and rendered charts.
package web

import (
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"speedboard/internal/metrics"
	"speedboard/internal/models"
	"speedboard/internal/netinfo"
	"speedboard/internal/report"
	"speedboard/internal/sequencer"
)

// Server owns the session state the views read: the record store, the
// sequencer, the one-shot network info snapshot and the history view's
// sort selection.
type Server struct {
	store       models.RecordStore
	seq         *sequencer.Sequencer
	probe       *netinfo.Probe
	port        int
	staticFiles fs.FS
	now         func() time.Time

	mu        sync.Mutex
	sortState report.SortState

	snapshotOnce sync.Once
	snapshot     models.NetworkInfoSnapshot
	dnsTimings   []models.DNSTiming
}

// New creates a web server.
func New(store models.RecordStore, seq *sequencer.Sequencer, probe *netinfo.Probe, port int, staticFS fs.FS) *Server {
	return &Server{
		store:       store,
		seq:         seq,
		probe:       probe,
		port:        port,
		staticFiles: staticFS,
		now:         time.Now,
		sortState:   report.SortState{Key: report.SortTimestamp, Desc: true},
	}
}

// Handler builds the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/test/start", s.handleStart)
	mux.HandleFunc("/api/test/stop", s.handleStop)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/chart-data", s.handleChartData)
	mux.HandleFunc("/api/netinfo", s.handleNetinfo)
	mux.HandleFunc("/api/traceroute", s.handleTraceroute)
	mux.HandleFunc("/api/export/csv", s.handleExportCSV)
	mux.HandleFunc("/api/export/json", s.handleExportJSON)

	// Rendered charts
	mux.HandleFunc("/charts/speed.png", s.handleSpeedChart)
	mux.HandleFunc("/charts/ping.png", s.handlePingChart)
	mux.HandleFunc("/charts/quality.png", s.handleQualityChart)

	mux.Handle("/metrics", promhttp.Handler())

	// Static files - serve embedded static/ directory as webroot
	if s.staticFiles != nil {
		staticFS, _ := fs.Sub(s.staticFiles, "static")
		mux.Handle("/", http.FileServer(http.FS(staticFS)))
	}

	return countRequests(mux)
}

// Start starts the web server.
func (s *Server) Start() error {
	log.Printf("Web server starting on port %d", s.port)
	return http.ListenAndServe(fmt.Sprintf(":%d", s.port), s.Handler())
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.HTTPRequestsTotal.Inc()
		next.ServeHTTP(w, r)
	})
}
