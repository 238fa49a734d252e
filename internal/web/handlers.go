package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"speedboard/internal/models"
	"speedboard/internal/report"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// handleStatus handles /api/status requests
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.seq.Status())
}

// handleStart handles /api/test/start requests
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.seq.Start(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, s.seq.Status())
}

// handleStop handles /api/test/stop requests
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.seq.Stop()
	writeJSON(w, s.seq.Status())
}

// historyView resolves the query parameters shared by the history and
// export endpoints into the filtered, sorted record view.
func (s *Server) historyView(r *http.Request) ([]models.MeasurementRecord, report.SortState, error) {
	records, err := s.store.All()
	if err != nil {
		return nil, report.SortState{}, err
	}

	q := report.HistoryQuery{Filter: r.URL.Query().Get("filter")}

	if tier := r.URL.Query().Get("quality"); tier != "" {
		quality := models.Quality(tier)
		if quality.Rank() == 0 {
			return nil, report.SortState{}, fmt.Errorf("unknown quality tier %q", tier)
		}
		q.Quality = quality
	}

	s.mu.Lock()
	if key := report.SortKey(r.URL.Query().Get("sort")); key != "" {
		if !report.ValidSortKey(key) {
			s.mu.Unlock()
			return nil, report.SortState{}, fmt.Errorf("unknown sort key %q", key)
		}
		// Reselecting the active column toggles direction; an explicit
		// dir parameter pins it instead.
		switch r.URL.Query().Get("dir") {
		case "asc":
			s.sortState = report.SortState{Key: key, Desc: false}
		case "desc":
			s.sortState = report.SortState{Key: key, Desc: true}
		default:
			s.sortState.Select(key)
		}
	}
	state := s.sortState
	s.mu.Unlock()

	q.Sort = state.Key
	q.Desc = state.Desc
	return report.QueryHistory(records, q), state, nil
}

// handleHistory handles /api/history requests
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, state, err := s.historyView(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if records == nil {
		records = []models.MeasurementRecord{}
	}

	dir := "asc"
	if state.Desc {
		dir = "desc"
	}
	writeJSON(w, map[string]any{
		"records": records,
		"sort":    state.Key,
		"dir":     dir,
	})
}

// handleChartData handles /api/chart-data requests
func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.All()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, report.BuildChartData(records))
}

// handleNetinfo handles /api/netinfo requests. The snapshot and the
// DNS filler run once per session; later requests get the cached view.
func (s *Server) handleNetinfo(w http.ResponseWriter, r *http.Request) {
	s.snapshotOnce.Do(func() {
		s.snapshot = s.probe.Collect(r.Context())
		timings, err := s.probe.DNSLatencies(r.Context())
		if err == nil {
			s.dnsTimings = timings
		}
	})

	writeJSON(w, map[string]any{
		"info": s.snapshot,
		"dns":  s.dnsTimings,
	})
}

// handleTraceroute handles /api/traceroute requests
func (s *Server) handleTraceroute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	hops, err := s.probe.Traceroute(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, hops)
}

// handleExportCSV handles /api/export/csv requests
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	records, _, err := s.historyView(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", report.CSVFilename(s.now())))
	if err := report.WriteCSV(w, records); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleExportJSON handles /api/export/json requests
func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	records, _, err := s.historyView(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", report.JSONFilename(s.now())))
	if err := report.WriteJSON(w, records); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// renderChart buffers a chart render so failures never leave a
// half-written PNG response.
func (s *Server) renderChart(w http.ResponseWriter, render func(io.Writer, []models.MeasurementRecord) error) {
	records, err := s.store.All()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := render(&buf, records); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

// handleSpeedChart handles /charts/speed.png requests
func (s *Server) handleSpeedChart(w http.ResponseWriter, r *http.Request) {
	s.renderChart(w, report.RenderSpeedChart)
}

// handlePingChart handles /charts/ping.png requests
func (s *Server) handlePingChart(w http.ResponseWriter, r *http.Request) {
	s.renderChart(w, report.RenderPingChart)
}

// handleQualityChart handles /charts/quality.png requests
func (s *Server) handleQualityChart(w http.ResponseWriter, r *http.Request) {
	s.renderChart(w, report.RenderQualityChart)
}
