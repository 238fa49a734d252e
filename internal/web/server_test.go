package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"speedboard/internal/models"
	"speedboard/internal/netinfo"
	"speedboard/internal/report"
	"speedboard/internal/sequencer"
	"speedboard/internal/store"
)

type fixedRand struct{ v float64 }

func (r fixedRand) Float64() float64 { return r.v }

// testClock never waits; with block set, sleeps park until cancelled.
type testClock struct {
	mu    sync.Mutex
	block bool
}

func (c *testClock) Now() time.Time { return time.UnixMilli(1705316400000) }

func (c *testClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	block := c.block
	c.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return ctx.Err()
}

type fixture struct {
	store  *store.Store
	seq    *sequencer.Sequencer
	clock  *testClock
	server *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.New()
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	clk := &testClock{}
	seq := sequencer.New(st, clk, fixedRand{0.2}, "")
	probe := netinfo.New("", clk, fixedRand{0.5})
	srv := New(st, seq, probe, 0, nil)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &fixture{store: st, seq: seq, clock: clk, server: ts}
}

func (f *fixture) seed(t *testing.T, records ...models.MeasurementRecord) {
	t.Helper()
	// Oldest first so newest ends up at the head of the store.
	for i := len(records) - 1; i >= 0; i-- {
		if err := f.store.Append(records[i]); err != nil {
			t.Fatalf("seed append failed: %v", err)
		}
	}
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, body
}

func post(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "", nil)
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, body
}

func sampleRecords() []models.MeasurementRecord {
	return []models.MeasurementRecord{
		{Download: 120, Upload: 40, Ping: 15, Jitter: 2, PacketLoss: 0.1, Timestamp: 1705316400000, Quality: models.QualityExcellent},
		{Download: 60, Upload: 20, Ping: 40, Jitter: 5, PacketLoss: 0.5, Timestamp: 1705312800000, Quality: models.QualityGood},
		{Download: 10, Upload: 2, Ping: 150, Jitter: 30, PacketLoss: 1.9, Timestamp: 1705309200000, Quality: models.QualityPoor},
	}
}

func TestStatusIdle(t *testing.T) {
	f := newFixture(t)

	resp, body := get(t, f.server.URL+"/api/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var status sequencer.Status
	if err := json.Unmarshal(body, &status); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if status.Phase != sequencer.PhaseIdle || status.Running {
		t.Errorf("status = %+v, want idle", status)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	f := newFixture(t)
	f.clock.block = true

	resp, _ := post(t, f.server.URL+"/api/test/start")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start = %d, want 200", resp.StatusCode)
	}

	// A second start while running conflicts.
	resp, _ = post(t, f.server.URL+"/api/test/start")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second start = %d, want 409", resp.StatusCode)
	}

	resp, _ = post(t, f.server.URL+"/api/test/stop")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop = %d, want 200", resp.StatusCode)
	}
	f.seq.Wait()

	if got := f.seq.Status().Phase; got != sequencer.PhaseIdle {
		t.Errorf("phase after stop = %v, want idle", got)
	}
	n, err := f.store.Len()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("store has %d records after cancelled run, want 0", n)
	}
}

func TestStartRequiresPost(t *testing.T) {
	f := newFixture(t)
	resp, _ := get(t, f.server.URL+"/api/test/start")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET start = %d, want 405", resp.StatusCode)
	}
}

func TestHistoryFilterAndSort(t *testing.T) {
	f := newFixture(t)
	f.seed(t, sampleRecords()...)

	resp, body := get(t, f.server.URL+"/api/history?quality=poor")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history = %d, want 200", resp.StatusCode)
	}

	var payload struct {
		Records []models.MeasurementRecord `json:"records"`
		Sort    report.SortKey             `json:"sort"`
		Dir     string                     `json:"dir"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(payload.Records) != 1 || payload.Records[0].Quality != models.QualityPoor {
		t.Errorf("records = %+v, want only the poor record", payload.Records)
	}
	if payload.Sort != report.SortTimestamp || payload.Dir != "desc" {
		t.Errorf("default sort = %s %s, want timestamp desc", payload.Sort, payload.Dir)
	}

	// Explicit ascending sort by download.
	_, body = get(t, f.server.URL+"/api/history?sort=download&dir=asc")
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(payload.Records) != 3 || payload.Records[0].Download != 10 {
		t.Errorf("ascending download sort wrong: %+v", payload.Records)
	}

	// Reselecting the same column without a direction toggles it.
	_, body = get(t, f.server.URL+"/api/history?sort=download")
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload.Dir != "desc" || payload.Records[0].Download != 120 {
		t.Errorf("toggle after asc should be desc, got dir=%s first=%v",
			payload.Dir, payload.Records[0].Download)
	}
}

func TestHistoryRejectsBadParams(t *testing.T) {
	f := newFixture(t)

	resp, _ := get(t, f.server.URL+"/api/history?quality=amazing")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad quality = %d, want 400", resp.StatusCode)
	}

	resp, _ = get(t, f.server.URL+"/api/history?sort=jitter")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad sort key = %d, want 400", resp.StatusCode)
	}
}

func TestChartData(t *testing.T) {
	f := newFixture(t)
	f.seed(t, sampleRecords()...)

	resp, body := get(t, f.server.URL+"/api/chart-data")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chart-data = %d, want 200", resp.StatusCode)
	}

	var data models.ChartData
	if err := json.Unmarshal(body, &data); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if data.Summary.TotalTests != 3 {
		t.Errorf("summary total = %d, want 3", data.Summary.TotalTests)
	}
	if data.Summary.MaxDownload != 120 {
		t.Errorf("max download = %v, want 120", data.Summary.MaxDownload)
	}
	if len(data.Labels) != 3 {
		t.Errorf("labels = %d, want 3", len(data.Labels))
	}
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t)
	f.seed(t, sampleRecords()[:2]...)

	resp, body := get(t, f.server.URL+"/api/export/csv")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q, want text/csv", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "speedtest-history-") || !strings.Contains(cd, ".csv") {
		t.Errorf("content disposition = %q, want dated csv filename", cd)
	}

	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	if len(lines) != 3 {
		t.Errorf("csv lines = %d, want header + 2 rows", len(lines))
	}
}

func TestExportJSON(t *testing.T) {
	f := newFixture(t)
	f.seed(t, sampleRecords()...)

	resp, body := get(t, f.server.URL+"/api/export/json?quality=good")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export = %d, want 200", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, ".json") {
		t.Errorf("content disposition = %q, want json filename", cd)
	}

	var records []models.MeasurementRecord
	if err := json.Unmarshal(body, &records); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(records) != 1 || records[0].Quality != models.QualityGood {
		t.Errorf("filtered export = %+v, want only the good record", records)
	}
}

func TestTraceroute(t *testing.T) {
	f := newFixture(t)

	resp, body := post(t, f.server.URL+"/api/traceroute")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("traceroute = %d, want 200", resp.StatusCode)
	}

	var hops []models.TracerouteHop
	if err := json.Unmarshal(body, &hops); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(hops) != 5 {
		t.Errorf("hops = %d, want 5", len(hops))
	}

	resp, _ = get(t, f.server.URL+"/api/traceroute")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET traceroute = %d, want 405", resp.StatusCode)
	}
}

func TestNetinfoCachedPerSession(t *testing.T) {
	f := newFixture(t)

	_, first := get(t, f.server.URL+"/api/netinfo")
	_, second := get(t, f.server.URL+"/api/netinfo")
	if string(first) != string(second) {
		t.Error("netinfo should be collected once and cached for the session")
	}

	var payload struct {
		Info models.NetworkInfoSnapshot `json:"info"`
		DNS  []models.DNSTiming         `json:"dns"`
	}
	if err := json.Unmarshal(first, &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload.Info.PublicIP != netinfo.Unknown {
		t.Errorf("public IP = %q, want Unknown without a lookup URL", payload.Info.PublicIP)
	}
	if len(payload.DNS) != 3 {
		t.Errorf("dns entries = %d, want 3", len(payload.DNS))
	}
}

func TestChartEndpoints(t *testing.T) {
	f := newFixture(t)

	// Not enough records to chart.
	resp, _ := get(t, f.server.URL+"/charts/speed.png")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("empty speed chart = %d, want 422", resp.StatusCode)
	}

	f.seed(t, sampleRecords()...)

	for _, path := range []string{"/charts/speed.png", "/charts/ping.png", "/charts/quality.png"} {
		resp, body := get(t, f.server.URL+path)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s = %d, want 200", path, resp.StatusCode)
			continue
		}
		if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("%s content type = %q, want image/png", path, ct)
		}
		if len(body) == 0 || fmt.Sprintf("%x", body[:4]) != "89504e47" {
			t.Errorf("%s did not return a PNG", path)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)

	resp, body := get(t, f.server.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), "speedboard_tests_started_total") {
		t.Error("expected speedboard collectors in metrics output")
	}
}
