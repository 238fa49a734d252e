// Package report computes the read-only projections over the record
// store: chart aggregation, the filterable sortable history view,
// summary statistics, CSV/JSON exports and rendered PNG charts.
package report

import (
	"time"

	"speedboard/internal/models"
)

// chartWindow is how many of the newest records feed the charts.
const chartWindow = 20

// timestampLayout is the formatted date the history filter matches
// against and the chart labels use.
const timestampLayout = "2006-01-02 15:04:05"

func formatTimestamp(ms int64) string {
	return time.UnixMilli(ms).Format(timestampLayout)
}

// ChartRecords returns the chart aggregation window: the newest
// records, reversed into chronological order.
func ChartRecords(records []models.MeasurementRecord) []models.MeasurementRecord {
	n := len(records)
	if n > chartWindow {
		n = chartWindow
	}
	window := make([]models.MeasurementRecord, n)
	for i := 0; i < n; i++ {
		window[i] = records[n-1-i]
	}
	return window
}

// BuildChartData projects records into per-field series over the chart
// window and a quality distribution, plus summary statistics computed
// over the entire input, not just the window.
func BuildChartData(records []models.MeasurementRecord) models.ChartData {
	window := ChartRecords(records)

	data := models.ChartData{
		Labels:       make([]string, 0, len(window)),
		Download:     make([]float64, 0, len(window)),
		Upload:       make([]float64, 0, len(window)),
		Ping:         make([]int, 0, len(window)),
		Jitter:       make([]int, 0, len(window)),
		PacketLoss:   make([]float64, 0, len(window)),
		QualityCount: make(map[models.Quality]int),
		Summary:      Summarize(records),
	}

	for _, r := range window {
		data.Labels = append(data.Labels, formatTimestamp(r.Timestamp))
		data.Download = append(data.Download, r.Download)
		data.Upload = append(data.Upload, r.Upload)
		data.Ping = append(data.Ping, r.Ping)
		data.Jitter = append(data.Jitter, r.Jitter)
		data.PacketLoss = append(data.PacketLoss, r.PacketLoss)
		data.QualityCount[r.Quality]++
	}
	return data
}

// Summarize computes the summary panel statistics over all records.
func Summarize(records []models.MeasurementRecord) models.SummaryStats {
	stats := models.SummaryStats{TotalTests: len(records)}
	if len(records) == 0 {
		return stats
	}

	var sumDown, sumUp, sumPing float64
	stats.MaxDownload = records[0].Download
	stats.MinPing = records[0].Ping
	for _, r := range records {
		sumDown += r.Download
		sumUp += r.Upload
		sumPing += float64(r.Ping)
		if r.Download > stats.MaxDownload {
			stats.MaxDownload = r.Download
		}
		if r.Ping < stats.MinPing {
			stats.MinPing = r.Ping
		}
	}
	n := float64(len(records))
	stats.AvgDownload = sumDown / n
	stats.AvgUpload = sumUp / n
	stats.AvgPing = sumPing / n
	return stats
}
