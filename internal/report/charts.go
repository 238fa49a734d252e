package report

import (
	"fmt"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"speedboard/internal/models"
)

// RenderSpeedChart renders download and upload speed over the chart
// window as a PNG time series.
func RenderSpeedChart(w io.Writer, records []models.MeasurementRecord) error {
	window := ChartRecords(records)
	if len(window) < 2 {
		return fmt.Errorf("need at least 2 records to chart, have %d", len(window))
	}

	timestamps := make([]time.Time, len(window))
	download := make([]float64, len(window))
	upload := make([]float64, len(window))
	for i, r := range window {
		timestamps[i] = time.UnixMilli(r.Timestamp)
		download[i] = r.Download
		upload[i] = r.Upload
	}

	graph := chart.Chart{
		Title: "Speed (Mbps)",
		TitleStyle: chart.Style{
			FontSize: 16,
		},
		Background: chart.Style{
			Padding: chart.Box{
				Top:    20,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		Width:  900,
		Height: 400,
		XAxis: chart.XAxis{
			Name: "Time",
			Style: chart.Style{
				StrokeColor: drawing.ColorBlack,
				FontSize:    10,
			},
			ValueFormatter: chart.TimeMinuteValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Mbps",
			Style: chart.Style{
				StrokeColor: drawing.ColorBlack,
				FontSize:    10,
			},
			GridMajorStyle: chart.Style{
				StrokeColor: drawing.Color{R: 200, G: 200, B: 200, A: 255},
				StrokeWidth: 1.0,
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name: "Download",
				Style: chart.Style{
					StrokeColor: chart.GetDefaultColor(0),
					StrokeWidth: 2,
				},
				XValues: timestamps,
				YValues: download,
			},
			chart.TimeSeries{
				Name: "Upload",
				Style: chart.Style{
					StrokeColor: chart.GetDefaultColor(1),
					StrokeWidth: 2,
				},
				XValues: timestamps,
				YValues: upload,
			},
		},
	}
	graph.Elements = []chart.Renderable{
		chart.Legend(&graph),
	}

	return graph.Render(chart.PNG, w)
}

// RenderPingChart renders ping latency over the chart window.
func RenderPingChart(w io.Writer, records []models.MeasurementRecord) error {
	window := ChartRecords(records)
	if len(window) < 2 {
		return fmt.Errorf("need at least 2 records to chart, have %d", len(window))
	}

	timestamps := make([]time.Time, len(window))
	ping := make([]float64, len(window))
	for i, r := range window {
		timestamps[i] = time.UnixMilli(r.Timestamp)
		ping[i] = float64(r.Ping)
	}

	graph := chart.Chart{
		Title: "Ping (ms)",
		TitleStyle: chart.Style{
			FontSize: 16,
		},
		Background: chart.Style{
			Padding: chart.Box{
				Top:    20,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		Width:  900,
		Height: 400,
		XAxis: chart.XAxis{
			Name: "Time",
			Style: chart.Style{
				StrokeColor: drawing.ColorBlack,
				FontSize:    10,
			},
			ValueFormatter: chart.TimeMinuteValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Latency (ms)",
			Style: chart.Style{
				StrokeColor: drawing.ColorBlack,
				FontSize:    10,
			},
			GridMajorStyle: chart.Style{
				StrokeColor: drawing.Color{R: 200, G: 200, B: 200, A: 255},
				StrokeWidth: 1.0,
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name: "Ping",
				Style: chart.Style{
					StrokeColor: chart.GetDefaultColor(2),
					StrokeWidth: 2,
				},
				XValues: timestamps,
				YValues: ping,
			},
		},
	}

	return graph.Render(chart.PNG, w)
}

// RenderQualityChart renders the quality distribution over the chart
// window as a PNG bar chart.
func RenderQualityChart(w io.Writer, records []models.MeasurementRecord) error {
	window := ChartRecords(records)
	if len(window) == 0 {
		return fmt.Errorf("no records to chart")
	}

	counts := make(map[models.Quality]int)
	for _, r := range window {
		counts[r.Quality]++
	}

	tiers := []models.Quality{
		models.QualityExcellent,
		models.QualityGood,
		models.QualityFair,
		models.QualityPoor,
	}
	values := make([]chart.Value, 0, len(tiers))
	for _, q := range tiers {
		values = append(values, chart.Value{
			Label: string(q),
			Value: float64(counts[q]),
		})
	}

	graph := chart.BarChart{
		Title: "Quality Distribution",
		TitleStyle: chart.Style{
			FontSize: 16,
		},
		Background: chart.Style{
			Padding: chart.Box{
				Top:    20,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		Width:    900,
		Height:   400,
		Bars:     values,
		BarWidth: 60,
	}

	return graph.Render(chart.PNG, w)
}
