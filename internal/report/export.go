package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"speedboard/internal/models"
)

// csvHeader is the fixed export header row. Every field, header and
// value alike, is quoted.
var csvHeader = []string{
	"Date",
	"Time",
	"Download (Mbps)",
	"Upload (Mbps)",
	"Ping (ms)",
	"Jitter (ms)",
	"Packet Loss (%)",
	"Quality",
}

// WriteCSV writes records as CSV in their given order.
func WriteCSV(w io.Writer, records []models.MeasurementRecord) error {
	if err := writeCSVRow(w, csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		ts := time.UnixMilli(r.Timestamp)
		row := []string{
			ts.Format("2006-01-02"),
			ts.Format("15:04:05"),
			fmt.Sprintf("%.1f", r.Download),
			fmt.Sprintf("%.1f", r.Upload),
			fmt.Sprintf("%d", r.Ping),
			fmt.Sprintf("%d", r.Jitter),
			fmt.Sprintf("%.2f", r.PacketLoss),
			string(r.Quality),
		}
		if err := writeCSVRow(w, row); err != nil {
			return err
		}
	}
	return nil
}

func writeCSVRow(w io.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%q", f); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteJSON writes records as a pretty-printed JSON array with the
// full field set.
func WriteJSON(w io.Writer, records []models.MeasurementRecord) error {
	if records == nil {
		records = []models.MeasurementRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("history marshal failed: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// CSVFilename returns the dated download filename for a CSV export.
func CSVFilename(now time.Time) string {
	return fmt.Sprintf("speedtest-history-%s.csv", now.Format("2006-01-02"))
}

// JSONFilename returns the dated download filename for a JSON export.
func JSONFilename(now time.Time) string {
	return fmt.Sprintf("speedtest-history-%s.json", now.Format("2006-01-02"))
}
