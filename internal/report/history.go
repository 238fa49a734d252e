package report

import (
	"sort"
	"strings"

	"speedboard/internal/models"
)

// SortKey names a sortable history column.
type SortKey string

const (
	SortTimestamp SortKey = "timestamp"
	SortDownload  SortKey = "download"
	SortUpload    SortKey = "upload"
	SortPing      SortKey = "ping"
	SortQuality   SortKey = "quality"
)

// ValidSortKey reports whether key names a sortable column.
func ValidSortKey(key SortKey) bool {
	switch key {
	case SortTimestamp, SortDownload, SortUpload, SortPing, SortQuality:
		return true
	}
	return false
}

// SortState tracks the history view's current sort selection.
// Selecting the active key again flips the direction; selecting a new
// key resets to descending.
type SortState struct {
	Key  SortKey
	Desc bool
}

// Select applies a column selection to the state.
func (s *SortState) Select(key SortKey) {
	if s.Key == key {
		s.Desc = !s.Desc
		return
	}
	s.Key = key
	s.Desc = true
}

// HistoryQuery is one request against the history view. Filter is a
// case-insensitive substring matched against the quality label and the
// formatted timestamp; Quality, when set, must match exactly. The two
// combine with AND.
type HistoryQuery struct {
	Filter  string
	Quality models.Quality
	Sort    SortKey
	Desc    bool
}

// FilterRecords returns the records matching the query's filters, in
// their input order.
func FilterRecords(records []models.MeasurementRecord, q HistoryQuery) []models.MeasurementRecord {
	needle := strings.ToLower(strings.TrimSpace(q.Filter))
	out := make([]models.MeasurementRecord, 0, len(records))
	for _, r := range records {
		if q.Quality != "" && r.Quality != q.Quality {
			continue
		}
		if needle != "" {
			label := strings.ToLower(string(r.Quality))
			date := strings.ToLower(formatTimestamp(r.Timestamp))
			if !strings.Contains(label, needle) && !strings.Contains(date, needle) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// SortRecords orders records by the given key and direction. The input
// slice is not modified. An empty or unknown key falls back to
// timestamp.
func SortRecords(records []models.MeasurementRecord, key SortKey, desc bool) []models.MeasurementRecord {
	out := make([]models.MeasurementRecord, len(records))
	copy(out, records)

	less := func(a, b models.MeasurementRecord) bool {
		switch key {
		case SortDownload:
			return a.Download < b.Download
		case SortUpload:
			return a.Upload < b.Upload
		case SortPing:
			return a.Ping < b.Ping
		case SortQuality:
			return a.Quality.Rank() < b.Quality.Rank()
		default:
			return a.Timestamp < b.Timestamp
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// QueryHistory applies filtering and sorting in one step.
func QueryHistory(records []models.MeasurementRecord, q HistoryQuery) []models.MeasurementRecord {
	return SortRecords(FilterRecords(records, q), q.Sort, q.Desc)
}
