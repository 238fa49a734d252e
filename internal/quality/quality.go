// Package quality rates completed measurements into ordinal tiers.
package quality

import "speedboard/internal/models"

// Classify maps a download speed (Mbps) and round-trip latency (ms) to
// a quality tier. Thresholds are evaluated in order, first match wins.
func Classify(download float64, ping int) models.Quality {
	switch {
	case download >= 100 && ping <= 20:
		return models.QualityExcellent
	case download >= 50 && ping <= 50:
		return models.QualityGood
	case download >= 25 && ping <= 100:
		return models.QualityFair
	default:
		return models.QualityPoor
	}
}
