// Package seismo implements the statistical seismology estimators.
//
// Every estimator is a pure function of an event slice and an options value:
//
//	GutenbergRichter   log10 N(>=M) = a - b·M by least squares above Mc
//	Completeness       Mc by maximum curvature of the incremental histogram
//	Temporal           event-rate time series plus declustering
//	Decluster          Gardner-Knopoff space-time windows, largest event first
//	Moment             Hanks-Kanamori seismic moment totals
//	CompareMFD         histograms and N(>=M) for several catalogues on one axis
//
// Inputs are never modified. An estimator either returns a fully populated
// result or a nil result with an error wrapping one of the sentinels in
// errors.go; numeric outputs are always finite.
package seismo

import (
	"fmt"
	"math"

	"github.com/rewired-gh/quakelens/internal/models"
)

// magnitudes extracts event magnitudes, rejecting non-finite values.
func magnitudes(events []models.CatalogEvent) ([]float64, error) {
	mags := make([]float64, len(events))
	for i := range events {
		m := events[i].Magnitude
		if !isFinite(m) {
			return nil, fmt.Errorf("%w: event %s has non-finite magnitude", ErrInvalidParameter, events[i].ID)
		}
		mags[i] = m
	}
	return mags, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func allFinite(vs ...float64) bool {
	for _, v := range vs {
		if !isFinite(v) {
			return false
		}
	}
	return true
}
