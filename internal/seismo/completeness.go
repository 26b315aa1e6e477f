package seismo

import (
	"fmt"

	"github.com/rewired-gh/quakelens/internal/models"
)

// MinEventsCompleteness is the smallest catalogue the Mc estimator accepts.
const MinEventsCompleteness = 50

// DefaultMcCorrection is the conventional offset added to the maximum-curvature bin.
const DefaultMcCorrection = 0.2

// MethodMaxCurvature labels results of Completeness.
const MethodMaxCurvature = "maximum curvature"

// McOptions configures Completeness. A nil Correction means DefaultMcCorrection.
type McOptions struct {
	BinWidth   float64
	Correction *float64
}

func (o McOptions) correction() float64 {
	if o.Correction == nil {
		return DefaultMcCorrection
	}
	return *o.Correction
}

// Completeness estimates the magnitude of completeness by maximum curvature:
// the lower edge of the most populated histogram bin plus a correction.
// Ties between equally populated bins resolve to the lowest magnitude.
// Confidence is the fraction of events at or above Mc.
func Completeness(events []models.CatalogEvent, opts McOptions) (*models.McResult, error) {
	w, err := resolveBinWidth(opts.BinWidth)
	if err != nil {
		return nil, err
	}
	corr := opts.correction()
	if !isFinite(corr) {
		return nil, fmt.Errorf("%w: mc correction must be finite", ErrInvalidParameter)
	}
	if len(events) < MinEventsCompleteness {
		return nil, fmt.Errorf("%w: completeness needs %d events, got %d",
			ErrInsufficientData, MinEventsCompleteness, len(events))
	}

	mags, err := magnitudes(events)
	if err != nil {
		return nil, err
	}

	h, err := newHistogram(mags, w)
	if err != nil {
		return nil, err
	}
	peak := 0
	for k, c := range h.counts {
		if c > h.counts[peak] {
			peak = k
		}
	}
	mc := roundTo(binMagnitude(h.lo+peak, w)+corr, binDecimals(w)+1)

	above := 0
	for _, m := range mags {
		if m+binEpsilon >= mc {
			above++
		}
	}
	confidence := float64(above) / float64(len(mags))

	if !allFinite(mc, confidence) {
		return nil, fmt.Errorf("%w: completeness produced a non-finite value", ErrNumericOverflow)
	}

	return &models.McResult{
		Mc:                    mc,
		Confidence:            confidence,
		Method:                MethodMaxCurvature,
		MagnitudeDistribution: h.incremental(),
	}, nil
}
