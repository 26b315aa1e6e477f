package seismo

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/rewired-gh/quakelens/internal/models"
)

// MinEventsGutenbergRichter is the smallest catalogue the GR estimator accepts.
const MinEventsGutenbergRichter = 10

// GROptions configures GutenbergRichter. When Completeness is nil the
// threshold comes from Completeness with McCorrection.
type GROptions struct {
	BinWidth     float64
	Completeness *float64
	McCorrection *float64
}

// GutenbergRichter fits log10 N(>=M) = a - b·M by ordinary least squares over
// the cumulative bins at or above the completeness magnitude.
//
// When Mc is not supplied and the catalogue is too small for the Mc estimator,
// the fit starts at the lowest populated bin.
func GutenbergRichter(events []models.CatalogEvent, opts GROptions) (*models.GRResult, error) {
	w, err := resolveBinWidth(opts.BinWidth)
	if err != nil {
		return nil, err
	}
	if opts.Completeness != nil && !isFinite(*opts.Completeness) {
		return nil, fmt.Errorf("%w: completeness must be finite", ErrInvalidParameter)
	}
	if len(events) < MinEventsGutenbergRichter {
		return nil, fmt.Errorf("%w: b-value needs %d events, got %d",
			ErrInsufficientData, MinEventsGutenbergRichter, len(events))
	}

	mags, err := magnitudes(events)
	if err != nil {
		return nil, err
	}
	h, err := newHistogram(mags, w)
	if err != nil {
		return nil, err
	}
	cumulative := h.cumulative()

	var mc float64
	switch {
	case opts.Completeness != nil:
		mc = *opts.Completeness
	default:
		res, err := Completeness(events, McOptions{BinWidth: w, Correction: opts.McCorrection})
		switch {
		case err == nil:
			mc = res.Mc
		case errors.Is(err, ErrInsufficientData):
			mc = cumulative[0].Magnitude
		default:
			return nil, fmt.Errorf("failed to estimate completeness: %w", err)
		}
	}

	var points []models.MagnitudeBin
	var x, y []float64
	for _, bin := range cumulative {
		if bin.Magnitude+binEpsilon < mc || bin.Count == 0 {
			continue
		}
		points = append(points, bin)
		x = append(x, bin.Magnitude)
		y = append(y, bin.LogCount)
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: %d bins at or above Mc %.2f", ErrDegenerateFit, len(points), mc)
	}
	if stat.Variance(y, nil) == 0 {
		return nil, fmt.Errorf("%w: cumulative counts are constant above Mc %.2f", ErrDegenerateFit, mc)
	}

	// y = alpha + beta·x, so a = alpha and b = -beta.
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	r2 := stat.RSquared(x, y, nil, alpha, beta)
	a, b := alpha, -beta
	if !allFinite(a, b, r2) {
		return nil, fmt.Errorf("%w: regression produced a non-finite value", ErrNumericOverflow)
	}

	line := make([]models.LinePoint, len(x))
	for i, m := range x {
		line[i] = models.LinePoint{Magnitude: m, Value: a - b*m}
	}

	return &models.GRResult{
		BValue:       b,
		AValue:       a,
		RSquared:     r2,
		Completeness: mc,
		DataPoints:   points,
		FittedLine:   line,
	}, nil
}
