package seismo

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/rewired-gh/quakelens/internal/models"
)

// Hanks-Kanamori constant for moments in N·m.
const momentConstantNm = 9.1

// MomentOptions configures Moment.
type MomentOptions struct {
	BinWidth float64
}

// SeismicMoment converts moment magnitude to scalar moment in N·m:
// M0 = 10^(1.5·Mw + 9.1).
func SeismicMoment(mw float64) (float64, error) {
	if !isFinite(mw) {
		return 0, fmt.Errorf("%w: magnitude must be finite", ErrInvalidParameter)
	}
	m0 := math.Pow(10, 1.5*mw+momentConstantNm)
	if math.IsInf(m0, 0) {
		return 0, fmt.Errorf("%w: moment of Mw %.2f exceeds float64 range", ErrNumericOverflow, mw)
	}
	return m0, nil
}

// MomentMagnitude is the inverse of SeismicMoment: Mw = (2/3)·(log10 M0 - 9.1).
func MomentMagnitude(m0 float64) (float64, error) {
	if !isFinite(m0) {
		return 0, fmt.Errorf("%w: moment must be finite", ErrNumericOverflow)
	}
	if m0 <= 0 {
		return 0, fmt.Errorf("%w: moment must be positive", ErrInvalidParameter)
	}
	return (2.0 / 3.0) * (math.Log10(m0) - momentConstantNm), nil
}

// Moment sums seismic moment over the catalogue, reports the magnitude of a
// single event releasing the same total, the largest contributor and the
// moment released per magnitude bin. Bins with no events are omitted so the
// series can be drawn on a log axis.
func Moment(events []models.CatalogEvent, opts MomentOptions) (*models.MomentResult, error) {
	w, err := resolveBinWidth(opts.BinWidth)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: no events", ErrInsufficientData)
	}

	moments := make([]float64, len(events))
	largest := 0
	for i := range events {
		m0, err := SeismicMoment(events[i].Magnitude)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", events[i].ID, err)
		}
		moments[i] = m0
		if m0 > moments[largest] ||
			(m0 == moments[largest] && events[i].Time.Before(events[largest].Time)) {
			largest = i
		}
	}

	total := floats.Sum(moments)
	if math.IsInf(total, 0) {
		return nil, fmt.Errorf("%w: total moment exceeds float64 range", ErrNumericOverflow)
	}
	totalMw, err := MomentMagnitude(total)
	if err != nil {
		return nil, err
	}

	byBin := make(map[int]*models.MomentBin)
	for i := range events {
		idx := binIndex(events[i].Magnitude, w)
		mb, ok := byBin[idx]
		if !ok {
			mb = &models.MomentBin{Magnitude: binMagnitude(idx, w), Label: binLabel(idx, w)}
			byBin[idx] = mb
		}
		mb.Count++
		mb.Moment += moments[i]
	}
	keys := make([]int, 0, len(byBin))
	for idx := range byBin {
		keys = append(keys, idx)
	}
	sort.Ints(keys)
	bins := make([]models.MomentBin, 0, len(byBin))
	for _, idx := range keys {
		mb := byBin[idx]
		mb.PercentOfTotal = mb.Moment / total * 100
		bins = append(bins, *mb)
	}

	return &models.MomentResult{
		TotalMoment:          total,
		TotalMomentMagnitude: totalMw,
		LargestEvent: models.LargestEvent{
			EventID:        events[largest].ID,
			Magnitude:      events[largest].Magnitude,
			Moment:         moments[largest],
			PercentOfTotal: moments[largest] / total * 100,
		},
		MomentByMagnitude: bins,
	}, nil
}
