package seismo

import (
	"fmt"
	"math"

	"github.com/rewired-gh/quakelens/internal/models"
)

// DefaultBinWidth is the magnitude bin width used when options leave it zero.
const DefaultBinWidth = 0.1

// MinBinWidth is the narrowest accepted magnitude bin width.
const MinBinWidth = 0.001

// maxBins bounds the number of bins a histogram may span.
const maxBins = 100_000

// binEpsilon absorbs representation error so 2.3/0.1 lands in bin 23, not 22.
const binEpsilon = 1e-9

// resolveBinWidth applies the default and rejects unusable widths.
func resolveBinWidth(w float64) (float64, error) {
	if w == 0 {
		return DefaultBinWidth, nil
	}
	if !isFinite(w) || w < MinBinWidth || w > 1 {
		return 0, fmt.Errorf("%w: bin width %v must be in [%v, 1]", ErrInvalidParameter, w, MinBinWidth)
	}
	return w, nil
}

// binIndex maps a magnitude to its half-open bin [i·w, (i+1)·w).
func binIndex(m, w float64) int {
	return int(math.Floor(m/w + binEpsilon))
}

// binDecimals is the number of decimals needed to print bin edges of width w.
func binDecimals(w float64) int {
	d := 0
	scaled := w
	for d < 6 && math.Abs(scaled-math.Round(scaled)) > binEpsilon {
		d++
		scaled *= 10
	}
	return d
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// binMagnitude is the lower edge of bin i.
func binMagnitude(i int, w float64) float64 {
	return roundTo(float64(i)*w, binDecimals(w))
}

// binLabel formats bin i as "lo-hi", e.g. "2.1-2.2".
func binLabel(i int, w float64) string {
	d := binDecimals(w)
	return fmt.Sprintf("%.*f-%.*f", d, binMagnitude(i, w), d, binMagnitude(i+1, w))
}

func log10Count(c int) float64 {
	if c <= 0 {
		return 0
	}
	return math.Log10(float64(c))
}

// histogram holds incremental counts for bins lo..hi inclusive.
type histogram struct {
	width  float64
	lo, hi int
	counts []int
}

// binSpan returns the bin indices covering [lo, hi], or ErrInvalidParameter
// when the range needs more than maxBins bins.
func binSpan(lo, hi, w float64) (int, int, error) {
	if (hi-lo)/w >= maxBins {
		return 0, 0, fmt.Errorf("%w: magnitude range %v to %v needs more than %d bins of width %v",
			ErrInvalidParameter, lo, hi, maxBins, w)
	}
	return binIndex(lo, w), binIndex(hi, w), nil
}

// newHistogram bins mags over the span of their own bins.
func newHistogram(mags []float64, w float64) (histogram, error) {
	if len(mags) == 0 {
		return histogram{width: w, lo: 0, hi: -1}, nil
	}
	lo, hi := mags[0], mags[0]
	for _, m := range mags[1:] {
		lo = math.Min(lo, m)
		hi = math.Max(hi, m)
	}
	loIdx, hiIdx, err := binSpan(lo, hi, w)
	if err != nil {
		return histogram{}, err
	}
	return newHistogramOver(mags, w, loIdx, hiIdx), nil
}

// newHistogramOver bins mags into the fixed domain lo..hi; values outside are dropped.
func newHistogramOver(mags []float64, w float64, lo, hi int) histogram {
	h := histogram{width: w, lo: lo, hi: hi}
	if hi < lo {
		return h
	}
	h.counts = make([]int, hi-lo+1)
	for _, m := range mags {
		i := binIndex(m, w)
		if i < lo || i > hi {
			continue
		}
		h.counts[i-lo]++
	}
	return h
}

func (h histogram) bin(i, count int) models.MagnitudeBin {
	return models.MagnitudeBin{
		Magnitude: binMagnitude(i, h.width),
		Count:     count,
		LogCount:  log10Count(count),
		Label:     binLabel(i, h.width),
	}
}

// incremental returns per-bin counts in ascending magnitude.
func (h histogram) incremental() []models.MagnitudeBin {
	bins := make([]models.MagnitudeBin, 0, len(h.counts))
	for k, c := range h.counts {
		bins = append(bins, h.bin(h.lo+k, c))
	}
	return bins
}

// cumulative returns N(>=M) at each bin's lower edge in ascending magnitude.
// Counts are non-increasing by construction.
func (h histogram) cumulative() []models.MagnitudeBin {
	bins := make([]models.MagnitudeBin, len(h.counts))
	running := 0
	for k := len(h.counts) - 1; k >= 0; k-- {
		running += h.counts[k]
		bins[k] = h.bin(h.lo+k, running)
	}
	return bins
}
