package seismo

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinIndex_HalfOpen(t *testing.T) {
	tests := []struct {
		mag   float64
		width float64
		label string
	}{
		{2.10, 0.1, "2.1-2.2"},
		{2.09, 0.1, "2.0-2.1"},
		{2.3, 0.1, "2.3-2.4"},
		{2.999, 0.1, "2.9-3.0"},
		{3.0, 0.1, "3.0-3.1"},
		{2.10, 0.05, "2.10-2.15"},
		{2.15, 0.05, "2.15-2.20"},
		{4.57, 0.01, "4.57-4.58"},
		{-0.05, 0.1, "-0.1-0.0"},
	}
	for _, tt := range tests {
		got := binLabel(binIndex(tt.mag, tt.width), tt.width)
		assert.Equal(t, tt.label, got, "magnitude %v width %v", tt.mag, tt.width)
	}
}

func TestResolveBinWidth(t *testing.T) {
	w, err := resolveBinWidth(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultBinWidth, w)

	w, err = resolveBinWidth(MinBinWidth)
	require.NoError(t, err)
	assert.Equal(t, MinBinWidth, w)

	for _, bad := range []float64{-0.1, 1.5, 1e-15, 0.0005} {
		_, err := resolveBinWidth(bad)
		assert.ErrorIs(t, err, ErrInvalidParameter, "width %v", bad)
	}
}

func TestCumulative_NonIncreasing(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.IntN(500)
		mags := make([]float64, n)
		for i := range mags {
			mags[i] = -1 + rng.Float64()*9
		}
		for _, w := range []float64{0.01, 0.05, 0.1} {
			h, err := newHistogram(mags, w)
			require.NoError(t, err)
			cum := h.cumulative()
			require.NotEmpty(t, cum)
			assert.Equal(t, n, cum[0].Count, "lowest bin must hold every event")
			for k := 1; k < len(cum); k++ {
				require.LessOrEqual(t, cum[k].Count, cum[k-1].Count,
					"N(>=M) increased at %s (trial %d, width %v)", cum[k].Label, trial, w)
				require.Greater(t, cum[k].Magnitude, cum[k-1].Magnitude)
			}
		}
	}
}

func TestHistogramOver_DropsOutsideDomain(t *testing.T) {
	h := newHistogramOver([]float64{1.0, 2.05, 2.15, 5.0}, 0.1, 20, 21)
	bins := h.incremental()
	require.Len(t, bins, 2)
	assert.Equal(t, 1, bins[0].Count)
	assert.Equal(t, 1, bins[1].Count)
	assert.Equal(t, 0.0, bins[0].LogCount)
}

func TestNewHistogram_RejectsOversizedSpan(t *testing.T) {
	_, err := newHistogram([]float64{-3, 200}, 0.001)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	h, err := newHistogram([]float64{-3, 10}, 0.001)
	require.NoError(t, err)
	assert.Len(t, h.counts, 13001)
}
