package seismo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/quakelens/internal/synth"
)

// thinnedCatalogue is a GR sample above M1.0 whose detection probability
// falls by a factor of 1000 per magnitude unit below 2.5. The incremental
// histogram therefore peaks at the 2.5 bin.
func thinnedCatalogue() []float64 {
	const phi = 0.6180339887498949
	var kept []float64
	for k, m := range synth.GutenbergRichterQuantiles(20000, 1.0, 1.0) {
		edge := float64(binIndex(m, 0.1)) * 0.1
		if edge >= 2.5-binEpsilon {
			kept = append(kept, m)
			continue
		}
		if math.Mod(float64(k)*phi, 1) < math.Pow(10, -3*(2.5-edge)) {
			kept = append(kept, m)
		}
	}
	return kept
}

func TestCompleteness_RecoversInjectedThreshold(t *testing.T) {
	events := synth.Events("mc", thinnedCatalogue(), epoch)
	require.Greater(t, len(events), MinEventsCompleteness)

	for _, w := range []float64{0.1, 0.05} {
		res, err := Completeness(events, McOptions{BinWidth: w, Correction: ptr(0)})
		require.NoError(t, err)
		assert.InDelta(t, 2.5, res.Mc, w+1e-9, "bin width %v", w)
		assert.Equal(t, MethodMaxCurvature, res.Method)
		assert.GreaterOrEqual(t, res.Confidence, 0.0)
		assert.LessOrEqual(t, res.Confidence, 1.0)
		assert.NotEmpty(t, res.MagnitudeDistribution)
	}
}

func TestCompleteness_DefaultCorrection(t *testing.T) {
	events := synth.Events("mc", thinnedCatalogue(), epoch)

	res, err := Completeness(events, McOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 2.7, res.Mc, 1e-9)

	above := 0
	for _, e := range events {
		if e.Magnitude+binEpsilon >= 2.7 {
			above++
		}
	}
	assert.InDelta(t, float64(above)/float64(len(events)), res.Confidence, 1e-12)
}

func TestCompleteness_TiesResolveToLowestBin(t *testing.T) {
	mags := make([]float64, 0, 60)
	for i := 0; i < 30; i++ {
		mags = append(mags, 2.0, 3.0)
	}

	res, err := Completeness(synth.Events("tie", mags, epoch), McOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 2.2, res.Mc, 1e-9)
}

func TestCompleteness_Unavailable(t *testing.T) {
	_, err := Completeness(synth.Events("few", synth.GutenbergRichterQuantiles(49, 2, 1), epoch), McOptions{})
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.True(t, Unavailable(err))

	_, err = Completeness(synth.Events("nan", synth.GutenbergRichterQuantiles(60, 2, 1), epoch),
		McOptions{Correction: ptr(math.NaN())})
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.False(t, Unavailable(err))
}
