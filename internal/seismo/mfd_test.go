package seismo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/quakelens/internal/synth"
)

func TestCompareMFD_IdenticalCatalogues(t *testing.T) {
	events := synth.Events("x", synth.GutenbergRichterQuantiles(500, 2.0, 1.0), epoch)
	cats := []CatalogueEvents{
		{ID: "a", Name: "A", Events: events},
		{ID: "b", Name: "B", Events: events},
	}

	res, err := CompareMFD(context.Background(), cats, MFDOptions{})
	require.NoError(t, err)
	require.Len(t, res.Catalogues, 2)

	a, b := res.Catalogues[0], res.Catalogues[1]
	assert.Equal(t, "a", a.CatalogueID)
	assert.Equal(t, "B", b.CatalogueName)
	assert.Equal(t, a.Cumulative, b.Cumulative)
	assert.Equal(t, a.Histogram, b.Histogram)
	assert.NotEqual(t, a.Color, b.Color)
	assert.Equal(t, 500, a.Cumulative[0].Count)
	assert.Equal(t, DefaultBinWidth, res.BinWidth)
}

func TestCompareMFD_SharedAxisSpansUnion(t *testing.T) {
	cats := []CatalogueEvents{
		{ID: "low", Events: fixedMagnitudes(2.0, 2.4, 3.1, 4.0)},
		{ID: "high", Events: fixedMagnitudes(3.0, 4.5, 6.1)},
	}

	res, err := CompareMFD(context.Background(), cats, MFDOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2.0, res.MagnitudeRange.Min)
	assert.Equal(t, 6.1, res.MagnitudeRange.Max)

	low, high := res.Catalogues[0], res.Catalogues[1]
	require.Len(t, low.Histogram, 42)
	require.Len(t, high.Histogram, 42)
	for i := range low.Histogram {
		assert.Equal(t, low.Histogram[i].Label, high.Histogram[i].Label)
		assert.Equal(t, low.Cumulative[i].Magnitude, high.Cumulative[i].Magnitude)
	}
	assert.Equal(t, "2.0-2.1", low.Histogram[0].Label)
	assert.Equal(t, "6.1-6.2", low.Histogram[41].Label)
	assert.Equal(t, 0, low.Cumulative[41].Count)
	assert.Equal(t, 1, high.Cumulative[41].Count)
	assert.Equal(t, 3, high.Cumulative[0].Count)
}

func TestCompareMFD_MagnitudeFloor(t *testing.T) {
	cats := []CatalogueEvents{
		{ID: "a", Events: fixedMagnitudes(2.0, 2.9, 3.0, 3.5)},
		{ID: "b", Events: fixedMagnitudes(1.0, 4.0)},
	}

	res, err := CompareMFD(context.Background(), cats, MFDOptions{MinMagnitude: ptr(3.0)})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Catalogues[0].TotalEvents)
	assert.Equal(t, 1, res.Catalogues[1].TotalEvents)
	assert.Equal(t, 3.0, res.MagnitudeRange.Min)
	assert.Equal(t, "3.0-3.1", res.Catalogues[0].Histogram[0].Label)

	_, err = CompareMFD(context.Background(), cats, MFDOptions{MinMagnitude: ptr(9.0)})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestCompareMFD_Errors(t *testing.T) {
	_, err := CompareMFD(context.Background(), nil, MFDOptions{})
	assert.ErrorIs(t, err, ErrInsufficientData)

	cats := []CatalogueEvents{{ID: "a", Events: fixedMagnitudes(3.0)}}
	_, err = CompareMFD(context.Background(), cats, MFDOptions{BinWidth: 2})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = CompareMFD(ctx, cats, MFDOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestColorFor_Cycles(t *testing.T) {
	assert.Equal(t, Palette[0], ColorFor(0))
	assert.Equal(t, Palette[0], ColorFor(len(Palette)))
	assert.Equal(t, Palette[3], ColorFor(3))
}
