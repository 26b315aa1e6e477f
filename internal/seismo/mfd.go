package seismo

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/quakelens/internal/models"
)

// Palette assigns display colours to compared catalogues by position.
var Palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// ColorFor returns the palette colour for the catalogue at index i, cycling.
func ColorFor(i int) string {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

// CatalogueEvents is one catalogue's filtered event subset.
type CatalogueEvents struct {
	ID     string
	Name   string
	Events []models.CatalogEvent
}

// MFDOptions holds parameters shared by every compared catalogue.
type MFDOptions struct {
	BinWidth     float64
	MinMagnitude *float64
}

// CompareMFD bins every catalogue on the common magnitude axis spanning the
// union of their observed ranges, after the optional magnitude floor.
// Catalogues are binned concurrently; output order follows input order.
func CompareMFD(ctx context.Context, catalogues []CatalogueEvents, opts MFDOptions) (*models.MFDComparisonResult, error) {
	w, err := resolveBinWidth(opts.BinWidth)
	if err != nil {
		return nil, err
	}
	if opts.MinMagnitude != nil && !isFinite(*opts.MinMagnitude) {
		return nil, fmt.Errorf("%w: minimum magnitude must be finite", ErrInvalidParameter)
	}
	if len(catalogues) == 0 {
		return nil, fmt.Errorf("%w: no catalogues selected", ErrInsufficientData)
	}

	kept := make([][]float64, len(catalogues))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, cat := range catalogues {
		mags, err := magnitudes(cat.Events)
		if err != nil {
			return nil, fmt.Errorf("catalogue %s: %w", cat.ID, err)
		}
		for _, m := range mags {
			if opts.MinMagnitude != nil && m+binEpsilon < *opts.MinMagnitude {
				continue
			}
			kept[i] = append(kept[i], m)
			lo = math.Min(lo, m)
			hi = math.Max(hi, m)
		}
	}
	if math.IsInf(lo, 1) {
		return nil, fmt.Errorf("%w: no events above the magnitude floor", ErrInsufficientData)
	}

	loIdx, hiIdx, err := binSpan(lo, hi, w)
	if err != nil {
		return nil, err
	}
	out := make([]models.CatalogueMFD, len(catalogues))

	g, ctx := errgroup.WithContext(ctx)
	for i := range catalogues {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			h := newHistogramOver(kept[i], w, loIdx, hiIdx)
			out[i] = models.CatalogueMFD{
				CatalogueID:   catalogues[i].ID,
				CatalogueName: catalogues[i].Name,
				Color:         ColorFor(i),
				TotalEvents:   len(kept[i]),
				Cumulative:    h.cumulative(),
				Histogram:     h.incremental(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.MFDComparisonResult{
		Catalogues:     out,
		MagnitudeRange: models.MagnitudeRange{Min: lo, Max: hi},
		BinWidth:       w,
	}, nil
}
