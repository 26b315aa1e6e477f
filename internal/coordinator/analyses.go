package coordinator

import (
	"context"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/rewired-gh/quakelens/internal/logger"
	"github.com/rewired-gh/quakelens/internal/models"
	"github.com/rewired-gh/quakelens/internal/seismo"
)

// Normalised parameter records. Optional values are split into a flag and a
// value so an absent option and an explicit zero hash differently.

type binParams struct {
	BinWidth float64
}

type mcParams struct {
	BinWidth      float64
	HasCorrection bool
	Correction    float64
}

type grParams struct {
	BinWidth        float64
	HasCompleteness bool
	Completeness    float64
	HasCorrection   bool
	Correction      float64
}

type declusterParams struct {
	BinWidth       float64
	Windows        string
	MinClusterSize int
}

type temporalParams struct {
	DayCap    int
	Decluster declusterParams
}

type comparisonParams struct {
	BinWidth     float64
	HasFloor     bool
	MinMagnitude float64
	Catalogues   []string
}

func optional(v *float64) (bool, float64) {
	if v == nil {
		return false, 0
	}
	return true, *v
}

func normaliseDecluster(o seismo.DeclusterOptions) declusterParams {
	p := declusterParams{BinWidth: o.BinWidth, MinClusterSize: o.MinClusterSize}
	if o.Windows != nil {
		p.Windows = o.Windows.Name()
	}
	return p
}

// cacheKeyFor builds the cache key for a fingerprint and parameter record.
// An unhashable record disables caching for the request.
func cacheKeyFor(fingerprint uint64, params any) string {
	h, err := ParamHash(params)
	if err != nil {
		logger.Warn("Caching disabled for request: %v", err)
		return ""
	}
	return CacheKey(fingerprint, h)
}

// SubmitGutenbergRichter schedules a b-value fit.
func (c *Coordinator) SubmitGutenbergRichter(ctx context.Context, events []models.CatalogEvent, opts seismo.GROptions) *Handle {
	p := grParams{BinWidth: opts.BinWidth}
	p.HasCompleteness, p.Completeness = optional(opts.Completeness)
	p.HasCorrection, p.Correction = optional(opts.McCorrection)

	return c.Submit(ctx, KindGutenbergRichter, cacheKeyFor(Fingerprint(events), p), func(context.Context) (any, error) {
		return seismo.GutenbergRichter(events, opts)
	})
}

// SubmitCompleteness schedules a completeness estimate.
func (c *Coordinator) SubmitCompleteness(ctx context.Context, events []models.CatalogEvent, opts seismo.McOptions) *Handle {
	p := mcParams{BinWidth: opts.BinWidth}
	p.HasCorrection, p.Correction = optional(opts.Correction)

	return c.Submit(ctx, KindCompleteness, cacheKeyFor(Fingerprint(events), p), func(context.Context) (any, error) {
		return seismo.Completeness(events, opts)
	})
}

// SubmitTemporal schedules the temporal analysis.
func (c *Coordinator) SubmitTemporal(ctx context.Context, events []models.CatalogEvent, opts seismo.TemporalOptions) *Handle {
	p := temporalParams{DayCap: opts.DayCap, Decluster: normaliseDecluster(opts.Decluster)}

	return c.Submit(ctx, KindTemporal, cacheKeyFor(Fingerprint(events), p), func(context.Context) (any, error) {
		return seismo.Temporal(events, opts)
	})
}

// SubmitDecluster schedules declustering on its own.
func (c *Coordinator) SubmitDecluster(ctx context.Context, events []models.CatalogEvent, opts seismo.DeclusterOptions) *Handle {
	p := normaliseDecluster(opts)

	return c.Submit(ctx, KindDecluster, cacheKeyFor(Fingerprint(events), p), func(context.Context) (any, error) {
		return seismo.Decluster(events, opts)
	})
}

// SubmitMoment schedules the moment release summary.
func (c *Coordinator) SubmitMoment(ctx context.Context, events []models.CatalogEvent, opts seismo.MomentOptions) *Handle {
	p := binParams{BinWidth: opts.BinWidth}

	return c.Submit(ctx, KindMoment, cacheKeyFor(Fingerprint(events), p), func(context.Context) (any, error) {
		return seismo.Moment(events, opts)
	})
}

// SubmitComparison schedules a multi-catalogue MFD comparison. Catalogue
// order is part of the key since it decides colours.
func (c *Coordinator) SubmitComparison(ctx context.Context, catalogues []seismo.CatalogueEvents, opts seismo.MFDOptions) *Handle {
	p := comparisonParams{BinWidth: opts.BinWidth}
	p.HasFloor, p.MinMagnitude = optional(opts.MinMagnitude)

	var d xxhash.Digest
	d.Reset()
	var buf [8]byte
	for _, cat := range catalogues {
		p.Catalogues = append(p.Catalogues, cat.ID+"\x00"+cat.Name)
		binary.LittleEndian.PutUint64(buf[:], Fingerprint(cat.Events))
		_, _ = d.Write(buf[:])
	}

	return c.Submit(ctx, KindComparison, cacheKeyFor(d.Sum64(), p), func(ctx context.Context) (any, error) {
		return seismo.CompareMFD(ctx, catalogues, opts)
	})
}

// Sample applies StratifiedSample with the coordinator's budget.
func (c *Coordinator) Sample(events []models.CatalogEvent) ([]models.CatalogEvent, error) {
	budget, top := c.opts.SampleBudget, c.opts.SampleTopFraction
	if budget == 0 {
		budget = DefaultSampleBudget
	}
	if top == 0 {
		top = DefaultSampleTopFraction
	}
	return StratifiedSample(events, budget, top)
}
