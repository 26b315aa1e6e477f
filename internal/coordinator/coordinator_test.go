package coordinator

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/quakelens/internal/models"
	"github.com/rewired-gh/quakelens/internal/seismo"
	"github.com/rewired-gh/quakelens/internal/synth"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestCoordinator(t *testing.T, withCache bool) (*Coordinator, *Metrics) {
	t.Helper()
	m := NewMetrics(prometheus.NewRegistry())
	var cache *Cache
	if withCache {
		cache = NewCache(16, m)
	}
	return New(cache, m, Options{}), m
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSubmit_LastRequestWins(t *testing.T) {
	c, m := newTestCoordinator(t, false)
	ctx := waitCtx(t)

	release := make(chan struct{})
	var staleCalled atomic.Bool
	first := c.Submit(ctx, KindMoment, "", func(context.Context) (any, error) {
		<-release
		return "first", nil
	})
	first.OnComplete(func(Outcome) { staleCalled.Store(true) })

	second := c.Submit(ctx, KindMoment, "", func(context.Context) (any, error) {
		return "second", nil
	})
	var delivered []any
	var mu sync.Mutex
	second.OnComplete(func(o Outcome) {
		mu.Lock()
		delivered = append(delivered, o.Value)
		mu.Unlock()
	})

	v, err := second.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", v)

	close(release)
	_, err = first.Wait(ctx)
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.False(t, staleCalled.Load(), "stale result reached a callback")

	latest, ok := c.Latest(KindMoment)
	require.True(t, ok)
	assert.Equal(t, "second", latest.Value)
	assert.Equal(t, uint64(2), latest.Seq)
	assert.Equal(t, uint64(2), c.Sequence(KindMoment))

	mu.Lock()
	assert.Equal(t, []any{"second"}, delivered)
	mu.Unlock()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(string(KindMoment))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.results.WithLabelValues(string(KindMoment), OutcomeAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.results.WithLabelValues(string(KindMoment), OutcomeStale)))
}

func TestSubmit_StaleEvenWhenNewerStillRunning(t *testing.T) {
	c, _ := newTestCoordinator(t, false)
	ctx := waitCtx(t)

	gate := make(chan struct{})
	first := c.Submit(ctx, KindTemporal, "", func(context.Context) (any, error) { return 1, nil })
	<-first.Done()
	_, err := first.Wait(ctx)
	require.NoError(t, err)

	old := c.Submit(ctx, KindTemporal, "", func(context.Context) (any, error) {
		<-gate
		return 2, nil
	})
	newer := c.Submit(ctx, KindTemporal, "", func(context.Context) (any, error) {
		<-gate
		return 3, nil
	})
	close(gate)

	_, err = old.Wait(ctx)
	assert.ErrorIs(t, err, ErrSuperseded)
	v, err := newer.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestSubmit_KindsAreIndependent(t *testing.T) {
	c, _ := newTestCoordinator(t, false)
	ctx := waitCtx(t)

	a := c.Submit(ctx, KindGutenbergRichter, "", func(context.Context) (any, error) { return "gr", nil })
	b := c.Submit(ctx, KindCompleteness, "", func(context.Context) (any, error) { return "mc", nil })

	va, err := a.Wait(ctx)
	require.NoError(t, err)
	vb, err := b.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gr", va)
	assert.Equal(t, "mc", vb)
}

func TestHandle_Cancel(t *testing.T) {
	c, m := newTestCoordinator(t, false)
	ctx := waitCtx(t)

	started := make(chan struct{})
	h := c.Submit(ctx, KindDecluster, "", func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	var called atomic.Bool
	h.OnComplete(func(Outcome) { called.Store(true) })

	<-started
	h.Cancel()

	_, err := h.Wait(ctx)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.False(t, called.Load())
	_, ok := c.Latest(KindDecluster)
	assert.False(t, ok)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.results.WithLabelValues(string(KindDecluster), OutcomeCancelled)))
}

func TestHandle_OnCompleteAfterDelivery(t *testing.T) {
	c, _ := newTestCoordinator(t, false)
	ctx := waitCtx(t)

	h := c.Submit(ctx, KindMoment, "", func(context.Context) (any, error) { return 42, nil })
	_, err := h.Wait(ctx)
	require.NoError(t, err)

	var got Outcome
	h.OnComplete(func(o Outcome) { got = o })
	assert.Equal(t, 42, got.Value)
	assert.Equal(t, KindMoment, got.Kind)

	out, done := h.Outcome()
	assert.True(t, done)
	assert.Equal(t, 42, out.Value)
}

func TestSubmitGutenbergRichter_Unavailable(t *testing.T) {
	c, m := newTestCoordinator(t, false)
	ctx := waitCtx(t)

	h := c.SubmitGutenbergRichter(ctx, synth.Events("few", []float64{2, 3, 4}, epoch), seismo.GROptions{})
	_, err := Result[*models.GRResult](ctx, h)
	assert.ErrorIs(t, err, seismo.ErrInsufficientData)

	latest, ok := c.Latest(KindGutenbergRichter)
	require.True(t, ok)
	assert.True(t, seismo.Unavailable(latest.Err))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.results.WithLabelValues(string(KindGutenbergRichter), OutcomeUnavailable)))
}

func TestTypedHelpers(t *testing.T) {
	c, _ := newTestCoordinator(t, true)
	ctx := waitCtx(t)
	events := synth.Events("gr", synth.GutenbergRichterQuantiles(2000, 2.0, 1.0), epoch)

	gr, err := Result[*models.GRResult](ctx, c.SubmitGutenbergRichter(ctx, events, seismo.GROptions{}))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, gr.BValue, 0.1)

	mc, err := Result[*models.McResult](ctx, c.SubmitCompleteness(ctx, events, seismo.McOptions{}))
	require.NoError(t, err)
	assert.Equal(t, gr.Completeness, mc.Mc)

	mo, err := Result[*models.MomentResult](ctx, c.SubmitMoment(ctx, events, seismo.MomentOptions{}))
	require.NoError(t, err)
	assert.Positive(t, mo.TotalMoment)

	tr, err := Result[*models.TemporalResult](ctx, c.SubmitTemporal(ctx, events[:300], seismo.TemporalOptions{}))
	require.NoError(t, err)
	assert.Equal(t, 300, tr.ClusteredEvents+tr.BackgroundEvents)

	dc, err := Result[*seismo.DeclusterResult](ctx, c.SubmitDecluster(ctx, events[:300], seismo.DeclusterOptions{}))
	require.NoError(t, err)
	assert.Len(t, dc.Clusters, len(tr.Clusters))

	cmp, err := Result[*models.MFDComparisonResult](ctx, c.SubmitComparison(ctx, []seismo.CatalogueEvents{
		{ID: "a", Name: "A", Events: events[:500]},
		{ID: "b", Name: "B", Events: events[500:]},
	}, seismo.MFDOptions{}))
	require.NoError(t, err)
	require.Len(t, cmp.Catalogues, 2)
	assert.Len(t, cmp.Catalogues[0].Histogram, len(cmp.Catalogues[1].Histogram))

	_, err = Result[*models.McResult](ctx, c.SubmitMoment(ctx, events, seismo.MomentOptions{}))
	assert.ErrorContains(t, err, "unexpected moment result type")
}

func TestCache_HitOnRepeatedSubset(t *testing.T) {
	c, m := newTestCoordinator(t, true)
	ctx := waitCtx(t)
	events := synth.Events("m", synth.GutenbergRichterQuantiles(100, 2.0, 1.0), epoch)

	first := c.SubmitMoment(ctx, events, seismo.MomentOptions{})
	_, err := first.Wait(ctx)
	require.NoError(t, err)

	shuffled := append([]models.CatalogEvent(nil), events...)
	rand.New(rand.NewPCG(3, 4)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	second := c.SubmitMoment(ctx, shuffled, seismo.MomentOptions{})
	_, err = second.Wait(ctx)
	require.NoError(t, err)

	out, _ := second.Outcome()
	assert.True(t, out.Cached)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues(lookupHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues(lookupMiss)))

	third := c.SubmitMoment(ctx, events, seismo.MomentOptions{BinWidth: 0.5})
	_, err = third.Wait(ctx)
	require.NoError(t, err)
	out, _ = third.Outcome()
	assert.False(t, out.Cached)
}

func TestCache_CollapsesConcurrentComputations(t *testing.T) {
	m := NewMetrics(nil)
	cache := NewCache(4, m)
	a := New(cache, m, Options{})
	b := New(cache, m, Options{})
	ctx := waitCtx(t)

	var calls atomic.Int32
	gate := make(chan struct{})
	task := func(context.Context) (any, error) {
		calls.Add(1)
		<-gate
		return "shared", nil
	}

	ha := a.Submit(ctx, KindMoment, "same", task)
	hb := b.Submit(ctx, KindMoment, "same", task)
	time.Sleep(20 * time.Millisecond)
	close(gate)

	va, err := ha.Wait(ctx)
	require.NoError(t, err)
	vb, err := hb.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "shared", va)
	assert.Equal(t, "shared", vb)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_RotatesOldestFirst(t *testing.T) {
	cache := NewCache(2, nil)
	cache.Put(KindMoment, "a", 1)
	cache.Put(KindMoment, "b", 2)
	cache.Put(KindMoment, "c", 3)

	assert.Equal(t, 2, cache.Len())
	_, ok := cache.Get(KindMoment, "a")
	assert.False(t, ok)
	v, ok := cache.Get(KindMoment, "c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = cache.Get(KindTemporal, "c")
	assert.False(t, ok, "keys are scoped by kind")
}

func TestCache_ErrorsNotCached(t *testing.T) {
	cache := NewCache(2, nil)
	ctx := waitCtx(t)

	_, _, err := cache.Do(ctx, KindMoment, "k", func(context.Context) (any, error) {
		return nil, seismo.ErrInsufficientData
	})
	assert.ErrorIs(t, err, seismo.ErrInsufficientData)
	assert.Equal(t, 0, cache.Len())
}
