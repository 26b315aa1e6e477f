package synth

import (
	"math"
	"reflect"
	"sort"
	"testing"
	"time"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testSpec() CatalogueSpec {
	return CatalogueSpec{
		Name:            "Test",
		Region:          "Hikurangi Margin",
		Bounds:          Bounds{MinLatitude: -42, MaxLatitude: -38, MinLongitude: 174, MaxLongitude: 179},
		NumEvents:       500,
		Start:           start,
		Regime:          RegimeSubduction,
		Depth:           DepthShallow,
		MinMagnitude:    2.0,
		MaxMagnitude:    7.0,
		ClusterFraction: 0.3,
	}
}

func TestCatalogue_Deterministic(t *testing.T) {
	a := New(99).Catalogue(testSpec())
	b := New(99).Catalogue(testSpec())
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different catalogues")
	}

	c := New(100).Catalogue(testSpec())
	if reflect.DeepEqual(a.Events, c.Events) {
		t.Error("different seeds produced identical catalogues")
	}
}

func TestCatalogue_EventsAreValid(t *testing.T) {
	spec := testSpec()
	cat := New(1).Catalogue(spec)

	if cat.ID != "hikurangi_margin" {
		t.Errorf("ID = %q, want hikurangi_margin", cat.ID)
	}
	if len(cat.Events) != spec.NumEvents {
		t.Fatalf("got %d events, want %d", len(cat.Events), spec.NumEvents)
	}

	ids := make(map[string]bool)
	sorted := sort.SliceIsSorted(cat.Events, func(i, j int) bool {
		return cat.Events[i].Time.Before(cat.Events[j].Time)
	})
	if !sorted {
		t.Error("events are not ordered by time")
	}
	for _, e := range cat.Events {
		if err := e.Validate(); err != nil {
			t.Errorf("event %s invalid: %v", e.ID, err)
		}
		if ids[e.ID] {
			t.Errorf("duplicate ID %s", e.ID)
		}
		ids[e.ID] = true
		if e.Magnitude < spec.MinMagnitude || e.Magnitude > spec.MaxMagnitude {
			t.Errorf("magnitude %v outside [%v, %v]", e.Magnitude, spec.MinMagnitude, spec.MaxMagnitude)
		}
		if e.Magnitude >= 5.0 && len(e.FocalMechanisms) != 1 {
			t.Errorf("event %s M%.1f has no focal mechanism", e.ID, e.Magnitude)
		}
		if e.Magnitude < 5.0 && len(e.FocalMechanisms) != 0 {
			t.Errorf("event %s M%.1f should not carry a focal mechanism", e.ID, e.Magnitude)
		}
	}
}

func TestMagnitude_FollowsGutenbergRichter(t *testing.T) {
	g := New(3)
	n, above := 20000, 0
	for i := 0; i < n; i++ {
		if g.Magnitude(2.0, 8.0, 1.0) >= 2.95 {
			above++
		}
	}
	// P(M >= 2.95) ≈ 10^-0.95 for b = 1
	got := float64(above) / float64(n)
	want := math.Pow(10, -0.95)
	if math.Abs(got-want) > 0.02 {
		t.Errorf("fraction above 2.95 = %.3f, want about %.3f", got, want)
	}
}

func TestFocalMechanism_ByRegime(t *testing.T) {
	tests := []struct {
		regime         Regime
		minDip, maxDip float64
		rakeWithin     func(float64) bool
	}{
		{RegimeSubduction, 20, 50, func(r float64) bool { return r >= 70 && r <= 110 }},
		{RegimeNormal, 40, 70, func(r float64) bool { return r >= -110 && r <= -70 }},
		{RegimeStrikeSlip, 70, 90, func(r float64) bool {
			return (r >= -20 && r <= 20) || (r >= 160 && r <= 200)
		}},
	}
	g := New(8)
	for _, tt := range tests {
		for i := 0; i < 200; i++ {
			fm := g.FocalMechanism(tt.regime)
			np := fm.NodalPlane1
			if np.Dip < tt.minDip || np.Dip > tt.maxDip {
				t.Errorf("%s: dip %v outside [%v, %v]", tt.regime, np.Dip, tt.minDip, tt.maxDip)
			}
			if !tt.rakeWithin(np.Rake) {
				t.Errorf("%s: unexpected rake %v", tt.regime, np.Rake)
			}
			if np.Strike < 0 || np.Strike >= 360 || fm.NodalPlane2.Strike >= 360 {
				t.Errorf("%s: strike out of range", tt.regime)
			}
		}
	}
}

func TestDepth_ByProfile(t *testing.T) {
	g := New(4)
	for i := 0; i < 500; i++ {
		if d := g.Depth(DepthDeep, 5); d < 100 || d > 600 {
			t.Fatalf("deep depth %v out of range", d)
		}
		if d := g.Depth(DepthShallow, 3); d < 5 || d > 25 {
			t.Fatalf("shallow small-event depth %v out of range", d)
		}
	}
}

func TestGutenbergRichterQuantiles(t *testing.T) {
	mags := GutenbergRichterQuantiles(1000, 2.0, 1.0)
	count := 0
	for _, m := range mags {
		if m >= 3.0 {
			count++
		}
	}
	if count != 100 {
		t.Errorf("N(>=3.0) = %d, want 100", count)
	}
	for i := 1; i < len(mags); i++ {
		if mags[i] > mags[i-1] {
			t.Fatal("quantiles not ordered largest first")
		}
	}
}
