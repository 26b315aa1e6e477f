// Package synth generates reproducible synthetic earthquake catalogues.
// Magnitudes follow a truncated Gutenberg-Richter law, a share of events is
// grouped into space-time clusters around larger events, depths follow the
// tectonic depth profile and events from M5 carry a focal mechanism typical
// of the regime. The same seed always yields the same catalogue.
package synth

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/rewired-gh/quakelens/internal/models"
)

// Regime is the dominant faulting style of a region.
type Regime string

const (
	RegimeSubduction Regime = "subduction"
	RegimeStrikeSlip Regime = "strike_slip"
	RegimeNormal     Regime = "normal"
)

// DepthProfile selects the hypocentre depth distribution.
type DepthProfile string

const (
	DepthShallow      DepthProfile = "shallow"
	DepthIntermediate DepthProfile = "intermediate"
	DepthDeep         DepthProfile = "deep"
)

// Bounds is the region events are drawn from.
type Bounds = models.Bounds

// CatalogueSpec describes a catalogue to generate.
type CatalogueSpec struct {
	Name            string
	Region          string
	Bounds          Bounds
	NumEvents       int
	Start, End      time.Time
	Regime          Regime
	Depth           DepthProfile
	MinMagnitude    float64
	MaxMagnitude    float64
	BValue          float64
	ClusterFraction float64 // share of events placed in clusters
	Clusters        int     // number of cluster centres
}

// withDefaults fills unset fields.
func (s CatalogueSpec) withDefaults() CatalogueSpec {
	if s.MaxMagnitude == 0 {
		s.MaxMagnitude = 7.5
	}
	if s.MinMagnitude == 0 {
		s.MinMagnitude = 1.0
	}
	if s.BValue == 0 {
		s.BValue = 1.0
	}
	if s.Clusters == 0 {
		s.Clusters = 5
	}
	if s.End.IsZero() {
		s.End = s.Start.Add(300 * 24 * time.Hour)
	}
	return s
}

// Generator draws catalogues from a seeded source.
type Generator struct {
	rng *rand.Rand
}

// New creates a generator for the given seed.
func New(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Magnitude draws from a Gutenberg-Richter law with slope b truncated to
// [min, max] and rounds to 0.1.
func (g *Generator) Magnitude(lo, hi, b float64) float64 {
	u := g.rng.Float64()
	span := 1 - math.Pow(10, -b*(hi-lo))
	m := lo - math.Log10(1-u*span)/b
	return math.Round(m*10) / 10
}

// Depth draws a hypocentre depth in km for the profile.
func (g *Generator) Depth(profile DepthProfile, magnitude float64) float64 {
	var d float64
	switch profile {
	case DepthIntermediate:
		d = g.uniform(20, 150)
	case DepthDeep:
		d = g.uniform(100, 600)
	default:
		if magnitude < 4.0 {
			d = g.uniform(5, 25)
		} else {
			d = g.uniform(10, 40)
		}
	}
	return math.Round(d*10) / 10
}

// FocalMechanism draws a double-couple solution typical of the regime.
func (g *Generator) FocalMechanism(regime Regime) models.FocalMechanism {
	strike := float64(g.rng.IntN(360))
	var dip, rake float64
	switch regime {
	case RegimeStrikeSlip:
		dip = float64(70 + g.rng.IntN(21))
		if g.rng.IntN(2) == 0 {
			rake = float64(-20 + g.rng.IntN(41))
		} else {
			rake = float64(160 + g.rng.IntN(41))
		}
	case RegimeNormal:
		dip = float64(40 + g.rng.IntN(31))
		rake = float64(-110 + g.rng.IntN(41))
	default:
		dip = float64(20 + g.rng.IntN(31))
		rake = float64(70 + g.rng.IntN(41))
	}
	return models.FocalMechanism{
		NodalPlane1: models.NodalPlane{Strike: strike, Dip: dip, Rake: rake},
		// auxiliary plane approximation
		NodalPlane2: models.NodalPlane{Strike: math.Mod(strike+180, 360), Dip: dip, Rake: -rake},
	}
}

type centre struct {
	t        time.Time
	lat, lon float64
}

// Catalogue generates a full catalogue ordered by time.
func (g *Generator) Catalogue(spec CatalogueSpec) models.Catalogue {
	spec = spec.withDefaults()
	span := spec.End.Sub(spec.Start)

	centres := make([]centre, spec.Clusters)
	for i := range centres {
		centres[i] = centre{
			t:   spec.Start.Add(time.Duration(g.rng.Float64() * float64(span))),
			lat: g.uniform(spec.Bounds.MinLatitude, spec.Bounds.MaxLatitude),
			lon: g.uniform(spec.Bounds.MinLongitude, spec.Bounds.MaxLongitude),
		}
	}

	slug := strings.ReplaceAll(strings.ToLower(spec.Region), " ", "_")
	events := make([]models.CatalogEvent, spec.NumEvents)
	for i := range events {
		mag := g.Magnitude(spec.MinMagnitude, spec.MaxMagnitude, spec.BValue)

		var t time.Time
		var lat, lon float64
		if len(centres) > 0 && g.rng.Float64() < spec.ClusterFraction {
			c := centres[g.rng.IntN(len(centres))]
			t = c.t.Add(time.Duration(g.uniform(-1, 1) * float64(24*time.Hour)))
			// roughly ±10 km around the centre
			lat = clamp(c.lat+g.uniform(-0.09, 0.09), -90, 90)
			lon = clamp(c.lon+g.uniform(-0.09, 0.09), -180, 180)
		} else {
			t = spec.Start.Add(time.Duration(g.rng.Float64() * float64(span)))
			lat = g.uniform(spec.Bounds.MinLatitude, spec.Bounds.MaxLatitude)
			lon = g.uniform(spec.Bounds.MinLongitude, spec.Bounds.MaxLongitude)
		}
		lat = math.Round(lat*1e4) / 1e4
		lon = math.Round(lon*1e4) / 1e4
		depth := g.Depth(spec.Depth, mag)

		ev := models.CatalogEvent{
			ID:        fmt.Sprintf("%s_%dp%06d", slug, spec.Start.Year(), i+1),
			Time:      t.UTC().Truncate(time.Millisecond),
			Magnitude: mag,
			Depth:     &depth,
			Latitude:  &lat,
			Longitude: &lon,
			Region:    spec.Region,
		}
		if mag >= 5.0 {
			ev.FocalMechanisms = []models.FocalMechanism{g.FocalMechanism(spec.Regime)}
		}
		events[i] = ev
	}

	sort.Slice(events, func(a, b int) bool {
		if !events[a].Time.Equal(events[b].Time) {
			return events[a].Time.Before(events[b].Time)
		}
		return events[a].ID < events[b].ID
	})

	return models.Catalogue{
		ID:     slug,
		Name:   spec.Name,
		Region: spec.Region,
		Events: events,
	}
}

// GutenbergRichterQuantiles returns n magnitudes at the midpoint quantiles of
// an untruncated Gutenberg-Richter law above mMin, largest first:
// M_k = mMin - log10((k+0.5)/n)/b. The sample has no sampling noise, so
// N(>=M) equals round(n·10^(-b(M-mMin))).
func GutenbergRichterQuantiles(n int, mMin, b float64) []float64 {
	mags := make([]float64, n)
	for k := range mags {
		mags[k] = mMin - math.Log10((float64(k)+0.5)/float64(n))/b
	}
	return mags
}

// Events wraps magnitudes into located events spaced one hour apart from
// start, all at the same point. Useful for magnitude-only estimators.
func Events(prefix string, mags []float64, start time.Time) []models.CatalogEvent {
	events := make([]models.CatalogEvent, len(mags))
	for i, m := range mags {
		lat, lon := -41.0, 174.0
		events[i] = models.CatalogEvent{
			ID:        fmt.Sprintf("%s-%06d", prefix, i),
			Time:      start.Add(time.Duration(i) * time.Hour),
			Magnitude: m,
			Latitude:  &lat,
			Longitude: &lon,
		}
	}
	return events
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
