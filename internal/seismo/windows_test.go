package seismo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowTables_Monotonic(t *testing.T) {
	for _, table := range []WindowTable{GardnerKnopoff1974{}, Uhrhammer1986{}} {
		t.Run(table.Name(), func(t *testing.T) {
			prev, ok := table.Window(1.0)
			require.True(t, ok)
			for m := 1.1; m <= 8.5; m += 0.1 {
				win, ok := table.Window(m)
				require.True(t, ok, "magnitude %.1f", m)
				assert.GreaterOrEqual(t, win.RadiusKm, prev.RadiusKm)
				assert.GreaterOrEqual(t, win.AfterDays, prev.AfterDays)
				assert.Equal(t, win.ForeDays, win.AfterDays)
				prev = win
			}
		})
	}
}

func TestGardnerKnopoff_InterpolatesAndClamps(t *testing.T) {
	gk := GardnerKnopoff1974{}

	win, ok := gk.Window(6.8)
	require.True(t, ok)
	assert.InDelta(t, 66.4, win.RadiusKm, 1e-9)
	assert.InDelta(t, 865, win.AfterDays, 1e-9)

	low, _ := gk.Window(1.0)
	edge, _ := gk.Window(2.5)
	assert.Equal(t, edge, low)

	high, _ := gk.Window(9.1)
	top, _ := gk.Window(8.0)
	assert.Equal(t, top, high)

	_, ok = gk.Window(math.NaN())
	assert.False(t, ok)
}

func TestUhrhammer_UndefinedForHugeMagnitudes(t *testing.T) {
	_, ok := Uhrhammer1986{}.Window(15)
	assert.False(t, ok)
}

func TestWindowTableByName(t *testing.T) {
	for name, want := range map[string]string{
		"":                    WindowsGardnerKnopoff,
		WindowsGardnerKnopoff: WindowsGardnerKnopoff,
		WindowsUhrhammer:      WindowsUhrhammer,
	} {
		table, err := WindowTableByName(name)
		require.NoError(t, err)
		assert.Equal(t, want, table.Name())
	}

	_, err := WindowTableByName("reasenberg")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestHaversine(t *testing.T) {
	assert.InDelta(t, 0, Haversine(-41, 174, -41, 174), 1e-9)
	// one degree of latitude
	assert.InDelta(t, 111.19, Haversine(-41, 174, -42, 174), 0.01)
	// antipodes
	assert.InDelta(t, math.Pi*EarthRadiusKm, Haversine(0, 0, 0, 180), 1e-6)
}
