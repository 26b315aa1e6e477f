package coordinator

import (
	"fmt"
	"sort"

	"github.com/rewired-gh/quakelens/internal/models"
	"github.com/rewired-gh/quakelens/internal/seismo"
)

// Sampling defaults for visualisation-scale reduction.
const (
	DefaultSampleBudget      = 5000
	DefaultSampleTopFraction = 0.2
)

// StratifiedSample reduces events to at most budget points for display.
// The floor(budget·topFraction) largest events are always kept; the rest of
// the budget is filled by an even stride through the remaining events in
// time order. The sample is ordered by time and depends only on the event
// set. Inputs within budget are returned whole.
func StratifiedSample(events []models.CatalogEvent, budget int, topFraction float64) ([]models.CatalogEvent, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("%w: sample budget %d must be positive", seismo.ErrInvalidParameter, budget)
	}
	if !(topFraction >= 0 && topFraction <= 1) {
		return nil, fmt.Errorf("%w: top fraction %v must be in [0, 1]", seismo.ErrInvalidParameter, topFraction)
	}

	idx := make([]int, len(events))
	for i := range idx {
		idx[i] = i
	}
	if len(events) <= budget {
		sortByTime(events, idx)
		return pick(events, idx), nil
	}

	sort.Slice(idx, func(a, b int) bool {
		ea, eb := &events[idx[a]], &events[idx[b]]
		if ea.Magnitude != eb.Magnitude {
			return ea.Magnitude > eb.Magnitude
		}
		return earlier(ea, eb)
	})

	top := int(float64(budget) * topFraction)
	rest := append([]int(nil), idx[top:]...)
	sortByTime(events, rest)

	remaining := budget - top
	kept := append([]int(nil), idx[:top]...)
	for k := 0; k < remaining; k++ {
		kept = append(kept, rest[k*len(rest)/remaining])
	}
	sortByTime(events, kept)
	return pick(events, kept), nil
}

func earlier(a, b *models.CatalogEvent) bool {
	if !a.Time.Equal(b.Time) {
		return a.Time.Before(b.Time)
	}
	return a.ID < b.ID
}

func sortByTime(events []models.CatalogEvent, idx []int) {
	sort.Slice(idx, func(a, b int) bool {
		return earlier(&events[idx[a]], &events[idx[b]])
	})
}

func pick(events []models.CatalogEvent, idx []int) []models.CatalogEvent {
	out := make([]models.CatalogEvent, len(idx))
	for i, j := range idx {
		out[i] = events[j]
	}
	return out
}
