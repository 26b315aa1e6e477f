package seismo

import (
	"fmt"
	"sort"
	"time"

	"github.com/rewired-gh/quakelens/internal/models"
)

// DefaultDayCap is the number of distinct days above which the series is weekly.
const DefaultDayCap = 365

// daysPerMonth is the mean Gregorian month length.
const daysPerMonth = 30.44

// TemporalOptions configures Temporal.
type TemporalOptions struct {
	DayCap    int
	Decluster DeclusterOptions
}

// Temporal builds the event-rate time series and declusters the catalogue.
// Rates divide by the time span floored at one day so single-day and
// single-event inputs stay finite. An empty catalogue yields a zero result.
func Temporal(events []models.CatalogEvent, opts TemporalOptions) (*models.TemporalResult, error) {
	dayCap := opts.DayCap
	if dayCap == 0 {
		dayCap = DefaultDayCap
	}
	if dayCap < 1 {
		return nil, fmt.Errorf("%w: day cap %d must be positive", ErrInvalidParameter, dayCap)
	}

	dc, err := Decluster(events, opts.Decluster)
	if err != nil {
		return nil, err
	}

	res := &models.TemporalResult{
		Granularity:      models.GranularityDay,
		TimeSeries:       []models.TimeBucket{},
		Clusters:         dc.Clusters,
		BackgroundEvents: len(dc.Background),
		ClusteredEvents:  len(events) - len(dc.Background),
	}
	if res.Clusters == nil {
		res.Clusters = []models.Cluster{}
	}
	if len(events) == 0 {
		return res, nil
	}

	first, last := events[0].Time, events[0].Time
	daily := make(map[time.Time]int)
	for i := range events {
		t := events[i].Time
		if t.Before(first) {
			first = t
		}
		if t.After(last) {
			last = t
		}
		daily[dayStart(t)]++
	}

	res.TimeSpanDays = last.Sub(first).Hours() / 24
	span := res.TimeSpanDays
	if span < 1 {
		span = 1
	}
	res.EventsPerDay = float64(len(events)) / span
	res.EventsPerMonth = res.EventsPerDay * daysPerMonth

	buckets := daily
	if len(daily) > dayCap {
		res.Granularity = models.GranularityWeek
		buckets = make(map[time.Time]int)
		for day, n := range daily {
			buckets[weekStart(day)] += n
		}
	}

	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	running := 0
	res.TimeSeries = make([]models.TimeBucket, len(keys))
	for i, k := range keys {
		running += buckets[k]
		res.TimeSeries[i] = models.TimeBucket{Date: k, Count: buckets[k], Cumulative: running}
	}
	return res, nil
}

func dayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// weekStart returns the Monday starting the ISO week of a UTC day.
func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
