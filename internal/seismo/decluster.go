package seismo

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/quakelens/internal/models"
)

// DefaultMinClusterSize is the smallest retained sequence, mainshock included.
const DefaultMinClusterSize = 3

// MinEventsClusterBValue is the cluster size from which a per-cluster b-value is fitted.
const MinEventsClusterBValue = 10

// Classification thresholds.
const (
	dominantMagnitudeGap = 0.5 // largest minus second largest
	burstMaxDays         = 2.0
	swarmMaxSpread       = 1.0 // largest minus smallest
	pairwiseExtentLimit  = 2000
)

var clusterNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/rewired-gh/quakelens/cluster"))

// DeclusterOptions configures Decluster. Zero values select the
// Gardner-Knopoff table, DefaultMinClusterSize and DefaultBinWidth.
type DeclusterOptions struct {
	Windows        WindowTable
	MinClusterSize int
	BinWidth       float64
}

// DeclusterResult splits a catalogue into retained clusters and background.
type DeclusterResult struct {
	Clusters []models.Cluster
	// Background holds every event outside a retained cluster, ordered by time.
	Background []models.CatalogEvent
	// ClusterOf maps a clustered event ID to its cluster ID.
	ClusterOf map[string]string
}

// Decluster applies window declustering. Candidate mainshocks are visited in
// descending magnitude (ties: earlier time, then smaller ID); each claims every
// unclaimed located event inside its radius and [-fore, +after] time window.
// Claimed events are never candidates again. Sequences smaller than
// MinClusterSize are discarded and their members other than the candidate
// are released for later candidates. Event IDs must be unique.
//
// The visiting order is a total order on the event set, so the clusters do not
// depend on input ordering. Events without coordinates or with an undefined
// window are left unclustered.
func Decluster(events []models.CatalogEvent, opts DeclusterOptions) (*DeclusterResult, error) {
	w, err := resolveBinWidth(opts.BinWidth)
	if err != nil {
		return nil, err
	}
	table := opts.Windows
	if table == nil {
		table = GardnerKnopoff1974{}
	}
	minSize := opts.MinClusterSize
	if minSize == 0 {
		minSize = DefaultMinClusterSize
	}
	if minSize < 2 {
		return nil, fmt.Errorf("%w: minimum cluster size %d must be at least 2", ErrInvalidParameter, minSize)
	}
	if _, err := magnitudes(events); err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(events))
	for i := range events {
		if _, dup := ids[events[i].ID]; dup {
			return nil, fmt.Errorf("%w: duplicate event ID %q", ErrInvalidParameter, events[i].ID)
		}
		ids[events[i].ID] = struct{}{}
	}

	n := len(events)
	byMagnitude := make([]int, n)
	byTime := make([]int, n)
	for i := range events {
		byMagnitude[i] = i
		byTime[i] = i
	}
	sort.Slice(byMagnitude, func(a, b int) bool {
		ea, eb := &events[byMagnitude[a]], &events[byMagnitude[b]]
		if ea.Magnitude != eb.Magnitude {
			return ea.Magnitude > eb.Magnitude
		}
		if !ea.Time.Equal(eb.Time) {
			return ea.Time.Before(eb.Time)
		}
		return ea.ID < eb.ID
	})
	sort.Slice(byTime, func(a, b int) bool {
		return earlier(&events[byTime[a]], &events[byTime[b]])
	})

	claimed := make([]bool, n)
	result := &DeclusterResult{ClusterOf: make(map[string]string)}
	inCluster := make([]bool, n)

	for _, ci := range byMagnitude {
		if claimed[ci] {
			continue
		}
		claimed[ci] = true
		main := &events[ci]
		if !main.HasLocation() {
			continue
		}
		win, ok := table.Window(main.Magnitude)
		if !ok || !allFinite(win.RadiusKm, win.ForeDays, win.AfterDays) ||
			win.ForeDays > maxWindowDays || win.AfterDays > maxWindowDays {
			continue
		}

		from := main.Time.Add(-days(win.ForeDays))
		to := main.Time.Add(days(win.AfterDays))
		start := sort.Search(n, func(k int) bool {
			return !events[byTime[k]].Time.Before(from)
		})

		members := []int{ci}
		for k := start; k < n; k++ {
			j := byTime[k]
			if events[j].Time.After(to) {
				break
			}
			if claimed[j] || !events[j].HasLocation() {
				continue
			}
			if eventDistanceKm(main, &events[j]) <= win.RadiusKm {
				claimed[j] = true
				members = append(members, j)
			}
		}
		if len(members) < minSize {
			// release the members so a later candidate can still claim them
			for _, j := range members[1:] {
				claimed[j] = false
			}
			continue
		}

		c := buildCluster(events, members, w)
		for _, j := range members {
			inCluster[j] = true
			result.ClusterOf[events[j].ID] = c.ID
		}
		result.Clusters = append(result.Clusters, c)
	}

	for _, k := range byTime {
		if !inCluster[k] {
			result.Background = append(result.Background, events[k])
		}
	}
	return result, nil
}

func earlier(a, b *models.CatalogEvent) bool {
	if !a.Time.Equal(b.Time) {
		return a.Time.Before(b.Time)
	}
	return a.ID < b.ID
}

func days(d float64) time.Duration {
	return time.Duration(d * float64(24*time.Hour))
}

// buildCluster summarises members; members[0] is the mainshock.
func buildCluster(events []models.CatalogEvent, members []int, w float64) models.Cluster {
	main := &events[members[0]]
	sorted := append([]int(nil), members...)
	sort.Slice(sorted, func(a, b int) bool {
		return earlier(&events[sorted[a]], &events[sorted[b]])
	})

	c := models.Cluster{
		ID:           uuid.NewSHA1(clusterNamespace, []byte(main.ID)).String(),
		StartDate:    events[sorted[0]].Time,
		EndDate:      events[sorted[len(sorted)-1]].Time,
		EventCount:   len(members),
		MaxMagnitude: main.Magnitude,
		Mainshock:    main.ID,
		EventIDs:     make([]string, len(sorted)),
	}
	c.DurationDays = c.EndDate.Sub(c.StartDate).Hours() / 24

	second, smallest := math.Inf(-1), main.Magnitude
	for _, j := range members[1:] {
		e := &events[j]
		switch {
		case e.Time.Before(main.Time):
			c.ForeshockCount++
		default:
			c.AftershockCount++
		}
		second = math.Max(second, e.Magnitude)
		smallest = math.Min(smallest, e.Magnitude)
	}

	cluster := make([]models.CatalogEvent, len(sorted))
	for k, j := range sorted {
		c.EventIDs[k] = events[j].ID
		cluster[k] = events[j]
	}

	c.SpatialExtentKm = spatialExtent(cluster)
	c.ClusterType = classify(main.Magnitude, second, smallest, c.DurationDays)

	if len(cluster) >= MinEventsClusterBValue {
		if gr, err := GutenbergRichter(cluster, GROptions{BinWidth: w}); err == nil {
			b := gr.BValue
			c.BValue = &b
		}
	}
	return c
}

func classify(largest, second, smallest, durationDays float64) models.ClusterType {
	switch {
	case largest-second >= dominantMagnitudeGap:
		return models.ClusterMainshockAftershock
	case durationDays < burstMaxDays:
		return models.ClusterBurst
	case largest-smallest <= swarmMaxSpread:
		return models.ClusterSwarm
	default:
		return models.ClusterBurst
	}
}

// spatialExtent is the largest pairwise great-circle distance between members,
// or the bounding-box diagonal for very large clusters.
func spatialExtent(cluster []models.CatalogEvent) float64 {
	if len(cluster) > pairwiseExtentLimit {
		minLat, maxLat := math.Inf(1), math.Inf(-1)
		minLon, maxLon := math.Inf(1), math.Inf(-1)
		for i := range cluster {
			minLat = math.Min(minLat, *cluster[i].Latitude)
			maxLat = math.Max(maxLat, *cluster[i].Latitude)
			minLon = math.Min(minLon, *cluster[i].Longitude)
			maxLon = math.Max(maxLon, *cluster[i].Longitude)
		}
		return Haversine(minLat, minLon, maxLat, maxLon)
	}
	extent := 0.0
	for i := range cluster {
		for j := i + 1; j < len(cluster); j++ {
			extent = math.Max(extent, eventDistanceKm(&cluster[i], &cluster[j]))
		}
	}
	return extent
}
