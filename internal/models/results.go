package models

import "time"

// ClusterType classifies a dependent sequence found by declustering.
type ClusterType string

const (
	ClusterMainshockAftershock ClusterType = "mainshock-aftershock"
	ClusterSwarm               ClusterType = "swarm"
	ClusterBurst               ClusterType = "burst"
)

// MagnitudeBin is one half-open bin [Magnitude, Magnitude+width).
// For cumulative series Count is N(>=Magnitude). LogCount is log10(Count),
// or 0 for empty bins.
type MagnitudeBin struct {
	Magnitude float64 `json:"magnitude"`
	Count     int     `json:"count"`
	LogCount  float64 `json:"logCount"`
	Label     string  `json:"label"`
}

// LinePoint is a point on a fitted or plotted curve.
type LinePoint struct {
	Magnitude float64 `json:"magnitude"`
	Value     float64 `json:"value"`
}

// GRResult is a Gutenberg-Richter fit log10 N = a - b*M.
type GRResult struct {
	BValue       float64        `json:"bValue"`
	AValue       float64        `json:"aValue"`
	RSquared     float64        `json:"rSquared"`
	Completeness float64        `json:"completeness"`
	DataPoints   []MagnitudeBin `json:"dataPoints"`
	FittedLine   []LinePoint    `json:"fittedLine"`
}

// McResult is a magnitude of completeness estimate.
type McResult struct {
	Mc                    float64        `json:"mc"`
	Confidence            float64        `json:"confidence"`
	Method                string         `json:"method"`
	MagnitudeDistribution []MagnitudeBin `json:"magnitudeDistribution"`
}

// Cluster is a dependent sequence claimed by one mainshock.
type Cluster struct {
	ID              string      `json:"id"`
	StartDate       time.Time   `json:"startDate"`
	EndDate         time.Time   `json:"endDate"`
	EventCount      int         `json:"eventCount"`
	MaxMagnitude    float64     `json:"maxMagnitude"`
	Mainshock       string      `json:"mainshock"`
	AftershockCount int         `json:"aftershockCount"`
	ForeshockCount  int         `json:"foreshockCount"`
	DurationDays    float64     `json:"durationDays"`
	SpatialExtentKm float64     `json:"spatialExtentKm"`
	ClusterType     ClusterType `json:"clusterType"`
	BValue          *float64    `json:"bValue,omitempty"`
	EventIDs        []string    `json:"eventIds"`
}

// TimeBucket is one entry of an event-rate time series.
type TimeBucket struct {
	Date       time.Time `json:"date"`
	Count      int       `json:"count"`
	Cumulative int       `json:"cumulative"`
}

// Granularity of a time series.
const (
	GranularityDay  = "day"
	GranularityWeek = "week"
)

// TemporalResult summarises event rates and clustering over time.
type TemporalResult struct {
	TimeSpanDays     float64      `json:"timeSpanDays"`
	EventsPerDay     float64      `json:"eventsPerDay"`
	EventsPerMonth   float64      `json:"eventsPerMonth"`
	Granularity      string       `json:"granularity"`
	TimeSeries       []TimeBucket `json:"timeSeries"`
	Clusters         []Cluster    `json:"clusters"`
	ClusteredEvents  int          `json:"clusteredEvents"`
	BackgroundEvents int          `json:"backgroundEvents"`
}

// LargestEvent is the single largest moment contributor.
type LargestEvent struct {
	EventID        string  `json:"eventId"`
	Magnitude      float64 `json:"magnitude"`
	Moment         float64 `json:"moment"`
	PercentOfTotal float64 `json:"percentOfTotal"`
}

// MomentBin is the moment released by events in one magnitude bin.
type MomentBin struct {
	Magnitude      float64 `json:"magnitude"`
	Label          string  `json:"label"`
	Count          int     `json:"count"`
	Moment         float64 `json:"moment"`
	PercentOfTotal float64 `json:"percentOfTotal"`
}

// MomentResult aggregates seismic moment in N·m.
type MomentResult struct {
	TotalMoment          float64      `json:"totalMoment"`
	TotalMomentMagnitude float64      `json:"totalMomentMagnitude"`
	LargestEvent         LargestEvent `json:"largestEvent"`
	MomentByMagnitude    []MomentBin  `json:"momentByMagnitude"`
}

// MagnitudeRange is a closed magnitude interval.
type MagnitudeRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CatalogueMFD is one catalogue's distribution on the shared axis.
type CatalogueMFD struct {
	CatalogueID   string         `json:"catalogueId"`
	CatalogueName string         `json:"catalogueName"`
	Color         string         `json:"color"`
	TotalEvents   int            `json:"totalEvents"`
	Cumulative    []MagnitudeBin `json:"cumulative"`
	Histogram     []MagnitudeBin `json:"histogram"`
}

// MFDComparisonResult holds comparable distributions for several catalogues.
type MFDComparisonResult struct {
	Catalogues     []CatalogueMFD `json:"catalogues"`
	MagnitudeRange MagnitudeRange `json:"magnitudeRange"`
	BinWidth       float64        `json:"binWidth"`
}
