// Package models defines the core domain entities for quakelens.
// These models represent catalogue events as delivered by the ingestion layer
// and the derived records produced by the seismology estimators.
// Events carry built-in validation so invalid rows never reach an estimator.
//
// Terminology:
//   - Event: a single located earthquake with a pre-computed magnitude.
//   - Catalogue: a named collection of events from one source or region.
package models

import (
	"errors"
	"math"
	"time"
)

// Validation limits for catalogue events.
const (
	MinMagnitude = -3.0
	MaxMagnitude = 10.0
	MinDepthKm   = -5.0
	MaxDepthKm   = 800.0
)

// AnomalyShallowLargeMagnitude flags a great earthquake reported at crustal-surface depth.
const AnomalyShallowLargeMagnitude = "shallow_large_magnitude"

// CatalogEvent is a single earthquake record from a catalogue. IDs are
// unique within a catalogue.
// Depth and coordinates are optional; estimators that need them skip
// events where they are missing.
type CatalogEvent struct {
	ID              string           `json:"id"`
	Time            time.Time        `json:"time"`
	Magnitude       float64          `json:"magnitude"`
	MagnitudeType   string           `json:"magnitude_type,omitempty"`
	Depth           *float64         `json:"depth,omitempty"` // km, positive down
	Latitude        *float64         `json:"latitude,omitempty"`
	Longitude       *float64         `json:"longitude,omitempty"`
	Region          string           `json:"region,omitempty"`
	Uncertainty     *Uncertainty     `json:"uncertainty,omitempty"`
	StationCount    *int             `json:"station_count,omitempty"`
	FocalMechanisms []FocalMechanism `json:"focal_mechanisms,omitempty"`
}

// Uncertainty holds optional location and magnitude errors.
type Uncertainty struct {
	HorizontalKm *float64 `json:"horizontal_km,omitempty"`
	DepthKm      *float64 `json:"depth_km,omitempty"`
	Magnitude    *float64 `json:"magnitude,omitempty"`
}

// NodalPlane is one fault-plane solution in degrees.
type NodalPlane struct {
	Strike float64 `json:"strike"`
	Dip    float64 `json:"dip"`
	Rake   float64 `json:"rake"`
}

// FocalMechanism is a double-couple solution with its auxiliary plane.
type FocalMechanism struct {
	NodalPlane1 NodalPlane `json:"nodalPlane1"`
	NodalPlane2 NodalPlane `json:"nodalPlane2"`
}

// Bounds is a latitude/longitude box in degrees.
type Bounds struct {
	MinLatitude  float64 `json:"minLatitude"`
	MaxLatitude  float64 `json:"maxLatitude"`
	MinLongitude float64 `json:"minLongitude"`
	MaxLongitude float64 `json:"maxLongitude"`
}

// Catalogue is a named event collection.
type Catalogue struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Region string         `json:"region,omitempty"`
	Events []CatalogEvent `json:"events"`
}

// HasLocation reports whether both coordinates are present.
func (e *CatalogEvent) HasLocation() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// Validation failure reasons, as counted in catalogue quality reports.
const (
	ReasonMissingID        = "missing_id"
	ReasonMissingTime      = "missing_time"
	ReasonInvalidTimestamp = "invalid_timestamp"
	ReasonFutureTimestamp  = "future_timestamp"
	ReasonMissingMagnitude = "missing_magnitude"
	ReasonInvalidType      = "invalid_types"
	ReasonMagnitudeRange   = "out_of_range_magnitude"
	ReasonMissingLatitude  = "missing_latitude"
	ReasonMissingLongitude = "missing_longitude"
	ReasonCoordinateRange  = "out_of_range_coords"
	ReasonDepthRange       = "out_of_range_depth"
	ReasonDuplicateID      = "duplicate_id"
)

// ValidationError describes why an event was rejected.
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(reason, msg string) error {
	return &ValidationError{Reason: reason, Message: msg}
}

// Validate checks that all event fields are valid.
func (e *CatalogEvent) Validate() error {
	if e.ID == "" {
		return invalid(ReasonMissingID, "event ID must not be empty")
	}
	if e.Time.IsZero() {
		return invalid(ReasonMissingTime, "event time must be set")
	}
	if e.Time.After(time.Now()) {
		return invalid(ReasonFutureTimestamp, "event time must not be in the future")
	}
	if math.IsNaN(e.Magnitude) || math.IsInf(e.Magnitude, 0) {
		return invalid(ReasonInvalidType, "magnitude must be a finite number")
	}
	if e.Magnitude < MinMagnitude || e.Magnitude > MaxMagnitude {
		return invalid(ReasonMagnitudeRange, "magnitude must be between -3.0 and 10.0")
	}
	if e.Latitude == nil && e.Longitude != nil {
		return invalid(ReasonMissingLatitude, "longitude given without latitude")
	}
	if e.Latitude != nil && e.Longitude == nil {
		return invalid(ReasonMissingLongitude, "latitude given without longitude")
	}
	if e.Latitude != nil && (!finite(*e.Latitude) || *e.Latitude < -90 || *e.Latitude > 90) {
		return invalid(ReasonCoordinateRange, "latitude must be between -90 and 90")
	}
	if e.Longitude != nil && (!finite(*e.Longitude) || *e.Longitude < -180 || *e.Longitude > 180) {
		return invalid(ReasonCoordinateRange, "longitude must be between -180 and 180")
	}
	if e.Depth != nil && (!finite(*e.Depth) || *e.Depth < MinDepthKm || *e.Depth > MaxDepthKm) {
		return invalid(ReasonDepthRange, "depth must be between -5 and 800 km")
	}
	return nil
}

// ValidationReason returns the reason of a validation error, or "" for
// other errors.
func ValidationReason(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ""
}

// Anomalies returns cross-field inconsistencies that do not make the event
// invalid but deserve a data-quality flag.
func (e *CatalogEvent) Anomalies() []string {
	var flags []string
	if e.Depth != nil && *e.Depth < 5 && e.Magnitude > 8 {
		flags = append(flags, AnomalyShallowLargeMagnitude)
	}
	return flags
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
