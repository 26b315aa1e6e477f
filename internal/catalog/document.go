package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rewired-gh/quakelens/internal/models"
)

// TimeLayout is the event timestamp format of catalogue documents.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Document is the JSON catalogue format exchanged with the dashboard and
// written by the generate command.
type Document struct {
	Name        string        `json:"catalogue_name"`
	Region      string        `json:"region"`
	Description string        `json:"description,omitempty"`
	Bounds      models.Bounds `json:"geographic_bounds"`
	TimeRange   TimeRange     `json:"time_range"`
	Statistics  Statistics    `json:"statistics"`
	Events      []RawEvent    `json:"events"`
}

// TimeRange is the nominal span of a catalogue.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Statistics summarises a document as written.
type Statistics struct {
	TotalEvents               int            `json:"total_events"`
	InvalidEvents             int            `json:"invalid_events"`
	InvalidRatio              float64        `json:"invalid_ratio"`
	EventsWithFocalMechanisms int            `json:"events_with_focal_mechanisms"`
	MagnitudeRange            MagnitudeRange `json:"magnitude_range"`
}

// MagnitudeRange holds the extreme numeric magnitudes, null when there are none.
type MagnitudeRange struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// RawEvent is an undecoded event. Scalar fields stay raw so a malformed
// value rejects only its own event.
type RawEvent struct {
	PublicID        string                  `json:"publicID"`
	Time            json.RawMessage         `json:"time,omitempty"`
	Latitude        json.RawMessage         `json:"latitude,omitempty"`
	Longitude       json.RawMessage         `json:"longitude,omitempty"`
	Depth           json.RawMessage         `json:"depth,omitempty"`
	Magnitude       json.RawMessage         `json:"magnitude,omitempty"`
	FocalMechanisms []models.FocalMechanism `json:"focal_mechanisms,omitempty"`
	ValidationNote  string                  `json:"validation_note,omitempty"`
}

// EventError describes an event rejected while decoding a catalogue.
type EventError struct {
	EventID string
	Index   int
	Reason  string
	Err     error
}

func (e EventError) Error() string {
	return fmt.Sprintf("invalid event %s (#%d): %v", e.EventID, e.Index, e.Err)
}

func (e EventError) Unwrap() error {
	return e.Err
}

// ValidationReport counts what happened to each event of a catalogue.
type ValidationReport struct {
	Total     int
	Valid     int
	Reasons   map[string]int
	Anomalies map[string]int
	Errors    []EventError
}

// Invalid returns the number of rejected events.
func (r *ValidationReport) Invalid() int {
	return r.Total - r.Valid
}

// String renders the report on one line with reasons in a stable order.
func (r *ValidationReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d valid", r.Valid, r.Total)
	for _, group := range []map[string]int{r.Reasons, r.Anomalies} {
		keys := make([]string, 0, len(group))
		for k := range group {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, ", %s=%d", k, group[k])
		}
	}
	return b.String()
}

func newReport() *ValidationReport {
	return &ValidationReport{
		Reasons:   make(map[string]int),
		Anomalies: make(map[string]int),
	}
}

// Decode reads a catalogue document.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalogue document: %w", err)
	}
	return &doc, nil
}

// Catalogue converts the document into validated events ordered by time.
// Invalid events are dropped and counted in the report.
func (d *Document) Catalogue(id string) (models.Catalogue, *ValidationReport) {
	events, report := ConvertEvents(d.Events, d.Region)
	return models.Catalogue{
		ID:     id,
		Name:   d.Name,
		Region: d.Region,
		Events: events,
	}, report
}

// ConvertEvents decodes and validates raw events.
func ConvertEvents(raw []RawEvent, region string) ([]models.CatalogEvent, *ValidationReport) {
	report := newReport()
	events := make([]models.CatalogEvent, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i := range raw {
		report.Total++
		e, err := raw[i].event()
		if err == nil {
			err = e.Validate()
		}
		if err == nil && seen[e.ID] {
			err = &models.ValidationError{Reason: models.ReasonDuplicateID, Message: fmt.Sprintf("duplicate event ID %s", e.ID)}
		}
		if err != nil {
			reason := models.ValidationReason(err)
			report.Reasons[reason]++
			report.Errors = append(report.Errors, EventError{
				EventID: raw[i].PublicID,
				Index:   i,
				Reason:  reason,
				Err:     err,
			})
			continue
		}
		seen[e.ID] = true
		e.Region = region
		for _, flag := range e.Anomalies() {
			report.Anomalies[flag]++
		}
		report.Valid++
		events = append(events, e)
	}

	sort.SliceStable(events, func(a, b int) bool {
		return events[a].Time.Before(events[b].Time)
	})
	return events, report
}

func (r *RawEvent) event() (models.CatalogEvent, error) {
	e := models.CatalogEvent{ID: r.PublicID, FocalMechanisms: r.FocalMechanisms}

	if absent(r.Time) {
		return e, &models.ValidationError{Reason: models.ReasonMissingTime, Message: "time is missing"}
	}
	var ts string
	if err := json.Unmarshal(r.Time, &ts); err != nil {
		return e, &models.ValidationError{Reason: models.ReasonInvalidType, Message: "time must be a string"}
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return e, &models.ValidationError{Reason: models.ReasonInvalidTimestamp, Message: fmt.Sprintf("unparseable time %q", ts)}
	}
	e.Time = t.UTC()

	if absent(r.Magnitude) {
		return e, &models.ValidationError{Reason: models.ReasonMissingMagnitude, Message: "magnitude is missing"}
	}
	m, err := number(r.Magnitude, "magnitude")
	if err != nil {
		return e, err
	}
	e.Magnitude = *m

	if e.Latitude, err = number(r.Latitude, "latitude"); err != nil {
		return e, err
	}
	if e.Longitude, err = number(r.Longitude, "longitude"); err != nil {
		return e, err
	}
	if e.Depth, err = number(r.Depth, "depth"); err != nil {
		return e, err
	}
	return e, nil
}

func absent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// number decodes an optional numeric field; absent values yield nil.
func number(raw json.RawMessage, field string) (*float64, error) {
	if absent(raw) {
		return nil, nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, &models.ValidationError{Reason: models.ReasonInvalidType, Message: field + " must be a number"}
	}
	return &v, nil
}

// NewDocument encodes a catalogue in document form.
func NewDocument(cat models.Catalogue, description string, bounds models.Bounds, start, end time.Time) (*Document, error) {
	doc := &Document{
		Name:        cat.Name,
		Region:      cat.Region,
		Description: description,
		Bounds:      bounds,
		TimeRange: TimeRange{
			Start: start.UTC().Format(time.RFC3339),
			End:   end.UTC().Format(time.RFC3339),
		},
		Events: make([]RawEvent, 0, len(cat.Events)),
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range cat.Events {
		e := &cat.Events[i]
		raw, err := rawEvent(e)
		if err != nil {
			return nil, fmt.Errorf("failed to encode event %s: %w", e.ID, err)
		}
		doc.Events = append(doc.Events, raw)
		if len(e.FocalMechanisms) > 0 {
			doc.Statistics.EventsWithFocalMechanisms++
		}
		lo, hi = math.Min(lo, e.Magnitude), math.Max(hi, e.Magnitude)
	}
	doc.Statistics.TotalEvents = len(cat.Events)
	if len(cat.Events) > 0 {
		doc.Statistics.MagnitudeRange = MagnitudeRange{Min: &lo, Max: &hi}
	}
	return doc, nil
}

func rawEvent(e *models.CatalogEvent) (RawEvent, error) {
	raw := RawEvent{PublicID: e.ID, FocalMechanisms: e.FocalMechanisms}
	var err error
	if raw.Time, err = json.Marshal(e.Time.UTC().Format(TimeLayout)); err != nil {
		return raw, err
	}
	if raw.Magnitude, err = json.Marshal(e.Magnitude); err != nil {
		return raw, err
	}
	for _, f := range []struct {
		dst *json.RawMessage
		v   *float64
	}{
		{&raw.Latitude, e.Latitude},
		{&raw.Longitude, e.Longitude},
		{&raw.Depth, e.Depth},
	} {
		if f.v == nil {
			continue
		}
		if *f.dst, err = json.Marshal(*f.v); err != nil {
			return raw, err
		}
	}
	return raw, nil
}

// Write encodes the document as indented JSON.
func (d *Document) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("failed to write catalogue document: %w", err)
	}
	return nil
}
