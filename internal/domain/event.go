package domain

import (
	"context"
	"time"
)

// RawAdvisory is the flat JSON published by the advisory collector. Field
// names follow the public D-ATIS feed, with collector-added timestamps.
type RawAdvisory struct {
	Airport     string `json:"airport"`
	Type        string `json:"type"` // "arr", "dep", or "combined"
	Code        string `json:"code"` // information letter
	DATIS       string `json:"datis"`
	Text        string `json:"text"`
	CollectedAt string `json:"collected_at"` // RFC3339
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Marker distinguishes split broadcasts that only cover one direction of
// operation. The empty marker means a combined broadcast.
type Marker string

const (
	MarkerNone      Marker = ""
	MarkerArrival   Marker = "ARR"
	MarkerDeparture Marker = "DEP"
)

// Opposite returns the marker of the broadcast that completes a split pair.
func (m Marker) Opposite() Marker {
	switch m {
	case MarkerArrival:
		return MarkerDeparture
	case MarkerDeparture:
		return MarkerArrival
	default:
		return MarkerNone
	}
}

// TrafficFlow is the dominant direction of operations at an airport.
type TrafficFlow string

const (
	FlowNorth     TrafficFlow = "NORTH"
	FlowNortheast TrafficFlow = "NORTHEAST"
	FlowEast      TrafficFlow = "EAST"
	FlowSoutheast TrafficFlow = "SOUTHEAST"
	FlowSouth     TrafficFlow = "SOUTH"
	FlowSouthwest TrafficFlow = "SOUTHWEST"
	FlowWest      TrafficFlow = "WEST"
	FlowNorthwest TrafficFlow = "NORTHWEST"
	FlowMixed     TrafficFlow = "MIXED"
	FlowUnknown   TrafficFlow = "UNKNOWN"
)

// RuleCategory is the semantic role of an extraction rule.
type RuleCategory string

const (
	CategoryArrival        RuleCategory = "arrival"
	CategoryDeparture      RuleCategory = "departure"
	CategoryCombined       RuleCategory = "combined"
	CategoryNamedProcedure RuleCategory = "named_procedure"
)

// FeedsArrivals reports whether hits of this category populate arrivals.
func (c RuleCategory) FeedsArrivals() bool {
	return c == CategoryArrival || c == CategoryNamedProcedure || c == CategoryCombined
}

// FeedsDepartures reports whether hits of this category populate departures.
func (c RuleCategory) FeedsDepartures() bool {
	return c == CategoryDeparture || c == CategoryCombined
}

// AdvisoryRecord is a validated advisory ready for parsing.
type AdvisoryRecord struct {
	Airport    string    `json:"airport"`
	InfoLetter string    `json:"info_letter,omitempty"`
	Text       string    `json:"text"`
	Marker     Marker    `json:"marker,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// RuleHit records one extraction rule firing on the normalized text.
type RuleHit struct {
	RuleID   string       `json:"rule_id"`
	Category RuleCategory `json:"category"`
	Runways  []string     `json:"runways"`
	Verbatim bool         `json:"verbatim"`
	Offset   int          `json:"offset"`
}

// ValidationOutcome reports structural problems with extracted runways.
type ValidationOutcome struct {
	HasReciprocalConflict bool        `json:"has_reciprocal_conflict"`
	ReciprocalPairs       [][2]string `json:"reciprocal_pairs,omitempty"`
	Malformed             []string    `json:"malformed_identifiers,omitempty"`
}

// Consistent reports whether the extraction has neither conflicts nor
// malformed identifiers.
func (v ValidationOutcome) Consistent() bool {
	return !v.HasReciprocalConflict && len(v.Malformed) == 0
}

// ParseResult is the per-advisory output of the runway parser.
type ParseResult struct {
	Airport           string            `json:"airport"`
	InfoLetter        string            `json:"info_letter,omitempty"`
	Marker            Marker            `json:"marker,omitempty"`
	ObservedAt        time.Time         `json:"observed_at"`
	Arrivals          []string          `json:"arrivals"`
	Departures        []string          `json:"departures"`
	Flow              TrafficFlow       `json:"flow"`
	ConfigurationName string            `json:"configuration_name,omitempty"`
	Confidence        float64           `json:"confidence"`
	MatchedRules      []RuleHit         `json:"matched_rules"`
	Validation        ValidationOutcome `json:"validation"`
	ArrivalVerbatim   bool              `json:"-"`
	DepartureVerbatim bool              `json:"-"`
}

// RuleIDs returns the identifiers of every rule that fired, in firing order.
func (r ParseResult) RuleIDs() []string {
	ids := make([]string, 0, len(r.MatchedRules))
	for _, hit := range r.MatchedRules {
		ids = append(ids, hit.RuleID)
	}
	return ids
}

// ComponentConfidence holds the confidence of the broadcast that supplied
// each direction of a configuration.
type ComponentConfidence struct {
	Arrivals   float64 `json:"arrivals"`
	Departures float64 `json:"departures"`
}

// Review reasons attached to configurations that should not be trusted blindly.
const (
	ReviewReciprocalConflict = "reciprocal_conflict"
	ReviewMalformedRunway    = "malformed_runway"
	ReviewNoRunways          = "no_runways"
	ReviewLowConfidence      = "low_confidence"
)

// RunwayConfiguration is the reconciled output published to the sink topic.
type RunwayConfiguration struct {
	ID                    string              `json:"id"`
	Airport               string              `json:"airport"`
	InfoLetter            string              `json:"info_letter,omitempty"`
	Marker                Marker              `json:"marker,omitempty"`
	ObservedAt            time.Time           `json:"observed_at"`
	Arrivals              []string            `json:"arrivals"`
	Departures            []string            `json:"departures"`
	Flow                  TrafficFlow         `json:"flow"`
	ConfigurationName     string              `json:"configuration_name,omitempty"`
	Confidence            float64             `json:"confidence"`
	MergedFromPair        bool                `json:"merged_from_pair"`
	IsIncompletePair      bool                `json:"is_incomplete_pair"`
	ComponentConfidence   ComponentConfidence `json:"component_confidence"`
	HasReciprocalConflict bool                `json:"has_reciprocal_conflict"`
	MatchedRules          []string            `json:"matched_rules"`
	NeedsReview           bool                `json:"needs_review"`
	ReviewReason          string              `json:"review_reason,omitempty"`
	ProcessedAt           time.Time           `json:"processed_at"`
}

// Correction is a human-supplied fix for a published configuration.
type Correction struct {
	Airport            string   `json:"airport"`
	OriginalArrivals   []string `json:"original_arrivals"`
	OriginalDepartures []string `json:"original_departures"`
	CorrectArrivals    []string `json:"correct_arrivals"`
	CorrectDepartures  []string `json:"correct_departures"`
	Note               string   `json:"note,omitempty"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
