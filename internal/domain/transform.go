package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidInput marks advisories rejected at the boundary, before parsing.
var ErrInvalidInput = errors.New("invalid input")

// lowConfidenceThreshold routes configurations below this score to review.
const lowConfidenceThreshold = 0.5

// airportRe matches a four-character ICAO location indicator.
var airportRe = regexp.MustCompile(`^[A-Z0-9]{4}$`)

// ParseRawEvent deserializes a RawEvent's value into an AdvisoryRecord.
// The collector timestamp wins over the Kafka message time when both are set.
func ParseRawEvent(raw RawEvent) (AdvisoryRecord, error) {
	var adv RawAdvisory
	if err := json.Unmarshal(raw.Value, &adv); err != nil {
		return AdvisoryRecord{}, fmt.Errorf("%w: parse raw event: %v", ErrInvalidInput, err)
	}
	return NewAdvisoryRecord(adv, raw.Timestamp)
}

// NewAdvisoryRecord validates a collector payload. fallback is used when the
// payload carries no collection time of its own.
func NewAdvisoryRecord(adv RawAdvisory, fallback time.Time) (AdvisoryRecord, error) {
	airport, err := normalizeAirport(adv.Airport)
	if err != nil {
		return AdvisoryRecord{}, err
	}

	observedAt := fallback
	if s := strings.TrimSpace(adv.CollectedAt); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return AdvisoryRecord{}, fmt.Errorf("%w: collected_at %q: %v", ErrInvalidInput, s, err)
		}
		observedAt = t
	}
	if observedAt.IsZero() {
		return AdvisoryRecord{}, fmt.Errorf("%w: missing timestamp for %s", ErrInvalidInput, airport)
	}

	text := adv.DATIS
	if text == "" {
		text = adv.Text
	}

	return AdvisoryRecord{
		Airport:    airport,
		InfoLetter: normalizeInfoLetter(adv.Code),
		Text:       text,
		Marker:     markerFromFeedType(adv.Type),
		ObservedAt: observedAt.UTC(),
	}, nil
}

// normalizeAirport upper-cases the identifier and promotes three-letter US
// codes to their ICAO form ("SEA" -> "KSEA").
func normalizeAirport(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", fmt.Errorf("%w: missing airport", ErrInvalidInput)
	}
	if len(code) == 3 && isAlpha(code) {
		code = "K" + code
	}
	if !airportRe.MatchString(code) {
		return "", fmt.Errorf("%w: airport %q", ErrInvalidInput, code)
	}
	return code, nil
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func normalizeInfoLetter(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 1 || !isAlpha(code) {
		return ""
	}
	return code
}

func markerFromFeedType(t string) Marker {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "arr", "arrival":
		return MarkerArrival
	case "dep", "departure":
		return MarkerDeparture
	default:
		return MarkerNone
	}
}

// generateID creates a deterministic SHA-256 based ID from the fields that
// identify one broadcast, so replays produce the same key downstream.
func generateID(airport string, observedAt time.Time, marker Marker, infoLetter string) string {
	input := fmt.Sprintf("%s|%s|%s|%s", airport, observedAt.UTC().Format(time.RFC3339), marker, infoLetter)
	hash := sha256.Sum256([]byte(input))
	return strings.ToLower(airport) + "-" + hex.EncodeToString(hash[:8])
}

// NewConfiguration builds an unmerged configuration from a single parse
// result. The reconciler adjusts pairing fields afterwards.
func NewConfiguration(r ParseResult) RunwayConfiguration {
	cfg := RunwayConfiguration{
		ID:                    generateID(r.Airport, r.ObservedAt, r.Marker, r.InfoLetter),
		Airport:               r.Airport,
		InfoLetter:            r.InfoLetter,
		Marker:                r.Marker,
		ObservedAt:            r.ObservedAt,
		Arrivals:              nonNil(r.Arrivals),
		Departures:            nonNil(r.Departures),
		Flow:                  r.Flow,
		ConfigurationName:     r.ConfigurationName,
		Confidence:            r.Confidence,
		HasReciprocalConflict: r.Validation.HasReciprocalConflict,
		MatchedRules:          nonNil(r.RuleIDs()),
		ComponentConfidence:   ComponentConfidence{Arrivals: r.Confidence, Departures: r.Confidence},
	}
	if len(r.Arrivals) == 0 {
		cfg.ComponentConfidence.Arrivals = 0
	}
	if len(r.Departures) == 0 {
		cfg.ComponentConfidence.Departures = 0
	}
	return cfg
}

// Finalize stamps the processing time and routes doubtful configurations to
// human review.
func Finalize(cfg RunwayConfiguration, malformed bool) RunwayConfiguration {
	cfg.ProcessedAt = clock.Now().UTC()
	cfg.NeedsReview, cfg.ReviewReason = reviewReason(cfg, malformed)
	return cfg
}

func reviewReason(cfg RunwayConfiguration, malformed bool) (bool, string) {
	switch {
	case cfg.HasReciprocalConflict:
		return true, ReviewReciprocalConflict
	case malformed:
		return true, ReviewMalformedRunway
	case len(cfg.Arrivals) == 0 && len(cfg.Departures) == 0:
		return true, ReviewNoRunways
	case cfg.Confidence < lowConfidenceThreshold:
		return true, ReviewLowConfidence
	default:
		return false, ""
	}
}

// SerializeConfiguration marshals a configuration into an OutputEvent keyed
// by airport so that all configurations for one airport stay ordered on a
// single partition.
func SerializeConfiguration(cfg RunwayConfiguration) (OutputEvent, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize runway configuration: %w", err)
	}
	return OutputEvent{
		Key:   []byte(cfg.Airport),
		Value: data,
		Headers: map[string]string{
			"airport":      cfg.Airport,
			"flow":         string(cfg.Flow),
			"needs_review": strconv.FormatBool(cfg.NeedsReview),
			"processed_at": cfg.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
