package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSEAText = "SEA ATIS INFO C 0053Z. LANDING RUNWAY 16L 16C AND 16R."

func TestParseRawEvent(t *testing.T) {
	msgTime := time.Date(2026, 3, 1, 0, 55, 0, 0, time.UTC)

	t.Run("combined broadcast", func(t *testing.T) {
		data := []byte(`{"airport":"KSEA","type":"combined","code":"c","datis":"` + testSEAText + `","collected_at":"2026-03-01T00:53:00Z"}`)
		rec, err := ParseRawEvent(RawEvent{Value: data, Timestamp: msgTime})

		require.NoError(t, err)
		assert.Equal(t, "KSEA", rec.Airport)
		assert.Equal(t, "C", rec.InfoLetter)
		assert.Equal(t, testSEAText, rec.Text)
		assert.Equal(t, MarkerNone, rec.Marker)
		assert.Equal(t, time.Date(2026, 3, 1, 0, 53, 0, 0, time.UTC), rec.ObservedAt)
	})

	t.Run("split departure broadcast", func(t *testing.T) {
		data := []byte(`{"airport":"KDEN","type":"dep","code":"K","datis":"DEN DEP INFO K"}`)
		rec, err := ParseRawEvent(RawEvent{Value: data, Timestamp: msgTime})

		require.NoError(t, err)
		assert.Equal(t, MarkerDeparture, rec.Marker)
		assert.Equal(t, msgTime, rec.ObservedAt, "falls back to message time")
	})

	t.Run("three letter code promoted", func(t *testing.T) {
		data := []byte(`{"airport":"sfo","text":"SFO ATIS INFO A"}`)
		rec, err := ParseRawEvent(RawEvent{Value: data, Timestamp: msgTime})

		require.NoError(t, err)
		assert.Equal(t, "KSFO", rec.Airport)
		assert.Equal(t, "SFO ATIS INFO A", rec.Text)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseRawEvent(RawEvent{Value: []byte("{invalid json")})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), "parse raw event")
	})

	t.Run("missing airport", func(t *testing.T) {
		_, err := ParseRawEvent(RawEvent{Value: []byte(`{"datis":"X"}`), Timestamp: msgTime})

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})

	t.Run("malformed airport", func(t *testing.T) {
		_, err := ParseRawEvent(RawEvent{Value: []byte(`{"airport":"K-SEA"}`), Timestamp: msgTime})

		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("missing timestamp", func(t *testing.T) {
		_, err := ParseRawEvent(RawEvent{Value: []byte(`{"airport":"KSEA","datis":"X"}`)})

		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("bad collected_at", func(t *testing.T) {
		_, err := ParseRawEvent(RawEvent{Value: []byte(`{"airport":"KSEA","collected_at":"yesterday"}`), Timestamp: msgTime})

		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestMarkerOpposite(t *testing.T) {
	assert.Equal(t, MarkerDeparture, MarkerArrival.Opposite())
	assert.Equal(t, MarkerArrival, MarkerDeparture.Opposite())
	assert.Equal(t, MarkerNone, MarkerNone.Opposite())
}

func TestNewConfiguration(t *testing.T) {
	observed := time.Date(2026, 3, 1, 0, 53, 0, 0, time.UTC)
	result := ParseResult{
		Airport:    "KSEA",
		InfoLetter: "C",
		ObservedAt: observed,
		Arrivals:   []string{"16L", "16C"},
		Flow:       FlowSouth,
		Confidence: 0.7,
		MatchedRules: []RuleHit{
			{RuleID: "arrival_keyword", Category: CategoryArrival, Runways: []string{"16L", "16C"}, Verbatim: true},
		},
	}

	cfg := NewConfiguration(result)

	assert.True(t, strings.HasPrefix(cfg.ID, "ksea-"))
	assert.Equal(t, []string{"16L", "16C"}, cfg.Arrivals)
	assert.Equal(t, []string{}, cfg.Departures)
	assert.Equal(t, []string{"arrival_keyword"}, cfg.MatchedRules)
	assert.Equal(t, ComponentConfidence{Arrivals: 0.7}, cfg.ComponentConfidence)
	assert.False(t, cfg.MergedFromPair)

	again := NewConfiguration(result)
	assert.Equal(t, cfg.ID, again.ID, "deterministic ID")

	result.InfoLetter = "D"
	assert.NotEqual(t, cfg.ID, NewConfiguration(result).ID)
}

func TestFinalize(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 1, 0, 0, 0, time.UTC))
	SetClock(fakeClock)
	t.Cleanup(func() { SetClock(nil) })

	tests := []struct {
		name      string
		cfg       RunwayConfiguration
		malformed bool
		review    bool
		reason    string
	}{
		{"trusted", RunwayConfiguration{Arrivals: []string{"27"}, Departures: []string{"33L"}, Confidence: 0.9}, false, false, ""},
		{"conflict", RunwayConfiguration{Arrivals: []string{"16L"}, Departures: []string{"34R"}, Confidence: 0.3, HasReciprocalConflict: true}, false, true, ReviewReciprocalConflict},
		{"malformed", RunwayConfiguration{Arrivals: []string{"40"}, Confidence: 0.3}, true, true, ReviewMalformedRunway},
		{"empty", RunwayConfiguration{}, false, true, ReviewNoRunways},
		{"low confidence", RunwayConfiguration{Arrivals: []string{"27"}, Departures: []string{"27"}, Confidence: 0.45}, false, true, ReviewLowConfidence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Finalize(tt.cfg, tt.malformed)
			assert.Equal(t, tt.review, got.NeedsReview)
			assert.Equal(t, tt.reason, got.ReviewReason)
			assert.Equal(t, fakeClock.Now(), got.ProcessedAt)
		})
	}
}

func TestSerializeConfiguration(t *testing.T) {
	processed := time.Date(2026, 3, 1, 1, 0, 0, 0, time.UTC)
	cfg := RunwayConfiguration{
		ID:          "ksea-abc",
		Airport:     "KSEA",
		Arrivals:    []string{"16L"},
		Departures:  []string{"16R"},
		Flow:        FlowSouth,
		Confidence:  0.9,
		ProcessedAt: processed,
	}

	out, err := SerializeConfiguration(cfg)
	require.NoError(t, err)

	assert.Equal(t, []byte("KSEA"), out.Key)
	assert.Equal(t, "KSEA", out.Headers["airport"])
	assert.Equal(t, "SOUTH", out.Headers["flow"])
	assert.Equal(t, "false", out.Headers["needs_review"])
	assert.Equal(t, processed.Format(time.RFC3339), out.Headers["processed_at"])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Value, &decoded))
	assert.Equal(t, "ksea-abc", decoded["id"])
	assert.Equal(t, false, decoded["merged_from_pair"])
	assert.Contains(t, decoded, "component_confidence")
}
