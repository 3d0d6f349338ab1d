// Package domain models ATIS advisories and the runway configurations
// inferred from them.
//
// # Data Source
//
// Advisories originate from the digital ATIS (D-ATIS) feed. The upstream
// collector polls the feed, stamps each broadcast with its collection time,
// and publishes one flat JSON object per broadcast to the Kafka source topic:
//
//	{"airport":"KSEA","type":"combined","code":"C","datis":"SEA ATIS INFO C ...","collected_at":"2026-03-01T00:53:00Z"}
//
// The "type" field is "arr" or "dep" at airports that publish separate
// arrival and departure broadcasts, and "combined" elsewhere.
//
// # Boundary Validation
//
// [ParseRawEvent] is the only place an advisory can be rejected. A missing or
// malformed airport identifier, or the absence of any timestamp, yields an
// error wrapping [ErrInvalidInput]. Everything past this boundary treats
// unstructured text as the normal case and never fails.
//
// # Runway Identifiers
//
// A runway designator is a number in 1-36 with an optional L, C or R suffix.
// The surface form of the broadcast is preserved ("1L" stays "1L", "01L"
// stays "01L"). Two designators whose numbers differ by exactly 18 are the
// two ends of the same runway.
//
// # ID Generation
//
// Configuration IDs are deterministic SHA-256 hashes of
// airport|observed_at|marker|info_letter, which keeps replays idempotent for
// downstream upserts. See [generateID].
package domain
