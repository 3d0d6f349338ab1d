package domain

import "github.com/jonboulle/clockwork"

// clock stamps ProcessedAt. Pairing decisions use the advisory's own
// timestamp and never read this clock.
var clock = clockwork.NewRealClock()

// SetClock swaps the processing time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
