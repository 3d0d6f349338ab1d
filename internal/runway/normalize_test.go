package runway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"upper case and whitespace", "landing  runway\t16L", "LANDING RWY 16L"},
		{"plural keyword", "DEPG RUNWAYS 1L, 1R", "DEPG RWYS 1L, 1R"},
		{"digit by digit with orientation", "RUNWAY 3 4 LEFT", "RWY 34L"},
		{"digit by digit list", "DEPG RWY8, RWY25, RUNWAY 3 4 LEFT", "DEPG RWY 8, RWY 25, RWY 34L"},
		{"digit by digit single letter", "rwy 1 6 l", "RWY 16L"},
		{"digit by digit out of range", "RWY 3 9", "RWY 3 9"},
		{"spelled orientation", "LANDING RWY 17 RIGHT", "LANDING RWY 17R"},
		{"detached suffix", "APCH RWY 16 C", "APCH RWY 16C"},
		{"equipment notice removed", "RWY 16L ILS OTS. VISUAL APCH RWY 16R", ". VISUAL APCH RWY 16R"},
		{"multi word equipment notice", "LNDG RWY 35L. RWY 17 RIGHT INNER MARKER OTS", "LNDG RWY 35L."},
		{"leading equipment notice", "ILS RWY 27 OTS. LANDING RWY 22L", ". LANDING RWY 22L"},
		{"closure notice", "RWY 09 CLSD. APCH RWY 27", ". APCH RWY 27"},
		{"closure notice to end of sentence", "LDG RWY 16C. RWY 16L CLSD BTN 0600 AND 1400Z DAILY.", "LDG RWY 16C. ."},
		{"and right expansion", "LNDG RWYS 35L AND RIGHT", "LNDG RWYS 35L AND RWYS 35R"},
		{"and left expansion", "LANDING RUNWAY 28R AND LEFT", "LANDING RWY 28R AND RWY 28L"},
		{"and center expansion without keyword", "APCH 16L AND CENTER", "APCH 16L AND 16C"},
		{"digit by digit notice", "RWY 1 7 RIGHT INNER MARKER OTS. LANDING RWY 35L", ". LANDING RWY 35L"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalize_SplitBroadcastNotice(t *testing.T) {
	got := Normalize("LNDG RWYS 35L AND RIGHT... RWY 17 RIGHT INNER MARKER OTS")
	assert.Equal(t, "LNDG RWYS 35L AND RWYS 35R...", got)
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"SEA ATIS INFO C 0053Z. ILS APPROACHES IN USE. LANDING RUNWAY 16L 16C AND 16R.",
		"LNDG RWYS 35L AND RIGHT... RWY 17 RIGHT INNER MARKER OTS",
		"DEPG RWY8, RWY25, RUNWAY 3 4 LEFT",
		"RWY 3 4 LEFT AND RIGHT",
		"SIMUL CHARTED VISUAL FMS BRIDGE RY 28R AND TIPP TOE RY 28L APP IN USE. DEPG RWYS 1L, 1R",
		"ILS RWY 27 OTS ILS RWY 27 OTS RWY 27 CLSD",
		"runway runway runway 1 1 1 1 left right center",
		"!!@@## 12 34 RWY RWY RWY99",
		"BOS ATIS INFO H 0254Z. RNAV 27, DEP 33L. RY 27 ILS OTS.",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}
