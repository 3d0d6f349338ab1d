package runway

import (
	"sort"
	"strings"
)

// Layout is a named set of runways an airport uses together.
type Layout struct {
	Name    string
	Runways []string
}

// Layouts lists known airport configurations, most common first.
var Layouts = map[string][]Layout{
	"KSEA": {
		{Name: "South", Runways: []string{"16L", "16C", "16R"}},
		{Name: "North", Runways: []string{"34L", "34C", "34R"}},
	},
	"KSFO": {
		{Name: "West", Runways: []string{"28L", "28R"}},
		{Name: "East", Runways: []string{"10L", "10R"}},
		{Name: "Southeast", Runways: []string{"19L", "19R"}},
		{Name: "Northwest", Runways: []string{"1L", "1R"}},
	},
	"KLAX": {
		{Name: "West", Runways: []string{"24L", "24R", "25L", "25R"}},
		{Name: "East", Runways: []string{"6L", "6R", "7L", "7R"}},
	},
	"KDEN": {
		{Name: "North", Runways: []string{"34L", "34R", "35L", "35R", "36L", "36R"}},
		{Name: "South", Runways: []string{"16L", "16R", "17L", "17R", "18L", "18R"}},
	},
	"KBOS": {
		{Name: "Northwest", Runways: []string{"27", "33L", "33R", "32"}},
		{Name: "Southwest", Runways: []string{"22L", "22R"}},
		{Name: "Northeast", Runways: []string{"4L", "4R", "9"}},
	},
}

// NamedProcedures lists charted visual approaches per airport. Each name is
// announced together with the runway it serves.
var NamedProcedures = map[string][]string{
	"KSFO": {"FMS BRIDGE", "TIPP TOE", "QUIET BRIDGE", "SHORELINE", "TIPP TOE VISUAL"},
	"KDCA": {"RIVER VISUAL", "MOUNT VERNON VISUAL"},
	"KLGA": {"EXPRESSWAY VISUAL", "PARKWAY VISUAL"},
	"KSEA": {"ELLIOTT BAY"},
	"KJFK": {"CANARSIE", "BELMONT"},
}

func procedureNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, procs := range NamedProcedures {
		for _, p := range procs {
			if !seen[p] {
				seen[p] = true
				names = append(names, p)
			}
		}
	}
	sort.Strings(names)
	return names
}

// ConfigurationName returns "<Name> Flow" for the known layout holding most
// of the active arrival runways, falling back to departures. It returns ""
// for unknown airports or runways outside every layout.
func ConfigurationName(airport string, arrivals, departures []string) string {
	layouts := Layouts[airport]
	if len(layouts) == 0 {
		return ""
	}
	for _, active := range [][]string{arrivals, departures} {
		best, bestCount := -1, 0
		for i, layout := range layouts {
			if n := countMembers(layout.Runways, active); n > bestCount {
				best, bestCount = i, n
			}
		}
		if best >= 0 {
			return layouts[best].Name + " Flow"
		}
	}
	return ""
}

func countMembers(layout, active []string) int {
	n := 0
	for _, rwy := range active {
		for _, l := range layout {
			if Canonical(l) == Canonical(rwy) {
				n++
				break
			}
		}
	}
	return n
}

// Canonical drops leading zeros so "01L" and "1L" compare equal.
func Canonical(rwy string) string {
	trimmed := strings.TrimLeft(rwy, "0")
	if trimmed == "" || (trimmed[0] < '0' || trimmed[0] > '9') {
		return rwy
	}
	return trimmed
}
