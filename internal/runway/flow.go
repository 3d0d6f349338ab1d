package runway

import (
	"math"

	"github.com/couchcryptid/runway-config-etl/internal/domain"
)

const (
	// mixedSeparation is the largest angle between mean arrival and mean
	// departure headings that still counts as a single flow.
	mixedSeparation = 60.0
	// minResultant is the shortest mean resultant length (0..1) that still
	// counts as a single flow.
	minResultant = 0.5
)

var compassSectors = []domain.TrafficFlow{
	domain.FlowNorth, domain.FlowNortheast, domain.FlowEast, domain.FlowSoutheast,
	domain.FlowSouth, domain.FlowSouthwest, domain.FlowWest, domain.FlowNorthwest,
}

// DetermineFlow derives the traffic-flow label from runway headings
// (designator number times ten degrees) using a circular mean.
func DetermineFlow(arrivals, departures []string) domain.TrafficFlow {
	arr := headings(arrivals)
	dep := headings(departures)
	all := append(append([]float64(nil), arr...), dep...)
	if len(all) == 0 {
		return domain.FlowUnknown
	}

	mean, resultant := circularMean(all)
	if resultant < minResultant {
		return domain.FlowMixed
	}
	if len(arr) > 0 && len(dep) > 0 {
		arrMean, _ := circularMean(arr)
		depMean, _ := circularMean(dep)
		if angularDistance(arrMean, depMean) > mixedSeparation+1e-9 {
			return domain.FlowMixed
		}
	}

	idx := int(math.Mod(mean+22.5, 360) / 45)
	return compassSectors[idx%len(compassSectors)]
}

func headings(runways []string) []float64 {
	out := make([]float64, 0, len(runways))
	for _, r := range runways {
		if d, ok := ParseDesignator(r); ok {
			out = append(out, float64(d.Number*10))
		}
	}
	return out
}

// circularMean returns the mean heading in [0,360) and the mean resultant
// length in [0,1].
func circularMean(degrees []float64) (mean, resultant float64) {
	var sinSum, cosSum float64
	for _, d := range degrees {
		rad := d * math.Pi / 180
		sinSum += math.Sin(rad)
		cosSum += math.Cos(rad)
	}
	n := float64(len(degrees))
	resultant = math.Hypot(sinSum, cosSum) / n
	mean = math.Atan2(sinSum, cosSum) * 180 / math.Pi
	if mean < 0 {
		mean += 360
	}
	return mean, resultant
}

func angularDistance(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}
