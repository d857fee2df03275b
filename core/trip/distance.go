package trip

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/kilianp07/telematics/core/model"
)

const earthRadiusKm = 6371.0

// Distance returns the great-circle distance between a and b in kilometres,
// rounded to two decimals. It is 0 when either position is unknown.
func Distance(a, b *model.Position) float64 {
	if a == nil || b == nil {
		return 0
	}
	// out-of-range coordinates are accepted upstream; fold them into one turn
	// so huge values cannot overflow to Inf
	aLat, bLat := math.Mod(a.Lat, 360), math.Mod(b.Lat, 360)
	dLat := radians(bLat - aLat)
	dLon := radians(math.Mod(b.Lon-a.Lon, 360))
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(aLat))*math.Cos(radians(bLat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	h = math.Min(1, math.Max(0, h))
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return scalar.Round(earthRadiusKm*c, 2)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
