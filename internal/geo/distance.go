package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

// NoDirection labels a guess that landed on the answer.
const NoDirection = "N/A"

var compass = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Distance returns the great-circle distance in km (haversine).
func Distance(a, b Coordinates) float64 {
	lat1, lat2 := rad(a.Lat), rad(b.Lat)
	dLat := rad(b.Lat - a.Lat)
	dLng := rad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Bearing returns the initial bearing from a to b in degrees, [0, 360).
func Bearing(from, to Coordinates) float64 {
	lat1, lat2 := rad(from.Lat), rad(to.Lat)
	dLng := rad(to.Lng - from.Lng)

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// Direction maps the initial bearing from → to onto the 8-point compass
// rose, rounding to the nearest 45°.
func Direction(from, to Coordinates) string {
	if from == to {
		return NoDirection
	}
	idx := int(math.Round(Bearing(from, to)/45)) % len(compass)
	return compass[idx]
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }
