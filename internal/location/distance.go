package location

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by DistanceMeters.
const EarthRadiusKm = 6371.0

// DistanceMeters returns the haversine great-circle distance between two
// points, in meters.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c * 1000
}

// Distance is DistanceMeters for two Coordinates.
func Distance(a, b Coordinates) float64 {
	return DistanceMeters(a.Lat, a.Lng, b.Lat, b.Lng)
}

// FormatDistance renders meters for speech: "350 m" below a kilometer, "1.2 km" above.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
