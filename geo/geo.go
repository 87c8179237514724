// Package geo holds the great-circle distance used by the geofence check.
package geo

import "math"

const earthRadiusKM = 6371

// DistanceKM returns the Haversine distance in kilometers between two
// coordinate pairs.
func DistanceKM(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
