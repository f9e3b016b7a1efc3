package haversine

import "math"

// earthRadius is the mean earth radius in kilometers
const earthRadius = float64(6371)

const degToRad = math.Pi / 180

// Distance returns the great-circle distance in kilometers between two points
// given as longitude/latitude pairs in degrees.
func Distance(lonFrom, latFrom, lonTo, latTo float64) float64 {
	deltaLat := (latTo - latFrom) * degToRad
	deltaLon := (lonTo - lonFrom) * degToRad

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(latFrom*degToRad)*math.Cos(latTo*degToRad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}
