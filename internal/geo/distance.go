package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
const EarthRadiusMeters = 6371000.0

const degToRad = math.Pi / 180

// Point is a WGS84 position in decimal degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// DistanceMeters returns the Haversine great-circle distance between a and b.
func DistanceMeters(a, b Point) float64 {
	dLat := (b.Lat - a.Lat) * degToRad
	dLng := (b.Lng - a.Lng) * degToRad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*degToRad)*math.Cos(b.Lat*degToRad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// IsWithinRadius reports whether b lies strictly closer than radiusMeters to a.
func IsWithinRadius(a, b Point, radiusMeters float64) bool {
	return DistanceMeters(a, b) < radiusMeters
}

// OffsetNorth returns the point lying meters due north of p along its meridian.
func OffsetNorth(p Point, meters float64) Point {
	return Point{Lat: p.Lat + (meters/EarthRadiusMeters)/degToRad, Lng: p.Lng}
}
