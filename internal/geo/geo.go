// Package geo holds the great-circle math behind the nearby-games search.
// Everything here is pure: no I/O, no validation side effects, no errors.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// kmPerDegreeLat is the length of one degree of latitude on the same sphere.
const kmPerDegreeLat = EarthRadiusKm * math.Pi / 180

// Distance returns the great-circle distance in kilometers between (lat1, lng1) and
// (lat2, lng2), both in decimal degrees, using the haversine formula.
// Inputs are not validated; out-of-domain values yield whatever the math yields (possibly NaN).
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// ValidCoordinates reports whether lat is in [-90, 90] and lng is in [-180, 180].
// NaN is never valid.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Box is a latitude/longitude rectangle in decimal degrees.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoundingBox returns a rectangle that contains every point within radiusKm of (lat, lng).
// It is only used as a coarse SQL prefilter ahead of the exact haversine check, so it errs
// on the large side. ok is false when the rectangle would reach a pole or wrap the
// antimeridian; callers should then scan without a box.
func BoundingBox(lat, lng, radiusKm float64) (box Box, ok bool) {
	if radiusKm < 0 || math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || !ValidCoordinates(lat, lng) {
		return Box{}, false
	}

	// Pad by 1% so floating point noise never pushes a boundary point outside the box.
	dLat := radiusKm / kmPerDegreeLat * 1.01
	box.MinLat = lat - dLat
	box.MaxLat = lat + dLat
	if box.MinLat <= -90 || box.MaxLat >= 90 {
		return Box{}, false
	}

	// A degree of longitude shrinks with cos(lat); use the latitude in the box closest to a
	// pole so the width covers the whole box.
	widest := math.Max(math.Abs(box.MinLat), math.Abs(box.MaxLat))
	dLng := dLat / math.Cos(radians(widest))
	box.MinLng = lng - dLng
	box.MaxLng = lng + dLng
	if box.MinLng < -180 || box.MaxLng > 180 {
		return Box{}, false
	}
	return box, true
}

// Contains reports whether (lat, lng) lies inside the box, edges included.
func (b Box) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// RoundKm rounds a distance to two decimal places for display.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
