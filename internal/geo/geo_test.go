package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePoints = [][2]float64{
	{40.0, -75.0},
	{40.7128, -74.0060},
	{34.0522, -118.2437},
	{-33.8688, 151.2093},
	{51.5074, -0.1278},
	{0, 0},
	{89.9, 179.9},
	{-89.9, -179.9},
}

func TestDistanceToSelfIsZero(t *testing.T) {
	for _, p := range samplePoints {
		assert.Equal(t, 0.0, Distance(p[0], p[1], p[0], p[1]), "point %v", p)
	}
}

func TestDistanceIsSymmetric(t *testing.T) {
	for _, a := range samplePoints {
		for _, b := range samplePoints {
			assert.InDelta(t, Distance(a[0], a[1], b[0], b[1]), Distance(b[0], b[1], a[0], a[1]), 1e-9)
		}
	}
}

func TestDistanceKnownValues(t *testing.T) {
	// New York to Los Angeles is roughly 3936 km on a 6371 km sphere.
	assert.InDelta(t, 3936, Distance(40.7128, -74.0060, 34.0522, -118.2437), 5)

	// One degree of latitude.
	assert.InDelta(t, kmPerDegreeLat, Distance(40, -75, 41, -75), 1e-6)

	// Antipodes are half the circumference apart.
	assert.InDelta(t, math.Pi*EarthRadiusKm, Distance(0, 0, 0, 180), 1e-6)
}

func TestDistanceDoesNotValidate(t *testing.T) {
	d := Distance(math.NaN(), 0, 0, 0)
	assert.True(t, math.IsNaN(d))

	// Out of range degrees still produce a number rather than panicking.
	assert.False(t, math.IsNaN(Distance(200, 400, 0, 0)))
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(90, 180))
	assert.True(t, ValidCoordinates(-90, -180))
	assert.False(t, ValidCoordinates(90.0001, 0))
	assert.False(t, ValidCoordinates(0, -180.5))
	assert.False(t, ValidCoordinates(math.NaN(), 0))
}

func TestBoundingBoxContainsCircle(t *testing.T) {
	lat, lng, radius := 40.0, -75.0, 25.0
	box, ok := BoundingBox(lat, lng, radius)
	require.True(t, ok)

	// Walk the circle at the exact radius; every point must land inside the box.
	for bearing := 0.0; bearing < 360; bearing += 5 {
		pLat, pLng := destination(lat, lng, bearing, radius)
		require.InDelta(t, radius, Distance(lat, lng, pLat, pLng), 1e-6)
		assert.True(t, box.Contains(pLat, pLng), "bearing %.0f", bearing)
	}
}

func TestBoundingBoxRefusesPolesAndAntimeridian(t *testing.T) {
	_, ok := BoundingBox(89.99, 0, 10)
	assert.False(t, ok)

	_, ok = BoundingBox(0, 179.99, 10)
	assert.False(t, ok)

	_, ok = BoundingBox(0, 0, -1)
	assert.False(t, ok)
}

func TestRoundKm(t *testing.T) {
	assert.Equal(t, 1.23, RoundKm(1.2345))
	assert.Equal(t, 1.24, RoundKm(1.235001))
	assert.Equal(t, 0.0, RoundKm(0.001))
}

// destination returns the point reached by travelling distKm from (lat, lng) on bearing.
func destination(lat, lng, bearing, distKm float64) (float64, float64) {
	lat1, lng1, brg := radians(lat), radians(lng), radians(bearing)
	ang := distKm / EarthRadiusKm
	lat2 := math.Asin(math.Sin(lat1)*math.Cos(ang) + math.Cos(lat1)*math.Sin(ang)*math.Cos(brg))
	lng2 := lng1 + math.Atan2(math.Sin(brg)*math.Sin(ang)*math.Cos(lat1), math.Cos(ang)-math.Sin(lat1)*math.Sin(lat2))
	return lat2 * 180 / math.Pi, lng2 * 180 / math.Pi
}
