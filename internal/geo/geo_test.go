package geo

import (
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// metersPerDegreeOnSphere matches the haversine earth radius.
const metersPerDegreeOnSphere = 2 * math.Pi * earthMeanRadiusMeters / 360

func north(p Point, meters float64) Point {
	return Point{Lat: p.Lat + meters/metersPerDegreeOnSphere, Lng: p.Lng}
}

func TestEncode_KnownValue(t *testing.T) {
	hash := Encode(Point{Lat: 57.64911, Lng: 10.40744})
	assert.Equal(t, "u4pruydqqv", hash)
	assert.Len(t, hash, StoragePrecision)
}

func TestEncodeWithPrecision_IsPrefix(t *testing.T) {
	p := Point{Lat: 40.7128, Lng: -74.0060}
	full := EncodeWithPrecision(p, 12)
	for precision := 1; precision <= 12; precision++ {
		assert.True(t, strings.HasPrefix(full, EncodeWithPrecision(p, precision)))
	}
	assert.Len(t, EncodeWithPrecision(p, 0), 1)
	assert.Len(t, EncodeWithPrecision(p, 40), 12)
}

func TestPoint_Valid(t *testing.T) {
	tests := []struct {
		p     Point
		valid bool
	}{
		{Point{40.7, -74.0}, true},
		{Point{90, 180}, true},
		{Point{-90, -180}, true},
		{Point{90.01, 0}, false},
		{Point{0, -180.5}, false},
		{Point{math.NaN(), 0}, false},
		{Point{0, math.Inf(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.p.String(), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.p.Valid())
		})
	}
}

func TestDistanceMeters(t *testing.T) {
	center := Point{Lat: 40.7, Lng: -74.0}

	assert.InDelta(t, 0, DistanceMeters(center, center), 1e-9)
	assert.InDelta(t, 3000, DistanceMeters(center, north(center, 3000)), 1)
	assert.InDelta(t, 15000, DistanceMeters(center, north(center, 15000)), 1)

	// Symmetric.
	other := Point{Lat: 40.75, Lng: -73.95}
	assert.InDelta(t, DistanceMeters(center, other), DistanceMeters(other, center), 1e-9)
}

func TestHashRange(t *testing.T) {
	assert.Equal(t, Range{Start: "dr5ru", End: "dr5rv"}, hashRange("dr5ru", 25))
	assert.Equal(t, Range{Start: "dr5rs", End: "dr5r~"}, hashRange("dr5ru", 22))
	assert.Equal(t, Range{Start: "dr", End: "dr~"}, hashRange("dr", 20))
}

func TestWrapLongitude(t *testing.T) {
	assert.InDelta(t, 10, wrapLongitude(10), 1e-9)
	assert.InDelta(t, -170, wrapLongitude(190), 1e-9)
	assert.InDelta(t, 170, wrapLongitude(-190), 1e-9)
}

func TestQueryBounds_NoDuplicates(t *testing.T) {
	ranges := QueryBounds(Point{Lat: 40.7, Lng: -74.0}, 10000)
	require.NotEmpty(t, ranges)
	assert.LessOrEqual(t, len(ranges), 9)

	seen := map[Range]bool{}
	for _, r := range ranges {
		assert.False(t, seen[r], "duplicate range %v", r)
		seen[r] = true
		assert.LessOrEqual(t, r.Start, r.End)
	}
}

func inAnyRange(ranges []Range, hash string) bool {
	for _, r := range ranges {
		if r.Contains(hash) {
			return true
		}
	}
	return false
}

func TestQueryBounds_CoversCircle(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	centers := []Point{
		{Lat: 40.7, Lng: -74.0},
		{Lat: 51.5074, Lng: -0.1278},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 0.0001, Lng: 179.999},
		{Lat: 69.6, Lng: 18.9},
	}
	radii := []float64{0.05, 0.2, 250, 1000, 10000, 50000}

	for _, c := range centers {
		for _, radius := range radii {
			ranges := QueryBounds(c, radius)
			for i := 0; i < 200; i++ {
				// Uniform bearing, distance strictly inside the circle.
				bearing := rng.Float64() * 2 * math.Pi
				d := rng.Float64() * radius * 0.999
				p := destination(c, bearing, d)
				require.LessOrEqual(t, DistanceMeters(c, p), radius)
				assert.True(t, inAnyRange(ranges, Encode(p)),
					"point %s at %.2fm from %s not covered (radius %.2f)", p, d, c, radius)
			}
			assert.True(t, inAnyRange(ranges, Encode(c)), "centre %s not covered (radius %.2f)", c, radius)
		}
	}
}

func TestQueryBounds_SmallerRadiusGivesLongerPrefixes(t *testing.T) {
	c := Point{Lat: 40.7, Lng: -74.0}
	wide := QueryBounds(c, 50000)
	narrow := QueryBounds(c, 500)
	assert.Greater(t, len(narrow[0].Start), len(wide[0].Start))
}

func TestQueryBounds_SubMetreRadiusStaysAtStoragePrecision(t *testing.T) {
	c := Point{Lat: 40.7, Lng: -74.0}
	for _, radius := range []float64{0.3, 0.2, 0.05, 0.001} {
		ranges := QueryBounds(c, radius)
		require.NotEmpty(t, ranges)
		for _, r := range ranges {
			assert.LessOrEqual(t, len(r.Start), StoragePrecision, "radius %.3f range %v", radius, r)
			// A cell at storage precision, not a hemisphere.
			assert.GreaterOrEqual(t, len(r.Start), StoragePrecision-1, "radius %.3f range %v", radius, r)
		}
		assert.True(t, inAnyRange(ranges, Encode(c)), "radius %.3f", radius)
	}
}

// destination walks distance meters from p along bearing on the sphere.
func destination(p Point, bearing, distance float64) Point {
	lat1 := toRadians(p.Lat)
	lng1 := toRadians(p.Lng)
	ang := distance / earthMeanRadiusMeters

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(ang) + math.Cos(lat1)*math.Sin(ang)*math.Cos(bearing))
	lng2 := lng1 + math.Atan2(math.Sin(bearing)*math.Sin(ang)*math.Cos(lat1), math.Cos(ang)-math.Sin(lat1)*math.Sin(lat2))

	return Point{Lat: lat2 * 180 / math.Pi, Lng: wrapLongitude(lng2 * 180 / math.Pi)}
}
