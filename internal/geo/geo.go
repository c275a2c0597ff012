// Package geo encodes coordinates as geohashes and decomposes circular
// proximity queries into geohash string ranges.
//
// Range decomposition is over-inclusive: every point inside the circle falls
// in some returned range, but ranges also admit points outside it. Callers
// must filter candidates with DistanceMeters.
package geo

import (
	"fmt"
	"math"

	geohash "github.com/TomiHiltunen/geohash-golang"
)

// StoragePrecision is the geohash length written on every stored post.
// Range scans rely on every indexed hash having the same length.
const StoragePrecision = 10

const (
	base32                = "0123456789bcdefghjkmnpqrstuvwxyz"
	bitsPerChar           = 5
	maxBitsPrecision      = 22 * bitsPerChar
	maxEncodedPrecision   = 12
	metersPerDegreeLat    = 110574.0
	earthMeridionalCircum = 40007860.0
	earthEquatorialRadius = 6378137.0
	earthEccentricitySq   = 0.00669447819799
	earthMeanRadiusMeters = 6371000.0
	epsilon               = 1e-12
)

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether p is a finite coordinate within the usual bounds.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func (p Point) String() string {
	return fmt.Sprintf("(%.6f,%.6f)", p.Lat, p.Lng)
}

// Range is an inclusive geohash interval. End may carry a trailing "~",
// which sorts after every base32 character.
type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether hash falls inside r.
func (r Range) Contains(hash string) bool {
	return hash >= r.Start && hash <= r.End
}

// Encode returns the geohash of p at StoragePrecision.
func Encode(p Point) string {
	return EncodeWithPrecision(p, StoragePrecision)
}

// EncodeWithPrecision returns the geohash of p truncated to precision
// characters. Shorter hashes are prefixes of longer ones.
func EncodeWithPrecision(p Point, precision int) string {
	if precision < 1 {
		precision = 1
	}
	if precision > maxEncodedPrecision {
		precision = maxEncodedPrecision
	}
	hash := geohash.Encode(p.Lat, p.Lng)
	if len(hash) < precision {
		return hash
	}
	return hash[:precision]
}

// QueryBounds returns the deduplicated geohash ranges that together cover
// every point within radiusMeters of center. Ranges are never finer than
// StoragePrecision, since a longer start would sort after every stored hash.
func QueryBounds(center Point, radiusMeters float64) []Range {
	queryBits := min(max(1, boundingBoxBits(center, radiusMeters)), StoragePrecision*bitsPerChar)
	precision := int(math.Ceil(float64(queryBits) / bitsPerChar))

	points := boundingBoxPoints(center, radiusMeters)
	ranges := make([]Range, 0, len(points))
	seen := make(map[Range]struct{}, len(points))
	for _, pt := range points {
		r := hashRange(EncodeWithPrecision(pt, precision), queryBits)
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		ranges = append(ranges, r)
	}
	return ranges
}

// DistanceMeters returns the haversine great-circle distance between a and b.
func DistanceMeters(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthMeanRadiusMeters * c
}

// hashRange widens hash to the cell spanned by its first bits bits.
func hashRange(hash string, bits int) Range {
	precision := int(math.Ceil(float64(bits) / bitsPerChar))
	if len(hash) < precision {
		return Range{Start: hash, End: hash + "~"}
	}
	hash = hash[:precision]
	base := hash[:len(hash)-1]
	last := indexBase32(hash[len(hash)-1])

	significant := bits - len(base)*bitsPerChar
	unused := bitsPerChar - significant
	start := (last >> unused) << unused
	end := start + (1 << unused)
	if end > 31 {
		return Range{Start: base + string(base32[start]), End: base + "~"}
	}
	return Range{Start: base + string(base32[start]), End: base + string(base32[end])}
}

func indexBase32(c byte) int {
	for i := 0; i < len(base32); i++ {
		if base32[i] == c {
			return i
		}
	}
	return 0
}

// boundingBoxBits is the number of geohash bits whose cells are no smaller
// than the query's bounding box at either of its latitude edges.
func boundingBoxBits(center Point, size float64) int {
	latDelta := size / metersPerDegreeLat
	north := math.Min(90, center.Lat+latDelta)
	south := math.Max(-90, center.Lat-latDelta)

	bitsLat := int(math.Floor(latitudeBitsForResolution(size))) * 2
	bitsLngNorth := int(math.Floor(longitudeBitsForResolution(size, north)))*2 - 1
	bitsLngSouth := int(math.Floor(longitudeBitsForResolution(size, south)))*2 - 1
	return min(bitsLat, bitsLngNorth, bitsLngSouth, maxBitsPrecision)
}

// boundingBoxPoints returns the centre plus the eight compass points of the
// box enclosing the query circle.
func boundingBoxPoints(center Point, radius float64) []Point {
	latDegrees := radius / metersPerDegreeLat
	north := math.Min(90, center.Lat+latDegrees)
	south := math.Max(-90, center.Lat-latDegrees)
	lngDegs := math.Max(metersToLongitudeDegrees(radius, north), metersToLongitudeDegrees(radius, south))

	west := wrapLongitude(center.Lng - lngDegs)
	east := wrapLongitude(center.Lng + lngDegs)
	return []Point{
		{center.Lat, center.Lng},
		{center.Lat, west},
		{center.Lat, east},
		{north, center.Lng},
		{north, west},
		{north, east},
		{south, center.Lng},
		{south, west},
		{south, east},
	}
}

// metersToLongitudeDegrees converts an east-west distance at latitude into
// degrees of longitude on the WGS84 ellipsoid.
func metersToLongitudeDegrees(distance, latitude float64) float64 {
	rad := toRadians(latitude)
	num := math.Cos(rad) * earthEquatorialRadius * math.Pi / 180
	denom := 1 / math.Sqrt(1-earthEccentricitySq*math.Sin(rad)*math.Sin(rad))
	deltaDeg := num * denom
	if deltaDeg < epsilon {
		if distance > 0 {
			return 360
		}
		return 0
	}
	return math.Min(360, distance/deltaDeg)
}

func longitudeBitsForResolution(resolution, latitude float64) float64 {
	degs := metersToLongitudeDegrees(resolution, latitude)
	if degs > 0 {
		return math.Max(1, math.Log2(360/degs))
	}
	return 1
}

func latitudeBitsForResolution(resolution float64) float64 {
	return math.Min(math.Log2(earthMeridionalCircum/2/resolution), maxBitsPrecision)
}

func wrapLongitude(lng float64) float64 {
	if lng <= 180 && lng >= -180 {
		return lng
	}
	adjusted := lng + 180
	if adjusted > 0 {
		return math.Mod(adjusted, 360) - 180
	}
	return 180 - math.Mod(-adjusted, 360)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
