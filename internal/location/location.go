// Package location resolves the caller's current position. The server never
// guesses a position: a missing or unusable one is reported as
// LOCATION_UNAVAILABLE so the client can prompt for location access.
package location

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/localcircle/localcircle-server/internal/errors"
	"github.com/localcircle/localcircle-server/internal/geo"
)

// Source yields a position.
type Source interface {
	CurrentPosition(ctx context.Context) (geo.Point, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (geo.Point, error)

// CurrentPosition calls f.
func (f SourceFunc) CurrentPosition(ctx context.Context) (geo.Point, error) { return f(ctx) }

// Fixed always reports the same point.
type Fixed geo.Point

// CurrentPosition returns the fixed point.
func (f Fixed) CurrentPosition(context.Context) (geo.Point, error) { return geo.Point(f), nil }

// Reported is a position the device sent with the request, as raw strings.
// Either coordinate may be empty when the device could not get a fix.
type Reported struct {
	Lat string
	Lng string
}

// CurrentPosition parses the reported coordinates.
func (r Reported) CurrentPosition(context.Context) (geo.Point, error) {
	lat, lng := strings.TrimSpace(r.Lat), strings.TrimSpace(r.Lng)
	if lat == "" || lng == "" {
		return geo.Point{}, errors.LocationUnavailable(nil)
	}
	var p geo.Point
	var err error
	if p.Lat, err = strconv.ParseFloat(lat, 64); err != nil {
		return geo.Point{}, errors.LocationUnavailable(err)
	}
	if p.Lng, err = strconv.ParseFloat(lng, 64); err != nil {
		return geo.Point{}, errors.LocationUnavailable(err)
	}
	// ParseFloat accepts "NaN" and "Inf".
	if !isFinite(p.Lat) || !isFinite(p.Lng) {
		return geo.Point{}, errors.LocationUnavailable(fmt.Errorf("non-finite coordinate %q,%q", lat, lng))
	}
	return p, nil
}

// Resolve asks src for a position and checks it. Every failure, including
// an out-of-range coordinate, comes back as LOCATION_UNAVAILABLE.
func Resolve(ctx context.Context, src Source) (geo.Point, error) {
	if src == nil {
		return geo.Point{}, errors.LocationUnavailable(nil)
	}
	p, err := src.CurrentPosition(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrLocationUnavailable) {
			return geo.Point{}, err
		}
		return geo.Point{}, errors.LocationUnavailable(err)
	}
	if !p.Valid() {
		// Details are strings so NaN and Inf still encode as JSON.
		return geo.Point{}, errors.LocationUnavailable(nil).WithDetails(map[string]string{
			"lat": strconv.FormatFloat(p.Lat, 'g', -1, 64),
			"lng": strconv.FormatFloat(p.Lng, 'g', -1, 64),
		})
	}
	return p, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
