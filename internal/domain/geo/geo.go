// Package geo provides geographic coordinates and great-circle distance.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by the Haversine formula.
const EarthRadiusKm = 6371.0

// Coordinate bounds in decimal degrees.
const (
	minLatitude  = -90.0
	maxLatitude  = 90.0
	minLongitude = -180.0
	maxLongitude = 180.0
)

// ErrInvalidCoordinates indicates a coordinate outside geographic bounds.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Coordinates is a geographic point in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the coordinates lie within geographic bounds.
func (c Coordinates) Validate() error {
	if c.Lat < minLatitude || c.Lat > maxLatitude {
		return fmt.Errorf("%w: latitude %v outside [%v, %v]", ErrInvalidCoordinates, c.Lat, minLatitude, maxLatitude)
	}
	if c.Lon < minLongitude || c.Lon > maxLongitude {
		return fmt.Errorf("%w: longitude %v outside [%v, %v]", ErrInvalidCoordinates, c.Lon, minLongitude, maxLongitude)
	}
	return nil
}

// Distance returns the great-circle distance between two points in kilometers
// using the Haversine formula.
func Distance(a, b Coordinates) float64 {
	lat1Rad := a.Lat * math.Pi / 180.0
	lat2Rad := b.Lat * math.Pi / 180.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180.0
	dLon := (b.Lon - a.Lon) * math.Pi / 180.0

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}
