package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadius is the mean radius of the Earth in meters.
const EarthRadius = 6371000

// Degrees to radians conversion
const degToRad = math.Pi / 180

var (
	ErrEmptyGeometry   = errors.New("geometry has no coordinates")
	ErrIndexOutOfRange = errors.New("coordinate index out of range")
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("invalid latitude: %f", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("invalid longitude: %f", c.Lon)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.2f, %.2f", c.Lat, c.Lon)
}

// Distance is the haversine distance between two coordinates in meters.
func Distance(a, b Coordinate) float64 {
	dLat := (b.Lat - a.Lat) * degToRad
	dLon := (b.Lon - a.Lon) * degToRad

	lat1 := a.Lat * degToRad
	lat2 := b.Lat * degToRad

	sinDlat := math.Sin(dLat / 2)
	sinDlon := math.Sin(dLon / 2)

	aVal := sinDlat*sinDlat + sinDlon*sinDlon*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(aVal), math.Sqrt(1-aVal))
	return EarthRadius * c
}

// Midpoint returns the coordinate at position len/2 of the geometry.
// It is positional, not weighted by distance.
func Midpoint(geometry []Coordinate) (Coordinate, error) {
	if len(geometry) == 0 {
		return Coordinate{}, ErrEmptyGeometry
	}
	return geometry[len(geometry)/2], nil
}

// End returns the last coordinate of the geometry.
func End(geometry []Coordinate) (Coordinate, error) {
	if len(geometry) == 0 {
		return Coordinate{}, ErrEmptyGeometry
	}
	return geometry[len(geometry)-1], nil
}

func At(geometry []Coordinate, i int) (Coordinate, error) {
	if len(geometry) == 0 {
		return Coordinate{}, ErrEmptyGeometry
	}
	if i < 0 || i >= len(geometry) {
		return Coordinate{}, fmt.Errorf("index %d of %d: %w", i, len(geometry), ErrIndexOutOfRange)
	}
	return geometry[i], nil
}

// Equal reports whether both geometries hold the same coordinates in the same order.
func Equal(a, b []Coordinate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
