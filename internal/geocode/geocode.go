package geocode

import (
	"context"
	"fmt"
	"strings"
	"supmap-guidance/internal/geo"
)

const (
	DroppedPin      = "Dropped Pin"
	UnknownLocation = "Unknown Location"
)

// Place is the part of a reverse geocoding result used to label a coordinate.
type Place struct {
	Name     string `json:"name,omitempty"`
	Street   string `json:"street,omitempty"`
	Locality string `json:"locality,omitempty"`
}

type Provider interface {
	// Reverse returns the place at c, or nil when the provider knows nothing there.
	Reverse(ctx context.Context, c geo.Coordinate) (*Place, error)
}

// Label picks the display name of a dropped pin. A name equal to the street name is skipped.
// Failures fall back to the coordinate itself.
func Label(place *Place, err error, c geo.Coordinate) string {
	if err != nil {
		return fmt.Sprintf("Location (%.2f, %.2f)", c.Lat, c.Lon)
	}
	if place == nil {
		return UnknownLocation
	}
	switch {
	case place.Name != "" && !strings.EqualFold(place.Name, place.Street):
		return place.Name
	case place.Street != "":
		return place.Street
	case place.Locality != "":
		return place.Locality
	default:
		return DroppedPin
	}
}

// Resolve reverse geocodes c and returns its label along with the provider error, if any.
func Resolve(ctx context.Context, p Provider, c geo.Coordinate) (string, error) {
	place, err := p.Reverse(ctx, c)
	return Label(place, err, c), err
}
