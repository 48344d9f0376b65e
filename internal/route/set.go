package route

import (
	"errors"
	"fmt"
)

var ErrNoRoutesFound = errors.New("no routes found")

// Set is the working set of one directions request: a primary route and its alternates.
// The primary is never also an alternate.
type Set struct {
	Primary    Route
	Alternates []Route
}

// FromProviderResult makes the first route primary and keeps the rest, in order, as alternates.
func FromProviderResult(routes []Route) (Set, error) {
	if len(routes) == 0 {
		return Set{}, ErrNoRoutesFound
	}
	return Set{
		Primary:    routes[0],
		Alternates: append([]Route(nil), routes[1:]...),
	}, nil
}

// Promote swaps the alternate at index i with the primary. The previous primary takes
// the alternate's slot. i must index the current alternates.
func (s Set) Promote(i int) Set {
	if i < 0 || i >= len(s.Alternates) {
		panic(fmt.Sprintf("route: promote index %d out of range [0,%d)", i, len(s.Alternates)))
	}
	alternates := append([]Route(nil), s.Alternates...)
	alternates[i] = s.Primary
	return Set{Primary: s.Alternates[i], Alternates: alternates}
}

// PromoteRoute promotes the alternate whose geometry matches r.
func (s Set) PromoteRoute(r Route) (Set, bool) {
	for i, alt := range s.Alternates {
		if alt.SameGeometry(r) {
			return s.Promote(i), true
		}
	}
	return s, false
}

func (s Set) All() []Route {
	return append([]Route{s.Primary}, s.Alternates...)
}
