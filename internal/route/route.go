package route

import (
	"fmt"
	"supmap-guidance/internal/geo"
)

// Step is one maneuver segment of a route. It is immutable once built.
type Step struct {
	geometry    []geo.Coordinate
	instruction string
	distance    float64
	duration    float64
}

func NewStep(geometry []geo.Coordinate, instruction string, distance, duration float64) (Step, error) {
	if len(geometry) == 0 {
		return Step{}, fmt.Errorf("building step %q: %w", instruction, geo.ErrEmptyGeometry)
	}
	return Step{
		geometry:    clone(geometry),
		instruction: instruction,
		distance:    distance,
		duration:    duration,
	}, nil
}

func (s Step) Geometry() []geo.Coordinate { return clone(s.geometry) }

// Instruction is the raw provider text, empty meaning "continue".
func (s Step) Instruction() string { return s.instruction }

func (s Step) DisplayInstruction() string {
	if s.instruction == "" {
		return "Continue"
	}
	return s.instruction
}

// Distance in meters.
func (s Step) Distance() float64 { return s.distance }

// Duration in seconds.
func (s Step) Duration() float64 { return s.duration }

func (s Step) End() (geo.Coordinate, error) { return geo.End(s.geometry) }

func (s Step) Midpoint() (geo.Coordinate, error) { return geo.Midpoint(s.geometry) }

func (s Step) Maneuver() Maneuver { return ClassifyManeuver(s.instruction) }

// Route is an ordered sequence of steps from origin to destination for one travel mode.
// Two routes are the same route when their geometries are equal.
type Route struct {
	steps    []Step
	geometry []geo.Coordinate
	distance float64
	duration float64
}

// NewRoute builds a route. steps may be empty when the provider has no maneuver detail.
// When geometry is empty the route geometry is the concatenation of the step geometries.
func NewRoute(steps []Step, distance, duration float64, geometry []geo.Coordinate) Route {
	r := Route{
		steps:    append([]Step(nil), steps...),
		distance: distance,
		duration: duration,
	}
	if len(geometry) > 0 {
		r.geometry = clone(geometry)
		return r
	}
	for _, s := range steps {
		r.geometry = append(r.geometry, s.geometry...)
	}
	return r
}

func (r Route) Steps() []Step { return append([]Step(nil), r.steps...) }

func (r Route) StepCount() int { return len(r.steps) }

func (r Route) Step(i int) (Step, bool) {
	if i < 0 || i >= len(r.steps) {
		return Step{}, false
	}
	return r.steps[i], true
}

func (r Route) LastStepIndex() int { return len(r.steps) - 1 }

// Distance in meters.
func (r Route) Distance() float64 { return r.distance }

// Duration in seconds.
func (r Route) Duration() float64 { return r.duration }

func (r Route) Geometry() []geo.Coordinate { return clone(r.geometry) }

// Midpoint is the positional midpoint of the route geometry, used to place annotations.
func (r Route) Midpoint() (geo.Coordinate, error) { return geo.Midpoint(r.geometry) }

func (r Route) SameGeometry(other Route) bool { return geo.Equal(r.geometry, other.geometry) }

// Instructions lists every non-empty instruction in order.
func (r Route) Instructions() []string {
	var res []string
	for _, s := range r.steps {
		if s.instruction != "" {
			res = append(res, s.instruction)
		}
	}
	return res
}

func clone(c []geo.Coordinate) []geo.Coordinate {
	return append([]geo.Coordinate(nil), c...)
}
