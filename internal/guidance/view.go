package guidance

import (
	"supmap-guidance/internal/format"
	"supmap-guidance/internal/geo"
	"supmap-guidance/internal/route"
)

const NoStepsMessage = "No detailed steps available for this route."

type StepView struct {
	Instruction  string         `json:"instruction"`
	Maneuver     route.Maneuver `json:"maneuver"`
	Distance     float64        `json:"distance"`
	DistanceText string         `json:"distance_text"`
}

type RouteView struct {
	Distance     float64          `json:"distance"`
	DistanceText string           `json:"distance_text"`
	Duration     float64          `json:"duration"`
	DurationText string           `json:"duration_text"`
	Midpoint     *geo.Coordinate  `json:"midpoint,omitempty"`
	Geometry     []geo.Coordinate `json:"geometry"`
}

// SummaryView is the route summary sheet of the primary route.
type SummaryView struct {
	Time        string     `json:"time"`
	Distance    string     `json:"distance"`
	Destination string     `json:"destination"`
	Directions  []StepView `json:"directions,omitempty"`
	Message     string     `json:"message,omitempty"`
}

type RoutesView struct {
	Primary    RouteView   `json:"primary"`
	Alternates []RouteView `json:"alternates"`
	Summary    SummaryView `json:"summary"`
}

type DestinationView struct {
	Coordinate geo.Coordinate `json:"coordinate"`
	Label      string         `json:"label"`
}

func newRouteView(r route.Route) RouteView {
	v := RouteView{
		Distance:     r.Distance(),
		DistanceText: format.Distance(r.Distance()),
		Duration:     r.Duration(),
		DurationText: format.Duration(r.Duration()),
		Geometry:     r.Geometry(),
	}
	if mid, err := r.Midpoint(); err == nil {
		v.Midpoint = &mid
	}
	return v
}

func newSummaryView(r route.Route, destination string) SummaryView {
	v := SummaryView{
		Time:        format.Duration(r.Duration()),
		Distance:    format.Distance(r.Distance()),
		Destination: destination,
	}
	if r.StepCount() == 0 {
		v.Message = NoStepsMessage
		return v
	}
	for _, s := range r.Steps() {
		if s.Instruction() == "" {
			continue
		}
		v.Directions = append(v.Directions, StepView{
			Instruction:  s.Instruction(),
			Maneuver:     s.Maneuver(),
			Distance:     s.Distance(),
			DistanceText: format.Distance(s.Distance()),
		})
	}
	return v
}

func NewRoutesView(set route.Set, destination string) RoutesView {
	v := RoutesView{
		Primary:    newRouteView(set.Primary),
		Alternates: make([]RouteView, 0, len(set.Alternates)),
		Summary:    newSummaryView(set.Primary, destination),
	}
	for _, alt := range set.Alternates {
		v.Alternates = append(v.Alternates, newRouteView(alt))
	}
	return v
}
