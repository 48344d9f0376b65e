package directions

import (
	"errors"
	"fmt"
)

type Mode string

const (
	ModeDriving Mode = "driving"
	ModeWalking Mode = "walking"
)

func (m Mode) IsValid() bool {
	switch m {
	case ModeDriving, ModeWalking:
		return true
	}
	return false
}

func (m Mode) costing() Costing {
	if m == ModeWalking {
		return CostingPedestrian
	}
	return CostingAuto
}

// Request specific

type RouteRequest struct {
	Locations  []LocationRequest `json:"locations"`
	Costing    Costing           `json:"costing"`
	Units      string            `json:"units"`
	Language   *string           `json:"language,omitempty"`
	Alternates *int              `json:"alternates,omitempty"`
	ID         string            `json:"id,omitempty"`
}

func (r RouteRequest) Validate() error {
	if len(r.Locations) < 2 {
		return errors.New("at least 2 locations must be provided")
	}
	if !r.Costing.IsValid() {
		return fmt.Errorf("costing %q is invalid", r.Costing)
	}
	return nil
}

type LocationRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Costing string

const (
	CostingAuto       Costing = "auto"
	CostingPedestrian Costing = "pedestrian"
)

func (c Costing) IsValid() bool {
	switch c {
	case CostingAuto, CostingPedestrian:
		return true
	default:
		return false
	}
}

// Response specific

type RouteResponse struct {
	Trip       Trip        `json:"trip"`
	Alternates []Alternate `json:"alternates,omitempty"`
}

type Alternate struct {
	Trip Trip `json:"trip"`
}

type Trip struct {
	Legs    []Leg   `json:"legs"`
	Summary Summary `json:"summary"`
	Status  int     `json:"status"`
}

type Maneuver struct {
	Type            uint8    `json:"type"`
	Instruction     string   `json:"instruction"`
	StreetNames     []string `json:"street_names,omitempty"`
	Time            float64  `json:"time"`
	Length          float64  `json:"length"`
	BeginShapeIndex uint     `json:"begin_shape_index"`
	EndShapeIndex   uint     `json:"end_shape_index"`
}

type Summary struct {
	Time   float64 `json:"time"`
	Length float64 `json:"length"`
}

type Leg struct {
	Maneuvers []Maneuver `json:"maneuvers"`
	Summary   Summary    `json:"summary"`
	// Shape is an encoded polyline with 6 digits of precision.
	Shape string `json:"shape"`
}

type ErrorResponse struct {
	ErrorCode  int    `json:"error_code"`
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
}
