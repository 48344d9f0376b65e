package incidents

import (
	"fmt"
	"supmap-guidance/internal/geo"
)

type Incident struct {
	ID     int     `json:"id"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	TypeID int     `json:"type_id"`
}

func (i *Incident) Validate() error {
	if i.ID <= 0 {
		return fmt.Errorf("invalid ID: %d", i.ID)
	}
	if i.TypeID <= 0 {
		return fmt.Errorf("invalid TypeID: %d", i.TypeID)
	}
	return i.Coordinate().Validate()
}

func (i *Incident) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: i.Lat, Lon: i.Lon}
}

type Action string

const (
	Create    Action = "create"
	Certified Action = "certified"
	Deleted   Action = "deleted"
)

func (a Action) IsValid() bool {
	switch a {
	case Create, Certified, Deleted:
		return true
	}
	return false
}

// IncidentPayload is sent to clients whose route passes near the incident.
type IncidentPayload struct {
	Incident *Incident `json:"incident"`
	Action   Action    `json:"action"`
}
