package navigation

import (
	"context"
	"supmap-guidance/internal/geo"
	"supmap-guidance/internal/route"
	"time"
)

// Snapshot is the navigation state exposed to clients.
type Snapshot struct {
	State                 State           `json:"state"`
	Active                bool            `json:"active"`
	StepIndex             int             `json:"step_index"`
	StepCount             int             `json:"step_count"`
	Instruction           string          `json:"instruction,omitempty"`
	Maneuver              route.Maneuver  `json:"maneuver,omitempty"`
	RemainingDistance     float64         `json:"remaining_distance,omitempty"`
	RemainingDistanceText string          `json:"remaining_distance_text,omitempty"`
	LastPosition          *geo.Coordinate `json:"last_position,omitempty"`
	LastHeading           *float64        `json:"last_heading,omitempty"`
}

// Session is what gets cached for a connected client: its navigation snapshot
// and the geometry of its primary route.
type Session struct {
	ID        string           `json:"session_id"`
	Snapshot  Snapshot         `json:"snapshot"`
	Polyline  []geo.Coordinate `json:"polyline"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type SessionCache interface {
	SetSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}
