package camera

import "supmap-guidance/internal/geo"

type Config struct {
	FollowDistanceMeters float64
	FollowHeadingDegrees float64
	FollowPitchDegrees   float64
}

func DefaultConfig() Config {
	return Config{
		FollowDistanceMeters: 500,
		FollowHeadingDegrees: 0,
		FollowPitchDegrees:   60,
	}
}

// Target is the follow camera applied while navigating.
type Target struct {
	Center         geo.Coordinate `json:"center"`
	DistanceMeters float64        `json:"distance"`
	HeadingDegrees float64        `json:"heading"`
	PitchDegrees   float64        `json:"pitch"`
}

type Planner struct {
	config Config
}

func NewPlanner(config Config) *Planner {
	return &Planner{config: config}
}

// Follow centers the camera on the current position. The heading is fixed,
// it does not follow the direction of travel.
func (p *Planner) Follow(center geo.Coordinate) Target {
	return Target{
		Center:         center,
		DistanceMeters: p.config.FollowDistanceMeters,
		HeadingDegrees: p.config.FollowHeadingDegrees,
		PitchDegrees:   p.config.FollowPitchDegrees,
	}
}
