package route

import "strings"

type Maneuver string

const (
	ManeuverStraight    Maneuver = "straight"
	ManeuverTurnRight   Maneuver = "turn_right"
	ManeuverTurnLeft    Maneuver = "turn_left"
	ManeuverSlightRight Maneuver = "slight_right"
	ManeuverSlightLeft  Maneuver = "slight_left"
	ManeuverSharpRight  Maneuver = "sharp_right"
	ManeuverSharpLeft   Maneuver = "sharp_left"
	ManeuverUTurn       Maneuver = "u_turn"
	ManeuverMerge       Maneuver = "merge"
	ManeuverRoundabout  Maneuver = "roundabout"
	ManeuverArrive      Maneuver = "arrive"
)

// ClassifyManeuver maps an instruction to a maneuver kind by keyword.
// First match wins.
func ClassifyManeuver(instruction string) Maneuver {
	i := strings.ToLower(instruction)
	switch {
	case strings.Contains(i, "turn right") || strings.Contains(i, "right onto"):
		return ManeuverTurnRight
	case strings.Contains(i, "turn left") || strings.Contains(i, "left onto"):
		return ManeuverTurnLeft
	case strings.Contains(i, "slight right"):
		return ManeuverSlightRight
	case strings.Contains(i, "slight left"):
		return ManeuverSlightLeft
	case strings.Contains(i, "sharp right"):
		return ManeuverSharpRight
	case strings.Contains(i, "sharp left"):
		return ManeuverSharpLeft
	case strings.Contains(i, "u-turn"):
		return ManeuverUTurn
	case strings.Contains(i, "merge"):
		return ManeuverMerge
	case strings.Contains(i, "roundabout"):
		return ManeuverRoundabout
	case strings.Contains(i, "arrive") || strings.Contains(i, "destination"):
		return ManeuverArrive
	default:
		return ManeuverStraight
	}
}
