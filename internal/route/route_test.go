package route

import (
	"supmap-guidance/internal/geo"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustStep(t *testing.T, instruction string, geometry ...geo.Coordinate) Step {
	t.Helper()
	s, err := NewStep(geometry, instruction, 100, 20)
	require.NoError(t, err)
	return s
}

func TestNewStep_EmptyGeometry(t *testing.T) {
	_, err := NewStep(nil, "Turn left", 10, 1)
	assert.ErrorIs(t, err, geo.ErrEmptyGeometry)
}

func TestStep_IsImmutable(t *testing.T) {
	geometry := []geo.Coordinate{{Lat: 1}, {Lat: 2}}
	s, err := NewStep(geometry, "", 1, 1)
	require.NoError(t, err)

	geometry[1] = geo.Coordinate{Lat: 9}
	end, err := s.End()
	require.NoError(t, err)
	assert.Equal(t, geo.Coordinate{Lat: 2}, end)

	got := s.Geometry()
	got[0] = geo.Coordinate{Lat: 9}
	assert.Equal(t, geo.Coordinate{Lat: 1}, s.Geometry()[0])
}

func TestStep_DisplayInstruction(t *testing.T) {
	assert.Equal(t, "Continue", mustStep(t, "", geo.Coordinate{}).DisplayInstruction())
	assert.Equal(t, "Turn left", mustStep(t, "Turn left", geo.Coordinate{}).DisplayInstruction())
}

func TestNewRoute_ConcatenatesStepGeometry(t *testing.T) {
	r := NewRoute([]Step{
		mustStep(t, "Head north", geo.Coordinate{Lat: 0}, geo.Coordinate{Lat: 1}),
		mustStep(t, "", geo.Coordinate{Lat: 1}, geo.Coordinate{Lat: 2}),
		mustStep(t, "Arrive", geo.Coordinate{Lat: 3}),
	}, 300, 60, nil)

	assert.Equal(t, 3, r.StepCount())
	assert.Equal(t, 2, r.LastStepIndex())
	assert.Len(t, r.Geometry(), 5)
	assert.Equal(t, []string{"Head north", "Arrive"}, r.Instructions())

	mid, err := r.Midpoint()
	require.NoError(t, err)
	assert.Equal(t, geo.Coordinate{Lat: 1}, mid)

	_, ok := r.Step(3)
	assert.False(t, ok)
}

func TestNewRoute_NoSteps(t *testing.T) {
	r := NewRoute(nil, 1200, 300, nil)
	assert.Zero(t, r.StepCount())
	assert.Empty(t, r.Instructions())

	_, err := r.Midpoint()
	assert.ErrorIs(t, err, geo.ErrEmptyGeometry)
}

func TestRoute_SameGeometry(t *testing.T) {
	shape := []geo.Coordinate{{Lat: 1}, {Lat: 2}}
	a := NewRoute(nil, 1, 1, shape)
	b := NewRoute(nil, 2, 2, shape)
	c := NewRoute(nil, 1, 1, shape[:1])

	assert.True(t, a.SameGeometry(b))
	assert.False(t, a.SameGeometry(c))
}

func TestClassifyManeuver(t *testing.T) {
	tests := map[string]Maneuver{
		"Turn right onto Anna Salai":  ManeuverTurnRight,
		"Bear right onto GST Road":    ManeuverTurnRight,
		"Turn left":                   ManeuverTurnLeft,
		"Keep slight right":           ManeuverSlightRight,
		"Slight left at the fork":     ManeuverSlightLeft,
		"Make a sharp right":          ManeuverSharpRight,
		"Make a sharp left":           ManeuverSharpLeft,
		"Make a U-turn":               ManeuverUTurn,
		"Merge onto the expressway":   ManeuverMerge,
		"Enter the roundabout":        ManeuverRoundabout,
		"Arrive at Marina Beach":      ManeuverArrive,
		"The destination is on right": ManeuverArrive,
		"Continue on Beach Road":      ManeuverStraight,
		"":                            ManeuverStraight,
	}
	for instruction, want := range tests {
		assert.Equal(t, want, ClassifyManeuver(instruction), instruction)
	}
}
