package navigation

import (
	"errors"
	"fmt"
	"supmap-guidance/internal/camera"
	"supmap-guidance/internal/format"
	"supmap-guidance/internal/geo"
	"supmap-guidance/internal/route"
)

// DefaultStepAdvanceRadiusMeters is the distance to a step end under which the step counts as reached.
const DefaultStepAdvanceRadiusMeters = 50

var ErrNoActiveRoute = errors.New("no active route")

type State string

const (
	StateIdle       State = "idle"
	StateNavigating State = "navigating"
	StateCompleted  State = "completed"
	StateCancelled  State = "cancelled"
)

type Config struct {
	StepAdvanceRadiusMeters float64
}

func DefaultConfig() Config {
	return Config{StepAdvanceRadiusMeters: DefaultStepAdvanceRadiusMeters}
}

type EventType string

const (
	EventStepAdvanced EventType = "step_advanced"
	EventCompleted    EventType = "completed"
)

// Event is emitted when the tracker moves to the next step or reaches the destination.
type Event struct {
	Type         EventType      `json:"type"`
	StepIndex    int            `json:"step_index"`
	Instruction  string         `json:"instruction"`
	Maneuver     route.Maneuver `json:"maneuver"`
	Distance     float64        `json:"distance"`
	DistanceText string         `json:"distance_text"`
}

// Update is the outcome of one tracker call. Both fields are nil when nothing happened.
type Update struct {
	Event  *Event
	Camera *camera.Target
}

// Tracker advances the active step of one navigation session from position updates.
//
// Proximity is a plain radius around the current step end, not a projection on the
// route geometry, and at most one step is consumed per position update.
// A Tracker is not safe for concurrent use.
type Tracker struct {
	config  Config
	planner *camera.Planner

	state        State
	route        route.Route
	stepIndex    int
	lastPosition *geo.Coordinate
	lastHeading  *float64
}

func NewTracker(config Config, planner *camera.Planner) *Tracker {
	return &Tracker{
		config:  config,
		planner: planner,
		state:   StateIdle,
	}
}

// Start begins a session on r, superseding any running one.
// The returned update carries a camera target when a position is already known.
func (t *Tracker) Start(r route.Route) (Update, error) {
	if r.StepCount() == 0 {
		return Update{}, fmt.Errorf("starting navigation: %w", ErrNoActiveRoute)
	}
	t.route = r
	t.stepIndex = 0
	t.state = StateNavigating

	var u Update
	if t.lastPosition != nil {
		target := t.planner.Follow(*t.lastPosition)
		u.Camera = &target
	}
	return u, nil
}

// OnPosition records the fix and, while navigating, checks whether the current step end is reached.
func (t *Tracker) OnPosition(position geo.Coordinate, heading *float64) Update {
	t.lastPosition = &position
	if heading != nil {
		h := *heading
		t.lastHeading = &h
	}
	if t.state != StateNavigating {
		return Update{}
	}

	target := t.planner.Follow(position)
	u := Update{Camera: &target}

	step, ok := t.route.Step(t.stepIndex)
	if !ok {
		return u
	}
	end, err := step.End()
	if err != nil {
		return u
	}
	if geo.Distance(position, end) >= t.config.StepAdvanceRadiusMeters {
		return u
	}

	if t.stepIndex == t.route.LastStepIndex() {
		t.state = StateCompleted
		u.Event = t.event(EventCompleted, step, t.remaining(step))
		return u
	}

	t.stepIndex++
	next, _ := t.route.Step(t.stepIndex)
	u.Event = t.event(EventStepAdvanced, next, t.remaining(next))
	return u
}

// OnHeading records a heading without a position.
func (t *Tracker) OnHeading(heading float64) {
	t.lastHeading = &heading
}

// Cancel ends a running session. It is a no-op in any other state.
func (t *Tracker) Cancel() {
	if t.state != StateNavigating {
		return
	}
	t.state = StateCancelled
	t.stepIndex = 0
}

func (t *Tracker) State() State { return t.state }

func (t *Tracker) Active() bool { return t.state == StateNavigating }

func (t *Tracker) StepIndex() int { return t.stepIndex }

// Route returns the route of the current or last session.
func (t *Tracker) Route() route.Route { return t.route }

func (t *Tracker) Snapshot() Snapshot {
	s := Snapshot{
		State:     t.state,
		Active:    t.Active(),
		StepIndex: t.stepIndex,
		StepCount: t.route.StepCount(),
	}
	if t.lastPosition != nil {
		p := *t.lastPosition
		s.LastPosition = &p
	}
	if t.lastHeading != nil {
		h := *t.lastHeading
		s.LastHeading = &h
	}
	if !s.Active {
		return s
	}
	if step, ok := t.route.Step(t.stepIndex); ok {
		s.Instruction = step.DisplayInstruction()
		s.Maneuver = step.Maneuver()
		s.RemainingDistance = t.remaining(step)
		s.RemainingDistanceText = format.Distance(s.RemainingDistance)
	}
	return s
}

// remaining is the distance from the last fix to the end of step, or the step's own
// distance when either is unknown.
func (t *Tracker) remaining(step route.Step) float64 {
	if t.lastPosition == nil {
		return step.Distance()
	}
	end, err := step.End()
	if err != nil {
		return step.Distance()
	}
	return geo.Distance(*t.lastPosition, end)
}

func (t *Tracker) event(typ EventType, step route.Step, distance float64) *Event {
	return &Event{
		Type:         typ,
		StepIndex:    t.stepIndex,
		Instruction:  step.DisplayInstruction(),
		Maneuver:     step.Maneuver(),
		Distance:     distance,
		DistanceText: format.Distance(distance),
	}
}
