package guidance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"supmap-guidance/internal/camera"
	"supmap-guidance/internal/directions"
	"supmap-guidance/internal/geo"
	"supmap-guidance/internal/geocode"
	"supmap-guidance/internal/location"
	"supmap-guidance/internal/metrics"
	"supmap-guidance/internal/navigation"
	"supmap-guidance/internal/route"
	"sync"
	"time"
)

const (
	RouteNotFoundMessage = "Route not found"
	defaultDestination   = "Destination"
)

var (
	// ErrSuperseded is returned by a directions request whose result arrived after a newer request was issued.
	ErrSuperseded       = errors.New("directions request superseded")
	ErrInvalidAlternate = errors.New("invalid alternate route index")
)

// Failure is the cause behind a "route not found" notification.
type Failure string

const (
	FailureLocationUnavailable Failure = "location_unavailable"
	FailureNoRoutesFound       Failure = "no_routes_found"
	FailureProviderError       Failure = "provider_error"
)

type Notification struct {
	Failure Failure `json:"failure"`
	Message string  `json:"message"`
}

type OutputType string

const (
	OutputRoutes              OutputType = "routes"
	OutputRoutesCleared       OutputType = "routes_cleared"
	OutputDestination         OutputType = "destination"
	OutputSession             OutputType = "session"
	OutputCamera              OutputType = "camera"
	OutputStepAdvanced        OutputType = "step_advanced"
	OutputCompleted           OutputType = "completed"
	OutputNotification        OutputType = "notification"
	OutputNotificationCleared OutputType = "notification_cleared"
)

// Output is one message for the UI layer.
type Output struct {
	Type    OutputType
	Payload any
}

type Config struct {
	Mode            directions.Mode
	WantAlternates  bool
	LocationTimeout time.Duration
	NotificationTTL time.Duration
	Navigation      navigation.Config
	Camera          camera.Config
}

func DefaultConfig() Config {
	return Config{
		Mode:            directions.ModeDriving,
		WantAlternates:  true,
		LocationTimeout: 10 * time.Second,
		NotificationTTL: 2 * time.Second,
		Navigation:      navigation.DefaultConfig(),
		Camera:          camera.DefaultConfig(),
	}
}

type Deps struct {
	Directions directions.Provider
	Geocoder   geocode.Provider
	Location   location.Source
	// Sessions is optional.
	Sessions navigation.SessionCache
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Engine drives one client's navigation: it owns the route set of the latest directions
// request and the progress tracker, and reports every change through emit.
//
// Position fixes are handled one at a time in arrival order. emit may be called from
// any goroutine and must not call back into the Engine.
type Engine struct {
	id      string
	ctx     context.Context
	config  Config
	deps    Deps
	logger  *slog.Logger
	emit    func(Output)
	tracker *navigation.Tracker

	mu           sync.Mutex
	generation   uint64
	routes       *route.Set
	destination  *DestinationView
	notification *Notification
	clearTimer   *time.Timer
	unsubscribe  func()
}

func NewEngine(ctx context.Context, id string, config Config, deps Deps, emit func(Output)) *Engine {
	e := &Engine{
		id:      id,
		ctx:     ctx,
		config:  config,
		deps:    deps,
		logger:  deps.Logger.With("sessionID", id),
		emit:    emit,
		tracker: navigation.NewTracker(config.Navigation, camera.NewPlanner(config.Camera)),
	}
	e.unsubscribe = deps.Location.Subscribe(e.OnFix)
	return e
}

// Close unsubscribes from the location source and drops the session from the cache.
func (e *Engine) Close() {
	e.mu.Lock()
	e.unsubscribe()
	if e.clearTimer != nil {
		e.clearTimer.Stop()
	}
	e.mu.Unlock()

	if e.deps.Sessions != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := e.deps.Sessions.DeleteSession(ctx, e.id); err != nil {
			e.logger.Warn("failed to delete cached session", "error", err)
		}
	}
}

// SelectDestination sets a new destination and requests directions to it. When label is
// empty the destination is reverse geocoded while the directions request runs.
func (e *Engine) SelectDestination(ctx context.Context, dest geo.Coordinate, label string) error {
	e.mu.Lock()
	e.destination = &DestinationView{Coordinate: dest, Label: label}
	if label == "" {
		e.destination.Label = defaultDestination
	}
	view := *e.destination
	e.emit(Output{Type: OutputDestination, Payload: view})
	e.mu.Unlock()

	var wg sync.WaitGroup
	if label == "" && e.deps.Geocoder != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.labelDestination(ctx, dest)
		}()
	}
	err := e.RequestDirections(ctx, dest)
	wg.Wait()
	return err
}

func (e *Engine) labelDestination(ctx context.Context, dest geo.Coordinate) {
	label, err := geocode.Resolve(ctx, e.deps.Geocoder, dest)
	if err != nil {
		e.logger.Debug("reverse geocoding failed", "error", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destination == nil || e.destination.Coordinate != dest {
		return
	}
	e.destination.Label = label
	e.emit(Output{Type: OutputDestination, Payload: *e.destination})
	if e.routes != nil {
		e.emit(Output{Type: OutputRoutes, Payload: NewRoutesView(*e.routes, label)})
	}
}

// RequestDirections fetches routes from the current location to dest. Only the result of
// the most recently issued request replaces the route set; older results are discarded
// and ErrSuperseded is returned.
func (e *Engine) RequestDirections(ctx context.Context, dest geo.Coordinate) error {
	e.mu.Lock()
	e.generation++
	token := e.generation
	e.mu.Unlock()

	fixCtx, cancel := context.WithTimeout(ctx, e.config.LocationTimeout)
	fix, err := e.deps.Location.Current(fixCtx)
	cancel()
	if err != nil {
		return e.fail(token, FailureLocationUnavailable, err)
	}

	routes, err := e.deps.Directions.Routes(ctx, fix.Coordinate, dest, e.config.Mode, e.config.WantAlternates)
	if err != nil {
		if errors.Is(err, directions.ErrNotFound) {
			return e.fail(token, FailureNoRoutesFound, err)
		}
		return e.fail(token, FailureProviderError, err)
	}

	set, err := route.FromProviderResult(routes)
	if err != nil {
		return e.fail(token, FailureNoRoutesFound, err)
	}

	e.mu.Lock()
	if token != e.generation {
		e.mu.Unlock()
		e.deps.Metrics.DirectionsRequests.WithLabelValues("superseded").Inc()
		e.logger.Debug("dropping superseded directions result", "token", token)
		return ErrSuperseded
	}
	e.routes = &set
	e.clearNotificationLocked()
	e.emit(Output{Type: OutputRoutes, Payload: NewRoutesView(set, e.destinationLabelLocked())})
	e.mu.Unlock()

	e.deps.Metrics.DirectionsRequests.WithLabelValues("ok").Inc()
	e.logger.Debug("routes updated", "alternates", len(set.Alternates))
	e.persist()
	return nil
}

// fail raises the notification, unless a newer request was issued. Routes are kept when
// only the location fix is missing.
func (e *Engine) fail(token uint64, failure Failure, cause error) error {
	e.mu.Lock()
	if token != e.generation {
		e.mu.Unlock()
		e.deps.Metrics.DirectionsRequests.WithLabelValues("superseded").Inc()
		return ErrSuperseded
	}
	if failure != FailureLocationUnavailable && e.routes != nil {
		e.routes = nil
		e.emit(Output{Type: OutputRoutesCleared})
	}
	e.raiseLocked(failure)
	e.mu.Unlock()

	e.deps.Metrics.DirectionsRequests.WithLabelValues(string(failure)).Inc()
	e.logger.Info("directions request failed", "failure", failure, "error", cause)
	e.persist()
	return fmt.Errorf("%s: %w", failure, cause)
}

func (e *Engine) raiseLocked(failure Failure) {
	n := &Notification{Failure: failure, Message: RouteNotFoundMessage}
	e.notification = n
	e.emit(Output{Type: OutputNotification, Payload: *n})

	if e.clearTimer != nil {
		e.clearTimer.Stop()
	}
	e.clearTimer = time.AfterFunc(e.config.NotificationTTL, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.notification == n {
			e.clearNotificationLocked()
		}
	})
}

func (e *Engine) clearNotificationLocked() {
	if e.notification == nil {
		return
	}
	e.notification = nil
	if e.clearTimer != nil {
		e.clearTimer.Stop()
		e.clearTimer = nil
	}
	e.emit(Output{Type: OutputNotificationCleared})
}

// SelectRoute promotes the alternate at index i to primary. It does not affect a running
// navigation session, which keeps the route it was started on.
func (e *Engine) SelectRoute(i int) error {
	e.mu.Lock()
	if e.routes == nil || i < 0 || i >= len(e.routes.Alternates) {
		e.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrInvalidAlternate, i)
	}
	set := e.routes.Promote(i)
	e.routes = &set
	e.emit(Output{Type: OutputRoutes, Payload: NewRoutesView(set, e.destinationLabelLocked())})
	e.mu.Unlock()

	e.persist()
	return nil
}

// Start begins navigating the current primary route.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.routes == nil {
		e.mu.Unlock()
		return fmt.Errorf("starting navigation: %w", navigation.ErrNoActiveRoute)
	}
	u, err := e.tracker.Start(e.routes.Primary)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.emitUpdateLocked(u)
	e.emit(Output{Type: OutputSession, Payload: e.tracker.Snapshot()})
	steps := e.routes.Primary.StepCount()
	e.mu.Unlock()

	e.deps.Metrics.NavigationSessions.WithLabelValues("started").Inc()
	e.logger.Info("navigation started", "steps", steps)
	e.persist()
	return nil
}

func (e *Engine) Cancel() {
	e.mu.Lock()
	wasActive := e.tracker.Active()
	e.tracker.Cancel()
	if wasActive {
		e.emit(Output{Type: OutputSession, Payload: e.tracker.Snapshot()})
	}
	e.mu.Unlock()

	if wasActive {
		e.deps.Metrics.NavigationSessions.WithLabelValues("cancelled").Inc()
		e.logger.Info("navigation cancelled")
		e.persist()
	}
}

// OnFix feeds one location fix to the tracker.
func (e *Engine) OnFix(fix location.Fix) {
	e.mu.Lock()
	wasActive := e.tracker.Active()
	u := e.tracker.OnPosition(fix.Coordinate, fix.Heading)
	e.emitUpdateLocked(u)
	if wasActive {
		e.emit(Output{Type: OutputSession, Payload: e.tracker.Snapshot()})
	}
	e.mu.Unlock()

	if u.Event != nil {
		switch u.Event.Type {
		case navigation.EventStepAdvanced:
			e.deps.Metrics.StepAdvances.Inc()
			e.logger.Debug("step advanced", "step", u.Event.StepIndex)
		case navigation.EventCompleted:
			e.deps.Metrics.NavigationSessions.WithLabelValues("completed").Inc()
			e.logger.Info("navigation completed")
		}
	}
	e.persist()
}

func (e *Engine) OnHeading(heading float64) {
	e.mu.Lock()
	e.tracker.OnHeading(heading)
	e.mu.Unlock()
}

func (e *Engine) emitUpdateLocked(u navigation.Update) {
	if u.Camera != nil {
		e.emit(Output{Type: OutputCamera, Payload: *u.Camera})
	}
	if u.Event == nil {
		return
	}
	switch u.Event.Type {
	case navigation.EventStepAdvanced:
		e.emit(Output{Type: OutputStepAdvanced, Payload: *u.Event})
	case navigation.EventCompleted:
		e.emit(Output{Type: OutputCompleted, Payload: *u.Event})
	}
}

func (e *Engine) destinationLabelLocked() string {
	if e.destination == nil {
		return defaultDestination
	}
	return e.destination.Label
}

func (e *Engine) Snapshot() navigation.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Snapshot()
}

// Routes returns the current route set, if any.
func (e *Engine) Routes() (route.Set, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.routes == nil {
		return route.Set{}, false
	}
	return *e.routes, true
}

func (e *Engine) Notification() (Notification, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.notification == nil {
		return Notification{}, false
	}
	return *e.notification, true
}

func (e *Engine) Destination() (DestinationView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destination == nil {
		return DestinationView{}, false
	}
	return *e.destination, true
}

// persist writes the session to the cache. The cached polyline is the route being
// navigated, or the primary route when idle.
func (e *Engine) persist() {
	if e.deps.Sessions == nil {
		return
	}

	e.mu.Lock()
	session := navigation.Session{
		ID:        e.id,
		Snapshot:  e.tracker.Snapshot(),
		UpdatedAt: time.Now(),
	}
	switch {
	case e.tracker.Active():
		session.Polyline = e.tracker.Route().Geometry()
	case e.routes != nil:
		session.Polyline = e.routes.Primary.Geometry()
	}
	e.mu.Unlock()

	if err := e.deps.Sessions.SetSession(e.ctx, &session); err != nil {
		e.logger.Warn("failed to cache session", "error", err)
	}
}
