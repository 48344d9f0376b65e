package guidance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"supmap-guidance/internal/directions"
	"supmap-guidance/internal/geo"
	"supmap-guidance/internal/geocode"
	"supmap-guidance/internal/location"
	"supmap-guidance/internal/metrics"
	"supmap-guidance/internal/navigation"
	"supmap-guidance/internal/route"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirections struct {
	mu    sync.Mutex
	calls []geo.Coordinate
	// routes returns the result for a destination. gate, when set, blocks the call
	// until a value is received for that destination latitude.
	routes func(dest geo.Coordinate) ([]route.Route, error)
	gate   map[float64]chan struct{}
}

func (f *fakeDirections) Routes(ctx context.Context, origin, dest geo.Coordinate, mode directions.Mode, wantAlternates bool) ([]route.Route, error) {
	f.mu.Lock()
	f.calls = append(f.calls, dest)
	gate := f.gate[dest.Lat]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.routes(dest)
}

type fakeGeocoder struct {
	place *geocode.Place
	err   error
}

func (f fakeGeocoder) Reverse(ctx context.Context, c geo.Coordinate) (*geocode.Place, error) {
	return f.place, f.err
}

type recorder struct {
	mu      sync.Mutex
	outputs []Output
}

func (r *recorder) emit(o Output) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs = append(r.outputs, o)
}

func (r *recorder) ofType(typ OutputType) []Output {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []Output
	for _, o := range r.outputs {
		if o.Type == typ {
			res = append(res, o)
		}
	}
	return res
}

type memoryCache struct {
	mu       sync.Mutex
	sessions map[string]navigation.Session
}

func (m *memoryCache) SetSession(_ context.Context, s *navigation.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *memoryCache) GetSession(_ context.Context, id string) (*navigation.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &s, nil
}

func (m *memoryCache) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// straightRoute heads north from the equator; step i ends at latitude base+0.01*(i+1).
func straightRoute(t *testing.T, base float64, steps int) route.Route {
	t.Helper()
	var res []route.Step
	for i := 0; i < steps; i++ {
		s, err := route.NewStep([]geo.Coordinate{
			{Lat: base + 0.01*float64(i)},
			{Lat: base + 0.01*float64(i+1)},
		}, "Head north", 1112, 80)
		require.NoError(t, err)
		res = append(res, s)
	}
	return route.NewRoute(res, 1112*float64(steps), 80*float64(steps), nil)
}

type fixture struct {
	engine     *Engine
	feed       *location.Feed
	directions *fakeDirections
	out        *recorder
	cache      *memoryCache
}

func newFixture(t *testing.T, routes func(geo.Coordinate) ([]route.Route, error)) *fixture {
	t.Helper()
	f := &fixture{
		feed:       location.NewFeed(),
		directions: &fakeDirections{routes: routes, gate: map[float64]chan struct{}{}},
		out:        &recorder{},
		cache:      &memoryCache{sessions: map[string]navigation.Session{}},
	}
	config := DefaultConfig()
	config.LocationTimeout = 20 * time.Millisecond
	config.NotificationTTL = 30 * time.Millisecond

	f.engine = NewEngine(context.Background(), "client-1", config, Deps{
		Directions: f.directions,
		Geocoder:   fakeGeocoder{place: &geocode.Place{Name: "Marina Beach", Street: "Kamarajar Salai"}},
		Location:   f.feed,
		Sessions:   f.cache,
		Metrics:    metrics.NewNop(),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, f.out.emit)
	t.Cleanup(f.engine.Close)
	return f
}

func threeRoutes(t *testing.T) func(geo.Coordinate) ([]route.Route, error) {
	return func(geo.Coordinate) ([]route.Route, error) {
		return []route.Route{straightRoute(t, 0, 3), straightRoute(t, 1, 2), straightRoute(t, 2, 1)}, nil
	}
}

func TestEngine_SelectDestination(t *testing.T) {
	f := newFixture(t, threeRoutes(t))
	f.feed.Publish(location.Fix{Coordinate: geo.Coordinate{}})

	dest := geo.Coordinate{Lat: 0.03}
	require.NoError(t, f.engine.SelectDestination(context.Background(), dest, ""))

	set, ok := f.engine.Routes()
	require.True(t, ok)
	assert.Equal(t, 3, set.Primary.StepCount())
	assert.Len(t, set.Alternates, 2)

	d, ok := f.engine.Destination()
	require.True(t, ok)
	assert.Equal(t, "Marina Beach", d.Label)

	routesOut := f.out.ofType(OutputRoutes)
	require.NotEmpty(t, routesOut)
	view := routesOut[len(routesOut)-1].Payload.(RoutesView)
	assert.Len(t, view.Alternates, 2)
	assert.Equal(t, "3.3 km", view.Summary.Distance)
	assert.Equal(t, "4m", view.Summary.Time)

	cached, err := f.cache.GetSession(context.Background(), "client-1")
	require.NoError(t, err)
	assert.Len(t, cached.Polyline, 6)
}

func TestEngine_SelectDestinationWithLabelSkipsGeocoding(t *testing.T) {
	f := newFixture(t, threeRoutes(t))
	f.feed.Publish(location.Fix{})

	require.NoError(t, f.engine.SelectDestination(context.Background(), geo.Coordinate{Lat: 0.03}, "T Nagar"))
	assert.Len(t, f.out.ofType(OutputDestination), 1)
	d, _ := f.engine.Destination()
	assert.Equal(t, "T Nagar", d.Label)
}

func TestEngine_LocationUnavailable(t *testing.T) {
	f := newFixture(t, threeRoutes(t))

	err := f.engine.RequestDirections(context.Background(), geo.Coordinate{Lat: 1})
	assert.ErrorIs(t, err, location.ErrUnavailable)
	assert.Empty(t, f.directions.calls)

	n, ok := f.engine.Notification()
	require.True(t, ok)
	assert.Equal(t, FailureLocationUnavailable, n.Failure)
	assert.Equal(t, RouteNotFoundMessage, n.Message)
}

func TestEngine_FailuresClearRoutesAndNotify(t *testing.T) {
	found := func() ([]route.Route, error) { return threeRoutes(t)(geo.Coordinate{}) }
	result := found
	f := newFixture(t, func(geo.Coordinate) ([]route.Route, error) { return result() })
	f.feed.Publish(location.Fix{})

	tests := []struct {
		name    string
		result  func() ([]route.Route, error)
		failure Failure
	}{
		{"not found", func() ([]route.Route, error) { return nil, directions.ErrNotFound }, FailureNoRoutesFound},
		{"provider error", func() ([]route.Route, error) { return nil, errors.New("connection refused") }, FailureProviderError},
		{"zero routes", func() ([]route.Route, error) { return nil, nil }, FailureNoRoutesFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result = found
			require.NoError(t, f.engine.RequestDirections(context.Background(), geo.Coordinate{Lat: 1}))
			_, ok := f.engine.Routes()
			require.True(t, ok)

			result = tt.result
			assert.Error(t, f.engine.RequestDirections(context.Background(), geo.Coordinate{Lat: 1}))

			_, ok = f.engine.Routes()
			assert.False(t, ok, "routes are cleared")
			n, ok := f.engine.Notification()
			require.True(t, ok)
			assert.Equal(t, tt.failure, n.Failure)
			assert.Equal(t, RouteNotFoundMessage, n.Message)
		})
	}
}

func TestEngine_LocationUnavailableKeepsRoutes(t *testing.T) {
	f := newFixture(t, threeRoutes(t))
	f.feed.Publish(location.Fix{})
	require.NoError(t, f.engine.RequestDirections(context.Background(), geo.Coordinate{Lat: 1}))

	f.engine.deps.Location = failingSource{f.feed}
	assert.ErrorIs(t, f.engine.RequestDirections(context.Background(), geo.Coordinate{Lat: 2}), location.ErrUnavailable)

	_, ok := f.engine.Routes()
	assert.True(t, ok)
	n, ok := f.engine.Notification()
	require.True(t, ok)
	assert.Equal(t, FailureLocationUnavailable, n.Failure)
}

type failingSource struct{ *location.Feed }

func (failingSource) Current(context.Context) (location.Fix, error) {
	return location.Fix{}, location.ErrUnavailable
}

func TestEngine_NotificationAutoClears(t *testing.T) {
	f := newFixture(t, threeRoutes(t))

	_ = f.engine.RequestDirections(context.Background(), geo.Coordinate{Lat: 1})
	_, ok := f.engine.Notification()
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := f.engine.Notification()
		return !ok
	}, time.Second, 5*time.Millisecond)
	assert.Len(t, f.out.ofType(OutputNotificationCleared), 1)
}

func TestEngine_SupersededRequestIsDropped(t *testing.T) {
	f := newFixture(t, func(dest geo.Coordinate) ([]route.Route, error) {
		return []route.Route{straightRoute(t, dest.Lat, 1)}, nil
	})
	f.feed.Publish(location.Fix{})
	first := make(chan struct{})
	f.directions.gate[10] = first

	errCh := make(chan error, 1)
	go func() {
		errCh <- f.engine.RequestDirections(context.Background(), geo.Coordinate{Lat: 10})
	}()
	require.Eventually(t, func() bool {
		f.directions.mu.Lock()
		defer f.directions.mu.Unlock()
		return len(f.directions.calls) == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, f.engine.RequestDirections(context.Background(), geo.Coordinate{Lat: 20}))
	close(first)
	assert.ErrorIs(t, <-errCh, ErrSuperseded)

	set, ok := f.engine.Routes()
	require.True(t, ok)
	start, err := geo.At(set.Primary.Geometry(), 0)
	require.NoError(t, err)
	assert.Equal(t, 20.0, start.Lat, "the latest request wins even when it completes first")
}

func TestEngine_SelectRoute(t *testing.T) {
	f := newFixture(t, threeRoutes(t))
	f.feed.Publish(location.Fix{})
	require.NoError(t, f.engine.RequestDirections(context.Background(), geo.Coordinate{Lat: 1}))

	require.NoError(t, f.engine.SelectRoute(1))
	set, _ := f.engine.Routes()
	assert.Equal(t, 1, set.Primary.StepCount(), "C is primary")
	assert.Equal(t, 2, set.Alternates[0].StepCount(), "B stays in place")
	assert.Equal(t, 3, set.Alternates[1].StepCount(), "A takes C's slot")

	assert.ErrorIs(t, f.engine.SelectRoute(2), ErrInvalidAlternate)
	assert.ErrorIs(t, f.engine.SelectRoute(-1), ErrInvalidAlternate)
}

func TestEngine_StartWithoutRoutes(t *testing.T) {
	f := newFixture(t, threeRoutes(t))
	assert.ErrorIs(t, f.engine.Start(), navigation.ErrNoActiveRoute)
}

func TestEngine_NavigateToCompletion(t *testing.T) {
	f := newFixture(t, threeRoutes(t))
	f.feed.Publish(location.Fix{Coordinate: geo.Coordinate{}})
	require.NoError(t, f.engine.RequestDirections(context.Background(), geo.Coordinate{Lat: 0.03}))
	require.NoError(t, f.engine.Start())

	assert.True(t, f.engine.Snapshot().Active)
	require.Len(t, f.out.ofType(OutputCamera), 1, "start frames the last known position")

	for _, lat := range []float64{0.0096, 0.0196, 0.0296} {
		f.feed.Publish(location.Fix{Coordinate: geo.Coordinate{Lat: lat}})
	}

	s := f.engine.Snapshot()
	assert.Equal(t, navigation.StateCompleted, s.State)
	assert.Equal(t, 2, s.StepIndex)
	assert.Len(t, f.out.ofType(OutputStepAdvanced), 2)
	assert.Len(t, f.out.ofType(OutputCompleted), 1)
	assert.Len(t, f.out.ofType(OutputCamera), 4)

	cached, err := f.cache.GetSession(context.Background(), "client-1")
	require.NoError(t, err)
	assert.Equal(t, navigation.StateCompleted, cached.Snapshot.State)
}

func TestEngine_CancelAndHeading(t *testing.T) {
	f := newFixture(t, threeRoutes(t))
	f.feed.Publish(location.Fix{})
	require.NoError(t, f.engine.RequestDirections(context.Background(), geo.Coordinate{Lat: 0.03}))
	require.NoError(t, f.engine.Start())
	f.feed.Publish(location.Fix{Coordinate: geo.Coordinate{Lat: 0.0096}})
	require.Equal(t, 1, f.engine.Snapshot().StepIndex)

	f.engine.OnHeading(270)
	f.engine.Cancel()
	f.engine.Cancel()

	s := f.engine.Snapshot()
	assert.Equal(t, navigation.StateCancelled, s.State)
	assert.Equal(t, 0, s.StepIndex)
	require.NotNil(t, s.LastHeading)
	assert.Equal(t, 270.0, *s.LastHeading)

	_, ok := f.engine.Routes()
	assert.True(t, ok, "cancel keeps the route set")
}

func TestEngine_CloseUnsubscribes(t *testing.T) {
	f := newFixture(t, threeRoutes(t))
	f.engine.Close()

	f.feed.Publish(location.Fix{Coordinate: geo.Coordinate{Lat: 5}})
	assert.Nil(t, f.engine.Snapshot().LastPosition)

	_, err := f.cache.GetSession(context.Background(), "client-1")
	assert.Error(t, err)
}
