package directions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/twpayne/go-polyline"
	"net/http"
	"net/url"
	"supmap-guidance/internal/geo"
	"supmap-guidance/internal/route"
	"time"
)

var (
	ErrNotFound = errors.New("no route found")
	ErrProvider = errors.New("directions provider error")
)

// Valhalla error codes meaning no path exists between the locations.
var notFoundCodes = map[int]bool{
	170: true, // locations are too far apart or unreachable
	171: true, // no suitable edges near location
	442: true, // no path could be found for input
	443: true, // exact route match algorithm failed to find path
}

// shapeCodec decodes Valhalla shapes, which use 6 digits of precision.
var shapeCodec = polyline.Codec{Dim: 2, Scale: 1e6}

// Provider computes candidate routes between two coordinates, best first.
type Provider interface {
	Routes(ctx context.Context, origin, destination geo.Coordinate, mode Mode, wantAlternates bool) ([]route.Route, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	opts       ClientOptions
}

type ClientOptions struct {
	Timeout    time.Duration
	Language   string
	Alternates int
}

func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:    7 * time.Second,
		Language:   "en-US",
		Alternates: 2,
	}
}

func NewClient(baseURL string, options ...ClientOptions) *Client {
	opts := DefaultClientOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
	}
}

func (c *Client) Routes(ctx context.Context, origin, destination geo.Coordinate, mode Mode, wantAlternates bool) ([]route.Route, error) {
	routeRequest := RouteRequest{
		Locations: []LocationRequest{
			{Lat: origin.Lat, Lon: origin.Lon},
			{Lat: destination.Lat, Lon: destination.Lon},
		},
		Costing: mode.costing(),
		Units:   "kilometers",
	}
	if c.opts.Language != "" {
		routeRequest.Language = &c.opts.Language
	}
	if wantAlternates && c.opts.Alternates > 0 {
		routeRequest.Alternates = &c.opts.Alternates
	}

	routeResponse, err := c.CalculateRoute(ctx, routeRequest)
	if err != nil {
		return nil, err
	}

	trips := []Trip{routeResponse.Trip}
	for _, alt := range routeResponse.Alternates {
		trips = append(trips, alt.Trip)
	}

	routes := make([]route.Route, 0, len(trips))
	for i, trip := range trips {
		r, err := toRoute(trip)
		if err != nil {
			return nil, fmt.Errorf("%w: converting trip %d: %w", ErrProvider, i, err)
		}
		routes = append(routes, r)
	}
	return routes, nil
}

func (c *Client) CalculateRoute(ctx context.Context, routeRequest RouteRequest) (*RouteResponse, error) {
	if err := routeRequest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid route request: %w", err)
	}

	reqURL, err := url.Parse(c.baseURL + "/route")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	body, err := json.Marshal(routeRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %w", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && notFoundCodes[errResp.ErrorCode] {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, errResp.Error)
		}
		return nil, fmt.Errorf("%w: unexpected status code: %d", ErrProvider, resp.StatusCode)
	}

	var routeResponse RouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&routeResponse); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", ErrProvider, err)
	}

	if len(routeResponse.Trip.Legs) == 0 {
		return nil, ErrNotFound
	}

	return &routeResponse, nil
}

// toRoute turns a trip into a route, one step per maneuver. Lengths are in kilometers.
func toRoute(trip Trip) (route.Route, error) {
	var (
		steps    []route.Step
		geometry []geo.Coordinate
	)
	for _, leg := range trip.Legs {
		shape, err := DecodeShape(leg.Shape)
		if err != nil {
			return route.Route{}, err
		}
		for _, m := range leg.Maneuvers {
			if m.BeginShapeIndex > m.EndShapeIndex || int(m.EndShapeIndex) >= len(shape) {
				return route.Route{}, fmt.Errorf("maneuver shape range [%d,%d] outside shape of %d points",
					m.BeginShapeIndex, m.EndShapeIndex, len(shape))
			}
			step, err := route.NewStep(shape[m.BeginShapeIndex:m.EndShapeIndex+1], m.Instruction, m.Length*1000, m.Time)
			if err != nil {
				return route.Route{}, err
			}
			steps = append(steps, step)
		}
		geometry = append(geometry, shape...)
	}
	return route.NewRoute(steps, trip.Summary.Length*1000, trip.Summary.Time, geometry), nil
}

func DecodeShape(shape string) ([]geo.Coordinate, error) {
	if shape == "" {
		return nil, nil
	}
	coords, _, err := shapeCodec.DecodeCoords([]byte(shape))
	if err != nil {
		return nil, fmt.Errorf("decoding shape: %w", err)
	}
	res := make([]geo.Coordinate, len(coords))
	for i, c := range coords {
		res[i] = geo.Coordinate{Lat: c[0], Lon: c[1]}
	}
	return res, nil
}

func EncodeShape(geometry []geo.Coordinate) string {
	coords := make([][]float64, len(geometry))
	for i, c := range geometry {
		coords[i] = []float64{c.Lat, c.Lon}
	}
	return string(shapeCodec.EncodeCoords(nil, coords))
}
