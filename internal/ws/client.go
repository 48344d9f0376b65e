package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"supmap-guidance/internal/geo"
	"supmap-guidance/internal/geocode"
	"supmap-guidance/internal/guidance"
	"supmap-guidance/internal/location"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	// sendChannelSize controls the max number
	// of messages that can be queued for a client.
	sendChannelSize = 64
	pingPeriod      = (60 * 9 * time.Second) / 10
)

var errFavoritesUnavailable = errors.New("favorites are not available")

// Client is one websocket connection. It owns the location feed and the guidance
// engine of the connected user.
type Client struct {
	ID      string
	Conn    *websocket.Conn
	Manager *Manager
	send    chan Message
	ctx     context.Context
	cancel  context.CancelFunc
	feed    *location.Feed
	engine  *guidance.Engine
	once    sync.Once
	closed  chan struct{}
}

func NewClient(id string, conn *websocket.Conn, manager *Manager) *Client {
	ctx, cancel := context.WithCancel(manager.ctx)
	c := &Client{
		ID:      id,
		Conn:    conn,
		Manager: manager,
		send:    make(chan Message, sendChannelSize),
		ctx:     ctx,
		cancel:  cancel,
		feed:    location.NewFeed(),
		closed:  make(chan struct{}),
	}
	c.engine = guidance.NewEngine(ctx, id, manager.deps.Guidance, guidance.Deps{
		Directions: manager.deps.Directions,
		Geocoder:   manager.deps.Geocoder,
		Location:   c.feed,
		Sessions:   manager.deps.Sessions,
		Metrics:    manager.deps.Metrics,
		Logger:     manager.logger,
	}, c.emit)
	return c
}

// Start registers the client and runs its pumps. It returns once the client is closed.
func (c *Client) Start() {
	select {
	case c.Manager.register <- c:
	case <-c.ctx.Done():
		c.Close()
		return
	}
	go c.writePump()
	c.readPump()
}

// Close is safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		c.cancel()
		c.engine.Close()
		if err := c.Conn.Close(websocket.StatusNormalClosure, "bye :P"); err != nil {
			c.Manager.logger.Debug("failed to close connection", "clientID", c.ID, "error", err)
		}
		close(c.closed)
	})
}

// Done is closed once the client has been closed.
func (c *Client) Done() <-chan struct{} {
	return c.closed
}

// Send queues msg for writing. A client whose queue is full is disconnected.
func (c *Client) Send(msg Message) {
	select {
	case <-c.ctx.Done():
		return
	default:
	}
	select {
	case c.send <- msg:
	default:
		c.Manager.forceDisconnect(c)
	}
}

func (c *Client) sendJSON(typ string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.Manager.logger.Error("failed to marshal message", "clientID", c.ID, "type", typ, "error", err)
		return
	}
	c.Send(Message{Type: typ, Data: data})
}

func (c *Client) sendError(typ string, err error) {
	c.sendJSON(TypeError, ErrorPayload{Type: typ, Message: err.Error()})
}

func (c *Client) emit(out guidance.Output) {
	c.sendJSON(string(out.Type), out.Payload)
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.Manager.unregister <- c:
		case <-c.Manager.ctx.Done():
		}
		c.Close()
	}()

	for {
		var msg Message
		if err := wsjson.Read(c.ctx, c.Conn, &msg); err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && c.ctx.Err() == nil {
				c.Manager.logger.Warn("failed to read message", "clientID", c.ID, "error", err)
			}
			return
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case msg := <-c.send:
			if err := wsjson.Write(c.ctx, c.Conn, msg); err != nil {
				if c.ctx.Err() == nil {
					c.Manager.logger.Warn("failed to write message", "clientID", c.ID, "error", err)
				}
				return
			}
			c.Manager.logger.Debug("message sent", "clientID", c.ID, "type", msg.Type)
		case <-ticker.C:
			if err := c.Conn.Ping(c.ctx); err != nil {
				c.Manager.logger.Debug("failed to ping client", "clientID", c.ID, "error", err)
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage runs on the read loop. Anything that waits on a location fix runs in
// its own goroutine since fixes arrive on this same loop.
func (c *Client) handleMessage(msg Message) {
	logger := c.Manager.logger.With("clientID", c.ID, "type", msg.Type)

	switch msg.Type {
	case TypePosition:
		var p PositionPayload
		if err := c.decode(msg, &p); err != nil {
			logger.Warn("invalid position", "error", err)
			c.sendError(msg.Type, err)
			return
		}
		ts := p.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		c.feed.Publish(location.Fix{Coordinate: p.Coordinate(), Heading: p.Heading, Timestamp: ts})
	case TypeHeading:
		var p HeadingPayload
		if err := c.decode(msg, &p); err != nil {
			logger.Warn("invalid heading", "error", err)
			c.sendError(msg.Type, err)
			return
		}
		c.engine.OnHeading(p.Heading)
	case TypeDestination:
		var p DestinationPayload
		if err := c.decode(msg, &p); err != nil {
			logger.Warn("invalid destination", "error", err)
			c.sendError(msg.Type, err)
			return
		}
		go c.selectDestination(p.Lat, p.Lon, p.Label)
	case TypeSelectRoute:
		var p SelectRoutePayload
		if err := c.decode(msg, &p); err != nil {
			c.sendError(msg.Type, err)
			return
		}
		if err := c.engine.SelectRoute(p.Index); err != nil {
			logger.Debug("failed to select route", "error", err)
			c.sendError(msg.Type, err)
		}
	case TypeStart:
		if err := c.engine.Start(); err != nil {
			logger.Debug("failed to start navigation", "error", err)
			c.sendError(msg.Type, err)
		}
	case TypeCancel:
		c.engine.Cancel()
	case TypeSession:
		c.sendJSON(TypeSession, c.engine.Snapshot())
	case TypeFavorites:
		c.handleFavorites(msg)
	case TypeFavoriteAdd:
		var p FavoriteAddPayload
		if err := c.decode(msg, &p); err != nil {
			c.sendError(msg.Type, err)
			return
		}
		// Naming may need a reverse geocode, keep it off the read loop.
		go c.addFavorite(p)
	case TypeFavoriteRoute:
		var p FavoritePayload
		if err := c.decode(msg, &p); err != nil {
			c.sendError(msg.Type, err)
			return
		}
		if c.Manager.deps.Favorites == nil {
			c.sendError(msg.Type, errFavoritesUnavailable)
			return
		}
		fav, err := c.Manager.deps.Favorites.Get(c.ctx, c.ID, p.ID)
		if err != nil {
			c.sendError(msg.Type, err)
			return
		}
		go c.selectDestination(fav.Coordinate.Lat, fav.Coordinate.Lon, fav.Name)
	case TypeFavoriteDelete:
		var p FavoritePayload
		if err := c.decode(msg, &p); err != nil {
			c.sendError(msg.Type, err)
			return
		}
		if c.Manager.deps.Favorites == nil {
			c.sendError(msg.Type, errFavoritesUnavailable)
			return
		}
		if err := c.Manager.deps.Favorites.Delete(c.ctx, c.ID, p.ID); err != nil {
			c.sendError(msg.Type, err)
			return
		}
		c.handleFavorites(msg)
	default:
		logger.Debug("received unknown type message")
	}
}

func (c *Client) selectDestination(lat, lon float64, label string) {
	dest := geo.Coordinate{Lat: lat, Lon: lon}
	err := c.engine.SelectDestination(c.ctx, dest, label)
	if err != nil && !errors.Is(err, guidance.ErrSuperseded) {
		c.Manager.logger.Debug("directions request failed", "clientID", c.ID, "error", err)
	}
}

func (c *Client) handleFavorites(msg Message) {
	if c.Manager.deps.Favorites == nil {
		c.sendError(msg.Type, errFavoritesUnavailable)
		return
	}
	list, err := c.Manager.deps.Favorites.List(c.ctx, c.ID)
	if err != nil {
		c.Manager.logger.Warn("failed to list favorites", "clientID", c.ID, "error", err)
		c.sendError(msg.Type, err)
		return
	}
	c.sendJSON(TypeFavorites, list)
}

func (c *Client) addFavorite(p FavoriteAddPayload) {
	if c.Manager.deps.Favorites == nil {
		c.sendError(TypeFavoriteAdd, errFavoritesUnavailable)
		return
	}
	coord := geo.Coordinate{Lat: p.Lat, Lon: p.Lon}

	name := p.Name
	if name == "" {
		name = geocode.DroppedPin
		if c.Manager.deps.Geocoder != nil {
			name, _ = geocode.Resolve(c.ctx, c.Manager.deps.Geocoder, coord)
		}
	}
	if _, err := c.Manager.deps.Favorites.Add(c.ctx, c.ID, name, coord); err != nil {
		c.Manager.logger.Warn("failed to add favorite", "clientID", c.ID, "error", err)
		c.sendError(TypeFavoriteAdd, err)
		return
	}
	c.handleFavorites(Message{Type: TypeFavoriteAdd})
}

func (c *Client) decode(msg Message, v any) error {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return fmt.Errorf("unmarshalling %s: %w", msg.Type, err)
	}
	if err := c.Manager.validate.Struct(v); err != nil {
		return fmt.Errorf("validating %s: %w", msg.Type, err)
	}
	return nil
}
