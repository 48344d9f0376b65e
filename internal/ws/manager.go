package ws

import (
	"context"
	"log/slog"
	"supmap-guidance/internal/directions"
	"supmap-guidance/internal/favorites"
	"supmap-guidance/internal/geo"
	"supmap-guidance/internal/geocode"
	"supmap-guidance/internal/guidance"
	"supmap-guidance/internal/metrics"
	"supmap-guidance/internal/navigation"
	"sync"

	"github.com/coder/websocket"
	"github.com/go-playground/validator/v10"
)

type FavoriteStore interface {
	List(ctx context.Context, userID string) ([]favorites.Location, error)
	Add(ctx context.Context, userID, name string, c geo.Coordinate) (favorites.Location, error)
	Get(ctx context.Context, userID, id string) (favorites.Location, error)
	Delete(ctx context.Context, userID, id string) error
}

// Deps are shared by every client's engine.
type Deps struct {
	Guidance   guidance.Config
	Directions directions.Provider
	Geocoder   geocode.Provider
	Sessions   navigation.SessionCache
	Favorites  FavoriteStore
	Metrics    *metrics.Metrics
}

type Manager struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	logger     *slog.Logger
	deps       Deps
	validate   *validator.Validate
}

func NewManager(ctx context.Context, logger *slog.Logger, deps Deps) *Manager {
	ctx, cancel := context.WithCancel(ctx)
	return &Manager{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Message),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
		deps:       deps,
		validate:   validator.New(),
	}
}

func (m *Manager) Start() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			if previous, ok := m.clients[client.ID]; ok {
				// A new connection for the same user supersedes the old one.
				go previous.Close()
			} else {
				m.deps.Metrics.ConnectedClients.Inc()
			}
			m.clients[client.ID] = client
			m.mu.Unlock()
			m.logger.Info("client connected", "clientID", client.ID)
		case client := <-m.unregister:
			m.mu.Lock()
			if current, ok := m.clients[client.ID]; ok && current == client {
				delete(m.clients, client.ID)
				m.deps.Metrics.ConnectedClients.Dec()
				m.logger.Info("client disconnected", "clientID", client.ID)
			}
			m.mu.Unlock()
		case message := <-m.broadcast:
			m.mu.RLock()
			for _, client := range m.clients {
				client.Send(message)
			}
			m.mu.RUnlock()
		case <-m.ctx.Done():
			return
		}
	}
}

// HandleNewConnection starts a client for an accepted websocket connection.
func (m *Manager) HandleNewConnection(userID string, conn *websocket.Conn) {
	NewClient(userID, conn, m).Start()
}

func (m *Manager) Broadcast(message Message) {
	select {
	case m.broadcast <- message:
	case <-m.ctx.Done():
	}
}

// ForEach calls fn for every connected client while holding the read lock.
func (m *Manager) ForEach(fn func(*Client)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, client := range m.clients {
		fn(client)
	}
}

func (m *Manager) Client(id string) (*Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[id]
	return c, ok
}

func (m *Manager) forceDisconnect(c *Client) {
	m.logger.Warn("client send buffer full, disconnecting", "clientID", c.ID)
	go c.Close()
}

func (m *Manager) Shutdown() {
	m.cancel()
	m.mu.Lock()
	clients := make([]*Client, 0, len(m.clients))
	for _, client := range m.clients {
		clients = append(clients, client)
	}
	m.mu.Unlock()
	for _, client := range clients {
		client.Close()
	}
}
