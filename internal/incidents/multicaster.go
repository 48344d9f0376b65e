package incidents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"supmap-guidance/internal/geo"
	"supmap-guidance/internal/metrics"
	"supmap-guidance/internal/navigation"
	"supmap-guidance/internal/ws"
)

// Multicaster forwards incidents to connected clients whose cached route passes
// within radius meters of the incident.
type Multicaster struct {
	Manager      *ws.Manager
	SessionCache navigation.SessionCache
	radius       float64
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func NewMulticaster(manager *ws.Manager, sessionCache navigation.SessionCache, radius float64, m *metrics.Metrics, logger *slog.Logger) *Multicaster {
	return &Multicaster{
		Manager:      manager,
		SessionCache: sessionCache,
		radius:       radius,
		metrics:      m,
		logger:       logger,
	}
}

func (m *Multicaster) MulticastIncident(ctx context.Context, incident *Incident, action Action) error {
	data, err := json.Marshal(IncidentPayload{Incident: incident, Action: action})
	if err != nil {
		return fmt.Errorf("marshalling incident payload: %w", err)
	}

	point := incident.Coordinate()
	m.Manager.ForEach(func(client *ws.Client) {
		session, err := m.SessionCache.GetSession(ctx, client.ID)
		if err != nil || session == nil {
			return
		}
		if !geo.NearPolyline(point, session.Polyline, m.radius) {
			return
		}
		client.Send(ws.Message{Type: ws.TypeIncident, Data: data})
		m.metrics.IncidentsForwarded.Inc()
		m.logger.Debug("incident forwarded", "clientID", client.ID, "incidentID", incident.ID)
	})
	return nil
}
