package subscriber

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"supmap-guidance/internal/incidents"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	incident incidents.Incident
	action   incidents.Action
}

type chanMulticaster chan received

func (c chanMulticaster) MulticastIncident(_ context.Context, incident *incidents.Incident, action incidents.Action) error {
	c <- received{incident: *incident, action: action}
	return nil
}

func TestIncidentMessage_Validate(t *testing.T) {
	valid := IncidentMessage{Data: incidents.Incident{ID: 1, Lat: 48.85, Lon: 2.35, TypeID: 2}, Action: incidents.Create}
	assert.NoError(t, valid.Validate())

	badAction := valid
	badAction.Action = "updated"
	assert.Error(t, badAction.Validate())

	badIncident := valid
	badIncident.Data.ID = 0
	assert.Error(t, badIncident.Validate())

	badCoordinate := valid
	badCoordinate.Data.Lat = 91
	assert.Error(t, badCoordinate.Validate())
}

func TestSubscriber_ForwardsValidIncidents(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	out := make(chanMulticaster, 8)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sub := NewSubscriber(logger, client, "incidents", out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Start(ctx) }()

	// Invalid messages are dropped, so they can be used to wait for the subscription.
	require.Eventually(t, func() bool {
		return mr.Publish("incidents", `{"action":"noop"}`) > 0
	}, 2*time.Second, 10*time.Millisecond)

	mr.Publish("incidents", `not json`)
	mr.Publish("incidents", `{"data":{"id":7,"lat":48.85,"lon":2.35,"type_id":3},"action":"certified"}`)

	select {
	case got := <-out:
		assert.Equal(t, incidents.Incident{ID: 7, Lat: 48.85, Lon: 2.35, TypeID: 3}, got.incident)
		assert.Equal(t, incidents.Certified, got.action)
	case <-time.After(2 * time.Second):
		t.Fatal("incident was not forwarded")
	}
	assert.Empty(t, out)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}

type failingMulticaster struct{}

func (failingMulticaster) MulticastIncident(context.Context, *incidents.Incident, incidents.Action) error {
	return errors.New("boom")
}

func TestSubscriber_HandleMessageErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sub := NewSubscriber(logger, nil, "incidents", failingMulticaster{})

	err := sub.handleMessage(context.Background(), &redis.Message{Payload: `{"data":{"id":1,"lat":1,"lon":1,"type_id":1},"action":"create"}`})
	assert.ErrorContains(t, err, "multicasting incident 1")

	err = sub.handleMessage(context.Background(), &redis.Message{Payload: `{"data":{"id":1,"lat":1,"lon":1,"type_id":1},"action":"bogus"}`})
	assert.ErrorContains(t, err, "invalid action")
}
