package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/redis/go-redis/v9"
	"log/slog"
	"supmap-guidance/internal/incidents"
)

type Multicaster interface {
	MulticastIncident(ctx context.Context, incident *incidents.Incident, action incidents.Action) error
}

type Subscriber struct {
	logger      *slog.Logger
	client      *redis.Client
	topic       string
	multicaster Multicaster
}

func NewSubscriber(logger *slog.Logger, client *redis.Client, topic string, multicaster Multicaster) *Subscriber {
	return &Subscriber{
		logger,
		client,
		topic,
		multicaster,
	}
}

// Start consumes the incidents channel until ctx is done.
func (s *Subscriber) Start(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.topic)
	defer func() {
		if err := pubsub.Close(); err != nil {
			s.logger.Warn("failed to close pubsub", "error", err)
		}
	}()
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", s.topic, err)
	}
	s.logger.Info("Redis subscriber is running", "topic", s.topic)

	msgCh := pubsub.Channel()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				s.logger.Warn("pubsub channel closed by Redis")
				return nil
			}
			if err := s.handleMessage(ctx, msg); err != nil {
				s.logger.Error("error handling message", "error", err)
			}
		case <-ctx.Done():
			s.logger.Info("shutting down Redis subscriber")
			return nil
		}
	}
}

func (s *Subscriber) handleMessage(ctx context.Context, msg *redis.Message) error {
	s.logger.Debug("received message", "payload", msg.Payload)

	var im IncidentMessage
	if err := json.Unmarshal([]byte(msg.Payload), &im); err != nil {
		return fmt.Errorf("unmarshalling incident message: %w", err)
	}
	if err := im.Validate(); err != nil {
		return err
	}
	if err := s.multicaster.MulticastIncident(ctx, &im.Data, im.Action); err != nil {
		return fmt.Errorf("multicasting incident %d: %w", im.Data.ID, err)
	}
	return nil
}
