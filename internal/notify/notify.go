package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"stockwatch/internal/models"
	"stockwatch/internal/websocket"
)

// Sink delivers an alert to an operator-facing channel.
type Sink interface {
	Notify(ctx context.Context, a models.Alert) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, a models.Alert) error

func (f SinkFunc) Notify(ctx context.Context, a models.Alert) error { return f(ctx, a) }

// Multi fans an alert out to every sink. All sinks are attempted; their
// errors are joined.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, a models.Alert) error {
	var errs []error
	for _, s := range m {
		if err := s.Notify(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes alerts to a logger.
type LogSink struct {
	Logger *log.Logger
}

func (s LogSink) Notify(_ context.Context, a models.Alert) error {
	l := s.Logger
	if l == nil {
		l = log.Default()
	}
	l.Printf("alert [%s] %s: %s", a.Severity, a.Title, a.Message)
	return nil
}

// NotificationInserter persists alerts.
type NotificationInserter interface {
	InsertNotification(ctx context.Context, a models.Alert) (int64, error)
}

// StoreSink records alerts in the notifications table.
type StoreSink struct {
	Store NotificationInserter
}

func (s StoreSink) Notify(ctx context.Context, a models.Alert) error {
	if _, err := s.Store.InsertNotification(ctx, a); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

// HubSink pushes alerts to connected WebSocket clients.
type HubSink struct {
	Hub *websocket.Hub
}

func (s HubSink) Notify(_ context.Context, a models.Alert) error {
	return s.Hub.Broadcast(websocket.Event{Type: "alert", ID: a.ID, Action: a.Kind, Payload: a})
}

// Publisher is the subset of the Redis client used by RedisSink.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisSink publishes alerts as JSON on a Redis channel.
type RedisSink struct {
	Client  Publisher
	Channel string
}

// NewRedisSink connects to addr and returns a sink publishing on channel.
func NewRedisSink(addr, password, channel string) (*RedisSink, *redis.Client) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisSink{Client: client, Channel: channel}, client
}

func (s *RedisSink) Notify(ctx context.Context, a models.Alert) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	if err := s.Client.Publish(ctx, s.Channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}
