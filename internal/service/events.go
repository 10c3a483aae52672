package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/TaskMate/internal/port/broadcast"
	"github.com/Strob0t/TaskMate/internal/port/messagequeue"
	"github.com/Strob0t/TaskMate/internal/resilience"
)

// Events fans domain events out to the message queue and to connected
// WebSocket clients. Delivery is best effort: a failed publish is logged and
// never fails the mutation that caused it. Queue, breaker and hub are all
// optional.
type Events struct {
	queue   messagequeue.Queue
	breaker *resilience.Breaker
	hub     broadcast.Broadcaster
}

// NewEvents creates an event publisher.
func NewEvents(queue messagequeue.Queue, breaker *resilience.Breaker, hub broadcast.Broadcaster) *Events {
	return &Events{queue: queue, breaker: breaker, hub: hub}
}

// Publish sends payload on subject. The WebSocket event type is the subject.
func (e *Events) Publish(ctx context.Context, subject string, payload any) {
	if e == nil {
		return
	}
	if e.hub != nil {
		e.hub.BroadcastEvent(ctx, subject, payload)
	}
	if e.queue == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "marshal event", "subject", subject, "error", err)
		return
	}

	publish := func() error { return e.queue.Publish(ctx, subject, data) }
	if e.breaker != nil {
		err = e.breaker.Execute(publish)
	} else {
		err = publish()
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to publish event", "subject", subject, "error", err)
	}
}
