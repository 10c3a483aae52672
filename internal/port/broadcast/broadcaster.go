// Package broadcast defines the port for pushing domain events to live
// clients such as WebSocket dashboards.
package broadcast

import "context"

// Broadcaster fans an event out to every connected client. Delivery is best
// effort and never reports failure to the caller.
type Broadcaster interface {
	// BroadcastEvent sends {type, payload} where eventType is a message
	// queue subject such as "tasks.created".
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
