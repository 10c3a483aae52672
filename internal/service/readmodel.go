package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	tmotel "github.com/Strob0t/TaskMate/internal/adapter/otel"
	"github.com/Strob0t/TaskMate/internal/port/cache"
)

// ReadModels caches computed views (graph snapshot, critical path, ranking)
// keyed by scheduler state (epoch and version), so an entry is never served
// after a mutation or to a later process sharing the same L2 cache.
// Concurrent misses for the same key are collapsed into one computation.
type ReadModels struct {
	cache   cache.Cache
	ttl     time.Duration
	group   singleflight.Group
	metrics *tmotel.Metrics
}

// NewReadModels creates a read model cache. A nil cache disables caching.
func NewReadModels(c cache.Cache, ttl time.Duration, metrics *tmotel.Metrics) *ReadModels {
	return &ReadModels{cache: c, ttl: ttl, metrics: metrics}
}

func viewKey(view, state string) string {
	return "view:" + view + ":" + state
}

// loadView returns the cached value of view at state, computing and
// storing it on a miss. Cache failures degrade to recomputation.
func loadView[T any](ctx context.Context, rm *ReadModels, view, state string, compute func(context.Context) (T, error)) (T, error) {
	if rm == nil || rm.cache == nil {
		return compute(ctx)
	}
	key := viewKey(view, state)

	if data, ok, err := rm.cache.Get(ctx, key); err == nil && ok {
		var out T
		if err := json.Unmarshal(data, &out); err == nil {
			rm.count(ctx, true, view)
			return out, nil
		}
	}
	rm.count(ctx, false, view)

	v, err, _ := rm.group.Do(key, func() (any, error) {
		ctx, span := tmotel.StartReadModelSpan(ctx, view)
		defer span.End()

		out, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(out); err == nil {
			if err := rm.cache.Set(ctx, key, data, rm.ttl); err != nil {
				slog.WarnContext(ctx, "read model cache set failed", "view", view, "error", err)
			}
		}
		return out, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (rm *ReadModels) count(ctx context.Context, hit bool, view string) {
	if rm.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("view", view))
	if hit {
		rm.metrics.ReadModelHits.Add(ctx, 1, attrs)
	} else {
		rm.metrics.ReadModelMisses.Add(ctx, 1, attrs)
	}
}
