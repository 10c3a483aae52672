// Package cachetest holds the behavioral suite every cache.Cache implementation must pass.
package cachetest

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/TaskMate/internal/port/cache"
)

// RunCompliance runs the standard compliance suite against c.
func RunCompliance(t *testing.T, c cache.Cache) {
	t.Helper()
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		if err := c.Set(ctx, "graph.v1", []byte(`{"nodes":[]}`), time.Minute); err != nil {
			t.Fatal(err)
		}
		val, found, err := c.Get(ctx, "graph.v1")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after Set")
		}
		if string(val) != `{"nodes":[]}` {
			t.Fatalf("unexpected value %s", val)
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		_, found, err := c.Get(ctx, "nonexistent")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss for nonexistent key")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = c.Set(ctx, "top.v1.5", []byte("[]"), time.Minute)
		if err := c.Delete(ctx, "top.v1.5"); err != nil {
			t.Fatal(err)
		}
		_, found, err := c.Get(ctx, "top.v1.5")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss after Delete")
		}
	})

	t.Run("DeleteNonexistent", func(t *testing.T) {
		if err := c.Delete(ctx, "never-existed"); err != nil {
			t.Fatal("Delete of nonexistent key should not error")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		_ = c.Set(ctx, "critical_path.v2", []byte("[1]"), time.Minute)
		_ = c.Set(ctx, "critical_path.v2", []byte("[1,2]"), time.Minute)
		val, found, err := c.Get(ctx, "critical_path.v2")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after overwrite")
		}
		if string(val) != "[1,2]" {
			t.Fatalf("expected [1,2] after overwrite, got %s", val)
		}
	})
}
