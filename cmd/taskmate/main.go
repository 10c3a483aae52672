package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	tmhttp "github.com/Strob0t/TaskMate/internal/adapter/http"
	tmmcp "github.com/Strob0t/TaskMate/internal/adapter/mcp"
	"github.com/Strob0t/TaskMate/internal/adapter/memory"
	tmnats "github.com/Strob0t/TaskMate/internal/adapter/nats"
	"github.com/Strob0t/TaskMate/internal/adapter/natskv"
	tmotel "github.com/Strob0t/TaskMate/internal/adapter/otel"
	"github.com/Strob0t/TaskMate/internal/adapter/postgres"
	"github.com/Strob0t/TaskMate/internal/adapter/ristretto"
	"github.com/Strob0t/TaskMate/internal/adapter/tiered"
	"github.com/Strob0t/TaskMate/internal/adapter/ws"
	"github.com/Strob0t/TaskMate/internal/config"
	"github.com/Strob0t/TaskMate/internal/logger"
	"github.com/Strob0t/TaskMate/internal/middleware"
	"github.com/Strob0t/TaskMate/internal/port/cache"
	"github.com/Strob0t/TaskMate/internal/port/database"
	"github.com/Strob0t/TaskMate/internal/port/messagequeue"
	"github.com/Strob0t/TaskMate/internal/resilience"
	"github.com/Strob0t/TaskMate/internal/service"
)

const version = "1.0.0"

func main() {
	var err error
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		err = runAdmin(os.Args[2:])
	} else {
		err = run()
	}
	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// configPath returns the YAML file to load, overridable via TASKMATE_CONFIG.
func configPath() string {
	if p := os.Getenv("TASKMATE_CONFIG"); p != "" {
		return p
	}
	return config.DefaultConfigFile
}

func run() error {
	path := configPath()
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	holder := config.NewHolder(cfg, path)

	log, closeLog := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer func() { closeLog.Close() }()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
		"nats", cfg.NATS.Enabled,
		"log_level", cfg.Logging.Level,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---

	shutdownOTEL, err := tmotel.Setup(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTEL(shutdownCtx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()
	metrics, err := tmotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---

	var checks []tmhttp.HealthCheck

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	checks = append(checks, tmhttp.HealthCheck{Name: cfg.Storage.Driver, Check: store.Ping})

	// NATS is optional; without it events only reach WebSocket clients and
	// the cache and idempotency store fall back to L1 / disabled.
	var (
		queue messagequeue.Queue
		l2    cache.Cache
		idem  middleware.IdempotencyStore
	)
	if cfg.NATS.Enabled {
		q, err := tmnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = q.Close() }()
		queue = q
		checks = append(checks, tmhttp.HealthCheck{Name: "nats", Check: func(context.Context) error {
			if !q.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}})

		cacheKV, err := q.KeyValue(ctx, cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
		if err != nil {
			return fmt.Errorf("nats cache bucket: %w", err)
		}
		l2 = natskv.New(cacheKV)

		idemKV, err := q.KeyValue(ctx, cfg.Idempotency.Bucket, cfg.Idempotency.TTL)
		if err != nil {
			return fmt.Errorf("nats idempotency bucket: %w", err)
		}
		idem = idemKV
		slog.Info("nats connected", "url", cfg.NATS.URL)
	}

	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer l1.Close()

	breaker := resilience.NewBreaker("nats-publish", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	breaker.OnStateChange(func(name string, from, to resilience.State) {
		slog.Warn("circuit breaker state change", "breaker", name, "from", from, "to", to)
	})

	// --- Services ---

	hub := ws.NewHub(cfg.Server.CORSOrigin)
	events := service.NewEvents(queue, breaker, hub)
	views := service.NewReadModels(tiered.New(l1, l2, cfg.Cache.L2TTL), cfg.Cache.L2TTL, metrics)
	sched := service.NewScheduler()
	if err := sched.Load(ctx, store); err != nil {
		return fmt.Errorf("load dependency graph: %w", err)
	}

	taskSvc := service.NewTaskService(store, sched, events, metrics)
	depSvc := service.NewDependencyService(store, sched, events, views, metrics)
	prioSvc := service.NewPriorityService(store, sched, views, cfg.Scheduler)
	assignSvc := service.NewAssignmentService(store, sched, events, metrics)
	personSvc := service.NewPersonService(store)

	if queue != nil {
		cancelStatus, err := taskSvc.SubscribeStatusRequests(ctx, queue)
		if err != nil {
			return fmt.Errorf("status request subscriber: %w", err)
		}
		defer cancelStatus()
	}

	// --- HTTP ---

	handlers := &tmhttp.Handlers{
		Tasks:        taskSvc,
		Dependencies: depSvc,
		Priority:     prioSvc,
		Assignment:   assignSvc,
		People:       personSvc,
		Checks:       checks,
	}

	limiter := middleware.NewRateLimiter(cfg.Rate)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(tmotel.HTTPMiddleware(cfg.OTEL.ServiceName))
	r.Use(tmhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(tmhttp.SecurityHeaders)
	r.Use(tmhttp.CORS(cfg.Server.CORSOrigin))

	// WebSocket endpoint (long-lived, outside the request timeout)
	r.Get("/ws", hub.HandleWS)

	api := []func(http.Handler) http.Handler{limiter.Handler, chimw.Timeout(30 * time.Second)}
	if idem != nil {
		api = append(api, middleware.Idempotency(idem))
	}
	tmhttp.MountRoutes(r, handlers, api...)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var mcpSrv *tmmcp.Server
	if cfg.MCP.Enabled {
		mcpSrv = tmmcp.NewServer(tmmcp.ServerConfig{
			Addr:    cfg.MCP.Addr,
			Name:    "taskmate",
			Version: version,
			APIKey:  cfg.MCP.APIKey,
		}, tmmcp.ServerDeps{Priority: prioSvc, Graph: depSvc, Workloads: assignSvc})
		if err := mcpSrv.Start(); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		limiter.Run(gctx, cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
		return nil
	})

	g.Go(func() error {
		watchReload(gctx, holder, &closeLog)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		hub.Close()
		if mcpSrv != nil {
			if err := mcpSrv.Stop(shutdownCtx); err != nil {
				slog.Warn("mcp shutdown", "error", err)
			}
		}
		if queue != nil {
			if err := queue.Drain(); err != nil {
				slog.Warn("nats drain", "error", err)
			}
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStore connects the configured storage backend. PostgreSQL migrations
// are applied before the store is returned.
func openStore(ctx context.Context, cfg *config.Config) (database.Store, func(), error) {
	switch cfg.Storage.Driver {
	case "memory":
		slog.Warn("using in-memory store; data is lost on restart")
		return memory.NewStore(), func() {}, nil
	default:
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		slog.Info("postgres connected")

		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		slog.Info("migrations applied")
		return postgres.NewStore(pool), pool.Close, nil
	}
}

// watchReload reloads the configuration on SIGHUP and swaps in a logger built
// from the new logging section. Other sections take effect on restart.
func watchReload(ctx context.Context, holder *config.Holder, closeLog *logger.Closer) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := holder.Reload(); err != nil {
				slog.Error("config reload failed", "error", err)
				continue
			}
			cfg := holder.Get()
			log, closer := logger.New(cfg.Logging)
			old := *closeLog
			slog.SetDefault(log)
			*closeLog = closer
			old.Close()
			slog.Info("config reloaded", "log_level", cfg.Logging.Level)
		}
	}
}
