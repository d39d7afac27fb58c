package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/s1natex/taskflow/internal/config"
	"github.com/s1natex/taskflow/internal/middleware"
	"github.com/s1natex/taskflow/internal/tasks"
	"github.com/s1natex/taskflow/internal/telemetry"
)

func main() {
	fs := flag.NewFlagSet("taskflow", flag.ExitOnError)
	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "taskflow: %v\n", err)
		os.Exit(2)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger) // for third-party packages that use slog

	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Tracing)
	if err != nil {
		logger.Error("tracing_setup_error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repo, err := openRepository(ctx, cfg.Database)
	if err != nil {
		logger.Error("store_open_error",
			slog.String("driver", cfg.Database.Driver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	logger.Info("store_ready", slog.String("driver", cfg.Database.Driver))

	svc := tasks.NewService(repo, logger)
	if cfg.SeedOnStart {
		if err := svc.Reset(ctx); err != nil {
			logger.Error("seed_error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(cfg, svc, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server_listen", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server_error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(ctx, cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		// The store closes only after in-flight requests have drained.
		"http-server": func(ctx context.Context) error {
			logger.Info("server_shutdown")
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			return repo.Close()
		},
		"tracing": func(ctx context.Context) error {
			return shutdownTracing(ctx)
		},
	})

	code := <-wait
	logger.Info("server_exit", slog.Int("code", code))
	os.Exit(code)
}

// newRouter wires the health endpoints, task routes, and middleware stack
func newRouter(cfg *config.Config, svc *tasks.Service, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// ---- Middleware stack (order matters a bit) ----
	// RequestID first so downstream can include it (logger, errors, etc.)
	r.Use(chimw.RequestID)

	// Panic recovery: never crash the server; returns 500 on panics
	r.Use(chimw.Recoverer)

	// Timeouts: cancel handlers that exceed this duration
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Trace-Id"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.RateLimitMiddleware(middleware.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)))

	// ---- Routes ----

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readyzHandler(svc))
	r.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())

	tasks.RegisterRoutes(r, svc, tasks.RouteOptions{
		EnableSeed: cfg.Seed.Enabled,
		Logger:     logger,
	})

	return r
}

type pinger interface {
	Ping(ctx context.Context) error
}

func readyzHandler(p pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}

func openRepository(ctx context.Context, cfg config.DatabaseConfig) (tasks.Repository, error) {
	if cfg.Driver == "memory" {
		return tasks.NewInMemoryRepo(), nil
	}

	dsn := cfg.DSN
	if cfg.Driver == "sqlite" && dsn == "" {
		var err error
		if dsn, err = tasks.SQLiteFileDSN(cfg.Path); err != nil {
			return nil, err
		}
	}

	repo, err := tasks.OpenSQLRepo(ctx, cfg.Driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: l,
	})
	return slog.New(handler)
}
