package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/geocoder89/avajson/internal/config"
	"github.com/geocoder89/avajson/internal/documents"
	"github.com/geocoder89/avajson/internal/gateway"
	httpx "github.com/geocoder89/avajson/internal/http"
	"github.com/geocoder89/avajson/internal/http/handlers"
	"github.com/geocoder89/avajson/internal/observability"
	"github.com/geocoder89/avajson/internal/redisclient"
	"github.com/geocoder89/avajson/internal/registry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "err", err)
		os.Exit(1)
	}
}

// run serves the API until SIGINT or SIGTERM, returning startup and listen
// failures to main.
func run() error {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if cfg.OTelEnabled {
		ctx, cancel := config.WithTimeout(5 * time.Second)
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: observability.ServiceName,
			Env:         cfg.Env,
			Endpoint:    cfg.OTelEndpoint,
			SampleRatio: cfg.OTelSampleRatio,
		})
		cancel()

		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() {
				ctx, cancel := config.WithTimeout(5 * time.Second)
				defer cancel()
				_ = shutdownTracer(ctx)
			}()
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	// registry: re-read per request unless a cache TTL is configured
	fileRegistry := registry.NewFileStore(cfg.RegistryFile, prom)
	var users registry.Loader = fileRegistry

	ready := []handlers.ReadinessCheck{{Name: "registry", Check: fileRegistry.Exists}}

	if cfg.RegistryCacheTTL > 0 {
		var backend registry.Cache = registry.NewMemoryCache(cfg.RegistryCacheTTL)

		if cfg.RedisAddr != "" {
			rdb := redisclient.New(redisclient.Config{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			defer rdb.Close()

			backend = registry.NewRedisCache(rdb, cfg.RegistryCacheTTL)
			ready = append(ready, handlers.ReadinessCheck{Name: "redis", Check: rdb.Ping})
		}

		users = registry.NewCachedStore(fileRegistry, backend, registry.CacheKey(cfg.RegistryFile), log, prom)
		log.Info("registry cache enabled", "backend", backend.Name(), "ttl", cfg.RegistryCacheTTL.String())
	}

	docs := documents.NewFileStore(cfg.BaseDir, documents.Ext, prom)

	gw, err := gateway.New(gateway.Options{
		AllowedFiles: cfg.AllowedFiles,
		DefaultFile:  cfg.DefaultFile,
	}, users, docs, prom)
	if err != nil {
		return fmt.Errorf("invalid gateway configuration: %w", err)
	}

	router := httpx.NewRouter(cfg, httpx.Deps{
		Log:      log,
		Gateway:  gw,
		Prom:     prom,
		Gatherer: reg,
		Ready:    ready,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info("server starting",
			"port", cfg.Port,
			"env", cfg.Env,
			"base_dir", cfg.BaseDir,
			"registry", cfg.RegistryFile,
			"allowed_files", cfg.AllowedFiles,
			"default_file", gw.DefaultFile(),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
	}
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")
	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}

	return nil
}
