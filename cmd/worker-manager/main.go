// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"vehicle-techdata-workers/internal/common/camunda"
	"vehicle-techdata-workers/internal/common/config"
	"vehicle-techdata-workers/internal/common/database"
	"vehicle-techdata-workers/internal/common/logger"
	"vehicle-techdata-workers/internal/common/observability"
	"vehicle-techdata-workers/internal/techdata/aggregator"
	"vehicle-techdata-workers/pkg/registry"

	frn "vehicle-techdata-workers/internal/workers/vehicle/fetch-repair-nodes"
	ftp "vehicle-techdata-workers/internal/workers/vehicle/fetch-technical-profile"
)

const (
	healthAddr   = ":8080"
	registryPath = "configs/activity-registry.json"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	log.Info("starting worker manager", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	if err := cfg.ValidateForWorkers(); err != nil {
		zapLog.Fatal("invalid worker configuration", zap.Error(err))
	}

	obs := observability.NewWithOptions(observability.Options{
		ServiceName:      cfg.Observability.ServiceName,
		TracingEnabled:   cfg.Observability.TracingEnabled,
		TraceSampleRatio: cfg.Observability.TraceSampleRatio,
	})
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init Zeebe Client with retry ---
	zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	log.Info("zeebe client connected", map[string]interface{}{"gateway": cfg.Camunda.BrokerAddress})

	// --- Optional Redis response cache ---
	var rdb *redis.Client
	if cfg.Database.Redis.Enabled {
		rc, err := database.NewRedis(cfg.Database.Redis)
		if err == nil {
			err = rc.Ping(ctx)
		}
		if err != nil {
			// Caching is an optimisation; run uncached rather than refuse to start.
			log.Warn("redis unavailable, provider responses will not be cached", map[string]interface{}{
				"address": cfg.Database.Redis.Address,
				"error":   err.Error(),
			})
		} else {
			defer rc.Close()
			rdb = rc.GetClient()
			log.Info("redis connected", map[string]interface{}{"address": cfg.Database.Redis.Address})
		}
	}

	// --- Register workers ---
	engine := aggregator.NewEngineFromConfig(cfg, rdb, obs, log)
	swsClient := aggregator.NewSWSClientFromConfig(cfg, rdb, log)

	var workers []*camunda.CamundaWorker

	profileHandler := ftp.NewHandler(ftp.LoadConfig(cfg), engine, &technicalProfileLoggerAdapter{log})
	if w := camunda.NewWorker(zeebe.Zeebe(), ftp.TaskType, config.GetWorkerConfig(cfg, ftp.TaskType), profileHandler, obs, log); w != nil {
		workers = append(workers, w)
	}

	repairHandler := frn.NewHandler(frn.LoadConfig(cfg), swsClient, &repairNodesLoggerAdapter{log})
	if w := camunda.NewWorker(zeebe.Zeebe(), frn.TaskType, config.GetWorkerConfig(cfg, frn.TaskType), repairHandler, obs, log); w != nil {
		workers = append(workers, w)
	}

	log.Info("workers registered", map[string]interface{}{"count": len(workers)})
	checkRegistry(log, ftp.TaskType, frn.TaskType)

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "zeebe unreachable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	srv := &http.Server{Addr: healthAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"addr": healthAddr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info("shutdown signal received, stopping workers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("health/metrics server shutdown failed", map[string]interface{}{"error": err.Error()})
	}

	log.Info("worker manager stopped gracefully", nil)
}

// checkRegistry warns about task types missing from the activity registry. The registry is
// documentation, so a missing file is not fatal.
func checkRegistry(log logger.Logger, taskTypes ...string) {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		log.Warn("activity registry not loaded", map[string]interface{}{"path": registryPath, "error": err.Error()})
		return
	}
	if err := reg.Validate(); err != nil {
		log.Warn("activity registry is invalid", map[string]interface{}{"path": registryPath, "error": err.Error()})
	}
	for _, tt := range taskTypes {
		if _, ok := reg.Find(tt); !ok {
			log.Warn("task type missing from activity registry", map[string]interface{}{"taskType": tt})
		}
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Logger adapters for workers that have their own Logger interfaces
type technicalProfileLoggerAdapter struct {
	logger.Logger
}

func (a *technicalProfileLoggerAdapter) With(fields map[string]interface{}) ftp.Logger {
	return &technicalProfileLoggerAdapter{a.Logger.With(fields)}
}

type repairNodesLoggerAdapter struct {
	logger.Logger
}

func (a *repairNodesLoggerAdapter) With(fields map[string]interface{}) frn.Logger {
	return &repairNodesLoggerAdapter{a.Logger.With(fields)}
}
