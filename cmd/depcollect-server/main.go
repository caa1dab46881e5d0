package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/depcollect/pkg/api"
	"github.com/platinummonkey/depcollect/pkg/async"
	"github.com/platinummonkey/depcollect/pkg/collector"
	"github.com/platinummonkey/depcollect/pkg/config"
	"github.com/platinummonkey/depcollect/pkg/observability"
	"github.com/platinummonkey/depcollect/pkg/repository"
)

// Version is set at build time
var Version = "dev"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	log := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Server failed")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := observability.InitOTel(ctx, cfg.Observability.OTel(), log)
	if err != nil {
		return err
	}
	otelMetrics, err := observability.NewOTelMetrics()
	if err != nil {
		return err
	}

	var (
		registry *prometheus.Registry
		metrics  *observability.Metrics
	)
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = observability.NewMetrics(registry)
	}

	// Initialize storage
	stack, err := repository.Open(ctx, cfg.Repository, log)
	if err != nil {
		return err
	}
	stack.Observe(metrics.RecordCacheLookup)

	health := observability.NewHealthChecker(Version)
	if stack.SQL != nil {
		health.AddCheck("sql", true, observability.SQLCheck(stack.SQL.DB()))
	}
	if stack.RedisClient != nil {
		health.AddCheck("redis", false, observability.RedisCheck(stack.RedisClient))
	}

	c := collector.New(stack.Descriptors, stack.Ranges,
		collector.WithLogger(log),
		collector.WithMetrics(metrics),
		collector.WithParallelism(cfg.Collector.Parallelism),
	)

	opts := []api.Option{
		api.WithLogger(log),
		api.WithOTelMetrics(otelMetrics),
		api.WithHealthChecker(health),
		api.WithRepositories(cfg.Repository.Repositories),
	}
	if metrics != nil {
		opts = append(opts, api.WithMetrics(metrics, registry))
	}
	if stack.Memory != nil || stack.FileSystem != nil {
		opts = append(opts, api.WithPublisher(stack))
	}
	server := api.NewServer(c, stack.Descriptors, cfg.Collector, opts...)

	if stack.Watcher != nil {
		async.SafeGo(ctx, 0, log, "descriptor watcher", stack.Watcher.Run)
	}

	scheduler := cron.New()
	if cfg.Server.CachePurgeSchedule != "" && stack.Cache != nil {
		if _, err := scheduler.AddFunc(cfg.Server.CachePurgeSchedule, func() {
			stats := stack.Cache.Stats()
			stack.Cache.Purge()
			log.WithField("entries", stats.ItemCount).Info("Purged descriptor cache")
		}); err != nil {
			stack.Close()
			return err
		}
		log.WithField("schedule", cfg.Server.CachePurgeSchedule).Info("Cache purge scheduled")
	}
	scheduler.Start()

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Probes and metrics on a separate port
	probeMux := http.NewServeMux()
	probeMux.HandleFunc("/health/live", health.Liveness)
	probeMux.HandleFunc("/health/ready", health.Readiness)
	if registry != nil {
		probeMux.Handle("/metrics", observability.MetricsHandler(registry))
	}
	probeServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: probeMux,
	}

	shutdown := observability.NewShutdownManager(log, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.Register("probes", probeServer.Shutdown)
	shutdown.Register("cron", func(context.Context) error {
		<-scheduler.Stop().Done()
		return nil
	})
	shutdown.Register("repository", func(context.Context) error {
		cancel()
		return stack.Close()
	})
	shutdown.Register("otel", func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, providers, log)
	})

	serve := func(name string, s *http.Server) {
		async.SafeGo(ctx, 0, log, name, func(context.Context) error {
			log.WithField("addr", s.Addr).Infof("Starting %s", name)
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	serve("API server", httpServer)
	serve("probe server", probeServer)

	return shutdown.WaitForShutdown(context.Background())
}
