package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/trogers1052/market-analytics/internal/analysis"
	"github.com/trogers1052/market-analytics/internal/api"
	"github.com/trogers1052/market-analytics/internal/cache"
	"github.com/trogers1052/market-analytics/internal/config"
	"github.com/trogers1052/market-analytics/internal/database"
	"github.com/trogers1052/market-analytics/internal/kafka"
	"github.com/trogers1052/market-analytics/internal/logger"
	"github.com/trogers1052/market-analytics/internal/metrics"
	"github.com/trogers1052/market-analytics/internal/scheduler"
	"github.com/trogers1052/market-analytics/internal/service"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.Init("market-analytics", logger.ParseLevel(cfg.Log.Level))

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(cfg.Database.MigrationsPath); err != nil {
		return err
	}
	log.Info("database ready", "host", cfg.Database.Host, "db", cfg.Database.DBName)

	m := metrics.New()
	engine := analysis.NewEngineWithPrecision(cfg.Analysis.Precision)

	var publishers []service.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.AnalysisTopic)
		defer producer.Close()
		publishers = append(publishers, producer)
	}
	var snapshots *cache.Publisher
	if cfg.Redis.Enabled {
		snapshots, err = cache.New(ctx, cache.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			Channel:   cfg.Redis.Channel,
		})
		if err != nil {
			log.Warn("redis unavailable, continuing without snapshot publishing", "error", err)
		} else {
			defer snapshots.Close()
			publishers = append(publishers, snapshots)
		}
	}

	svc := service.New(engine, db, publishers, m, log, cfg.Analysis.HistoryLimit)

	// Background workers use db and the publishers, so they are stopped and
	// joined before any of those are closed.
	var workers sync.WaitGroup
	var sched *scheduler.Scheduler
	defer func() {
		stop()
		if sched != nil {
			stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			if err := sched.Stop(stopCtx); err != nil {
				log.Warn("scheduler stop", "error", err)
			}
			cancel()
		}
		workers.Wait()
	}()

	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.PriceTopic, cfg.Kafka.GroupID, svc, m, log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := consumer.Start(ctx); err != nil {
				log.Error("kafka consumer stopped", "error", err)
			}
		}()
	}

	if cfg.Analysis.Schedule != "" {
		sched, err = scheduler.New(cfg.Analysis.Schedule, db, svc, log)
		if err != nil {
			return err
		}
		sched.WithRetention(db, cfg.Analysis.Retention()).Start()
	}

	handler := api.NewHandler(svc, db, engine.Calculator(), m, log)
	if snapshots != nil {
		handler.WithSnapshots(snapshots)
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.SetupRoutes(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
