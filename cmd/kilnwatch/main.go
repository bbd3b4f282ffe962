package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/markpostal/kiln-watch/internal/archive"
	"github.com/markpostal/kiln-watch/internal/cache"
	"github.com/markpostal/kiln-watch/internal/config"
	"github.com/markpostal/kiln-watch/internal/errors"
	"github.com/markpostal/kiln-watch/internal/logger"
	"github.com/markpostal/kiln-watch/internal/observations"
	"github.com/markpostal/kiln-watch/internal/pid"
	"github.com/markpostal/kiln-watch/internal/record"
	"github.com/markpostal/kiln-watch/internal/telemetry"
	"github.com/markpostal/kiln-watch/internal/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
)

const shutdownTimeout = 10 * time.Second

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	if err := pid.Write(); err != nil {
		var appErr errors.Error
		if errors.As(err, &appErr) {
			logger.FatalWithCode(appErr).Msg("Failed to write PID file")
		}
		logger.Fatal().Err(err).Msg("Failed to write PID file")
	}

	err := run()
	if err := pid.Remove(); err != nil {
		logger.Warn().Err(err).Msg("Failed to remove PID file")
	}
	if err != nil {
		var appErr errors.Error
		if errors.As(err, &appErr) {
			logger.ErrorWithCode(appErr).Msg("Exiting with error")
		} else {
			logger.Error().Err(err).Msg("Exiting with error")
		}
		os.Exit(1)
	}
	logger.Info().Msg("Exiting...")
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.New(reg)

	archiver, err := archive.NewService(archive.Config{
		DBPath:       cfg.ArchiveDB,
		BatchSize:    cfg.ArchiveBatchSize,
		BatchTimeout: cfg.ArchiveBatchTimeout,
		Enabled:      cfg.Archive,
	}, logger.With("archive"))
	if err != nil {
		return err
	}
	defer func() {
		if err := archiver.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close archive")
		}
	}()

	store := observations.NewStore(storeConfig(cfg),
		observations.WithLogger(logger.With("observations")),
		observations.WithTelemetry(metrics),
		observations.WithArchive(archiver),
	)
	logger.Info().Str("store", store.ID()).Msg("Observation store created")

	var handles []*observations.Handle
	if cfg.Simulate {
		handles = append(handles, store.StartSimulating(cfg.Devices))
	} else {
		handles = append(handles, store.StartCollecting())
	}
	handles = append(handles, store.StartOrganizing())

	publisherDone, err := startPublisher(ctx, store)
	if err != nil {
		store.Stop()
		join(handles)
		return err
	}

	srv := web.NewServer(cfg.HTTPPort, web.NewRouter(store,
		web.WithGatherer(reg),
		web.WithRecorder(metrics),
		web.WithLogger(logger.With("web")),
	))

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- errors.New().Wrap(errors.ErrServe, err)
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Received termination signal.")
	case err = <-serveErr:
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn().Err(shutdownErr).Msg("HTTP server forced to shutdown")
	}

	store.Stop()
	join(handles)
	<-publisherDone

	return err
}

func storeConfig(c *config.Config) observations.Config {
	rc := record.DefaultConfig()
	rc.Hours = c.Hours
	rc.RampInterval = c.RampInterval

	return observations.Config{
		BroadcastPort:    c.BroadcastPort,
		QueueTimeout:     c.QueueTimeout,
		PacingDelay:      c.PacingDelay,
		SimulateInterval: c.SimulateInterval,
		PollInterval:     observations.DefaultPollInterval,
		Record:           rc,
	}
}

// startPublisher runs the redis snapshot publisher when configured. The
// returned channel closes once it has stopped.
func startPublisher(ctx context.Context, store *observations.Store) (<-chan struct{}, error) {
	done := make(chan struct{})
	if cfg.RedisAddr == "" {
		close(done)
		return done, nil
	}

	sink, err := cache.NewRedisSink(ctx, cfg.RedisAddr)
	if err != nil {
		close(done)
		return done, err
	}

	publisher, err := cache.NewPublisher(sink, store.SnapshotAll, store.ID(), cfg.PublishInterval, logger.With("cache"))
	if err != nil {
		_ = sink.Close()
		close(done)
		return done, err
	}

	go func() {
		defer close(done)
		defer sink.Close()
		_ = publisher.Run(ctx)
	}()

	return done, nil
}

// join waits for every task and logs the ones that ended with an error.
func join(handles []*observations.Handle) {
	for _, h := range handles {
		if err := h.Wait(); err != nil {
			logger.Warn().Err(err).Str("task", h.Name()).Msg("Task ended with error")
		}
	}
}
