package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/RaikyD/laundry-queue/internal/application"
	"github.com/RaikyD/laundry-queue/internal/config"
	"github.com/RaikyD/laundry-queue/internal/kafka"
	"github.com/RaikyD/laundry-queue/internal/logger"
	"github.com/RaikyD/laundry-queue/internal/presentation"
	"github.com/RaikyD/laundry-queue/internal/rabbitmq"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web page and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}
}

func runServer(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lock, err := acquireLock(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	repo, closeRepo, err := openRepo(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	opts := []application.Option{
		application.WithDailyLimit(cfg.DAILY_LIMIT),
		application.WithStorageTimeout(cfg.STORAGE_TIMEOUT),
	}
	publisher, closePublisher, err := openPublisher(cfg)
	if err != nil {
		logger.Warn("event publisher unavailable, continuing without events", "err", err)
	} else if publisher != nil {
		opts = append(opts, application.WithPublisher(publisher))
		defer closePublisher()
	}

	svc := application.NewQueueService(repo, opts...)
	defer svc.Close()
	svc.Load(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP_PORT,
		Handler:           presentation.NewRouter(presentation.NewQueueHandler(svc), 60*time.Second),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http", "addr", srv.Addr, "daily_limit", svc.DailyLimit())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.KAFKA_BROKERS != "" && cfg.KAFKA_INTAKE_TOPIC != "" {
		consumer := kafka.NewConsumer(svc, kafka.ConsumerConfig{
			Brokers: cfg.KAFKA_BROKERS,
			Topic:   cfg.KAFKA_INTAKE_TOPIC,
			GroupID: cfg.KAFKA_GROUP_ID,
		})
		g.Go(func() error { return consumer.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown failed", "err", err)
		}
		if err := svc.Flush(shutdownCtx); err != nil {
			logger.Warn("pending writes not flushed", "err", err)
		}
		return nil
	})

	return g.Wait()
}

// openPublisher returns a nil publisher when events are disabled.
func openPublisher(cfg *config.Config) (application.EventPublisher, func(), error) {
	switch cfg.EVENTS {
	case config.EventsKafka:
		prod := kafka.NewProducer(cfg.KAFKA_BROKERS, cfg.KAFKA_TOPIC)
		logger.Info("kafka events enabled", "topic", cfg.KAFKA_TOPIC)
		return prod, func() { _ = prod.Close() }, nil
	case config.EventsRabbitMQ:
		pub, err := rabbitmq.Dial(cfg.RABBITMQ_URL, cfg.RABBITMQ_EXCHANGE)
		if err != nil {
			return nil, func() {}, err
		}
		logger.Info("rabbitmq events enabled", "exchange", cfg.RABBITMQ_EXCHANGE)
		return pub, func() { _ = pub.Close() }, nil
	}
	return nil, func() {}, nil
}
