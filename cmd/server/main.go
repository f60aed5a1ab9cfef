package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	citizenstore "suratdesa/internal/citizen/store"
	"suratdesa/internal/notify"
	"suratdesa/internal/platform/config"
	"suratdesa/internal/platform/httpserver"
	"suratdesa/internal/platform/kafka"
	"suratdesa/internal/platform/logger"
	"suratdesa/internal/platform/metrics"
	"suratdesa/internal/platform/middleware"
	"suratdesa/internal/platform/postgres"
	"suratdesa/internal/platform/redis"
	"suratdesa/internal/render"
	"suratdesa/internal/render/binder"
	"suratdesa/internal/render/engine"
	"suratdesa/internal/render/layout"
	"suratdesa/internal/request/catalog"
	"suratdesa/internal/request/handler"
	"suratdesa/internal/request/models"
	requeststore "suratdesa/internal/request/store"
	httptransport "suratdesa/internal/transport/http"
	"suratdesa/internal/workflow"
)

// main wires the dependencies and keeps the server lifecycle small. Business
// logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := redis.New(cfg)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New()
	cat := catalog.New(models.SeedTypes())
	requests := requeststore.NewPostgres(db)
	citizens := citizenstore.NewPostgres(db)

	// Broker wiring is optional; without brokers events are dropped and the
	// notifier stays off.
	publisher := workflow.Publisher(workflow.NopPublisher{})
	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = kafka.NewProducer(ctx, cfg.KafkaBrokers, cfg.KafkaTransitionTopic)
		if err != nil {
			log.Error("kafka producer setup failed", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		publisher = workflow.NewKafkaPublisher(producer)
	}

	engineSvc, err := workflow.New(requests, cat, log,
		workflow.WithPublisher(publisher),
		workflow.WithMetrics(m))
	if err != nil {
		log.Error("workflow setup failed", "error", err)
		os.Exit(1)
	}

	layouts, err := layout.New()
	if err != nil {
		log.Error("layout registry setup failed", "error", err)
		os.Exit(1)
	}
	pipeline := render.New(requests, binder.New(citizens), layouts,
		engine.NewWkhtmltopdf(cfg.WkhtmltopdfPath), log,
		render.WithConcurrency(cfg.RenderConcurrency),
		render.WithTimeout(cfg.RenderTimeout),
		render.WithMetrics(m))

	if producer != nil {
		startNotifier(ctx, cfg, citizens, redisClient, log, m)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Requests:  handler.New(engineSvc, pipeline, log),
		Validator: middleware.NewJWTValidator(cfg.JWTSigningKey),
		Logger:    log,
		DB:        db,
		Redis:     redisClient,
	})
	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// startNotifier runs the transition-event consumer and its retry loop in the
// background for the life of the process.
func startNotifier(ctx context.Context, cfg config.Config, citizens citizenstore.Store, redisClient *redis.Client, log *slog.Logger, m *metrics.Metrics) {
	var queue notify.RetryQueue = notify.NewMemoryRetryQueue()
	if redisClient != nil {
		queue = notify.NewRedisRetryQueue(redisClient.Client)
	}

	notifier := notify.New(citizens, &notify.LogSender{Logger: log}, queue, log,
		notify.WithMaxAttempts(cfg.NotifyMaxAttempts),
		notify.WithInitialDelay(cfg.NotifyInitialDelay),
		notify.WithMetrics(m))

	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaConsumerGroup,
		[]string{cfg.KafkaTransitionTopic}, notifier, log)
	if err != nil {
		log.Error("kafka consumer setup failed", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("notifier consumer stopped", "error", err)
		}
	}()
	go func() {
		if err := notifier.RunRetryLoop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("notifier retry loop stopped", "error", err)
		}
	}()
}
