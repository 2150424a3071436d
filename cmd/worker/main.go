package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/lokapasar/lokapasar-backend/internal/notifications"
	"github.com/lokapasar/lokapasar-backend/internal/users"
	"github.com/lokapasar/lokapasar-backend/pkg/config"
	"github.com/lokapasar/lokapasar-backend/pkg/db"
	"github.com/lokapasar/lokapasar-backend/pkg/instance"
	"github.com/lokapasar/lokapasar-backend/pkg/logger"
	"github.com/lokapasar/lokapasar-backend/pkg/mailer"
	"github.com/lokapasar/lokapasar-backend/pkg/migrate"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox/idempotency"
	"github.com/lokapasar/lokapasar-backend/pkg/pubsub"
	"github.com/lokapasar/lokapasar-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	idempotencyManager, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency manager", err)
		os.Exit(1)
	}

	var consumerOpts []notifications.ConsumerOption
	if cfg.Mailer.APIKey != "" {
		mailOpts := []mailer.Option{
			mailer.WithSender(cfg.Mailer.DefaultFrom, cfg.Mailer.FromName),
			mailer.WithMaxRetries(cfg.Mailer.MaxRetries),
		}
		if cfg.Mailer.BaseURL != "" {
			mailOpts = append(mailOpts, mailer.WithBaseURL(cfg.Mailer.BaseURL))
		}
		if cfg.Mailer.Timeout > 0 {
			mailOpts = append(mailOpts, mailer.WithHTTPClient(&http.Client{Timeout: cfg.Mailer.Timeout}))
		}
		mailClient, err := mailer.NewClient(cfg.Mailer.APIKey, mailOpts...)
		if err != nil {
			logg.Error(context.Background(), "failed to create mailer client", err)
			os.Exit(1)
		}
		consumerOpts = append(consumerOpts, notifications.WithEmail(mailClient, users.NewRepository(dbClient.DB())))
	}

	repo := notifications.NewRepository(dbClient.DB())
	var consumers []*notifications.Consumer
	for _, sub := range []struct {
		name         string
		subscription string
	}{
		{name: "orders", subscription: cfg.PubSub.OrdersSubscription},
		{name: "notifications", subscription: cfg.PubSub.NotificationSubscription},
	} {
		if sub.subscription == "" {
			continue
		}
		consumer, err := notifications.NewConsumer(repo, pubsubClient.Subscription(sub.subscription), idempotencyManager, logg, consumerOpts...)
		if err != nil {
			logg.Error(context.Background(), "failed to create "+sub.name+" consumer", err)
			os.Exit(1)
		}
		consumers = append(consumers, consumer)
	}

	service, err := NewService(ServiceParams{
		Config:    cfg,
		Logger:    logg,
		DB:        dbClient,
		Redis:     redisClient,
		PubSub:    pubsubClient,
		Consumers: consumers,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "worker",
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting notification worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}
