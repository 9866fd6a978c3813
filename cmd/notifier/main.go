package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"streaming_watcher/internal/config"
	"streaming_watcher/internal/notifier"
	"streaming_watcher/internal/publisher"
	"streaming_watcher/internal/scheduler"
	"streaming_watcher/internal/service"
	"streaming_watcher/internal/source/feed"
	"streaming_watcher/internal/source/twitter"
	"streaming_watcher/internal/source/youtube"
	"streaming_watcher/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channelStore := postgres.NewChannelStore(db)
	videoStore := postgres.NewVideoStore(db)
	gateStore := postgres.NewGateStore(db)
	tweetStore := postgres.NewTweetStore(db)

	feedSource := feed.NewSource(cfg.Feed, logger)

	youtubeSource, err := youtube.NewSource(ctx, cfg.YouTube, logger)
	if err != nil {
		logger.Error("failed to create youtube source", "error", err)
		os.Exit(1)
	}

	var mentions service.MentionScanner
	if cfg.Twitter.BearerToken != "" {
		mentions = twitter.NewScanner(cfg.Twitter, tweetStore, logger)
	} else {
		logger.Info("twitter bearer token not set, social mention scan disabled")
	}

	var events service.Publisher
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		events = rabbitMQ
	} else {
		logger.Info("rabbitmq url not set, event publishing disabled")
	}

	slackNotifier := notifier.NewSlack(cfg.Slack.BotToken, cfg.Slack.Channel, logger)

	notifyService := service.NewNotifyService(
		channelStore,
		videoStore,
		gateStore,
		feedSource,
		youtubeSource,
		mentions,
		slackNotifier,
		events,
		logger,
		cfg.Notify,
	)

	sched := scheduler.NewScheduler(notifyService, cfg.Notify.Interval, logger)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting streaming watcher",
		"interval", cfg.Notify.Interval,
		"slack_channel", cfg.Slack.Channel,
	)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
