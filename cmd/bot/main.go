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
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"streaming_watcher/internal/config"
	"streaming_watcher/internal/registry"
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

	if cfg.Slack.AppToken == "" {
		logger.Error("slack.app_token must be set for the bot")
		os.Exit(1)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	registrySvc := registry.NewService(postgres.NewChannelStore(db), logger)

	api := slack.New(cfg.Slack.BotToken, slack.OptionAppLevelToken(cfg.Slack.AppToken))
	client := socketmode.New(api)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	go func() {
		for evt := range client.Events {
			switch evt.Type {
			case socketmode.EventTypeConnected:
				logger.Info("connected to slack")
			case socketmode.EventTypeEventsAPI:
				eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				client.Ack(*evt.Request)

				mention, ok := eventsAPIEvent.InnerEvent.Data.(*slackevents.AppMentionEvent)
				if !ok {
					continue
				}

				reply, err := registrySvc.HandleMessage(ctx, mention.Text)
				if err != nil {
					logger.Error("handle message failed", "error", err)
					continue
				}
				if reply == "" {
					continue
				}

				logger.Info("call say", "channel", mention.Channel)
				if _, _, err := api.PostMessageContext(ctx, mention.Channel,
					slack.MsgOptionText(reply, false)); err != nil {
					logger.Error("post reply failed", "error", err)
				}
			}
		}
	}()

	logger.Info("starting registration bot")

	if err := client.RunContext(ctx); err != nil && err != context.Canceled {
		logger.Error("socketmode error", "error", err)
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
