package main

import (
	"os"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/minishop/backend-minishop/internal/app"
	"github.com/minishop/backend-minishop/internal/config"
	"github.com/minishop/backend-minishop/internal/notify"
	"github.com/minishop/backend-minishop/internal/obs"
	"github.com/minishop/backend-minishop/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	asynqOpt, err := app.AsynqRedisOpt(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse asynq redis options")
	}

	botLogger := logger.With().Str("target", "telegram").Logger()
	var notifier telegram.Notifier = &telegram.BotClient{
		Token:   cfg.BotToken,
		BaseURL: cfg.BotAPIBaseURL,
		HTTP:    app.NewOutboundHTTP(cfg, "telegram", &botLogger),
	}
	if cfg.BotToken == "" {
		notifier = telegram.NopNotifier{}
	}

	srv := asynq.NewServer(asynqOpt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"default": 1,
		},
	})

	mux := asynq.NewServeMux()
	worker := &notify.Worker{Notifier: notifier, Logger: logger}
	worker.Register(mux)

	logger.Info().Msg("worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped with error")
	}
	logger.Info().Msg("worker shutdown complete")
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
