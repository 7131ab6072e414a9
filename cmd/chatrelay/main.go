package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/germanamz/chatrelay/pkg/config"
	"github.com/germanamz/chatrelay/pkg/dispatch"
	"github.com/germanamz/chatrelay/pkg/logging"
	"github.com/germanamz/chatrelay/pkg/providers/openai"
	"github.com/germanamz/chatrelay/pkg/state"
	"github.com/germanamz/chatrelay/pkg/transport/telegram"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: chatrelay [flags]\n\nRelay Telegram commands to an OpenAI-compatible chat API.\n\nFlags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment:\n  %s, %s, %s, %s (optional), %s (optional), %s, %s\n",
			config.EnvBotToken, config.EnvAPIKey, config.EnvBaseURL, config.EnvModel,
			config.EnvOrganization, config.EnvLogLevel, config.EnvLogFormat)
	}

	configPath := flag.String("config", "", "path to an optional YAML configuration file")
	envFile := flag.String("env", ".env", "path to .env file (ignored if missing)")
	flag.Parse()

	if err := loadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		cancel()
		os.Exit(1) //nolint:gocritic // cancel is called explicitly above
	}
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func run(ctx context.Context, configPath string) error {
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	statsEvery, err := settings.Log.StatsEvery()
	if err != nil {
		return err
	}

	log, err := logging.New(logging.Config{Level: settings.Log.Level, Format: settings.Log.Format})
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	log.InfoContext(ctx, "starting command bot", "api", settings.API)

	store := state.New(settings.API, openai.FromConfig)
	dispatcher := dispatch.New(store, log)

	api, err := telegram.Connect(settings.Telegram.Token, settings.Telegram.APIEndpoint, settings.Telegram.Debug)
	if err != nil {
		return err
	}

	bot := telegram.New(api, dispatcher, telegram.Options{
		Name:    api.Self.UserName,
		Timeout: settings.Telegram.Timeout,
		Log:     log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.Run(gctx) })
	if statsEvery > 0 {
		g.Go(func() error { return reportStats(gctx, store, log, statsEvery) })
	}

	err = g.Wait()
	log.Info("command bot stopped", "messages_handled", store.Counter())

	return err
}
