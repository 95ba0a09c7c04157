package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/feedherald/feedherald/internal/config"
	"github.com/feedherald/feedherald/internal/llm"
	"github.com/feedherald/feedherald/internal/llm/openai"
	"github.com/feedherald/feedherald/internal/observability/otelx"
	"github.com/feedherald/feedherald/internal/pipeline"
	"github.com/feedherald/feedherald/internal/runner"
	"github.com/feedherald/feedherald/internal/seen"
	"github.com/feedherald/feedherald/internal/sink"
	"github.com/feedherald/feedherald/internal/sink/discord"
	feedimpl "github.com/feedherald/feedherald/internal/sources/feed/impl"
)

func main() {
	_ = godotenv.Load()
	env := config.LoadEnv()

	configPath := flag.String("config", env.DigestConfigPath, "path to digest document")
	runOnce := flag.Bool("run-once", env.RunOnce, "run once and exit")
	dryRun := flag.Bool("dry-run", env.DryRun, "log payloads instead of sending")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
	slog.SetDefault(logger)

	doc, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load digest document: %v", err)
	}
	digest := doc.Digest

	if !*dryRun && env.Discord.WebhookURL == "" {
		log.Fatalf("DISCORD_WEBHOOK_URL is required outside dry-run mode")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := otelx.Init(ctx, logger, env.OTel)
	if err != nil {
		log.Fatalf("failed to init otel: %v", err)
	}
	if shutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	store, err := seen.Open(digest.Store)
	if err != nil {
		log.Fatalf("failed to open seen store: %v", err)
	}
	defer store.Close()

	feeds := feedimpl.NewFetcher(env.Feed.HTTPTimeout, env.Feed.UserAgent)
	fetcher, err := pipeline.NewSourceFetcher(feeds, store, digest.Freshness, digest.Sources, env.Feed.UserAgent)
	if err != nil {
		log.Fatalf("failed to build source fetcher: %v", err)
	}

	var enricher *pipeline.Enricher
	if digest.Summary != nil && env.OpenAI.APIKey != "" {
		var client llm.Client = openai.NewClient(env.OpenAI)
		enricher, err = pipeline.NewEnricher(digest.Summary, client, env.OpenAI.Model)
		if err != nil {
			log.Fatalf("failed to build enricher: %v", err)
		}
	} else {
		logger.Info("summarization disabled",
			"summary_configured", digest.Summary != nil,
			"api_key_present", env.OpenAI.APIKey != "")
	}

	var chatSink sink.Sink = sink.Nop{}
	if env.Discord.WebhookURL != "" {
		chatSink, err = discord.NewWebhook(env.Discord)
		if err != nil {
			log.Fatalf("failed to build webhook sink: %v", err)
		}
	}

	dispatcher, err := pipeline.NewDispatcher(chatSink, store, digest.Dispatch, *dryRun)
	if err != nil {
		log.Fatalf("failed to build dispatcher: %v", err)
	}

	run, err := runner.New(logger, digest, fetcher, enricher, dispatcher, store)
	if err != nil {
		log.Fatalf("failed to build runner: %v", err)
	}

	if *runOnce || digest.Trigger == nil {
		if _, err := run.RunOnce(ctx); err != nil {
			log.Fatalf("run failed: %v", err)
		}
		return
	}

	if err := run.Start(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("runner stopped: %v", err)
	}
}
