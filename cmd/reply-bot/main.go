package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"delib-reply-bot/internal/bot"
	"delib-reply-bot/internal/config"
	"delib-reply-bot/internal/delib"
	"delib-reply-bot/internal/handler"
	"delib-reply-bot/internal/ledger"
	"delib-reply-bot/internal/observability"
	"delib-reply-bot/internal/reply"
	"delib-reply-bot/internal/twitter"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sashabaranov/go-openai"
)

func main() {
	// Load configuration first
	cfg := config.Load()

	// Initialize structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}
	observability.InitLogger(logLevel, logFormat)

	slog.Info("starting reply bot")

	tokens := twitter.NewTokenStore(twitter.AuthConfig{
		ClientID:         cfg.TwitterClientID,
		ClientSecret:     cfg.TwitterClientSecret,
		RedirectURI:      cfg.TwitterRedirectURI,
		Scopes:           cfg.TwitterScopes,
		AuthorizationURL: cfg.AuthorizationURL,
		TokenURL:         cfg.TokenURL,
		TokenFile:        cfg.TokenFile,
	})

	twitterClient := twitter.NewClient(cfg.TweetURL, cfg.SearchURL, cfg.SearchWindow)
	delibClient := delib.NewClient(cfg.DelibBaseURL, cfg.DelibAdminKey)

	llmConfig := openai.DefaultConfig(cfg.LLMAPIKey)
	llmConfig.BaseURL = cfg.LLMBaseURL
	llmClient := openai.NewClientWithConfig(llmConfig)

	generator := reply.NewGenerator(llmClient, delibClient, reply.Config{
		ProjectID:             cfg.DefaultProjectID,
		BotUsername:           cfg.TargetUsername,
		AnalyticsURL:          cfg.AnalyticsURL,
		Model:                 cfg.LLMModel,
		ContinuationThreshold: cfg.ContinuationThreshold,
	})

	repliedLog := ledger.New(cfg.RepliedLogFile)

	b := bot.New(tokens, twitterClient, repliedLog, generator, bot.Config{
		TargetUsername:  cfg.TargetUsername,
		TargetIDsFile:   cfg.TargetIDsFile,
		PollingInterval: cfg.PollingInterval,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OpsAddr != "" {
		go serveOps(cfg)
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("shutting down reply bot")
		cancel()
	}()

	if err := b.Run(ctx); err != nil && err != context.Canceled {
		slog.Error("bot stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("reply bot stopped")
}

// serveOps exposes health and metrics endpoints
func serveOps(cfg *config.Config) {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", handler.Health)
	r.Get("/health/ready", handler.Ready(cfg.TokenFile, cfg.RepliedLogFile))
	r.Handle("/metrics", promhttp.Handler())

	slog.Info("ops listener started", slog.String("addr", cfg.OpsAddr))
	if err := http.ListenAndServe(cfg.OpsAddr, r); err != nil {
		slog.Error("ops listener failed", slog.String("error", err.Error()))
	}
}
