package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartclaim/internal/advice"
	"smartclaim/internal/api"
	"smartclaim/internal/config"
	"smartclaim/internal/logger"
	"smartclaim/internal/policy"
	"smartclaim/internal/providers"
	"smartclaim/internal/session"
	"smartclaim/internal/storage"
	"smartclaim/internal/workflows"

	"github.com/joho/godotenv"
	tclient "go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.String("env", cfg.Env), zap.Error(err))
	}
	if cfg.TokenSecret == config.DevTokenSecret {
		log.Warn("signing session tokens with the development secret")
	}

	ctx := context.Background()
	store, closeStore, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open document store", zap.String("store", cfg.Store), zap.Error(err))
	}
	defer closeStore()

	pm, err := providers.NewManager(cfg, log)
	if err != nil {
		log.Fatal("failed to build inference providers", zap.Error(err))
	}
	advisor := advice.NewAdvisor(pm, advice.NewPromptBuilder(cfg.ContextBudget, cfg.SummaryBudget), cfg.InferenceTimeout(), log)
	registry := session.NewRegistry(session.NewIssuer(cfg.TokenSecret, cfg.TokenTTL()), session.Deps{
		Store:        store,
		Advisor:      advisor,
		Classifier:   policy.NewClassifier(cfg.ClassifierWindow),
		PersistDelay: cfg.PersistDebounce(),
		Log:          log,
	})
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go registry.SweepEvery(sweepCtx, time.Minute)

	var importer api.Importer
	if cfg.TemporalAddress != "" {
		tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
		if err != nil {
			log.Fatal("failed to dial temporal", zap.String("address", cfg.TemporalAddress), zap.Error(err))
		}
		defer tc.Close()
		importer = workflows.NewImporter(tc, cfg.TemporalTaskQueue, cfg.OverrideTimeoutSeconds)
	} else {
		log.Info("temporal address not set, batch imports disabled")
	}

	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           api.NewServer(cfg, registry, pm, importer, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("smartclaim api listening",
			zap.String("addr", cfg.APIAddr),
			zap.String("store", cfg.Store),
			zap.String("llm_providers", cfg.LLMProviders),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	<-quit
	log.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	if err := registry.CloseAll(shutdownCtx); err != nil {
		log.Warn("sessions did not flush cleanly", zap.Error(err))
	}
	log.Info("server stopped gracefully")
}
