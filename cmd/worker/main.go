package main

import (
	"context"

	"smartclaim/internal/activities"
	"smartclaim/internal/advice"
	"smartclaim/internal/config"
	"smartclaim/internal/logger"
	"smartclaim/internal/providers"
	"smartclaim/internal/storage"
	"smartclaim/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
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

	if cfg.TemporalAddress == "" {
		log.Fatal("SMARTCLAIM_TEMPORAL_ADDRESS is required for the worker")
	}
	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Fatal("failed to dial temporal", zap.Error(err))
	}
	defer c.Close()

	store, closeStore, err := storage.Open(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("failed to open document store", zap.String("store", cfg.Store), zap.Error(err))
	}
	defer closeStore()

	pm, err := providers.NewManager(cfg, log)
	if err != nil {
		log.Fatal("failed to build inference providers", zap.Error(err))
	}
	advisor := advice.NewAdvisor(pm, advice.NewPromptBuilder(cfg.ContextBudget, cfg.SummaryBudget), cfg.InferenceTimeout(), log)

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	activities.Register(w, activities.New(cfg, store, advisor, log))

	log.Info("smartclaim worker listening",
		zap.String("temporal", cfg.TemporalAddress),
		zap.String("queue", cfg.TemporalTaskQueue),
		zap.String("store", cfg.Store),
		zap.String("llm_providers", cfg.LLMProviders),
	)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal("worker stopped", zap.Error(err))
	}
}
