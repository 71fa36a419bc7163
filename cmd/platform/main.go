// Package main boots the Sênior Ácido chat service and wires application dependencies.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/easeaico/senior-acido/internal/agent"
	"github.com/easeaico/senior-acido/internal/chat"
	"github.com/easeaico/senior-acido/internal/config"
	"github.com/easeaico/senior-acido/internal/ingest"
	"github.com/easeaico/senior-acido/internal/memory"
	"github.com/easeaico/senior-acido/internal/models"
	"github.com/easeaico/senior-acido/internal/observability"
	"github.com/easeaico/senior-acido/internal/privacy"
	"github.com/easeaico/senior-acido/internal/prompt"
	"github.com/easeaico/senior-acido/internal/router"
	"github.com/easeaico/senior-acido/internal/session"
	"github.com/easeaico/senior-acido/internal/storage"
	"github.com/easeaico/senior-acido/internal/web"
	"github.com/easeaico/senior-acido/internal/world"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLevelNames,
	}))
	slog.SetDefault(logger)
	slog.Info("configuration loaded",
		"capable_model", cfg.CapableModel,
		"economical_model", cfg.EconomicalModel,
		"fallback_model", cfg.FallbackModel,
		"classifier", cfg.ClassifierEnabled,
		"world_context", cfg.WorldContext,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *storage.Store
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, long-term memory lives only in this process")
		store = storage.NewMemoryStore()
	} else {
		store, err = storage.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
	}
	defer store.Close()

	var embedder memory.Embedder = memory.NewHashEmbedder(memory.DefaultDimensions)
	if cfg.GoogleAPIKey != "" {
		remote, err := memory.NewGenAIEmbedder(ctx, cfg.GoogleAPIKey, cfg.EmbeddingModel, memory.DefaultDimensions)
		if err != nil {
			log.Fatalf("failed to create embedder: %v", err)
		}
		embedder = remote
	}

	memoryService := memory.NewService(embedder, store.Profiles, store.Histories, memory.Options{
		HistoryLimit:        cfg.Limits.HistoryLimit,
		TopK:                cfg.Limits.SimilarTopK,
		SimilarityThreshold: cfg.Limits.SimilarityThreshold,
		CallTimeout:         cfg.CallTimeout,
	})

	registry := models.NewGroqRegistry(cfg.LlamaAPIKey, cfg.LlamaBaseURL)
	temperature := float32(cfg.Temperature)
	responder := agent.NewResponder(registry, agent.ResponderOptions{
		FallbackModel: cfg.FallbackModel,
		Temperature:   &temperature,
		Timeout:       cfg.CallTimeout,
	})

	deps := chat.Deps{
		Scanner:   privacy.NewScanner(),
		Ingestor:  ingest.NewIngestor(cfg.Limits),
		Builder:   prompt.NewBuilder(cfg.Limits.PromptChars),
		Responder: responder,
		Memory:    memoryService,
		Metrics:   observability.NewMetrics(cfg.MetricsNamespace),
		Router: router.New(router.Config{
			CapableModel:    cfg.CapableModel,
			EconomicalModel: cfg.EconomicalModel,
			Keywords:        cfg.Routing.Keywords(),
		}),
	}
	if cfg.ClassifierEnabled {
		llm, err := registry.Get(ctx, cfg.ClassifierModel)
		if err != nil {
			log.Fatalf("failed to create classifier model: %v", err)
		}
		classifier, err := agent.NewClassifier(llm, cfg.CallTimeout)
		if err != nil {
			log.Fatalf("failed to create classifier: %v", err)
		}
		deps.Classifier = classifier
	}
	if cfg.WorldContext {
		deps.World = world.NewLookup(cfg.CallTimeout)
	}

	chatService, err := chat.NewService(deps, chat.Options{SessionWindow: cfg.Limits.SessionWindow})
	if err != nil {
		log.Fatalf("failed to create chat service: %v", err)
	}

	personas := prompt.NewPersonaLoader(cfg.PersonaFile)
	sessions := session.NewManager(cfg.UserID, personas.Persona, 12*time.Hour)
	sessions.SetExpireHook(func(s *session.Session) {
		deps.Metrics.SetActiveSessions(sessions.Count())
	})
	sessions.StartJanitor(ctx, 10*time.Minute)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           web.New(chatService, sessions, store, deps.Metrics, cfg.UserID).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.HTTPAddr, "persistent", store.Persistent())
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server failed: %v", err)
		}
	case <-ctx.Done():
		slog.Info("desligando...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
	slog.Info("shutdown complete")
}
