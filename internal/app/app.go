// Package app wires configuration, persistence, stores and the inference
// client into a ready mind.Engine. Every binary builds on it.
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/keshon/compagnon/datastore"
	"github.com/keshon/compagnon/internal/ai"
	"github.com/keshon/compagnon/internal/config"
	"github.com/keshon/compagnon/internal/conversation"
	"github.com/keshon/compagnon/internal/history"
	"github.com/keshon/compagnon/internal/knowledge"
	"github.com/keshon/compagnon/internal/logging"
	"github.com/keshon/compagnon/internal/memory"
	"github.com/keshon/compagnon/internal/mind"
	"github.com/keshon/compagnon/internal/moderation"
	"github.com/keshon/compagnon/internal/proactive"
	"github.com/keshon/compagnon/internal/profile"
	"github.com/keshon/compagnon/internal/reasoning"
	"github.com/keshon/compagnon/internal/status"
	"github.com/keshon/compagnon/internal/temporal"
)

type App struct {
	Config  *config.Config
	Backend datastore.Backend
	Engine  *mind.Engine
	Metrics *status.Metrics
	Logger  *log.Logger
}

// New opens the configured backend and loads every store from it.
func New(cfg *config.Config, logger *log.Logger) (*App, error) {
	backend, err := datastore.Open(cfg.StorageBackend, cfg.DataDir, cfg.StorageBackups, logger.WithPrefix("datastore"))
	if err != nil {
		return nil, fmt.Errorf("open datastore: %w", err)
	}
	return NewWithBackend(cfg, backend, logger), nil
}

// NewWithBackend builds the app on an already opened backend.
func NewWithBackend(cfg *config.Config, backend datastore.Backend, logger *log.Logger) *App {
	ctx := context.Background()
	storeLog := logger.WithPrefix("storage")

	stores := mind.Stores{
		Conversations: conversation.NewStore(backend, cfg.MemoryLength, storeLog),
		Memory:        memory.NewStore(backend, storeLog),
		History:       history.NewStore(backend, storeLog),
		Knowledge:     knowledge.New(backend, storeLog),
		Profiles:      profile.NewStore(backend, storeLog),
		Catalog:       profile.LoadCatalog(ctx, backend, storeLog),
		Reasoning:     reasoning.NewEngine(backend, storeLog),
		Proactive:     proactive.New(backend, proactive.DefaultConfig(), logger.WithPrefix("proactive")),
		Gate:          moderation.NewGate(moderation.LoadRules(ctx, backend, storeLog)),
		Temporal:      temporal.Load(ctx, backend, storeLog),
	}

	metrics := status.NewMetrics()
	ollama := ai.NewOllama(cfg, logger.WithPrefix("ai"))
	ollama.OnDuration(metrics.Inference)

	settings := mind.Settings{
		Prefix:               cfg.Prefix,
		Personality:          cfg.Personality,
		SpontaneousReactions: cfg.SpontaneousReactions,
		BotName:              "Compagnon",
	}
	logger.Info("inference client ready", "model", ollama.Model(), "profile", ollama.Profile().Name, "host", cfg.OllamaHost)

	return &App{
		Config:  cfg,
		Backend: backend,
		Engine:  mind.NewEngine(settings, stores, ollama, metrics, logger.WithPrefix("mind")),
		Metrics: metrics,
		Logger:  logger,
	}
}

// Load reads the configuration and sets up logging before building the app.
func Load() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return New(cfg, logging.Setup(cfg.LogLevel))
}

// Stats is the body served on /stats.
type Stats struct {
	Proactive proactive.Snapshot `json:"proactive"`
	Reasoning reasoning.Stats    `json:"reasoning"`
	Commands  int64              `json:"commands"`
	Users     int                `json:"users"`
	Memories  int                `json:"memories"`
}

func (a *App) Stats() any {
	s := a.Engine.Stores()
	return Stats{
		Proactive: s.Proactive.Snapshot(),
		Reasoning: s.Reasoning.Stats(),
		Commands:  a.Metrics.Commands(),
		Users:     s.Profiles.Count(),
		Memories:  s.Memory.Users(),
	}
}

// StartStatus runs the status server in the background when STATUS_ADDR is
// set. It stops with ctx.
func (a *App) StartStatus(ctx context.Context) {
	if a.Config.StatusAddr == "" {
		return
	}
	srv := status.NewServer(a.Config.StatusAddr, a.Metrics, a.Stats, a.Logger.WithPrefix("status"))
	go func() {
		if err := srv.Run(ctx); err != nil {
			a.Logger.Error("status server stopped", "err", err)
		}
	}()
}

func (a *App) Close() error {
	return a.Backend.Close()
}
