// Package app wires configuration, storage and model backends into the
// services shared by the server and the CLI.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/fleveque/etf-lens/internal/analysis"
	"github.com/fleveque/etf-lens/internal/chat"
	"github.com/fleveque/etf-lens/internal/config"
	"github.com/fleveque/etf-lens/internal/llm"
	"github.com/fleveque/etf-lens/internal/storage"
	"github.com/fleveque/etf-lens/internal/visual"
)

// App holds the constructed services. Close releases the database.
type App struct {
	Analysis    *analysis.Service
	Visuals     *visual.Service
	Chat        *chat.Service
	LLMCallRepo storage.LLMCallRepository

	db *sqlx.DB
}

// New opens storage and builds every service for the configured provider.
// A missing credential is logged, not returned: the services degrade instead.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	llmCallRepo := storage.NewLLMCallRepository(db)

	backends, err := llm.NewBackends(cfg.LLM.Provider, cfg.LLM.APIKey)
	if err != nil {
		db.Close()
		return nil, err
	}
	metered := llm.NewMetered(backends.Text, backends.Image, backends.Chat, cfg.LLM.RatePerMinute, llmCallRepo, logger)

	if cfg.LLM.APIKey == "" {
		logger.Warn("no API key configured; analysis fails and visuals are skipped",
			zap.String("provider", cfg.LLM.Provider),
		)
	}
	if backends.Image == nil {
		logger.Info("provider cannot generate images; visuals will be empty",
			zap.String("provider", cfg.LLM.Provider),
		)
	}

	return &App{
		Analysis: analysis.NewService(analysis.Config{
			Credential: cfg.LLM.APIKey,
			Model:      cfg.LLM.TextModel,
			Mode:       analysis.Mode(cfg.LLM.AnalysisMode),
		}, metered.Text(), logger.Named("analysis")),
		Visuals: visual.NewService(visual.Config{
			Credential: cfg.LLM.APIKey,
			Model:      cfg.LLM.ImageModel,
		}, metered.Image(), logger.Named("visual")),
		Chat: chat.NewService(chat.Config{
			Credential: cfg.LLM.APIKey,
			Model:      cfg.LLM.ChatModel,
		}, chat.NewStore(), metered.Chat(), logger.Named("chat")),
		LLMCallRepo: llmCallRepo,
		db:          db,
	}, nil
}

// Close releases the database connection.
func (a *App) Close() error {
	return a.db.Close()
}
