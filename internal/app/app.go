// Package app assembles the components shared by the server and worker processes.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/suPer8Hu/mentor-chat/internal/advisor"
	"github.com/suPer8Hu/mentor-chat/internal/ai"
	"github.com/suPer8Hu/mentor-chat/internal/calculation"
	"github.com/suPer8Hu/mentor-chat/internal/chat"
	"github.com/suPer8Hu/mentor-chat/internal/config"
	"github.com/suPer8Hu/mentor-chat/internal/prompt"
	"github.com/suPer8Hu/mentor-chat/internal/settings"
	"github.com/suPer8Hu/mentor-chat/internal/store/redisstore"
	"github.com/suPer8Hu/mentor-chat/internal/turn"
	"gorm.io/gorm"
)

type App struct {
	DB           *gorm.DB
	Chats        *chat.Repo
	Advisors     *advisor.Repo
	Prompts      *prompt.Repo
	Settings     *settings.Repo
	Resolver     *settings.Resolver
	Orchestrator *turn.Orchestrator
	Analyses     *calculation.Service

	// nil when REDIS_ADDR is unset
	Redis *redisstore.Store
}

// NewRegistry registers every provider the settings may name.
func NewRegistry(cfg config.Config) *ai.Registry {
	reg := ai.NewRegistry()
	reg.Register("openrouter", func(ctx context.Context, apiKey string) (ai.Provider, error) {
		if strings.TrimSpace(apiKey) == "" {
			return nil, &ai.ConfigurationError{Msg: "OpenRouter API key is not configured. Please add it in settings."}
		}
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, apiKey, cfg.OpenRouterSiteURL, cfg.OpenRouterAppName), nil
	})
	reg.Register("ollama", func(ctx context.Context, apiKey string) (ai.Provider, error) {
		return ai.NewOllamaProvider(cfg.OllamaBaseURL), nil
	})
	return reg
}

// New wires the application over an open, migrated database.
func New(ctx context.Context, cfg config.Config, gdb *gorm.DB, log zerolog.Logger) (*App, error) {
	sealer, err := settings.NewSealer(cfg.SettingsSecret)
	if err != nil {
		return nil, fmt.Errorf("settings sealer: %w", err)
	}
	if cfg.SettingsSecret == "" {
		log.Warn().Msg("SETTINGS_SECRET not set, provider API keys are stored unencrypted")
	}

	a := &App{
		DB:       gdb,
		Chats:    chat.NewRepo(gdb),
		Advisors: advisor.NewRepo(gdb),
		Prompts:  prompt.NewRepo(gdb),
		Settings: settings.NewRepo(gdb, sealer),
	}
	a.Chats.OnDelete(calculation.DeleteInTx)
	a.Chats.OnDelete(chat.DeleteJobsInTx)

	a.Resolver = settings.NewResolver(a.Settings, NewRegistry(cfg), settings.Defaults{
		Provider:      cfg.AIProvider,
		APIKey:        cfg.OpenRouterAPIKey,
		Model:         cfg.OpenRouterModel,
		FallbackModel: cfg.OpenRouterFallbackModel,
	}, log)

	var locker turn.Locker
	if cfg.RedisAddr != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		rds, err := redisstore.New(pingCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.Redis = rds
		locker = rds.TurnLocker(cfg.TurnLockTTL)
		log.Info().Str("addr", cfg.RedisAddr).Msg("turn lock shared through redis")
	}

	a.Orchestrator = turn.NewOrchestrator(a.Chats, a.Advisors, a.Resolver, locker, log)
	a.Analyses = calculation.NewService(a.Chats, a.Prompts, a.Settings, calculation.NewRepo(gdb), a.Resolver, log)
	return a, nil
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
