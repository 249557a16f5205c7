package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/menupix/menupix/internal/bot"
	"github.com/menupix/menupix/internal/config"
	"github.com/menupix/menupix/internal/imagesearch/google"
	"github.com/menupix/menupix/internal/logging"
	"github.com/menupix/menupix/internal/service"
	"github.com/menupix/menupix/internal/vision"
	claudevision "github.com/menupix/menupix/internal/vision/claude"
	openaivision "github.com/menupix/menupix/internal/vision/openai"
	"github.com/menupix/menupix/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	ctx := context.Background()

	analyzer := newMenuAnalyzer(cfg, logger)
	if analyzer == nil {
		return
	}

	if cfg.SearchAPIKey == "" || cfg.SearchEngineID == "" {
		logger.Error("SEARCH_API_KEY and SEARCH_ENGINE_ID are required")
		return
	}
	searcher, err := google.NewSearcher(ctx, cfg.SearchAPIKey, cfg.SearchEngineID)
	if err != nil {
		logger.Error("failed to initialize image search", "error", err)
		return
	}

	menuService := service.NewMenuService(analyzer, searcher, logger)

	if cfg.TelegramToken != "" {
		tgBot, err := bot.NewBot(cfg.TelegramToken, menuService, logger)
		if err != nil {
			logger.Error("failed to start telegram bot", "error", err)
			return
		}
		go func() {
			if err := tgBot.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("telegram bot error", "error", err)
			}
		}()
	}

	server := web.NewServer(menuService, logger)
	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

func newMenuAnalyzer(cfg *config.Config, logger *slog.Logger) vision.MenuAnalyzer {
	switch cfg.VisionBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			logger.Error("CLAUDE_API_KEY is required when VISION_BACKEND=claude")
			return nil
		}
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeAnalyzer(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	default:
		if cfg.OpenAIAPIKey == "" {
			logger.Error("OPENAI_API_KEY is required when VISION_BACKEND=openai")
			return nil
		}
		logger.Info("using OpenAI vision backend", "model", cfg.OpenAIModel)
		return openaivision.NewOpenAIAnalyzer(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
}
