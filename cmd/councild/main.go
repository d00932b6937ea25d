// Command councild serves the LLM council API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/llmcouncil/llmcouncil/pkg/config"
	"github.com/llmcouncil/llmcouncil/pkg/council"
	"github.com/llmcouncil/llmcouncil/pkg/model/openrouter"
	"github.com/llmcouncil/llmcouncil/pkg/server"
	"github.com/llmcouncil/llmcouncil/pkg/storage"
	"github.com/llmcouncil/llmcouncil/pkg/tool"
	toolbuiltin "github.com/llmcouncil/llmcouncil/pkg/tool/builtin"
	toolmcp "github.com/llmcouncil/llmcouncil/pkg/tool/mcp"
)

func main() {
	if err := run(); err != nil {
		slog.Error("councild exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging.Level)
	slog.SetDefault(logger)

	client, err := openrouter.NewClient(cfg.OpenRouter.APIKey,
		openrouter.WithBaseURL(cfg.OpenRouter.BaseURL),
		openrouter.WithTimeout(cfg.OpenRouter.Timeout()),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry, closeSources, err := buildRegistry(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSources()

	councilOpts := []council.Option{
		council.WithMaxToolIterations(cfg.Council.MaxToolIterations),
		council.WithLogger(logger),
	}
	if registry != nil {
		councilOpts = append(councilOpts, council.WithTools(registry))
	}
	c, err := council.New(client, cfg.Council.Members, cfg.Council.Chairman, councilOpts...)
	if err != nil {
		return err
	}

	conversations, err := storage.NewConversationStore(cfg.Storage.ConversationsDir)
	if err != nil {
		return err
	}
	templates, err := storage.NewTemplateStore(cfg.Storage.TemplatesDir)
	if err != nil {
		return err
	}

	srv := server.New(c, conversations, templates, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("councild listening", "addr", cfg.Server.Addr, "members", cfg.Council.Members, "chairman", cfg.Council.Chairman)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// buildRegistry assembles the Stage 1 tool surface: builtins plus any
// configured MCP servers. Returns a nil registry when tools are disabled.
func buildRegistry(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*tool.Registry, func(), error) {
	if !cfg.Tools.Enabled {
		return nil, func() {}, nil
	}
	registry := tool.NewRegistry()
	builtins := []tool.Tool{
		toolbuiltin.NewWebSearchTool(cfg.Tools.TavilyAPIKey),
		toolbuiltin.NewCalculatorTool(),
		toolbuiltin.NewWikipediaTool(),
		toolbuiltin.NewURLContentTool(),
	}
	for _, t := range builtins {
		if err := registry.Register(t); err != nil {
			return nil, nil, err
		}
	}

	var sources []*toolmcp.Source
	for _, spec := range cfg.Tools.MCPServers {
		source := toolmcp.NewSource(spec)
		if err := source.Register(ctx, registry); err != nil {
			// An unreachable tool server should not keep the council down.
			logger.Warn("mcp server skipped", "spec", spec, "error", err)
			source.Close()
			continue
		}
		sources = append(sources, source)
	}
	closeSources := func() {
		for _, s := range sources {
			if err := s.Close(); err != nil {
				logger.Warn("mcp close failed", "error", err)
			}
		}
	}

	if err := registry.Validate(); err != nil {
		closeSources()
		return nil, nil, err
	}
	logger.Info("tools ready", "count", registry.Len())
	return registry, closeSources, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
