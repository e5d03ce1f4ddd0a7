package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alucardeht/ghflow-mcp/internal/config"
	"github.com/alucardeht/ghflow-mcp/internal/credentials"
	"github.com/alucardeht/ghflow-mcp/internal/github"
	"github.com/alucardeht/ghflow-mcp/internal/gitws"
	"github.com/alucardeht/ghflow-mcp/internal/logger"
	"github.com/alucardeht/ghflow-mcp/internal/mcp"
	"github.com/alucardeht/ghflow-mcp/internal/ratelimit"
	"github.com/alucardeht/ghflow-mcp/internal/workflow"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ghflow: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(cfg.LogLevel)
	logCfg.Format = cfg.LogFormat
	logger.Init(logCfg)

	log := logger.ForComponent("main")
	log.Info("starting github workflow MCP server", "version", version, "repo", cfg.RepoDir)

	token, store := resolveToken(cfg)
	if store != nil {
		defer store.Close()
	}

	var hub workflow.Hub
	if token != "" {
		client, err := github.NewClient(github.Config{
			Token:   token,
			BaseURL: cfg.GitHub.APIBaseURL,
		})
		if err != nil {
			return err
		}
		hub = client
	} else {
		log.Warn("no GitHub token configured, API-dependent workflows will fail")
	}

	workspace := gitws.NewWorkspace(cfg.RepoDir, cfg.GitSlots)

	trackingPath := cfg.TrackingFile
	if !filepath.IsAbs(trackingPath) {
		trackingPath = filepath.Join(cfg.RepoDir, trackingPath)
	}
	projects := workflow.NewProjectLocator(trackingPath, cfg.GitHub.ProjectNumber)
	defer projects.Close()
	cleaner := workflow.NewCleaner(cfg.RepoDir, cfg.WorkFolderPatterns)

	engine := workflow.NewEngine(workspace, hub, projects, cleaner, cfg.GitHub.Owner)
	handler := mcp.NewHandler(engine, mcp.ServerInfo{
		Name:    "ghflow-mcp",
		Version: version,
	})
	server := mcp.NewServer(handler)

	limiter, err := ratelimit.NewLimiter(cfg.RateLimitPerMinute, cfg.RateLimitClients)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	server.Routes(mux)

	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: limiter.Middleware(mux),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Addr())
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}

	return nil
}

// resolveToken prefers the environment-supplied token, falling back to the
// credential store entry for the configured owner. The store handle is
// returned so it stays open for the process lifetime when used.
func resolveToken(cfg *config.Config) (string, *credentials.Store) {
	log := logger.ForComponent("main")

	if cfg.GitHub.Token != "" {
		return cfg.GitHub.Token, nil
	}

	store, err := credentials.Open(cfg.DatabasePath)
	if err != nil {
		log.Warn("credential store unavailable", "path", cfg.DatabasePath, "error", err)
		return "", nil
	}

	if cfg.GitHub.Owner != "" {
		token, err := store.Get(cfg.GitHub.Owner)
		if err == nil {
			return token, store
		}
		if !errors.Is(err, credentials.ErrNotFound) {
			log.Warn("credential lookup failed", "owner", cfg.GitHub.Owner, "error", err)
		}
	}

	return "", store
}
