// CLAUDE:SUMMARY Entry point for the arbo daemon — chi JSON API, optional MCP over stdio, autosave guard, observability.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hazyhaar/arbo/dbopen"
	"github.com/hazyhaar/arbo/observability"
	"github.com/hazyhaar/arbo/site"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"
)

const version = "1.0.0"

func main() {
	port := env("PORT", "8086")
	mcpTransport := env("MCP_TRANSPORT", "")
	logLevel := env("LOG_LEVEL", "info")

	// Logging. In stdio MCP mode the protocol owns stdout, so logs go to
	// stderr there.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logOut := os.Stdout
	if mcpTransport == "stdio" {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Config: YAML file when given, env overrides on top.
	cfg := &site.Config{}
	if path := os.Getenv("ARBO_CONFIG"); path != "" {
		loaded, err := site.LoadConfigFile(path)
		if err != nil {
			slog.Error("load config", "path", path, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if v := os.Getenv("SITE_DB"); v != "" {
		cfg.DBPath = v
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "db/site.db"
	}
	if v := os.Getenv("SITE_NAME"); v != "" {
		cfg.SiteName = v
	}

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Observability tables live in the site database by default; OBS_DB
	// points them at a separate file when write contention matters.
	obsPath := env("OBS_DB", cfg.DBPath)
	obsDB, err := dbopen.Open(obsPath, dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("observability db", "error", err)
		os.Exit(1)
	}
	defer obsDB.Close()
	if err := observability.Init(obsDB); err != nil {
		slog.Error("observability init", "error", err)
		os.Exit(1)
	}

	auditLogger := observability.NewAuditLogger(obsDB, 1000)
	defer auditLogger.Close()
	eventLogger := observability.NewEventLogger(obsDB)
	metrics := observability.NewMetricsManager(obsDB, 100, 5*time.Second)
	defer metrics.Close()

	heartbeat := observability.NewHeartbeatWriter(obsDB, "arbo", 15*time.Second)
	heartbeat.Start(ctx)
	defer heartbeat.Stop()

	// Site service.
	svc, err := site.New(ctx, cfg, logger,
		site.WithAudit(auditLogger),
		site.WithEvents(eventLogger),
		site.WithMetrics(metrics),
	)
	if err != nil {
		slog.Error("site service", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	// Autosave guard: the service saves after every mutation, this catches
	// a mutation whose save failed transiently.
	go func() {
		ticker := time.NewTicker(cfg.AutosaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := svc.Save(ctx); err != nil {
					slog.Warn("autosave", "error", err)
				}
			}
		}
	}()

	// MCP over stdio: the process becomes a tool server, no HTTP.
	if mcpTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "arbo",
			Version: version,
		}, nil)
		svc.RegisterMCP(mcpSrv)

		slog.Info("MCP stdio starting")
		if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			slog.Error("MCP stdio", "error", err)
			os.Exit(1)
		}
		finalSave(svc)
		return
	}

	// Router.
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": version})
	})
	svc.RegisterHTTP(r)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port, "db", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	finalSave(svc)
	slog.Info("server stopped")
}

// finalSave flushes the snapshot once more on the way out.
func finalSave(svc *site.Service) {
	saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer saveCancel()
	if err := svc.Save(saveCtx); err != nil {
		slog.Error("final save", "error", err)
	}
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
