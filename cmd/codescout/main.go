// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command codescout starts the code retrieval API server.
//
// Usage:
//
//	go run ./cmd/codescout
//	go run ./cmd/codescout -port 9090
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/v1/scout/health
//
//	# Hybrid search
//	curl -X POST http://localhost:8080/v1/scout/search \
//	  -H "Content-Type: application/json" \
//	  -d '{"query": "auth btn click", "project": "web", "rewrite": true, "autocut": true}'
//
//	# File context bundle
//	curl -X POST http://localhost:8080/v1/scout/context \
//	  -H "Content-Type: application/json" \
//	  -d '{"filePath": "src/auth/login.ts", "project": "web"}'
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/codescout/services/code_scout"
	"github.com/AleutianAI/codescout/services/code_scout/bundle"
	"github.com/AleutianAI/codescout/services/code_scout/memory"
	"github.com/AleutianAI/codescout/services/code_scout/rewrite"
	"github.com/AleutianAI/codescout/services/code_scout/search"
	"github.com/AleutianAI/codescout/services/code_scout/store"
	"github.com/AleutianAI/codescout/services/llm"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	if err := run(*port, *debug); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(port int, debug bool) error {
	cfg, err := code_scout.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	adapter, err := store.Shared()
	if err != nil {
		return fmt.Errorf("connecting to store: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.EnsureSchema(ctx, adapter.Client()); err != nil {
		cancel()
		return fmt.Errorf("ensuring schema: %w", err)
	}
	cancel()

	rewriteLLM, err := llm.FromEnv("LLM_MODEL_REWRITE", code_scout.DefaultRewriteModel)
	if err != nil {
		return fmt.Errorf("building rewrite LLM client: %w", err)
	}

	searchSvc := search.NewService(adapter, rewrite.NewRewriter(rewriteLLM))
	bundler := bundle.NewBundler(adapter, cfg.Aliases)
	memories := memory.NewStore(adapter)
	handlers := code_scout.NewHandlers(searchSvc, bundler, memories, cfg.DefaultProject)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("codescout"))
	if debug {
		router.Use(gin.Logger())
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	code_scout.RegisterRoutes(v1, handlers)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting codescout server", "addr", srv.Addr, "default_project", cfg.DefaultProject)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
