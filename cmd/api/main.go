package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/speedx-dev/speedx/internal/analyzer"
	"github.com/speedx-dev/speedx/internal/pageinsight"
	"github.com/speedx-dev/speedx/internal/platform/config"
	"github.com/speedx-dev/speedx/internal/platform/logger"
	"github.com/speedx-dev/speedx/internal/platform/middleware"
	"github.com/speedx-dev/speedx/internal/remote"
	"github.com/speedx-dev/speedx/internal/session"
	"github.com/speedx-dev/speedx/internal/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	var history *store.History
	if cfg.HistoryDir != "" {
		h, err := store.Open(cfg.HistoryDir)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		defer func() {
			if err := h.Close(); err != nil {
				log.Error("failed to close history", "error", err)
			}
		}()
		history = h
	}

	engine := pageinsight.NewEngine(
		pageinsight.NewHTTPClient(cfg.HTTPTimeout),
		pageinsight.NewResourceSampler(cfg.ProbeConcurrency),
	)
	limiter := middleware.NewRateLimiter(cfg.ProbeRatePerMinute, cfg.ProbeRateBurst)
	probe := analyzer.NewTransport(analyzer.NewService(engine, log), log, limiter)

	factory := session.NewFactory(
		remote.NewAnalysisClient(cfg.AnalyzeEndpoint, cfg.HTTPTimeout),
		remote.NewInsightClient(cfg.InsightEndpoint, cfg.InsightAPIKey, cfg.HTTPTimeout),
		history,
		log,
	)
	sessions := session.NewTransport(session.NewRegistry(session.DefaultMaxSessions, factory), history, log)

	mux := http.NewServeMux()
	probe.RegisterRoutes(mux)
	sessions.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.RequestID(middleware.Logging(log)(middleware.Recover(log)(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", srv.Addr, "analyze_endpoint", cfg.AnalyzeEndpoint)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
