package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/AngelCh415/threads-insights/internal/config"
	"github.com/AngelCh415/threads-insights/internal/httpx"
	"github.com/AngelCh415/threads-insights/internal/ingest"
	"github.com/AngelCh415/threads-insights/internal/report"
	"github.com/AngelCh415/threads-insights/internal/store"
	"github.com/AngelCh415/threads-insights/internal/telemetry"
	"github.com/AngelCh415/threads-insights/internal/utils"
)

func main() {
	cfg := config.FromEnv()
	logger := utils.NewLogger(cfg.AppEnv, cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := httpx.Deps{Log: logger, Gatherer: reg}
	var (
		src  report.MetricsSource
		repo report.Repository
	)
	if cfg.DatabaseURL != "" {
		pool, err := connect(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer pool.Close()
		pgRepo := store.NewPostgresRepository(pool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			return err
		}
		src, repo = store.NewPostgresSource(pool, loc), pgRepo
		deps.DB = pool
		logger.Info().Msg("using postgres source and repository")
	} else {
		mem := store.NewMemoryStore(loc)
		src, repo = mem, mem
		if cfg.MetricsAPIURL != "" {
			deps.Ingest = ingest.NewETL(ingest.NewHTTPClient(cfg.HTTPTimeout), mem, logger, cfg.MetricsAPIURL, loc)
		}
		logger.Warn().Bool("ingest", deps.Ingest != nil).Msg("DATABASE_URL not set, using in-memory store")
	}

	deps.Reports = report.NewGenerator(src, repo, logger, report.Options{
		Location:         loc,
		Policy:           cfg.Policy(),
		ConversionSource: cfg.ConversionSource,
		Recorder:         telemetry.NewMetrics(reg),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpx.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Str("timezone", loc.String()).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// connect opens the pool and waits for the database to answer a ping.
func connect(ctx context.Context, url string, logger zerolog.Logger) (*pgxpool.Pool, error) {
	pool, err := store.NewPool(ctx, url)
	if err != nil {
		return nil, err
	}
	err = utils.NewBackoff(500*time.Millisecond, 4).Do(ctx, func(i int) error {
		if i > 0 {
			logger.Warn().Int("attempt", i+1).Msg("waiting for database")
		}
		return pool.Ping(ctx)
	})
	if err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
