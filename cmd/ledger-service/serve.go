package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nurpe/contractor-ledger/internal/auth"
	"github.com/nurpe/contractor-ledger/internal/cache"
	"github.com/nurpe/contractor-ledger/internal/config"
	"github.com/nurpe/contractor-ledger/internal/db"
	"github.com/nurpe/contractor-ledger/internal/excel"
	httphandler "github.com/nurpe/contractor-ledger/internal/http"
	"github.com/nurpe/contractor-ledger/internal/logger"
	"github.com/nurpe/contractor-ledger/internal/pdf"
	"github.com/nurpe/contractor-ledger/internal/repository"
	"github.com/nurpe/contractor-ledger/internal/service"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Bool("migrate", true, "Apply the bootstrap schema before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return err
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect database")
		return err
	}
	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := db.Migrate(database, log); err != nil {
			log.Error().Err(err).Msg("failed to apply migrations")
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reportCache, invalidator := connectCache(ctx, cfg, log)

	ledgerRepo := repository.NewLedgerRepository(database)
	reportRepo := repository.NewReportRepository(database)

	market := service.NewMarketplaceService(ledgerRepo)
	balances := service.NewBalanceService(ledgerRepo, invalidator, cfg, log)
	reports := service.NewReportService(reportRepo, reportCache, cfg, log)

	handler := httphandler.NewHandler(httphandler.HandlerDeps{
		Market:       market,
		Balances:     balances,
		Reports:      reports,
		Workbooks:    excel.NewGenerator(),
		Receipts:     pdf.NewGenerator(),
		DefaultLimit: cfg.Reports.DefaultLimit,
	}, log)
	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	profileMiddleware := httphandler.ProfileMiddleware(cfg, tokenParser, market)
	router := httphandler.NewRouter(handler, profileMiddleware, cfg, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("auth_mode", cfg.Auth.Mode).Msg("starting ledger service")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info().Msg("shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}
	return nil
}

// connectCache returns nil interfaces when Redis is not configured or not
// reachable; reports are then always computed from the store.
func connectCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (service.ReportCache, service.ReportInvalidator) {
	if cfg.Redis.Addr == "" {
		log.Info().Msg("report cache disabled")
		return nil, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	client, err := cache.Connect(pingCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Warn().Err(err).Msg("report cache unavailable, continuing without it")
		return nil, nil
	}

	reportCache := cache.NewReportCache(client, cfg.Reports.CacheTTL)
	log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Reports.CacheTTL).Msg("report cache enabled")
	return reportCache, reportCache
}
