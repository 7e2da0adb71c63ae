// Command skinfolio serves the skin portfolio ledger: bulk CSV import,
// average-cost position accounting and paged holdings/transaction views
// over HTTP.
//
// Usage:
//
//	skinfolio --config config.yaml
//	skinfolio (uses CLI arguments)
//	skinfolio --setup (interactive transaction entry)
//
// The market API key is read from the SKINMARKET_API_KEY environment
// variable.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/skinvault/skinfolio/config"
	"github.com/skinvault/skinfolio/internal/clients"
	"github.com/skinvault/skinfolio/internal/importer"
	"github.com/skinvault/skinfolio/internal/services/portfolio"
	"github.com/skinvault/skinfolio/internal/setup"
	"github.com/skinvault/skinfolio/internal/storage/transactions"
	"github.com/skinvault/skinfolio/internal/web"
)

func main() {
	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	store, err := transactions.NewStore(cfg.WalDir)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Setup {
		if err := setup.RunTUI(ctx, store, cfg.DefaultCommissionPercent, cfg.Currency); err != nil {
			log.Fatal(err)
		}
		return
	}

	market := clients.NewSkinMarketClient(cfg.MarketAPIURL, cfg.MarketAPIKey)
	service := portfolio.NewService(store, market, logger)
	imp := importer.New(store, importer.Defaults{
		CommissionPercent: cfg.DefaultCommissionPercent,
		Currency:          cfg.Currency,
	}, logger)
	server := web.NewServer(cfg.ListenAddr, service, store, imp, cfg.DefaultPageSize, logger)
	server.SearchDebounce = cfg.SearchDebounce

	logger.Info("skinfolio listening", zap.String("addr", cfg.ListenAddr))
	if err := server.Start(ctx); err != nil {
		log.Fatal(err)
	}
}
