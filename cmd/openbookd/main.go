package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jadestone-web3/serum-dex-from-zero/params"
	"github.com/jadestone-web3/serum-dex-from-zero/pkg/api"
	"github.com/jadestone-web3/serum-dex-from-zero/pkg/openbook"
	"github.com/jadestone-web3/serum-dex-from-zero/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("") // "" means load from .env in current directory

	// Setup logging (write to both console and file)
	logger, err := util.NewLoggerWithFile(cfg.Server.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Server.LogFile)

	// ---- Exchange core ----
	reg := openbook.NewRegistry(openbook.MarketConfig{
		FeeBps:      cfg.Fees.FeeBps,
		FeeReceiver: cfg.Fees.FeeReceiver,
	})

	// Pre-create markets from the markets file, if present.
	if defs, err := params.LoadMarkets(cfg.Server.MarketsFile); err == nil {
		for _, def := range defs {
			mc := openbook.MarketConfig{
				FeeBps:      cfg.Fees.FeeBps,
				FeeReceiver: cfg.Fees.FeeReceiver,
			}
			if def.FeeBps != 0 {
				mc.FeeBps = def.FeeBps
			}
			if def.FeeReceiver != "" {
				mc.FeeReceiver = def.FeeReceiver
			}
			reg.CreateMarketWith(def.Name, mc)
			sugar.Infow("market_loaded", "market", def.Name, "fee_bps", mc.FeeBps)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		sugar.Warnw("markets_file_skipped", "path", cfg.Server.MarketsFile, "err", err)
	}

	sugar.Infow("exchange_initialized",
		"markets", len(reg.Markets()),
		"default_fee_bps", cfg.Fees.FeeBps,
		"fee_receiver", cfg.Fees.FeeReceiver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- API Server ----
	apiServer := api.NewServer(reg, sugar)
	go func() {
		if err := apiServer.Start(cfg.Server.ListenAddr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")
}
