package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"sentinel/internal/analyzer"
	"sentinel/internal/api"
	"sentinel/internal/chain"
	"sentinel/internal/config"
	"sentinel/internal/drain"
	"sentinel/internal/ledger"
	"sentinel/internal/logging"
	"sentinel/internal/output"
	"sentinel/internal/pricing"
	"sentinel/internal/profit"
	"sentinel/internal/routers"
	"sentinel/internal/scanner"
	"sentinel/internal/state"
	"sentinel/internal/validation"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "configuration file path")
	listen     = flag.String("listen", "", "listen address, overrides config")
	verbose    = flag.Bool("verbose", false, "debug logging")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initialize logging: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	ctx := context.Background()

	node := cfg.Chain.Nodes[0]
	chainClient, err := chain.NewClient(ctx, node.URL, cfg.Chain.ExplorerURL, cfg.Chain.ExplorerAPIKey, logger)
	if err != nil {
		logger.Fatalf("connect chain client: %v", err)
	}
	defer chainClient.Close()

	prices := pricing.NewClient(chainClient.Eth(), cfg.Pricing.APIURL, cfg.Pricing.APIKey, logger)

	store, err := state.NewBoltStore(cfg.State.DBPath, logger)
	if err != nil {
		logger.Fatalf("open state store: %v", err)
	}
	defer store.Close()

	sink, err := output.NewPublisher(cfg.Output, logger)
	if err != nil {
		logger.Fatalf("create findings publisher: %v", err)
	}

	// Buffer findings in front of the sink so the API can serve them.
	findings := api.NewFindingsBuffer(1000, sink)
	defer findings.Close()

	routerFilter := routers.NewFilter(cfg.Chain.ChainID, cfg.Detection.ExtraRouters)

	classifier := profit.NewClassifier(profit.Config{
		USDThreshold:       cfg.Detection.USDThreshold,
		SupplyPctThreshold: cfg.Detection.SupplyPctThreshold,
	}, routerFilter, prices, chainClient, logger)

	correlator := drain.NewCorrelator(drain.Config{
		Window:                 time.Duration(cfg.Detection.WindowHours) * time.Hour,
		TransfersThreshold:     cfg.Detection.TransfersThreshold,
		VictimTxCountThreshold: cfg.Detection.VictimTxCountThreshold,
		FunderTxCountThreshold: cfg.Detection.FunderTxCountThreshold,
	}, store, chainClient, logger)

	az := analyzer.New(ledger.NewBuilder(logger), classifier, correlator, store, logger)
	validator := validation.NewValidator(logger, false)

	sc, err := scanner.New(cfg.Chain, cfg.Scanner, az, validator, findings, store, logger)
	if err != nil {
		logger.Fatalf("create scanner: %v", err)
	}
	defer sc.Close()

	addr := cfg.API.Listen
	if *listen != "" {
		addr = *listen
	}

	server := api.NewServer(cfg, sc, findings, logger, addr)

	// When a config database is reachable, the API can also manage the
	// shared configuration.
	if dsn := os.Getenv("SENTINEL_DB_DSN"); dsn != "" {
		dbConfig, err := config.NewDatabaseConfig(dsn, logger)
		if err != nil {
			logger.Warnf("config database unavailable, config endpoints disabled: %v", err)
		} else {
			defer dbConfig.Close()
			server.EnableConfigAPI(api.NewConfigManager(dbConfig, logger))
		}
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Errorf("api server stopped: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down api server")
	if err := server.Stop(); err != nil {
		logger.Errorf("shutting down api server failed: %v", err)
	}
	logger.Info("api server stopped")
}
