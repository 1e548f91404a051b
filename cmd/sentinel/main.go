package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"sentinel/internal/analyzer"
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
	"sentinel/internal/shutdown"
	"sentinel/internal/state"
	"sentinel/internal/validation"
)

var (
	startBlock uint64
	endBlock   uint64
	workers    int
	stream     bool

	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sentinel",
		Short: "On-chain abuse detection engine",
		Long:  `Scans blocks for large-profit exploits and native ice-phishing drains, emitting findings to the configured sink.`,
		RunE:  run,
	}

	rootCmd.Flags().Uint64Var(&startBlock, "start-block", 0, "first block of a batch scan")
	rootCmd.Flags().Uint64Var(&endBlock, "end-block", 0, "last block of a batch scan")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines for batch scans (0 uses config)")
	rootCmd.Flags().BoolVar(&stream, "stream", false, "follow the chain head instead of scanning a range")
	rootCmd.Flags().StringVar(&configFile, "config", "configs/config.yaml", "configuration file path")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "debug logging")

	cursorCmd := &cobra.Command{
		Use:   "cursor",
		Short: "Show the persisted scan cursor",
		RunE:  showCursor,
	}
	cursorCmd.Flags().StringVar(&configFile, "config", "configs/config.yaml", "configuration file path")

	rootCmd.AddCommand(cursorCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !config.ValidateConfig(cfg) {
		return fmt.Errorf("invalid configuration")
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	ctx := context.Background()

	node := cfg.Chain.Nodes[0]
	chainClient, err := chain.NewClient(ctx, node.URL, cfg.Chain.ExplorerURL, cfg.Chain.ExplorerAPIKey, logger)
	if err != nil {
		return fmt.Errorf("connect chain client: %w", err)
	}

	prices := pricing.NewClient(chainClient.Eth(), cfg.Pricing.APIURL, cfg.Pricing.APIKey, logger)

	store, err := state.NewBoltStore(cfg.State.DBPath, logger)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}

	publisher, err := output.NewPublisher(cfg.Output, logger)
	if err != nil {
		return fmt.Errorf("create findings publisher: %w", err)
	}

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

	sc, err := scanner.New(cfg.Chain, cfg.Scanner, az, validator, publisher, store, logger)
	if err != nil {
		return fmt.Errorf("create scanner: %w", err)
	}

	scanCtx, scanCancel := context.WithCancel(ctx)

	gs := shutdown.NewGracefulShutdown(30*time.Second, logger)
	gs.RegisterShutdownFunc("stop scanning", func(context.Context) error {
		scanCancel()
		return nil
	}, shutdown.OrderStopAcceptingRequests)
	gs.RegisterShutdownFunc("flush findings", func(context.Context) error {
		return publisher.Close()
	}, shutdown.OrderFlushProducers)
	gs.RegisterShutdownFunc("close node connections", func(context.Context) error {
		sc.Close()
		chainClient.Close()
		return nil
	}, shutdown.OrderCloseConnections)
	gs.RegisterShutdownFunc("close state store", func(context.Context) error {
		return store.Close()
	}, shutdown.OrderSaveState)
	gs.Start()

	var runErr error
	if stream {
		logger.Info("starting stream scan")
		runErr = sc.ScanStream(scanCtx)
		if runErr == context.Canceled {
			runErr = nil
		}
	} else {
		runErr = runBatch(scanCtx, cfg, sc, logger)
	}

	if err := gs.Close(); err != nil {
		logger.Errorf("shutdown failed: %v", err)
	}
	return runErr
}

func runBatch(ctx context.Context, cfg *config.Config, sc *scanner.Scanner, logger *logrus.Logger) error {
	if startBlock == 0 && cfg.Scanner.StartBlock > 0 {
		startBlock = cfg.Scanner.StartBlock
	}
	if startBlock == 0 || endBlock == 0 {
		return fmt.Errorf("batch mode requires --start-block and --end-block")
	}

	w := workers
	if w <= 0 {
		w = cfg.Scanner.Workers
	}

	logger.Infof("starting batch scan of blocks %d - %d", startBlock, endBlock)

	report, err := sc.ScanBatch(ctx, startBlock, endBlock, w)
	if err != nil && err != context.Canceled {
		return fmt.Errorf("batch scan: %w", err)
	}

	logger.Info("batch scan finished:")
	logger.Infof("  blocks processed: %d", report.ProcessedBlocks)
	logger.Infof("  transactions analyzed: %d", report.TotalTransactions)
	logger.Infof("  findings emitted: %d", report.TotalFindings)
	logger.Infof("  duration: %s", report.Duration)
	if len(report.Errors) > 0 {
		logger.Warnf("  blocks with errors: %d", len(report.Errors))
	}
	return nil
}

func showCursor(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	store, err := state.NewBoltStore(cfg.State.DBPath, logger)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer store.Close()

	block, ok, err := store.LastProcessedBlock(context.Background(), cfg.Chain.ChainID)
	if err != nil {
		return fmt.Errorf("read scan cursor: %w", err)
	}

	if !ok {
		fmt.Printf("chain %d: no scan cursor stored yet\n", cfg.Chain.ChainID)
		return nil
	}
	fmt.Printf("chain %d: last processed block %d\n", cfg.Chain.ChainID, block)
	return nil
}
