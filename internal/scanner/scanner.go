package scanner

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"sentinel/internal/analyzer"
	"sentinel/internal/config"
	"sentinel/internal/output"
	"sentinel/internal/retry"
	"sentinel/internal/state"
	"sentinel/internal/validation"
	"sentinel/pkg/models"
)

const (
	defaultPollInterval  = 12 * time.Second
	maxConcurrentWorkers = 50
	maxBlocksPerBatch    = 1000
	rateLimitCooldown    = 5 * time.Minute
	nodeErrorThreshold   = 3
)

// BlockReport summarizes one scanned block.
type BlockReport struct {
	BlockNumber  uint64
	Transactions int
	Findings     int
	Error        error
}

// BatchReport aggregates a batch scan.
type BatchReport struct {
	StartBlock        uint64
	EndBlock          uint64
	ProcessedBlocks   uint64
	TotalTransactions uint64
	TotalFindings     uint64
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
	Errors            []error
}

// nodeClient is one RPC endpoint with availability tracking.
type nodeClient struct {
	name         string
	url          string
	priority     int
	client       *ethclient.Client
	available    bool
	rateLimited  bool
	rateLimitEnd time.Time
	errorCount   int
	mu           sync.RWMutex
}

// Scanner walks blocks, runs every transaction through the analyzer and
// publishes the resulting findings. The scan cursor lives in the state
// repository so restarts resume where the previous run stopped.
type Scanner struct {
	nodes            []*nodeClient
	chainConfig      *config.ChainConfig
	scanConfig       *config.ScannerConfig
	analyzer         *analyzer.Analyzer
	validator        *validation.Validator
	publisher        output.Publisher
	repo             state.Repository
	retrier          *retry.Retrier
	logger           *logrus.Logger
	mu               sync.RWMutex
	currentNodeIndex int
}

// New dials the configured nodes and assembles the scanner. Nodes that fail
// to connect are skipped; at least one must respond.
func New(
	chainCfg *config.ChainConfig,
	scanCfg *config.ScannerConfig,
	az *analyzer.Analyzer,
	validator *validation.Validator,
	publisher output.Publisher,
	repo state.Repository,
	logger *logrus.Logger,
) (*Scanner, error) {
	if chainCfg == nil || len(chainCfg.Nodes) == 0 {
		return nil, fmt.Errorf("at least one rpc node must be configured")
	}
	if az == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}

	var nodes []*nodeClient
	for _, nodeCfg := range chainCfg.Nodes {
		client, err := ethclient.Dial(nodeCfg.URL)
		if err != nil {
			logger.Warnf("dialing node %s failed: %v", nodeCfg.Name, err)
			continue
		}

		if _, err := client.BlockNumber(context.Background()); err != nil {
			logger.Warnf("node %s not responding: %v", nodeCfg.Name, err)
			client.Close()
			continue
		}

		nodes = append(nodes, &nodeClient{
			name:      nodeCfg.Name,
			url:       nodeCfg.URL,
			priority:  nodeCfg.Priority,
			client:    client,
			available: true,
		})
		logger.Infof("connected to node: %s", nodeCfg.Name)
	}

	if len(nodes) == 0 {
		return nil, fmt.Errorf("no reachable rpc nodes")
	}

	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].priority < nodes[j].priority
	})

	return &Scanner{
		nodes:       nodes,
		chainConfig: chainCfg,
		scanConfig:  scanCfg,
		analyzer:    az,
		validator:   validator,
		publisher:   publisher,
		repo:        repo,
		retrier:     retry.NewRetrier(retry.NetworkRetryConfig, logger),
		logger:      logger,
	}, nil
}

// ScanStream polls for new blocks and processes each one as it lands. Blocks
// already covered by the persisted cursor are skipped on restart.
func (s *Scanner) ScanStream(ctx context.Context) error {
	client := s.getClient()
	if client == nil {
		return fmt.Errorf("no usable rpc nodes")
	}

	latest, err := client.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("fetch latest block number: %w", err)
	}

	startFrom := latest
	if s.repo != nil {
		cursor, ok, err := s.repo.LastProcessedBlock(ctx, s.chainConfig.ChainID)
		if err != nil {
			s.logger.Warnf("reading scan cursor failed: %v", err)
		} else if ok && cursor < latest {
			startFrom = cursor
			s.logger.Infof("resuming stream from block %d (latest %d)", cursor+1, latest)
		}
	}

	interval := defaultPollInterval
	if s.scanConfig != nil && s.scanConfig.PollInterval != "" {
		if parsed, err := time.ParseDuration(s.scanConfig.PollInterval); err == nil {
			interval = parsed
		}
	}

	s.logger.Infof("streaming new blocks, starting after block %d", startFrom)

	lastSynced := startFrom
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			currentLatest, err := client.BlockNumber(ctx)
			if err != nil {
				s.logger.Errorf("fetch latest block number failed: %v", err)
				client = s.getClient()
				continue
			}

			for blockNumber := lastSynced + 1; blockNumber <= currentLatest; blockNumber++ {
				select {
				case <-ctx.Done():
					s.logger.Info("stream scan stopped")
					return ctx.Err()
				default:
				}

				report := s.scanBlock(ctx, blockNumber)
				if report.Error != nil {
					s.logger.Errorf("scanning block %d failed: %v", blockNumber, report.Error)
					continue
				}

				lastSynced = blockNumber
				s.advanceCursor(ctx, blockNumber)
				if report.Findings > 0 {
					s.logger.Infof("block %d: %d transactions, %d findings",
						blockNumber, report.Transactions, report.Findings)
				}
			}

		case <-ctx.Done():
			s.logger.Info("stream scan stopped")
			return ctx.Err()
		}
	}
}

// ScanBatch processes a fixed block range with a worker pool. The cursor is
// only advanced past blocks that scanned cleanly.
func (s *Scanner) ScanBatch(ctx context.Context, startBlock, endBlock uint64, workers int) (*BatchReport, error) {
	if err := validateBatchParams(startBlock, endBlock, workers); err != nil {
		return nil, err
	}

	if s.repo != nil {
		cursor, ok, err := s.repo.LastProcessedBlock(ctx, s.chainConfig.ChainID)
		if err == nil && ok && cursor >= startBlock {
			s.logger.Infof("resuming batch from block %d (requested %d)", cursor+1, startBlock)
			startBlock = cursor + 1
		}
	}
	if startBlock > endBlock {
		return &BatchReport{StartBlock: startBlock, EndBlock: endBlock, StartTime: time.Now(), EndTime: time.Now()}, nil
	}

	s.logger.Infof("batch scanning blocks %d - %d with %d workers", startBlock, endBlock, workers)

	report := &BatchReport{
		StartBlock: startBlock,
		EndBlock:   endBlock,
		StartTime:  time.Now(),
	}

	taskChan := make(chan uint64, workers*2)
	resultChan := make(chan *BlockReport, workers*2)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for blockNum := range taskChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				r := s.scanBlock(ctx, blockNum)
				select {
				case resultChan <- &r:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(taskChan)
		for blockNum := startBlock; blockNum <= endBlock; blockNum++ {
			select {
			case taskChan <- blockNum:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	highestClean := uint64(0)
	for {
		select {
		case r, ok := <-resultChan:
			if !ok {
				if highestClean > 0 {
					s.advanceCursor(ctx, highestClean)
				}
				report.EndTime = time.Now()
				report.Duration = report.EndTime.Sub(report.StartTime)
				return report, nil
			}

			if r.Error != nil {
				s.logger.Errorf("scanning block %d failed: %v", r.BlockNumber, r.Error)
				report.Errors = append(report.Errors, fmt.Errorf("block %d: %w", r.BlockNumber, r.Error))
				continue
			}

			report.ProcessedBlocks++
			report.TotalTransactions += uint64(r.Transactions)
			report.TotalFindings += uint64(r.Findings)
			if r.BlockNumber > highestClean {
				highestClean = r.BlockNumber
			}

		case <-ctx.Done():
			s.logger.Warn("batch scan canceled")
			report.EndTime = time.Now()
			report.Duration = report.EndTime.Sub(report.StartTime)
			return report, ctx.Err()
		}
	}
}

// ScanBlock processes a single block and reports what it found.
func (s *Scanner) ScanBlock(ctx context.Context, blockNumber uint64) BlockReport {
	return s.scanBlock(ctx, blockNumber)
}

func (s *Scanner) scanBlock(ctx context.Context, blockNumber uint64) BlockReport {
	report := BlockReport{BlockNumber: blockNumber}

	client, nodeName := s.getClientWithNodeName()
	if client == nil {
		report.Error = fmt.Errorf("no usable rpc nodes")
		return report
	}

	var block *types.Block
	err := s.retrier.Execute(ctx, fmt.Sprintf("fetch block %d", blockNumber), func() error {
		var blockErr error
		block, blockErr = client.BlockByNumber(ctx, big.NewInt(int64(blockNumber)))
		return blockErr
	})
	if err != nil {
		s.handleNodeError(nodeName, err)
		report.Error = fmt.Errorf("fetch block %d: %w", blockNumber, err)
		return report
	}
	if block == nil {
		report.Error = fmt.Errorf("block %d not found", blockNumber)
		return report
	}

	signer := types.LatestSignerForChainID(new(big.Int).SetUint64(s.chainConfig.ChainID))

	for _, tx := range block.Transactions() {
		select {
		case <-ctx.Done():
			report.Error = ctx.Err()
			return report
		default:
		}

		from, err := types.Sender(signer, tx)
		if err != nil {
			s.logger.Debugf("sender recovery failed for %s: %v", tx.Hash().Hex(), err)
			continue
		}

		var receipt *types.Receipt
		err = s.retrier.Execute(ctx, fmt.Sprintf("fetch receipt %s", tx.Hash().Hex()), func() error {
			var receiptErr error
			receipt, receiptErr = client.TransactionReceipt(ctx, tx.Hash())
			return receiptErr
		})
		if err != nil {
			s.logger.Warnf("fetch receipt %s failed, analyzing without logs: %v", tx.Hash().Hex(), err)
		}

		model := &models.Transaction{}
		model.FromEthereumTransaction(tx, receipt, from, s.chainConfig.ChainID, block.Time())
		model.BlockNumber = blockNumber

		if s.scanConfig != nil && s.scanConfig.EnableTrace {
			model.Traces = s.traceTransaction(ctx, client, tx.Hash().Hex())
		}

		if s.validator != nil {
			if result := s.validator.ValidateTransaction(model); !result.Valid {
				s.logger.Debugf("skipping malformed transaction %s", model.Hash)
				continue
			}
		}

		report.Transactions++

		findings, err := s.analyzer.Analyze(ctx, model)
		if err != nil {
			s.logger.Errorf("analyzing transaction %s failed: %v", model.Hash, err)
			continue
		}

		for i := range findings {
			if err := s.publisher.Publish(&findings[i]); err != nil {
				s.logger.Errorf("publishing finding %s failed: %v", findings[i].AlertID, err)
				continue
			}
			report.Findings++
		}
	}

	return report
}

// traceTransaction pulls internal calls via debug_traceTransaction. Nodes
// without the debug namespace degrade to an empty trace list.
func (s *Scanner) traceTransaction(ctx context.Context, client *ethclient.Client, txHash string) []models.Trace {
	var result map[string]interface{}
	err := client.Client().CallContext(ctx, &result, "debug_traceTransaction", txHash, map[string]interface{}{
		"tracer": "callTracer",
		"tracerConfig": map[string]interface{}{
			"onlyTopCall": false,
		},
	})
	if err != nil {
		s.logger.Debugf("tracing %s failed: %v", txHash, err)
		return nil
	}

	return flattenCalls(result)
}

func flattenCalls(call map[string]interface{}) []models.Trace {
	var traces []models.Trace

	if from, ok := call["from"].(string); ok {
		trace := models.Trace{From: strings.ToLower(from)}
		if to, ok := call["to"].(string); ok {
			trace.To = strings.ToLower(to)
		}
		if value, ok := call["value"].(string); ok && strings.HasPrefix(value, "0x") {
			if v, ok := new(big.Int).SetString(value[2:], 16); ok {
				trace.Value = v
			}
		}
		if input, ok := call["input"].(string); ok {
			trace.Input = input
		}
		traces = append(traces, trace)
	}

	if calls, ok := call["calls"].([]interface{}); ok {
		for _, nested := range calls {
			if nestedMap, ok := nested.(map[string]interface{}); ok {
				traces = append(traces, flattenCalls(nestedMap)...)
			}
		}
	}

	return traces
}

func (s *Scanner) advanceCursor(ctx context.Context, block uint64) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SetLastProcessedBlock(ctx, s.chainConfig.ChainID, block); err != nil {
		s.logger.Warnf("advancing scan cursor to %d failed: %v", block, err)
	}
}

func validateBatchParams(startBlock, endBlock uint64, workers int) error {
	if startBlock > endBlock {
		return fmt.Errorf("start block %d is after end block %d", startBlock, endBlock)
	}
	if workers <= 0 || workers > maxConcurrentWorkers {
		return fmt.Errorf("workers must be between 1 and %d, got %d", maxConcurrentWorkers, workers)
	}
	if endBlock-startBlock+1 > maxBlocksPerBatch*1000 {
		return fmt.Errorf("block range too large, max %d blocks", maxBlocksPerBatch*1000)
	}
	return nil
}

// getNextAvailableNode rotates through nodes, honoring rate-limit cooldowns.
func (s *Scanner) getNextAvailableNode() *nodeClient {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	for i := 0; i < len(s.nodes); i++ {
		index := (s.currentNodeIndex + i) % len(s.nodes)
		node := s.nodes[index]

		node.mu.Lock()
		if node.rateLimited && now.After(node.rateLimitEnd) {
			node.rateLimited = false
			node.errorCount = 0
			s.logger.Infof("node %s rate limit lifted", node.name)
		}
		usable := node.available && !node.rateLimited
		node.mu.Unlock()

		if usable {
			s.currentNodeIndex = index
			return node
		}
	}

	// Everything is down or throttled; re-enable non-throttled nodes and
	// hope the next probe succeeds.
	s.logger.Warn("no usable nodes, resetting availability")
	for _, node := range s.nodes {
		node.mu.Lock()
		if !node.rateLimited {
			node.available = true
		}
		node.mu.Unlock()
	}

	if len(s.nodes) > 0 {
		return s.nodes[0]
	}
	return nil
}

func (s *Scanner) getClient() *ethclient.Client {
	node := s.getNextAvailableNode()
	if node == nil {
		return nil
	}
	return node.client
}

func (s *Scanner) getClientWithNodeName() (*ethclient.Client, string) {
	node := s.getNextAvailableNode()
	if node == nil {
		return nil, ""
	}
	return node.client, node.name
}

func (s *Scanner) handleNodeError(nodeName string, err error) {
	if isRateLimitError(err) {
		s.markNodeRateLimited(nodeName)
		return
	}

	for _, node := range s.nodes {
		if node.name != nodeName {
			continue
		}
		node.mu.Lock()
		node.errorCount++
		if node.errorCount >= nodeErrorThreshold {
			node.available = false
			s.logger.Warnf("node %s disabled after %d consecutive errors", nodeName, node.errorCount)
		}
		node.mu.Unlock()
		break
	}
}

func (s *Scanner) markNodeRateLimited(nodeName string) {
	for _, node := range s.nodes {
		if node.name != nodeName {
			continue
		}
		node.mu.Lock()
		node.rateLimited = true
		node.rateLimitEnd = time.Now().Add(rateLimitCooldown)
		node.errorCount++
		node.mu.Unlock()

		s.logger.Errorf("node %s rate limited, retrying in %v", nodeName, rateLimitCooldown)
		break
	}
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{
		"429", "too many requests", "rate limit",
		"quota exceeded", "request limit", "requests per second",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// NodeStatus reports per-node availability for the stats endpoint.
func (s *Scanner) NodeStatus() map[string]interface{} {
	now := time.Now()
	nodes := make([]map[string]interface{}, 0, len(s.nodes))
	available := 0

	for _, node := range s.nodes {
		node.mu.RLock()
		info := map[string]interface{}{
			"name":         node.name,
			"priority":     node.priority,
			"available":    node.available,
			"rate_limited": node.rateLimited,
			"error_count":  node.errorCount,
		}
		if node.rateLimited && now.Before(node.rateLimitEnd) {
			info["rate_limit_remaining"] = node.rateLimitEnd.Sub(now).String()
		}
		if node.available && !node.rateLimited {
			available++
		}
		node.mu.RUnlock()
		nodes = append(nodes, info)
	}

	return map[string]interface{}{
		"nodes":           nodes,
		"total_nodes":     len(s.nodes),
		"available_nodes": available,
	}
}

// Close releases node connections. The publisher and repository are owned by
// the caller.
func (s *Scanner) Close() {
	for _, node := range s.nodes {
		if node.client != nil {
			node.client.Close()
		}
	}
}
