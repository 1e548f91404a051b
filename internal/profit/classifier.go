package profit

import (
	"context"
	"math/big"
	"sync"

	"sentinel/internal/chain"
	"sentinel/internal/finding"
	"sentinel/internal/ledger"
	"sentinel/internal/pricing"
	"sentinel/internal/routers"
	"sentinel/pkg/models"

	"github.com/sirupsen/logrus"
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

// Config holds the classification thresholds.
type Config struct {
	// USDThreshold is the minimum USD-denominated gain that counts as a
	// large profit.
	USDThreshold float64
	// SupplyPctThreshold is the minimum percent of a token's total supply
	// gained, used when no USD price is available.
	SupplyPctThreshold float64
	// AnomalyScore attached to candidates when no rarity statistics are
	// available. 1.0 is the conservative ceiling.
	AnomalyScore float64
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		USDThreshold:       500000,
		SupplyPctThreshold: 5,
		AnomalyScore:       1.0,
	}
}

// Classifier decides which ledger addresses profited enough to be flagged.
type Classifier struct {
	cfg     Config
	routers *routers.Filter
	prices  pricing.Provider
	view    chain.StateView
	logger  *logrus.Logger
}

// NewClassifier creates a classifier.
func NewClassifier(cfg Config, rf *routers.Filter, prices pricing.Provider, view chain.StateView, logger *logrus.Logger) *Classifier {
	if cfg.USDThreshold <= 0 {
		cfg.USDThreshold = DefaultConfig().USDThreshold
	}
	if cfg.SupplyPctThreshold <= 0 {
		cfg.SupplyPctThreshold = DefaultConfig().SupplyPctThreshold
	}
	if cfg.AnomalyScore <= 0 {
		cfg.AnomalyScore = DefaultConfig().AnomalyScore
	}
	return &Classifier{
		cfg:     cfg,
		routers: rf,
		prices:  prices,
		view:    view,
		logger:  logger,
	}
}

// BatchVerdict classifies large same-token transfer sets.
type BatchVerdict int

const (
	// NotBatch: fewer than 31 transfers, or mixed tokens.
	NotBatch BatchVerdict = iota
	// BenignAirdrop: many distinct receivers and no contract senders. The
	// whole transaction is skipped.
	BenignAirdrop
	// SuspiciousBatch: all value converging on one receiver, or a contract
	// among the senders. Classified normally.
	SuspiciousBatch
)

const batchTransferThreshold = 30

// Classify returns the addresses whose net gains clear the profit threshold,
// in deterministic (sorted-address) order. Candidates are never produced for
// known routers or the zero address, and a native-only gain on a traceless
// transaction is indistinguishable from an ordinary transfer and is skipped.
func (c *Classifier) Classify(ctx context.Context, tx *models.Transaction, l *ledger.Ledger, events ledger.DecodedEvents) ([]finding.ProfitCandidate, error) {
	verdict, err := c.batchVerdict(ctx, events.TokenTransfers)
	if err != nil {
		return nil, err
	}
	if verdict == BenignAirdrop {
		c.logger.WithFields(logrus.Fields{
			"tx":        tx.Hash,
			"transfers": len(events.TokenTransfers),
		}).Debug("benign airdrop batch, skipping profit classification")
		return nil, nil
	}

	exploitSig := hasExploitSignature(tx)

	var candidates []finding.ProfitCandidate
	for _, addr := range l.Addresses() {
		if addr == zeroAddress || c.routers.IsKnownRouter(addr) {
			continue
		}
		if l.NativeOnly(addr) && len(tx.Traces) == 0 {
			continue
		}

		usd, pct, err := c.measureProfit(ctx, l, addr)
		if err != nil {
			c.logger.WithError(err).WithField("address", addr).Warn("profit measurement degraded")
			continue
		}

		switch {
		case usd >= c.cfg.USDThreshold:
			candidates = append(candidates, finding.ProfitCandidate{
				Address:      addr,
				Confidence:   confidenceFromUSD(usd/c.cfg.USDThreshold, exploitSig),
				AnomalyScore: c.cfg.AnomalyScore,
				ProfitInUSD:  true,
				Profit:       usd,
			})
		case pct >= c.cfg.SupplyPctThreshold:
			candidates = append(candidates, finding.ProfitCandidate{
				Address:      addr,
				Confidence:   confidenceFromSupplyPct(pct, exploitSig),
				AnomalyScore: c.cfg.AnomalyScore,
				ProfitInUSD:  false,
				Profit:       pct,
			})
		}
	}

	return candidates, nil
}

// measureProfit finds the largest single-asset gain for an address. The
// threshold applies per asset, so many small gains across assets never add up
// to a qualifying profit. Assets without a known price contribute to the
// percent-of-supply fallback instead; the largest such share is returned as
// pct.
func (c *Classifier) measureProfit(ctx context.Context, l *ledger.Ledger, addr string) (usd, pct float64, err error) {
	for asset, delta := range l.Deltas(addr) {
		if delta.Sign() <= 0 {
			continue
		}

		price, priced := c.prices.USDPrice(ctx, asset, l.ChainID())
		if asset == pricing.NativeAsset {
			if priced {
				if gain := scaledValue(delta, 18) * price; gain > usd {
					usd = gain
				}
			}
			// An unpriced native asset has no supply to compare against.
			continue
		}

		meta, metaErr := c.prices.TokenMetadata(ctx, asset)
		if metaErr != nil {
			err = metaErr
			continue
		}
		if priced {
			if gain := scaledValue(delta, meta.Decimals) * price; gain > usd {
				usd = gain
			}
			continue
		}
		if meta.TotalSupply != nil && meta.TotalSupply.Sign() > 0 {
			share := 100 * ratio(delta, meta.TotalSupply)
			if share > pct {
				pct = share
			}
		}
	}
	// Partial pricing still yields a usable measurement.
	if usd > 0 || pct > 0 {
		err = nil
	}
	return usd, pct, err
}

// batchVerdict inspects large same-token transfer sets. Mass distribution to
// many receivers from plain wallets is an airdrop; everything converging on
// one receiver, or contracts among the senders, stays under scrutiny.
func (c *Classifier) batchVerdict(ctx context.Context, transfers []models.TokenTransfer) (BatchVerdict, error) {
	if len(transfers) <= batchTransferThreshold {
		return NotBatch, nil
	}
	token := transfers[0].Token
	for _, t := range transfers[1:] {
		if t.Token != token {
			return NotBatch, nil
		}
	}

	sameReceiver := true
	receiver := transfers[0].To
	senders := make(map[string]struct{})
	for _, t := range transfers {
		if t.To != receiver {
			sameReceiver = false
		}
		senders[t.From] = struct{}{}
	}
	if sameReceiver {
		return SuspiciousBatch, nil
	}

	anyContract, err := c.anyContract(ctx, senders)
	if err != nil {
		return NotBatch, err
	}
	if anyContract {
		return SuspiciousBatch, nil
	}
	return BenignAirdrop, nil
}

// anyContract checks the distinct senders concurrently, bounded to keep the
// node connection healthy.
func (c *Classifier) anyContract(ctx context.Context, addrs map[string]struct{}) (bool, error) {
	const workers = 8

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		found    bool
		firstErr error
	)
	sem := make(chan struct{}, workers)

	for addr := range addrs {
		wg.Add(1)
		sem <- struct{}{}
		go func(addr string) {
			defer wg.Done()
			defer func() { <-sem }()

			isContract, err := c.view.IsContract(ctx, addr)
			mu.Lock()
			defer mu.Unlock()
			if err != nil && firstErr == nil {
				firstErr = err
			}
			if isContract {
				found = true
			}
		}(addr)
	}
	wg.Wait()

	if found {
		return true, nil
	}
	return false, firstErr
}

// confidenceFromUSD maps the profit-to-threshold ratio into a confidence
// band. Monotonic: a larger haul is never less suspicious.
func confidenceFromUSD(ratio float64, exploitSig bool) float64 {
	var conf float64
	switch {
	case ratio >= 20:
		conf = 0.7
	case ratio >= 10:
		conf = 0.6
	case ratio >= 4:
		conf = 0.5
	case ratio >= 2:
		conf = 0.4
	default:
		conf = 0.3
	}
	if exploitSig {
		conf += 0.2
	}
	if conf > 1 {
		conf = 1
	}
	return conf
}

func confidenceFromSupplyPct(pct float64, exploitSig bool) float64 {
	var conf float64
	switch {
	case pct >= 50:
		conf = 0.6
	case pct >= 20:
		conf = 0.5
	case pct >= 10:
		conf = 0.4
	default:
		conf = 0.3
	}
	if exploitSig {
		conf += 0.2
	}
	if conf > 1 {
		conf = 1
	}
	return conf
}

func scaledValue(v *big.Int, decimals uint8) float64 {
	f := new(big.Float).SetInt(v)
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	out, _ := new(big.Float).Quo(f, scale).Float64()
	return out
}

func ratio(num, den *big.Int) float64 {
	out, _ := new(big.Float).Quo(new(big.Float).SetInt(num), new(big.Float).SetInt(den)).Float64()
	return out
}
