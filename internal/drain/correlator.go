package drain

import (
	"context"
	"math/big"
	"strings"
	"time"

	"sentinel/internal/chain"
	"sentinel/internal/finding"
	"sentinel/internal/state"
	"sentinel/pkg/models"

	"github.com/sirupsen/logrus"
)

// Config holds the correlation thresholds.
type Config struct {
	// Window is how long a victim's outgoing transfers stay under
	// observation.
	Window time.Duration
	// TransfersThreshold is the number of surviving records that confirms a
	// drain pattern.
	TransfersThreshold int
	// VictimTxCountThreshold: a victim busier than this is a service or bot
	// account, not a drained wallet.
	VictimTxCountThreshold uint64
	// FunderTxCountThreshold: a funding address busier than this is mass
	// distribution infrastructure, which overrides the victim activity
	// check.
	FunderTxCountThreshold uint64
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		Window:                 5 * 24 * time.Hour,
		TransfersThreshold:     7,
		VictimTxCountThreshold: 2000,
		FunderTxCountThreshold: 9999,
	}
}

// Correlator tracks native outflows per victim across transactions and
// confirms drain patterns. All state lives in the repository, so a restart
// resumes mid-window.
type Correlator struct {
	cfg    Config
	store  state.Repository
	view   chain.StateView
	logger *logrus.Logger
}

// NewCorrelator creates a correlator.
func NewCorrelator(cfg Config, store state.Repository, view chain.StateView, logger *logrus.Logger) *Correlator {
	def := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.TransfersThreshold <= 0 {
		cfg.TransfersThreshold = def.TransfersThreshold
	}
	if cfg.VictimTxCountThreshold == 0 {
		cfg.VictimTxCountThreshold = def.VictimTxCountThreshold
	}
	if cfg.FunderTxCountThreshold == 0 {
		cfg.FunderTxCountThreshold = def.FunderTxCountThreshold
	}
	return &Correlator{cfg: cfg, store: store, view: view, logger: logger}
}

// Process folds one transaction into the victim's transfer window and returns
// a finding when the drain pattern confirms. A nil finding with nil error is
// the common case. Reprocessing the same transaction is a no-op.
func (c *Correlator) Process(ctx context.Context, tx *models.Transaction) (*finding.Finding, error) {
	if !c.isTrackableTransfer(tx) {
		return nil, nil
	}

	victim := models.NormalizeAddress(tx.From)
	sink := models.NormalizeAddress(tx.To)

	// Contract sinks have their own approval-based phishing surface; this
	// path watches plain-address drains only.
	if isContract, err := c.view.IsContract(ctx, sink); err != nil {
		c.logger.WithError(err).WithField("sink", sink).Warn("contract check degraded, skipping transfer")
		return nil, nil
	} else if isContract {
		return nil, nil
	}

	if c.alerted(ctx, state.CollectionAlertedHashes, tx.ChainID, tx.Hash) {
		return nil, nil
	}

	records, err := c.store.LoadTransferWindow(ctx, tx.ChainID, victim)
	if err != nil {
		// A failed read degrades to an empty history; the window rebuilds
		// from here.
		c.logger.WithError(err).WithField("victim", victim).Warn("transfer window read degraded")
		records = nil
	}

	records = c.appendRecord(ctx, records, tx, victim, sink)
	records = c.pruneExpired(records, tx.Timestamp.Unix())
	records = FilterConflicting(records)

	if len(records) < c.cfg.TransfersThreshold || !c.activityConfirms(ctx, victim) {
		c.saveWindow(ctx, tx.ChainID, victim, records)
		return nil, nil
	}

	f := c.assembleFinding(ctx, tx, victim, sink, records)
	if f == nil {
		c.saveWindow(ctx, tx.ChainID, victim, records)
		return nil, nil
	}

	// Reset the window after alerting so the same records cannot confirm
	// twice. The finding already exists, so persistence failures from here
	// on are logged, not fatal.
	c.saveWindow(ctx, tx.ChainID, victim, nil)
	c.recordAlert(ctx, state.CollectionAlertedHashes, tx.ChainID, tx.Hash)
	c.recordAlert(ctx, state.CollectionAlertedAddresses, tx.ChainID, victim)
	c.recordAlert(ctx, state.CollectionAlertedAddresses, tx.ChainID, sink)
	if f.Severity == finding.SeverityCritical {
		c.recordAlert(ctx, state.CollectionAlertedCritical, tx.ChainID, sink)
	}
	return f, nil
}

// alerted treats a failed read as no prior alert, the empty default.
func (c *Correlator) alerted(ctx context.Context, collection string, chainID uint64, key string) bool {
	seen, err := c.store.Contains(ctx, collection, chainID, key)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("alert state read degraded")
		return false
	}
	return seen
}

func (c *Correlator) saveWindow(ctx context.Context, chainID uint64, victim string, records []models.TransferRecord) {
	if err := c.store.SaveTransferWindow(ctx, chainID, victim, records); err != nil {
		c.logger.WithError(err).WithField("victim", victim).Error("transfer window write failed")
	}
}

func (c *Correlator) recordAlert(ctx context.Context, collection string, chainID uint64, key string) {
	if err := c.store.Add(ctx, collection, chainID, key); err != nil {
		c.logger.WithError(err).WithField("key", key).Error("alert state write failed")
	}
}

// isTrackableTransfer keeps only plain native-value sends: positive value, a
// destination, and no calldata.
func (c *Correlator) isTrackableTransfer(tx *models.Transaction) bool {
	if tx.Value == nil || tx.Value.Sign() <= 0 || tx.To == "" {
		return false
	}
	input := strings.TrimPrefix(strings.ToLower(tx.Input), "0x")
	return input == ""
}

// appendRecord adds the transfer unless an identical record already exists,
// which keeps reprocessed transactions from inflating the window.
func (c *Correlator) appendRecord(ctx context.Context, records []models.TransferRecord, tx *models.Transaction, victim, sink string) []models.TransferRecord {
	for _, r := range records {
		if r.FromNonce == tx.Nonce && r.LatestTo == sink && r.Value == tx.Value.String() {
			return records
		}
	}

	funder, err := c.view.FundingAddress(ctx, victim)
	if err != nil {
		c.logger.WithError(err).WithField("victim", victim).Debug("funding address lookup degraded")
		funder = ""
	}

	return append(records, models.TransferRecord{
		From:           victim,
		FromNonce:      tx.Nonce,
		FundingAddress: models.NormalizeAddress(funder),
		LatestTo:       sink,
		Value:          tx.Value.String(),
		Timestamp:      tx.Timestamp.Unix(),
	})
}

func (c *Correlator) pruneExpired(records []models.TransferRecord, now int64) []models.TransferRecord {
	cutoff := now - int64(c.cfg.Window/time.Second)
	kept := records[:0]
	for _, r := range records {
		if r.Timestamp >= cutoff {
			kept = append(kept, r)
		}
	}
	return kept
}

// activityConfirms applies the account-activity gate: either the victim is a
// low-activity wallet, or its funding address is high-volume distribution
// infrastructure. Degraded lookups confirm, keeping the detector useful when
// the explorer is down.
func (c *Correlator) activityConfirms(ctx context.Context, victim string) bool {
	outgoing, err := c.view.OutgoingCount(ctx, victim)
	if err != nil {
		c.logger.WithError(err).WithField("victim", victim).Warn("outgoing count degraded")
		return true
	}
	if outgoing < c.cfg.VictimTxCountThreshold {
		return true
	}

	funder, err := c.view.FundingAddress(ctx, victim)
	if err != nil || funder == "" {
		return false
	}
	incoming, err := c.view.IncomingCount(ctx, funder)
	if err != nil {
		return false
	}
	return incoming > c.cfg.FunderTxCountThreshold
}

func (c *Correlator) assembleFinding(ctx context.Context, tx *models.Transaction, victim, sink string, records []models.TransferRecord) *finding.Finding {
	alerted := c.alerted(ctx, state.CollectionAlertedAddresses, tx.ChainID, sink)

	roundCount := 0
	total := new(big.Int)
	for _, r := range records {
		if IsRoundValue(r.Value) {
			roundCount++
		}
		if v, ok := new(big.Int).SetString(r.Value, 10); ok {
			total.Add(total, v)
		}
	}

	labels, err := c.view.AddressLabels(ctx, sink)
	if err != nil {
		c.logger.WithError(err).WithField("sink", sink).Debug("label lookup degraded")
		labels = nil
	}
	keywordHit := KeywordPresent(labels)

	severity := finding.SeverityHigh
	if keywordHit && roundCount > 0 {
		severity = finding.SeverityCritical
	}

	// A sink that already alerted only fires again on escalation to
	// critical.
	if alerted {
		if severity != finding.SeverityCritical {
			return nil
		}
		if c.alerted(ctx, state.CollectionAlertedCritical, tx.ChainID, sink) {
			return nil
		}
	}

	f := finding.AssembleDrain(finding.DrainEvidence{
		Victim:        victim,
		Sink:          sink,
		TxHash:        tx.Hash,
		TransferCount: len(records),
		RoundCount:    roundCount,
		KeywordHit:    keywordHit,
		TotalValue:    total.String(),
	}, severity)
	return &f
}
