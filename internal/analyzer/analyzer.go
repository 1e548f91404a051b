package analyzer

import (
	"context"

	"sentinel/internal/drain"
	"sentinel/internal/finding"
	"sentinel/internal/ledger"
	"sentinel/internal/profit"
	"sentinel/internal/state"
	"sentinel/pkg/models"

	"github.com/sirupsen/logrus"
)

// Analyzer runs every detection path over one transaction. The drain path
// carries its window state in the correlator's repository; the large-profit
// path consults the shared alert collections so a replayed transaction or an
// already-flagged address alerts at most once. Findings come back in a fixed
// order (profit first, then drain) so replays produce identical output.
type Analyzer struct {
	builder    *ledger.Builder
	classifier *profit.Classifier
	correlator *drain.Correlator
	store      state.Repository
	logger     *logrus.Logger
}

// New creates an analyzer.
func New(builder *ledger.Builder, classifier *profit.Classifier, correlator *drain.Correlator, store state.Repository, logger *logrus.Logger) *Analyzer {
	return &Analyzer{
		builder:    builder,
		classifier: classifier,
		correlator: correlator,
		store:      store,
		logger:     logger,
	}
}

// Analyze inspects one transaction and returns zero or more findings. A
// failure in one detection path degrades that path only; the other still
// runs.
func (a *Analyzer) Analyze(ctx context.Context, tx *models.Transaction) ([]finding.Finding, error) {
	var findings []finding.Finding

	if f := a.runProfitPath(ctx, tx); f != nil {
		findings = append(findings, *f)
	}

	drainFinding, err := a.correlator.Process(ctx, tx)
	if err != nil {
		a.logger.WithError(err).WithField("tx", tx.Hash).Error("drain correlation failed")
	} else if drainFinding != nil {
		findings = append(findings, *drainFinding)
	}

	return findings, nil
}

func (a *Analyzer) runProfitPath(ctx context.Context, tx *models.Transaction) *finding.Finding {
	if a.alreadyAlerted(ctx, state.CollectionAlertedHashes, tx.ChainID, tx.Hash) {
		return nil
	}

	events := ledger.DecodeEvents(tx)
	l := a.builder.Build(tx, events)

	candidates, err := a.classifier.Classify(ctx, tx, l, events)
	if err != nil {
		a.logger.WithError(err).WithField("tx", tx.Hash).Error("profit classification failed")
		return nil
	}

	// Addresses that already carry an alert never fire again.
	fresh := candidates[:0]
	for _, c := range candidates {
		if !a.alreadyAlerted(ctx, state.CollectionAlertedAddresses, tx.ChainID, c.Address) {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	// A receiver that paid exactly what the sender gained is a trade. The
	// evidence still assembles, but below the emit bar.
	if l.MatchingCounterparty(tx.From, tx.To) {
		a.logger.WithField("tx", tx.Hash).Debug("matching counterparty, demoting large-profit finding")
		return nil
	}

	severity := finding.SeverityMedium
	for _, c := range fresh {
		if c.Confidence >= 0.6 {
			severity = finding.SeverityHigh
			break
		}
	}

	f := finding.AssembleLargeProfit(fresh, tx.Hash, severity, tx.From, tx.To)

	a.recordAlert(ctx, state.CollectionAlertedHashes, tx.ChainID, tx.Hash)
	for _, c := range fresh {
		a.recordAlert(ctx, state.CollectionAlertedAddresses, tx.ChainID, c.Address)
	}
	return &f
}

// alreadyAlerted treats a failed read as no prior alert, matching the
// empty-default rule for every other state lookup.
func (a *Analyzer) alreadyAlerted(ctx context.Context, collection string, chainID uint64, key string) bool {
	seen, err := a.store.Contains(ctx, collection, chainID, key)
	if err != nil {
		a.logger.WithError(err).WithField("key", key).Warn("alert state read degraded")
		return false
	}
	return seen
}

// recordAlert writes are fire-and-forget: the finding already exists, so a
// persistence failure is logged and the finding still goes out.
func (a *Analyzer) recordAlert(ctx context.Context, collection string, chainID uint64, key string) {
	if err := a.store.Add(ctx, collection, chainID, key); err != nil {
		a.logger.WithError(err).WithField("key", key).Error("alert state write failed")
	}
}
