package ledger

import (
	"math/big"
	"sort"

	"sentinel/internal/pricing"
	"sentinel/pkg/models"

	"github.com/sirupsen/logrus"
)

// Ledger maps address -> asset -> net balance change for one transaction.
// The native pseudo-asset and the chain's wrapped-native token share a key,
// so wrap/unwrap round trips net to zero instead of showing phantom profit.
type Ledger struct {
	chainID uint64
	deltas  map[string]map[string]*big.Int
}

// NewLedger creates an empty ledger for the given chain.
func NewLedger(chainID uint64) *Ledger {
	return &Ledger{
		chainID: chainID,
		deltas:  make(map[string]map[string]*big.Int),
	}
}

// ChainID returns the chain this ledger was built for.
func (l *Ledger) ChainID() uint64 {
	return l.chainID
}

// Add accumulates a signed delta for (address, asset).
func (l *Ledger) Add(address, asset string, delta *big.Int) {
	if address == "" || delta == nil {
		return
	}
	address = models.NormalizeAddress(address)

	entry, ok := l.deltas[address]
	if !ok {
		entry = make(map[string]*big.Int)
		l.deltas[address] = entry
	}
	current, ok := entry[asset]
	if !ok {
		current = new(big.Int)
		entry[asset] = current
	}
	current.Add(current, delta)
}

// Addresses returns every participating address in sorted order, so that
// downstream classification is deterministic for a given transaction.
func (l *Ledger) Addresses() []string {
	addrs := make([]string, 0, len(l.deltas))
	for addr := range l.deltas {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}

// Deltas returns the per-asset net changes for one address.
func (l *Ledger) Deltas(address string) map[string]*big.Int {
	return l.deltas[models.NormalizeAddress(address)]
}

// AssetSum totals one asset's deltas across all addresses. Zero for every
// asset on a well-formed transaction (conservation).
func (l *Ledger) AssetSum(asset string) *big.Int {
	sum := new(big.Int)
	for _, entry := range l.deltas {
		if delta, ok := entry[asset]; ok {
			sum.Add(sum, delta)
		}
	}
	return sum
}

// Assets returns the distinct asset keys present, sorted.
func (l *Ledger) Assets() []string {
	seen := make(map[string]struct{})
	for _, entry := range l.deltas {
		for asset := range entry {
			seen[asset] = struct{}{}
		}
	}
	assets := make([]string, 0, len(seen))
	for asset := range seen {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	return assets
}

// NativeOnly reports whether the address's only observed change is in the
// native pseudo-asset. Combined with an absence of traces this means the
// apparent gain cannot be distinguished from an ordinary transfer, and the
// address is excluded from profit consideration.
func (l *Ledger) NativeOnly(address string) bool {
	entry := l.deltas[models.NormalizeAddress(address)]
	if len(entry) != 1 {
		return false
	}
	_, ok := entry[pricing.NativeAsset]
	return ok
}

// MatchingCounterparty reports whether the declared receiver lost exactly
// what the sender gained in some asset pair. That shape is a purchase, not an
// exploit, and demotes the finding.
func (l *Ledger) MatchingCounterparty(txFrom, txTo string) bool {
	toDeltas := l.Deltas(txTo)
	fromDeltas := l.Deltas(txFrom)
	if toDeltas == nil || fromDeltas == nil {
		return false
	}

	for _, toAmount := range toDeltas {
		if toAmount.Sign() >= 0 {
			continue
		}
		lost := new(big.Int).Abs(toAmount)
		for _, fromAmount := range fromDeltas {
			if fromAmount.Sign() >= 0 && fromAmount.Cmp(lost) == 0 {
				return true
			}
		}
	}
	return false
}

// Builder turns decoded transfer events into a ledger. Pure transform: the
// only inputs are the transaction and its decoded events.
type Builder struct {
	logger *logrus.Logger
}

// NewBuilder creates a ledger builder.
func NewBuilder(logger *logrus.Logger) *Builder {
	return &Builder{logger: logger}
}

// Build accumulates every decoded effect into a fresh ledger.
func (b *Builder) Build(tx *models.Transaction, events DecodedEvents) *Ledger {
	l := NewLedger(tx.ChainID)
	wrapped := pricing.WrappedNativeTokens[tx.ChainID]

	for _, transfer := range events.TokenTransfers {
		if transfer.Value == nil {
			continue
		}
		asset := transfer.Token
		if asset == wrapped {
			asset = pricing.NativeAsset
		}
		neg := new(big.Int).Neg(transfer.Value)
		l.Add(transfer.From, asset, neg)
		l.Add(transfer.To, asset, transfer.Value)
	}

	for _, transfer := range events.NativeTransfers {
		if transfer.Value == nil {
			continue
		}
		neg := new(big.Int).Neg(transfer.Value)
		l.Add(transfer.From, pricing.NativeAsset, neg)
		l.Add(transfer.To, pricing.NativeAsset, transfer.Value)
	}

	// Wrap events are asset-preserving conversions between an account and
	// the wrapped-native contract; crediting both sides keeps the per-asset
	// sum at zero and cancels the contract's transient trace gain.
	for _, ev := range events.WrapEvents {
		if ev.Value == nil {
			continue
		}
		neg := new(big.Int).Neg(ev.Value)
		if ev.IsDeposit {
			l.Add(ev.Account, pricing.NativeAsset, ev.Value)
			l.Add(ev.Token, pricing.NativeAsset, neg)
		} else {
			l.Add(ev.Account, pricing.NativeAsset, neg)
			l.Add(ev.Token, pricing.NativeAsset, ev.Value)
		}
	}

	return l
}
