package profit

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"sentinel/internal/ledger"
	"sentinel/internal/pricing"
	"sentinel/internal/routers"
	"sentinel/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	prices map[string]float64
	meta   map[string]pricing.Metadata
}

func (p *stubProvider) USDPrice(ctx context.Context, asset string, chainID uint64) (float64, bool) {
	price, ok := p.prices[asset]
	return price, ok
}

func (p *stubProvider) TokenMetadata(ctx context.Context, asset string) (pricing.Metadata, error) {
	meta, ok := p.meta[asset]
	if !ok {
		return pricing.Metadata{}, fmt.Errorf("no metadata for %s", asset)
	}
	return meta, nil
}

type stubChainView struct {
	contracts map[string]bool
}

func (v *stubChainView) IsContract(ctx context.Context, address string) (bool, error) {
	return v.contracts[address], nil
}

func (v *stubChainView) OutgoingCount(ctx context.Context, address string) (uint64, error) {
	return 0, nil
}

func (v *stubChainView) IncomingCount(ctx context.Context, address string) (uint64, error) {
	return 0, nil
}

func (v *stubChainView) FundingAddress(ctx context.Context, address string) (string, error) {
	return "", nil
}

func (v *stubChainView) AddressLabels(ctx context.Context, address string) ([]string, error) {
	return nil, nil
}

const (
	testToken    = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testGainer   = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	testLoser    = "0xcccccccccccccccccccccccccccccccccccccccc"
	testRouter   = "0xdddddddddddddddddddddddddddddddddddddddd"
	testContract = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
)

func tokens(n int64, decimals int64) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(decimals), nil)
	return new(big.Int).Mul(big.NewInt(n), scale)
}

func newTestClassifier(prices *stubProvider, view *stubChainView, extraRouters []string) *Classifier {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	rf := routers.NewFilter(1, extraRouters)
	return NewClassifier(DefaultConfig(), rf, prices, view, logger)
}

func plainTx() *models.Transaction {
	return &models.Transaction{
		Hash:    "0xab00000000000000000000000000000000000000000000000000000000000000",
		ChainID: 1,
		From:    testLoser,
		To:      testGainer,
		Input:   "0x",
	}
}

func TestClassify_USDThresholdCrossed(t *testing.T) {
	prices := &stubProvider{
		prices: map[string]float64{testToken: 1},
		meta:   map[string]pricing.Metadata{testToken: {Decimals: 18, Symbol: "TKN"}},
	}
	c := newTestClassifier(prices, &stubChainView{}, nil)

	l := ledger.NewLedger(1)
	l.Add(testGainer, testToken, tokens(600000, 18))
	l.Add(testLoser, testToken, new(big.Int).Neg(tokens(600000, 18)))

	candidates, err := c.Classify(context.Background(), plainTx(), l, ledger.DecodedEvents{})
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	got := candidates[0]
	assert.Equal(t, testGainer, got.Address)
	assert.True(t, got.ProfitInUSD)
	assert.InDelta(t, 600000, got.Profit, 1)
	assert.Equal(t, 0.3, got.Confidence)
	assert.Equal(t, 1.0, got.AnomalyScore)
}

func TestClassify_BelowThresholdIgnored(t *testing.T) {
	prices := &stubProvider{
		prices: map[string]float64{testToken: 1},
		meta:   map[string]pricing.Metadata{testToken: {Decimals: 18}},
	}
	c := newTestClassifier(prices, &stubChainView{}, nil)

	l := ledger.NewLedger(1)
	l.Add(testGainer, testToken, tokens(499999, 18))
	l.Add(testLoser, testToken, new(big.Int).Neg(tokens(499999, 18)))

	candidates, err := c.Classify(context.Background(), plainTx(), l, ledger.DecodedEvents{})
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestClassify_ThresholdAppliesPerAsset(t *testing.T) {
	other := "0xffffffffffffffffffffffffffffffffffffffff"
	prices := &stubProvider{
		prices: map[string]float64{testToken: 1, other: 1},
		meta: map[string]pricing.Metadata{
			testToken: {Decimals: 18},
			other:     {Decimals: 18},
		},
	}
	c := newTestClassifier(prices, &stubChainView{}, nil)

	// Two sub-threshold gains in different tokens never add up to a
	// qualifying profit.
	l := ledger.NewLedger(1)
	l.Add(testGainer, testToken, tokens(300000, 18))
	l.Add(testGainer, other, tokens(300000, 18))
	l.Add(testLoser, testToken, new(big.Int).Neg(tokens(300000, 18)))
	l.Add(testLoser, other, new(big.Int).Neg(tokens(300000, 18)))

	candidates, err := c.Classify(context.Background(), plainTx(), l, ledger.DecodedEvents{})
	require.NoError(t, err)
	assert.Empty(t, candidates)

	// One qualifying asset is enough, whatever the others did.
	l.Add(testGainer, other, tokens(300000, 18))
	l.Add(testLoser, other, new(big.Int).Neg(tokens(300000, 18)))

	candidates, err = c.Classify(context.Background(), plainTx(), l, ledger.DecodedEvents{})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, testGainer, candidates[0].Address)
	assert.InDelta(t, 600000, candidates[0].Profit, 1)
}

func TestClassify_ThresholdMonotonic(t *testing.T) {
	prices := &stubProvider{
		prices: map[string]float64{testToken: 1},
		meta:   map[string]pricing.Metadata{testToken: {Decimals: 18}},
	}

	l := ledger.NewLedger(1)
	l.Add(testGainer, testToken, tokens(600000, 18))
	l.Add(testLoser, testToken, new(big.Int).Neg(tokens(600000, 18)))

	// A gain that qualifies at some threshold qualifies at every lower one.
	tests := []struct {
		name      string
		threshold float64
		qualifies bool
	}{
		{"well below the gain", 100000, true},
		{"just below the gain", 599999, true},
		{"exactly the gain", 600000, true},
		{"just above the gain", 600001, false},
		{"well above the gain", 2000000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := logrus.New()
			logger.SetLevel(logrus.PanicLevel)
			c := NewClassifier(Config{USDThreshold: tt.threshold}, routers.NewFilter(1, nil), prices, &stubChainView{}, logger)

			candidates, err := c.Classify(context.Background(), plainTx(), l, ledger.DecodedEvents{})
			require.NoError(t, err)
			if tt.qualifies {
				assert.Len(t, candidates, 1)
			} else {
				assert.Empty(t, candidates)
			}
		})
	}
}

func TestClassify_SupplyPercentFallback(t *testing.T) {
	// No USD price for the token, so the gain is measured against supply.
	prices := &stubProvider{
		prices: map[string]float64{},
		meta: map[string]pricing.Metadata{
			testToken: {Decimals: 18, TotalSupply: tokens(1000, 18)},
		},
	}
	c := newTestClassifier(prices, &stubChainView{}, nil)

	l := ledger.NewLedger(1)
	l.Add(testGainer, testToken, tokens(100, 18))
	l.Add(testLoser, testToken, new(big.Int).Neg(tokens(100, 18)))

	candidates, err := c.Classify(context.Background(), plainTx(), l, ledger.DecodedEvents{})
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	got := candidates[0]
	assert.False(t, got.ProfitInUSD)
	assert.InDelta(t, 10, got.Profit, 0.001)
	assert.Equal(t, 0.4, got.Confidence)
}

func TestClassify_RouterAndZeroAddressSkipped(t *testing.T) {
	prices := &stubProvider{
		prices: map[string]float64{testToken: 1},
		meta:   map[string]pricing.Metadata{testToken: {Decimals: 18}},
	}
	c := newTestClassifier(prices, &stubChainView{}, []string{testRouter})

	l := ledger.NewLedger(1)
	l.Add(testRouter, testToken, tokens(900000, 18))
	l.Add(zeroAddress, testToken, tokens(900000, 18))
	l.Add(testLoser, testToken, new(big.Int).Neg(tokens(1800000, 18)))

	candidates, err := c.Classify(context.Background(), plainTx(), l, ledger.DecodedEvents{})
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestClassify_NativeOnlyWithoutTracesSkipped(t *testing.T) {
	prices := &stubProvider{
		prices: map[string]float64{pricing.NativeAsset: 3000},
	}
	c := newTestClassifier(prices, &stubChainView{}, nil)

	l := ledger.NewLedger(1)
	l.Add(testGainer, pricing.NativeAsset, tokens(1000, 18))
	l.Add(testLoser, pricing.NativeAsset, new(big.Int).Neg(tokens(1000, 18)))

	// Without traces an apparent native gain is just a transfer.
	tx := plainTx()
	candidates, err := c.Classify(context.Background(), tx, l, ledger.DecodedEvents{})
	require.NoError(t, err)
	assert.Empty(t, candidates)

	// With traces the same gain is classified.
	tx.Traces = []models.Trace{{From: testLoser, To: testGainer, Value: tokens(1000, 18), Input: "0x"}}
	candidates, err = c.Classify(context.Background(), tx, l, ledger.DecodedEvents{})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, testGainer, candidates[0].Address)
	assert.True(t, candidates[0].ProfitInUSD)
}

func batchTransfers(n int, receiver func(i int) string, sender func(i int) string) []models.TokenTransfer {
	out := make([]models.TokenTransfer, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.TokenTransfer{
			Token: testToken,
			From:  sender(i),
			To:    receiver(i),
			Value: big.NewInt(1),
		})
	}
	return out
}

func TestBatchVerdict(t *testing.T) {
	view := &stubChainView{contracts: map[string]bool{testContract: true}}
	c := newTestClassifier(&stubProvider{}, view, nil)
	ctx := context.Background()

	t.Run("small sets are not batches", func(t *testing.T) {
		transfers := batchTransfers(30,
			func(i int) string { return fmt.Sprintf("0x%040d", i) },
			func(i int) string { return testLoser })
		verdict, err := c.batchVerdict(ctx, transfers)
		require.NoError(t, err)
		assert.Equal(t, NotBatch, verdict)
	})

	t.Run("one receiver is suspicious", func(t *testing.T) {
		transfers := batchTransfers(31,
			func(i int) string { return testGainer },
			func(i int) string { return fmt.Sprintf("0x%040d", i) })
		verdict, err := c.batchVerdict(ctx, transfers)
		require.NoError(t, err)
		assert.Equal(t, SuspiciousBatch, verdict)
	})

	t.Run("many receivers from wallets is an airdrop", func(t *testing.T) {
		transfers := batchTransfers(31,
			func(i int) string { return fmt.Sprintf("0x%040d", i) },
			func(i int) string { return testLoser })
		verdict, err := c.batchVerdict(ctx, transfers)
		require.NoError(t, err)
		assert.Equal(t, BenignAirdrop, verdict)
	})

	t.Run("contract sender keeps the batch suspicious", func(t *testing.T) {
		transfers := batchTransfers(31,
			func(i int) string { return fmt.Sprintf("0x%040d", i) },
			func(i int) string { return testContract })
		verdict, err := c.batchVerdict(ctx, transfers)
		require.NoError(t, err)
		assert.Equal(t, SuspiciousBatch, verdict)
	})

	t.Run("mixed tokens are not a batch", func(t *testing.T) {
		transfers := batchTransfers(31,
			func(i int) string { return fmt.Sprintf("0x%040d", i) },
			func(i int) string { return testLoser })
		transfers[5].Token = "0xffffffffffffffffffffffffffffffffffffffff"
		verdict, err := c.batchVerdict(ctx, transfers)
		require.NoError(t, err)
		assert.Equal(t, NotBatch, verdict)
	})
}

func TestClassify_AirdropSkipsClassification(t *testing.T) {
	prices := &stubProvider{
		prices: map[string]float64{testToken: 1},
		meta:   map[string]pricing.Metadata{testToken: {Decimals: 18}},
	}
	c := newTestClassifier(prices, &stubChainView{}, nil)

	// Even though an address gained past the threshold, the airdrop verdict
	// short-circuits the whole transaction.
	l := ledger.NewLedger(1)
	l.Add(testGainer, testToken, tokens(900000, 18))
	l.Add(testLoser, testToken, new(big.Int).Neg(tokens(900000, 18)))

	events := ledger.DecodedEvents{
		TokenTransfers: batchTransfers(31,
			func(i int) string { return fmt.Sprintf("0x%040d", i) },
			func(i int) string { return testLoser }),
	}

	candidates, err := c.Classify(context.Background(), plainTx(), l, events)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestConfidenceFromUSD(t *testing.T) {
	tests := []struct {
		name       string
		ratio      float64
		exploitSig bool
		expected   float64
	}{
		{"just over threshold", 1.2, false, 0.3},
		{"double", 2, false, 0.4},
		{"quadruple", 4, false, 0.5},
		{"tenfold", 10, false, 0.6},
		{"twentyfold", 20, false, 0.7},
		{"signature bonus", 1.2, true, 0.5},
		{"bonus at top band", 25, true, 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, confidenceFromUSD(tt.ratio, tt.exploitSig), 0.0001)
		})
	}
}

func TestConfidenceFromSupplyPct(t *testing.T) {
	tests := []struct {
		name       string
		pct        float64
		exploitSig bool
		expected   float64
	}{
		{"small share", 6, false, 0.3},
		{"tenth of supply", 10, false, 0.4},
		{"fifth of supply", 20, false, 0.5},
		{"half of supply", 50, false, 0.6},
		{"signature bonus", 50, true, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, confidenceFromSupplyPct(tt.pct, tt.exploitSig), 0.0001)
		})
	}
}
