package drain

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"sentinel/internal/finding"
	"sentinel/internal/state"
	"sentinel/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubView is a canned chain.StateView.
type stubView struct {
	contracts map[string]bool
	outgoing  map[string]uint64
	incoming  map[string]uint64
	funders   map[string]string
	labels    map[string][]string
	viewErr   error
}

func (v *stubView) IsContract(ctx context.Context, address string) (bool, error) {
	if v.viewErr != nil {
		return false, v.viewErr
	}
	return v.contracts[address], nil
}

func (v *stubView) OutgoingCount(ctx context.Context, address string) (uint64, error) {
	if v.viewErr != nil {
		return 0, v.viewErr
	}
	return v.outgoing[address], nil
}

func (v *stubView) IncomingCount(ctx context.Context, address string) (uint64, error) {
	if v.viewErr != nil {
		return 0, v.viewErr
	}
	return v.incoming[address], nil
}

func (v *stubView) FundingAddress(ctx context.Context, address string) (string, error) {
	if v.viewErr != nil {
		return "", v.viewErr
	}
	return v.funders[address], nil
}

func (v *stubView) AddressLabels(ctx context.Context, address string) ([]string, error) {
	if v.viewErr != nil {
		return nil, v.viewErr
	}
	return v.labels[address], nil
}

const (
	testVictim = "0x1111111111111111111111111111111111111111"
	testSink   = "0x2222222222222222222222222222222222222222"
)

func newTestCorrelator(view *stubView) (*Correlator, *state.MemoryStore) {
	store := state.NewMemoryStore()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewCorrelator(DefaultConfig(), store, view, logger), store
}

func drainTx(nonce uint64, value string, ts time.Time) *models.Transaction {
	v, _ := new(big.Int).SetString(value, 10)
	return &models.Transaction{
		Hash:      fmt.Sprintf("0x%064d", nonce),
		ChainID:   1,
		From:      testVictim,
		To:        testSink,
		Value:     v,
		Nonce:     nonce,
		Input:     "0x",
		Timestamp: ts,
	}
}

func TestCorrelator_ConfirmsAtThreshold(t *testing.T) {
	view := &stubView{}
	c, store := newTestCorrelator(view)
	ctx := context.Background()
	now := time.Now()

	// Six transfers: below threshold, no finding.
	for i := uint64(1); i <= 6; i++ {
		f, err := c.Process(ctx, drainTx(i, fmt.Sprintf("%d00000000000000001", i), now.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
		assert.Nil(t, f)
	}

	// The seventh confirms.
	f, err := c.Process(ctx, drainTx(7, "700000000000000001", now.Add(7*time.Minute)))
	require.NoError(t, err)
	require.NotNil(t, f)

	assert.Equal(t, finding.AlertNativeDrain, f.AlertID)
	assert.Equal(t, finding.SeverityHigh, f.Severity)
	assert.Equal(t, "7", f.Metadata["transferCount"])
	assert.Equal(t, testVictim, f.Metadata["victim"])
	assert.Equal(t, testSink, f.Metadata["sink"])

	// Window resets after alerting.
	records, err := store.LoadTransferWindow(ctx, 1, testVictim)
	require.NoError(t, err)
	assert.Empty(t, records)

	// Both ends of the drain are recorded as alerted.
	alerted, err := store.Contains(ctx, state.CollectionAlertedAddresses, 1, testSink)
	require.NoError(t, err)
	assert.True(t, alerted)

	alerted, err = store.Contains(ctx, state.CollectionAlertedAddresses, 1, testVictim)
	require.NoError(t, err)
	assert.True(t, alerted)
}

func TestCorrelator_CriticalOnKeywordAndRoundValue(t *testing.T) {
	view := &stubView{
		labels: map[string][]string{testSink: {"Fake_Phishing99999"}},
	}
	c, _ := newTestCorrelator(view)
	ctx := context.Background()
	now := time.Now()

	var f *finding.Finding
	var err error
	for i := uint64(1); i <= 7; i++ {
		// Round whole-ether values, distinct so the conflict filter keeps them.
		f, err = c.Process(ctx, drainTx(i, fmt.Sprintf("%d000000000000000000", i*2), now.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	require.NotNil(t, f)
	assert.Equal(t, finding.SeverityCritical, f.Severity)
	assert.Equal(t, "true", f.Metadata["keywordHit"])
	assert.Equal(t, "7", f.Metadata["roundCount"])
}

func TestCorrelator_IgnoresContractCalls(t *testing.T) {
	view := &stubView{}
	c, store := newTestCorrelator(view)
	ctx := context.Background()

	tx := drainTx(1, "1000000000000000000", time.Now())
	tx.Input = "0xa9059cbb000000000000000000000000000000000000000000000000000000000000dead"

	f, err := c.Process(ctx, tx)
	require.NoError(t, err)
	assert.Nil(t, f)

	records, err := store.LoadTransferWindow(ctx, 1, testVictim)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCorrelator_IgnoresContractSinks(t *testing.T) {
	view := &stubView{contracts: map[string]bool{testSink: true}}
	c, store := newTestCorrelator(view)
	ctx := context.Background()

	f, err := c.Process(ctx, drainTx(1, "1000000000000000000", time.Now()))
	require.NoError(t, err)
	assert.Nil(t, f)

	records, err := store.LoadTransferWindow(ctx, 1, testVictim)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCorrelator_ReprocessingIsIdempotent(t *testing.T) {
	view := &stubView{}
	c, store := newTestCorrelator(view)
	ctx := context.Background()
	now := time.Now()

	tx := drainTx(1, "123400000000000001", now)
	_, err := c.Process(ctx, tx)
	require.NoError(t, err)
	_, err = c.Process(ctx, tx)
	require.NoError(t, err)

	records, err := store.LoadTransferWindow(ctx, 1, testVictim)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCorrelator_BusyVictimSuppressed(t *testing.T) {
	view := &stubView{
		outgoing: map[string]uint64{testVictim: 5000},
	}
	c, _ := newTestCorrelator(view)
	ctx := context.Background()
	now := time.Now()

	var f *finding.Finding
	var err error
	for i := uint64(1); i <= 8; i++ {
		f, err = c.Process(ctx, drainTx(i, fmt.Sprintf("%d00000000000000001", i), now.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
		assert.Nil(t, f)
	}
	_ = f
}

func TestCorrelator_BusyVictimWithDistributionFunder(t *testing.T) {
	funder := "0x3333333333333333333333333333333333333333"
	view := &stubView{
		outgoing: map[string]uint64{testVictim: 5000},
		incoming: map[string]uint64{funder: 20000},
		funders:  map[string]string{testVictim: funder},
	}
	c, _ := newTestCorrelator(view)
	ctx := context.Background()
	now := time.Now()

	var f *finding.Finding
	var err error
	for i := uint64(1); i <= 7; i++ {
		f, err = c.Process(ctx, drainTx(i, fmt.Sprintf("%d00000000000000001", i), now.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	// The funder override re-enables detection for faucet-funded wallets.
	require.NotNil(t, f)
}

func TestCorrelator_ExpiredRecordsPruned(t *testing.T) {
	view := &stubView{}
	c, store := newTestCorrelator(view)
	ctx := context.Background()
	now := time.Now()

	// Three transfers six days ago fall out of the five-day window.
	old := now.Add(-6 * 24 * time.Hour)
	for i := uint64(1); i <= 3; i++ {
		_, err := c.Process(ctx, drainTx(i, fmt.Sprintf("%d00000000000000001", i), old.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	_, err := c.Process(ctx, drainTx(10, "999000000000000001", now))
	require.NoError(t, err)

	records, err := store.LoadTransferWindow(ctx, 1, testVictim)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, uint64(10), records[0].FromNonce)
}

func TestCorrelator_AlertedSinkOnlyRefiresOnEscalation(t *testing.T) {
	view := &stubView{}
	c, store := newTestCorrelator(view)
	ctx := context.Background()
	now := time.Now()

	// First confirmation: high severity, sink recorded.
	var f *finding.Finding
	var err error
	for i := uint64(1); i <= 7; i++ {
		f, err = c.Process(ctx, drainTx(i, fmt.Sprintf("%d00000000000000001", i), now.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}
	require.NotNil(t, f)
	assert.Equal(t, finding.SeverityHigh, f.Severity)

	// Second confirmation at the same severity stays silent.
	for i := uint64(11); i <= 17; i++ {
		f, err = c.Process(ctx, drainTx(i, fmt.Sprintf("%d0000000000000001", i), now.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}
	assert.Nil(t, f)

	// Escalation to critical fires exactly once, as soon as the window
	// confirms again.
	view.labels = map[string][]string{testSink: {"drainer.eth"}}
	var escalation *finding.Finding
	for i := uint64(21); i <= 27; i++ {
		f, err = c.Process(ctx, drainTx(i, fmt.Sprintf("%d000000000000000000", i), now.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
		if f != nil {
			require.Nil(t, escalation)
			escalation = f
		}
	}
	require.NotNil(t, escalation)
	assert.Equal(t, finding.SeverityCritical, escalation.Severity)

	critical, err := store.Contains(ctx, state.CollectionAlertedCritical, 1, testSink)
	require.NoError(t, err)
	assert.True(t, critical)

	// A second critical confirmation stays silent too.
	for i := uint64(31); i <= 37; i++ {
		f, err = c.Process(ctx, drainTx(i, fmt.Sprintf("%d000000000000000000", i), now.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}
	assert.Nil(t, f)
}

// faultyStore wraps a working repository with injectable failures.
type faultyStore struct {
	*state.MemoryStore
	failLoad bool
	failSave bool
}

func (s *faultyStore) LoadTransferWindow(ctx context.Context, chainID uint64, victim string) ([]models.TransferRecord, error) {
	if s.failLoad {
		return nil, fmt.Errorf("database unavailable")
	}
	return s.MemoryStore.LoadTransferWindow(ctx, chainID, victim)
}

func (s *faultyStore) SaveTransferWindow(ctx context.Context, chainID uint64, victim string, records []models.TransferRecord) error {
	if s.failSave {
		return fmt.Errorf("database unavailable")
	}
	return s.MemoryStore.SaveTransferWindow(ctx, chainID, victim, records)
}

func TestCorrelator_WindowReadFailureDegradesToEmpty(t *testing.T) {
	store := &faultyStore{MemoryStore: state.NewMemoryStore(), failLoad: true}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	c := NewCorrelator(DefaultConfig(), store, &stubView{}, logger)

	f, err := c.Process(context.Background(), drainTx(1, "1000000000000000000", time.Now()))
	require.NoError(t, err)
	assert.Nil(t, f)

	// The observation still landed, built on an empty history.
	store.failLoad = false
	records, err := store.LoadTransferWindow(context.Background(), 1, testVictim)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCorrelator_FindingSurvivesWriteFailure(t *testing.T) {
	store := &faultyStore{MemoryStore: state.NewMemoryStore()}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	c := NewCorrelator(DefaultConfig(), store, &stubView{}, logger)
	ctx := context.Background()
	now := time.Now()

	for i := uint64(1); i <= 6; i++ {
		f, err := c.Process(ctx, drainTx(i, fmt.Sprintf("%d00000000000000001", i), now.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
		assert.Nil(t, f)
	}

	// The window reset after confirmation fails, but the finding still
	// goes out.
	store.failSave = true
	f, err := c.Process(ctx, drainTx(7, "700000000000000001", now.Add(7*time.Minute)))
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, finding.AlertNativeDrain, f.AlertID)
}

func TestCorrelator_DegradedContractCheckSkips(t *testing.T) {
	view := &stubView{viewErr: fmt.Errorf("explorer down")}
	c, store := newTestCorrelator(view)
	ctx := context.Background()

	f, err := c.Process(ctx, drainTx(1, "1000000000000000000", time.Now()))
	require.NoError(t, err)
	assert.Nil(t, f)

	records, err := store.LoadTransferWindow(ctx, 1, testVictim)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCorrelator_ZeroValueIgnored(t *testing.T) {
	view := &stubView{}
	c, _ := newTestCorrelator(view)

	tx := drainTx(1, "0", time.Now())
	f, err := c.Process(context.Background(), tx)
	require.NoError(t, err)
	assert.Nil(t, f)
}
