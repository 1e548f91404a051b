package finding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	attacker   = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	accomplice = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	target     = "0xcccccccccccccccccccccccccccccccccccccccc"
	attackTx   = "0xdd00000000000000000000000000000000000000000000000000000000000000"
)

func labelFor(f Finding, entity string) (Label, bool) {
	for _, l := range f.Labels {
		if l.Entity == entity {
			return l, true
		}
	}
	return Label{}, false
}

func TestAssembleLargeProfit_Metadata(t *testing.T) {
	candidates := []ProfitCandidate{
		{Address: attacker, Confidence: 0.7, AnomalyScore: 1, ProfitInUSD: true, Profit: 1234567.891},
		{Address: accomplice, Confidence: 0.4, AnomalyScore: 0.5, ProfitInUSD: false, Profit: 12.5},
	}

	f := AssembleLargeProfit(candidates, attackTx, SeverityHigh, attacker, target)

	assert.Equal(t, AlertLargeProfit, f.AlertID)
	assert.Equal(t, SeverityHigh, f.Severity)
	assert.Equal(t, TypeSuspicious, f.Type)

	assert.Equal(t, "$1234567.89", f.Metadata["profit1"])
	assert.Equal(t, attacker, f.Metadata["profitAddress1"])
	assert.Equal(t, "12.5% of total supply", f.Metadata["profit2"])
	assert.Equal(t, accomplice, f.Metadata["profitAddress2"])
	assert.Equal(t, attacker, f.Metadata["txFrom"])
	assert.Equal(t, target, f.Metadata["txTo"])

	// The least anomalous participant bounds the finding's anomaly claim.
	assert.Equal(t, "0.5", f.Metadata["anomalyScore"])
}

func TestAssembleLargeProfit_SenderAlreadyLabeled(t *testing.T) {
	candidates := []ProfitCandidate{
		{Address: attacker, Confidence: 0.7, AnomalyScore: 1, ProfitInUSD: true, Profit: 600000},
	}

	f := AssembleLargeProfit(candidates, attackTx, SeverityHigh, attacker, target)

	// One attacker label plus the attack label, no duplicate for the sender.
	require.Len(t, f.Labels, 2)

	got, ok := labelFor(f, attacker)
	require.True(t, ok)
	assert.Equal(t, "Attacker", got.Label)
	assert.Equal(t, 0.7, got.Confidence)

	tx, ok := labelFor(f, attackTx)
	require.True(t, ok)
	assert.Equal(t, "Attack", tx.Label)
	assert.Equal(t, EntityTransaction, tx.EntityType)
	assert.Equal(t, 1.0, tx.Confidence)
}

func TestAssembleLargeProfit_SenderAddedAtMaxConfidence(t *testing.T) {
	other := "0x9999999999999999999999999999999999999999"
	candidates := []ProfitCandidate{
		{Address: accomplice, Confidence: 0.5, AnomalyScore: 1, ProfitInUSD: true, Profit: 600000},
		{Address: other, Confidence: 0.9, AnomalyScore: 1, ProfitInUSD: true, Profit: 900000},
	}

	f := AssembleLargeProfit(candidates, attackTx, SeverityCritical, attacker, target)

	require.Len(t, f.Labels, 4)

	sender, ok := labelFor(f, attacker)
	require.True(t, ok)
	assert.Equal(t, "Attacker", sender.Label)
	assert.Equal(t, 0.9, sender.Confidence)
}

func TestAssembleDrain(t *testing.T) {
	f := AssembleDrain(DrainEvidence{
		Victim:        accomplice,
		Sink:          attacker,
		TxHash:        attackTx,
		TransferCount: 9,
		RoundCount:    3,
		KeywordHit:    true,
		TotalValue:    "9000000000000000000",
	}, SeverityCritical)

	assert.Equal(t, AlertNativeDrain, f.AlertID)
	assert.Equal(t, SeverityCritical, f.Severity)
	assert.Equal(t, "9", f.Metadata["transferCount"])
	assert.Equal(t, "3", f.Metadata["roundCount"])
	assert.Equal(t, "true", f.Metadata["keywordHit"])
	assert.Equal(t, "9000000000000000000", f.Metadata["totalValue"])
	assert.Equal(t, accomplice, f.Metadata["victim"])
	assert.Equal(t, attacker, f.Metadata["sink"])

	require.Len(t, f.Labels, 3)

	sink, ok := labelFor(f, attacker)
	require.True(t, ok)
	assert.Equal(t, "Attacker", sink.Label)
	assert.Equal(t, 0.9, sink.Confidence)

	victim, ok := labelFor(f, accomplice)
	require.True(t, ok)
	assert.Equal(t, "Victim", victim.Label)

	tx, ok := labelFor(f, attackTx)
	require.True(t, ok)
	assert.Equal(t, "Attack", tx.Label)
}

func TestSeverityAtLeast(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityHigh))
	assert.True(t, SeverityHigh.AtLeast(SeverityHigh))
	assert.False(t, SeverityMedium.AtLeast(SeverityHigh))
	assert.True(t, SeverityInfo.AtLeast(SeverityInfo))
}
