package finding

import (
	"fmt"
	"strconv"
	"time"

	"sentinel/pkg/models"
)

// Alert identifiers.
const (
	AlertLargeProfit = "LARGE-PROFIT"
	AlertNativeDrain = "NIP-DRAIN"
)

// ProfitCandidate is one address that cleared the profit threshold.
type ProfitCandidate struct {
	Address      string
	Confidence   float64
	AnomalyScore float64
	ProfitInUSD  bool
	Profit       float64 // USD, or percent of total supply when !ProfitInUSD
}

// AssembleLargeProfit builds the large-profit finding: every candidate gets
// an Attacker label, the transaction hash an Attack label, and the declared
// sender is added at the max existing confidence when absent (whoever signed
// the transaction is at least as culpable as any beneficiary).
func AssembleLargeProfit(candidates []ProfitCandidate, txHash string, severity Severity, txFrom, txTo string) Finding {
	txFrom = models.NormalizeAddress(txFrom)

	metadata := map[string]string{
		"txFrom": txFrom,
		"txTo":   models.NormalizeAddress(txTo),
	}

	// The most conservative signal wins: a single low-anomaly participant
	// must not let the finding claim uniformly high anomaly.
	minAnomaly := candidates[0].AnomalyScore
	for _, c := range candidates[1:] {
		if c.AnomalyScore < minAnomaly {
			minAnomaly = c.AnomalyScore
		}
	}
	metadata["anomalyScore"] = strconv.FormatFloat(minAnomaly, 'f', -1, 64)

	labels := make([]Label, 0, len(candidates)+2)
	senderLabeled := false
	maxConfidence := 0.0

	for i, c := range candidates {
		addr := models.NormalizeAddress(c.Address)
		if c.ProfitInUSD {
			metadata[fmt.Sprintf("profit%d", i+1)] = fmt.Sprintf("$%.2f", c.Profit)
		} else {
			metadata[fmt.Sprintf("profit%d", i+1)] = fmt.Sprintf("%g%% of total supply", c.Profit)
		}
		metadata[fmt.Sprintf("profitAddress%d", i+1)] = addr

		labels = append(labels, Label{
			Entity:     addr,
			EntityType: EntityAddress,
			Label:      "Attacker",
			Confidence: c.Confidence,
		})
		if addr == txFrom {
			senderLabeled = true
		}
		if c.Confidence > maxConfidence {
			maxConfidence = c.Confidence
		}
	}

	if !senderLabeled {
		labels = append(labels, Label{
			Entity:     txFrom,
			EntityType: EntityAddress,
			Label:      "Attacker",
			Confidence: maxConfidence,
		})
	}
	labels = append(labels, Label{
		Entity:     txHash,
		EntityType: EntityTransaction,
		Label:      "Attack",
		Confidence: 1,
	})

	return Finding{
		Name:        "Large Profit",
		Description: "Transaction resulted in a large profit for the initiator",
		AlertID:     AlertLargeProfit,
		Severity:    severity,
		Type:        TypeSuspicious,
		Metadata:    metadata,
		Labels:      labels,
		Timestamp:   time.Now().UTC(),
	}
}

// DrainEvidence summarizes why a victim's transfer window confirmed a drain
// pattern.
type DrainEvidence struct {
	Victim        string
	Sink          string
	TxHash        string
	TransferCount int
	RoundCount    int
	KeywordHit    bool
	TotalValue    string
}

// AssembleDrain builds the native ice-phishing finding for a confirmed
// drain pattern.
func AssembleDrain(ev DrainEvidence, severity Severity) Finding {
	victim := models.NormalizeAddress(ev.Victim)
	sink := models.NormalizeAddress(ev.Sink)

	metadata := map[string]string{
		"victim":        victim,
		"sink":          sink,
		"transferCount": strconv.Itoa(ev.TransferCount),
		"roundCount":    strconv.Itoa(ev.RoundCount),
		"keywordHit":    strconv.FormatBool(ev.KeywordHit),
		"totalValue":    ev.TotalValue,
	}

	labels := []Label{
		{Entity: sink, EntityType: EntityAddress, Label: "Attacker", Confidence: 0.9},
		{Entity: victim, EntityType: EntityAddress, Label: "Victim", Confidence: 0.9},
		{Entity: ev.TxHash, EntityType: EntityTransaction, Label: "Attack", Confidence: 1},
	}

	return Finding{
		Name:        "Native Ice Phishing Drain",
		Description: fmt.Sprintf("%d native transfers drained from %s within the tracking window", ev.TransferCount, victim),
		AlertID:     AlertNativeDrain,
		Severity:    severity,
		Type:        TypeSuspicious,
		Metadata:    metadata,
		Labels:      labels,
		Timestamp:   time.Now().UTC(),
	}
}
