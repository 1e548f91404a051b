package drain

import (
	"math/big"
	"strings"

	"sentinel/pkg/models"
)

// drainKeywords flags explorer labels that already name the sink as hostile.
var drainKeywords = []string{
	"attack",
	"xploit",
	"phish",
	"hack",
	"drain",
	"scam",
	"fraud",
	"heist",
	".eth",
}

var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// FilterConflicting drops records that look like competing sweeper bots
// racing for the same balance: same sender, near-equal but not identical
// value, different destination. The earliest record of each conflict group
// survives; a genuine drain repeats the exact same shape and is untouched.
func FilterConflicting(records []models.TransferRecord) []models.TransferRecord {
	kept := make([]models.TransferRecord, 0, len(records))
	for _, r := range records {
		conflict := false
		for _, k := range kept {
			if conflictsWith(k, r) {
				conflict = true
				break
			}
		}
		if !conflict {
			kept = append(kept, r)
		}
	}
	return kept
}

// conflictsWith reports whether candidate collides with an earlier kept
// record: same sender, a different destination, and a value inside the
// earlier record's 20 percent band without being exactly equal. Exact
// equality is deliberate repetition, not a race.
func conflictsWith(kept, candidate models.TransferRecord) bool {
	if kept.From != candidate.From || kept.LatestTo == candidate.LatestTo {
		return false
	}

	base, okBase := new(big.Int).SetString(kept.Value, 10)
	value, okValue := new(big.Int).SetString(candidate.Value, 10)
	if !okBase || !okValue {
		return false
	}
	if value.Cmp(base) == 0 {
		return false
	}

	lower := new(big.Int).Mul(base, big.NewInt(4))
	lower.Div(lower, big.NewInt(5))
	upper := new(big.Int).Mul(base, big.NewInt(6))
	upper.Div(upper, big.NewInt(5))

	return value.Cmp(lower) >= 0 && value.Cmp(upper) <= 0
}

// IsRoundValue reports whether a base-unit decimal string is an exact
// multiple of one ether. Human-initiated transfers land on round values;
// sweepers send the full remaining balance minus gas.
func IsRoundValue(value string) bool {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok || v.Sign() <= 0 {
		return false
	}
	return new(big.Int).Mod(v, weiPerEther).Sign() == 0
}

// KeywordPresent reports whether any label carries a drain-related keyword,
// case-insensitively.
func KeywordPresent(labels []string) bool {
	for _, label := range labels {
		lowered := strings.ToLower(label)
		for _, kw := range drainKeywords {
			if strings.Contains(lowered, kw) {
				return true
			}
		}
	}
	return false
}
