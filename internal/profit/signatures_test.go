package profit

import (
	"testing"

	"sentinel/pkg/models"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
)

func TestSelector(t *testing.T) {
	// transfer(address,uint256) has the best-known selector on the chain.
	assert.Equal(t, "0xa9059cbb", selector("transfer(address,uint256)"))
}

func TestMatchesSelector(t *testing.T) {
	withdraw := selector("withdraw()")

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"bare withdraw call", withdraw, true},
		{"withdraw with arguments appended", withdraw + "00000000", true},
		{"unknown selector", "0xa9059cbb" + "00000000", false},
		{"empty calldata", "0x", false},
		{"no prefix", withdraw[2:], false},
		{"truncated", "0x3ccf", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, matchesSelector(tt.input))
		})
	}
}

func TestHasExploitSignature_TraceInput(t *testing.T) {
	tx := &models.Transaction{
		Input: "0x",
		Traces: []models.Trace{
			{Input: "0x"},
			{Input: selector("removeLiquidityETH(address,uint256,uint256,uint256,address,uint256)")},
		},
	}
	assert.True(t, hasExploitSignature(tx))
}

func TestHasExploitSignature_EventTopic(t *testing.T) {
	topic := eventTopicHex("Withdrawn(address,uint256)")
	tx := &models.Transaction{
		Input: "0x",
		Logs: []models.LogEntry{
			{Topics: []string{topic}},
		},
	}
	assert.True(t, hasExploitSignature(tx))
}

func TestHasExploitSignature_Negative(t *testing.T) {
	tx := &models.Transaction{
		Input: "0xa9059cbb",
		Logs: []models.LogEntry{
			{Topics: nil},
			{Topics: []string{eventTopicHex("Transfer(address,address,uint256)")}},
		},
		Traces: []models.Trace{{Input: "0x"}},
	}
	assert.False(t, hasExploitSignature(tx))
}

func eventTopicHex(signature string) string {
	return crypto.Keccak256Hash([]byte(signature)).Hex()
}
