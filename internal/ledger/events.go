package ledger

import (
	"math/big"
	"strings"

	"sentinel/internal/pricing"
	"sentinel/pkg/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Event topics are derived from the canonical signatures at init so the
// constants can never drift from the events they name.
var (
	transferTopic       = eventTopic("Transfer(address,address,uint256)")
	transferSingleTopic = eventTopic("TransferSingle(address,address,address,uint256,uint256)")
	depositTopic        = eventTopic("Deposit(address,uint256)")
	withdrawalTopic     = eventTopic("Withdrawal(address,uint256)")
)

func eventTopic(signature string) string {
	return strings.ToLower(crypto.Keccak256Hash([]byte(signature)).Hex())
}

// DecodedEvents is the typed view of a transaction's transfer-like effects.
type DecodedEvents struct {
	TokenTransfers  []models.TokenTransfer
	NativeTransfers []models.NativeTransfer
	WrapEvents      []models.WrapEvent
}

// DecodeEvents walks the receipt logs and traces once and produces tagged
// variants. Malformed entries are skipped: an unparsable log is missing
// evidence, not a reason to abort the transaction.
func DecodeEvents(tx *models.Transaction) DecodedEvents {
	var out DecodedEvents

	wrapped := pricing.WrappedNativeTokens[tx.ChainID]

	for _, log := range tx.Logs {
		if len(log.Topics) == 0 {
			continue
		}
		switch log.Topics[0] {
		case transferTopic:
			if transfer, ok := decodeTransfer(log); ok {
				out.TokenTransfers = append(out.TokenTransfers, transfer)
			}
		case transferSingleTopic:
			if transfer, ok := decodeTransferSingle(log); ok {
				out.TokenTransfers = append(out.TokenTransfers, transfer)
			}
		case depositTopic:
			if log.Address == wrapped {
				if ev, ok := decodeWrapEvent(log, true); ok {
					out.WrapEvents = append(out.WrapEvents, ev)
				}
			}
		case withdrawalTopic:
			if log.Address == wrapped {
				if ev, ok := decodeWrapEvent(log, false); ok {
					out.WrapEvents = append(out.WrapEvents, ev)
				}
			}
		}
	}

	// Traces carry internal native movements; the declared tx value is only
	// used when no traces are available (it would otherwise be duplicated
	// by the top-level call trace).
	if len(tx.Traces) > 0 {
		for _, trace := range tx.Traces {
			if trace.Value == nil || trace.Value.Sign() <= 0 || trace.To == "" {
				continue
			}
			out.NativeTransfers = append(out.NativeTransfers, models.NativeTransfer{
				From:  models.NormalizeAddress(trace.From),
				To:    models.NormalizeAddress(trace.To),
				Value: new(big.Int).Set(trace.Value),
			})
		}
	} else if tx.Value != nil && tx.Value.Sign() > 0 && tx.To != "" {
		out.NativeTransfers = append(out.NativeTransfers, models.NativeTransfer{
			From:  tx.From,
			To:    tx.To,
			Value: new(big.Int).Set(tx.Value),
		})
	}

	return out
}

// decodeTransfer handles both ERC-20 (amount in data) and ERC-721 (tokenId as
// a third indexed topic, empty data) Transfer events, which share a topic.
func decodeTransfer(log models.LogEntry) (models.TokenTransfer, bool) {
	switch len(log.Topics) {
	case 3: // ERC-20
		if len(log.Data) < 32 {
			return models.TokenTransfer{}, false
		}
		return models.TokenTransfer{
			Token:    log.Address,
			From:     topicAddress(log.Topics[1]),
			To:       topicAddress(log.Topics[2]),
			Value:    new(big.Int).SetBytes(log.Data[:32]),
			LogIndex: log.LogIndex,
		}, true
	case 4: // ERC-721: one unit per event, value is the token id
		return models.TokenTransfer{
			Token:    log.Address,
			From:     topicAddress(log.Topics[1]),
			To:       topicAddress(log.Topics[2]),
			Value:    big.NewInt(1),
			IsNFT:    true,
			LogIndex: log.LogIndex,
		}, true
	default:
		return models.TokenTransfer{}, false
	}
}

func decodeTransferSingle(log models.LogEntry) (models.TokenTransfer, bool) {
	// TransferSingle(operator indexed, from indexed, to indexed, id, value)
	if len(log.Topics) != 4 || len(log.Data) < 64 {
		return models.TokenTransfer{}, false
	}
	return models.TokenTransfer{
		Token:    log.Address,
		From:     topicAddress(log.Topics[2]),
		To:       topicAddress(log.Topics[3]),
		Value:    new(big.Int).SetBytes(log.Data[32:64]),
		IsNFT:    true,
		LogIndex: log.LogIndex,
	}, true
}

func decodeWrapEvent(log models.LogEntry, isDeposit bool) (models.WrapEvent, bool) {
	if len(log.Topics) != 2 || len(log.Data) < 32 {
		return models.WrapEvent{}, false
	}
	return models.WrapEvent{
		Token:     log.Address,
		Account:   topicAddress(log.Topics[1]),
		Value:     new(big.Int).SetBytes(log.Data[:32]),
		IsDeposit: isDeposit,
		LogIndex:  log.LogIndex,
	}, true
}

func topicAddress(topic string) string {
	return strings.ToLower(common.HexToAddress(topic).Hex())
}
