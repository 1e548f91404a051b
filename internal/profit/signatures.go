package profit

import (
	"strings"

	"sentinel/pkg/models"

	"github.com/ethereum/go-ethereum/crypto"
)

// Known exploit-adjacent call signatures: liquidity removal, borrowing and
// staking withdrawal are the calls that precede most large-profit drains.
// Selectors and topics are derived from canonical signatures at init.
var exploitFunctionSignatures = []string{
	"remove_liquidity(uint256,uint256[2])",
	"removeLiquidity(address,address)",
	"removeLiquidity(address,address,uint256,uint256,uint256,address,uint256)",
	"removeLiquidityETH(address,uint256,uint256,uint256,address,uint256)",
	"removeLiquidityWithPermit(address,address,uint256,uint256,uint256,address,uint256,bool,uint8,bytes32,bytes32)",
	"removeLiquidityETHWithPermit(address,uint256,uint256,uint256,address,uint256,bool,uint8,bytes32,bytes32)",
	"removeLiquidityETHSupportingFeeOnTransferTokens(address,uint256,uint256,uint256,address,uint256)",
	"removeLiquidity(uint256,uint32)",
	"burn(int24,int24,uint128)",
	"borrow(uint256,uint64)",
	"borrow(uint128,address)",
	"borrow(address,uint256,uint256,uint16,address)",
	"swap(uint256)",
	"withdraw()",
	"withdraw(uint256,address)",
	"withdrawAndUnwrap(uint256)",
	"withdrawLockedAndUnwrap(bytes32)",
	"withdraw(address,address,uint256,bytes)",
	"unstake(uint256,bool)",
	"unstake(uint256)",
	"instantWithdraw(uint256,uint256)",
	"withdrawBaseToken(address,uint256)",
	"withdrawBurnRewardByAddress()",
}

var exploitEventSignatures = []string{
	"DecreaseLiquidity(uint256,uint128,uint256,uint256)",
	"WithdrawFromPosition(uint256,uint256)",
	"Withdraw(address,uint256)",
	"Withdraw(address,uint256,uint256)",
	"Withdraw(uint256,address,uint256,uint256)",
	"Withdraw(address,address,address,uint256)",
	"Withdraw(address,address,address,uint256,uint256)",
	"Withdraw(address,address,address,uint256,bool)",
	"Withdrawn(address,uint256)",
	"Withdrawn(address,address,uint256)",
	"Withdrawal(address,uint256,address[],uint256[])",
	"WithdrawLocked(address,uint256,bytes32,address)",
	"Burn(address,address,uint256,uint256)",
	"RewardClaimed(bytes32,address,address,uint256)",
	"RewardClaimed(address,address,address,uint256,uint256,uint256)",
	"Claimed(address,address,uint256,uint256)",
	"Unstaked(address)",
	"Unstaked(uint256,address,uint256)",
	"Unstaked(address,uint256,uint256)",
}

var (
	exploitSelectors   = buildSelectorSet(exploitFunctionSignatures)
	exploitEventTopics = buildTopicSet(exploitEventSignatures)
)

func buildSelectorSet(signatures []string) map[string]struct{} {
	set := make(map[string]struct{}, len(signatures))
	for _, sig := range signatures {
		set[selector(sig)] = struct{}{}
	}
	return set
}

func buildTopicSet(signatures []string) map[string]struct{} {
	set := make(map[string]struct{}, len(signatures))
	for _, sig := range signatures {
		set[strings.ToLower(crypto.Keccak256Hash([]byte(sig)).Hex())] = struct{}{}
	}
	return set
}

// selector returns the 0x-prefixed 4-byte selector for a canonical signature.
func selector(signature string) string {
	return crypto.Keccak256Hash([]byte(signature)).Hex()[:10]
}

// hasExploitSignature reports whether the transaction calldata or any trace
// calldata matches a known exploit selector, or any log matches a known
// withdrawal/claim event.
func hasExploitSignature(tx *models.Transaction) bool {
	if matchesSelector(tx.Input) {
		return true
	}
	for _, trace := range tx.Traces {
		if matchesSelector(trace.Input) {
			return true
		}
	}
	for _, log := range tx.Logs {
		if len(log.Topics) == 0 {
			continue
		}
		if _, ok := exploitEventTopics[log.Topics[0]]; ok {
			return true
		}
	}
	return false
}

func matchesSelector(input string) bool {
	input = strings.ToLower(input)
	if len(input) < 10 || !strings.HasPrefix(input, "0x") {
		return false
	}
	_, ok := exploitSelectors[input[:10]]
	return ok
}
