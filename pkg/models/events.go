package models

import "math/big"

// Tagged event variants produced by boundary decoding. Detection code only
// ever sees these, never raw topic/data payloads.

// TokenTransfer is an ERC-20/721/1155 transfer effect.
type TokenTransfer struct {
	Token    string   `json:"token"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Value    *big.Int `json:"value"`
	IsNFT    bool     `json:"is_nft"`
	LogIndex uint     `json:"log_index"`
}

// NativeTransfer is a native-asset value movement, either the transaction's
// declared value or an internal call observed in traces.
type NativeTransfer struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Value *big.Int `json:"value"`
}

// WrapEvent is a wrapped-native Deposit or Withdrawal. Deposits convert native
// into the wrapped token for Account; withdrawals convert back.
type WrapEvent struct {
	Token     string   `json:"token"`
	Account   string   `json:"account"`
	Value     *big.Int `json:"value"`
	IsDeposit bool     `json:"is_deposit"`
	LogIndex  uint     `json:"log_index"`
}

// ContractCall is a decoded internal call of interest (selector matched).
type ContractCall struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Selector string `json:"selector"`
}
