package models

import (
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Transaction is the analysis-ready view of one on-chain transaction: the
// declared envelope plus its receipt logs and execution traces. Addresses are
// normalized to lowercase hex so detection code can compare them directly.
type Transaction struct {
	Hash        string    `json:"hash"`
	ChainID     uint64    `json:"chain_id"`
	BlockNumber uint64    `json:"block_number"`
	From        string    `json:"from"`
	To          string    `json:"to"` // empty for contract creations
	Value       *big.Int  `json:"value"`
	Nonce       uint64    `json:"nonce"`
	Input       string    `json:"input"` // 0x-prefixed calldata
	Timestamp   time.Time `json:"timestamp"`

	Logs   []LogEntry `json:"logs"`
	Traces []Trace    `json:"traces"`
}

// LogEntry is a receipt log in raw topic/data form. Decoding into the typed
// event variants happens once, at the ledger boundary.
type LogEntry struct {
	Address  string   `json:"address"`
	Topics   []string `json:"topics"`
	Data     []byte   `json:"data"`
	LogIndex uint     `json:"log_index"`
}

// Trace is one internal call observed during execution.
type Trace struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Value *big.Int `json:"value"`
	Input string   `json:"input"`
}

// NormalizeAddress lowercases a hex address, adding the 0x prefix if absent.
func NormalizeAddress(addr string) string {
	addr = strings.ToLower(addr)
	if addr != "" && !strings.HasPrefix(addr, "0x") {
		addr = "0x" + addr
	}
	return addr
}

// FromEthereumTransaction fills the model from a go-ethereum transaction, its
// receipt and the containing block time. The sender must be recovered by the
// caller (signer choice depends on tx type).
func (t *Transaction) FromEthereumTransaction(tx *types.Transaction, receipt *types.Receipt, from common.Address, chainID uint64, blockTime uint64) {
	if tx == nil {
		return
	}

	t.Hash = strings.ToLower(tx.Hash().Hex())
	t.ChainID = chainID
	t.From = strings.ToLower(from.Hex())
	if tx.To() != nil {
		t.To = strings.ToLower(tx.To().Hex())
	}
	t.Value = new(big.Int).Set(tx.Value())
	t.Nonce = tx.Nonce()
	t.Input = "0x" + common.Bytes2Hex(tx.Data())
	t.Timestamp = time.Unix(int64(blockTime), 0).UTC()

	if receipt == nil {
		return
	}
	if receipt.BlockNumber != nil {
		t.BlockNumber = receipt.BlockNumber.Uint64()
	}
	t.Logs = make([]LogEntry, 0, len(receipt.Logs))
	for _, l := range receipt.Logs {
		if l == nil {
			continue
		}
		entry := LogEntry{}
		entry.FromEthereumLog(l)
		t.Logs = append(t.Logs, entry)
	}
}

// FromEthereumLog converts a go-ethereum receipt log.
func (l *LogEntry) FromEthereumLog(log *types.Log) {
	if log == nil {
		return
	}
	l.Address = strings.ToLower(log.Address.Hex())
	l.Topics = make([]string, len(log.Topics))
	for i, topic := range log.Topics {
		l.Topics[i] = strings.ToLower(topic.Hex())
	}
	l.Data = log.Data
	l.LogIndex = log.Index
}
