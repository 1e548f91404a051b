package pricing

import (
	"context"
	"math/big"
)

// Metadata is the token attributes needed to normalize balance deltas.
type Metadata struct {
	Decimals    uint8
	Symbol      string
	TotalSupply *big.Int
}

// Provider supplies USD prices and token metadata. Both calls degrade
// gracefully: a missing price yields ok=false and the caller falls back to a
// percent-of-supply basis; missing metadata is an error the caller absorbs.
type Provider interface {
	// USDPrice returns the unit price of the asset in USD. The native
	// pseudo-asset is priced via the chain's wrapped-native token.
	USDPrice(ctx context.Context, asset string, chainID uint64) (price float64, ok bool)

	// TokenMetadata returns decimals, symbol and total supply for a token
	// contract.
	TokenMetadata(ctx context.Context, asset string) (Metadata, error)
}
