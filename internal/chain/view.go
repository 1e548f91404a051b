package chain

import "context"

// StateView is the read-only blockchain state the detectors depend on.
// Implementations must bound every call with the supplied context; callers
// treat failures as degraded signal, never as a pipeline abort.
type StateView interface {
	// IsContract reports whether the address has deployed bytecode.
	IsContract(ctx context.Context, address string) (bool, error)

	// OutgoingCount returns the address's total sent-transaction count
	// (its current nonce).
	OutgoingCount(ctx context.Context, address string) (uint64, error)

	// IncomingCount returns the number of transactions received by the
	// address, as reported by the chain explorer.
	IncomingCount(ctx context.Context, address string) (uint64, error)

	// FundingAddress returns the sender of the first transaction that
	// funded the address, or empty when unknown.
	FundingAddress(ctx context.Context, address string) (string, error)

	// AddressLabels returns community labels attached to the address
	// (exchange tags, ENS names, scam reports). Empty when none.
	AddressLabels(ctx context.Context, address string) ([]string, error)
}
