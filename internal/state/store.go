package state

import (
	"context"
	"fmt"

	"sentinel/pkg/models"
)

// Alert collections. Membership in alertedAddresses suppresses repeat drain
// findings for a sink; the critical collection tracks sinks that already
// earned a critical-severity alert so escalations still go out.
const (
	CollectionAlertedAddresses = "alertedAddresses"
	CollectionAlertedHashes    = "alertedHashes"
	CollectionAlertedCritical  = "alertedAddressesCritical"
)

// MaxWindowBytes caps a single persisted transfer window. Windows that would
// serialize above this are trimmed oldest-first before saving.
const MaxWindowBytes = 4 * 1024 * 1024

// Repository persists detection state across restarts. Every lookup treats a
// missing key as an empty value, never an error: a fresh database must behave
// exactly like a long-running one that simply has not seen the address yet.
type Repository interface {
	// LoadTransferWindow returns the victim's recorded transfers, or an
	// empty slice when none exist.
	LoadTransferWindow(ctx context.Context, chainID uint64, victim string) ([]models.TransferRecord, error)

	// SaveTransferWindow replaces the victim's recorded transfers. An empty
	// slice deletes the entry.
	SaveTransferWindow(ctx context.Context, chainID uint64, victim string, records []models.TransferRecord) error

	// Contains reports membership of key in the named alert collection.
	Contains(ctx context.Context, collection string, chainID uint64, key string) (bool, error)

	// Add inserts key into the named alert collection. Idempotent.
	Add(ctx context.Context, collection string, chainID uint64, key string) error

	// LastProcessedBlock returns the scan cursor for a chain; ok is false
	// when no cursor has been stored yet.
	LastProcessedBlock(ctx context.Context, chainID uint64) (block uint64, ok bool, err error)

	// SetLastProcessedBlock advances the scan cursor.
	SetLastProcessedBlock(ctx context.Context, chainID uint64, block uint64) error

	Close() error
}

// scopedKey namespaces a key by chain, matching the layout of the persisted
// collections.
func scopedKey(chainID uint64, key string) string {
	return fmt.Sprintf("%d-%s", chainID, key)
}
