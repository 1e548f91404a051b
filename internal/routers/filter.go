package routers

import (
	"strings"

	"sentinel/pkg/models"
)

// Filter answers "is this address known routing infrastructure?" with an O(1)
// membership test. Built once at startup, never mutated, safe for concurrent
// reads without locking.
type Filter struct {
	members map[string]struct{}
}

// NewFilter builds the filter for a chain: the curated global router set,
// the chain's NFT-lending peripherals and any operator-supplied extras.
func NewFilter(chainID uint64, extra []string) *Filter {
	members := make(map[string]struct{}, len(knownRouters)+len(extra))
	for _, addr := range knownRouters {
		members[normalize(addr)] = struct{}{}
	}
	for _, addr := range nftLendingProtocols[chainID] {
		members[normalize(addr)] = struct{}{}
	}
	for _, addr := range extra {
		members[normalize(addr)] = struct{}{}
	}
	return &Filter{members: members}
}

// IsKnownRouter reports membership, case-insensitively.
func (f *Filter) IsKnownRouter(address string) bool {
	_, ok := f.members[normalize(address)]
	return ok
}

// Size returns the number of curated entries, for startup logging.
func (f *Filter) Size() int {
	return len(f.members)
}

func normalize(addr string) string {
	return models.NormalizeAddress(strings.TrimSpace(addr))
}
