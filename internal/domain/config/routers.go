package config

import (
	"maps"

	"github.com/ethereum/go-ethereum/common"
)

// RouterBook maps networks to the DEX router the token pairs against.
// Entries by network name win over entries by chain id.
type RouterBook struct {
	byName  map[string]common.Address
	byChain map[uint64]common.Address
}

// NewRouterBook copies the given tables
func NewRouterBook(byChain map[uint64]common.Address, byName map[string]common.Address) *RouterBook {
	b := &RouterBook{
		byName:  make(map[string]common.Address, len(byName)),
		byChain: make(map[uint64]common.Address, len(byChain)),
	}
	maps.Copy(b.byName, byName)
	maps.Copy(b.byChain, byChain)
	return b
}

// Lookup returns the router for a network
func (b *RouterBook) Lookup(network *Network) (common.Address, bool) {
	if b == nil || network == nil {
		return common.Address{}, false
	}
	if network.Router != (common.Address{}) {
		return network.Router, true
	}
	if addr, ok := b.byName[network.Name]; ok {
		return addr, true
	}
	addr, ok := b.byChain[network.ChainID]
	return addr, ok
}

// ChainIDs returns the chain ids with a known router
func (b *RouterBook) ChainIDs() []uint64 {
	if b == nil {
		return nil
	}
	ids := make([]uint64, 0, len(b.byChain))
	for id := range b.byChain {
		ids = append(ids, id)
	}
	return ids
}
