package config

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/rollout/internal/domain/config"
)

// DefaultRouters are the Uniswap V2 style routers for well known chains
var DefaultRouters = map[uint64]common.Address{
	1:        common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"), // Ethereum, Uniswap V2
	11155111: common.HexToAddress("0xC532a74256D3Db42D0Bf7a0400fEFDbad7694008"), // Sepolia, Uniswap V2
	56:       common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E"), // BSC, PancakeSwap
	97:       common.HexToAddress("0xD99D1c33F9fC3444f8101754aBC46c52416550D1"), // BSC testnet, PancakeSwap
}

// BuildRouterBook overlays the [routers] table on DefaultRouters.
// Numeric keys are chain ids, anything else is a network name.
func BuildRouterBook(entries map[string]string) (*config.RouterBook, error) {
	byChain := make(map[uint64]common.Address, len(DefaultRouters)+len(entries))
	for id, addr := range DefaultRouters {
		byChain[id] = addr
	}
	byName := make(map[string]common.Address)

	for key, value := range entries {
		if !common.IsHexAddress(value) {
			return nil, fmt.Errorf("invalid router address for %q in %s: %q", key, ProjectFile, value)
		}
		addr := common.HexToAddress(value)
		if chainID, err := strconv.ParseUint(key, 10, 64); err == nil {
			byChain[chainID] = addr
		} else {
			byName[key] = addr
		}
	}

	return config.NewRouterBook(byChain, byName), nil
}
