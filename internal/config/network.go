package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/rollout/internal/domain/config"
)

// localNetworks never get explorer verification
var localNetworks = map[string]bool{
	"hardhat":   true,
	"localhost": true,
	"anvil":     true,
	"local":     true,
}

// LocalChainID is the default chain id of hardhat and anvil nodes
const LocalChainID = 31337

// ChainIDFetcher asks an RPC endpoint for its chain id
type ChainIDFetcher func(ctx context.Context, rpcURL string) (uint64, error)

// NetworkResolver resolves network names to configurations with caching
type NetworkResolver struct {
	projectRoot string
	networks    map[string]config.NetworkSection
	routers     *config.RouterBook
	fetch       ChainIDFetcher
	cache       *NetworkCache
	mu          sync.RWMutex
}

// NetworkCache caches chain ID lookups
type NetworkCache struct {
	Networks  map[string]uint64 `json:"networks"` // name -> chainID
	RPCs      map[string]uint64 `json:"rpcs"`     // rpcURL -> chainID
	UpdatedAt time.Time         `json:"updatedAt"`
}

// NewNetworkResolver creates a new network resolver
func NewNetworkResolver(projectRoot string, project *config.ProjectConfig, routers *config.RouterBook) *NetworkResolver {
	r := &NetworkResolver{
		projectRoot: projectRoot,
		networks:    map[string]config.NetworkSection{},
		routers:     routers,
		fetch:       fetchChainID,
	}
	if project != nil && project.Networks != nil {
		r.networks = project.Networks
	}

	r.loadCache()

	return r
}

// WithChainIDFetcher replaces the RPC probe
func (r *NetworkResolver) WithChainIDFetcher(fetch ChainIDFetcher) *NetworkResolver {
	r.fetch = fetch
	return r
}

// GetNetworks returns the configured network names, sorted
func (r *NetworkResolver) GetNetworks() []string {
	names := make([]string, 0, len(r.networks))
	for name := range r.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve resolves a network name to its configuration
func (r *NetworkResolver) Resolve(ctx context.Context, networkName string) (*config.Network, error) {
	section, exists := r.networks[networkName]
	if !exists {
		return nil, fmt.Errorf("network '%s' not found in %s [networks]", networkName, ProjectFile)
	}
	if section.RPCURL == "" {
		return nil, fmt.Errorf("network '%s' has no rpc_url", networkName)
	}

	chainID := section.ChainID
	if chainID == 0 {
		r.mu.RLock()
		cached, ok := r.cache.Networks[networkName]
		if !ok {
			cached, ok = r.cache.RPCs[section.RPCURL]
		}
		r.mu.RUnlock()

		if ok {
			chainID = cached
		} else {
			fetched, err := r.fetch(ctx, section.RPCURL)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch chain ID for network %s: %w", networkName, err)
			}
			chainID = fetched
			r.updateCache(networkName, section.RPCURL, chainID)
		}
	}

	network := &config.Network{
		Name:           networkName,
		ChainID:        chainID,
		RPCURL:         section.RPCURL,
		ExplorerURL:    strings.TrimSuffix(section.ExplorerURL, "/"),
		VerifierURL:    section.VerifierURL,
		ExplorerAPIKey: section.ExplorerAPIKey,
	}
	if network.ExplorerURL == "" {
		network.ExplorerURL = defaultExplorerURL(chainID)
	}

	if section.Public != nil {
		network.Public = *section.Public
	} else {
		network.Public = network.ExplorerURL != "" && chainID != LocalChainID && !localNetworks[networkName]
	}

	if section.Router != "" {
		if !common.IsHexAddress(section.Router) {
			return nil, fmt.Errorf("network '%s' has an invalid router address %q", networkName, section.Router)
		}
		network.Router = common.HexToAddress(section.Router)
	} else if addr, ok := r.routers.Lookup(network); ok {
		network.Router = addr
	}

	return network, nil
}

// fetchChainID dials the endpoint and asks for eth_chainId
func fetchChainID(ctx context.Context, rpcURL string) (uint64, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	defer client.Close()

	id, err := client.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("RPC error: %w", err)
	}
	return id.Uint64(), nil
}

// defaultExplorerURL returns the block explorer for well known chains
func defaultExplorerURL(chainID uint64) string {
	switch chainID {
	case 1:
		return "https://etherscan.io"
	case 11155111:
		return "https://sepolia.etherscan.io"
	case 17000:
		return "https://holesky.etherscan.io"
	case 10:
		return "https://optimistic.etherscan.io"
	case 137:
		return "https://polygonscan.com"
	case 8453:
		return "https://basescan.org"
	case 84532:
		return "https://sepolia.basescan.org"
	case 42161:
		return "https://arbiscan.io"
	case 43114:
		return "https://snowtrace.io"
	case 56:
		return "https://bscscan.com"
	case 97:
		return "https://testnet.bscscan.com"
	default:
		return ""
	}
}

func (r *NetworkResolver) cachePath() string {
	return filepath.Join(r.projectRoot, DataDirName, "cache", "chain-ids.json")
}

// loadCache loads the chain ID cache from disk
func (r *NetworkResolver) loadCache() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache = newNetworkCache()

	data, err := os.ReadFile(r.cachePath())
	if err != nil {
		return
	}

	var loaded NetworkCache
	if err := json.Unmarshal(data, &loaded); err != nil {
		return
	}
	if loaded.Networks != nil {
		r.cache.Networks = loaded.Networks
	}
	if loaded.RPCs != nil {
		r.cache.RPCs = loaded.RPCs
	}
	r.cache.UpdatedAt = loaded.UpdatedAt
}

// updateCache records a fetched chain id and writes the cache back; write failures are ignored
func (r *NetworkResolver) updateCache(networkName, rpcURL string, chainID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Networks[networkName] = chainID
	r.cache.RPCs[rpcURL] = chainID
	r.cache.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(r.cache, "", "  ")
	if err != nil {
		return
	}
	path := r.cachePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return
	}
	_ = os.Rename(tmpPath, path)
}

func newNetworkCache() *NetworkCache {
	return &NetworkCache{
		Networks: make(map[string]uint64),
		RPCs:     make(map[string]uint64),
	}
}
