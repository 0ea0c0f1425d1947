package deployments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofrs/flock"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/config"
	"github.com/trebuchet-org/rollout/internal/domain/models"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

const (
	DeploymentsDir = "deployments"
	LocksDir       = "locks"

	lockRetryDelay = 100 * time.Millisecond
)

// FileRepository stores one JSON file per deployment under
// <data dir>/deployments/<network>/<address>.json
type FileRepository struct {
	rootDir string
	lockDir string
	mu      sync.RWMutex
}

// NewFileRepository creates a repository rooted at the runtime data directory
func NewFileRepository(cfg *config.RuntimeConfig) (*FileRepository, error) {
	r := &FileRepository{
		rootDir: filepath.Join(cfg.DataDir, DeploymentsDir),
		lockDir: filepath.Join(cfg.DataDir, LocksDir),
	}
	for _, dir := range []string{r.rootDir, r.lockDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return r, nil
}

func (r *FileRepository) recordPath(network string, address common.Address) string {
	return filepath.Join(r.rootDir, network, strings.ToLower(address.Hex())+".json")
}

// FindByConfigHash returns the earliest record on network deployed with hash
func (r *FileRepository) FindByConfigHash(ctx context.Context, network string, hash common.Hash) (*models.DeploymentRecord, error) {
	records, err := r.List(ctx, domain.DeploymentFilter{Network: network})
	if err != nil {
		return nil, err
	}
	var found *models.DeploymentRecord
	for _, record := range records {
		if record.ConfigHash != hash {
			continue
		}
		if found == nil || record.DeploymentTime.Before(found.DeploymentTime) {
			found = record
		}
	}
	if found == nil {
		return nil, domain.ErrNotFound
	}
	return found, nil
}

// GetByAddress returns the record for a contract address
func (r *FileRepository) GetByAddress(_ context.Context, network string, address common.Address) (*models.DeploymentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, err := r.loadFile(r.recordPath(network, address))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	return record, err
}

// List returns the records matching filter
func (r *FileRepository) List(_ context.Context, filter domain.DeploymentFilter) ([]*models.DeploymentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	networks, err := os.ReadDir(r.rootDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read deployments: %w", err)
	}

	var result []*models.DeploymentRecord
	for _, network := range networks {
		if !network.IsDir() || (filter.Network != "" && network.Name() != filter.Network) {
			continue
		}
		files, err := filepath.Glob(filepath.Join(r.rootDir, network.Name(), "*.json"))
		if err != nil {
			return nil, err
		}
		slices.Sort(files)
		for _, file := range files {
			record, err := r.loadFile(file)
			if err != nil {
				return nil, err
			}
			if !matches(filter, record) {
				continue
			}
			result = append(result, record)
		}
	}
	return result, nil
}

func matches(filter domain.DeploymentFilter, record *models.DeploymentRecord) bool {
	if !filter.MatchesNetwork(record.Network, record.ChainID) {
		return false
	}
	if record.Parameters != nil && !filter.MatchesSymbol(record.Parameters.Symbol()) {
		return false
	}
	return filter.Status == "" || strings.EqualFold(filter.Status, string(record.VerificationStatus))
}

// Save writes the record atomically; readers see either the old or the new file
func (r *FileRepository) Save(_ context.Context, record *models.DeploymentRecord) error {
	if record.Network == "" || record.ContractAddress == (common.Address{}) {
		return fmt.Errorf("record %s has no network or address", record.ID())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.recordPath(record.Network, record.ContractAddress)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create network directory: %w", err)
	}
	return r.saveFile(path, record)
}

// Lock takes an exclusive lock on key that also excludes other processes
func (r *FileRepository) Lock(ctx context.Context, key string) (func(), error) {
	fileLock := flock.New(filepath.Join(r.lockDir, key+".lock"))
	locked, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: waiting for lock %s", domain.ErrCancelled, key)
		}
		return nil, fmt.Errorf("failed to lock %s: %w", key, err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to lock %s", key)
	}
	return func() { _ = fileLock.Unlock() }, nil
}

func (r *FileRepository) loadFile(path string) (*models.DeploymentRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var record models.DeploymentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("corrupt deployment record %s: %w", path, err)
	}
	return &record, nil
}

func (r *FileRepository) saveFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	// Write to temp file first
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Atomic rename
	return os.Rename(tmp.Name(), path)
}

var _ usecase.DeploymentRepository = (*FileRepository)(nil)
