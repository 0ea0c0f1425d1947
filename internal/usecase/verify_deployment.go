package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/config"
	"github.com/trebuchet-org/rollout/internal/domain/models"
)

// VerifyDeployment handles source verification of recorded deployments
type VerifyDeployment struct {
	config   *config.RuntimeConfig
	repo     DeploymentRepository
	verifier SourceVerifier
	networks NetworkResolver
	selector DeploymentSelector
	clock    Clock
	sink     ProgressSink
	log      *slog.Logger
}

// NewVerifyDeployment creates a new verify deployment use case
func NewVerifyDeployment(
	cfg *config.RuntimeConfig,
	repo DeploymentRepository,
	verifier SourceVerifier,
	networks NetworkResolver,
	selector DeploymentSelector,
	clock Clock,
	sink ProgressSink,
	log *slog.Logger,
) *VerifyDeployment {
	return &VerifyDeployment{
		config:   cfg,
		repo:     repo,
		verifier: verifier,
		networks: networks,
		selector: selector,
		clock:    clock,
		sink:     sink,
		log:      log,
	}
}

// VerifyOptions contains options for verification
type VerifyOptions struct {
	// Force re-verifies verified records and tries unconfirmed ones
	Force bool
	// ContractPath overrides the configured "<source>:<name>"
	ContractPath string
}

// VerifyResult contains the result of verifying one record
type VerifyResult struct {
	Record  *models.DeploymentRecord
	Success bool
	// Skipped is set when no attempt was made
	Skipped string
	Err     error
}

// VerifyAllResult contains the result of verifying every pending record
type VerifyAllResult struct {
	Results      []*VerifyResult
	SuccessCount int
	SkippedCount int
}

// VerifySpecific verifies the record matching reference
func (uc *VerifyDeployment) VerifySpecific(ctx context.Context, reference string, opts VerifyOptions) (*VerifyResult, error) {
	record, err := resolveRecord(ctx, uc.config, uc.repo, uc.selector, reference)
	if err != nil {
		return nil, err
	}
	result := uc.verifyRecord(ctx, record, opts)
	if errors.Is(result.Err, domain.ErrCancelled) {
		return result, result.Err
	}
	return result, nil
}

// VerifyAll verifies every record on the runtime network (or all networks
// when none is selected) that is not yet verified
func (uc *VerifyDeployment) VerifyAll(ctx context.Context, opts VerifyOptions) (*VerifyAllResult, error) {
	filter := domain.DeploymentFilter{}
	if uc.config.Network != nil {
		filter.Network = uc.config.Network.Name
	}
	records, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	sortRecords(records)

	all := &VerifyAllResult{}
	for i, record := range records {
		uc.sink.OnProgress(ctx, ProgressEvent{
			Stage:   "verify",
			Current: i + 1,
			Total:   len(records),
			Message: fmt.Sprintf("Verifying %s", record.DisplayName()),
			Spinner: true,
		})
		result := uc.verifyRecord(ctx, record, opts)
		all.Results = append(all.Results, result)
		switch {
		case result.Skipped != "":
			all.SkippedCount++
		case result.Success:
			all.SuccessCount++
		case errors.Is(result.Err, domain.ErrCancelled):
			return all, result.Err
		}
	}

	uc.sink.OnProgress(ctx, ProgressEvent{Stage: "complete", Message: "Verification finished"})
	return all, nil
}

// verifyRecord holds the record's lock from the first read to the last write.
// A result saved by a writer that does not take the lock is re-read before
// writing, and a VERIFIED status found there is never replaced.
func (uc *VerifyDeployment) verifyRecord(ctx context.Context, record *models.DeploymentRecord, opts VerifyOptions) *VerifyResult {
	result := &VerifyResult{Record: record}

	unlock, err := uc.repo.Lock(ctx, recordLockKey(record.Network, record.ContractAddress))
	if err != nil {
		result.Err = fmt.Errorf("failed to lock deployment record %s: %w", record.ID(), err)
		return result
	}
	defer unlock()

	latest, err := uc.repo.GetByAddress(ctx, record.Network, record.ContractAddress)
	switch {
	case err == nil:
		record = latest
		result.Record = latest
	case !errors.Is(err, domain.ErrNotFound):
		result.Err = fmt.Errorf("failed to read deployment record %s: %w", record.ID(), err)
		return result
	}

	if record.VerificationStatus == models.VerificationStatusVerified && !opts.Force {
		result.Success = true
		result.Skipped = "already verified"
		return result
	}
	if !record.Confirmed() && !opts.Force {
		result.Skipped = "creation transaction not confirmed"
		return result
	}

	network, err := uc.networks.ResolveNetwork(ctx, record.Network)
	if err != nil {
		result.Err = fmt.Errorf("failed to resolve network %s: %w", record.Network, err)
		return result
	}
	if !network.Public {
		result.Skipped = fmt.Sprintf("network %s has no public explorer", network.Name)
		return result
	}

	artifact := uc.config.Artifact
	if opts.ContractPath != "" {
		artifact.ContractPath = opts.ContractPath
	}
	req, err := verificationRequest(record, network, artifact)
	if err != nil {
		result.Err = err
		return result
	}

	pending := record.WithVerification(models.VerificationStatusPending, "", uc.clock.Now())
	if err := uc.save(ctx, pending); err != nil {
		result.Err = err
		return result
	}
	result.Record = pending

	runner := &sourceVerification{verifier: uc.verifier, clock: uc.clock, policy: uc.config.Verification, log: uc.log}
	updated, err := runner.run(ctx, pending, req)
	result.Record = updated
	result.Err = err
	result.Success = err == nil

	if updated.VerificationStatus != models.VerificationStatusVerified {
		stored, getErr := uc.repo.GetByAddress(context.WithoutCancel(ctx), record.Network, record.ContractAddress)
		if getErr == nil && stored.VerificationStatus == models.VerificationStatusVerified {
			uc.log.Info("deployment was verified by another writer", "network", record.Network,
				"address", record.ContractAddress.Hex(), "discarded", updated.VerificationStatus)
			result.Record = stored
			result.Success = true
			if !errors.Is(err, domain.ErrCancelled) {
				result.Err = nil
			}
			return result
		}
	}

	if saveErr := uc.save(ctx, updated); saveErr != nil {
		result.Success = false
		result.Err = errors.Join(result.Err, saveErr)
	}
	return result
}

func (uc *VerifyDeployment) save(ctx context.Context, record *models.DeploymentRecord) error {
	if err := uc.repo.Save(context.WithoutCancel(ctx), record); err != nil {
		return fmt.Errorf("failed to save deployment record %s: %w", record.ID(), err)
	}
	return nil
}

// recordLockKey names the lock that serialises writers of one deployment record
func recordLockKey(network string, address common.Address) string {
	return fmt.Sprintf("%s-%s", network, strings.ToLower(address.Hex()[2:]))
}
