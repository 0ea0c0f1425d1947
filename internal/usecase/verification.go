package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/config"
	"github.com/trebuchet-org/rollout/internal/domain/models"
)

// sourceVerification retries explorer verification with linear backoff
type sourceVerification struct {
	verifier SourceVerifier
	clock    Clock
	policy   config.VerificationPolicy
	log      *slog.Logger
}

// verificationRequest builds the explorer request for a stored record
func verificationRequest(record *models.DeploymentRecord, network *config.Network, artifact config.ArtifactConfig) (*models.VerificationRequest, error) {
	if record.Parameters == nil {
		return nil, fmt.Errorf("record %s has no parameters", record.ID())
	}
	args, err := record.Parameters.PackConstructorArgs()
	if err != nil {
		return nil, fmt.Errorf("failed to encode constructor arguments: %w", err)
	}
	return &models.VerificationRequest{
		Network:         network.Name,
		ChainID:         network.ChainID,
		VerifierURL:     network.VerifierURL,
		ExplorerAPIKey:  network.ExplorerAPIKey,
		Address:         record.ContractAddress,
		ContractPath:    artifact.ContractPath,
		CompilerVersion: artifact.CompilerVersion,
		ConstructorArgs: args,
	}, nil
}

// run makes up to MaxAttempts attempts, sleeping attempt x Interval after each
// transient failure. It returns the record with its final verification status
// and, when that status is FAILED, an error wrapping domain.ErrVerificationFailed.
// Context cancellation leaves the record UNVERIFIED and returns domain.ErrCancelled.
func (v *sourceVerification) run(ctx context.Context, record *models.DeploymentRecord, req *models.VerificationRequest) (*models.DeploymentRecord, error) {
	maxAttempts := v.policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := v.verifier.Verify(ctx, req)
		if err == nil {
			v.log.Info("contract verified", "network", req.Network, "address", req.Address.Hex(), "attempt", attempt)
			return record.WithVerification(models.VerificationStatusVerified, "", v.clock.Now()), nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return v.interrupted(record, ctx.Err())
		}
		if !errors.Is(err, domain.ErrTransient) {
			break
		}

		v.log.Debug("verification attempt failed", "network", req.Network, "address", req.Address.Hex(),
			"attempt", attempt, "error", err)
		if attempt == maxAttempts {
			break
		}
		if err := v.clock.Sleep(ctx, time.Duration(attempt)*v.policy.Interval); err != nil {
			return v.interrupted(record, err)
		}
	}

	reason := lastErr.Error()
	failed := record.WithVerification(models.VerificationStatusFailed, reason, v.clock.Now())
	return failed, fmt.Errorf("%w: %s: %w", domain.ErrVerificationFailed, req.Address.Hex(), lastErr)
}

func (v *sourceVerification) interrupted(record *models.DeploymentRecord, cause error) (*models.DeploymentRecord, error) {
	unverified := record.WithVerification(models.VerificationStatusUnverified, "verification interrupted", v.clock.Now())
	return unverified, fmt.Errorf("%w: verification of %s: %v", domain.ErrCancelled, record.ContractAddress.Hex(), cause)
}
