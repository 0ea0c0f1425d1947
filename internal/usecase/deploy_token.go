package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/config"
	"github.com/trebuchet-org/rollout/internal/domain/models"
)

// DeployStatus summarises how a deploy run ended
type DeployStatus string

const (
	DeployStatusDeployed        DeployStatus = "deployed"
	DeployStatusAlreadyDeployed DeployStatus = "already_deployed"
	// DeployStatusUnconfirmed means the transaction was sent but not seen
	// confirmed; the record was written and the chain needs a re-check
	DeployStatusUnconfirmed DeployStatus = "unconfirmed"
)

// DeployOptions tunes a single run
type DeployOptions struct {
	// Network overrides the runtime network
	Network    *config.Network
	Force      bool
	SkipVerify bool
	// Zero values keep the configured policy
	Confirmations uint64
	Timeout       time.Duration
	VerifyDelay   *time.Duration
}

// DeployResult is the structured outcome of a deploy run
type DeployResult struct {
	Status          DeployStatus
	Record          *models.DeploymentRecord
	AlreadyDeployed bool
	DeployerBalance *big.Int
	Confirmation    *Confirmation
	// Condition is domain.ErrConfirmationTimeout or domain.ErrCancelled for unconfirmed runs
	Condition error
	// VerificationError wraps domain.ErrVerificationFailed; it never fails the run
	VerificationError error
	Warnings          []string
}

// DeployToken validates, submits, confirms, verifies and records a token deployment
type DeployToken struct {
	config    *config.RuntimeConfig
	connector ChainConnector
	repo      DeploymentRepository
	verifier  SourceVerifier
	artifacts ArtifactLoader
	clock     Clock
	sink      ProgressSink
	log       *slog.Logger
}

// NewDeployToken creates a new DeployToken use case
func NewDeployToken(
	cfg *config.RuntimeConfig,
	connector ChainConnector,
	repo DeploymentRepository,
	verifier SourceVerifier,
	artifacts ArtifactLoader,
	clock Clock,
	sink ProgressSink,
	log *slog.Logger,
) *DeployToken {
	return &DeployToken{
		config:    cfg,
		connector: connector,
		repo:      repo,
		verifier:  verifier,
		artifacts: artifacts,
		clock:     clock,
		sink:      sink,
		log:       log,
	}
}

// Run executes the deployment. Validation, pre-flight and submission problems
// are returned as errors; an unconfirmed or unverified deployment is a result.
func (uc *DeployToken) Run(ctx context.Context, params models.DeploymentParams, opts DeployOptions) (*DeployResult, error) {
	cfg, err := models.NewDeploymentConfig(params)
	if err != nil {
		return nil, err
	}

	network := opts.Network
	if network == nil {
		network = uc.config.Network
	}
	if network == nil {
		return nil, domain.NewInvalidConfig("network", "no network selected")
	}

	hash, err := cfg.Hash(network.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to hash deployment config: %w", err)
	}
	log := uc.log.With("network", network.Name, "configHash", hash.Hex())

	unlock, err := uc.repo.Lock(ctx, lockKey(network.Name, hash))
	if err != nil {
		return nil, fmt.Errorf("failed to lock deployment %s: %w", network.Name, err)
	}
	defer unlock()

	existing, err := uc.repo.FindByConfigHash(ctx, network.Name, hash)
	switch {
	case err == nil && !opts.Force:
		log.Info("identical deployment already recorded", "address", existing.ContractAddress.Hex())
		return &DeployResult{
			Status:          DeployStatusAlreadyDeployed,
			Record:          existing,
			AlreadyDeployed: true,
		}, nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("failed to check existing deployments: %w", err)
	}

	artifact, err := uc.artifacts.Load(ctx, uc.config.Artifact.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact: %w", err)
	}

	client, err := uc.connector.Connect(ctx, network)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	result := &DeployResult{}
	deployer := client.Sender()

	balance, err := client.BalanceAt(ctx, deployer)
	if err != nil {
		return nil, domain.Remote(network.Name, deployer.Hex(), "eth_getBalance", err)
	}
	result.DeployerBalance = balance
	if balance.Sign() == 0 {
		return nil, fmt.Errorf("%w: deployer %s has no balance on %s", domain.ErrSubmissionFailed, deployer.Hex(), network.Name)
	}

	args, err := cfg.PackConstructorArgs()
	if err != nil {
		return nil, fmt.Errorf("failed to encode constructor arguments: %w", err)
	}

	uc.sink.OnProgress(ctx, ProgressEvent{Stage: "submit", Message: fmt.Sprintf("Deploying %s to %s", cfg.Symbol(), network.Name), Spinner: true})
	address, txHash, err := client.DeployContract(ctx, artifact.CreationCode(args))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSubmissionFailed, domain.Remote(network.Name, "", "deploy", err))
	}
	log = log.With("address", address.Hex(), "tx", txHash.Hex())
	log.Info("creation transaction sent")

	record := &models.DeploymentRecord{
		Network:            network.Name,
		ChainID:            network.ChainID,
		ContractAddress:    address,
		Deployer:           deployer,
		TransactionHash:    txHash,
		DeploymentTime:     uc.clock.Now().UTC(),
		ConfigHash:         hash,
		Parameters:         cfg,
		VerificationStatus: models.VerificationStatusUnverified,
		ExplorerURL:        explorerAddressURL(network, address),
	}
	result.Record = record

	uc.sink.OnProgress(ctx, ProgressEvent{Stage: "confirm", Message: "Waiting for confirmation", Spinner: true})
	confirmation, err := NewConfirmationWaiter(uc.clock, uc.confirmationPolicy(opts)).Wait(ctx, client, txHash)
	result.Confirmation = confirmation
	switch {
	case domain.IsAmbiguous(err):
		log.Warn("deployment not confirmed", "error", err)
		result.Status = DeployStatusUnconfirmed
		result.Condition = err
		result.Warnings = append(result.Warnings, fmt.Sprintf("transaction %s was sent but not confirmed; re-check it on chain", txHash.Hex()))
		if err := uc.persist(ctx, record); err != nil {
			return result, err
		}
		uc.sink.OnProgress(ctx, ProgressEvent{Stage: "complete", Message: "Deployment recorded (unconfirmed)"})
		return result, nil
	case err != nil:
		return nil, err
	}

	record.BlockNumber = confirmation.BlockNumber
	result.Status = DeployStatusDeployed
	log.Info("deployment confirmed", "block", record.BlockNumber, "confirmations", confirmation.Confirmations)

	// Write the confirmed record before verification can take minutes
	if err := uc.persist(ctx, record); err != nil {
		return result, err
	}

	if reason := uc.skipVerification(network, opts); reason != "" {
		log.Debug("skipping verification", "reason", reason)
		if !opts.SkipVerify {
			result.Warnings = append(result.Warnings, "verification skipped: "+reason)
		}
	} else {
		record = uc.verify(ctx, record, network, artifact, opts, result)
		result.Record = record
	}

	if err := uc.persist(ctx, record); err != nil {
		return result, err
	}

	uc.sink.OnProgress(ctx, ProgressEvent{Stage: "complete", Message: "Deployment recorded"})
	return result, nil
}

func (uc *DeployToken) verify(ctx context.Context, record *models.DeploymentRecord, network *config.Network, artifact *models.Artifact, opts DeployOptions, result *DeployResult) *models.DeploymentRecord {
	artifactCfg := uc.config.Artifact
	if artifact.ContractPath != "" {
		artifactCfg.ContractPath = artifact.ContractPath
	}
	if artifactCfg.CompilerVersion == "" {
		artifactCfg.CompilerVersion = artifact.CompilerVersion
	}

	req, err := verificationRequest(record, network, artifactCfg)
	if err != nil {
		result.VerificationError = fmt.Errorf("%w: %w", domain.ErrVerificationFailed, err)
		result.Warnings = append(result.Warnings, result.VerificationError.Error())
		return record.WithVerification(models.VerificationStatusFailed, err.Error(), uc.clock.Now())
	}

	pending := record.WithVerification(models.VerificationStatusPending, "", uc.clock.Now())
	if err := uc.persist(ctx, pending); err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}

	delay := uc.config.Verification.Delay
	if opts.VerifyDelay != nil {
		delay = *opts.VerifyDelay
	}
	runner := &sourceVerification{verifier: uc.verifier, clock: uc.clock, policy: uc.config.Verification, log: uc.log}

	uc.sink.OnProgress(ctx, ProgressEvent{Stage: "verify", Message: "Verifying source on explorer", Spinner: true})
	if delay > 0 {
		if err := uc.clock.Sleep(ctx, delay); err != nil {
			verified, cancelErr := runner.interrupted(pending, err)
			result.Condition = cancelErr
			result.Warnings = append(result.Warnings, cancelErr.Error())
			return verified
		}
	}

	verified, err := runner.run(ctx, pending, req)
	switch {
	case errors.Is(err, domain.ErrCancelled):
		result.Condition = err
		result.Warnings = append(result.Warnings, err.Error())
	case err != nil:
		result.VerificationError = err
		result.Warnings = append(result.Warnings, err.Error())
	}
	return verified
}

// skipVerification returns why verification doesn't run, or "" when it does
func (uc *DeployToken) skipVerification(network *config.Network, opts DeployOptions) string {
	switch {
	case opts.SkipVerify:
		return "disabled for this run"
	case !uc.config.Verification.Enabled:
		return "disabled in rollout.toml"
	case !network.Public:
		return fmt.Sprintf("network %s has no public explorer", network.Name)
	}
	return ""
}

func (uc *DeployToken) confirmationPolicy(opts DeployOptions) config.ConfirmationPolicy {
	policy := uc.config.Confirmation
	if opts.Confirmations > 0 {
		policy.Confirmations = opts.Confirmations
	}
	if opts.Timeout > 0 {
		policy.Timeout = opts.Timeout
	}
	return policy
}

// persist writes the record even when ctx was cancelled, so a sent
// transaction is never forgotten
func (uc *DeployToken) persist(ctx context.Context, record *models.DeploymentRecord) error {
	if err := uc.repo.Save(context.WithoutCancel(ctx), record); err != nil {
		return fmt.Errorf("failed to save deployment record %s: %w", record.ID(), err)
	}
	return nil
}

func lockKey(network string, hash common.Hash) string {
	return fmt.Sprintf("%s-%s", network, hash.Hex()[2:18])
}

func explorerAddressURL(network *config.Network, address common.Address) string {
	if network.ExplorerURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/address/%s", network.ExplorerURL, address.Hex())
}
