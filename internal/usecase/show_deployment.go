package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/config"
	"github.com/trebuchet-org/rollout/internal/domain/models"
)

// ShowDeploymentParams contains parameters for showing a deployment
type ShowDeploymentParams struct {
	// Reference is an address, a symbol or "SYMBOL@network"
	Reference string
	// Live adds an on-chain snapshot of the token
	Live bool
}

// ShowDeploymentResult is the stored record plus an optional live snapshot
type ShowDeploymentResult struct {
	Record   *models.DeploymentRecord
	Snapshot *models.TokenSnapshot
	// LiveError explains why the snapshot is missing when Live was requested
	LiveError error
}

// ShowDeployment is the use case for showing deployment details
type ShowDeployment struct {
	config   *config.RuntimeConfig
	repo     DeploymentRepository
	selector DeploymentSelector
	attach   *AttachSession
	sink     ProgressSink
}

// NewShowDeployment creates a new ShowDeployment use case
func NewShowDeployment(cfg *config.RuntimeConfig, repo DeploymentRepository, selector DeploymentSelector, attach *AttachSession, sink ProgressSink) *ShowDeployment {
	return &ShowDeployment{
		config:   cfg,
		repo:     repo,
		selector: selector,
		attach:   attach,
		sink:     sink,
	}
}

// Run executes the show deployment use case
func (uc *ShowDeployment) Run(ctx context.Context, params ShowDeploymentParams) (*ShowDeploymentResult, error) {
	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "loading",
		Message: "Loading deployment record",
		Spinner: true,
	})

	record, err := resolveRecord(ctx, uc.config, uc.repo, uc.selector, params.Reference)
	if err != nil {
		return nil, err
	}
	result := &ShowDeploymentResult{Record: record}

	if params.Live && uc.config.Network != nil && uc.config.Network.Name == record.Network {
		uc.sink.OnProgress(ctx, ProgressEvent{Stage: "reading", Message: "Reading token state", Spinner: true})
		session, err := uc.attach.Attach(ctx, uc.config.Network, record.ContractAddress)
		if err == nil {
			defer session.Close()
			result.Snapshot, err = session.Describe(ctx)
		}
		result.LiveError = err
	} else if params.Live {
		result.LiveError = fmt.Errorf("record is on %s; select that network for live state", record.Network)
	}

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "complete",
		Message: "Deployment loaded",
	})
	return result, nil
}

// resolveRecord finds one record by address, symbol or "SYMBOL@network".
// Several matches go to the selector, which fails in non-interactive mode.
func resolveRecord(ctx context.Context, cfg *config.RuntimeConfig, repo DeploymentRepository, selector DeploymentSelector, reference string) (*models.DeploymentRecord, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, domain.NewInvalidConfig("deployment", "a reference is required")
	}

	filter := domain.DeploymentFilter{}
	if cfg.Network != nil {
		filter.Network = cfg.Network.Name
	}

	if common.IsHexAddress(reference) {
		address := common.HexToAddress(reference)
		if filter.Network != "" {
			record, err := repo.GetByAddress(ctx, filter.Network, address)
			if err == nil || !errors.Is(err, domain.ErrNotFound) {
				return record, err
			}
		}
		records, err := repo.List(ctx, domain.DeploymentFilter{})
		if err != nil {
			return nil, fmt.Errorf("failed to list deployments: %w", err)
		}
		var matches []*models.DeploymentRecord
		for _, r := range records {
			if r.ContractAddress == address {
				matches = append(matches, r)
			}
		}
		return pickRecord(ctx, selector, matches, reference)
	}

	symbol := reference
	if at := strings.LastIndex(reference, "@"); at > 0 {
		symbol = reference[:at]
		filter.Network = reference[at+1:]
	}
	filter.Symbol = symbol

	records, err := repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	return pickRecord(ctx, selector, records, reference)
}

func pickRecord(ctx context.Context, selector DeploymentSelector, matches []*models.DeploymentRecord, reference string) (*models.DeploymentRecord, error) {
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: no deployment matching %q", domain.ErrNotFound, reference)
	case 1:
		return matches[0], nil
	}
	sortRecords(matches)
	return selector.SelectDeployment(ctx, matches, fmt.Sprintf("Several deployments match %q", reference))
}
