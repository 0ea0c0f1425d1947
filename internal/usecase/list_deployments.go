package usecase

import (
	"context"
	"sort"

	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/config"
	"github.com/trebuchet-org/rollout/internal/domain/models"
)

// ListDeploymentsParams contains parameters for listing deployments
type ListDeploymentsParams struct {
	// AllNetworks ignores the runtime network
	AllNetworks bool
	Symbol      string
	Status      string
}

// DeploymentSummary counts listed records
type DeploymentSummary struct {
	Total     int
	ByNetwork map[string]int
	ByStatus  map[models.VerificationStatus]int
	// Unconfirmed counts records whose creation transaction was never seen in a block
	Unconfirmed int
}

// DeploymentListResult is the outcome of ListDeployments
type DeploymentListResult struct {
	Deployments []*models.DeploymentRecord
	Summary     DeploymentSummary
}

// ListDeployments is the use case for listing deployment records
type ListDeployments struct {
	config *config.RuntimeConfig
	repo   DeploymentRepository
	sink   ProgressSink
}

// NewListDeployments creates a new ListDeployments use case
func NewListDeployments(cfg *config.RuntimeConfig, repo DeploymentRepository, sink ProgressSink) *ListDeployments {
	return &ListDeployments{
		config: cfg,
		repo:   repo,
		sink:   sink,
	}
}

// Run executes the list deployments use case
func (uc *ListDeployments) Run(ctx context.Context, params ListDeploymentsParams) (*DeploymentListResult, error) {
	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "loading",
		Message: "Loading deployment records",
		Spinner: true,
	})

	filter := domain.DeploymentFilter{
		Symbol: params.Symbol,
		Status: params.Status,
	}
	if !params.AllNetworks && uc.config.Network != nil {
		filter.Network = uc.config.Network.Name
	}

	records, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	sortRecords(records)
	summary := summarize(records)

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "complete",
		Current: len(records),
		Total:   len(records),
		Message: "Deployment records loaded",
	})

	return &DeploymentListResult{
		Deployments: records,
		Summary:     summary,
	}, nil
}

// sortRecords orders by network, then newest first
func sortRecords(records []*models.DeploymentRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Network != records[j].Network {
			return records[i].Network < records[j].Network
		}
		return records[i].DeploymentTime.After(records[j].DeploymentTime)
	})
}

func summarize(records []*models.DeploymentRecord) DeploymentSummary {
	summary := DeploymentSummary{
		Total:     len(records),
		ByNetwork: make(map[string]int),
		ByStatus:  make(map[models.VerificationStatus]int),
	}
	for _, r := range records {
		summary.ByNetwork[r.Network]++
		summary.ByStatus[r.VerificationStatus]++
		if !r.Confirmed() {
			summary.Unconfirmed++
		}
	}
	return summary
}
