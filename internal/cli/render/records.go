package render

import (
	"github.com/trebuchet-org/rollout/internal/domain/models"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

// summaryJSON is the --json form of a deployment list summary
type summaryJSON struct {
	Total       int                        `json:"total"`
	ByNetwork   map[string]int             `json:"byNetwork"`
	ByStatus    map[string]int             `json:"byStatus"`
	Unconfirmed int                        `json:"unconfirmed"`
	Deployments []*models.DeploymentRecord `json:"deployments"`
}

func listJSON(result *usecase.DeploymentListResult) summaryJSON {
	byStatus := make(map[string]int, len(result.Summary.ByStatus))
	for status, n := range result.Summary.ByStatus {
		byStatus[string(status)] = n
	}
	deployments := result.Deployments
	if deployments == nil {
		deployments = []*models.DeploymentRecord{}
	}
	return summaryJSON{
		Total:       result.Summary.Total,
		ByNetwork:   result.Summary.ByNetwork,
		ByStatus:    byStatus,
		Unconfirmed: result.Summary.Unconfirmed,
		Deployments: deployments,
	}
}
