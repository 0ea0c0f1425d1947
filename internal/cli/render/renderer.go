package render

import "github.com/trebuchet-org/rollout/internal/usecase"

// Renderer writes a use case result as text or JSON
type Renderer[T any] interface {
	Render(result T) error
}

var (
	_ Renderer[*usecase.DeployResult]         = (*DeployRenderer)(nil)
	_ Renderer[*usecase.DeploymentListResult] = (*DeploymentsRenderer)(nil)
	_ Renderer[*usecase.ShowDeploymentResult] = (*DeploymentRenderer)(nil)
)
