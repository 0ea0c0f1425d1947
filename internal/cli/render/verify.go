package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/rollout/internal/domain/models"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

// VerifyRenderer handles rendering of verification results
type VerifyRenderer struct {
	out  io.Writer
	json bool
}

// NewVerifyRenderer creates a new verify renderer
func NewVerifyRenderer(out io.Writer, json bool) *VerifyRenderer {
	return &VerifyRenderer{out: out, json: json}
}

type verifyJSON struct {
	Deployment *models.DeploymentRecord `json:"deployment"`
	Success    bool                     `json:"success"`
	Skipped    string                   `json:"skipped,omitempty"`
	Error      string                   `json:"error,omitempty"`
}

func newVerifyJSON(result *usecase.VerifyResult) verifyJSON {
	out := verifyJSON{Deployment: result.Record, Success: result.Success, Skipped: result.Skipped}
	if result.Err != nil {
		out.Error = result.Err.Error()
	}
	return out
}

// RenderVerifyResult renders the result of verifying a specific deployment
func (r *VerifyRenderer) RenderVerifyResult(result *usecase.VerifyResult) error {
	if r.json {
		return WriteJSON(r.out, newVerifyJSON(result))
	}

	name := result.Record.DisplayName()
	switch {
	case result.Skipped == "already verified":
		pendingStyle.Fprintf(r.out, "%s is already verified. Use --force to re-verify.\n", name)
	case result.Skipped != "":
		pendingStyle.Fprintf(r.out, "Skipped %s: %s\n", name, result.Skipped)
	case result.Success:
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Verified %s", name)))
		if result.Record.ExplorerURL != "" {
			field(r.out, "Explorer", result.Record.ExplorerURL)
		}
	default:
		failedStyle.Fprintf(r.out, "✗ Verification of %s failed: %v\n", name, result.Err)
	}
	return nil
}

// RenderVerifyAllResult renders the result of verifying all deployments
func (r *VerifyRenderer) RenderVerifyAllResult(result *usecase.VerifyAllResult) error {
	if r.json {
		out := make([]verifyJSON, 0, len(result.Results))
		for _, res := range result.Results {
			out = append(out, newVerifyJSON(res))
		}
		return WriteJSON(r.out, map[string]any{
			"results":      out,
			"successCount": result.SuccessCount,
			"skippedCount": result.SkippedCount,
		})
	}

	if len(result.Results) == 0 {
		pendingStyle.Fprintln(r.out, "No deployments found to verify.")
		return nil
	}

	attempted := len(result.Results) - result.SkippedCount
	for _, res := range result.Results {
		name := res.Record.DisplayName()
		switch {
		case res.Skipped != "":
			fmt.Fprintf(r.out, "  ⏭️  %s %s\n", name, labelStyle.Sprintf("(%s)", res.Skipped))
		case res.Success:
			verifiedStyle.Fprintf(r.out, "  ✓ %s\n", name)
		default:
			failedStyle.Fprintf(r.out, "  ✗ %s: %v\n", name, res.Err)
		}
	}
	fmt.Fprintf(r.out, "\nVerification complete: %d/%d successful, %d skipped\n", result.SuccessCount, attempted, result.SkippedCount)
	return nil
}
