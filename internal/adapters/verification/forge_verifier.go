package verification

import (
	"context"
	"encoding/hex"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/config"
	"github.com/trebuchet-org/rollout/internal/domain/models"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

// CommandRunner runs name with args in dir and returns the combined output
type CommandRunner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// ForgeVerifier submits sources through `forge verify-contract`
type ForgeVerifier struct {
	projectRoot string
	run         CommandRunner
}

// NewForgeVerifier creates a verifier running forge in the project root
func NewForgeVerifier(cfg *config.RuntimeConfig) *ForgeVerifier {
	return &ForgeVerifier{
		projectRoot: cfg.ProjectRoot,
		run:         execRunner,
	}
}

// WithRunner replaces the command runner
func (v *ForgeVerifier) WithRunner(run CommandRunner) *ForgeVerifier {
	v.run = run
	return v
}

// Verify runs one verification attempt
func (v *ForgeVerifier) Verify(ctx context.Context, req *models.VerificationRequest) error {
	if req.ContractPath == "" {
		return fmt.Errorf("no contract path configured for %s", req.Address.Hex())
	}

	output, err := v.run(ctx, v.projectRoot, "forge", verifyArgs(req)...)
	out := strings.TrimSpace(string(output))
	if alreadyVerified(out) {
		return nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if out == "" {
			out = err.Error()
		}
		if transient(out) {
			return fmt.Errorf("%w: %s", domain.ErrTransient, lastLine(out))
		}
		return fmt.Errorf("forge verify-contract: %s", lastLine(out))
	}
	if strings.Contains(out, "successfully verified") || strings.Contains(out, "Pass - Verified") {
		return nil
	}
	return fmt.Errorf("%w: verification status unclear: %s", domain.ErrTransient, lastLine(out))
}

// Command returns the forge invocation Verify would run
func (v *ForgeVerifier) Command(req *models.VerificationRequest) string {
	return "forge " + strings.Join(verifyArgs(req), " ")
}

func verifyArgs(req *models.VerificationRequest) []string {
	args := []string{
		"verify-contract",
		req.Address.Hex(),
		req.ContractPath,
		"--chain-id", strconv.FormatUint(req.ChainID, 10),
		"--watch",
	}
	if req.VerifierURL != "" {
		args = append(args, "--verifier-url", req.VerifierURL)
	}
	if req.ExplorerAPIKey != "" {
		args = append(args, "--etherscan-api-key", req.ExplorerAPIKey)
	}
	if req.CompilerVersion != "" {
		args = append(args, "--compiler-version", req.CompilerVersion)
	}
	if len(req.ConstructorArgs) > 0 {
		args = append(args, "--constructor-args", hex.EncodeToString(req.ConstructorArgs))
	}
	return args
}

func alreadyVerified(out string) bool {
	lower := strings.ToLower(out)
	return strings.Contains(lower, "already verified")
}

var transientMarkers = []string{
	"rate limit",
	"unable to locate contractcode",
	"does not have bytecode",
	"pending in queue",
	"timed out",
	"timeout",
	"connection reset",
	"connection refused",
	"502 bad gateway",
	"503 service unavailable",
	"too many requests",
}

// transient reports whether forge output describes a failure worth retrying,
// typically an explorer that has not indexed the contract yet
func transient(out string) bool {
	lower := strings.ToLower(out)
	for _, marker := range transientMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return out
}

var _ usecase.SourceVerifier = (*ForgeVerifier)(nil)
