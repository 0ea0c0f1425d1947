package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/config"
	"github.com/trebuchet-org/rollout/internal/domain/models"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

// bytecode is either Foundry's {"object": "0x.."} or Hardhat's plain hex string
type bytecode string

func (b *bytecode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = bytecode(s)
		return nil
	}
	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("bytecode is neither a hex string nor an object: %w", err)
	}
	*b = bytecode(obj.Object)
	return nil
}

type artifactJSON struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode bytecode        `json:"bytecode"`
	Metadata struct {
		Compiler struct {
			Version string `json:"version"`
		} `json:"compiler"`
		Settings struct {
			CompilationTarget map[string]string `json:"compilationTarget"`
		} `json:"settings"`
	} `json:"metadata"`

	// Hardhat
	ContractName string `json:"contractName"`
	SourceName   string `json:"sourceName"`
}

// Loader reads Foundry and Hardhat compilation artifacts
type Loader struct {
	projectRoot string
}

// NewLoader creates a loader resolving relative paths against the project root
func NewLoader(cfg *config.RuntimeConfig) *Loader {
	return &Loader{projectRoot: cfg.ProjectRoot}
}

// Load parses the artifact at path
func (l *Loader) Load(_ context.Context, path string) (*models.Artifact, error) {
	if path == "" {
		return nil, domain.NewInvalidConfig("artifact.path", "no contract artifact configured")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.projectRoot, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NewInvalidConfig("artifact.path", "artifact %s not found, run forge build first", path)
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	var raw artifactJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}
	return convert(path, &raw)
}

func convert(path string, raw *artifactJSON) (*models.Artifact, error) {
	if len(raw.ABI) == 0 {
		return nil, fmt.Errorf("artifact %s has no abi", path)
	}
	parsed, err := abi.JSON(strings.NewReader(string(raw.ABI)))
	if err != nil {
		return nil, fmt.Errorf("artifact %s has an invalid abi: %w", path, err)
	}

	hex := strings.TrimSpace(string(raw.Bytecode))
	if hex == "" || hex == "0x" {
		return nil, fmt.Errorf("artifact %s has no creation bytecode (abstract contract or interface?)", path)
	}
	if strings.Contains(hex, "__") {
		return nil, fmt.Errorf("artifact %s has unlinked library references", path)
	}
	if !strings.HasPrefix(hex, "0x") {
		hex = "0x" + hex
	}
	code, err := hexutil.Decode(hex)
	if err != nil {
		return nil, fmt.Errorf("artifact %s has malformed bytecode: %w", path, err)
	}

	return &models.Artifact{
		Path:            path,
		ABI:             parsed,
		Bytecode:        code,
		ContractPath:    contractPath(raw),
		CompilerVersion: strings.TrimPrefix(raw.Metadata.Compiler.Version, "v"),
	}, nil
}

// contractPath returns "<source>:<name>" from the compilation target
func contractPath(raw *artifactJSON) string {
	for source, name := range raw.Metadata.Settings.CompilationTarget {
		return source + ":" + name
	}
	if raw.SourceName != "" && raw.ContractName != "" {
		return raw.SourceName + ":" + raw.ContractName
	}
	return ""
}

var _ usecase.ArtifactLoader = (*Loader)(nil)
