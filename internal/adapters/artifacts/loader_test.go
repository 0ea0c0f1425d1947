package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/config"
)

const abiJSON = `[{"type":"constructor","inputs":[{"name":"name_","type":"string"}]},{"type":"function","name":"symbol","inputs":[],"outputs":[{"type":"string"}],"stateMutability":"view"}]`

func writeArtifact(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoader_Foundry(t *testing.T) {
	root := t.TempDir()
	writeArtifact(t, root, "out/MemeToken.sol/MemeToken.json", `{
		"abi": `+abiJSON+`,
		"bytecode": {"object": "0x6080604052", "sourceMap": ""},
		"metadata": {
			"compiler": {"version": "0.8.20+commit.a1b79de6"},
			"settings": {"compilationTarget": {"src/MemeToken.sol": "MemeToken"}}
		}
	}`)

	artifact, err := NewLoader(&config.RuntimeConfig{ProjectRoot: root}).Load(context.Background(), "out/MemeToken.sol/MemeToken.json")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x80, 0x60, 0x40, 0x52}, artifact.Bytecode)
	assert.Equal(t, "src/MemeToken.sol:MemeToken", artifact.ContractPath)
	assert.Equal(t, "0.8.20+commit.a1b79de6", artifact.CompilerVersion)
	assert.Len(t, artifact.ABI.Constructor.Inputs, 1)
	assert.Contains(t, artifact.ABI.Methods, "symbol")
	assert.Equal(t, filepath.Join(root, "out/MemeToken.sol/MemeToken.json"), artifact.Path)
}

func TestLoader_Hardhat(t *testing.T) {
	root := t.TempDir()
	path := writeArtifact(t, root, "MemeToken.json", `{
		"contractName": "MemeToken",
		"sourceName": "contracts/MemeToken.sol",
		"abi": `+abiJSON+`,
		"bytecode": "0x60806040"
	}`)

	artifact, err := NewLoader(&config.RuntimeConfig{}).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "contracts/MemeToken.sol:MemeToken", artifact.ContractPath)
	assert.Len(t, artifact.Bytecode, 4)
	assert.Empty(t, artifact.CompilerVersion)
}

func TestLoader_Errors(t *testing.T) {
	root := t.TempDir()
	loader := NewLoader(&config.RuntimeConfig{ProjectRoot: root})
	ctx := context.Background()

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "interface", body: `{"abi": ` + abiJSON + `, "bytecode": {"object": "0x"}}`, wantErr: "no creation bytecode"},
		{name: "unlinked", body: `{"abi": ` + abiJSON + `, "bytecode": {"object": "0x60__$abc$__"}}`, wantErr: "unlinked library"},
		{name: "no abi", body: `{"bytecode": "0x60"}`, wantErr: "has no abi"},
		{name: "not json", body: `nope`, wantErr: "failed to parse artifact"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeArtifact(t, root, tt.name+".json", tt.body)
			_, err := loader.Load(ctx, tt.name+".json")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.Load(ctx, "out/Missing.json")
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})
}
