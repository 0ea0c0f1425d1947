package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/rollout/internal/domain/config"
)

// LoadProjectConfig loads .env files and then decodes rollout.toml,
// expanding ${VAR} references in string values.
func LoadProjectConfig(projectRoot string) (*config.ProjectConfig, error) {
	loadDotEnv(projectRoot)

	path := filepath.Join(projectRoot, ProjectFile)
	cfg := &config.ProjectConfig{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ProjectFile, err)
	}

	cfg.Artifact.Path = os.ExpandEnv(cfg.Artifact.Path)
	cfg.Sender.PrivateKey = os.ExpandEnv(cfg.Sender.PrivateKey)
	for name, network := range cfg.Networks {
		network.RPCURL = os.ExpandEnv(network.RPCURL)
		network.ExplorerURL = os.ExpandEnv(network.ExplorerURL)
		network.VerifierURL = os.ExpandEnv(network.VerifierURL)
		network.ExplorerAPIKey = os.ExpandEnv(network.ExplorerAPIKey)
		network.Router = os.ExpandEnv(network.Router)
		cfg.Networks[name] = network
	}
	for key, router := range cfg.Routers {
		cfg.Routers[key] = os.ExpandEnv(router)
	}

	return cfg, nil
}

// loadDotEnv loads .env then .env.local; variables already set win
func loadDotEnv(projectRoot string) {
	for _, name := range []string{".env", ".env.local"} {
		envFile := filepath.Join(projectRoot, name)
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
		}
	}
}
