package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/rollout/internal/domain/config"
)

const (
	// ProjectFile marks the project root
	ProjectFile = "rollout.toml"
	// DataDirName holds records, caches and local overrides
	DataDirName = ".rollout"
)

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	project, err := LoadProjectConfig(projectRoot)
	if err != nil {
		return nil, err
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        filepath.Join(projectRoot, DataDirName),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		JSON:           v.GetBool("json"),
		Timeout:        v.GetDuration("timeout"),
		Project:        project,
		Artifact:       resolveArtifact(projectRoot, project.Artifact),
		Sender:         config.SenderConfig{PrivateKey: project.Sender.PrivateKey},
	}

	if pk := v.GetString("private_key"); pk != "" {
		cfg.Sender.PrivateKey = pk
	}

	if cfg.Confirmation, err = resolveConfirmation(project.Confirmation); err != nil {
		return nil, err
	}
	if v.IsSet("confirmations") {
		cfg.Confirmation.Confirmations = v.GetUint64("confirmations")
	}
	if v.IsSet("confirmation_timeout") {
		cfg.Confirmation.Timeout = v.GetDuration("confirmation_timeout")
	}

	if cfg.Verification, err = resolveVerification(project.Verification); err != nil {
		return nil, err
	}
	if v.IsSet("verification_delay") {
		cfg.Verification.Delay = v.GetDuration("verification_delay")
	}

	if cfg.Routers, err = BuildRouterBook(project.Routers); err != nil {
		return nil, err
	}

	if networkName := v.GetString("network"); networkName != "" {
		resolver := NewNetworkResolver(projectRoot, project, cfg.Routers)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		network, err := resolver.Resolve(ctx, networkName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve network %s: %w", networkName, err)
		}
		cfg.Network = network
	}

	return cfg, nil
}

// FindProjectRoot walks up from current directory to find rollout.toml
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ProjectFile)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a rollout project (%s not found)", ProjectFile)
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	v.SetConfigName("config.local")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, DataDirName))

	v.SetEnvPrefix("ROLLOUT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("project_root", projectRoot)

	// Try to read config file (ignore error if not found)
	_ = v.ReadInConfig()

	// Only persistent flags are global settings, command flags are read by the command
	if cmd != nil {
		bindFlags(v, cmd.InheritedFlags())
		bindFlags(v, cmd.PersistentFlags())
	}

	return v
}

// bindFlags binds every flag under its underscored name, so --non-interactive
// and ROLLOUT_NON_INTERACTIVE land on the same key
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	})
}

func resolveArtifact(projectRoot string, section config.ArtifactSection) config.ArtifactConfig {
	artifact := config.ArtifactConfig{
		Path:            section.Path,
		ContractPath:    section.Contract,
		CompilerVersion: section.CompilerVersion,
	}
	if artifact.Path == "" {
		artifact.Path = filepath.Join("out", "MemeToken.sol", "MemeToken.json")
	}
	if !filepath.IsAbs(artifact.Path) {
		artifact.Path = filepath.Join(projectRoot, artifact.Path)
	}
	if artifact.ContractPath == "" {
		artifact.ContractPath = "src/MemeToken.sol:MemeToken"
	}
	return artifact
}

func resolveConfirmation(section config.ConfirmationSection) (config.ConfirmationPolicy, error) {
	policy := config.DefaultConfirmationPolicy()
	if section.Confirmations != nil {
		policy.Confirmations = *section.Confirmations
	}

	var err error
	if policy.Timeout, err = parseDuration("confirmation.timeout", section.Timeout, policy.Timeout); err != nil {
		return policy, err
	}
	if policy.PollInitial, err = parseDuration("confirmation.poll_initial", section.PollInitial, policy.PollInitial); err != nil {
		return policy, err
	}
	if policy.PollMax, err = parseDuration("confirmation.poll_max", section.PollMax, policy.PollMax); err != nil {
		return policy, err
	}
	return policy, nil
}

func resolveVerification(section config.VerificationSection) (config.VerificationPolicy, error) {
	policy := config.DefaultVerificationPolicy()
	if section.Enabled != nil {
		policy.Enabled = *section.Enabled
	}
	if section.MaxAttempts > 0 {
		policy.MaxAttempts = section.MaxAttempts
	}

	var err error
	if policy.Delay, err = parseDuration("verification.delay", section.Delay, policy.Delay); err != nil {
		return policy, err
	}
	if policy.Interval, err = parseDuration("verification.interval", section.Interval, policy.Interval); err != nil {
		return policy, err
	}
	return policy, nil
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s in %s: %w", key, ProjectFile, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s in %s: must not be negative", key, ProjectFile)
	}
	return d, nil
}

// ProvideNetworkResolver creates a NetworkResolver for Wire dependency injection
func ProvideNetworkResolver(cfg *config.RuntimeConfig) *NetworkResolver {
	return NewNetworkResolver(cfg.ProjectRoot, cfg.Project, cfg.Routers)
}
