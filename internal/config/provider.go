package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
)

// DefaultContract is deployed when no contract name is configured
const DefaultContract = "TimedAuction"

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			// Plain artifact directories work without foundry.toml
			if projectRoot, err = os.Getwd(); err != nil {
				return nil, fmt.Errorf("failed to determine working directory: %w", err)
			}
		}
	}

	// Settings below may come from .env through TREB_* variables
	if err := loadDotEnv(projectRoot); err != nil {
		return nil, err
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		Namespace:      v.GetString("namespace"),
		ContractName:   strings.TrimSpace(v.GetString("contract")),
		Sender:         v.GetString("sender"),
		PrivateKey:     v.GetString("private_key"),
		GasLimit:       v.GetUint64("gas_limit"),
		PollInterval:   v.GetDuration("poll_interval"),
		ConfirmTimeout: v.GetDuration("confirm_timeout"),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		JSON:           v.GetBool("json"),
	}

	if cfg.ContractName == "" {
		return nil, fmt.Errorf("contract name must not be empty")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll_interval must be positive, got %s", cfg.PollInterval)
	}
	if cfg.ConfirmTimeout < 0 {
		return nil, fmt.Errorf("confirm_timeout must not be negative, got %s", cfg.ConfirmTimeout)
	}

	foundryConfig, err := loadFoundryConfig(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load foundry config: %w", err)
	}
	cfg.FoundryConfig = foundryConfig

	// Load profile-specific treb config (namespace = profile)
	if profile, ok := foundryConfig.Profile[cfg.Namespace]; ok {
		cfg.TrebConfig = profile.Treb
	}

	cfg.ArtifactsDir = resolveArtifactsDir(projectRoot, v.GetString("artifacts_dir"), foundryConfig, cfg.Namespace)

	network, err := NewNetworkResolver(foundryConfig).Resolve(v.GetString("network"), v.GetString("rpc_url"))
	if err != nil {
		return nil, err
	}
	network.ChainID = v.GetUint64("chain_id")
	cfg.Network = network

	return cfg, nil
}

// FindProjectRoot walks up from current directory to find foundry.toml
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		foundryToml := filepath.Join(dir, "foundry.toml")
		if _, err := os.Stat(foundryToml); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a Foundry project (foundry.toml not found)")
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string) *viper.Viper {
	v := viper.New()

	// Set up config file
	v.SetConfigName("config.local")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, ".treb"))

	// Set up environment variables
	v.SetEnvPrefix("TREB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Set defaults
	v.SetDefault("namespace", "default")
	v.SetDefault("network", DefaultNetwork)
	v.SetDefault("contract", DefaultContract)
	v.SetDefault("poll_interval", "1s")
	v.SetDefault("confirm_timeout", "0s")
	v.SetDefault("gas_limit", 0)
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("json", false)
	v.SetDefault("project_root", projectRoot)

	// Try to read config file (ignore error if not found)
	_ = v.ReadInConfig()

	return v
}

// resolveArtifactsDir picks the directory holding compiled artifacts.
// Order: explicit setting, the profile's `out`, the default profile's `out`,
// then `out/`, falling back to Hardhat's `artifacts/` when `out/` is missing.
func resolveArtifactsDir(projectRoot, explicit string, foundryConfig *config.FoundryConfig, namespace string) string {
	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(projectRoot, p)
	}

	if explicit != "" {
		return abs(explicit)
	}
	for _, name := range []string{namespace, "default"} {
		if profile, ok := foundryConfig.Profile[name]; ok && profile.OutPath != "" {
			return abs(profile.OutPath)
		}
	}

	out := abs("out")
	if _, err := os.Stat(out); os.IsNotExist(err) {
		hardhat := abs("artifacts")
		if _, err := os.Stat(hardhat); err == nil {
			return hardhat
		}
	}
	return out
}
