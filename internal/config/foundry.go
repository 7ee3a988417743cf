package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
)

// loadDotEnv loads .env then .env.local from the project root into the
// process environment. Variables already set are kept.
func loadDotEnv(projectRoot string) error {
	for _, name := range []string{".env", ".env.local"} {
		envFile := filepath.Join(projectRoot, name)
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	return nil
}

// loadFoundryConfig loads and parses foundry.toml. A missing file yields an empty config.
func loadFoundryConfig(projectRoot string) (*config.FoundryConfig, error) {
	cfg := &config.FoundryConfig{
		Profile:      make(map[string]config.ProfileConfig),
		RpcEndpoints: make(map[string]string),
	}

	foundryPath := filepath.Join(projectRoot, "foundry.toml")
	if _, err := os.Stat(foundryPath); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(foundryPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse foundry.toml: %w", err)
	}

	cfg.RawRpcEndpoints = make(map[string]string, len(cfg.RpcEndpoints))
	for name, url := range cfg.RpcEndpoints {
		cfg.RawRpcEndpoints[name] = url
		cfg.RpcEndpoints[name] = os.ExpandEnv(url)
	}

	for profileName, profile := range cfg.Profile {
		if profile.Treb == nil {
			continue
		}
		for name, sender := range profile.Treb.Senders {
			sender.Address = os.ExpandEnv(sender.Address)
			sender.PrivateKey = os.ExpandEnv(sender.PrivateKey)
			sender.Keystore = os.ExpandEnv(sender.Keystore)
			sender.Password = os.ExpandEnv(sender.Password)
			profile.Treb.Senders[name] = sender
		}
		cfg.Profile[profileName] = profile
	}

	return cfg, nil
}
