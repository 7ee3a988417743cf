package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into adapters and use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot  string
	ArtifactsDir string

	// Context settings
	Namespace string   // Maps to foundry profile
	Network   *Network // Always resolved, defaults to localhost

	// Deployment settings
	ContractName string
	Sender       string // Optional sender name, empty means first usable
	PrivateKey   string //nolint:gosec // ambient key from TREB_PRIVATE_KEY
	GasLimit     uint64 // 0 lets the node estimate

	// Confirmation settings
	PollInterval   time.Duration
	ConfirmTimeout time.Duration // 0 waits for as long as the network takes

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool // Output in JSON format

	// Resolved configurations
	FoundryConfig *FoundryConfig
	TrebConfig    *TrebConfig // Profile-specific treb config
}

// Network represents network configuration
type Network struct {
	Name    string `json:"name"`
	RPCURL  string `json:"rpcUrl"`
	ChainID uint64 `json:"chainId,omitempty"` // 0 accepts whatever the node reports
}
