package config

// FoundryConfig represents the parts of foundry.toml this tool reads
type FoundryConfig struct {
	Profile      map[string]ProfileConfig `toml:"profile"`
	RpcEndpoints map[string]string        `toml:"rpc_endpoints"`

	// RawRpcEndpoints holds the endpoints before env expansion
	RawRpcEndpoints map[string]string `toml:"-"`
}

// ProfileConfig represents a profile's foundry configuration
type ProfileConfig struct {
	OutPath string      `toml:"out,omitempty"`
	Treb    *TrebConfig `toml:"treb,omitempty"`
}

// TrebConfig represents treb-specific configuration
type TrebConfig struct {
	Senders map[string]SenderConfig `json:"senders" toml:"senders"`
}

type SenderType string

var (
	SenderTypeLedger     SenderType = "ledger"
	SenderTypeTrezor     SenderType = "trezor"
	SenderTypeSafe       SenderType = "safe"
	SenderTypePrivateKey SenderType = "private_key"
	SenderTypeKeystore   SenderType = "keystore"
	SenderTypeOZGovernor SenderType = "oz_governor"
)

// SenderConfig represents a sender configuration
type SenderConfig struct {
	Type        SenderType `toml:"type"`
	Address     string     `toml:"address,omitempty"`
	PrivateKey  string     `toml:"private_key,omitempty"` //nolint:gosec // holds env var reference, not a literal secret
	Keystore    string     `toml:"keystore,omitempty"`    // For keystore senders
	Password    string     `toml:"password,omitempty"`    //nolint:gosec // For keystore senders
	PasswordEnv string     `toml:"password_env,omitempty"`
}
