package config

import (
	"fmt"
	"regexp"
	"strings"
)

// envVarPattern matches ${VAR_NAME} patterns in TOML values
var envVarPattern = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// DetectEnvVar checks if a raw TOML value is a simple ${VAR_NAME} reference.
// Returns the variable name and true if the value is a pure env var reference.
func DetectEnvVar(rawValue string) (string, bool) {
	matches := envVarPattern.FindStringSubmatch(rawValue)
	if len(matches) == 2 {
		return matches[1], true
	}
	return "", false
}

// GenerateEnvVarName generates a conventional env var name for a network's RPC URL.
// Examples: sepolia -> SEPOLIA_RPC_URL, celo-sepolia -> CELO_SEPOLIA_RPC_URL
func GenerateEnvVarName(networkName string) string {
	name := strings.ToUpper(networkName)
	name = strings.NewReplacer("-", "_", ".", "_").Replace(name)
	return name + "_RPC_URL"
}

// unsetEndpointHint explains an endpoint that expanded to nothing
func unsetEndpointHint(networkName, rawValue string) string {
	if envVar, ok := DetectEnvVar(rawValue); ok {
		return fmt.Sprintf("network '%s' uses ${%s}, which is not set (add it to .env or the environment)", networkName, envVar)
	}
	return fmt.Sprintf("network '%s' has an empty RPC URL (is its env var set?)", networkName)
}

// missingEndpointHint suggests the conventional foundry.toml entry for a network
func missingEndpointHint(networkName string) string {
	return fmt.Sprintf(`add %s = "${%s}" under [rpc_endpoints] or pass --rpc-url`,
		networkName, GenerateEnvVarName(networkName))
}
