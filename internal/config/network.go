package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
)

const (
	// DefaultNetwork is used when no network is configured
	DefaultNetwork = "localhost"

	// DefaultLocalRPCURL is the endpoint of a local anvil or hardhat node
	DefaultLocalRPCURL = "http://127.0.0.1:8545"
)

// NetworkResolver resolves network names to configurations
type NetworkResolver struct {
	foundryConfig *config.FoundryConfig
}

// NewNetworkResolver creates a new network resolver
func NewNetworkResolver(foundryConfig *config.FoundryConfig) *NetworkResolver {
	return &NetworkResolver{foundryConfig: foundryConfig}
}

// Resolve resolves a network name to its configuration. A non-empty rpcURL
// overrides the foundry.toml lookup.
func (r *NetworkResolver) Resolve(networkName, rpcURL string) (*config.Network, error) {
	if networkName == "" {
		networkName = DefaultNetwork
	}

	if rpcURL != "" {
		return &config.Network{Name: networkName, RPCURL: rpcURL}, nil
	}

	if url, exists := r.foundryConfig.RpcEndpoints[networkName]; exists {
		if url == "" {
			return nil, errors.New(unsetEndpointHint(networkName, r.foundryConfig.RawRpcEndpoints[networkName]))
		}
		return &config.Network{Name: networkName, RPCURL: url}, nil
	}

	if networkName == DefaultNetwork {
		return &config.Network{Name: networkName, RPCURL: DefaultLocalRPCURL}, nil
	}

	return nil, fmt.Errorf("network '%s' not found in foundry.toml [rpc_endpoints] (available: %v); %s",
		networkName, r.availableNetworks(), missingEndpointHint(networkName))
}

func (r *NetworkResolver) availableNetworks() []string {
	names := make([]string, 0, len(r.foundryConfig.RpcEndpoints))
	for name := range r.foundryConfig.RpcEndpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
