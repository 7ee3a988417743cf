package blockchain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
)

// Backend is the node API used to deploy and confirm a contract
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend

	TransactionByHash(ctx context.Context, hash common.Hash) (tx *types.Transaction, isPending bool, err error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// NewClient dials the configured network. The returned cleanup closes the connection.
func NewClient(cfg *config.RuntimeConfig, log *slog.Logger) (*ethclient.Client, func(), error) {
	if cfg.Network == nil || cfg.Network.RPCURL == "" {
		return nil, nil, fmt.Errorf("no RPC URL configured for network")
	}

	client, err := ethclient.Dial(cfg.Network.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RPC %s: %w", cfg.Network.RPCURL, err)
	}
	log.Debug("connected to network", "network", cfg.Network.Name, "rpc", cfg.Network.RPCURL)

	return client, client.Close, nil
}

var _ Backend = (*ethclient.Client)(nil)
