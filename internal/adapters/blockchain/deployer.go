package blockchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// DroppedAfter is the number of consecutive polls on which neither a receipt
// nor the transaction itself is known before the transaction counts as dropped.
const DroppedAfter = 3

// Deployer submits creation transactions and waits for their confirmation
type Deployer struct {
	backend        Backend
	chainID        uint64
	gasLimit       uint64
	pollInterval   time.Duration
	confirmTimeout time.Duration
	log            *slog.Logger
}

// NewDeployer creates a new deployer on top of a node backend
func NewDeployer(backend Backend, cfg *config.RuntimeConfig, log *slog.Logger) *Deployer {
	d := &Deployer{
		backend:        backend,
		gasLimit:       cfg.GasLimit,
		pollInterval:   cfg.PollInterval,
		confirmTimeout: cfg.ConfirmTimeout,
		log:            log,
	}
	if cfg.Network != nil {
		d.chainID = cfg.Network.ChainID
	}
	if d.pollInterval <= 0 {
		d.pollInterval = time.Second
	}
	return d
}

// Submit signs and broadcasts the creation transaction for the factory
func (d *Deployer) Submit(ctx context.Context, factory *domain.ContractFactory) (*domain.PendingDeployment, error) {
	if factory.Signer == nil || factory.Signer.Transactor == nil {
		return nil, submissionError("factory has no signer", nil)
	}

	chainID, err := d.backend.ChainID(ctx)
	if err != nil {
		return nil, submissionError("failed to get chain ID", err)
	}
	if d.chainID != 0 && chainID.Uint64() != d.chainID {
		return nil, submissionError(fmt.Sprintf("chain ID mismatch: expected %d, got %d", d.chainID, chainID.Uint64()), nil)
	}

	opts, err := factory.Signer.Transactor.TransactOpts(chainID)
	if err != nil {
		return nil, submissionError("failed to create transactor", err)
	}
	opts.Context = ctx
	if d.gasLimit > 0 {
		opts.GasLimit = d.gasLimit
	}

	address, tx, _, err := bind.DeployContract(opts, factory.ABI, factory.Bytecode, d.backend)
	if err != nil {
		return nil, submissionError(fmt.Sprintf("failed to deploy %s", factory.ContractName), err)
	}

	d.log.Debug("submitted creation transaction",
		"contract", factory.ContractName,
		"tx", tx.Hash().Hex(),
		"nonce", tx.Nonce(),
		"gas", tx.Gas(),
		"chainId", chainID.Uint64(),
	)

	return &domain.PendingDeployment{
		ContractName: factory.ContractName,
		Deployer:     opts.From,
		Address:      address,
		Transaction:  tx,
	}, nil
}

// WaitConfirmed polls for the receipt of the creation transaction. Without a
// confirm timeout it waits for as long as the network takes.
func (d *Deployer) WaitConfirmed(ctx context.Context, pending *domain.PendingDeployment) (*domain.DeploymentResult, error) {
	if d.confirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.confirmTimeout)
		defer cancel()
	}

	hash := pending.TxHash()
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	misses := 0
	for {
		receipt, err := d.backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			return d.checkReceipt(ctx, pending, receipt)
		case ctx.Err() != nil:
			return nil, connectionLost(ctx.Err())
		case isIndexing(err):
			// Mined, but the node has not indexed it yet
			misses = 0
			d.log.Debug("transaction index not ready", "tx", hash.Hex())
		case errors.Is(err, ethereum.NotFound):
			if misses, err = d.lookupTransaction(ctx, pending, misses); err != nil {
				return nil, err
			}
		default:
			return nil, connectionLost(err)
		}

		select {
		case <-ctx.Done():
			return nil, connectionLost(ctx.Err())
		case <-ticker.C:
		}
	}
}

// lookupTransaction checks whether the node still knows a transaction that
// has no receipt yet. It returns the updated count of consecutive misses.
func (d *Deployer) lookupTransaction(ctx context.Context, pending *domain.PendingDeployment, misses int) (int, error) {
	hash := pending.TxHash()

	_, isPending, err := d.backend.TransactionByHash(ctx, hash)
	switch {
	case err == nil:
		d.log.Debug("waiting for receipt", "tx", hash.Hex(), "pending", isPending)
		return 0, nil
	case ctx.Err() != nil:
		return misses, connectionLost(ctx.Err())
	case isIndexing(err):
		d.log.Debug("transaction index not ready", "tx", hash.Hex())
		return 0, nil
	case errors.Is(err, ethereum.NotFound):
		misses++
		d.log.Debug("transaction unknown to node", "tx", hash.Hex(), "misses", misses)
		if misses >= DroppedAfter {
			return misses, deploymentFailed(
				fmt.Sprintf("transaction %s was dropped by the network", hash.Hex()), nil)
		}
		return misses, nil
	default:
		return misses, connectionLost(err)
	}
}

// txIndexingMessage is returned by geth while a freshly mined transaction is
// not yet in its lookup index.
const txIndexingMessage = "transaction indexing is in progress"

func isIndexing(err error) bool {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data, ok := dataErr.ErrorData().(string); ok && data == txIndexingMessage {
			return true
		}
	}
	return strings.Contains(err.Error(), txIndexingMessage)
}

// checkReceipt turns a mined receipt into a result, or a failure when the
// creation reverted or left no code behind.
func (d *Deployer) checkReceipt(ctx context.Context, pending *domain.PendingDeployment, receipt *types.Receipt) (*domain.DeploymentResult, error) {
	hash := pending.TxHash()

	if receipt.Status == types.ReceiptStatusFailed {
		msg := fmt.Sprintf("transaction %s reverted in block %s", hash.Hex(), receipt.BlockNumber)
		if reason := d.revertReason(ctx, pending, receipt); reason != "" {
			msg = fmt.Sprintf("%s: %s", msg, reason)
		}
		return nil, deploymentFailed(msg, nil)
	}

	address := pending.Address
	if receipt.ContractAddress != (common.Address{}) && receipt.ContractAddress != address {
		d.log.Warn("receipt contract address differs from derived address",
			"derived", address.Hex(), "receipt", receipt.ContractAddress.Hex())
		address = receipt.ContractAddress
	}

	code, err := d.backend.CodeAt(ctx, address, receipt.BlockNumber)
	if err != nil {
		return nil, connectionLost(err)
	}
	if len(code) == 0 {
		return nil, deploymentFailed(fmt.Sprintf("no code at %s after transaction %s", address.Hex(), hash.Hex()), nil)
	}

	return &domain.DeploymentResult{
		ContractName:    pending.ContractName,
		Deployer:        pending.Deployer,
		DeployedAddress: address,
		TxHash:          hash,
		BlockNumber:     receipt.BlockNumber.Uint64(),
		GasUsed:         receipt.GasUsed,
		Confirmed:       true,
	}, nil
}

// revertReason replays the creation at the receipt's block and decodes the
// revert data, if the node returns any.
func (d *Deployer) revertReason(ctx context.Context, pending *domain.PendingDeployment, receipt *types.Receipt) string {
	tx := pending.Transaction
	call := ethereum.CallMsg{
		From:  pending.Deployer,
		To:    tx.To(),
		Data:  tx.Data(),
		Value: tx.Value(),
		Gas:   tx.Gas(),
	}

	_, err := d.backend.CallContract(ctx, call, receipt.BlockNumber)
	if err == nil {
		return ""
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if raw, ok := dataErr.ErrorData().(string); ok {
			if data, decodeErr := hexutil.Decode(raw); decodeErr == nil {
				if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
					return reason
				}
			}
		}
	}
	return err.Error()
}

func submissionError(msg string, err error) error {
	return domain.NewDeploymentError(domain.KindSubmissionError, domain.StageFactoryResolved, msg, err)
}

func deploymentFailed(msg string, err error) error {
	return domain.NewDeploymentError(domain.KindDeploymentFailed, domain.StageSubmitted, msg, err)
}

func connectionLost(err error) error {
	return domain.NewDeploymentError(domain.KindConnectionLost, domain.StageSubmitted,
		"lost connection to the node while waiting for confirmation", err)
}

// Ensure the adapter implements both interfaces
var (
	_ usecase.ContractDeployer   = (*Deployer)(nil)
	_ usecase.ConfirmationWaiter = (*Deployer)(nil)
)

