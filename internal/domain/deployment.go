package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ExecutionStage represents a state of the deployment pipeline
type ExecutionStage string

const (
	StageStart           ExecutionStage = "Start"
	StageSignerResolved  ExecutionStage = "SignerResolved"
	StageFactoryResolved ExecutionStage = "FactoryResolved"
	StageSubmitted       ExecutionStage = "Submitted"
	StageConfirmed       ExecutionStage = "Confirmed"
	StageReportedSuccess ExecutionStage = "Reported-Success"
	StageReportedFailure ExecutionStage = "Reported-Failure"
)

// Transactor produces transaction options able to sign for a given chain
type Transactor interface {
	TransactOpts(chainID *big.Int) (*bind.TransactOpts, error)
}

// Signer is an account that pays gas for and signs the creation transaction
type Signer struct {
	Name       string         `json:"name"`
	Address    common.Address `json:"address"`
	Transactor Transactor     `json:"-"`
}

// DeploymentRequest is created once the signer is known and never changes afterwards
type DeploymentRequest struct {
	ContractName string
	Deployer     *Signer
}

// ContractFactory is a compiled artifact bound to the signer that will deploy it
type ContractFactory struct {
	ContractName string
	ABI          abi.ABI
	Bytecode     []byte
	Signer       *Signer
}

// PendingDeployment is a broadcast creation transaction that is not yet confirmed
type PendingDeployment struct {
	ContractName string
	Deployer     common.Address
	Address      common.Address
	Transaction  *types.Transaction
}

// TxHash returns the hash of the creation transaction
func (p *PendingDeployment) TxHash() common.Hash {
	return p.Transaction.Hash()
}

// DeploymentResult describes a confirmed deployment
type DeploymentResult struct {
	ContractName    string         `json:"contract"`
	Deployer        common.Address `json:"deployer"`
	DeployedAddress common.Address `json:"address"`
	TxHash          common.Hash    `json:"txHash"`
	BlockNumber     uint64         `json:"blockNumber"`
	GasUsed         uint64         `json:"gasUsed"`
	Confirmed       bool           `json:"confirmed"`
}
