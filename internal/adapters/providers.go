package adapters

import (
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/wire"
	"github.com/trebuchet-org/treb-deploy/internal/adapters/artifacts"
	"github.com/trebuchet-org/treb-deploy/internal/adapters/blockchain"
	"github.com/trebuchet-org/treb-deploy/internal/adapters/progress"
	"github.com/trebuchet-org/treb-deploy/internal/adapters/signer"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// SignerSet provides the deploying account
var SignerSet = wire.NewSet(
	signer.NewProvider,
	wire.Bind(new(usecase.SignerProvider), new(*signer.Provider)),
)

// ArtifactSet provides compiled contract artifacts
var ArtifactSet = wire.NewSet(
	artifacts.NewRepository,
	wire.Bind(new(usecase.ArtifactRepository), new(*artifacts.Repository)),
)

// BlockchainSet provides the node connection, submitter and confirmation waiter
var BlockchainSet = wire.NewSet(
	blockchain.NewClient,
	wire.Bind(new(blockchain.Backend), new(*ethclient.Client)),

	blockchain.NewDeployer,
	wire.Bind(new(usecase.ContractDeployer), new(*blockchain.Deployer)),
	wire.Bind(new(usecase.ConfirmationWaiter), new(*blockchain.Deployer)),
)

// ProgressSet provides progress reporting on stderr
var ProgressSet = wire.NewSet(
	progress.NewProgressSink,
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	SignerSet,
	ArtifactSet,
	BlockchainSet,
	ProgressSet,
)
