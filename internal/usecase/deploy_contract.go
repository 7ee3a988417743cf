package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
)

// DeployContractParams contains parameters for deploying a contract
type DeployContractParams struct {
	ContractName string
}

// DeployContract is the use case that runs the deployment pipeline:
// signer, factory, submission, confirmation. The first failure ends the run.
type DeployContract struct {
	signers   SignerProvider
	artifacts ArtifactRepository
	deployer  ContractDeployer
	waiter    ConfirmationWaiter
	sink      ProgressSink
	log       *slog.Logger
}

// NewDeployContract creates a new DeployContract use case
func NewDeployContract(
	signers SignerProvider,
	artifacts ArtifactRepository,
	deployer ContractDeployer,
	waiter ConfirmationWaiter,
	sink ProgressSink,
	log *slog.Logger,
) *DeployContract {
	return &DeployContract{
		signers:   signers,
		artifacts: artifacts,
		deployer:  deployer,
		waiter:    waiter,
		sink:      sink,
		log:       log,
	}
}

// Run executes the deployment pipeline
func (uc *DeployContract) Run(ctx context.Context, params DeployContractParams) (*domain.DeploymentResult, error) {
	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   domain.StageStart,
		Message: "Resolving deployer account",
		Spinner: true,
	})

	signer, err := uc.signers.Signer(ctx)
	if err != nil {
		return nil, classify(err, domain.KindNoSignerAvailable, domain.StageStart, "failed to resolve signer")
	}
	if signer == nil {
		return nil, domain.NewDeploymentError(domain.KindNoSignerAvailable, domain.StageStart, "no account configured", nil)
	}

	request := domain.DeploymentRequest{
		ContractName: strings.TrimSpace(params.ContractName),
		Deployer:     signer,
	}
	uc.log.Debug("signer resolved", "sender", signer.Name, "address", signer.Address.Hex())
	uc.sink.Info(fmt.Sprintf("Deploying %s contract with account: %s", request.ContractName, signer.Address.Hex()))
	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:    domain.StageSignerResolved,
		Message:  "Loading artifact",
		Spinner:  true,
		Metadata: signer.Address,
	})

	factory, err := uc.resolveFactory(ctx, request)
	if err != nil {
		return nil, err
	}
	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   domain.StageFactoryResolved,
		Message: "Submitting creation transaction",
		Spinner: true,
	})

	pending, err := uc.deployer.Submit(ctx, factory)
	if err != nil {
		return nil, classify(err, domain.KindSubmissionError, domain.StageFactoryResolved, "failed to submit deployment")
	}
	uc.log.Debug("creation transaction broadcast",
		"tx", pending.TxHash().Hex(), "address", pending.Address.Hex(), "nonce", pending.Transaction.Nonce())
	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:    domain.StageSubmitted,
		Message:  fmt.Sprintf("Waiting for confirmation of %s", pending.TxHash().Hex()),
		Spinner:  true,
		Metadata: pending.TxHash(),
	})

	result, err := uc.waiter.WaitConfirmed(ctx, pending)
	if err != nil {
		return nil, classify(err, domain.KindDeploymentFailed, domain.StageSubmitted, "deployment was not confirmed")
	}
	if result == nil || !result.Confirmed {
		return nil, domain.NewDeploymentError(domain.KindDeploymentFailed, domain.StageSubmitted,
			fmt.Sprintf("transaction %s was not confirmed", pending.TxHash().Hex()), nil)
	}

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:    domain.StageConfirmed,
		Message:  "Deployment confirmed",
		Metadata: result.DeployedAddress,
	})

	return result, nil
}

// resolveFactory loads the artifact and binds it to the deployer
func (uc *DeployContract) resolveFactory(ctx context.Context, request domain.DeploymentRequest) (*domain.ContractFactory, error) {
	if request.ContractName == "" {
		return nil, domain.NewDeploymentError(domain.KindArtifactNotFound, domain.StageSignerResolved,
			"contract name must not be empty", nil)
	}

	artifact, err := uc.artifacts.GetArtifact(ctx, request.ContractName)
	if err != nil {
		return nil, classify(err, domain.KindArtifactNotFound, domain.StageSignerResolved,
			fmt.Sprintf("failed to load artifact for %s", request.ContractName))
	}

	factory, err := NewContractFactory(request.ContractName, artifact, request.Deployer)
	if err != nil {
		return nil, domain.NewDeploymentError(domain.KindArtifactNotFound, domain.StageSignerResolved,
			fmt.Sprintf("artifact for %s is not deployable", request.ContractName), err)
	}
	return factory, nil
}

// NewContractFactory binds a compiled artifact to a signer. The contract is
// deployed without constructor arguments.
func NewContractFactory(name string, artifact *models.Artifact, signer *domain.Signer) (*domain.ContractFactory, error) {
	if artifact == nil {
		return nil, errors.New("artifact is nil")
	}
	if artifact.Bytecode.IsEmpty() {
		return nil, errors.New("artifact has no creation bytecode (interface or abstract contract?)")
	}
	if !artifact.Bytecode.IsLinked() {
		return nil, errors.New("bytecode has unlinked library references")
	}

	bytecode, err := artifact.Bytecode.Bytes()
	if err != nil {
		return nil, err
	}

	parsed, err := abi.JSON(bytes.NewReader(abiOrEmpty(artifact.ABI)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}
	if n := len(parsed.Constructor.Inputs); n > 0 {
		return nil, fmt.Errorf("constructor expects %d argument(s), none are supported", n)
	}

	return &domain.ContractFactory{
		ContractName: name,
		ABI:          parsed,
		Bytecode:     bytecode,
		Signer:       signer,
	}, nil
}

func abiOrEmpty(raw []byte) []byte {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return []byte("[]")
	}
	return raw
}

// classify keeps a DeploymentError produced by an adapter and wraps anything
// else in the stage's default kind.
func classify(err error, kind domain.ErrorKind, stage domain.ExecutionStage, msg string) error {
	var de *domain.DeploymentError
	if errors.As(err, &de) {
		return err
	}
	return domain.NewDeploymentError(kind, stage, msg, err)
}
