package usecase

import (
	"context"

	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
)

// SignerProvider resolves the account that deploys the contract
type SignerProvider interface {
	Signer(ctx context.Context) (*domain.Signer, error)
}

// ArtifactRepository provides access to compiled contract artifacts
type ArtifactRepository interface {
	GetArtifact(ctx context.Context, contractName string) (*models.Artifact, error)
}

// ContractDeployer broadcasts contract creation transactions
type ContractDeployer interface {
	Submit(ctx context.Context, factory *domain.ContractFactory) (*domain.PendingDeployment, error)
}

// ConfirmationWaiter blocks until a creation transaction is confirmed
type ConfirmationWaiter interface {
	WaitConfirmed(ctx context.Context, pending *domain.PendingDeployment) (*domain.DeploymentResult, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    domain.ExecutionStage
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
