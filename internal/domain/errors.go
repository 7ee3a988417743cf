package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a pipeline failure. Every kind is fatal.
type ErrorKind string

const (
	KindNoSignerAvailable ErrorKind = "NoSignerAvailable"
	KindArtifactNotFound  ErrorKind = "ArtifactNotFound"
	KindSubmissionError   ErrorKind = "SubmissionError"
	KindDeploymentFailed  ErrorKind = "DeploymentFailed"
	KindConnectionLost    ErrorKind = "ConnectionLost"
)

// Sentinel errors, one per kind, for use with errors.Is
var (
	// ErrNoSignerAvailable is returned when no usable signing account is configured
	ErrNoSignerAvailable = &kindError{KindNoSignerAvailable}

	// ErrArtifactNotFound is returned when no compiled artifact matches the contract name
	ErrArtifactNotFound = &kindError{KindArtifactNotFound}

	// ErrSubmission is returned when the creation transaction could not be broadcast
	ErrSubmission = &kindError{KindSubmissionError}

	// ErrDeploymentFailed is returned when the creation transaction reverted or was dropped
	ErrDeploymentFailed = &kindError{KindDeploymentFailed}

	// ErrConnectionLost is returned when the node connection breaks while waiting
	ErrConnectionLost = &kindError{KindConnectionLost}
)

type kindError struct {
	kind ErrorKind
}

func (e *kindError) Error() string {
	return string(e.kind)
}

// DeploymentError is the single error type produced by the deployment pipeline.
type DeploymentError struct {
	Kind  ErrorKind
	Stage ExecutionStage
	Msg   string
	Err   error
}

// NewDeploymentError creates a DeploymentError of the given kind
func NewDeploymentError(kind ErrorKind, stage ExecutionStage, msg string, err error) *DeploymentError {
	return &DeploymentError{
		Kind:  kind,
		Stage: stage,
		Msg:   msg,
		Err:   err,
	}
}

func (e *DeploymentError) Error() string {
	parts := []string{string(e.Kind)}
	if e.Msg != "" {
		parts = append(parts, e.Msg)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *DeploymentError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels, so errors.Is(err, ErrDeploymentFailed) works
// on any wrapped DeploymentError of that kind.
func (e *DeploymentError) Is(target error) bool {
	var k *kindError
	if errors.As(target, &k) {
		return k.kind == e.Kind
	}
	return false
}

// KindOf returns the kind of the first DeploymentError in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var de *DeploymentError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

// AmbiguousArtifactErr is returned when a bare contract name matches more than one artifact
type AmbiguousArtifactErr struct {
	Name    string
	Matches []string
}

func (e AmbiguousArtifactErr) Error() string {
	suggestions := make([]string, 0, len(e.Matches))
	for _, m := range e.Matches {
		suggestions = append(suggestions, fmt.Sprintf("  - %s", m))
	}
	return fmt.Sprintf("multiple artifacts named %s - use path:contract format to disambiguate:\n%s",
		e.Name, strings.Join(suggestions, "\n"))
}
