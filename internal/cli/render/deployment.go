package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
)

// DeploymentRenderer writes the outcome of a successful deployment
type DeploymentRenderer struct {
	out    io.Writer
	asJSON bool
}

// NewDeploymentRenderer creates a new deployment renderer
func NewDeploymentRenderer(out io.Writer, asJSON bool) *DeploymentRenderer {
	return &DeploymentRenderer{
		out:    out,
		asJSON: asJSON,
	}
}

// RenderResult writes exactly one line describing the deployed contract
func (r *DeploymentRenderer) RenderResult(result *domain.DeploymentResult) error {
	if result == nil {
		return fmt.Errorf("no deployment result to render")
	}

	if r.asJSON {
		// Encode terminates the object with a newline
		return json.NewEncoder(r.out).Encode(result)
	}

	_, err := fmt.Fprintf(r.out, "%s deployed to: %s (deployer: %s, tx: %s, block: %d)\n",
		result.ContractName,
		result.DeployedAddress.Hex(),
		result.Deployer.Hex(),
		result.TxHash.Hex(),
		result.BlockNumber,
	)
	return err
}

// ErrorRenderer writes failures to stderr
type ErrorRenderer struct {
	out io.Writer
}

// NewErrorRenderer creates a new error renderer
func NewErrorRenderer(out io.Writer) *ErrorRenderer {
	return &ErrorRenderer{out: out}
}

// RenderError writes the error with its kind and cause
func (r *ErrorRenderer) RenderError(err error) error {
	_, werr := color.New(color.FgRed).Fprintf(r.out, "Error: %v\n", err)
	return werr
}
