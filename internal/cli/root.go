package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-deploy/internal/adapters/progress"
	"github.com/trebuchet-org/treb-deploy/internal/app"
	"github.com/trebuchet-org/treb-deploy/internal/cli/render"
	"github.com/trebuchet-org/treb-deploy/internal/config"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// appInitializer builds the wired application from configuration
type appInitializer func(v *viper.Viper) (*app.App, func(), error)

// flagKeys maps persistent flags to their viper keys
var flagKeys = map[string]string{
	"debug":           "debug",
	"non-interactive": "non_interactive",
	"json":            "json",
	"namespace":       "namespace",
	"network":         "network",
	"contract":        "contract",
	"rpc-url":         "rpc_url",
	"sender":          "sender",
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(app.InitApp)
}

func newRootCmd(initApp appInitializer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treb-deploy",
		Short: "Deploy a compiled contract and print its address",
		Long: `treb-deploy deploys a compiled contract (TimedAuction by default) from the
configured account, waits until the creation transaction is mined and prints
the deployed address. It exits 0 on success and 1 on any failure.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, initApp)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable the progress spinner")
	rootCmd.PersistentFlags().Bool("json", false, "Print the result as JSON")
	rootCmd.PersistentFlags().StringP("namespace", "s", "", "Namespace, selects the foundry profile (defaults to 'default')")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network from foundry.toml [rpc_endpoints] (defaults to 'localhost')")
	rootCmd.PersistentFlags().StringP("contract", "c", "", "Contract to deploy (defaults to 'TimedAuction')")
	rootCmd.PersistentFlags().String("rpc-url", "", "RPC URL, overrides the network's endpoint")
	rootCmd.PersistentFlags().String("sender", "", "Named sender from the namespace profile")

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// Execute runs the command until it finishes or the process is interrupted.
// A failure is rendered once on the command's stderr.
func Execute(ctx context.Context, cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		_ = render.NewErrorRenderer(cmd.ErrOrStderr()).RenderError(err)
	}
	return err
}

func runDeploy(cmd *cobra.Command, initApp appInitializer) error {
	projectRoot, err := config.FindProjectRoot()
	if err != nil {
		// Plain artifact directories work without foundry.toml
		if projectRoot, err = os.Getwd(); err != nil {
			return err
		}
	}

	v := config.SetupViper(projectRoot)
	bindGlobalFlags(v, cmd)

	appInstance, cleanup, err := initApp(v)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer cleanup()

	ctx := cmd.Context()
	result, err := appInstance.DeployContract.Run(ctx, usecase.DeployContractParams{
		ContractName: appInstance.Config.ContractName,
	})
	if err != nil {
		appInstance.Progress.OnProgress(ctx, usecase.ProgressEvent{
			Stage:    domain.StageReportedFailure,
			Message:  "Deployment failed",
			Metadata: err,
		})
		return err
	}

	renderer := render.NewDeploymentRenderer(cmd.OutOrStdout(), appInstance.Config.JSON)
	if err := renderer.RenderResult(result); err != nil {
		return err
	}
	appInstance.Progress.OnProgress(ctx, usecase.ProgressEvent{
		Stage:    domain.StageReportedSuccess,
		Message:  "Deployment reported",
		Metadata: result,
	})

	if reporter, ok := appInstance.Progress.(*progress.DeployProgress); ok {
		appInstance.Log.Debug("deployment finished", "stages", reporter.Summary())
	}
	return nil
}

// bindGlobalFlags copies flags that have been set into viper
func bindGlobalFlags(v *viper.Viper, cmd *cobra.Command) {
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			v.Set(key, f.Value.String())
		}
	})
}
