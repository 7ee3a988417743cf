package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-deploy/internal/adapters/artifacts"
	"github.com/trebuchet-org/treb-deploy/internal/adapters/blockchain"
	"github.com/trebuchet-org/treb-deploy/internal/adapters/progress"
	"github.com/trebuchet-org/treb-deploy/internal/adapters/signer"
	"github.com/trebuchet-org/treb-deploy/internal/app"
	"github.com/trebuchet-org/treb-deploy/internal/config"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

const timedAuctionArtifact = `{
  "abi": [],
  "bytecode": {"object": "0x6001600c60003960016000f300"},
  "deployedBytecode": {"object": "0x00"},
  "metadata": {"settings": {"compilationTarget": {"src/TimedAuction.sol": "TimedAuction"}}}
}`

// Init code that reverts with empty data
const reverterArtifact = `{
  "abi": [],
  "bytecode": {"object": "0x60006000fd"},
  "metadata": {"settings": {"compilationTarget": {"src/Reverter.sol": "Reverter"}}}
}`

type testProject struct {
	deployer common.Address
	backend  *simulated.Backend
}

// setupProject creates a Foundry project with a compiled TimedAuction and a
// reverting contract, a funded deployer key in the environment and a
// simulated chain.
func setupProject(t *testing.T) *testProject {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "foundry.toml"), []byte("[profile.default]\nout = \"out\"\n"), 0644))
	for name, artifact := range map[string]string{
		"TimedAuction": timedAuctionArtifact,
		"Reverter":     reverterArtifact,
	} {
		artifactDir := filepath.Join(dir, "out", name+".sol")
		require.NoError(t, os.MkdirAll(artifactDir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(artifactDir, name+".json"), []byte(artifact), 0644))
	}
	t.Chdir(dir)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	deployer := crypto.PubkeyToAddress(key.PublicKey)
	t.Setenv("TREB_PRIVATE_KEY", hexutil.Encode(crypto.FromECDSA(key)))
	t.Setenv("TREB_POLL_INTERVAL", "10ms")

	backend := simulated.NewBackend(types.GenesisAlloc{
		deployer: {Balance: new(big.Int).Mul(big.NewInt(1e18), big.NewInt(10))},
	}, simulated.WithBlockGasLimit(50_000_000))
	t.Cleanup(func() { _ = backend.Close() })

	ctx := t.Context()
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				backend.Commit()
			case <-ctx.Done():
				return
			}
		}
	}()

	return &testProject{deployer: deployer, backend: backend}
}

// initializer wires the real adapters against the simulated chain
func (p *testProject) initializer(v *viper.Viper) (*app.App, func(), error) {
	cfg, err := config.Provider(v)
	if err != nil {
		return nil, nil, err
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sink := progress.NewDeployProgress(io.Discard, false)
	deployer := blockchain.NewDeployer(p.backend.Client(), cfg, log)
	deploy := usecase.NewDeployContract(
		signer.NewProvider(cfg, log),
		artifacts.NewRepository(cfg, log),
		deployer,
		deployer,
		sink,
		log,
	)
	return app.NewApp(cfg, log, sink, deploy), func() {}, nil
}

func run(t *testing.T, initApp appInitializer, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd(initApp)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err = Execute(context.Background(), cmd)
	return out.String(), errOut.String(), err
}

func TestDeployTimedAuction(t *testing.T) {
	project := setupProject(t)

	stdout, stderr, err := run(t, project.initializer, "--non-interactive")
	require.NoError(t, err, stderr)
	assert.Equal(t, 0, ExitCode(err))
	assert.Empty(t, stderr)

	lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
	require.Len(t, lines, 1)
	expectedAddress := crypto.CreateAddress(project.deployer, 0)
	assert.True(t, strings.HasPrefix(lines[0], "TimedAuction deployed to: "+expectedAddress.Hex()), lines[0])
	assert.Contains(t, lines[0], "deployer: "+project.deployer.Hex())

	code, err := project.backend.Client().CodeAt(context.Background(), expectedAddress, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, code)
}

func TestDeployTwiceYieldsDistinctAddresses(t *testing.T) {
	project := setupProject(t)

	first, _, err := run(t, project.initializer, "--non-interactive", "--json")
	require.NoError(t, err)
	second, _, err := run(t, project.initializer, "--non-interactive", "--json")
	require.NoError(t, err)

	var a, b domain.DeploymentResult
	require.NoError(t, json.Unmarshal([]byte(first), &a))
	require.NoError(t, json.Unmarshal([]byte(second), &b))
	assert.True(t, a.Confirmed)
	assert.True(t, b.Confirmed)
	assert.NotEqual(t, a.DeployedAddress, b.DeployedAddress)
	assert.Equal(t, project.deployer, a.Deployer)
}

func TestDeployFailures(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		env         map[string]string
		expectedErr string
	}{
		{
			name:        "missing artifact",
			args:        []string{"--contract", "Missing"},
			expectedErr: "Error: ArtifactNotFound: no artifact for contract Missing",
		},
		{
			name:        "no signer",
			env:         map[string]string{"TREB_PRIVATE_KEY": ""},
			expectedErr: "Error: NoSignerAvailable",
		},
		{
			name:        "unknown sender",
			args:        []string{"--sender", "ops"},
			expectedErr: "Error: NoSignerAvailable: sender 'ops' is not configured",
		},
		{
			name:        "chain mismatch",
			env:         map[string]string{"TREB_CHAIN_ID": "1"},
			expectedErr: "Error: SubmissionError: chain ID mismatch",
		},
		{
			name:        "reverted deployment",
			args:        []string{"--contract", "Reverter"},
			env:         map[string]string{"TREB_GAS_LIMIT": "100000"},
			expectedErr: "Error: DeploymentFailed: transaction",
		},
		{
			name:        "unknown network",
			args:        []string{"--network", "sepolia"},
			expectedErr: "network 'sepolia' not found",
		},
		{
			name:        "positional arguments",
			args:        []string{"TimedAuction"},
			expectedErr: "Error: unknown command",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project := setupProject(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			stdout, stderr, err := run(t, project.initializer, append([]string{"--non-interactive"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, 1, ExitCode(err))
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, tt.expectedErr)
			assert.Equal(t, 1, countErrorLines(stderr), stderr)
		})
	}
}

func countErrorLines(stderr string) int {
	count := 0
	for _, line := range strings.Split(stderr, "\n") {
		if strings.HasPrefix(line, "Error: ") {
			count++
		}
	}
	return count
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := run(t, nil, "version")
	require.NoError(t, err)
	assert.Equal(t, "treb-deploy version dev\n", stdout)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(assert.AnError))
	assert.Equal(t, 1, ExitCode(domain.NewDeploymentError(domain.KindConnectionLost, domain.StageSubmitted, "", context.Canceled)))
}
