package signer

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
)

// Default anvil accounts 0 and 1
const (
	anvilKey0 = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	anvilKey1 = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
)

var (
	anvilAddr0 = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	anvilAddr1 = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

func newTestProvider(cfg *config.RuntimeConfig) *Provider {
	if cfg.Namespace == "" {
		cfg.Namespace = "default"
	}
	return NewProvider(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func senders(s map[string]config.SenderConfig) *config.TrebConfig {
	return &config.TrebConfig{Senders: s}
}

func TestProviderSigner(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		cfg          *config.RuntimeConfig
		expectedName string
		expectedAddr common.Address
		expectedErr  string
	}{
		{
			name:         "ambient private key",
			cfg:          &config.RuntimeConfig{PrivateKey: anvilKey0},
			expectedName: EnvSenderName,
			expectedAddr: anvilAddr0,
		},
		{
			name: "ambient key wins over senders",
			cfg: &config.RuntimeConfig{
				PrivateKey: anvilKey1,
				TrebConfig: senders(map[string]config.SenderConfig{
					"deployer": {Type: config.SenderTypePrivateKey, PrivateKey: anvilKey0},
				}),
			},
			expectedName: EnvSenderName,
			expectedAddr: anvilAddr1,
		},
		{
			name: "senders are tried in name order",
			cfg: &config.RuntimeConfig{
				TrebConfig: senders(map[string]config.SenderConfig{
					"zeta":  {Type: config.SenderTypePrivateKey, PrivateKey: anvilKey1},
					"alpha": {Type: config.SenderTypePrivateKey, PrivateKey: anvilKey0},
				}),
			},
			expectedName: "alpha",
			expectedAddr: anvilAddr0,
		},
		{
			name: "unusable senders are skipped",
			cfg: &config.RuntimeConfig{
				TrebConfig: senders(map[string]config.SenderConfig{
					"a-ledger": {Type: config.SenderTypeLedger},
					"b-empty":  {Type: config.SenderTypePrivateKey, PrivateKey: ""},
					"c-safe":   {Type: config.SenderTypeSafe},
					"d-key":    {Type: config.SenderTypePrivateKey, PrivateKey: anvilKey1},
				}),
			},
			expectedName: "d-key",
			expectedAddr: anvilAddr1,
		},
		{
			name: "named sender",
			cfg: &config.RuntimeConfig{
				Sender: "second",
				TrebConfig: senders(map[string]config.SenderConfig{
					"first":  {Type: config.SenderTypePrivateKey, PrivateKey: anvilKey0},
					"second": {Type: config.SenderTypePrivateKey, PrivateKey: anvilKey1},
				}),
			},
			expectedName: "second",
			expectedAddr: anvilAddr1,
		},
		{
			name: "matching address check",
			cfg: &config.RuntimeConfig{
				TrebConfig: senders(map[string]config.SenderConfig{
					"deployer": {Type: config.SenderTypePrivateKey, PrivateKey: anvilKey0, Address: anvilAddr0.Hex()},
				}),
			},
			expectedName: "deployer",
			expectedAddr: anvilAddr0,
		},
		{
			name:        "nothing configured",
			cfg:         &config.RuntimeConfig{},
			expectedErr: "no usable account configured",
		},
		{
			name: "only unusable senders",
			cfg: &config.RuntimeConfig{
				TrebConfig: senders(map[string]config.SenderConfig{
					"ledger": {Type: config.SenderTypeLedger},
				}),
			},
			expectedErr: "no usable account configured",
		},
		{
			name: "unknown named sender",
			cfg: &config.RuntimeConfig{
				Sender:     "missing",
				PrivateKey: anvilKey0,
			},
			expectedErr: "sender 'missing' is not configured",
		},
		{
			name: "malformed key",
			cfg: &config.RuntimeConfig{
				TrebConfig: senders(map[string]config.SenderConfig{
					"deployer": {Type: config.SenderTypePrivateKey, PrivateKey: "0x1234"},
				}),
			},
			expectedErr: "invalid private key",
		},
		{
			name: "address mismatch",
			cfg: &config.RuntimeConfig{
				TrebConfig: senders(map[string]config.SenderConfig{
					"deployer": {Type: config.SenderTypePrivateKey, PrivateKey: anvilKey0, Address: anvilAddr1.Hex()},
				}),
			},
			expectedErr: "does not match key address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer, err := newTestProvider(tt.cfg).Signer(ctx)

			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.Nil(t, signer)
				assert.ErrorIs(t, err, domain.ErrNoSignerAvailable)
				assert.Contains(t, err.Error(), tt.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedName, signer.Name)
			assert.Equal(t, tt.expectedAddr, signer.Address)
			require.NotNil(t, signer.Transactor)
		})
	}
}

func TestKeystoreSender(t *testing.T) {
	dir := t.TempDir()
	key, err := crypto.HexToECDSA(anvilKey1)
	require.NoError(t, err)

	ks := keystore.NewKeyStore(dir, keystore.LightScryptN, keystore.LightScryptP)
	account, err := ks.ImportECDSA(key, "hunter2")
	require.NoError(t, err)

	t.Run("password from env", func(t *testing.T) {
		t.Setenv("TREB_TEST_KEYSTORE_PASSWORD", "hunter2")
		cfg := &config.RuntimeConfig{
			TrebConfig: senders(map[string]config.SenderConfig{
				"deployer": {
					Type:        config.SenderTypeKeystore,
					Keystore:    account.URL.Path,
					PasswordEnv: "TREB_TEST_KEYSTORE_PASSWORD",
				},
			}),
		}

		signer, err := newTestProvider(cfg).Signer(context.Background())
		require.NoError(t, err)
		assert.Equal(t, anvilAddr1, signer.Address)
	})

	t.Run("wrong password", func(t *testing.T) {
		cfg := &config.RuntimeConfig{
			TrebConfig: senders(map[string]config.SenderConfig{
				"deployer": {Type: config.SenderTypeKeystore, Keystore: account.URL.Path, Password: "wrong"},
			}),
		}

		_, err := newTestProvider(cfg).Signer(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNoSignerAvailable)
		assert.ErrorIs(t, err, keystore.ErrDecrypt)
	})

	t.Run("empty keystore path is skipped", func(t *testing.T) {
		cfg := &config.RuntimeConfig{
			TrebConfig: senders(map[string]config.SenderConfig{
				"deployer": {Type: config.SenderTypeKeystore},
			}),
		}

		_, err := newTestProvider(cfg).Signer(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no usable account configured")
	})
}

func TestKeyTransactor(t *testing.T) {
	signer, err := newTestProvider(&config.RuntimeConfig{PrivateKey: anvilKey0}).Signer(context.Background())
	require.NoError(t, err)

	opts, err := signer.Transactor.TransactOpts(big.NewInt(31337))
	require.NoError(t, err)
	assert.Equal(t, anvilAddr0, opts.From)
	require.NotNil(t, opts.Signer)
}
