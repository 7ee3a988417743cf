package signer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// EnvSenderName names the sender built from the ambient TREB_PRIVATE_KEY setting
const EnvSenderName = "env"

// errUnusable marks a configured sender that cannot sign here and is skipped
var errUnusable = errors.New("sender not usable")

// Provider resolves the deploying account from configuration
type Provider struct {
	cfg *config.RuntimeConfig
	log *slog.Logger
}

// NewProvider creates a new signer provider
func NewProvider(cfg *config.RuntimeConfig, log *slog.Logger) *Provider {
	return &Provider{cfg: cfg, log: log}
}

type candidate struct {
	name   string
	sender config.SenderConfig
}

// Signer returns the first usable account
func (p *Provider) Signer(ctx context.Context) (*domain.Signer, error) {
	candidates := p.candidates()

	if p.cfg.Sender != "" {
		candidates = lo.Filter(candidates, func(c candidate, _ int) bool {
			return c.name == p.cfg.Sender
		})
		if len(candidates) == 0 {
			return nil, noSigner(fmt.Sprintf("sender '%s' is not configured for namespace '%s'",
				p.cfg.Sender, p.cfg.Namespace), nil)
		}
	}

	for _, c := range candidates {
		signer, err := load(c)
		if errors.Is(err, errUnusable) {
			p.log.Debug("skipping sender", "sender", c.name, "type", c.sender.Type, "reason", err)
			continue
		}
		if err != nil {
			return nil, noSigner(fmt.Sprintf("sender '%s' could not be loaded", c.name), err)
		}
		return signer, nil
	}

	return nil, noSigner(fmt.Sprintf(
		"no usable account configured (set TREB_PRIVATE_KEY or add a private_key/keystore sender under [profile.%s.treb.senders])",
		p.cfg.Namespace), nil)
}

// candidates lists the ambient key first, then namespace senders by name
func (p *Provider) candidates() []candidate {
	var candidates []candidate
	if p.cfg.PrivateKey != "" {
		candidates = append(candidates, candidate{
			name: EnvSenderName,
			sender: config.SenderConfig{
				Type:       config.SenderTypePrivateKey,
				PrivateKey: p.cfg.PrivateKey,
			},
		})
	}

	if p.cfg.TrebConfig == nil {
		return candidates
	}

	names := lo.Keys(p.cfg.TrebConfig.Senders)
	slices.Sort(names)
	for _, name := range names {
		candidates = append(candidates, candidate{name: name, sender: p.cfg.TrebConfig.Senders[name]})
	}
	return candidates
}

func load(c candidate) (*domain.Signer, error) {
	var (
		key *ecdsa.PrivateKey
		err error
	)

	switch c.sender.Type {
	case config.SenderTypePrivateKey:
		key, err = parsePrivateKey(c.sender.PrivateKey)
	case config.SenderTypeKeystore:
		key, err = decryptKeystore(c.sender)
	default:
		return nil, fmt.Errorf("%w: type '%s' cannot sign a creation transaction", errUnusable, c.sender.Type)
	}
	if err != nil {
		return nil, err
	}

	address := crypto.PubkeyToAddress(key.PublicKey)
	if c.sender.Address != "" {
		if !common.IsHexAddress(c.sender.Address) {
			return nil, fmt.Errorf("invalid address %q", c.sender.Address)
		}
		if expected := common.HexToAddress(c.sender.Address); expected != address {
			return nil, fmt.Errorf("configured address %s does not match key address %s", expected.Hex(), address.Hex())
		}
	}

	return &domain.Signer{
		Name:       c.name,
		Address:    address,
		Transactor: &keyTransactor{key: key},
	}, nil
}

func parsePrivateKey(raw string) (*ecdsa.PrivateKey, error) {
	hexKey := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if hexKey == "" {
		return nil, fmt.Errorf("%w: private key is empty", errUnusable)
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

func decryptKeystore(sender config.SenderConfig) (*ecdsa.PrivateKey, error) {
	if sender.Keystore == "" {
		return nil, fmt.Errorf("%w: keystore path is empty", errUnusable)
	}

	data, err := os.ReadFile(filepath.Clean(sender.Keystore))
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore: %w", err)
	}

	password := sender.Password
	if sender.PasswordEnv != "" {
		password = os.Getenv(sender.PasswordEnv)
	}

	key, err := keystore.DecryptKey(data, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt keystore: %w", err)
	}
	return key.PrivateKey, nil
}

func noSigner(msg string, err error) error {
	return domain.NewDeploymentError(domain.KindNoSignerAvailable, domain.StageStart, msg, err)
}

// keyTransactor signs with an in-memory private key
type keyTransactor struct {
	key *ecdsa.PrivateKey
}

func (t *keyTransactor) TransactOpts(chainID *big.Int) (*bind.TransactOpts, error) {
	return bind.NewKeyedTransactorWithChainID(t.key, chainID)
}

// Ensure the provider implements the interface
var _ usecase.SignerProvider = (*Provider)(nil)
