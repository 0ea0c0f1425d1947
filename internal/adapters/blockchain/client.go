package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/rollout/internal/adapters/contracts"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/config"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

// Backend is the part of ethclient.Client the adapter uses
type Backend interface {
	bind.ContractBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// Dialer opens a backend for an RPC URL
type Dialer func(ctx context.Context, rpcURL string) (Backend, error)

func dialEthclient(ctx context.Context, rpcURL string) (Backend, error) {
	return ethclient.DialContext(ctx, rpcURL)
}

// Connector implements usecase.ChainConnector on top of ethclient
type Connector struct {
	privateKey string
	dial       Dialer
}

// NewConnector creates a connector signing with the configured sender key
func NewConnector(cfg *config.RuntimeConfig) *Connector {
	return &Connector{
		privateKey: cfg.Sender.PrivateKey,
		dial:       dialEthclient,
	}
}

// WithDialer replaces how backends are opened
func (c *Connector) WithDialer(dial Dialer) *Connector {
	c.dial = dial
	return c
}

// Connect dials the network and checks that the node serves the expected chain
func (c *Connector) Connect(ctx context.Context, network *config.Network) (usecase.ChainClient, error) {
	if network.RPCURL == "" {
		return nil, domain.NewInvalidConfig("rpc_url", "network %s has no RPC URL", network.Name)
	}

	var key *ecdsa.PrivateKey
	if c.privateKey != "" {
		parsed, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(c.privateKey), "0x"))
		if err != nil {
			return nil, domain.NewInvalidConfig("private_key", "not a valid secp256k1 key")
		}
		key = parsed
	}

	backend, err := c.dial(ctx, network.RPCURL)
	if err != nil {
		return nil, domain.Remote(network.Name, "", "dial", fmt.Errorf("failed to connect to RPC: %w", err))
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		backend.Close()
		return nil, domain.Remote(network.Name, "", "eth_chainId", err)
	}
	if network.ChainID != 0 && chainID.Uint64() != network.ChainID {
		backend.Close()
		return nil, domain.NewInvalidConfig("chain_id", "network %s expects chain %d, RPC serves %d", network.Name, network.ChainID, chainID.Uint64())
	}

	client := &Client{backend: backend, chainID: chainID, key: key}
	if key != nil {
		client.sender = crypto.PubkeyToAddress(key.PublicKey)
	}
	return client, nil
}

// Client is a ChainClient bound to one network and, optionally, one signing key
type Client struct {
	backend Backend
	chainID *big.Int
	key     *ecdsa.PrivateKey
	sender  common.Address
}

func (c *Client) ChainID() uint64 { return c.chainID.Uint64() }

func (c *Client) Sender() common.Address { return c.sender }

func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return c.backend.BalanceAt(ctx, account, nil)
}

func (c *Client) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return c.backend.CodeAt(ctx, account, nil)
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return c.backend.BlockNumber(ctx)
}

// TransactionReceipt returns domain.ErrNotFound while the transaction is pending
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	receipt, err := c.backend.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, domain.ErrNotFound
	}
	return receipt, err
}

// DeployContract sends code as a creation transaction. code already carries
// the encoded constructor arguments.
func (c *Client) DeployContract(ctx context.Context, code []byte) (common.Address, common.Hash, error) {
	opts, err := c.transactor(ctx)
	if err != nil {
		return common.Address{}, common.Hash{}, err
	}
	address, tx, _, err := bind.DeployContract(opts, abi.ABI{}, code, c.backend)
	if err != nil {
		return common.Address{}, common.Hash{}, err
	}
	return address, tx.Hash(), nil
}

// Token binds the token contract at address
func (c *Client) Token(address common.Address) (usecase.TokenContract, error) {
	var transact contracts.Transactor
	if c.key != nil {
		transact = c.transactor
	}
	return contracts.NewToken(address, c.sender, c.backend, transact), nil
}

func (c *Client) transactor(ctx context.Context) (*bind.TransactOpts, error) {
	if c.key == nil {
		return nil, domain.NewInvalidConfig("private_key", "a signing key is required to send transactions")
	}
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

func (c *Client) Close() { c.backend.Close() }

var (
	_ usecase.ChainConnector = (*Connector)(nil)
	_ usecase.ChainClient    = (*Client)(nil)
)
