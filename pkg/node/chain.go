// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package node

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/hashicorp/go-multierror"
	"github.com/vrflottery/lottery/pkg/account"
	"github.com/vrflottery/lottery/pkg/contracts"
	"github.com/vrflottery/lottery/pkg/crypto"
	"github.com/vrflottery/lottery/pkg/deployer"
	"github.com/vrflottery/lottery/pkg/logging"
	"github.com/vrflottery/lottery/pkg/network"
	"github.com/vrflottery/lottery/pkg/storage"
	"github.com/vrflottery/lottery/pkg/transaction"
)

const (
	maxDelay          = 1 * time.Minute
	cancellationDepth = 6
)

// ErrNoBuildDir is returned when contracts are needed but no build directory
// is configured.
var ErrNoBuildDir = errors.New("no contract build directory configured")

// Options configure the connection to a chain.
type Options struct {
	// Endpoint is the json-rpc endpoint. The network host is used if empty.
	Endpoint string
	// Network selects the network by name. Detected from the chain id if
	// empty.
	Network  string
	Registry *network.Registry
	// DataDir keeps the state store. In-memory if empty.
	DataDir string
	// BuildDir holds the compiled contract artifacts.
	BuildDir string
	// BlockTime is the polling interval of the transaction monitors.
	BlockTime time.Duration
	Accounts  account.Options
}

// Chain is a connection to a network with one transaction service per
// sending account.
type Chain struct {
	logger   logging.Logger
	backend  transaction.Backend
	client   *ethclient.Client
	chainID  *big.Int
	network  network.Config
	store    storage.StateStorer
	accounts *account.Provider
	opts     Options

	mu       sync.Mutex
	services map[common.Address]transaction.Service
	monitors []transaction.Monitor
}

// InitChain will initialize the Ethereum backend at the configured endpoint,
// resolve the active network and open the state store.
func InitChain(ctx context.Context, logger logging.Logger, o Options) (*Chain, error) {
	if o.Registry == nil {
		o.Registry = network.NewRegistry()
	}
	endpoint := o.Endpoint
	if endpoint == "" {
		n, err := o.Registry.Get(o.Registry.Default)
		if o.Network != "" {
			n, err = o.Registry.Get(o.Network)
		}
		if err != nil {
			return nil, err
		}
		endpoint = n.Host
	}

	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial eth client: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		logger.Infof("could not connect to backend at %v. A running development node or a json-rpc endpoint of the target network is required.", endpoint)
		client.Close()
		return nil, fmt.Errorf("get chain id: %w", err)
	}

	net, err := o.Registry.Detect(ctx, client, o.Network)
	if err != nil {
		client.Close()
		return nil, err
	}
	logger.Infof("connected to %s (chain id %s)", net.Name, chainID)

	if !net.Local() {
		isSynced, err := transaction.IsSynced(ctx, client, maxDelay)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("is synced: %w", err)
		}
		if !isSynced {
			logger.Infof("waiting to sync with the Ethereum backend")
			if err := transaction.WaitSynced(ctx, client, maxDelay); err != nil {
				client.Close()
				return nil, fmt.Errorf("waiting backend sync: %w", err)
			}
		}
	}

	store, err := InitStateStore(logger, o.DataDir)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("state store: %w", err)
	}

	accountOpts := o.Accounts
	if accountOpts.FromKey == "" {
		accountOpts.FromKey = o.Registry.FromKey
	}

	if o.BlockTime == 0 {
		o.BlockTime = time.Second
	}

	return &Chain{
		logger:   logger,
		backend:  client,
		client:   client,
		chainID:  chainID,
		network:  net,
		store:    store,
		accounts: account.NewProvider(net, accountOpts),
		opts:     o,
		services: make(map[common.Address]transaction.Service),
	}, nil
}

func (c *Chain) Backend() transaction.Backend {
	return c.backend
}

func (c *Chain) ChainID() *big.Int {
	return c.chainID
}

func (c *Chain) Network() network.Config {
	return c.network
}

func (c *Chain) StateStore() storage.StateStorer {
	return c.store
}

func (c *Chain) Accounts() *account.Provider {
	return c.accounts
}

// Transactor returns the transaction service of signer, creating its
// monitor on first use.
func (c *Chain) Transactor(signer crypto.Signer) (transaction.Service, error) {
	address, err := signer.EthereumAddress()
	if err != nil {
		return nil, fmt.Errorf("eth address: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.services[address]; ok {
		return s, nil
	}

	monitor := transaction.NewMonitor(c.logger, c.backend, address, c.opts.BlockTime, cancellationDepth)
	s, err := transaction.NewService(c.logger, c.backend, signer, c.store, c.chainID, monitor)
	if err != nil {
		_ = monitor.Close()
		return nil, fmt.Errorf("new transaction service: %w", err)
	}
	c.services[address] = s
	c.monitors = append(c.monitors, monitor)
	return s, nil
}

// Account returns the transaction service of the dev account at index.
func (c *Chain) Account(index int) (transaction.Service, error) {
	signer, err := c.accounts.Get(index)
	if err != nil {
		return nil, err
	}
	return c.Transactor(signer)
}

// DefaultAccount returns the transaction service of the deploying account.
func (c *Chain) DefaultAccount() (transaction.Service, error) {
	signer, err := c.accounts.Default()
	if err != nil {
		return nil, err
	}
	return c.Transactor(signer)
}

// Deployer returns a deployer sending from the default account.
func (c *Chain) Deployer() (*deployer.Deployer, error) {
	ts, err := c.DefaultAccount()
	if err != nil {
		return nil, err
	}
	return c.DeployerFor(ts)
}

// DeployerFor returns a deployer sending from txService.
func (c *Chain) DeployerFor(txService transaction.Service) (*deployer.Deployer, error) {
	if c.opts.BuildDir == "" {
		return nil, ErrNoBuildDir
	}
	return deployer.New(c.logger, c.network, c.chainID, txService, c.backend, contracts.NewDirSource(c.opts.BuildDir), c.store), nil
}

// Close stops all transaction services and monitors and closes the state
// store and the client.
func (c *Chain) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs *multierror.Error
	for addr, s := range c.services {
		if err := s.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("transaction service %s: %w", addr.Hex(), err))
		}
	}
	for _, m := range c.monitors {
		if err := m.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("monitor: %w", err))
		}
	}
	if err := c.store.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("state store: %w", err))
	}
	c.client.Close()
	c.services = make(map[common.Address]transaction.Service)
	c.monitors = nil
	return errs.ErrorOrNil()
}
