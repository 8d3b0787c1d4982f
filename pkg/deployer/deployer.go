// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package deployer deploys the lottery and resolves the contracts it
// depends on, deploying mocks on local networks.
package deployer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vrflottery/lottery/pkg/contracts"
	"github.com/vrflottery/lottery/pkg/linktoken"
	"github.com/vrflottery/lottery/pkg/logging"
	"github.com/vrflottery/lottery/pkg/lottery"
	"github.com/vrflottery/lottery/pkg/network"
	"github.com/vrflottery/lottery/pkg/pricefeed"
	"github.com/vrflottery/lottery/pkg/storage"
	"github.com/vrflottery/lottery/pkg/transaction"
	"github.com/vrflottery/lottery/pkg/vrf"
)

const (
	// LotteryKey names the lottery among the stored deployments.
	LotteryKey = "lottery"

	// MockDecimals and the starting price configure the mock price feed.
	MockDecimals = uint8(8)

	deploymentKeyPrefix = "deployment_"
)

var (
	// MockStartingPrice is 2000 USD with 8 decimals.
	MockStartingPrice = new(big.Int).Mul(big.NewInt(2000), big.NewInt(1e8))

	ErrUnknownContract = errors.New("unknown contract")
	ErrNotDeployed     = errors.New("contract not deployed")

	// mocks maps a network contract key to the mock deployed in its place.
	mocks = map[string]string{
		network.PriceFeedKey:      contracts.MockV3AggregatorName,
		network.VRFCoordinatorKey: contracts.VRFCoordinatorMockName,
		network.LinkTokenKey:      contracts.LinkTokenName,
	}
)

// Backend is the chain access the deployer needs besides sending.
type Backend interface {
	lottery.BalanceReader
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// Deployer deploys from the sender of its transaction service and keeps the
// deployed addresses per chain in the state store.
type Deployer struct {
	logger    logging.Logger
	network   network.Config
	chainID   *big.Int
	txService transaction.Service
	backend   Backend
	artifacts contracts.ArtifactSource
	store     storage.StateStorer

	mocksMu sync.Mutex
}

func New(
	logger logging.Logger,
	net network.Config,
	chainID *big.Int,
	txService transaction.Service,
	backend Backend,
	artifacts contracts.ArtifactSource,
	store storage.StateStorer,
) *Deployer {
	return &Deployer{
		logger:    logger,
		network:   net,
		chainID:   chainID,
		txService: txService,
		backend:   backend,
		artifacts: artifacts,
		store:     store,
	}
}

// Network returns the network the deployer operates on.
func (d *Deployer) Network() network.Config {
	return d.network
}

// Contract returns the address of the dependency named key, one of
// eth_usd_price_feed, vrf_coordinator and link_token. On local networks the
// mocks are deployed the first time any of them is needed; elsewhere the
// address comes from the network configuration.
func (d *Deployer) Contract(ctx context.Context, key string) (common.Address, error) {
	if _, ok := mocks[key]; !ok {
		return common.Address{}, fmt.Errorf("%q: %w", key, ErrUnknownContract)
	}
	if !d.network.Local() {
		return d.network.Address(key)
	}

	d.mocksMu.Lock()
	defer d.mocksMu.Unlock()

	addr, err := d.Address(ctx, key)
	if err == nil {
		return addr, nil
	}
	if !errors.Is(err, ErrNotDeployed) {
		return common.Address{}, err
	}
	if err := d.deployMocks(ctx); err != nil {
		return common.Address{}, err
	}
	return d.Address(ctx, key)
}

// DeployMocks deploys a fresh price feed, LINK token and VRF coordinator.
func (d *Deployer) DeployMocks(ctx context.Context) error {
	d.mocksMu.Lock()
	defer d.mocksMu.Unlock()
	return d.deployMocks(ctx)
}

func (d *Deployer) deployMocks(ctx context.Context) error {
	d.logger.Infof("The active network is %s", d.network.Name)
	d.logger.Info("Deploying Mocks...")

	priceFeed, err := d.deploy(ctx, contracts.MockV3AggregatorName, MockDecimals, MockStartingPrice)
	if err != nil {
		return err
	}
	if err := d.put(network.PriceFeedKey, priceFeed); err != nil {
		return err
	}

	link, err := d.deploy(ctx, contracts.LinkTokenName)
	if err != nil {
		return err
	}
	if err := d.put(network.LinkTokenKey, link); err != nil {
		return err
	}

	coordinator, err := d.deploy(ctx, contracts.VRFCoordinatorMockName, link)
	if err != nil {
		return err
	}
	if err := d.put(network.VRFCoordinatorKey, coordinator); err != nil {
		return err
	}

	d.logger.Info("Deployed!")
	return nil
}

// DeployLottery deploys a new lottery wired to the price feed, coordinator
// and LINK token of the network and returns it bound to the deploying
// account.
func (d *Deployer) DeployLottery(ctx context.Context) (lottery.Service, error) {
	priceFeed, err := d.Contract(ctx, network.PriceFeedKey)
	if err != nil {
		return nil, err
	}
	coordinator, err := d.Contract(ctx, network.VRFCoordinatorKey)
	if err != nil {
		return nil, err
	}
	link, err := d.Contract(ctx, network.LinkTokenKey)
	if err != nil {
		return nil, err
	}
	fee, err := d.network.FeeAmount()
	if err != nil {
		return nil, err
	}

	addr, err := d.deploy(ctx, contracts.LotteryName, priceFeed, coordinator, link, fee, [32]byte(d.network.KeyHashValue()))
	if err != nil {
		return nil, err
	}
	if err := d.put(LotteryKey, addr); err != nil {
		return nil, err
	}
	if d.network.Verify {
		d.logger.Warningf("source verification requested on %s but not supported, skipping", d.network.Name)
	}
	d.logger.Info("Deployed lottery!")
	return d.bind(addr), nil
}

// Lottery returns the most recently deployed lottery.
func (d *Deployer) Lottery(ctx context.Context) (lottery.Service, error) {
	addr, err := d.Address(ctx, LotteryKey)
	if err != nil {
		return nil, err
	}
	return d.bind(addr), nil
}

// LotteryFor binds the deployed lottery to another sending account.
func (d *Deployer) LotteryFor(ctx context.Context, txService transaction.Service) (lottery.Service, error) {
	addr, err := d.Address(ctx, LotteryKey)
	if err != nil {
		return nil, err
	}
	return lottery.New(d.logger, txService, d.backend, addr), nil
}

func (d *Deployer) LinkToken(ctx context.Context) (linktoken.Service, error) {
	addr, err := d.Contract(ctx, network.LinkTokenKey)
	if err != nil {
		return nil, err
	}
	return linktoken.New(d.logger, d.txService, addr), nil
}

// Coordinator returns the VRF coordinator bound to txService, the deploying
// account if nil.
func (d *Deployer) Coordinator(ctx context.Context, txService transaction.Service) (vrf.Coordinator, error) {
	addr, err := d.Contract(ctx, network.VRFCoordinatorKey)
	if err != nil {
		return nil, err
	}
	if txService == nil {
		txService = d.txService
	}
	return vrf.New(d.logger, txService, addr), nil
}

func (d *Deployer) PriceFeed(ctx context.Context) (pricefeed.Service, error) {
	addr, err := d.Contract(ctx, network.PriceFeedKey)
	if err != nil {
		return nil, err
	}
	return pricefeed.New(d.txService, addr), nil
}

// Address returns the stored address of key if code still exists there.
func (d *Deployer) Address(ctx context.Context, key string) (common.Address, error) {
	var addr common.Address
	if err := d.store.Get(d.key(key), &addr); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return common.Address{}, fmt.Errorf("%s: %w", key, ErrNotDeployed)
		}
		return common.Address{}, err
	}
	code, err := d.backend.CodeAt(ctx, addr, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("code at %s: %w", addr.Hex(), err)
	}
	if len(code) == 0 {
		d.logger.Debugf("deployer: no code at stored %s address %s", key, addr.Hex())
		return common.Address{}, fmt.Errorf("%s: %w", key, ErrNotDeployed)
	}
	return addr, nil
}

// Deployments lists the stored addresses of the current chain.
func (d *Deployer) Deployments() (map[string]common.Address, error) {
	prefix := d.key("")
	deployments := make(map[string]common.Address)
	err := d.store.Iterate(prefix, func(key, value []byte) (bool, error) {
		var addr common.Address
		if err := json.Unmarshal(value, &addr); err != nil {
			return true, fmt.Errorf("deployment %s: %w", key, err)
		}
		deployments[strings.TrimPrefix(string(key), prefix)] = addr
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return deployments, nil
}

func (d *Deployer) deploy(ctx context.Context, name string, args ...interface{}) (common.Address, error) {
	artifact, err := d.artifacts.Artifact(name)
	if err != nil {
		return common.Address{}, err
	}
	addr, _, err := contracts.Deploy(ctx, d.txService, artifact, args...)
	if err != nil {
		return common.Address{}, err
	}
	d.logger.Debugf("deployer: %s deployed at %s", name, addr.Hex())
	return addr, nil
}

func (d *Deployer) bind(addr common.Address) lottery.Service {
	return lottery.New(d.logger, d.txService, d.backend, addr)
}

func (d *Deployer) put(key string, addr common.Address) error {
	return d.store.Put(d.key(key), addr)
}

func (d *Deployer) key(name string) string {
	return fmt.Sprintf("%s%s_%s", deploymentKeyPrefix, d.chainID, name)
}
