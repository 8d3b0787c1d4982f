// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package network resolves the chain the harness talks to and the contract
// addresses configured for it.
package network

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vrflottery/lottery/pkg/units"
	"gopkg.in/yaml.v2"
)

const (
	Development  = "development"
	GanacheLocal = "ganache-local"

	// Keys of the externally deployed contracts in the network settings.
	PriceFeedKey      = "eth_usd_price_feed"
	VRFCoordinatorKey = "vrf_coordinator"
	LinkTokenKey      = "link_token"

	// DefaultKeyHash is the VRF key hash used on local networks.
	DefaultKeyHash = "0x2ed0feb3e7fd2022120aa84fab1945545a9f2ffc9076fd6156fa96eaff4c1311"
	// DefaultFee is the oracle fee, 0.1 LINK.
	DefaultFee = "100000000000000000"
)

var (
	// LocalEnvironments are networks where mocks are deployed on demand and
	// dev accounts are unlocked.
	LocalEnvironments = []string{Development, GanacheLocal}
	// ForkedEnvironments are local forks of mainnet. They use dev accounts
	// but real contract addresses.
	ForkedEnvironments = []string{"mainnet-fork", "mainnet-fork-dev"}

	ErrUnknownNetwork = errors.New("unknown network")
	ErrNoAddress      = errors.New("no contract address configured")
	ErrInvalidAddress = errors.New("invalid contract address")
)

// IsLocal reports whether name is a local development network.
func IsLocal(name string) bool {
	return contains(LocalEnvironments, name)
}

// IsForked reports whether name is a mainnet fork.
func IsForked(name string) bool {
	return contains(ForkedEnvironments, name)
}

func contains(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}

// Config holds the settings of a single network.
type Config struct {
	Name            string `yaml:"-"`
	ChainID         int64  `yaml:"chain_id"`
	Host            string `yaml:"host"`
	EthUsdPriceFeed string `yaml:"eth_usd_price_feed"`
	VRFCoordinator  string `yaml:"vrf_coordinator"`
	LinkToken       string `yaml:"link_token"`
	KeyHash         string `yaml:"keyhash"`
	Fee             string `yaml:"fee"`
	Verify          bool   `yaml:"verify"`
}

// Local reports whether mocks should be deployed for this network.
func (c Config) Local() bool {
	return IsLocal(c.Name)
}

// DevAccounts reports whether deterministic dev accounts are available.
func (c Config) DevAccounts() bool {
	return IsLocal(c.Name) || IsForked(c.Name)
}

// Address returns the configured address of the contract under key.
func (c Config) Address(key string) (common.Address, error) {
	var v string
	switch key {
	case PriceFeedKey:
		v = c.EthUsdPriceFeed
	case VRFCoordinatorKey:
		v = c.VRFCoordinator
	case LinkTokenKey:
		v = c.LinkToken
	default:
		return common.Address{}, fmt.Errorf("%s: %w", key, ErrNoAddress)
	}
	if v == "" {
		return common.Address{}, fmt.Errorf("%s on %s: %w", key, c.Name, ErrNoAddress)
	}
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("%s on %s: %w: %q", key, c.Name, ErrInvalidAddress, v)
	}
	return common.HexToAddress(v), nil
}

// FeeAmount returns the oracle fee in the smallest LINK unit.
func (c Config) FeeAmount() (*big.Int, error) {
	fee := c.Fee
	if fee == "" {
		fee = DefaultFee
	}
	amount, err := units.ParseAmount(fee)
	if err != nil {
		return nil, fmt.Errorf("fee of %s: %w", c.Name, err)
	}
	return amount, nil
}

// KeyHashValue returns the VRF key hash.
func (c Config) KeyHashValue() common.Hash {
	if c.KeyHash == "" {
		return common.HexToHash(DefaultKeyHash)
	}
	return common.HexToHash(c.KeyHash)
}

// Registry is the set of known networks.
type Registry struct {
	networks map[string]Config
	// Default is used when no network is selected and the chain id is not
	// recognised.
	Default string
	// FromKey is the private key of the deploying account on live networks.
	FromKey string
}

type registryFile struct {
	Networks struct {
		Default  string            `yaml:"default"`
		Networks map[string]Config `yaml:",inline"`
	} `yaml:"networks"`
	Wallets struct {
		FromKey string `yaml:"from_key"`
	} `yaml:"wallets"`
}

// NewRegistry returns a registry with the built-in local networks.
func NewRegistry() *Registry {
	r := &Registry{
		networks: make(map[string]Config),
		Default:  Development,
	}
	r.Add(Config{
		Name:    Development,
		ChainID: 1337,
		Host:    "http://127.0.0.1:8545",
		KeyHash: DefaultKeyHash,
		Fee:     DefaultFee,
	})
	r.Add(Config{
		Name:    GanacheLocal,
		ChainID: 1337,
		Host:    "http://127.0.0.1:7545",
		KeyHash: DefaultKeyHash,
		Fee:     DefaultFee,
	})
	return r
}

// ParseRegistry reads the networks and wallets sections of a YAML config on
// top of the built-in networks. Environment variables in from_key are
// expanded.
func ParseRegistry(data []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse networks: %w", err)
	}
	r := NewRegistry()
	for name, c := range f.Networks.Networks {
		c.Name = name
		if base, ok := r.networks[name]; ok {
			c = merge(base, c)
		}
		r.Add(c)
	}
	if f.Networks.Default != "" {
		r.Default = f.Networks.Default
	}
	r.FromKey = os.ExpandEnv(f.Wallets.FromKey)
	return r, nil
}

// LoadRegistry reads a registry file. A missing file yields the built-in
// networks.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewRegistry(), nil
		}
		return nil, err
	}
	return ParseRegistry(data)
}

func merge(base, c Config) Config {
	if c.ChainID == 0 {
		c.ChainID = base.ChainID
	}
	if c.Host == "" {
		c.Host = base.Host
	}
	if c.KeyHash == "" {
		c.KeyHash = base.KeyHash
	}
	if c.Fee == "" {
		c.Fee = base.Fee
	}
	return c
}

// Add registers or replaces a network.
func (r *Registry) Add(c Config) {
	r.networks[c.Name] = c
}

// Get returns the network called name.
func (r *Registry) Get(name string) (Config, error) {
	c, ok := r.networks[name]
	if !ok {
		return Config{}, fmt.Errorf("%q: %w", name, ErrUnknownNetwork)
	}
	return c, nil
}

// Names returns the sorted names of all registered networks.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.networks))
	for n := range r.networks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ChainIDReader is satisfied by ethclient and the transaction backend.
type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// Detect resolves the active network. An explicit name wins. Otherwise the
// chain id of the connected node selects the network: the default network if
// it matches, else the first network by name with that chain id. Hardhat and
// ganache chain ids map to development.
func (r *Registry) Detect(ctx context.Context, backend ChainIDReader, name string) (Config, error) {
	if name = strings.TrimSpace(name); name != "" {
		return r.Get(name)
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return Config{}, fmt.Errorf("chain id: %w", err)
	}

	if c, ok := r.networks[r.Default]; ok && c.ChainID == chainID.Int64() {
		return c, nil
	}
	for _, n := range r.Names() {
		if c := r.networks[n]; c.ChainID == chainID.Int64() {
			return c, nil
		}
	}
	switch chainID.Int64() {
	case 1337, 31337:
		return r.Get(Development)
	}
	return Config{}, fmt.Errorf("chain id %s: %w", chainID, ErrUnknownNetwork)
}
