// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network_test

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"
	"github.com/vrflottery/lottery/pkg/network"
)

const registryYAML = `
networks:
  default: development
  development:
    keyhash: "0x2ed0feb3e7fd2022120aa84fab1945545a9f2ffc9076fd6156fa96eaff4c1311"
    fee: 100000000000000000
  rinkeby:
    chain_id: 4
    host: https://rinkeby.example
    vrf_coordinator: "0xb3dCcb4Cf7a26f6cf6B120Cf5A73875B7BBc655B"
    eth_usd_price_feed: "0x8A753747A1Fa494EC906cE90E9f37563A8AF630e"
    link_token: "0x01BE23585060835E02B77ef475b0Cc51aA1e0709"
    keyhash: "0x2ed0feb3e7fd2022120aa84fab1945545a9f2ffc9076fd6156fa96eaff4c1311"
    fee: 0.1 link
    verify: True
  mainnet-fork:
    chain_id: 1
    eth_usd_price_feed: "0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419"
wallets:
  from_key: ${LOTTERY_TEST_PRIVATE_KEY}
`

type chainID int64

func (c chainID) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(int64(c)), nil
}

func TestParseRegistry(t *testing.T) {
	t.Setenv("LOTTERY_TEST_PRIVATE_KEY", "0xabc")

	r, err := network.ParseRegistry([]byte(registryYAML))
	if err != nil {
		t.Fatal(err)
	}

	if r.FromKey != "0xabc" {
		t.Fatalf("got from_key %q, want expanded env value", r.FromKey)
	}

	if diff := cmp.Diff([]string{"development", "ganache-local", "mainnet-fork", "rinkeby"}, r.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	dev, err := r.Get(network.Development)
	if err != nil {
		t.Fatal(err)
	}
	if dev.ChainID != 1337 || dev.Host == "" {
		t.Fatalf("development did not keep built-in settings: %+v", dev)
	}

	rinkeby, err := r.Get("rinkeby")
	if err != nil {
		t.Fatal(err)
	}
	if !rinkeby.Verify {
		t.Fatal("expected verify to be set")
	}
	fee, err := rinkeby.FeeAmount()
	if err != nil {
		t.Fatal(err)
	}
	if fee.Cmp(big.NewInt(1e17)) != 0 {
		t.Fatalf("got fee %v, want 1e17", fee)
	}
	addr, err := rinkeby.Address(network.VRFCoordinatorKey)
	if err != nil {
		t.Fatal(err)
	}
	if addr != common.HexToAddress("0xb3dCcb4Cf7a26f6cf6B120Cf5A73875B7BBc655B") {
		t.Fatalf("got vrf coordinator %s", addr)
	}

	fork, err := r.Get("mainnet-fork")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fork.Address(network.LinkTokenKey); !errors.Is(err, network.ErrNoAddress) {
		t.Fatalf("got error %v, want %v", err, network.ErrNoAddress)
	}
	if fork.Local() || !fork.DevAccounts() {
		t.Fatal("mainnet-fork must use dev accounts without mocks")
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	r, err := network.LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	c, err := r.Get(network.Development)
	if err != nil {
		t.Fatal(err)
	}
	if c.KeyHashValue() != common.HexToHash(network.DefaultKeyHash) {
		t.Fatalf("got keyhash %s", c.KeyHashValue())
	}
}

func TestLoadRegistryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.yaml")
	if err := os.WriteFile(path, []byte(registryYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	r, err := network.LoadRegistry(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Get("rinkeby"); err != nil {
		t.Fatal(err)
	}
}

func TestDetect(t *testing.T) {
	r, err := network.ParseRegistry([]byte(registryYAML))
	if err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		name    string
		chainID chainID
		want    string
		err     error
	}{
		{name: "", chainID: 1337, want: network.Development},
		{name: "", chainID: 31337, want: network.Development},
		{name: "", chainID: 4, want: "rinkeby"},
		{name: "", chainID: 1, want: "mainnet-fork"},
		{name: "ganache-local", chainID: 1337, want: network.GanacheLocal},
		{name: "", chainID: 99, err: network.ErrUnknownNetwork},
		{name: "kovan", chainID: 42, err: network.ErrUnknownNetwork},
	} {
		c, err := r.Detect(context.Background(), tc.chainID, tc.name)
		if !errors.Is(err, tc.err) {
			t.Fatalf("%q/%d: got error %v, want %v", tc.name, tc.chainID, err, tc.err)
		}
		if c.Name != tc.want {
			t.Fatalf("%q/%d: got network %q, want %q", tc.name, tc.chainID, c.Name, tc.want)
		}
	}
}

func TestEnvironments(t *testing.T) {
	for _, n := range []string{"development", "ganache-local"} {
		if !network.IsLocal(n) {
			t.Errorf("%s should be local", n)
		}
	}
	for _, n := range []string{"mainnet-fork", "mainnet-fork-dev"} {
		if !network.IsForked(n) || network.IsLocal(n) {
			t.Errorf("%s should be forked only", n)
		}
	}
	if network.IsLocal("rinkeby") || network.IsForked("rinkeby") {
		t.Error("rinkeby is a live network")
	}
}
