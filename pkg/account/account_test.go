// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package account_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/vrflottery/lottery/pkg/account"
	"github.com/vrflottery/lottery/pkg/crypto"
	"github.com/vrflottery/lottery/pkg/network"
)

var devAddresses = []common.Address{
	common.HexToAddress("0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1"),
	common.HexToAddress("0xFFcf8FDEE72ac11b5c542428B35EEF5769C409f0"),
	common.HexToAddress("0x22d491Bde2303f2f43325b2108D26f1eAbA1e32b"),
}

const liveKey = "6cbed15c793ce57650b9877cf6fa156fbef513c4e6134f022a85b1ffdd59b2a1"

func address(t *testing.T, s crypto.Signer) common.Address {
	t.Helper()
	a, err := s.EthereumAddress()
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestDevAccounts(t *testing.T) {
	for _, name := range []string{network.Development, "mainnet-fork"} {
		p := account.NewProvider(network.Config{Name: name}, account.Options{})
		for i, want := range devAddresses {
			s, err := p.Get(i)
			if err != nil {
				t.Fatal(err)
			}
			if got := address(t, s); got != want {
				t.Fatalf("%s account %d: got %s, want %s", name, i, got, want)
			}
		}
		s, err := p.Default()
		if err != nil {
			t.Fatal(err)
		}
		if got := address(t, s); got != devAddresses[0] {
			t.Fatalf("%s default account: got %s, want %s", name, got, devAddresses[0])
		}
	}
}

func TestDevAccountsInvalid(t *testing.T) {
	p := account.NewProvider(network.Config{Name: network.Development}, account.Options{})
	if _, err := p.Get(-1); !errors.Is(err, account.ErrInvalidIndex) {
		t.Fatalf("got error %v, want %v", err, account.ErrInvalidIndex)
	}

	p = account.NewProvider(network.Config{Name: network.Development}, account.Options{Mnemonic: "not a mnemonic"})
	if _, err := p.Get(0); !errors.Is(err, account.ErrInvalidMnemonic) {
		t.Fatalf("got error %v, want %v", err, account.ErrInvalidMnemonic)
	}
}

func TestLiveNetwork(t *testing.T) {
	p := account.NewProvider(network.Config{Name: "rinkeby"}, account.Options{FromKey: "0x" + liveKey})

	if _, err := p.Get(0); !errors.Is(err, account.ErrNoDevAccounts) {
		t.Fatalf("got error %v, want %v", err, account.ErrNoDevAccounts)
	}

	s, err := p.Default()
	if err != nil {
		t.Fatal(err)
	}
	if got := address(t, s); got != devAddresses[1] {
		t.Fatalf("got %s, want %s", got, devAddresses[1])
	}

	p = account.NewProvider(network.Config{Name: "rinkeby"}, account.Options{})
	if _, err := p.Default(); !errors.Is(err, account.ErrNoPrivateKey) {
		t.Fatalf("got error %v, want %v", err, account.ErrNoPrivateKey)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	key, err := crypto.DecodeHexPrivateKey(liveKey)
	if err != nil {
		t.Fatal(err)
	}
	data, err := keystore.EncryptKey(&keystore.Key{
		Address:    devAddresses[1],
		PrivateKey: key,
	}, "secret", keystore.LightScryptN, keystore.LightScryptP)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "deployer.json"), data, 0o600); err != nil {
		t.Fatal(err)
	}

	p := account.NewProvider(network.Config{Name: "rinkeby"}, account.Options{KeystoreDir: dir})

	s, err := p.Load("deployer", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if got := address(t, s); got != devAddresses[1] {
		t.Fatalf("got %s, want %s", got, devAddresses[1])
	}

	if _, err := p.Load("deployer", "wrong"); err == nil {
		t.Fatal("expected decryption error")
	}
	if _, err := p.Load("nobody", "secret"); !errors.Is(err, account.ErrKeyNotFound) {
		t.Fatalf("got error %v, want %v", err, account.ErrKeyNotFound)
	}
}

func TestPrivateKeyFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("PRIVATE_KEY=0x"+liveKey+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := account.PrivateKeyFromEnvFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "0x"+liveKey {
		t.Fatalf("got %q", got)
	}

	t.Setenv(account.PrivateKeyEnv, "from-env")
	got, err = account.PrivateKeyFromEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "from-env" {
		t.Fatalf("got %q, want value from environment", got)
	}
}
