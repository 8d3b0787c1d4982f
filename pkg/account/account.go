// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package account selects the signing account for the active network.
package account

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/joho/godotenv"
	"github.com/vrflottery/lottery/pkg/crypto"
	"github.com/vrflottery/lottery/pkg/network"
)

// DevMnemonic is the deterministic mnemonic ganache and hardhat use for
// their unlocked accounts.
const DevMnemonic = "myth like bonus scare over problem client lizard pioneer submit female collect"

// PrivateKeyEnv is the variable holding the deployer key on live networks.
const PrivateKeyEnv = "PRIVATE_KEY"

var (
	ErrNoDevAccounts   = errors.New("dev accounts are only available on local and forked networks")
	ErrNoPrivateKey    = errors.New("no private key configured")
	ErrInvalidIndex    = errors.New("invalid account index")
	ErrKeyNotFound     = errors.New("keystore file not found")
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
)

// Options configure where keys come from.
type Options struct {
	// Mnemonic seeds the dev accounts. DevMnemonic is used if empty.
	Mnemonic string
	// FromKey is the hex private key used on live networks.
	FromKey string
	// KeystoreDir holds go-ethereum keystore files for Load.
	KeystoreDir string
}

// Provider hands out signers for the configured network.
type Provider struct {
	network network.Config
	opts    Options
}

func NewProvider(n network.Config, opts Options) *Provider {
	if opts.Mnemonic == "" {
		opts.Mnemonic = DevMnemonic
	}
	return &Provider{network: n, opts: opts}
}

// Default returns the first dev account on local and forked networks and
// the from_key account elsewhere.
func (p *Provider) Default() (crypto.Signer, error) {
	if p.network.DevAccounts() {
		return p.Get(0)
	}
	return p.FromKey()
}

// Get returns the dev account at index.
func (p *Provider) Get(index int) (crypto.Signer, error) {
	if !p.network.DevAccounts() {
		return nil, fmt.Errorf("%s: %w", p.network.Name, ErrNoDevAccounts)
	}
	if index < 0 || uint32(index) >= hdkeychain.HardenedKeyStart {
		return nil, fmt.Errorf("%d: %w", index, ErrInvalidIndex)
	}
	key, err := DeriveKey(p.opts.Mnemonic, uint32(index))
	if err != nil {
		return nil, err
	}
	return crypto.NewDefaultSigner(key), nil
}

// FromKey returns the account of the configured private key.
func (p *Provider) FromKey() (crypto.Signer, error) {
	if strings.TrimSpace(p.opts.FromKey) == "" {
		return nil, ErrNoPrivateKey
	}
	key, err := crypto.DecodeHexPrivateKey(p.opts.FromKey)
	if err != nil {
		return nil, fmt.Errorf("from_key: %w", err)
	}
	return crypto.NewDefaultSigner(key), nil
}

// Load decrypts the keystore file named id. The id may be a file name in the
// keystore directory, with or without the .json suffix, or a path.
func (p *Provider) Load(id, password string) (crypto.Signer, error) {
	candidates := []string{id}
	if p.opts.KeystoreDir != "" {
		candidates = append(candidates,
			filepath.Join(p.opts.KeystoreDir, id),
			filepath.Join(p.opts.KeystoreDir, id+".json"),
		)
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		key, err := keystore.DecryptKey(data, password)
		if err != nil {
			return nil, fmt.Errorf("decrypt %s: %w", id, err)
		}
		return crypto.NewDefaultSigner(key.PrivateKey), nil
	}
	return nil, fmt.Errorf("%s: %w", id, ErrKeyNotFound)
}

// PrivateKeyFromEnvFile reads PRIVATE_KEY from a dotenv file, falling back
// to the process environment when the file does not exist.
func PrivateKeyFromEnvFile(path string) (string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return os.Getenv(PrivateKeyEnv), nil
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if v, ok := env[PrivateKeyEnv]; ok {
		return v, nil
	}
	return os.Getenv(PrivateKeyEnv), nil
}
