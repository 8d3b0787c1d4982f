// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package crypto

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var ErrInvalidPrivateKey = errors.New("invalid private key")

// GenerateSecp256k1Key generates an ECDSA private key using
// secp256k1 elliptic curve.
func GenerateSecp256k1Key() (*ecdsa.PrivateKey, error) {
	return gethcrypto.GenerateKey()
}

// EncodeSecp256k1PrivateKey encodes raw ECDSA private key.
func EncodeSecp256k1PrivateKey(k *ecdsa.PrivateKey) []byte {
	return gethcrypto.FromECDSA(k)
}

// DecodeSecp256k1PrivateKey decodes raw ECDSA private key.
func DecodeSecp256k1PrivateKey(data []byte) (*ecdsa.PrivateKey, error) {
	if l := len(data); l != 32 {
		return nil, fmt.Errorf("%w: secp256k1 data size %d", ErrInvalidPrivateKey, l)
	}
	return gethcrypto.ToECDSA(data)
}

// DecodeHexPrivateKey decodes a hex encoded private key, with or without
// the 0x prefix.
func DecodeHexPrivateKey(s string) (*ecdsa.PrivateKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidPrivateKey)
	}
	return DecodeSecp256k1PrivateKey(common.FromHex(s))
}

// NewEthereumAddress returns a binary representation of ethereum blockchain address.
func NewEthereumAddress(p ecdsa.PublicKey) common.Address {
	return gethcrypto.PubkeyToAddress(p)
}
