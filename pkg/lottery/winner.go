// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lottery

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	ErrNoPlayers          = errors.New("no players")
	ErrRandomnessOverflow = errors.New("randomness does not fit 256 bits")
)

// ExpectedWinner returns the index of the player the contract pays for the
// given randomness, randomness % players with uint256 arithmetic.
func ExpectedWinner(randomness *big.Int, players uint64) (uint64, error) {
	if players == 0 {
		return 0, ErrNoPlayers
	}
	if randomness.Sign() < 0 {
		return 0, ErrRandomnessOverflow
	}
	r, overflow := uint256.FromBig(randomness)
	if overflow {
		return 0, ErrRandomnessOverflow
	}
	return new(uint256.Int).Mod(r, uint256.NewInt(players)).Uint64(), nil
}
