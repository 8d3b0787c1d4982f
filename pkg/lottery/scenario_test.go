// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lottery_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/vrflottery/lottery/pkg/deployer"
	"github.com/vrflottery/lottery/pkg/lottery"
	"github.com/vrflottery/lottery/pkg/network"
	"github.com/vrflottery/lottery/pkg/simulation"
	"github.com/vrflottery/lottery/pkg/statestore/mock"
	"github.com/vrflottery/lottery/pkg/transaction"
	"github.com/vrflottery/lottery/pkg/units"
)

// staticRNG is the randomness the mock oracle delivers in the winner test.
var staticRNG = big.NewInt(777)

var devAccounts = []common.Address{
	common.HexToAddress("0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1"),
	common.HexToAddress("0xFFcf8FDEE72ac11b5c542428B35EEF5769C409f0"),
	common.HexToAddress("0x22d491Bde2303f2f43325b2108D26f1eAbA1e32b"),
}

// harness is a chain with a deployer and funded dev accounts.
type harness struct {
	deployer *deployer.Deployer
	account  func(t *testing.T, index int) transaction.Service
	balances lottery.BalanceReader
	// callbackAccount sends the oracle callback. Gas paid by account 0 after
	// the balance snapshot would skew the winner balance check.
	callbackAccount int
}

func newSimulationHarness(t *testing.T) *harness {
	t.Helper()

	var opts []simulation.Option
	for _, a := range devAccounts {
		opts = append(opts, simulation.WithBalance(a, units.MustToWei("100", units.Ether)))
	}
	chain := simulation.New(opts...)
	net, err := network.NewRegistry().Get(network.Development)
	require.NoError(t, err)
	chainID, err := chain.ChainID(context.Background())
	require.NoError(t, err)

	return &harness{
		deployer: deployer.New(logger, net, chainID, chain.Transactor(devAccounts[0]), chain, simulation.Artifacts(), mock.NewStateStore()),
		account: func(t *testing.T, index int) transaction.Service {
			return chain.Transactor(devAccounts[index])
		},
		balances: chain,
	}
}

func TestLotteryOnSimulation(t *testing.T) {
	runLotteryScenarios(t, newSimulationHarness)
}

func runLotteryScenarios(t *testing.T, newHarness func(t *testing.T) *harness) {
	t.Run("get entrance fee", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		l, err := h.deployer.DeployLottery(ctx)
		require.NoError(t, err)

		fee, err := l.EntranceFee(ctx)
		require.NoError(t, err)
		require.Equal(t, units.MustToWei("0.025", units.Ether).String(), fee.String())
	})

	t.Run("cant enter unless started", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		l, err := h.deployer.DeployLottery(ctx)
		require.NoError(t, err)

		fee, err := l.EntranceFee(ctx)
		require.NoError(t, err)
		_, err = l.Enter(ctx, fee)
		require.ErrorIs(t, err, transaction.ErrTransactionReverted)
	})

	t.Run("can start and enter lottery", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		l, err := h.deployer.DeployLottery(ctx)
		require.NoError(t, err)

		_, err = l.Start(ctx)
		require.NoError(t, err)
		fee, err := l.EntranceFee(ctx)
		require.NoError(t, err)
		_, err = l.Enter(ctx, fee)
		require.NoError(t, err)

		player, err := l.Player(ctx, 0)
		require.NoError(t, err)
		require.Equal(t, h.account(t, 0).Sender(), player)
	})

	t.Run("can end lottery", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		l, err := h.deployer.DeployLottery(ctx)
		require.NoError(t, err)

		_, err = l.Start(ctx)
		require.NoError(t, err)
		fee, err := l.EntranceFee(ctx)
		require.NoError(t, err)
		_, err = l.Enter(ctx, fee)
		require.NoError(t, err)

		link, err := h.deployer.LinkToken(ctx)
		require.NoError(t, err)
		_, err = link.Fund(ctx, l.Address(), nil)
		require.NoError(t, err)

		_, _, err = l.End(ctx)
		require.NoError(t, err)

		state, err := l.State(ctx)
		require.NoError(t, err)
		require.Equal(t, lottery.CalculatingWinner, state)
	})

	t.Run("can pick winner correctly", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		l, err := h.deployer.DeployLottery(ctx)
		require.NoError(t, err)

		_, err = l.Start(ctx)
		require.NoError(t, err)
		fee, err := l.EntranceFee(ctx)
		require.NoError(t, err)
		for i := range devAccounts {
			entrant, err := h.deployer.LotteryFor(ctx, h.account(t, i))
			require.NoError(t, err)
			_, err = entrant.Enter(ctx, fee)
			require.NoError(t, err)
		}

		link, err := h.deployer.LinkToken(ctx)
		require.NoError(t, err)
		_, err = link.Fund(ctx, l.Address(), nil)
		require.NoError(t, err)

		requestID, _, err := l.End(ctx)
		require.NoError(t, err)

		winnerIndex, err := lottery.ExpectedWinner(staticRNG, uint64(len(devAccounts)))
		require.NoError(t, err)
		require.EqualValues(t, 0, winnerIndex)

		winner := h.account(t, int(winnerIndex)).Sender()
		startingBalance, err := h.balances.BalanceAt(ctx, winner, nil)
		require.NoError(t, err)
		lotteryBalance, err := l.Balance(ctx)
		require.NoError(t, err)
		require.Equal(t, new(big.Int).Mul(fee, big.NewInt(3)).String(), lotteryBalance.String())

		coordinator, err := h.deployer.Coordinator(ctx, h.account(t, h.callbackAccount))
		require.NoError(t, err)
		_, err = coordinator.CallBackWithRandomness(ctx, requestID, staticRNG, l.Address())
		require.NoError(t, err)

		recentWinner, err := l.RecentWinner(ctx)
		require.NoError(t, err)
		require.Equal(t, winner, recentWinner)

		balance, err := l.Balance(ctx)
		require.NoError(t, err)
		require.Zero(t, balance.Sign())

		winnerBalance, err := h.balances.BalanceAt(ctx, winner, nil)
		require.NoError(t, err)
		require.Equal(t, new(big.Int).Add(startingBalance, lotteryBalance).String(), winnerBalance.String())

		state, err := l.State(ctx)
		require.NoError(t, err)
		require.Equal(t, lottery.Closed, state)
		randomness, err := l.Randomness(ctx)
		require.NoError(t, err)
		require.Equal(t, staticRNG.String(), randomness.String())
	})
}
