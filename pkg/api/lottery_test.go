// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"

	"github.com/vrflottery/lottery/pkg/lottery"
	"github.com/vrflottery/lottery/pkg/lottery/mock"
	"github.com/vrflottery/lottery/pkg/transaction"
)

var (
	lotteryAddress = common.HexToAddress("0xe78A0F7E598Cc8b0Bb87894B0F60dD2a88d6a8Ab")
	winnerAddress  = common.HexToAddress("0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1")
)

func TestLottery(t *testing.T) {
	client := newTestServer(t, testServerOptions{
		Lottery: mock.New(
			mock.WithAddress(lotteryAddress),
			mock.WithStateFunc(func(ctx context.Context) (lottery.State, error) {
				return lottery.CalculatingWinner, nil
			}),
			mock.WithEntranceFeeFunc(func(ctx context.Context) (*big.Int, error) {
				return big.NewInt(25000000000000000), nil
			}),
			mock.WithRecentWinnerFunc(func(ctx context.Context) (common.Address, error) {
				return winnerAddress, nil
			}),
			mock.WithBalanceFunc(func(ctx context.Context) (*big.Int, error) {
				return big.NewInt(75000000000000000), nil
			}),
		),
	})

	body := request(t, client, http.MethodGet, "/lottery", http.StatusOK)

	var got map[string]string
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"address":      "0xe78a0f7e598cc8b0bb87894b0f60dd2a88d6a8ab",
		"state":        "calculating_winner",
		"entranceFee":  "25000000000000000",
		"recentWinner": "0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1",
		"balance":      "75000000000000000",
		"balanceEther": "0.075",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("lottery mismatch (-want +got):\n%s", diff)
	}
}

func TestLotteryError(t *testing.T) {
	client := newTestServer(t, testServerOptions{
		Lottery: mock.New(
			mock.WithStateFunc(func(ctx context.Context) (lottery.State, error) {
				return 0, errors.New("connection refused")
			}),
		),
	})

	body := request(t, client, http.MethodGet, "/lottery", http.StatusInternalServerError)

	var got map[string]interface{}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got["message"] != "cannot read lottery state" {
		t.Errorf("got message %v", got["message"])
	}
}

func TestPlayer(t *testing.T) {
	players := []common.Address{
		common.HexToAddress("0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1"),
		common.HexToAddress("0xFFcf8FDEE72ac11b5c542428B35EEF5769C409f0"),
	}
	client := newTestServer(t, testServerOptions{
		Lottery: mock.New(
			mock.WithPlayerFunc(func(ctx context.Context, index uint64) (common.Address, error) {
				if index >= uint64(len(players)) {
					return common.Address{}, fmt.Errorf("players: %w", transaction.ErrTransactionReverted)
				}
				if index == 1 {
					return players[1], nil
				}
				return players[0], nil
			}),
		),
	})

	t.Run("ok", func(t *testing.T) {
		body := request(t, client, http.MethodGet, "/lottery/players/1", http.StatusOK)

		var got struct {
			Index   uint64         `json:"index"`
			Address common.Address `json:"address"`
		}
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatal(err)
		}
		if got.Index != 1 || got.Address != players[1] {
			t.Errorf("got player %d %s, want 1 %s", got.Index, got.Address.Hex(), players[1].Hex())
		}
	})

	t.Run("out of range", func(t *testing.T) {
		request(t, client, http.MethodGet, "/lottery/players/2", http.StatusNotFound)
	})

	t.Run("invalid index", func(t *testing.T) {
		request(t, client, http.MethodGet, "/lottery/players/first", http.StatusBadRequest)
	})

	t.Run("negative index", func(t *testing.T) {
		request(t, client, http.MethodGet, "/lottery/players/-1", http.StatusBadRequest)
	})
}

func TestPlayerError(t *testing.T) {
	client := newTestServer(t, testServerOptions{
		Lottery: mock.New(
			mock.WithPlayerFunc(func(ctx context.Context, index uint64) (common.Address, error) {
				return common.Address{}, errors.New("timeout")
			}),
		),
	})

	request(t, client, http.MethodGet, "/lottery/players/0", http.StatusInternalServerError)
}

func TestLotteryRateLimit(t *testing.T) {
	client := newTestServer(t, testServerOptions{
		Lottery: mock.New(
			mock.WithPlayerFunc(func(ctx context.Context, index uint64) (common.Address, error) {
				return winnerAddress, nil
			}),
		),
		RateLimit: time.Hour,
		RateBurst: 2,
	})

	request(t, client, http.MethodGet, "/lottery/players/0", http.StatusOK)
	request(t, client, http.MethodGet, "/lottery/players/1", http.StatusOK)
	request(t, client, http.MethodGet, "/lottery/players/2", http.StatusTooManyRequests)

	// health is not limited
	request(t, client, http.MethodGet, "/health", http.StatusOK)
}
