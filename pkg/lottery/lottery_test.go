// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lottery_test

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/vrflottery/lottery/pkg/contracts"
	"github.com/vrflottery/lottery/pkg/logging"
	"github.com/vrflottery/lottery/pkg/lottery"
	"github.com/vrflottery/lottery/pkg/transaction"
	"github.com/vrflottery/lottery/pkg/transaction/backendmock"
	transactionmock "github.com/vrflottery/lottery/pkg/transaction/mock"
)

var (
	lotteryABI     = contracts.LotteryContractABI
	lotteryAddress = common.HexToAddress("0xe78a0f7e598cc8b0bb87894b0f60dd2a88d6a8ab")
	owner          = common.HexToAddress("0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1")
	logger         = logging.New(io.Discard, logrus.ErrorLevel)
)

func pack(t *testing.T, method string, values ...interface{}) []byte {
	t.Helper()
	data, err := lotteryABI.Methods[method].Outputs.Pack(values...)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func successReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return &types.Receipt{TxHash: txHash, Status: types.ReceiptStatusSuccessful}, nil
}

func TestEntranceFee(t *testing.T) {
	fee := big.NewInt(25000000000000000)
	s := lottery.New(logger, transactionmock.New(
		transactionmock.WithABICall(&lotteryABI, lotteryAddress, pack(t, "getEntranceFee", fee), "getEntranceFee"),
	), nil, lotteryAddress)

	got, err := s.EntranceFee(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.Cmp(fee) != 0 {
		t.Fatalf("got entrance fee %v, want %v", got, fee)
	}
}

func TestEnter(t *testing.T) {
	value := big.NewInt(25000000100000000)
	txHash := common.HexToHash("0x01")

	t.Run("ok", func(t *testing.T) {
		s := lottery.New(logger, transactionmock.New(
			transactionmock.WithABISend(&lotteryABI, txHash, lotteryAddress, value, "enter"),
			transactionmock.WithWaitForReceiptFunc(successReceipt),
		), nil, lotteryAddress)

		receipt, err := s.Enter(context.Background(), value)
		if err != nil {
			t.Fatal(err)
		}
		if receipt.TxHash != txHash {
			t.Fatalf("got receipt for %x, want %x", receipt.TxHash, txHash)
		}
	})

	t.Run("rejected by estimate", func(t *testing.T) {
		s := lottery.New(logger, transactionmock.New(
			transactionmock.WithSendFunc(func(ctx context.Context, request *transaction.TxRequest) (common.Hash, error) {
				return common.Hash{}, transaction.ErrTransactionReverted
			}),
		), nil, lotteryAddress)

		_, err := s.Enter(context.Background(), value)
		if !errors.Is(err, transaction.ErrTransactionReverted) {
			t.Fatalf("got error %v, want %v", err, transaction.ErrTransactionReverted)
		}
	})

	t.Run("reverted receipt", func(t *testing.T) {
		s := lottery.New(logger, transactionmock.New(
			transactionmock.WithABISend(&lotteryABI, txHash, lotteryAddress, value, "enter"),
			transactionmock.WithWaitForReceiptFunc(func(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
				return &types.Receipt{Status: types.ReceiptStatusFailed}, nil
			}),
		), nil, lotteryAddress)

		_, err := s.Enter(context.Background(), value)
		if !errors.Is(err, transaction.ErrTransactionReverted) {
			t.Fatalf("got error %v, want %v", err, transaction.ErrTransactionReverted)
		}
	})
}

func TestStart(t *testing.T) {
	txHash := common.HexToHash("0x02")
	s := lottery.New(logger, transactionmock.New(
		transactionmock.WithABISend(&lotteryABI, txHash, lotteryAddress, big.NewInt(0), "startLottery"),
		transactionmock.WithWaitForReceiptFunc(successReceipt),
	), nil, lotteryAddress)

	if _, err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestEnd(t *testing.T) {
	txHash := common.HexToHash("0x03")
	requestID := common.HexToHash("0x5ef1")

	data, err := lottery.RequestRandomnessEvent.Inputs.NonIndexed().Pack(requestID)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("ok", func(t *testing.T) {
		s := lottery.New(logger, transactionmock.New(
			transactionmock.WithABISend(&lotteryABI, txHash, lotteryAddress, big.NewInt(0), "endLottery"),
			transactionmock.WithWaitForReceiptFunc(func(ctx context.Context, h common.Hash) (*types.Receipt, error) {
				return &types.Receipt{
					TxHash: h,
					Status: types.ReceiptStatusSuccessful,
					Logs: []*types.Log{
						{
							Address: lotteryAddress,
							Topics:  []common.Hash{lottery.RequestRandomnessEvent.ID},
							Data:    data,
						},
					},
				}, nil
			}),
		), nil, lotteryAddress)

		got, _, err := s.End(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if got != requestID {
			t.Fatalf("got request id %x, want %x", got, requestID)
		}
	})

	t.Run("event from other contract", func(t *testing.T) {
		s := lottery.New(logger, transactionmock.New(
			transactionmock.WithABISend(&lotteryABI, txHash, lotteryAddress, big.NewInt(0), "endLottery"),
			transactionmock.WithWaitForReceiptFunc(func(ctx context.Context, h common.Hash) (*types.Receipt, error) {
				return &types.Receipt{
					Status: types.ReceiptStatusSuccessful,
					Logs: []*types.Log{
						{
							Address: owner,
							Topics:  []common.Hash{lottery.RequestRandomnessEvent.ID},
							Data:    data,
						},
					},
				}, nil
			}),
		), nil, lotteryAddress)

		_, _, err := s.End(context.Background())
		if !errors.Is(err, transaction.ErrEventNotFound) {
			t.Fatalf("got error %v, want %v", err, transaction.ErrEventNotFound)
		}
	})
}

func TestReads(t *testing.T) {
	winner := common.HexToAddress("0xffcf8fdee72ac11b5c542428b35eef5769c409f0")
	keyHash := common.HexToHash("0x2ed0feb3e7fd2022120aa84fab1945545a9f2ffc9076fd6156fa96eaff4c1311")

	s := lottery.New(logger, transactionmock.New(
		transactionmock.WithABICallSequence(
			transactionmock.ABICall(&lotteryABI, lotteryAddress, pack(t, "players", owner), "players", big.NewInt(0)),
			transactionmock.ABICall(&lotteryABI, lotteryAddress, pack(t, "lottery_state", uint8(2)), "lottery_state"),
			transactionmock.ABICall(&lotteryABI, lotteryAddress, pack(t, "recentWinner", winner), "recentWinner"),
			transactionmock.ABICall(&lotteryABI, lotteryAddress, pack(t, "randomness", big.NewInt(777)), "randomness"),
			transactionmock.ABICall(&lotteryABI, lotteryAddress, pack(t, "owner", owner), "owner"),
			transactionmock.ABICall(&lotteryABI, lotteryAddress, pack(t, "fee", big.NewInt(1e17)), "fee"),
			transactionmock.ABICall(&lotteryABI, lotteryAddress, pack(t, "keyhash", keyHash), "keyhash"),
		),
	), backendmock.New(
		backendmock.WithBalanceAtFunc(func(ctx context.Context, address common.Address, block *big.Int) (*big.Int, error) {
			if address != lotteryAddress {
				t.Fatalf("balance of wrong account %x", address)
			}
			return big.NewInt(42), nil
		}),
	), lotteryAddress)

	ctx := context.Background()

	type reads struct {
		Player       common.Address
		State        lottery.State
		RecentWinner common.Address
		Randomness   int64
		Owner        common.Address
		Fee          int64
		KeyHash      common.Hash
		Balance      int64
	}

	var got reads
	var err error
	if got.Player, err = s.Player(ctx, 0); err != nil {
		t.Fatal(err)
	}
	if got.State, err = s.State(ctx); err != nil {
		t.Fatal(err)
	}
	if got.RecentWinner, err = s.RecentWinner(ctx); err != nil {
		t.Fatal(err)
	}
	randomness, err := s.Randomness(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got.Randomness = randomness.Int64()
	if got.Owner, err = s.Owner(ctx); err != nil {
		t.Fatal(err)
	}
	fee, err := s.Fee(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got.Fee = fee.Int64()
	if got.KeyHash, err = s.KeyHash(ctx); err != nil {
		t.Fatal(err)
	}
	balance, err := s.Balance(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got.Balance = balance.Int64()

	want := reads{
		Player:       owner,
		State:        lottery.CalculatingWinner,
		RecentWinner: winner,
		Randomness:   777,
		Owner:        owner,
		Fee:          1e17,
		KeyHash:      keyHash,
		Balance:      42,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("reads mismatch (-want +got):\n%s", diff)
	}
}

func TestStateUnknown(t *testing.T) {
	s := lottery.New(logger, transactionmock.New(
		transactionmock.WithABICall(&lotteryABI, lotteryAddress, pack(t, "lottery_state", uint8(7)), "lottery_state"),
	), nil, lotteryAddress)

	_, err := s.State(context.Background())
	if !errors.Is(err, lottery.ErrUnknownState) {
		t.Fatalf("got error %v, want %v", err, lottery.ErrUnknownState)
	}
}

func TestStateString(t *testing.T) {
	for state, want := range map[lottery.State]string{
		lottery.Open:              "open",
		lottery.Closed:            "closed",
		lottery.CalculatingWinner: "calculating_winner",
		lottery.State(9):          "state(9)",
	} {
		if got := state.String(); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}
