// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transaction_test

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/vrflottery/lottery/pkg/logging"
	"github.com/vrflottery/lottery/pkg/transaction"
	"github.com/vrflottery/lottery/pkg/transaction/backendsimulation"
)

func TestMonitorWatchTransaction(t *testing.T) {
	logger := logging.New(io.Discard, 0)
	txHash := common.HexToHash("0xabcd")
	nonce := uint64(10)
	sender := common.HexToAddress("0xffee")

	pollingInterval := 1 * time.Millisecond
	cancellationDepth := uint64(5)

	testTimeout := 5 * time.Second

	t.Run("single transaction confirmed", func(t *testing.T) {
		monitor := transaction.NewMonitor(
			logger,
			backendsimulation.New(
				backendsimulation.WithBlocks(
					backendsimulation.Block{
						Number: 0,
					},
					backendsimulation.Block{
						Number: 1,
						Receipts: map[common.Hash]*types.Receipt{
							txHash: {TxHash: txHash, Status: 1},
						},
						NoncesAt: map[backendsimulation.AccountAtKey]uint64{
							{BlockNumber: 1, Account: sender}: nonce + 1,
						},
					},
				),
			),
			sender,
			pollingInterval,
			cancellationDepth,
		)

		receiptC, errC, err := monitor.WatchTransaction(txHash, nonce)
		if err != nil {
			t.Fatal(err)
		}

		select {
		case receipt := <-receiptC:
			if receipt.TxHash != txHash {
				t.Fatal("got wrong receipt")
			}
		case err := <-errC:
			t.Fatal(err)
		case <-time.After(testTimeout):
			t.Fatal("timed out")
		}

		err = monitor.Close()
		if err != nil {
			t.Fatal(err)
		}
	})

	t.Run("single transaction cancelled", func(t *testing.T) {
		monitor := transaction.NewMonitor(
			logger,
			backendsimulation.New(
				backendsimulation.WithBlocks(
					backendsimulation.Block{
						Number: 0,
					},
					backendsimulation.Block{
						Number: 1,
						NoncesAt: map[backendsimulation.AccountAtKey]uint64{
							{BlockNumber: 1, Account: sender}: nonce + 1,
						},
					},
					backendsimulation.Block{
						Number: 1 + cancellationDepth,
						NoncesAt: map[backendsimulation.AccountAtKey]uint64{
							{BlockNumber: 1, Account: sender}:                     nonce + 1,
							{BlockNumber: 1 + cancellationDepth, Account: sender}: nonce + 1,
						},
					},
				),
			),
			sender,
			pollingInterval,
			cancellationDepth,
		)

		receiptC, errC, err := monitor.WatchTransaction(txHash, nonce)
		if err != nil {
			t.Fatal(err)
		}

		select {
		case <-receiptC:
			t.Fatal("got receipt")
		case err := <-errC:
			if !errors.Is(err, transaction.ErrTransactionCancelled) {
				t.Fatalf("got wrong error. wanted %v, got %v", transaction.ErrTransactionCancelled, err)
			}
		case <-time.After(testTimeout):
			t.Fatal("timed out")
		}

		err = monitor.Close()
		if err != nil {
			t.Fatal(err)
		}
	})

	t.Run("closed monitor", func(t *testing.T) {
		monitor := transaction.NewMonitor(
			logger,
			backendsimulation.New(),
			sender,
			pollingInterval,
			cancellationDepth,
		)

		_, errC, err := monitor.WatchTransaction(txHash, nonce)
		if err != nil {
			t.Fatal(err)
		}

		if err := monitor.Close(); err != nil {
			t.Fatal(err)
		}

		select {
		case err := <-errC:
			if !errors.Is(err, transaction.ErrMonitorClosed) {
				t.Fatalf("got wrong error. wanted %v, got %v", transaction.ErrMonitorClosed, err)
			}
		case <-time.After(testTimeout):
			t.Fatal("timed out")
		}
	})
}
