// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vrf drives the mock VRF coordinator used on local networks.
package vrf

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/vrflottery/lottery/pkg/contracts"
	"github.com/vrflottery/lottery/pkg/logging"
	"github.com/vrflottery/lottery/pkg/sctx"
	"github.com/vrflottery/lottery/pkg/transaction"
)

var coordinatorABI = contracts.VRFCoordinatorMockContractABI

// Coordinator stands in for the oracle and fulfils randomness requests.
type Coordinator interface {
	Address() common.Address
	// CallBackWithRandomness delivers randomness for requestID to consumer.
	CallBackWithRandomness(ctx context.Context, requestID common.Hash, randomness *big.Int, consumer common.Address) (*types.Receipt, error)
}

type coordinator struct {
	logger    logging.Logger
	txService transaction.Service
	address   common.Address
}

func New(logger logging.Logger, txService transaction.Service, address common.Address) Coordinator {
	return &coordinator{
		logger:    logger,
		txService: txService,
		address:   address,
	}
}

func (c *coordinator) Address() common.Address {
	return c.address
}

func (c *coordinator) CallBackWithRandomness(ctx context.Context, requestID common.Hash, randomness *big.Int, consumer common.Address) (*types.Receipt, error) {
	callData, err := coordinatorABI.Pack("callBackWithRandomness", requestID, randomness, consumer)
	if err != nil {
		return nil, err
	}

	txHash, err := c.txService.Send(ctx, &transaction.TxRequest{
		To:          &c.address,
		Data:        callData,
		GasPrice:    sctx.GetGasPrice(ctx),
		GasLimit:    sctx.GetGasLimit(ctx),
		Value:       big.NewInt(0),
		Description: "VRF callback",
	})
	if err != nil {
		return nil, fmt.Errorf("callback with randomness: %w", err)
	}

	receipt, err := c.txService.WaitForReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if receipt.Status == 0 {
		return nil, fmt.Errorf("callback with randomness: %w", transaction.ErrTransactionReverted)
	}

	c.logger.Debugf("vrf: delivered randomness %d for request %x to %x", randomness, requestID, consumer)
	return receipt, nil
}
