// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package linktoken binds the LINK token used to pay the randomness oracle.
package linktoken

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/vrflottery/lottery/pkg/contracts"
	"github.com/vrflottery/lottery/pkg/logging"
	"github.com/vrflottery/lottery/pkg/sctx"
	"github.com/vrflottery/lottery/pkg/transaction"
)

var (
	linkTokenABI  = contracts.LinkTokenContractABI
	transferEvent = linkTokenABI.Events["Transfer"]

	// DefaultFundAmount is 0.1 LINK, the oracle fee of a single request.
	DefaultFundAmount = big.NewInt(100000000000000000)

	ErrInsufficientFunds = errors.New("insufficient LINK balance")
	ErrTransferFailed    = errors.New("LINK transfer failed")
)

type Service interface {
	Address() common.Address
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
	Transfer(ctx context.Context, to common.Address, amount *big.Int) (*types.Receipt, error)
	// Fund sends amount LINK from the sender to account, DefaultFundAmount
	// if amount is nil.
	Fund(ctx context.Context, account common.Address, amount *big.Int) (*types.Receipt, error)
}

type service struct {
	logger    logging.Logger
	txService transaction.Service
	address   common.Address
}

type transferEventType struct {
	From  common.Address
	To    common.Address
	Value *big.Int
}

func New(logger logging.Logger, txService transaction.Service, address common.Address) Service {
	return &service{
		logger:    logger,
		txService: txService,
		address:   address,
	}
}

func (s *service) Address() common.Address {
	return s.address
}

func (s *service) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	callData, err := linkTokenABI.Pack("balanceOf", account)
	if err != nil {
		return nil, err
	}

	output, err := s.txService.Call(ctx, &transaction.TxRequest{
		To:   &s.address,
		Data: callData,
	})
	if err != nil {
		return nil, fmt.Errorf("balanceOf: %w", err)
	}

	results, err := linkTokenABI.Unpack("balanceOf", output)
	if err != nil {
		return nil, fmt.Errorf("balanceOf: %w", err)
	}
	return *abi.ConvertType(results[0], new(*big.Int)).(**big.Int), nil
}

func (s *service) Transfer(ctx context.Context, to common.Address, amount *big.Int) (*types.Receipt, error) {
	callData, err := linkTokenABI.Pack("transfer", to, amount)
	if err != nil {
		return nil, err
	}

	txHash, err := s.txService.Send(ctx, &transaction.TxRequest{
		To:          &s.address,
		Data:        callData,
		GasPrice:    sctx.GetGasPrice(ctx),
		GasLimit:    sctx.GetGasLimit(ctx),
		Value:       big.NewInt(0),
		Description: "LINK transfer",
	})
	if err != nil {
		if errors.Is(err, transaction.ErrTransactionReverted) {
			return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		return nil, err
	}

	receipt, err := s.txService.WaitForReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}

	var event transferEventType
	if err := transaction.FindSingleEvent(&linkTokenABI, receipt, s.address, transferEvent, &event); err != nil {
		if errors.Is(err, transaction.ErrTransactionReverted) {
			return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		return nil, fmt.Errorf("transfer event: %w", err)
	}
	if event.To != to || event.Value.Cmp(amount) != 0 {
		return nil, fmt.Errorf("%w: unexpected transfer of %d to %x", ErrTransferFailed, event.Value, event.To)
	}
	return receipt, nil
}

func (s *service) Fund(ctx context.Context, account common.Address, amount *big.Int) (*types.Receipt, error) {
	if amount == nil {
		amount = DefaultFundAmount
	}

	balance, err := s.BalanceOf(ctx, s.txService.Sender())
	if err != nil {
		return nil, err
	}
	if balance.Cmp(amount) < 0 {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, balance, amount)
	}

	receipt, err := s.Transfer(ctx, account, amount)
	if err != nil {
		return nil, fmt.Errorf("fund %x: %w", account, err)
	}
	s.logger.Infof("Funded %s", account.Hex())
	return receipt, nil
}
