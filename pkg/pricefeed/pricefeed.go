// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pricefeed reads a Chainlink style ETH/USD aggregator.
package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/vrflottery/lottery/pkg/contracts"
	"github.com/vrflottery/lottery/pkg/transaction"
)

var (
	aggregatorABI = contracts.MockV3AggregatorContractABI

	ErrNegativeAnswer = errors.New("price feed answered a negative price")
)

type Service interface {
	Address() common.Address
	// LatestAnswer returns the raw answer of the latest round.
	LatestAnswer(ctx context.Context) (*big.Int, error)
	Decimals(ctx context.Context) (uint8, error)
	// Price returns the latest answer scaled by the feed decimals.
	Price(ctx context.Context) (decimal.Decimal, error)
}

type service struct {
	txService transaction.Service
	address   common.Address
}

func New(txService transaction.Service, address common.Address) Service {
	return &service{
		txService: txService,
		address:   address,
	}
}

func (s *service) Address() common.Address {
	return s.address
}

type roundData struct {
	RoundId         *big.Int
	Answer          *big.Int
	StartedAt       *big.Int
	UpdatedAt       *big.Int
	AnsweredInRound *big.Int
}

func (s *service) LatestAnswer(ctx context.Context) (*big.Int, error) {
	output, err := s.call(ctx, "latestRoundData")
	if err != nil {
		return nil, err
	}
	var round roundData
	if err := aggregatorABI.UnpackIntoInterface(&round, "latestRoundData", output); err != nil {
		return nil, fmt.Errorf("latestRoundData: %w", err)
	}
	if round.Answer.Sign() < 0 {
		return nil, ErrNegativeAnswer
	}
	return round.Answer, nil
}

func (s *service) Decimals(ctx context.Context) (uint8, error) {
	output, err := s.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	results, err := aggregatorABI.Unpack("decimals", output)
	if err != nil {
		return 0, fmt.Errorf("decimals: %w", err)
	}
	return *abi.ConvertType(results[0], new(uint8)).(*uint8), nil
}

func (s *service) Price(ctx context.Context) (decimal.Decimal, error) {
	answer, err := s.LatestAnswer(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	decimals, err := s.Decimals(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(answer, -int32(decimals)), nil
}

func (s *service) call(ctx context.Context, method string) ([]byte, error) {
	callData, err := aggregatorABI.Pack(method)
	if err != nil {
		return nil, err
	}
	output, err := s.txService.Call(ctx, &transaction.TxRequest{
		To:   &s.address,
		Data: callData,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return output, nil
}
