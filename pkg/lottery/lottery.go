// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lottery binds the VRF lottery contract.
package lottery

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vrflottery/lottery/pkg/contracts"
	"github.com/vrflottery/lottery/pkg/logging"
	m "github.com/vrflottery/lottery/pkg/metrics"
	"github.com/vrflottery/lottery/pkg/sctx"
	"github.com/vrflottery/lottery/pkg/transaction"
)

var (
	lotteryABI             = contracts.LotteryContractABI
	requestRandomnessEvent = lotteryABI.Events["RequestRandomness"]

	ErrUnknownState = errors.New("unknown lottery state")

	enterDescription = "Lottery entry"
	startDescription = "Lottery start"
	endDescription   = "Lottery end"
)

// State mirrors the LOTTERY_STATE enum of the contract.
type State uint8

const (
	Open State = iota
	Closed
	CalculatingWinner
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	case CalculatingWinner:
		return "calculating_winner"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// BalanceReader reads the native balance of an account.
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Service is the client side of a deployed lottery.
type Service interface {
	m.Collector
	// Address returns the contract address.
	Address() common.Address
	// EntranceFee returns the minimum entry value in wei.
	EntranceFee(ctx context.Context) (*big.Int, error)
	// Enter pays value wei to join the open lottery.
	Enter(ctx context.Context, value *big.Int) (*types.Receipt, error)
	// Start opens a closed lottery. Only the owner may start it.
	Start(ctx context.Context) (*types.Receipt, error)
	// End closes entries and requests randomness. It returns the request id
	// announced by the contract.
	End(ctx context.Context) (common.Hash, *types.Receipt, error)
	Player(ctx context.Context, index uint64) (common.Address, error)
	State(ctx context.Context) (State, error)
	RecentWinner(ctx context.Context) (common.Address, error)
	Randomness(ctx context.Context) (*big.Int, error)
	Owner(ctx context.Context) (common.Address, error)
	Fee(ctx context.Context) (*big.Int, error)
	KeyHash(ctx context.Context) (common.Hash, error)
	// Balance returns the wei held by the contract.
	Balance(ctx context.Context) (*big.Int, error)
}

type service struct {
	logger    logging.Logger
	txService transaction.Service
	balances  BalanceReader
	address   common.Address
	metrics   metrics
}

type requestRandomnessEventType struct {
	RequestId [32]byte
}

// New binds the lottery deployed at address. Writes are sent through
// txService on behalf of its sender.
func New(logger logging.Logger, txService transaction.Service, balances BalanceReader, address common.Address) Service {
	return &service{
		logger:    logger,
		txService: txService,
		balances:  balances,
		address:   address,
		metrics:   newMetrics(),
	}
}

func (s *service) Address() common.Address {
	return s.address
}

func (s *service) EntranceFee(ctx context.Context) (*big.Int, error) {
	return s.callBigInt(ctx, "getEntranceFee")
}

func (s *service) Enter(ctx context.Context, value *big.Int) (*types.Receipt, error) {
	callData, err := lotteryABI.Pack("enter")
	if err != nil {
		return nil, err
	}
	receipt, err := s.sendTransaction(ctx, callData, value, enterDescription)
	if err != nil {
		s.metrics.FailedWrites.Inc()
		return nil, fmt.Errorf("enter: %w", err)
	}
	s.metrics.Entries.Inc()
	s.logger.Debugf("lottery: %x entered %x with %d wei", s.txService.Sender(), s.address, value)
	return receipt, nil
}

func (s *service) Start(ctx context.Context) (*types.Receipt, error) {
	callData, err := lotteryABI.Pack("startLottery")
	if err != nil {
		return nil, err
	}
	receipt, err := s.sendTransaction(ctx, callData, nil, startDescription)
	if err != nil {
		s.metrics.FailedWrites.Inc()
		return nil, fmt.Errorf("start lottery: %w", err)
	}
	s.metrics.Starts.Inc()
	s.logger.Infof("lottery %x started", s.address)
	return receipt, nil
}

func (s *service) End(ctx context.Context) (common.Hash, *types.Receipt, error) {
	callData, err := lotteryABI.Pack("endLottery")
	if err != nil {
		return common.Hash{}, nil, err
	}
	receipt, err := s.sendTransaction(ctx, callData, nil, endDescription)
	if err != nil {
		s.metrics.FailedWrites.Inc()
		return common.Hash{}, nil, fmt.Errorf("end lottery: %w", err)
	}

	var event requestRandomnessEventType
	if err := transaction.FindSingleEvent(&lotteryABI, receipt, s.address, requestRandomnessEvent, &event); err != nil {
		return common.Hash{}, receipt, fmt.Errorf("end lottery: request randomness event: %w", err)
	}
	s.metrics.Ends.Inc()
	requestID := common.Hash(event.RequestId)
	s.logger.Infof("lottery %x ended, randomness request %x", s.address, requestID)
	return requestID, receipt, nil
}

func (s *service) Player(ctx context.Context, index uint64) (common.Address, error) {
	return s.callAddress(ctx, "players", new(big.Int).SetUint64(index))
}

func (s *service) State(ctx context.Context) (State, error) {
	results, err := s.call(ctx, "lottery_state")
	if err != nil {
		return 0, err
	}
	state, ok := results[0].(uint8)
	if !ok || State(state) > CalculatingWinner {
		return 0, fmt.Errorf("%w: %v", ErrUnknownState, results[0])
	}
	return State(state), nil
}

func (s *service) RecentWinner(ctx context.Context) (common.Address, error) {
	return s.callAddress(ctx, "recentWinner")
}

func (s *service) Randomness(ctx context.Context) (*big.Int, error) {
	return s.callBigInt(ctx, "randomness")
}

func (s *service) Owner(ctx context.Context) (common.Address, error) {
	return s.callAddress(ctx, "owner")
}

func (s *service) Fee(ctx context.Context) (*big.Int, error) {
	return s.callBigInt(ctx, "fee")
}

func (s *service) KeyHash(ctx context.Context) (common.Hash, error) {
	results, err := s.call(ctx, "keyhash")
	if err != nil {
		return common.Hash{}, err
	}
	return common.Hash(*abi.ConvertType(results[0], new([32]byte)).(*[32]byte)), nil
}

func (s *service) Balance(ctx context.Context) (*big.Int, error) {
	return s.balances.BalanceAt(ctx, s.address, nil)
}

func (s *service) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(s.metrics)
}

func (s *service) sendTransaction(ctx context.Context, callData []byte, value *big.Int, desc string) (*types.Receipt, error) {
	if value == nil {
		value = big.NewInt(0)
	}
	request := &transaction.TxRequest{
		To:          &s.address,
		Data:        callData,
		GasPrice:    sctx.GetGasPrice(ctx),
		GasLimit:    sctx.GetGasLimit(ctx),
		Value:       value,
		Description: desc,
	}

	txHash, err := s.txService.Send(ctx, request)
	if err != nil {
		return nil, err
	}

	receipt, err := s.txService.WaitForReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}

	if receipt.Status == 0 {
		return nil, transaction.ErrTransactionReverted
	}

	return receipt, nil
}

func (s *service) call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	callData, err := lotteryABI.Pack(method, params...)
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

	results, err := lotteryABI.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%s: unexpected empty results", method)
	}
	return results, nil
}

func (s *service) callBigInt(ctx context.Context, method string, params ...interface{}) (*big.Int, error) {
	results, err := s.call(ctx, method, params...)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(results[0], new(*big.Int)).(**big.Int), nil
}

func (s *service) callAddress(ctx context.Context, method string, params ...interface{}) (common.Address, error) {
	results, err := s.call(ctx, method, params...)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(results[0], new(common.Address)).(*common.Address), nil
}
