// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mock

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vrflottery/lottery/pkg/lottery"
)

var errNotImplemented = errors.New("not implemented")

type Service struct {
	address      common.Address
	entranceFee  func(ctx context.Context) (*big.Int, error)
	enter        func(ctx context.Context, value *big.Int) (*types.Receipt, error)
	start        func(ctx context.Context) (*types.Receipt, error)
	end          func(ctx context.Context) (common.Hash, *types.Receipt, error)
	player       func(ctx context.Context, index uint64) (common.Address, error)
	state        func(ctx context.Context) (lottery.State, error)
	recentWinner func(ctx context.Context) (common.Address, error)
	randomness   func(ctx context.Context) (*big.Int, error)
	owner        func(ctx context.Context) (common.Address, error)
	fee          func(ctx context.Context) (*big.Int, error)
	keyHash      func(ctx context.Context) (common.Hash, error)
	balance      func(ctx context.Context) (*big.Int, error)
}

// Option is the option passed to the mock lottery service
type Option interface {
	apply(*Service)
}

type optionFunc func(*Service)

func (f optionFunc) apply(r *Service) { f(r) }

// New creates the mock lottery service
func New(opts ...Option) *Service {
	mock := new(Service)
	for _, o := range opts {
		o.apply(mock)
	}
	return mock
}

func WithAddress(address common.Address) Option {
	return optionFunc(func(s *Service) { s.address = address })
}

func WithEntranceFeeFunc(f func(ctx context.Context) (*big.Int, error)) Option {
	return optionFunc(func(s *Service) { s.entranceFee = f })
}

func WithEnterFunc(f func(ctx context.Context, value *big.Int) (*types.Receipt, error)) Option {
	return optionFunc(func(s *Service) { s.enter = f })
}

func WithStartFunc(f func(ctx context.Context) (*types.Receipt, error)) Option {
	return optionFunc(func(s *Service) { s.start = f })
}

func WithEndFunc(f func(ctx context.Context) (common.Hash, *types.Receipt, error)) Option {
	return optionFunc(func(s *Service) { s.end = f })
}

func WithPlayerFunc(f func(ctx context.Context, index uint64) (common.Address, error)) Option {
	return optionFunc(func(s *Service) { s.player = f })
}

func WithStateFunc(f func(ctx context.Context) (lottery.State, error)) Option {
	return optionFunc(func(s *Service) { s.state = f })
}

func WithRecentWinnerFunc(f func(ctx context.Context) (common.Address, error)) Option {
	return optionFunc(func(s *Service) { s.recentWinner = f })
}

func WithRandomnessFunc(f func(ctx context.Context) (*big.Int, error)) Option {
	return optionFunc(func(s *Service) { s.randomness = f })
}

func WithOwnerFunc(f func(ctx context.Context) (common.Address, error)) Option {
	return optionFunc(func(s *Service) { s.owner = f })
}

func WithFeeFunc(f func(ctx context.Context) (*big.Int, error)) Option {
	return optionFunc(func(s *Service) { s.fee = f })
}

func WithKeyHashFunc(f func(ctx context.Context) (common.Hash, error)) Option {
	return optionFunc(func(s *Service) { s.keyHash = f })
}

func WithBalanceFunc(f func(ctx context.Context) (*big.Int, error)) Option {
	return optionFunc(func(s *Service) { s.balance = f })
}

func (s *Service) Address() common.Address {
	return s.address
}

func (s *Service) EntranceFee(ctx context.Context) (*big.Int, error) {
	if s.entranceFee != nil {
		return s.entranceFee(ctx)
	}
	return nil, errNotImplemented
}

func (s *Service) Enter(ctx context.Context, value *big.Int) (*types.Receipt, error) {
	if s.enter != nil {
		return s.enter(ctx, value)
	}
	return nil, errNotImplemented
}

func (s *Service) Start(ctx context.Context) (*types.Receipt, error) {
	if s.start != nil {
		return s.start(ctx)
	}
	return nil, errNotImplemented
}

func (s *Service) End(ctx context.Context) (common.Hash, *types.Receipt, error) {
	if s.end != nil {
		return s.end(ctx)
	}
	return common.Hash{}, nil, errNotImplemented
}

func (s *Service) Player(ctx context.Context, index uint64) (common.Address, error) {
	if s.player != nil {
		return s.player(ctx, index)
	}
	return common.Address{}, errNotImplemented
}

func (s *Service) State(ctx context.Context) (lottery.State, error) {
	if s.state != nil {
		return s.state(ctx)
	}
	return 0, errNotImplemented
}

func (s *Service) RecentWinner(ctx context.Context) (common.Address, error) {
	if s.recentWinner != nil {
		return s.recentWinner(ctx)
	}
	return common.Address{}, errNotImplemented
}

func (s *Service) Randomness(ctx context.Context) (*big.Int, error) {
	if s.randomness != nil {
		return s.randomness(ctx)
	}
	return nil, errNotImplemented
}

func (s *Service) Owner(ctx context.Context) (common.Address, error) {
	if s.owner != nil {
		return s.owner(ctx)
	}
	return common.Address{}, errNotImplemented
}

func (s *Service) Fee(ctx context.Context) (*big.Int, error) {
	if s.fee != nil {
		return s.fee(ctx)
	}
	return nil, errNotImplemented
}

func (s *Service) KeyHash(ctx context.Context) (common.Hash, error) {
	if s.keyHash != nil {
		return s.keyHash(ctx)
	}
	return common.Hash{}, errNotImplemented
}

func (s *Service) Balance(ctx context.Context) (*big.Int, error) {
	if s.balance != nil {
		return s.balance(ctx)
	}
	return nil, errNotImplemented
}

func (s *Service) Metrics() []prometheus.Collector {
	return nil
}

var _ lottery.Service = (*Service)(nil)
