// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sctx provides convenience methods for context
// value injection and extraction.
package sctx

import (
	"context"
	"math/big"
)

type (
	gasPriceKey struct{}
	gasLimitKey struct{}
)

// SetGasLimit sets the gas limit used by contract writes in the context.
func SetGasLimit(ctx context.Context, limit uint64) context.Context {
	return context.WithValue(ctx, gasLimitKey{}, limit)
}

// GetGasLimit returns the gas limit from the context or 0 if the limit
// should be estimated.
func GetGasLimit(ctx context.Context) uint64 {
	v, ok := ctx.Value(gasLimitKey{}).(uint64)
	if ok {
		return v
	}
	return 0
}

func GetGasLimitWithDefault(ctx context.Context, defaultLimit uint64) uint64 {
	limit := GetGasLimit(ctx)
	if limit == 0 {
		return defaultLimit
	}
	return limit
}

// SetGasPrice sets the gas price used by contract writes in the context.
func SetGasPrice(ctx context.Context, price *big.Int) context.Context {
	return context.WithValue(ctx, gasPriceKey{}, price)
}

// GetGasPrice returns the gas price from the context or nil if the suggested
// gas price should be used.
func GetGasPrice(ctx context.Context) *big.Int {
	v, ok := ctx.Value(gasPriceKey{}).(*big.Int)
	if ok {
		return v
	}
	return nil
}
