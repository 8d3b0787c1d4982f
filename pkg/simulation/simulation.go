// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package simulation is an in-process chain that executes the lottery
// contracts and their mocks without a node. It implements the transaction
// service per sender, so the contract bindings run unchanged against it.
package simulation

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vrflottery/lottery/pkg/transaction"
)

var ErrUnknownTransaction = errors.New("simulation: unknown transaction")

// Chain holds the simulated world state. It is safe for concurrent use.
type Chain struct {
	mu       sync.Mutex
	chainID  *big.Int
	world    *world
	nonces   map[common.Address]uint64
	block    uint64
	receipts map[common.Hash]*types.Receipt
	stored   map[common.Hash]*transaction.StoredTransaction
}

// Option is the option passed to the simulated chain
type Option interface {
	apply(*Chain)
}

type optionFunc func(*Chain)

func (f optionFunc) apply(r *Chain) { f(r) }

// WithChainID sets the chain id, 1337 by default.
func WithChainID(id int64) Option {
	return optionFunc(func(c *Chain) {
		c.chainID = big.NewInt(id)
	})
}

// WithBalance credits account with wei at genesis.
func WithBalance(account common.Address, wei *big.Int) Option {
	return optionFunc(func(c *Chain) {
		c.world.balances[account] = new(big.Int).Set(wei)
	})
}

func New(opts ...Option) *Chain {
	c := &Chain{
		chainID:  big.NewInt(1337),
		world:    newWorld(),
		nonces:   make(map[common.Address]uint64),
		receipts: make(map[common.Hash]*types.Receipt),
		stored:   make(map[common.Hash]*transaction.StoredTransaction),
	}
	for _, o := range opts {
		o.apply(c)
	}
	return c
}

// SetBalance overwrites the balance of account.
func (c *Chain) SetBalance(account common.Address, wei *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.world.balances[account] = new(big.Int).Set(wei)
}

func (c *Chain) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.world.balance(account)), nil
}

// CodeAt returns the marker bytecode of the contract at account, empty for
// externally owned accounts.
func (c *Chain) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ct, ok := c.world.contracts[account]
	if !ok {
		return nil, nil
	}
	return marker(ct.name()), nil
}

func (c *Chain) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.chainID), nil
}

func (c *Chain) BlockNumber(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.block, nil
}

// Transactor returns a transaction service sending on behalf of sender.
func (c *Chain) Transactor(sender common.Address) transaction.Service {
	return &transactor{chain: c, sender: sender}
}

func (c *Chain) send(sender common.Address, request *transaction.TxRequest) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value := request.Value
	if value == nil {
		value = new(big.Int)
	}
	nonce := c.nonces[sender]

	snapshot := c.world.clone()
	var logs []*types.Log
	receipt := &types.Receipt{
		Type:   types.LegacyTxType,
		Status: types.ReceiptStatusSuccessful,
	}

	var err error
	if request.To == nil {
		receipt.ContractAddress = crypto.CreateAddress(sender, nonce)
		err = c.world.deploy(sender, receipt.ContractAddress, request.Data, &logs)
	} else {
		_, err = c.world.call(sender, *request.To, value, request.Data, &logs, 0)
	}
	if err != nil {
		c.world.restore(snapshot)
		var r *revertError
		if errors.As(err, &r) {
			return common.Hash{}, fmt.Errorf("%w: %v", transaction.ErrTransactionReverted, err)
		}
		return common.Hash{}, err
	}

	c.nonces[sender] = nonce + 1
	c.block++

	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	txHash := crypto.Keccak256Hash(sender.Bytes(), nonceBytes[:])

	for i, l := range logs {
		l.TxHash = txHash
		l.BlockNumber = c.block
		l.Index = uint(i)
	}
	receipt.TxHash = txHash
	receipt.Logs = logs
	receipt.BlockNumber = new(big.Int).SetUint64(c.block)
	receipt.GasUsed = 21000
	receipt.CumulativeGasUsed = receipt.GasUsed

	c.receipts[txHash] = receipt
	c.stored[txHash] = &transaction.StoredTransaction{
		To:          request.To,
		Data:        request.Data,
		GasPrice:    new(big.Int),
		GasLimit:    request.GasLimit,
		Value:       value,
		Nonce:       nonce,
		Created:     time.Now().Unix(),
		Description: request.Description,
	}
	return txHash, nil
}

func (c *Chain) call(sender common.Address, request *transaction.TxRequest) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if request.To == nil {
		return nil, errors.New("simulation: call without recipient")
	}
	// views run against a throwaway copy
	w := c.world.clone()
	var logs []*types.Log
	out, err := w.call(sender, *request.To, new(big.Int), request.Data, &logs, 0)
	if err != nil {
		var r *revertError
		if errors.As(err, &r) {
			return nil, fmt.Errorf("%w: %v", transaction.ErrTransactionReverted, err)
		}
		return nil, err
	}
	return out, nil
}

func (c *Chain) receipt(txHash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.receipts[txHash]
	if !ok {
		return nil, ErrUnknownTransaction
	}
	return r, nil
}

type transactor struct {
	chain  *Chain
	sender common.Address
}

func (t *transactor) Sender() common.Address {
	return t.sender
}

func (t *transactor) Send(ctx context.Context, request *transaction.TxRequest) (common.Hash, error) {
	if err := ctx.Err(); err != nil {
		return common.Hash{}, err
	}
	return t.chain.send(t.sender, request)
}

func (t *transactor) Call(ctx context.Context, request *transaction.TxRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.chain.call(t.sender, request)
}

func (t *transactor) WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.chain.receipt(txHash)
}

func (t *transactor) WatchSentTransaction(txHash common.Hash) (<-chan types.Receipt, <-chan error, error) {
	r, err := t.chain.receipt(txHash)
	if err != nil {
		return nil, nil, err
	}
	rc := make(chan types.Receipt, 1)
	rc <- *r
	return rc, make(chan error), nil
}

func (t *transactor) StoredTransaction(txHash common.Hash) (*transaction.StoredTransaction, error) {
	t.chain.mu.Lock()
	defer t.chain.mu.Unlock()
	s, ok := t.chain.stored[txHash]
	if !ok {
		return nil, transaction.ErrUnknownTransaction
	}
	return s, nil
}

func (t *transactor) PendingTransactions() ([]common.Hash, error) {
	return nil, nil
}

func (t *transactor) ResendTransaction(ctx context.Context, txHash common.Hash) error {
	if _, err := t.chain.receipt(txHash); err != nil {
		return err
	}
	return transaction.ErrAlreadyImported
}

func (t *transactor) Close() error {
	return nil
}
