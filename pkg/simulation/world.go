// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package simulation

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vrflottery/lottery/pkg/contracts"
)

// maxCallDepth bounds nested contract calls.
const maxCallDepth = 16

type revertError struct {
	reason string
}

func (e *revertError) Error() string {
	if e.reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.reason
}

func revert(reason string) error {
	return &revertError{reason: reason}
}

// contract is a simulated contract instance.
type contract interface {
	name() string
	abi() *abi.ABI
	exec(e *env, method string, args []interface{}) ([]interface{}, error)
	clone() contract
}

type constructor func(e *env, args []interface{}) (contract, error)

var constructors = map[string]constructor{
	contracts.LotteryName:            newLottery,
	contracts.LinkTokenName:          newLinkToken,
	contracts.VRFCoordinatorMockName: newCoordinator,
	contracts.MockV3AggregatorName:   newAggregator,
}

var abis = map[string]*abi.ABI{
	contracts.LotteryName:            &contracts.LotteryContractABI,
	contracts.LinkTokenName:          &contracts.LinkTokenContractABI,
	contracts.VRFCoordinatorMockName: &contracts.VRFCoordinatorMockContractABI,
	contracts.MockV3AggregatorName:   &contracts.MockV3AggregatorContractABI,
}

// marker is the creation bytecode the simulation recognises for name.
func marker(name string) []byte {
	return crypto.Keccak256([]byte("simulation:" + name))
}

// Artifacts returns deployable artifacts for the simulated contracts.
func Artifacts() contracts.ArtifactSource {
	m := make(contracts.MapSource, len(abis))
	for name, a := range abis {
		m[name] = &contracts.Artifact{
			Name:     name,
			ABI:      *a,
			Bytecode: marker(name),
		}
	}
	return m
}

type world struct {
	balances  map[common.Address]*big.Int
	contracts map[common.Address]contract
}

func newWorld() *world {
	return &world{
		balances:  make(map[common.Address]*big.Int),
		contracts: make(map[common.Address]contract),
	}
}

// clone copies the world. Balances are never mutated in place, so the
// big.Int values are shared.
func (w *world) clone() *world {
	c := &world{
		balances:  make(map[common.Address]*big.Int, len(w.balances)),
		contracts: make(map[common.Address]contract, len(w.contracts)),
	}
	for a, b := range w.balances {
		c.balances[a] = b
	}
	for a, ct := range w.contracts {
		c.contracts[a] = ct.clone()
	}
	return c
}

func (w *world) restore(s *world) {
	w.balances = s.balances
	w.contracts = s.contracts
}

func (w *world) balance(account common.Address) *big.Int {
	if b, ok := w.balances[account]; ok {
		return b
	}
	return new(big.Int)
}

func (w *world) transfer(from, to common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	fb := w.balance(from)
	if fb.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient funds for transfer: address %s have %d want %d", from.Hex(), fb, amount)
	}
	w.balances[from] = new(big.Int).Sub(fb, amount)
	w.balances[to] = new(big.Int).Add(w.balance(to), amount)
	return nil
}

func (w *world) deploy(sender, address common.Address, data []byte, logs *[]*types.Log) error {
	for name, ctor := range constructors {
		m := marker(name)
		if !bytes.HasPrefix(data, m) {
			continue
		}
		args, err := abis[name].Constructor.Inputs.Unpack(data[len(m):])
		if err != nil {
			return revert(fmt.Sprintf("constructor arguments of %s: %v", name, err))
		}
		e := &env{world: w, sender: sender, self: address, value: new(big.Int), logs: logs}
		c, err := ctor(e, args)
		if err != nil {
			return err
		}
		w.contracts[address] = c
		return nil
	}
	return revert("unknown bytecode")
}

// call executes input against the account at to. Value is moved before the
// code runs; the caller restores the world when an error is returned.
func (w *world) call(from, to common.Address, value *big.Int, input []byte, logs *[]*types.Log, depth int) ([]byte, error) {
	if depth > maxCallDepth {
		return nil, revert("call depth exceeded")
	}
	if err := w.transfer(from, to, value); err != nil {
		return nil, err
	}
	c, ok := w.contracts[to]
	if !ok {
		return nil, nil
	}
	if len(input) < 4 {
		return nil, revert("no fallback function")
	}
	a := c.abi()
	method, err := a.MethodById(input[:4])
	if err != nil {
		return nil, revert("unknown function selector")
	}
	if value.Sign() > 0 && method.StateMutability != "payable" {
		return nil, revert("non-payable function " + method.Name)
	}
	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, revert(fmt.Sprintf("arguments of %s: %v", method.Name, err))
	}
	e := &env{world: w, sender: from, self: to, value: value, logs: logs, depth: depth}
	out, err := c.exec(e, method.Name, args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(out...)
}

// env is the execution context of one contract call.
type env struct {
	world  *world
	sender common.Address
	self   common.Address
	value  *big.Int
	logs   *[]*types.Log
	depth  int
}

// callContract calls method on the contract at to from the executing
// contract and returns the unpacked results.
func (e *env) callContract(to common.Address, a *abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	if _, ok := e.world.contracts[to]; !ok {
		return nil, revert("call to non-contract " + to.Hex())
	}
	input, err := a.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	out, err := e.world.call(e.self, to, new(big.Int), input, e.logs, e.depth+1)
	if err != nil {
		return nil, err
	}
	return a.Unpack(method, out)
}

// send moves wei from the executing contract.
func (e *env) send(to common.Address, amount *big.Int) error {
	if err := e.world.transfer(e.self, to, amount); err != nil {
		return revert(err.Error())
	}
	return nil
}

func (e *env) emit(a *abi.ABI, name string, args ...interface{}) error {
	event, ok := a.Events[name]
	if !ok {
		return fmt.Errorf("simulation: no event %s", name)
	}
	if len(args) != len(event.Inputs) {
		return fmt.Errorf("simulation: event %s takes %d arguments", name, len(event.Inputs))
	}
	topics := []common.Hash{event.ID}
	var data []interface{}
	for i, in := range event.Inputs {
		if !in.Indexed {
			data = append(data, args[i])
			continue
		}
		t, err := topic(args[i])
		if err != nil {
			return err
		}
		topics = append(topics, t)
	}
	packed, err := event.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		return err
	}
	*e.logs = append(*e.logs, &types.Log{
		Address: e.self,
		Topics:  topics,
		Data:    packed,
	})
	return nil
}

func topic(v interface{}) (common.Hash, error) {
	switch t := v.(type) {
	case common.Address:
		return common.BytesToHash(t.Bytes()), nil
	case [32]byte:
		return common.Hash(t), nil
	case common.Hash:
		return t, nil
	case *big.Int:
		return common.BigToHash(t), nil
	default:
		return common.Hash{}, fmt.Errorf("simulation: unsupported topic type %T", v)
	}
}
