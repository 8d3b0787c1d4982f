// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package simulation

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vrflottery/lottery/pkg/contracts"
)

var (
	lotteryABI     = &contracts.LotteryContractABI
	linkTokenABI   = &contracts.LinkTokenContractABI
	coordinatorABI = &contracts.VRFCoordinatorMockContractABI
	aggregatorABI  = &contracts.MockV3AggregatorContractABI

	// usdEntryFee is 50 USD with 18 decimals.
	usdEntryFee = new(big.Int).Mul(big.NewInt(50), big.NewInt(1e18))

	// linkTotalSupply is minted to the LinkToken deployer.
	linkTotalSupply = new(big.Int).Exp(big.NewInt(10), big.NewInt(27), nil)

	bytes32Type, _ = abi.NewType("bytes32", "", nil)
	uint256Type, _ = abi.NewType("uint256", "", nil)
	addressType, _ = abi.NewType("address", "", nil)
)

const (
	stateOpen uint8 = iota
	stateClosed
	stateCalculatingWinner
)

type lottery struct {
	owner          common.Address
	priceFeed      common.Address
	vrfCoordinator common.Address
	link           common.Address
	fee            *big.Int
	keyHash        [32]byte
	players        []common.Address
	state          uint8
	recentWinner   common.Address
	randomness     *big.Int
	nonce          *big.Int
}

func newLottery(e *env, args []interface{}) (contract, error) {
	return &lottery{
		owner:          e.sender,
		priceFeed:      args[0].(common.Address),
		vrfCoordinator: args[1].(common.Address),
		link:           args[2].(common.Address),
		fee:            args[3].(*big.Int),
		keyHash:        args[4].([32]byte),
		state:          stateClosed,
		randomness:     new(big.Int),
		nonce:          new(big.Int),
	}, nil
}

func (l *lottery) name() string  { return contracts.LotteryName }
func (l *lottery) abi() *abi.ABI { return lotteryABI }

func (l *lottery) clone() contract {
	c := *l
	c.players = append([]common.Address(nil), l.players...)
	return &c
}

func (l *lottery) exec(e *env, method string, args []interface{}) ([]interface{}, error) {
	switch method {
	case "getEntranceFee":
		fee, err := l.entranceFee(e)
		if err != nil {
			return nil, err
		}
		return []interface{}{fee}, nil
	case "enter":
		if l.state != stateOpen {
			return nil, revert("")
		}
		fee, err := l.entranceFee(e)
		if err != nil {
			return nil, err
		}
		if e.value.Cmp(fee) < 0 {
			return nil, revert("Not enough ETH!")
		}
		l.players = append(l.players, e.sender)
		return nil, nil
	case "startLottery":
		if err := l.onlyOwner(e); err != nil {
			return nil, err
		}
		if l.state != stateClosed {
			return nil, revert("Can't start a new lottery yet!")
		}
		l.state = stateOpen
		return nil, nil
	case "endLottery":
		if err := l.onlyOwner(e); err != nil {
			return nil, err
		}
		l.state = stateCalculatingWinner
		requestID, err := l.requestRandomness(e)
		if err != nil {
			return nil, err
		}
		return nil, e.emit(lotteryABI, "RequestRandomness", requestID)
	case "rawFulfillRandomness":
		if e.sender != l.vrfCoordinator {
			return nil, revert("Only VRFCoordinator can fulfill")
		}
		return nil, l.fulfillRandomness(e, args[1].(*big.Int))
	case "players":
		i := args[0].(*big.Int)
		if !i.IsUint64() || i.Uint64() >= uint64(len(l.players)) {
			return nil, revert("")
		}
		return []interface{}{l.players[i.Uint64()]}, nil
	case "lottery_state":
		return []interface{}{l.state}, nil
	case "recentWinner":
		return []interface{}{l.recentWinner}, nil
	case "owner":
		return []interface{}{l.owner}, nil
	case "fee":
		return []interface{}{l.fee}, nil
	case "keyhash":
		return []interface{}{l.keyHash}, nil
	case "randomness":
		return []interface{}{l.randomness}, nil
	case "usdEntryFee":
		return []interface{}{usdEntryFee}, nil
	}
	return nil, revert("unsupported method " + method)
}

func (l *lottery) onlyOwner(e *env) error {
	if e.sender != l.owner {
		return revert("Ownable: caller is not the owner")
	}
	return nil
}

// entranceFee converts the USD entry fee to wei at the feed price. The feed
// has 8 decimals and is scaled to 18.
func (l *lottery) entranceFee(e *env) (*big.Int, error) {
	round, err := e.callContract(l.priceFeed, aggregatorABI, "latestRoundData")
	if err != nil {
		return nil, err
	}
	price := round[1].(*big.Int)
	adjusted := new(big.Int).Mul(price, big.NewInt(1e10))
	if adjusted.Sign() <= 0 {
		return nil, revert("invalid price")
	}
	cost := new(big.Int).Mul(usdEntryFee, big.NewInt(1e18))
	return cost.Div(cost, adjusted), nil
}

// requestRandomness pays the oracle fee with transferAndCall and derives the
// request id the coordinator will answer.
func (l *lottery) requestRandomness(e *env) ([32]byte, error) {
	userSeed := new(big.Int)
	data, err := abi.Arguments{{Type: bytes32Type}, {Type: uint256Type}}.Pack(l.keyHash, userSeed)
	if err != nil {
		return [32]byte{}, err
	}
	if _, err := e.callContract(l.link, linkTokenABI, "transferAndCall", l.vrfCoordinator, l.fee, data); err != nil {
		return [32]byte{}, err
	}

	seed, err := VRFInputSeed(l.keyHash, userSeed, e.self, l.nonce)
	if err != nil {
		return [32]byte{}, err
	}
	l.nonce = new(big.Int).Add(l.nonce, big.NewInt(1))
	return RequestID(l.keyHash, seed), nil
}

func (l *lottery) fulfillRandomness(e *env, randomness *big.Int) error {
	if l.state != stateCalculatingWinner {
		return revert("You aren't there yet!")
	}
	if randomness.Sign() <= 0 {
		return revert("random-not-found")
	}
	if len(l.players) == 0 {
		return revert("division or modulo by zero")
	}
	index := new(big.Int).Mod(randomness, big.NewInt(int64(len(l.players))))
	l.recentWinner = l.players[index.Int64()]
	if err := e.send(l.recentWinner, e.world.balance(e.self)); err != nil {
		return err
	}
	l.players = nil
	l.state = stateClosed
	l.randomness = randomness
	return nil
}

// VRFInputSeed is keccak256(abi.encode(keyHash, userSeed, requester, nonce)).
func VRFInputSeed(keyHash [32]byte, userSeed *big.Int, requester common.Address, nonce *big.Int) (*big.Int, error) {
	encoded, err := abi.Arguments{
		{Type: bytes32Type},
		{Type: uint256Type},
		{Type: addressType},
		{Type: uint256Type},
	}.Pack(keyHash, userSeed, requester, nonce)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(crypto.Keccak256(encoded)), nil
}

// RequestID is keccak256(abi.encodePacked(keyHash, seed)).
func RequestID(keyHash [32]byte, seed *big.Int) [32]byte {
	return crypto.Keccak256Hash(keyHash[:], common.BigToHash(seed).Bytes())
}

type linkToken struct {
	balances map[common.Address]*big.Int
}

func newLinkToken(e *env, args []interface{}) (contract, error) {
	t := &linkToken{balances: map[common.Address]*big.Int{e.sender: linkTotalSupply}}
	return t, e.emit(linkTokenABI, "Transfer", common.Address{}, e.sender, linkTotalSupply)
}

func (t *linkToken) name() string  { return contracts.LinkTokenName }
func (t *linkToken) abi() *abi.ABI { return linkTokenABI }

func (t *linkToken) clone() contract {
	c := &linkToken{balances: make(map[common.Address]*big.Int, len(t.balances))}
	for a, b := range t.balances {
		c.balances[a] = b
	}
	return c
}

func (t *linkToken) balanceOf(a common.Address) *big.Int {
	if b, ok := t.balances[a]; ok {
		return b
	}
	return new(big.Int)
}

func (t *linkToken) transfer(e *env, to common.Address, value *big.Int) error {
	from := t.balanceOf(e.sender)
	if from.Cmp(value) < 0 {
		return revert("SafeMath: subtraction overflow")
	}
	t.balances[e.sender] = new(big.Int).Sub(from, value)
	t.balances[to] = new(big.Int).Add(t.balanceOf(to), value)
	return e.emit(linkTokenABI, "Transfer", e.sender, to, value)
}

func (t *linkToken) exec(e *env, method string, args []interface{}) ([]interface{}, error) {
	switch method {
	case "totalSupply":
		return []interface{}{linkTotalSupply}, nil
	case "decimals":
		return []interface{}{uint8(18)}, nil
	case "balanceOf":
		return []interface{}{t.balanceOf(args[0].(common.Address))}, nil
	case "transfer":
		if err := t.transfer(e, args[0].(common.Address), args[1].(*big.Int)); err != nil {
			return nil, err
		}
		return []interface{}{true}, nil
	case "transferAndCall":
		to := args[0].(common.Address)
		value := args[1].(*big.Int)
		if err := t.transfer(e, to, value); err != nil {
			return nil, err
		}
		if _, ok := e.world.contracts[to]; ok {
			if _, err := e.callContract(to, coordinatorABI, "onTokenTransfer", e.sender, value, args[2].([]byte)); err != nil {
				return nil, err
			}
		}
		return []interface{}{true}, nil
	}
	return nil, revert("unsupported method " + method)
}

type coordinator struct {
	link common.Address
}

func newCoordinator(e *env, args []interface{}) (contract, error) {
	return &coordinator{link: args[0].(common.Address)}, nil
}

func (c *coordinator) name() string    { return contracts.VRFCoordinatorMockName }
func (c *coordinator) abi() *abi.ABI   { return coordinatorABI }
func (c *coordinator) clone() contract { cc := *c; return &cc }

func (c *coordinator) exec(e *env, method string, args []interface{}) ([]interface{}, error) {
	switch method {
	case "LINK":
		return []interface{}{c.link}, nil
	case "onTokenTransfer":
		if e.sender != c.link {
			return nil, revert("Must use LINK token")
		}
		decoded, err := abi.Arguments{{Type: bytes32Type}, {Type: uint256Type}}.Unpack(args[2].([]byte))
		if err != nil {
			return nil, revert("bad request data")
		}
		return nil, e.emit(coordinatorABI, "RandomnessRequest", args[0].(common.Address), decoded[0].([32]byte), decoded[1].(*big.Int))
	case "callBackWithRandomness":
		requestID := args[0].([32]byte)
		randomness := args[1].(*big.Int)
		consumer := args[2].(common.Address)
		// the consumer call result is ignored, a failing fulfilment leaves
		// the consumer untouched
		snapshot := e.world.clone()
		logs := len(*e.logs)
		if _, err := e.callContract(consumer, lotteryABI, "rawFulfillRandomness", requestID, randomness); err != nil {
			e.world.restore(snapshot)
			*e.logs = (*e.logs)[:logs]
		}
		return nil, nil
	}
	return nil, revert("unsupported method " + method)
}

type aggregator struct {
	decimals  uint8
	answer    *big.Int
	round     *big.Int
	updatedAt *big.Int
}

func newAggregator(e *env, args []interface{}) (contract, error) {
	return &aggregator{
		decimals:  args[0].(uint8),
		answer:    args[1].(*big.Int),
		round:     big.NewInt(1),
		updatedAt: new(big.Int),
	}, nil
}

func (a *aggregator) name() string    { return contracts.MockV3AggregatorName }
func (a *aggregator) abi() *abi.ABI   { return aggregatorABI }
func (a *aggregator) clone() contract { c := *a; return &c }

func (a *aggregator) exec(e *env, method string, args []interface{}) ([]interface{}, error) {
	switch method {
	case "decimals":
		return []interface{}{a.decimals}, nil
	case "latestAnswer":
		return []interface{}{a.answer}, nil
	case "latestRoundData":
		return []interface{}{a.round, a.answer, a.updatedAt, a.updatedAt, a.round}, nil
	case "updateAnswer":
		a.answer = args[0].(*big.Int)
		a.round = new(big.Int).Add(a.round, big.NewInt(1))
		return nil, nil
	}
	return nil, revert("unsupported method " + method)
}
