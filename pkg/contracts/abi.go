// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package contracts

import "github.com/vrflottery/lottery/pkg/transaction"

// Names of the compiled contracts as they appear in the build directory.
const (
	LotteryName            = "Lottery"
	LinkTokenName          = "LinkToken"
	VRFCoordinatorMockName = "VRFCoordinatorMock"
	MockV3AggregatorName   = "MockV3Aggregator"
)

// LotteryABI is the interface of the VRF consumer lottery.
const LotteryABI = `[
	{"type":"constructor","stateMutability":"nonpayable","inputs":[
		{"name":"_priceFeedAddress","type":"address"},
		{"name":"_vrfCoordinator","type":"address"},
		{"name":"_link","type":"address"},
		{"name":"_fee","type":"uint256"},
		{"name":"_keyhash","type":"bytes32"}]},
	{"type":"function","name":"enter","stateMutability":"payable","inputs":[],"outputs":[]},
	{"type":"function","name":"getEntranceFee","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"startLottery","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"endLottery","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"players","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"lottery_state","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"recentWinner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"fee","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"keyhash","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"randomness","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"usdEntryFee","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"rawFulfillRandomness","stateMutability":"nonpayable","inputs":[
		{"name":"requestId","type":"bytes32"},
		{"name":"randomness","type":"uint256"}],"outputs":[]},
	{"type":"event","name":"RequestRandomness","anonymous":false,"inputs":[{"name":"requestId","type":"bytes32","indexed":false}]}
]`

// LinkTokenABI is the ERC677 LINK token interface.
const LinkTokenABI = `[
	{"type":"constructor","stateMutability":"nonpayable","inputs":[]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"_owner","type":"address"}],"outputs":[{"name":"balance","type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[
		{"name":"_to","type":"address"},
		{"name":"_value","type":"uint256"}],"outputs":[{"name":"success","type":"bool"}]},
	{"type":"function","name":"transferAndCall","stateMutability":"nonpayable","inputs":[
		{"name":"_to","type":"address"},
		{"name":"_value","type":"uint256"},
		{"name":"_data","type":"bytes"}],"outputs":[{"name":"success","type":"bool"}]},
	{"type":"event","name":"Transfer","anonymous":false,"inputs":[
		{"name":"from","type":"address","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"value","type":"uint256","indexed":false}]}
]`

// VRFCoordinatorMockABI is the interface of the mock randomness oracle.
const VRFCoordinatorMockABI = `[
	{"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"linkAddress","type":"address"}]},
	{"type":"function","name":"LINK","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"callBackWithRandomness","stateMutability":"nonpayable","inputs":[
		{"name":"requestId","type":"bytes32"},
		{"name":"randomness","type":"uint256"},
		{"name":"consumerContract","type":"address"}],"outputs":[]},
	{"type":"function","name":"onTokenTransfer","stateMutability":"nonpayable","inputs":[
		{"name":"sender","type":"address"},
		{"name":"fee","type":"uint256"},
		{"name":"_data","type":"bytes"}],"outputs":[]},
	{"type":"event","name":"RandomnessRequest","anonymous":false,"inputs":[
		{"name":"sender","type":"address","indexed":true},
		{"name":"keyHash","type":"bytes32","indexed":true},
		{"name":"seed","type":"uint256","indexed":true}]}
]`

// MockV3AggregatorABI is the interface of the mock price feed.
const MockV3AggregatorABI = `[
	{"type":"constructor","stateMutability":"nonpayable","inputs":[
		{"name":"_decimals","type":"uint8"},
		{"name":"_initialAnswer","type":"int256"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"latestAnswer","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"int256"}]},
	{"type":"function","name":"latestRoundData","stateMutability":"view","inputs":[],"outputs":[
		{"name":"roundId","type":"uint80"},
		{"name":"answer","type":"int256"},
		{"name":"startedAt","type":"uint256"},
		{"name":"updatedAt","type":"uint256"},
		{"name":"answeredInRound","type":"uint80"}]},
	{"type":"function","name":"updateAnswer","stateMutability":"nonpayable","inputs":[{"name":"_answer","type":"int256"}],"outputs":[]}
]`

var (
	LotteryContractABI            = transaction.ParseABIUnchecked(LotteryABI)
	LinkTokenContractABI          = transaction.ParseABIUnchecked(LinkTokenABI)
	VRFCoordinatorMockContractABI = transaction.ParseABIUnchecked(VRFCoordinatorMockABI)
	MockV3AggregatorContractABI   = transaction.ParseABIUnchecked(MockV3AggregatorABI)
)

// ABIs maps contract names to their JSON ABI.
var ABIs = map[string]string{
	LotteryName:            LotteryABI,
	LinkTokenName:          LinkTokenABI,
	VRFCoordinatorMockName: VRFCoordinatorMockABI,
	MockV3AggregatorName:   MockV3AggregatorABI,
}
