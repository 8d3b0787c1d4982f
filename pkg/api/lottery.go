// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"

	"github.com/vrflottery/lottery/pkg/jsonhttp"
	"github.com/vrflottery/lottery/pkg/transaction"
	"github.com/vrflottery/lottery/pkg/units"
)

type lotteryResponse struct {
	Address      common.Address `json:"address"`
	State        string         `json:"state"`
	EntranceFee  string         `json:"entranceFee"`
	RecentWinner common.Address `json:"recentWinner"`
	Balance      string         `json:"balance"`
	BalanceEther string         `json:"balanceEther"`
}

type playerResponse struct {
	Index   uint64         `json:"index"`
	Address common.Address `json:"address"`
}

func (s *server) lotteryHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state, err := s.Lottery.State(ctx)
	if err != nil {
		s.Logger.Debugf("api: lottery: state: %v", err)
		s.Logger.Error("api: lottery: cannot read state")
		jsonhttp.InternalServerError(w, "cannot read lottery state")
		return
	}
	fee, err := s.Lottery.EntranceFee(ctx)
	if err != nil {
		s.Logger.Debugf("api: lottery: entrance fee: %v", err)
		s.Logger.Error("api: lottery: cannot read entrance fee")
		jsonhttp.InternalServerError(w, "cannot read entrance fee")
		return
	}
	winner, err := s.Lottery.RecentWinner(ctx)
	if err != nil {
		s.Logger.Debugf("api: lottery: recent winner: %v", err)
		s.Logger.Error("api: lottery: cannot read recent winner")
		jsonhttp.InternalServerError(w, "cannot read recent winner")
		return
	}
	balance, err := s.Lottery.Balance(ctx)
	if err != nil {
		s.Logger.Debugf("api: lottery: balance: %v", err)
		s.Logger.Error("api: lottery: cannot read balance")
		jsonhttp.InternalServerError(w, "cannot read balance")
		return
	}

	jsonhttp.OK(w, lotteryResponse{
		Address:      s.Lottery.Address(),
		State:        state.String(),
		EntranceFee:  fee.String(),
		RecentWinner: winner,
		Balance:      balance.String(),
		BalanceEther: units.FromWei(balance, units.Ether).String(),
	})
}

func (s *server) playerHandler(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseUint(mux.Vars(r)["index"], 10, 64)
	if err != nil {
		s.Logger.Debugf("api: lottery player: parse index: %v", err)
		jsonhttp.BadRequest(w, "invalid player index")
		return
	}

	player, err := s.Lottery.Player(r.Context(), index)
	if err != nil {
		// out of range reads revert
		if errors.Is(err, transaction.ErrTransactionReverted) {
			jsonhttp.NotFound(w, "player not found")
			return
		}
		s.Logger.Debugf("api: lottery player %d: %v", index, err)
		s.Logger.Errorf("api: lottery player %d: cannot read player", index)
		jsonhttp.InternalServerError(w, "cannot read player")
		return
	}

	jsonhttp.OK(w, playerResponse{
		Index:   index,
		Address: player,
	})
}
