// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/vrflottery/lottery/pkg/lottery"
	"github.com/vrflottery/lottery/pkg/storage"
)

const (
	optionNameRandomness = "randomness"
	optionNameRequestID  = "request-id"
)

var (
	errNotLocal            = errors.New("the mock oracle callback is only available on local networks")
	errNoRequest           = errors.New("no randomness request, end the lottery first")
	errRandomnessRejected  = errors.New("randomness was not accepted by the lottery")
	errRandomnessMalformed = errors.New("randomness must be a non-negative integer")
)

func (c *command) initFulfillCmd() {
	cmd := &cobra.Command{
		Use:   "fulfill",
		Short: "Answer the randomness request with the mock VRF coordinator",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(args) > 0 {
				return cmd.Help()
			}

			s, err := c.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if !s.chain.Network().Local() {
				return errNotLocal
			}

			randomness, ok := new(big.Int).SetString(c.config.GetString(optionNameRandomness), 10)
			if !ok || randomness.Sign() < 0 {
				return errRandomnessMalformed
			}

			ctx, err := c.transactionContext(cmd.Context())
			if err != nil {
				return err
			}

			l, err := s.deployer.Lottery(ctx)
			if err != nil {
				return err
			}

			var requestID common.Hash
			if v := c.config.GetString(optionNameRequestID); v != "" {
				requestID = common.HexToHash(v)
			} else if err := s.chain.StateStore().Get(requestKey(s.chain.ChainID(), l.Address()), &requestID); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return errNoRequest
				}
				return err
			}

			players, err := countPlayers(ctx, l)
			if err != nil {
				return err
			}

			coordinator, err := s.deployer.Coordinator(ctx, nil)
			if err != nil {
				return err
			}
			if _, err := coordinator.CallBackWithRandomness(ctx, requestID, randomness, l.Address()); err != nil {
				return err
			}

			state, err := l.State(ctx)
			if err != nil {
				return err
			}
			if state != lottery.Closed {
				return fmt.Errorf("%w: lottery is %s", errRandomnessRejected, state)
			}
			winner, err := l.RecentWinner(ctx)
			if err != nil {
				return err
			}
			if index, err := lottery.ExpectedWinner(randomness, players); err == nil {
				cmd.Printf("Winner is player %d of %d\n", index, players)
			}
			cmd.Printf("%s is the new winner!\n", winner.Hex())
			return nil
		},
	}

	cmd.Flags().String(optionNameRandomness, "777", "random number delivered to the lottery")
	cmd.Flags().String(optionNameRequestID, "", "request id to answer, the last request of the lottery if empty")

	c.root.AddCommand(cmd)
}
