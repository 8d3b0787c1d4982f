// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

func (c *command) initEndCmd() {
	cmd := &cobra.Command{
		Use:   "end",
		Short: "Close the lottery and request randomness for the winner",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(args) > 0 {
				return cmd.Help()
			}

			s, err := c.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, err := c.transactionContext(cmd.Context())
			if err != nil {
				return err
			}

			l, err := s.deployer.Lottery(ctx)
			if err != nil {
				return err
			}
			requestID, _, err := l.End(ctx)
			if err != nil {
				return err
			}
			if err := s.chain.StateStore().Put(requestKey(s.chain.ChainID(), l.Address()), requestID); err != nil {
				return fmt.Errorf("store request id: %w", err)
			}
			cmd.Printf("Requested randomness %s\n", requestID.Hex())
			return nil
		},
	}

	c.root.AddCommand(cmd)
}

// requestKey is the state store key of the last randomness request of a
// lottery.
func requestKey(chainID *big.Int, lottery common.Address) string {
	return fmt.Sprintf("randomness_request_%s_%x", chainID, lottery)
}
