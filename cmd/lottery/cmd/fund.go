// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vrflottery/lottery/pkg/linktoken"
	"github.com/vrflottery/lottery/pkg/units"
)

const optionNameAmount = "amount"

func (c *command) initFundCmd() {
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Fund the lottery with LINK for the randomness request",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(args) > 0 {
				return cmd.Help()
			}

			s, err := c.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			amount := linktoken.DefaultFundAmount
			if v := c.config.GetString(optionNameAmount); v != "" {
				if amount, err = units.ParseAmount(v); err != nil {
					return err
				}
			}

			ctx, err := c.transactionContext(cmd.Context())
			if err != nil {
				return err
			}

			l, err := s.deployer.Lottery(ctx)
			if err != nil {
				return err
			}
			link, err := s.deployer.LinkToken(ctx)
			if err != nil {
				return err
			}
			if _, err := link.Fund(ctx, l.Address(), amount); err != nil {
				return err
			}
			cmd.Printf("Funded %s with %s LINK\n", l.Address().Hex(), units.FromWei(amount, units.Link))
			return nil
		},
	}

	cmd.Flags().String(optionNameAmount, "", "LINK amount, such as \"0.1 link\", 0.1 LINK if empty")

	c.root.AddCommand(cmd)
}
