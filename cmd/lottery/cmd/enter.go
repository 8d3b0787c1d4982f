// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vrflottery/lottery/pkg/transaction"
	"github.com/vrflottery/lottery/pkg/units"
)

const (
	optionNameAccount = "account"
	optionNameValue   = "value"
)

// entryMargin is added to the entrance fee so that a price movement between
// reading the fee and entering does not make the entry too small.
var entryMargin = big.NewInt(100000000)

func (c *command) initEnterCmd() {
	cmd := &cobra.Command{
		Use:   "enter",
		Short: "Enter the lottery from one or more accounts",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(args) > 0 {
				return cmd.Help()
			}

			indexes, err := cmd.Flags().GetIntSlice(optionNameAccount)
			if err != nil {
				return err
			}
			if err := uniqueAccounts(indexes); err != nil {
				return err
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

			owner, err := s.deployer.Lottery(ctx)
			if err != nil {
				return err
			}

			value, err := entryValue(c.config.GetString(optionNameValue), func() (*big.Int, error) {
				return owner.EntranceFee(ctx)
			})
			if err != nil {
				return err
			}

			senders := []transaction.Service{s.sender}
			if len(indexes) > 0 {
				senders = senders[:0]
				for _, i := range indexes {
					ts, err := s.chain.Account(i)
					if err != nil {
						return err
					}
					senders = append(senders, ts)
				}
			}

			g, gctx := errgroup.WithContext(ctx)
			for _, ts := range senders {
				ts := ts
				g.Go(func() error {
					l, err := s.deployer.LotteryFor(gctx, ts)
					if err != nil {
						return err
					}
					if _, err := l.Enter(gctx, value); err != nil {
						return fmt.Errorf("enter from %s: %w", ts.Sender().Hex(), err)
					}
					cmd.Printf("%s entered the lottery with %s wei\n", ts.Sender().Hex(), value)
					return nil
				})
			}
			return g.Wait()
		},
	}

	cmd.Flags().IntSlice(optionNameAccount, nil, "dev account index to enter from, can be repeated")
	cmd.Flags().String(optionNameValue, "", "entry value, the entrance fee plus 1e8 wei if empty")

	c.root.AddCommand(cmd)
}

// entryValue parses value, or adds the entry margin to the current entrance
// fee when value is empty.
func entryValue(value string, entranceFee func() (*big.Int, error)) (*big.Int, error) {
	if value != "" {
		v, err := units.ParseAmount(value)
		if err != nil {
			return nil, fmt.Errorf("entry value: %w", err)
		}
		return v, nil
	}
	fee, err := entranceFee()
	if err != nil {
		return nil, fmt.Errorf("entrance fee: %w", err)
	}
	return new(big.Int).Add(fee, entryMargin), nil
}

func uniqueAccounts(indexes []int) error {
	seen := make(map[int]struct{}, len(indexes))
	for _, i := range indexes {
		if _, ok := seen[i]; ok {
			return fmt.Errorf("account %d given more than once", i)
		}
		seen[i] = struct{}{}
	}
	return nil
}
