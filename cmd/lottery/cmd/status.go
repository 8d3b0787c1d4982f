// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vrflottery/lottery/pkg/lottery"
	"github.com/vrflottery/lottery/pkg/transaction"
	"github.com/vrflottery/lottery/pkg/units"
)

func (c *command) initStatusCmd() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the state of the deployed lottery",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(args) > 0 {
				return cmd.Help()
			}

			s, err := c.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			l, err := s.deployer.Lottery(ctx)
			if err != nil {
				return err
			}
			st, err := readStatus(ctx, l)
			if err != nil {
				return err
			}
			st.network = s.chain.Network().Name

			if link, err := s.deployer.LinkToken(ctx); err == nil {
				if b, err := link.BalanceOf(ctx, l.Address()); err == nil {
					st.link = units.FromWei(b, units.Link).String()
				}
			}
			if feed, err := s.deployer.PriceFeed(ctx); err == nil {
				if p, err := feed.Price(ctx); err == nil {
					st.price = p.String()
				}
			}

			return st.write(cmd.OutOrStdout())
		},
	}

	c.root.AddCommand(cmd)
}

type status struct {
	network      string
	lottery      lottery.Service
	state        lottery.State
	owner        string
	entranceFee  string
	recentWinner string
	balance      string
	players      uint64
	link         string
	price        string
}

func readStatus(ctx context.Context, l lottery.Service) (*status, error) {
	st := &status{lottery: l}

	state, err := l.State(ctx)
	if err != nil {
		return nil, err
	}
	st.state = state

	owner, err := l.Owner(ctx)
	if err != nil {
		return nil, err
	}
	st.owner = owner.Hex()

	fee, err := l.EntranceFee(ctx)
	if err != nil {
		return nil, err
	}
	st.entranceFee = units.FromWei(fee, units.Ether).String()

	winner, err := l.RecentWinner(ctx)
	if err != nil {
		return nil, err
	}
	st.recentWinner = winner.Hex()

	balance, err := l.Balance(ctx)
	if err != nil {
		return nil, err
	}
	st.balance = units.FromWei(balance, units.Ether).String()

	if st.players, err = countPlayers(ctx, l); err != nil {
		return nil, err
	}
	return st, nil
}

func (st *status) write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if st.network != "" {
		fmt.Fprintf(tw, "Network:\t%s\n", st.network)
	}
	fmt.Fprintf(tw, "Lottery:\t%s\n", st.lottery.Address().Hex())
	fmt.Fprintf(tw, "Owner:\t%s\n", st.owner)
	fmt.Fprintf(tw, "State:\t%s\n", st.state)
	fmt.Fprintf(tw, "Entrance fee:\t%s ETH\n", st.entranceFee)
	fmt.Fprintf(tw, "Players:\t%d\n", st.players)
	fmt.Fprintf(tw, "Balance:\t%s ETH\n", st.balance)
	fmt.Fprintf(tw, "Recent winner:\t%s\n", st.recentWinner)
	if st.link != "" {
		fmt.Fprintf(tw, "LINK balance:\t%s LINK\n", st.link)
	}
	if st.price != "" {
		fmt.Fprintf(tw, "ETH/USD:\t%s\n", st.price)
	}
	return tw.Flush()
}

// countPlayers reads players until the index is out of range, which
// fails in the EVM.
func countPlayers(ctx context.Context, l lottery.Service) (uint64, error) {
	var n uint64
	for {
		_, err := l.Player(ctx, n)
		if err != nil {
			if errors.Is(err, transaction.ErrTransactionReverted) {
				return n, nil
			}
			return 0, err
		}
		n++
	}
}
