// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"github.com/spf13/cobra"
)

func (c *command) initDeployCmd() {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the lottery contract, and the mocks it needs on local networks",
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

			l, err := s.deployer.DeployLottery(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("Deployed lottery to %s\n", l.Address().Hex())
			return nil
		},
	}

	c.root.AddCommand(cmd)
}
