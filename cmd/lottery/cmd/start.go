// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"github.com/spf13/cobra"
)

func (c *command) initStartCmd() {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Open the deployed lottery for entries",
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
			if _, err := l.Start(ctx); err != nil {
				return err
			}
			cmd.Println("The lottery is started!")
			return nil
		},
	}

	c.root.AddCommand(cmd)
}
